// Package httpapi exposes the JSON API: session state, dashboard aggregates
// and entity CRUD. Handlers read through the entity store and never talk to
// the backend adapters directly.
package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"moneta/internal/cache"
	applog "moneta/internal/log"
	"moneta/internal/prefs"
	"moneta/internal/session"
	"moneta/internal/store"
)

// Authenticator is the credential surface a live backend exposes. Demo mode
// has none; the login and profile endpoints then report 404.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (session.Identity, error)
	UpdateProfile(ctx context.Context, userID string, p session.Profile) error
}

type Server struct {
	http.Server
	store   *store.Store
	session *session.Manager
	prefs   *prefs.Store
	auth    Authenticator

	logger      *applog.Logger
	structLog   *applog.StructuredLogger
	rateLimiter *rateLimiter

	// Dashboard read caches, keyed by "<owner>|..." so a mutation can
	// invalidate one owner's entries by prefix.
	summaryCache *cache.LRUCache[summaryResponse]
	budgetsCache *cache.LRUCache[budgetsResponse]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and caches, returning a ready-to-run server.
// prefs and auth may be nil; their endpoints then report 404.
func NewServer(addr string, st *store.Store, sess *session.Manager, pf *prefs.Store, auth Authenticator) *Server {
	mux := http.NewServeMux()
	logger := applog.New(applog.Config{
		Level:     applog.DefaultConfig().Level,
		Component: applog.ComponentHTTP,
	})

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: applog.Middleware(logger)(mux),
		},
		logger:       logger,
		structLog:    applog.NewStructuredLogger(logger),
		store:        st,
		session:      sess,
		prefs:        pf,
		auth:         auth,
		rateLimiter:  newRateLimiter(),
		summaryCache: cache.NewLRUCache[summaryResponse](100, 5*time.Minute),
		budgetsCache: cache.NewLRUCache[budgetsResponse](100, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}
	s.cacheManager.Register("dashboard_summary", s.summaryCache)
	s.cacheManager.Register("dashboard_budgets", s.budgetsCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/session", s.withRequest(s.handleSession))
	mux.HandleFunc("POST /api/session/login", s.withRequest(s.handleLogin))
	mux.HandleFunc("POST /api/session/logout", s.withRequest(s.handleLogout))
	mux.HandleFunc("PUT /api/profile", s.withRequest(s.handleUpdateProfile))
	mux.HandleFunc("GET /api/onboarding", s.withRequest(s.handleOnboarding))
	mux.HandleFunc("GET /api/activity", s.withRequest(s.handleActivity))

	mux.HandleFunc("GET /api/dashboard/summary", s.withRequest(s.handleDashboardSummary))
	mux.HandleFunc("GET /api/dashboard/budgets", s.withRequest(s.handleDashboardBudgets))

	mux.HandleFunc("GET /api/accounts", s.withRequest(s.handleListAccounts))
	mux.HandleFunc("POST /api/accounts", s.withRequest(s.handleCreateAccount))
	mux.HandleFunc("PUT /api/accounts/{id}", s.withRequest(s.handleUpdateAccount))
	mux.HandleFunc("DELETE /api/accounts/{id}", s.withRequest(s.handleDeleteAccount))

	mux.HandleFunc("GET /api/categories", s.withRequest(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.withRequest(s.handleCreateCategory))
	mux.HandleFunc("PUT /api/categories/{id}", s.withRequest(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.withRequest(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/transactions", s.withRequest(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withRequest(s.handleCreateTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withRequest(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withRequest(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/budgets", s.withRequest(s.handleListBudgets))
	mux.HandleFunc("POST /api/budgets", s.withRequest(s.handleCreateBudget))
	mux.HandleFunc("PUT /api/budgets/{id}", s.withRequest(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.withRequest(s.handleDeleteBudget))

	return s
}

// withRequest adds request tracing, logging and write rate limiting.
func (s *Server) withRequest(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		ctx = context.WithValue(ctx, applog.LoggerContextKey, s.logger.With(applog.FieldRequestID, requestID))
		r = r.WithContext(ctx)

		s.structLog.LogHTTPStart(ctx, r, clientIP)

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.structLog.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// Shutdown stops the cleanup routines and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// invalidateOwner drops an owner's cached dashboard reads after a mutation.
func (s *Server) invalidateOwner(ownerID string) {
	s.summaryCache.DeletePrefix(ownerID + "|")
	s.budgetsCache.DeletePrefix(ownerID + "|")
}

// afterMutation invalidates the owner's cached reads and records the
// mutation in the request log.
func (s *Server) afterMutation(ctx context.Context, op, entity, entityID, ownerID string) {
	s.invalidateOwner(ownerID)
	s.structLog.LogMutation(ctx, op, entity, entityID, ownerID)
}

type contextKey string

const requestIDKey contextKey = "request_id"

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Simple in-memory rate limiter for mutating requests
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{lastRequest: now, requests: 1}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Allow up to 60 mutating requests per minute
	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}
