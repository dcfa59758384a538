package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"moneta/internal/backend"
	"moneta/internal/config"
	"moneta/internal/events"
	"moneta/internal/httpapi"
	applog "moneta/internal/log"
	"moneta/internal/prefs"
	"moneta/internal/session"
	"moneta/internal/store"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Backend configuration failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	factory := backend.NewFactory(logger.Logger)
	result, err := factory.CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", "error", err, "backend_mode", backendCfg.Type.String())
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}()
	}

	// The mutation-event bus is optional: without AMQP config the app runs
	// local-only.
	var publisher store.Publisher
	if cfg.AMQPURL != "" {
		eventsClient, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Event bus unavailable, continuing without mutation events", "error", err)
		} else {
			defer eventsClient.Close()
			publisher = eventsClient
			logger.Info("Event bus connected", "exchange", cfg.AMQPExchange)
		}
	}

	prefsStore, err := prefs.Open(cfg.PrefsDBPath)
	if err != nil {
		logger.Error("Failed to open preferences database", "error", err, "path", cfg.PrefsDBPath)
		os.Exit(1)
	}
	defer prefsStore.Close()

	st := store.New(result.Backend, publisher)

	// In remote mode the backend doubles as the auth source and credential
	// surface; demo mode runs with the fixed demo identity.
	var authSource session.AuthSource
	if src, ok := result.Backend.(session.AuthSource); ok {
		authSource = src
	}
	var authenticator httpapi.Authenticator
	if a, ok := result.Backend.(httpapi.Authenticator); ok {
		authenticator = a
	}

	sess := session.NewManager(authSource,
		session.WithLogger(logger.Logger),
		session.WithProfileTimeout(cfg.ProfileFetchTimeout),
		session.WithChangeListener(func(snap session.Snapshot) {
			switch snap.State {
			case session.StateAuthenticated:
				owner := snap.Identity.ID
				if owner == st.Owner() {
					// Profile enrichment only; collections are unaffected.
					return
				}
				st.SetOwner(owner)
				go func() {
					loadCtx, loadCancel := context.WithTimeout(context.Background(), 30*time.Second)
					defer loadCancel()
					if demoStore, ok := result.Backend.(interface {
						Seed(ownerID string, now time.Time)
					}); ok {
						demoStore.Seed(owner, time.Now())
					}
					if err := st.Refresh(loadCtx); err != nil {
						logger.Error("Initial data load failed", "error", err, "owner_id", owner)
					}
				}()
			case session.StateAnonymous:
				st.SetOwner("")
			}
		}))
	go sess.Run(ctx)

	srv := httpapi.NewServer(":"+cfg.Port, st, sess, prefsStore, authenticator)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting moneta server", "port", cfg.Port, "backend_mode", backendCfg.Type.String())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
