package httpapi

import (
	"net/http"
	"time"

	applog "moneta/internal/log"
	"moneta/internal/session"
)

type sessionResponse struct {
	State   string           `json:"state"`
	User    *userResponse    `json:"user,omitempty"`
	Profile *profileResponse `json:"profile,omitempty"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type profileResponse struct {
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Occupation  string `json:"occupation,omitempty"`
	Biography   string `json:"biography,omitempty"`
	BirthDate   string `json:"birth_date,omitempty"`
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.session.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "session unavailable")
		return
	}

	resp := sessionResponse{State: string(snap.State)}
	if snap.State == session.StateAuthenticated {
		resp.User = &userResponse{ID: snap.Identity.ID, Email: snap.Identity.Email}
		if snap.Profile != (session.Profile{}) {
			resp.Profile = &profileResponse{
				DisplayName: snap.Profile.DisplayName,
				AvatarURL:   snap.Profile.AvatarURL,
				Phone:       snap.Profile.Phone,
				Occupation:  snap.Profile.Occupation,
				Biography:   snap.Profile.Biography,
				BirthDate:   snap.Profile.BirthDate,
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeError(w, http.StatusNotFound, "sign-in not available")
		return
	}
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	id, err := s.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	// The session manager picks the sign-in up from the backend's auth
	// event stream; the response carries the identity for the caller.
	writeJSON(w, http.StatusOK, sessionResponse{
		State: string(session.StateAuthenticated),
		User:  &userResponse{ID: id.ID, Email: id.Email},
	})
}

type profileRequest struct {
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	Phone       string `json:"phone"`
	Occupation  string `json:"occupation"`
	Biography   string `json:"biography"`
	BirthDate   string `json:"birth_date"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeError(w, http.StatusNotFound, "profiles not available")
		return
	}
	owner, ok := s.authedOwner(w, r)
	if !ok {
		return
	}
	var req profileRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p := session.Profile{
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
		Phone:       req.Phone,
		Occupation:  req.Occupation,
		Biography:   req.Biography,
		BirthDate:   req.BirthDate,
	}
	if err := s.auth.UpdateProfile(r.Context(), owner, p); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Profile update failed", "error", err, "owner_id", owner)
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Logout(r.Context()); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Logout failed", "error", err)
		writeError(w, http.StatusBadGateway, "logout failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// authedOwner resolves the owner id for the request, or writes a 401.
func (s *Server) authedOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	snap, err := s.session.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "session unavailable")
		return "", false
	}
	if snap.State != session.StateAuthenticated {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return "", false
	}
	return snap.Identity.ID, true
}

func (s *Server) handleOnboarding(w http.ResponseWriter, r *http.Request) {
	if s.prefs == nil {
		writeError(w, http.StatusNotFound, "onboarding not available")
		return
	}
	owner, ok := s.authedOwner(w, r)
	if !ok {
		return
	}
	pending, err := s.prefs.ConsumeOnboarding(r.Context(), owner)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Onboarding flag read failed", "error", err, "owner_id", owner)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"show_onboarding": pending})
}

type activityResponse struct {
	Entity     string `json:"entity"`
	EntityID   string `json:"entity_id"`
	Op         string `json:"op"`
	OccurredAt string `json:"occurred_at"`
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	if s.prefs == nil {
		writeError(w, http.StatusNotFound, "activity feed not available")
		return
	}
	owner, ok := s.authedOwner(w, r)
	if !ok {
		return
	}
	entries, err := s.prefs.RecentActivity(r.Context(), owner, 50)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Activity read failed", "error", err, "owner_id", owner)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	resp := make([]activityResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, activityResponse{
			Entity:     e.Entity,
			EntityID:   e.EntityID,
			Op:         e.Op,
			OccurredAt: e.OccurredAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
