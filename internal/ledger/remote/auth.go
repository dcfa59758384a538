package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"moneta/internal/ledger"
	"moneta/internal/session"
)

// Ensure the client can drive a live session.
var _ session.AuthSource = (*Client)(nil)

type (
	tokenResponse struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}

	profileRow struct {
		ID          string  `json:"id,omitempty"`
		DisplayName *string `json:"display_name"`
		AvatarURL   *string `json:"avatar_url"`
		Phone       *string `json:"phone"`
		Occupation  *string `json:"occupation"`
		Biography   *string `json:"biography"`
		BirthDate   *string `json:"birth_date"`
	}
)

// SignIn authenticates with email and password. On success the client keeps
// the session token for subsequent REST calls and emits a signed-in event.
// The three recognized auth failures surface as their closed categories with
// fixed messages; raw backend text is never leaked for them.
func (c *Client) SignIn(ctx context.Context, email, password string) (session.Identity, error) {
	body := map[string]string{"email": email, "password": password}
	buf, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/auth/v1/token?grant_type=password", strings.NewReader(string(buf)))
	if err != nil {
		return session.Identity{}, fmt.Errorf("build sign-in request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return session.Identity{}, mapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return session.Identity{}, mapAuthError(resp)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return session.Identity{}, ledger.NewFailure(ledger.FailureGeneric, "unexpected auth response", err)
	}

	c.setToken(tok.AccessToken)
	id := session.Identity{ID: tok.User.ID, Email: tok.User.Email}
	c.emit(session.AuthEvent{SignedIn: true, Identity: id})
	return id, nil
}

// SignOut terminates the backend session and emits a signed-out event.
func (c *Client) SignOut(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/logout", nil)
	if err != nil {
		return fmt.Errorf("build sign-out request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.bearer())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The local session ends regardless; report the transport problem.
		c.setToken("")
		c.emit(session.AuthEvent{SignedIn: false})
		return mapTransportError(err)
	}
	defer resp.Body.Close()

	c.setToken("")
	c.emit(session.AuthEvent{SignedIn: false})
	return nil
}

// Events implements session.AuthSource.
func (c *Client) Events() <-chan session.AuthEvent {
	return c.events
}

func (c *Client) emit(ev session.AuthEvent) {
	select {
	case c.events <- ev:
	default:
		slog.Warn("Auth event dropped, subscriber not keeping up", "signed_in", ev.SignedIn)
	}
}

// FetchProfile reads the enrichment profile row for a user. Callers race it
// against a timeout; a miss is not an error the session surfaces.
func (c *Client) FetchProfile(ctx context.Context, userID string) (session.Profile, error) {
	var rows []profileRow
	if err := c.doJSON(ctx, http.MethodGet, c.rest("profiles", idFilter(userID)), nil, &rows); err != nil {
		return session.Profile{}, fmt.Errorf("fetch profile: %w", err)
	}
	if len(rows) == 0 {
		return session.Profile{}, ledger.ErrNotFound
	}
	r := rows[0]
	return session.Profile{
		DisplayName: deref(r.DisplayName),
		AvatarURL:   deref(r.AvatarURL),
		Phone:       deref(r.Phone),
		Occupation:  deref(r.Occupation),
		Biography:   deref(r.Biography),
		BirthDate:   deref(r.BirthDate),
	}, nil
}

// UpdateProfile writes the profile row. Blank optional fields are normalized
// to NULL before the write so empty strings never masquerade as data.
func (c *Client) UpdateProfile(ctx context.Context, userID string, p session.Profile) error {
	row := map[string]any{
		"display_name": nullable(p.DisplayName),
		"avatar_url":   nullable(p.AvatarURL),
		"phone":        nullable(p.Phone),
		"occupation":   nullable(p.Occupation),
		"biography":    nullable(p.Biography),
		"birth_date":   nullable(p.BirthDate),
	}
	var rows []profileRow
	if err := c.doJSON(ctx, http.MethodPatch, c.rest("profiles", idFilter(userID)), row, &rows); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if len(rows) == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func mapAuthError(resp *http.Response) error {
	var se serviceError
	_ = json.NewDecoder(resp.Body).Decode(&se)
	raw := strings.ToLower(se.text())
	cause := fmt.Errorf("auth responded %d: %s", resp.StatusCode, se.text())

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ledger.NewFailure(ledger.FailureRateLimited, "too many attempts, try again later", cause)
	case strings.Contains(raw, "not confirmed"):
		return ledger.NewFailure(ledger.FailureUnconfirmed, "confirm your email address to continue", cause)
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized:
		return ledger.NewFailure(ledger.FailureInvalidCredentials, "invalid email or password", cause)
	default:
		return ledger.NewFailure(ledger.FailureGeneric, "sign-in failed, try again", cause)
	}
}
