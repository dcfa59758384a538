// Package remote implements the ledger ports against a hosted relational
// store exposed over a PostgREST-style API. Every read is keyed by owner id
// and every create is stamped with it; the server never returns rows for
// other owners when the adapter is used correctly.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"moneta/internal/ledger"
	"moneta/internal/session"
)

const defaultTimeout = 15 * time.Second

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	events     chan session.AuthEvent

	// authToken is written by sign-in and sign-out and read by every
	// request goroutine.
	mu        sync.Mutex
	authToken string // bearer token for the signed-in user, falls back to the api key
}

// Interface conformance for the ledger ports.
var (
	_ ledger.AccountStore     = (*Client)(nil)
	_ ledger.CategoryStore    = (*Client)(nil)
	_ ledger.TransactionStore = (*Client)(nil)
	_ ledger.BudgetStore      = (*Client)(nil)
)

// New creates a remote client for the given base URL and access key.
func New(baseURL, apiKey string) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid remote store URL %q", baseURL)
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("missing remote store access key")
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		events: make(chan session.AuthEvent, 8),
	}, nil
}

// rest builds the URL for a table with the given filters.
func (c *Client) rest(table string, query url.Values) string {
	u := c.baseURL + "/rest/v1/" + table
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// doJSON performs a request against the REST surface. A non-nil out is
// decoded from the response body. Service error shapes are mapped to the
// uniform ledger.Failure.
func (c *Client) doJSON(ctx context.Context, method, rawURL string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.bearer())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost || method == http.MethodPatch || method == http.MethodDelete {
		// Writes return the affected rows so local state can mirror them.
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return mapTransportError(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ledger.NewFailure(ledger.FailureNetwork, "could not read store response", err)
	}
	if resp.StatusCode >= 400 {
		return mapServiceError(resp.StatusCode, payload)
	}
	if out != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, out); err != nil {
			return ledger.NewFailure(ledger.FailureGeneric, "unexpected store response shape", err)
		}
	}
	return nil
}

func (c *Client) bearer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.authToken != "" {
		return c.authToken
	}
	return c.apiKey
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.authToken = token
	c.mu.Unlock()
}

func mapTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return ledger.NewFailure(ledger.FailureTimeout, "the store did not respond in time", err)
	}
	return ledger.NewFailure(ledger.FailureNetwork, "could not reach the store", err)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// serviceError is the error shape the hosted store returns.
type serviceError struct {
	Message string `json:"message"`
	Msg     string `json:"msg"`
	Code    string `json:"code"`
}

func (e serviceError) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Msg
}

func mapServiceError(status int, payload []byte) error {
	var se serviceError
	_ = json.Unmarshal(payload, &se)

	msg := se.text()
	if msg == "" {
		msg = http.StatusText(status)
	}
	cause := fmt.Errorf("store responded %d: %s", status, msg)

	switch {
	case status == http.StatusTooManyRequests:
		return ledger.NewFailure(ledger.FailureRateLimited, "too many attempts, try again later", cause)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ledger.NewFailure(ledger.FailureTimeout, "the store did not respond in time", cause)
	case status >= 500:
		return ledger.NewFailure(ledger.FailureNetwork, "the store is temporarily unavailable", cause)
	default:
		return ledger.NewFailure(ledger.FailureRejected, msg, cause)
	}
}

func ownerFilter(ownerID string) url.Values {
	q := url.Values{}
	q.Set("owner_id", "eq."+ownerID)
	return q
}

func idFilter(id string) url.Values {
	q := url.Values{}
	q.Set("id", "eq."+id)
	return q
}

// list fetches all rows of a table for an owner.
func list[R any](ctx context.Context, c *Client, table, ownerID, order string) ([]R, error) {
	q := ownerFilter(ownerID)
	if order != "" {
		q.Set("order", order)
	}
	var rows []R
	if err := c.doJSON(ctx, http.MethodGet, c.rest(table, q), nil, &rows); err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	return rows, nil
}

// insert creates one row and returns the stored representation.
func insert[R any](ctx context.Context, c *Client, table string, row R) (R, error) {
	var rows []R
	var zero R
	if err := c.doJSON(ctx, http.MethodPost, c.rest(table, nil), row, &rows); err != nil {
		return zero, fmt.Errorf("create %s: %w", table, err)
	}
	if len(rows) == 0 {
		return zero, ledger.NewFailure(ledger.FailureGeneric, "store returned no row for create", nil)
	}
	return rows[0], nil
}

// patch updates the row with the given id and returns the stored
// representation.
func patch[R any](ctx context.Context, c *Client, table, id string, row any) (R, error) {
	var rows []R
	var zero R
	if err := c.doJSON(ctx, http.MethodPatch, c.rest(table, idFilter(id)), row, &rows); err != nil {
		return zero, fmt.Errorf("update %s: %w", table, err)
	}
	if len(rows) == 0 {
		return zero, ledger.ErrNotFound
	}
	return rows[0], nil
}

// remove deletes the row with the given id, reporting whether it existed.
func remove(ctx context.Context, c *Client, table, id string) (bool, error) {
	var rows []json.RawMessage
	if err := c.doJSON(ctx, http.MethodDelete, c.rest(table, idFilter(id)), nil, &rows); err != nil {
		return false, fmt.Errorf("delete %s: %w", table, err)
	}
	deleted := len(rows) > 0
	if !deleted {
		slog.Debug("Delete matched no row", "table", table, "id", id)
	}
	return deleted, nil
}
