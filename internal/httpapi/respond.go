package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"moneta/internal/core"
	"moneta/internal/ledger"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeLedgerError maps backend failures onto HTTP statuses. Validation
// failures from core are client errors; everything unrecognized is a 500.
func writeLedgerError(w http.ResponseWriter, err error) {
	if errors.Is(err, ledger.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if f, ok := ledger.AsFailure(err); ok {
		switch f.Kind {
		case ledger.FailureTimeout:
			writeError(w, http.StatusGatewayTimeout, f.Message)
		case ledger.FailureNetwork:
			writeError(w, http.StatusBadGateway, f.Message)
		case ledger.FailureRateLimited:
			writeError(w, http.StatusTooManyRequests, f.Message)
		case ledger.FailureRejected:
			writeError(w, http.StatusUnprocessableEntity, f.Message)
		case ledger.FailureInvalidCredentials:
			writeError(w, http.StatusUnauthorized, f.Message)
		case ledger.FailureUnconfirmed:
			writeError(w, http.StatusForbidden, f.Message)
		default:
			writeError(w, http.StatusInternalServerError, f.Message)
		}
		return
	}

	switch {
	case errors.Is(err, core.ErrInvalidKind),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidYear),
		errors.Is(err, core.ErrMissingAccount),
		errors.Is(err, core.ErrMissingCategory):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
