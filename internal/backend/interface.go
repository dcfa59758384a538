package backend

import (
	"context"

	"moneta/internal/ledger"
)

// Backend is the unified capability interface over the four entity stores.
// Exactly one implementation is selected at startup; business logic never
// branches on which one is active.
type Backend interface {
	ledger.AccountStore
	ledger.CategoryStore
	ledger.TransactionStore
	ledger.BudgetStore
}

// CleanupFunc releases backend resources at shutdown.
type CleanupFunc func() error

// Result contains the backend instance and an optional cleanup function.
type Result struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type Type

	// Remote store settings
	RemoteURL string
	RemoteKey string

	// Demo settings
	DemoLatency string // parsed duration, empty means none
}

// Type selects the backend variant.
type Type string

const (
	DemoBackend   Type = "demo"
	RemoteBackend Type = "remote"
)

// String implements fmt.Stringer.
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case DemoBackend, RemoteBackend:
		return true
	default:
		return false
	}
}
