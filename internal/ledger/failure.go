package ledger

import (
	"errors"
	"fmt"
)

const (
	FailureNetwork            FailureKind = "network"
	FailureTimeout            FailureKind = "timeout"
	FailureRejected           FailureKind = "rejected"
	FailureInvalidCredentials FailureKind = "invalid_credentials"
	FailureUnconfirmed        FailureKind = "unconfirmed_account"
	FailureRateLimited        FailureKind = "rate_limited"
	FailureGeneric            FailureKind = "generic"
)

// FailureKind is the closed set of user-facing failure categories. Raw
// backend error text never reaches callers for the recognized auth cases.
type FailureKind string

// Failure is the uniform error shape both adapters surface for fallible
// backend calls. Message is safe to show to a user.
type Failure struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// NewFailure builds a Failure wrapping an underlying cause, which may be nil.
func NewFailure(kind FailureKind, message string, err error) *Failure {
	return &Failure{Kind: kind, Message: message, Err: err}
}

// AsFailure unwraps err to a Failure when one is in the chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// ErrNotFound is returned by update and delete calls for unknown ids.
var ErrNotFound = errors.New("entity not found")
