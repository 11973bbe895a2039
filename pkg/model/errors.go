// Package model implements useModel dispatch: selecting the highest
// priority registered handler for a model type, retrying/falling back on
// transient failures, and recording an observability log entry per
// invocation.
package model

import (
	"fmt"
	"time"

	"github.com/relaywire/agentcore/pkg/content"
)

// ErrorKind classifies a model dispatch failure.
type ErrorKind string

const (
	NoHandler       ErrorKind = "NoHandler"
	RateLimited     ErrorKind = "RateLimited"
	Transient       ErrorKind = "Transient"
	InvalidResponse ErrorKind = "InvalidResponse"
)

// Error is the typed error useModel returns on failure.
type Error struct {
	Kind      ErrorKind
	ModelType content.ModelType
	Provider  string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model: %s: %s (provider=%s): %v", e.ModelType, e.Kind, e.Provider, e.Err)
	}
	return fmt.Sprintf("model: %s: %s (provider=%s)", e.ModelType, e.Kind, e.Provider)
}

func (e *Error) Unwrap() error { return e.Err }

// RetryableError is implemented by handler errors that identify themselves
// as transient (rate limits, timeouts, 5xx-equivalents) so the dispatcher
// knows to try the next handler instead of propagating immediately.
type RetryableError interface {
	error
	IsRetryable() bool
	RetryAfter() time.Duration
}

// retryable reports whether err opts into the fallback policy.
func retryable(err error) bool {
	re, ok := err.(RetryableError)
	return ok && re.IsRetryable()
}
