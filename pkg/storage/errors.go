package storage

import "fmt"

// ErrorKind classifies an AdapterError so the core can decide whether to
// retry, surface, or treat it as a not-found lookup.
type ErrorKind string

const (
	NotReady  ErrorKind = "NotReady"
	Transient ErrorKind = "Transient"
	Conflict  ErrorKind = "Conflict"
	NotFound  ErrorKind = "NotFound"
)

// AdapterError is the typed error every Adapter method returns on failure.
// The adapter implements its own retry/backoff for Transient failures; the
// core never re-wraps a retry loop around an adapter call.
type AdapterError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *AdapterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("storage: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("storage: %s: %s", e.Op, e.Kind)
}

func (e *AdapterError) Unwrap() error { return e.Err }

// NewError constructs an AdapterError.
func NewError(op string, kind ErrorKind, err error) *AdapterError {
	return &AdapterError{Op: op, Kind: kind, Err: err}
}

// IsNotFound reports whether err is an AdapterError of kind NotFound.
func IsNotFound(err error) bool {
	var ae *AdapterError
	return asAdapterError(err, &ae) && ae.Kind == NotFound
}

// IsTransient reports whether err is an AdapterError of kind Transient.
func IsTransient(err error) bool {
	var ae *AdapterError
	return asAdapterError(err, &ae) && ae.Kind == Transient
}

func asAdapterError(err error, target **AdapterError) bool {
	for err != nil {
		if ae, ok := err.(*AdapterError); ok {
			*target = ae
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
