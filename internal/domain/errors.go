package domain

import (
	"errors"
	"sort"
	"strings"
)

// ErrNotFound is returned when a record is not present in the collection
// being looked at (a mounted view, the audit log, the backend).
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when a draft or request fails client-side
// validation. No network call is made once this is returned.
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrTransport is returned for any non-2xx backend response or network failure.
var ErrTransport = errors.New("backend request failed")

// ErrUnauthenticated is returned when the backend rejects the session credential
// or when a console session is not authenticated.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrStale is returned when an asynchronous result arrives for a view that has
// since been remounted or unmounted. The result must be discarded.
var ErrStale = errors.New("stale result discarded")

// ValidationError carries per-field messages. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns nil when fields is empty, so callers can write
// `if err := NewValidationError(errs); err != nil`.
func NewValidationError(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
