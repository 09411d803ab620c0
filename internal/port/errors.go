package port

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors used across ports.
var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrTokenInvalid     = errors.New("invalid token")
	ErrStrategyNotFound = errors.New("guidance strategy not found")
	ErrTemplateNotFound = errors.New("prompt template not found")
	ErrEmptyParagraph   = errors.New("completion returned an empty paragraph")
	ErrNoRowsAffected   = errors.New("no rows affected")
)

// ValidationError reports a malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

// Invalid builds a ValidationError for field.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// UpstreamError is a failed call to the completion or embedding provider.
// StatusCode is zero for transport errors and timeouts. Malformed marks a
// successful response whose body could not be used.
type UpstreamError struct {
	Provider   string
	Op         string
	StatusCode int
	Malformed  bool
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Provider, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Retryable reports whether the call may succeed if repeated.
func (e *UpstreamError) Retryable() bool {
	switch {
	case e.Malformed:
		return false
	case e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= http.StatusInternalServerError:
		return true
	default:
		return false
	}
}

// PersistenceError is a datastore write that did not land.
// It is never retried.
type PersistenceError struct {
	Op      string
	EventID int64
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s event %d: %v", e.Op, e.EventID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ParseFailure is model output that did not match the expected schema.
// Raw keeps the text so callers can fall back to it.
type ParseFailure struct {
	Raw string
	Err error
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("parse model output: %v", e.Err)
}

func (e *ParseFailure) Unwrap() error { return e.Err }
