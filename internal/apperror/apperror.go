// Package apperror defines the typed errors shared by every layer.
//
// Lower layers return one of these (usually wrapped with fmt.Errorf and %w);
// the HTTP layer inspects the chain with errors.Is and picks a status code.
package apperror

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("service unavailable")
	ErrUpstream     = errors.New("upstream failure")

	// ErrDuplicate is a conflict caused by a uniqueness constraint.
	// errors.Is(err, ErrConflict) is true for it as well.
	ErrDuplicate = fmt.Errorf("duplicate: %w", ErrConflict)
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Timeout bool   // Upstream errors only: the call ran out of time
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Duplicate reports a uniqueness violation on field, e.g. an email that is
// already registered.
func Duplicate(field, message string) *AppError {
	return &AppError{
		Err:     ErrDuplicate,
		Message: message,
		Field:   field,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized means the caller is not authenticated: bad credentials,
// missing or expired session.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Unavailable marks a feature that is switched off by configuration,
// such as AI parsing without Gemini credentials.
func Unavailable(message string) *AppError {
	return &AppError{
		Err:     ErrUnavailable,
		Message: message,
	}
}

// Upstream wraps a failure of an external service (GitHub, RemoteOK, Gemini).
// The cause stays in the chain for logging; the message is safe to show.
func Upstream(service string, cause error) *AppError {
	timeout := errors.Is(cause, context.DeadlineExceeded) || isTimeout(cause)
	msg := fmt.Sprintf("%s request failed", service)
	if timeout {
		msg = fmt.Sprintf("%s request timed out", service)
	}
	return &AppError{
		Err:     fmt.Errorf("%w: %s: %w", ErrUpstream, service, cause),
		Message: msg,
		Timeout: timeout,
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
