// Package errors provides coded application errors shared by the service
// and handler layers. Codes drive HTTP status mapping at the edge; the
// message is safe to show to users.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Code classifies an application error.
type Code string

const (
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeConflict     Code = "CONFLICT"
	ErrCodeUnauthorized Code = "UNAUTHORIZED"
	// ErrCodePrecondition marks a caller-contract violation: the caller
	// attempted a mutation whose precondition does not hold. These are
	// programming errors, not user-facing rejections.
	ErrCodePrecondition Code = "PRECONDITION"
	ErrCodeInternal     Code = "INTERNAL"
	ErrCodeUnavailable  Code = "UNAVAILABLE"
)

// Error is a coded application error.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error with an explicit code.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// InvalidInput reports a bad value for a named input field.
func InvalidInput(field, message string) *Error {
	return &Error{Code: ErrCodeInvalidInput, Message: fmt.Sprintf("%s: %s", field, message)}
}

// NotFound reports a missing resource by type and identifier.
func NotFound(resource, id string) *Error {
	return &Error{Code: ErrCodeNotFound, Message: fmt.Sprintf("%s %q not found", resource, id)}
}

// Unauthorized reports an action the acting user may not take.
func Unauthorized(message string) *Error {
	return &Error{Code: ErrCodeUnauthorized, Message: message}
}

// Precondition reports a violated caller contract.
func Precondition(message string) *Error {
	return &Error{Code: ErrCodePrecondition, Message: message}
}

// Internal wraps an unexpected failure.
func Internal(message string, err error) *Error {
	return &Error{Code: ErrCodeInternal, Message: message, Err: err}
}

// Unavailable wraps a collaborator failure (storage, chat, network).
func Unavailable(message string, err error) *Error {
	return &Error{Code: ErrCodeUnavailable, Message: message, Err: err}
}

// CodeOf extracts the application code from err, or ErrCodeInternal when
// err carries none.
func CodeOf(err error) Code {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// MessageOf extracts the user-safe message from err.
func MessageOf(err error) string {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}
