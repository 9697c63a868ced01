// Package apperr defines the error kinds surfaced by the API, each
// carrying the HTTP status it maps to and an optional list of detail
// messages (used to aggregate validation violations).
package apperr

import (
	"errors"
	"net/http"
)

// Error is a request-terminating error with an HTTP status.
type Error struct {
	Status  int
	Message string
	Details []string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New constructs an Error with an explicit status.
func New(status int, message string, details ...string) *Error {
	return &Error{Status: status, Message: message, Details: details}
}

// Validation reports missing or malformed fields.
func Validation(message string, details ...string) *Error {
	return New(http.StatusBadRequest, message, details...)
}

// Conflict reports a duplicate username or email.
func Conflict(message string) *Error {
	return New(http.StatusBadRequest, message)
}

// Auth reports bad credentials or a missing/invalid stored refresh token.
func Auth(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

// Unauthorized reports a role mismatch after successful authentication.
func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

// Forbidden reports an invalid or expired access token at the gate.
func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message)
}

// NotFound reports a missing user or post.
func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

// Internal wraps an unexpected failure.
func Internal(message string, cause error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: message, cause: cause}
}

// FromError converts any error to an *Error, defaulting to a 500.
func FromError(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("internal server error", err)
}
