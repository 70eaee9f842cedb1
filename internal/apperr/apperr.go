// Package apperr defines the error taxonomy shared by services and handlers.
// Services return a tagged *Error; the HTTP layer maps it to a status code
// and a {statusCode, statusMessage} body. Anything that is not an *Error is
// treated as an unknown failure and surfaces as 500.
package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error carries the HTTP status a failure should surface as, along with a
// human-readable message. Err holds the underlying cause for logs.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports missing or malformed input.
func Validation(message string) *Error {
	return &Error{Status: fiber.StatusBadRequest, Message: message}
}

// Unauthorized reports a missing or invalid session.
func Unauthorized(message string) *Error {
	return &Error{Status: fiber.StatusUnauthorized, Message: message}
}

// Conflict reports a duplicate-resource rejection.
func Conflict(message string) *Error {
	return &Error{Status: fiber.StatusConflict, Message: message}
}

// Provider reports a downstream failure (database, auth, storage, mail) with
// the status the owning handler maps it to. The provider's message is
// forwarded to the client.
func Provider(status int, message string, err error) *Error {
	return &Error{Status: status, Message: message, Err: err}
}

// Internal reports an unexpected failure as a 500.
func Internal(message string, err error) *Error {
	return &Error{Status: fiber.StatusInternalServerError, Message: message, Err: err}
}

// Status extracts the HTTP status for err, defaulting to 500.
func Status(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return fiber.StatusInternalServerError
}

// Message extracts the user-visible message for err, falling back to the
// given default for untagged errors.
func Message(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return fallback
}
