// Package apperr classifies failures that cross the service boundary so the
// transport layer can map them to status codes without string matching.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// Lookup errors
	ErrNotFound = errors.New("not found")

	// Actor errors
	ErrForbidden     = errors.New("forbidden")
	ErrUnprocessable = errors.New("unprocessable entity")

	// State errors
	ErrConflict = errors.New("conflict")

	// Input errors
	ErrValidation = errors.New("validation failed")

	// Server-side misconfiguration with a message worth showing
	ErrInternal = errors.New("internal error")
)

// Error is a classified failure carrying a message safe to show to the caller.
type Error struct {
	Kind    error
	Title   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// WithTitle returns a copy of the error with a different page title.
func (e *Error) WithTitle(title string) *Error {
	clone := *e
	clone.Title = title
	return &clone
}

func newError(kind error, title, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Title:   title,
		Message: fmt.Sprintf(format, args...),
	}
}

// NotFound reports a missing request, option, user or project.
func NotFound(format string, args ...interface{}) *Error {
	return newError(ErrNotFound, "Not Found", format, args...)
}

// Forbidden reports an actor who does not hold the role an action needs.
func Forbidden(format string, args ...interface{}) *Error {
	return newError(ErrForbidden, "Action Denied", format, args...)
}

// Unprocessable reports an actor that could not be resolved or is inactive.
func Unprocessable(format string, args ...interface{}) *Error {
	return newError(ErrUnprocessable, "Error", format, args...)
}

// Conflict reports a status that does not allow the requested transition.
func Conflict(format string, args ...interface{}) *Error {
	return newError(ErrConflict, "Action Not Applicable", format, args...)
}

// Validation reports malformed or inconsistent input.
func Validation(format string, args ...interface{}) *Error {
	return newError(ErrValidation, "Invalid Request", format, args...)
}

// Internal reports a server-side failure whose message is safe to show.
func Internal(format string, args ...interface{}) *Error {
	return newError(ErrInternal, "Error", format, args...)
}

// Message returns the caller-facing message for err, or fallback when err
// is not classified.
func Message(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return fallback
}

// Title returns the page title attached to err, or fallback.
func Title(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Title != "" {
		return appErr.Title
	}
	return fallback
}
