// Package common defines sentinel errors and the client-facing error type
// shared by repositories, services and transports. Callers should use
// errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Kinds. Each one maps to a single response status at the transport.
	ErrorValidation   = errors.New("validation error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorInternal     = errors.New("internal error")

	// Token and identifier lifecycle errors.
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

// InternalMessage is the only message ever shown for ErrorInternal.
const InternalMessage = "Internal server error"

// Error is an error carrying a client-visible message. Kind is one of the
// kind sentinels above; Cause is the underlying failure, if any, and is
// never exposed to clients.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes both Kind and Cause so errors.Is matches either of them.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

func Validation(msg string) error   { return &Error{Kind: ErrorValidation, Message: msg} }
func Unauthorized(msg string) error { return &Error{Kind: ErrorUnauthorized, Message: msg} }
func Forbidden(msg string) error    { return &Error{Kind: ErrorForbidden, Message: msg} }
func NotFound(msg string) error     { return &Error{Kind: ErrorNotFound, Message: msg} }

// Internal wraps cause with the generic internal message.
func Internal(cause error) error {
	return &Error{Kind: ErrorInternal, Message: InternalMessage, Cause: cause}
}

// MessageOf returns the client-visible message of err, falling back to the
// internal message for errors that carry none.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return InternalMessage
}
