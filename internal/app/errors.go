package app

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so that transports can map it to a status.
type Kind string

const (
	KindValidation      Kind = "ValidationError"
	KindInvalidArgument Kind = "InvalidArgument"
	KindInvalidPeriod   Kind = "InvalidPeriod"
	KindNotFound        Kind = "NotFound"
	KindForbidden       Kind = "Forbidden"
	KindDuplicateKey    Kind = "DuplicateKey"
	KindUnauthenticated Kind = "Unauthenticated"
	KindInternal        Kind = "Internal"
)

// FieldError reports a problem with a single input field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// Error is the structured failure returned by every service operation.
type Error struct {
	Kind   Kind
	Reason string
	Fields []FieldError
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

func wrapError(kind Kind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

// KindOf returns the Kind carried by err, or KindInternal for anything else.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// ReasonOf returns the human readable reason carried by err.
func ReasonOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Reason
	}
	return "internal error"
}

// Custom application-level errors
var (
	ErrNotAuthenticated   = newError(KindUnauthenticated, "authentication required")
	ErrInvalidCredentials = newError(KindUnauthenticated, "wrong email or password")
)
