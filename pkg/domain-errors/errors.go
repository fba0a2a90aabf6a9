// Package domainerrors defines the error taxonomy shared by all services.
//
// Every error that crosses a package boundary carries a stable,
// machine-readable Code plus a human-readable message. Stores return
// sentinel errors (pkg/platform/sentinel) for infrastructure facts; services
// translate those into domain errors; the transport layer maps codes onto
// HTTP status codes.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code is a stable machine-readable error kind. Codes are part of the API
// contract: clients branch on them, so existing values never change.
type Code string

const (
	// CodeValidation covers malformed or missing input. Recoverable by the
	// caller correcting the request; never retried automatically.
	CodeValidation Code = "validation_error"

	// CodeNotFound covers lookups of entities that do not exist.
	CodeNotFound Code = "not_found"

	// CodeForbidden covers role/capability failures. Never retried.
	CodeForbidden Code = "forbidden"

	// CodeConflict covers state conflicts, e.g. deciding an already-decided
	// request. Callers must re-fetch current state rather than retry blindly.
	CodeConflict Code = "conflict"

	// CodePartialFailure marks an operation that committed its primary state
	// change but failed a dependent write (status transition committed, grant
	// materialization failed). Recovered by the idempotent reconcile step.
	CodePartialFailure Code = "partial_failure"

	// CodeUnauthorized covers requests with no attributable actor.
	CodeUnauthorized Code = "unauthorized"

	// CodeTimeout covers operations cancelled by deadline.
	CodeTimeout Code = "timeout"

	// CodeInternal is the fallback for unexpected failures. Messages are not
	// exposed to clients.
	CodeInternal Code = "internal_error"
)

// Error is the concrete domain error type. Compare with Is(err, code) rather
// than type assertions so wrapped errors keep working.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the
// cause for errors.Is / errors.As chains.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf extracts the code from an error chain, defaulting to CodeInternal
// for non-domain errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the human-readable message, falling back to err.Error()
// for non-domain errors.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
