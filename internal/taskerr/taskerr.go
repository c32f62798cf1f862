// Package taskerr defines the stable error taxonomy shared by the backend
// router, the dependency graph store, and the route planner.
//
// Every failure that crosses a package boundary carries one of the codes
// below. Caller-class codes (bad identifier, self-dependency, unknown
// prefix, missing task) mean the request itself was wrong and retrying is
// pointless; BackendUnavailable means a storage or network call failed and
// a retry may succeed.
package taskerr

import (
	"errors"
	"fmt"
)

// Code identifies a failure mode with a stable string value.
type Code string

const (
	// MalformedID indicates an identifier without a recognizable prefix separator.
	MalformedID Code = "MALFORMED_ID"
	// UnknownBackend indicates a prefix with no registered adapter.
	UnknownBackend Code = "UNKNOWN_BACKEND"
	// SelfDependency indicates an edge with identical endpoints.
	SelfDependency Code = "SELF_DEPENDENCY"
	// NotFound indicates a task or edge absent where presence was required.
	NotFound Code = "NOT_FOUND"
	// BackendUnavailable indicates an adapter call failed (I/O, network, SQL).
	BackendUnavailable Code = "BACKEND_UNAVAILABLE"
)

// Error is a coded error with an optional wrapped cause.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	cause   error
}

// New creates a coded error without a cause.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a coded error around an underlying cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// CodeOf extracts the Code from err, unwrapping as needed.
// Returns "" for nil or untyped errors.
func CodeOf(err error) Code {
	var te *Error
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// IsCallerError reports whether err belongs to the caller-error class
// (the 4xx equivalent). BackendUnavailable is the only retryable code.
func IsCallerError(err error) bool {
	switch CodeOf(err) {
	case MalformedID, UnknownBackend, SelfDependency, NotFound:
		return true
	}
	return false
}
