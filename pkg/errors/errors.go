// Package errors provides structured error types for augment.
//
// This package defines error codes and types that enable:
//   - Telling a missing capability apart from a bad input
//   - Machine-readable error codes for the CLI and the HTTP API
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The transform engine reports five kinds of failure:
//   - CONTRACT_VIOLATION: data was not passed as a named bundle
//   - MISSING_TARGET: a required key is absent from the call (precondition)
//   - NOT_IMPLEMENTED: a declared target kind has no handler (capability)
//   - RESERVED_NAME: a save key collides with a reserved name
//   - INVALID_CONFIG: a transform was configured out of range
//
// Callers that want to fall back to a default on a missing capability but
// abort on bad input switch on the code:
//
//	out, err := transform.Reverse(t, data, record)
//	switch {
//	case errors.Is(err, errors.ErrCodeNotImplemented):
//	    out = data
//	case err != nil:
//	    return err
//	}
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMissingTarget, "%s requires %v", name, keys)
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidTarget, origErr, "decode %s", key)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Caller contract errors
	ErrCodeContractViolation Code = "CONTRACT_VIOLATION"
	ErrCodeMissingTarget     Code = "MISSING_TARGET"
	ErrCodeInvalidTarget     Code = "INVALID_TARGET"
	ErrCodeInvalidInput      Code = "INVALID_INPUT"

	// Configuration errors
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeReservedName  Code = "RESERVED_NAME"
	ErrCodeInvalidSpec   Code = "INVALID_SPEC"

	// Capability errors
	ErrCodeNotImplemented Code = "NOT_IMPLEMENTED"
	ErrCodeUnsupported    Code = "UNSUPPORTED"

	// Resource errors
	ErrCodeNotFound          Code = "NOT_FOUND"
	ErrCodeTransformNotFound Code = "TRANSFORM_NOT_FOUND"
	ErrCodeFileNotFound      Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It walks the whole chain, so a NOT_IMPLEMENTED raised by a handler is still
// visible after the dispatcher wraps it with the key it was processing.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsCapability reports whether err means "this transform cannot do that",
// as opposed to "the caller passed something wrong".
func IsCapability(err error) bool {
	return Is(err, ErrCodeNotImplemented) || Is(err, ErrCodeUnsupported)
}

// IsPrecondition reports whether err is a caller-side input failure.
func IsPrecondition(err error) bool {
	return Is(err, ErrCodeContractViolation) ||
		Is(err, ErrCodeMissingTarget) ||
		Is(err, ErrCodeInvalidTarget) ||
		Is(err, ErrCodeInvalidInput)
}
