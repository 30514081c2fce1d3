// Package xerrors carries the stable error codes of the route-chunking
// pipeline.
package xerrors

import (
	"errors"
	"fmt"
)

// Code classifies a failure mode.
type Code string

const (
	// InvalidNode indicates the module contains a construct the analyzer's
	// classification does not cover: a destructured exported declarator, an
	// anonymous exported function or class, or an unknown export sub-kind.
	InvalidNode Code = "INVALID_NODE"
	// Inconsistent indicates an internal consistency violation between the
	// analyzer and an emitter, such as a kept import losing every specifier.
	Inconsistent Code = "INCONSISTENT"
	// StoreFailure indicates a cache backing store failed.
	StoreFailure Code = "STORE_FAILURE"
	// Internal indicates an unexpected condition.
	Internal Code = "INTERNAL"
)

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

// New creates a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a coded error around a cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// CodeOf extracts the code from an error chain, or Internal.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return Internal
}
