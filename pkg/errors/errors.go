// Package errors defines the coded error type shared by every service
// boundary in the repo.
package errors

import (
	stdErrors "errors"
	"fmt"
)

// Code classifies a failure for callers that branch on its kind.
type Code string

const (
	CodeValidation Code = "VALIDATION_ERROR"
	CodeNotFound   Code = "NOT_FOUND"
	CodeConflict   Code = "CONFLICT"
	CodeContract   Code = "CONTRACT_VIOLATION"
	CodeInternal   Code = "INTERNAL_ERROR"
	CodeDependency Code = "DEPENDENCY_ERROR"
)

// Retryable reports whether an operation failing with this code may
// succeed later without the caller changing its input.
func (c Code) Retryable() bool {
	switch c {
	case CodeInternal, CodeDependency:
		return true
	default:
		return false
	}
}

// PublicMessage is the caller-safe description for the code, for
// surfaces that must not leak the underlying message.
func (c Code) PublicMessage() string {
	switch c {
	case CodeValidation:
		return "validation failed"
	case CodeNotFound:
		return "resource not found"
	case CodeConflict:
		return "conflict detected"
	case CodeContract:
		return "precondition violated"
	case CodeDependency:
		return "dependency unavailable"
	default:
		return "internal error"
	}
}

// Error pairs a Code with a message, optional structured details, and an
// optional wrapped cause. All methods tolerate a nil receiver.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap attaches a code and message to an underlying cause. A nil cause
// degrades to New.
func Wrap(code Code, err error, message string) *Error {
	wrapped := New(code, message)
	wrapped.cause = err
	return wrapped
}

// As extracts a coded error from anywhere in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// WithDetails attaches structured context (field errors and the like)
// and returns the same error for chaining.
func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}
