// Package fault provides the shared fault-injection primitives used by the mock services:
// configuration, typed errors, and injectable clock and randomness sources.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies an expected failure returned by a mock
type Kind string

const (
	// KindValidation indicates the caller supplied a structurally invalid request
	KindValidation Kind = "validation_error"
	// KindSimulated indicates a failure injected through ErrorRate or ShouldSimulateErrors
	KindSimulated Kind = "simulated_fault"
	// KindNotFound indicates the referenced entity does not exist
	KindNotFound Kind = "not_found"
	// KindConflict indicates the entity already exists and overwrite was not allowed
	KindConflict Kind = "conflict"
)

// Sentinel errors usable with errors.Is. They match any *Error of the same kind.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrSimulated  = &Error{Kind: KindSimulated}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrConflict   = &Error{Kind: KindConflict}
)

// Error is the error value returned by every mock for expected conditions
type Error struct {
	Kind    Kind   `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is an *Error with the same kind. A target with a
// non-empty Code must match the code as well.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != "" && t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// New creates an Error with the given kind, code and message
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Validation creates a validation error
func Validation(code, message string) *Error {
	return New(KindValidation, code, message)
}

// Simulated creates an injected fault
func Simulated(code, message string) *Error {
	return New(KindSimulated, code, message)
}

// NotFound creates a not-found error
func NotFound(code, message string) *Error {
	return New(KindNotFound, code, message)
}

// Conflict creates a conflict error
func Conflict(code, message string) *Error {
	return New(KindConflict, code, message)
}

// CodeOf returns the code of the first *Error in err's chain, or "" if there is none
func CodeOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
