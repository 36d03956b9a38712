// Package errcode defines the stable error codes reported when a pin map
// cannot be resolved.
package errcode

import "errors"

// Code is a stable identifier for a class of resolution failure.
// It is a string newtype, comparable, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes.
const (
	OK Code = "ok"

	UnknownResource         Code = "unknown_resource"
	UnknownFeature          Code = "unknown_feature"
	AmbiguousBoardSelection Code = "ambiguous_board_selection"
	DuplicateRoleInBoard    Code = "duplicate_role_in_board"
	PinConflict             Code = "pin_conflict"
	CapabilityMismatch      Code = "capability_mismatch"
	RoleNotBound            Code = "role_not_bound"

	Invalid Code = "invalid" // malformed descriptor or project input
	Error   Code = "error"   // generic fallback
)

// Coder is implemented by errors that carry a Code.
type Coder interface {
	Code() Code
}

// E wraps a cause with a code and operation context.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error chain, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	var x Coder
	if errors.As(err, &x) {
		return x.Code()
	}
	return Error
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, c Code) bool {
	for _, e := range flatten(err) {
		if Of(e) == c {
			return true
		}
	}
	return false
}

func flatten(err error) []error {
	if err == nil {
		return nil
	}
	out := []error{err}
	switch x := err.(type) {
	case interface{ Unwrap() []error }:
		for _, e := range x.Unwrap() {
			out = append(out, flatten(e)...)
		}
	case interface{ Unwrap() error }:
		out = append(out, flatten(x.Unwrap())...)
	}
	return out
}
