package expr

import (
	"errors"
	"fmt"
)

// Code categorizes evaluation failures.
type Code string

const (
	// CodeSyntax indicates a formula that does not parse.
	CodeSyntax Code = "SYNTAX"

	// CodeUnbound indicates a reference to a name absent from the environment.
	CodeUnbound Code = "UNBOUND"

	// CodeDivZero indicates division or modulo by zero.
	CodeDivZero Code = "DIV_ZERO"

	// CodeType indicates an operand of the wrong kind (e.g. 'a' * 2).
	CodeType Code = "TYPE"

	// CodeDomain indicates a non-finite result (e.g. sqrt(-1), log(0)).
	CodeDomain Code = "DOMAIN"
)

// Error is a typed parse or evaluation failure.
type Error struct {
	// Code identifies the failure category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Pos is the byte offset in the formula where the failure was detected.
	// -1 when no position applies.
	Pos int

	// Name is the offending identifier for CodeUnbound.
	Name string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("%s at %d: %s", e.Code, e.Pos, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func errorf(code Code, pos int, format string, args ...any) *Error {
	return &Error{Code: code, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the Code of err, or "" if err is not an *Error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsSyntaxError returns true if err is a parse failure.
func IsSyntaxError(err error) bool {
	return CodeOf(err) == CodeSyntax
}
