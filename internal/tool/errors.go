package tool

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateName is returned when registering a name already in use.
	ErrDuplicateName = errors.New("tool name already registered")

	// ErrNotFound is returned when looking up or unregistering an unknown tool.
	ErrNotFound = errors.New("tool not found")

	// ErrInvalidParams is the common ancestor of all validation errors.
	ErrInvalidParams = errors.New("invalid parameters")
)

// MissingParameterError reports an absent required parameter.
type MissingParameterError struct {
	Param string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing required parameter: %s", e.Param)
}

func (e *MissingParameterError) Unwrap() error { return ErrInvalidParams }

// UnknownParameterError reports a supplied parameter the schema does not
// declare. Only raised in strict mode.
type UnknownParameterError struct {
	Param string
}

func (e *UnknownParameterError) Error() string {
	return fmt.Sprintf("unknown parameter: %s", e.Param)
}

func (e *UnknownParameterError) Unwrap() error { return ErrInvalidParams }

// TypeMismatchError reports a value that could not be coerced to the
// declared parameter type.
type TypeMismatchError struct {
	Param string
	Want  string
	Got   any
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("parameter %s: expected %s but got %T", e.Param, e.Want, e.Got)
}

func (e *TypeMismatchError) Unwrap() error { return ErrInvalidParams }
