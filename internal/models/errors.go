package models

import (
	"errors"
	"fmt"
)

// Error kinds for errors.Is() checking.
var (
	ErrValidation  = errors.New("validation error")
	ErrDuplicateID = errors.New("duplicate id")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
)

// Error is a failed gradebook operation with context.
type Error struct {
	Op      string // Operation that failed, e.g. "AddStudent", "RenameSubject"
	Kind    error  // One of the Err* kinds above
	Message string // Human-readable message
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap returns the error kind so errors.Is matches it.
func (e *Error) Unwrap() error {
	return e.Kind
}

// NewError creates an operation error of the given kind.
func NewError(op string, kind error, format string, args ...any) *Error {
	return &Error{
		Op:      op,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsNotFound reports whether err targets a missing student, class or subject.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err is a name collision.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsDuplicateID reports whether err is an id collision on create.
func IsDuplicateID(err error) bool { return errors.Is(err, ErrDuplicateID) }
