package errors

import (
	"errors"
	"fmt"
)

// Common storage-level errors. Stores return these; services translate them
// into domain errors.

var (
	// ErrNotFound indicates a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness conflict with existing data
	ErrConflict = errors.New("conflict")

	// ErrInsufficientState indicates an account cannot absorb the requested change
	ErrInsufficientState = errors.New("insufficient state")

	// ErrPreconditionFailed indicates a row changed after the caller checked it
	// and no longer satisfies the write
	ErrPreconditionFailed = errors.New("precondition failed")
)

// NotFoundError creates a not found error with context
func NotFoundError(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

// ConflictError creates a conflict error with context
func ConflictError(resource string) error {
	return fmt.Errorf("%s already exists: %w", resource, ErrConflict)
}

// PreconditionError creates a precondition error with context
func PreconditionError(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrPreconditionFailed)
}

// Is checks if an error matches a target error (works with wrapped errors)
func Is(err, target error) bool {
	return errors.Is(err, target)
}
