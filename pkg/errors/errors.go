// Package errors provides common domain error types for meetscribe.
//
// This package defines sentinel errors for common domain conditions like "not found"
// or "validation error" that can be used across all packages. Using typed errors
// enables consistent error handling patterns with errors.Is() checks.
//
// Usage:
//
//	import mserrors "github.com/otherjamesbrown/meetscribe/pkg/errors"
//
//	// Return a domain error
//	return nil, mserrors.ErrNotFound
//
//	// Check for domain errors
//	if mserrors.IsNotFound(err) {
//	    // handle not found case
//	}
package errors

import (
	"errors"
	"fmt"
)

// Domain errors - common sentinel errors for domain conditions.
var (
	// ErrNotFound indicates the requested resource was not found.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates invalid input or validation failure.
	ErrValidation = errors.New("validation error")

	// ErrConflict indicates a conflict with existing data (e.g., duplicate key).
	ErrConflict = errors.New("conflict")

	// ErrAlreadyExists indicates the resource already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidState indicates the operation is not valid for the current state.
	ErrInvalidState = errors.New("invalid state")

	// ErrStore indicates a document store failure.
	ErrStore = errors.New("store error")

	// ErrStorage indicates a filesystem storage failure.
	ErrStorage = errors.New("storage error")
)

// IsNotFound reports whether any error in err's chain is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether any error in err's chain is ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsConflict reports whether any error in err's chain is ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsAlreadyExists reports whether any error in err's chain is ErrAlreadyExists.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsInvalidState reports whether any error in err's chain is ErrInvalidState.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsStore reports whether any error in err's chain is ErrStore.
func IsStore(err error) bool {
	return errors.Is(err, ErrStore)
}

// IsStorage reports whether any error in err's chain is ErrStorage.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}

// ValidationError is a structured validation failure carrying the offending
// field. It unwraps to ErrValidation so callers can use IsValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap allows errors.Is(err, ErrValidation) to succeed.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Validationf builds a ValidationError for the given field.
func Validationf(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf wraps ErrNotFound with a resource description.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}
