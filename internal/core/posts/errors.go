package posts

import (
	"errors"
	"fmt"
)

// Sentinel errors for common post operations
var (
	// ErrNotFound is returned when no post has the requested id
	ErrNotFound = errors.New("post not found")

	// ErrNotAuthorized is returned when the caller may not act on a post
	ErrNotAuthorized = errors.New("not authorized for this post")

	// ErrMissingImage is returned when a create-with-image request has no file
	ErrMissingImage = errors.New("image file is required")
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error (%s): %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidationError checks if error is a validation error
func IsValidationError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// PartialFailureError is returned when an upload was written to storage but
// the records referencing it were not created and the file could not be
// removed again. Both outcomes are reported to the caller.
type PartialFailureError struct {
	CreateErr  error
	CleanupErr error
	Path       string
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("post not created (%v) and stored file %s was not removed (%v)",
		e.CreateErr, e.Path, e.CleanupErr)
}

func (e *PartialFailureError) Unwrap() []error {
	return []error{e.CreateErr, e.CleanupErr}
}

// IsPartialFailure checks if error is a partial failure
func IsPartialFailure(err error) bool {
	var pf *PartialFailureError
	return errors.As(err, &pf)
}

// IsNotFound checks if error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
