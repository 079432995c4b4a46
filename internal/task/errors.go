package task

import (
	"errors"
	"fmt"

	"taskmanager/internal/db/models"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = models.ErrNotFound
)

// ErrEmptyTitle is returned when a title is missing, empty or whitespace-only.
var ErrEmptyTitle = &ValidationError{Field: "title", Message: "title is required"}

// ValidationError describes a rejected input field. It matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StoreError wraps an unexpected failure of the persistence layer.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsStoreFault reports whether err originated from the store rather than
// from validation or a missing record.
func IsStoreFault(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
