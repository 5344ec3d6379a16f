package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a chat log or analysis does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrForbidden is returned when the caller does not own the entity.
	ErrForbidden = errors.New("entity belongs to another user")

	// ErrNoData is returned when the requested window holds no chat lines.
	ErrNoData = errors.New("no chat lines in the requested date range")

	// ErrUpstream is returned when the LLM call failed. Nothing is persisted.
	ErrUpstream = errors.New("llm request failed")
)

// ValidationError wraps field-specific validation errors
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
