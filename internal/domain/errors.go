package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input (bad prices, duplicate dates, missing columns)
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a missing file, ticker or record
	ErrNotFound = errors.New("not found")
	// ErrArithmetic marks statistics that are undefined for the given data
	ErrArithmetic = errors.New("arithmetic error")
	// ErrIntegrity marks an insert that collides with a unique key
	ErrIntegrity = errors.New("integrity constraint violated")
)

// ValidationError describes why an input was rejected
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is match ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a ValidationError
func NewValidationError(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError describes a missing resource
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

// Is lets errors.Is match ErrNotFound
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a NotFoundError
func NewNotFoundError(resource, key string) error {
	return &NotFoundError{Resource: resource, Key: key}
}
