package domain

import (
	"errors"
	"fmt"
)

var ErrValidation = errors.New("validation failed")

// ValidationError names the offending input field. It matches ErrValidation under errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func NewIndexedValidationError(field string, index int, reason string) *ValidationError {
	return &ValidationError{Field: fmt.Sprintf("%s[%d]", field, index), Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
