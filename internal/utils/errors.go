package utils

import (
	"fmt"
	"strings"
)

// ValidationError represents an error occurring during input collection.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns the error message string.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError with a specific message.
//
// Parameters:
//   - field: The offending input field, may be empty.
//   - message: The validation error message.
//
// Returns:
//   - An error interface wrapping the ValidationError.
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewValidationErrorf creates a new ValidationError with a formatted message.
func NewValidationErrorf(field, format string, args ...interface{}) error {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// ArtifactNotFoundError reports a model, schema or encoder file that is
// missing at startup. It is fatal to readiness.
type ArtifactNotFoundError struct {
	Kind string
	Path string
	Err  error
}

func (e *ArtifactNotFoundError) Error() string {
	return fmt.Sprintf("%s artifact not found at %q", e.Kind, e.Path)
}

func (e *ArtifactNotFoundError) Unwrap() error {
	return e.Err
}

// UnknownCategoryError reports a category value outside a trained encoder's
// domain. It is recoverable per request.
type UnknownCategoryError struct {
	Field string
	Value string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q for field %s", e.Value, e.Field)
}

// SchemaMismatchError reports an encoded vector that does not line up with
// the feature schema. It indicates a deployment inconsistency, not bad input.
type SchemaMismatchError struct {
	Expected int
	Actual   int
	Columns  []string
	Reason   string
}

func (e *SchemaMismatchError) Error() string {
	var b strings.Builder
	b.WriteString("schema mismatch")
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Expected != e.Actual {
		fmt.Fprintf(&b, " (expected %d columns, got %d)", e.Expected, e.Actual)
	}
	if len(e.Columns) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.Columns, ", "))
	}
	return b.String()
}

// PredictionError wraps any failure raised by the underlying model.
type PredictionError struct {
	Err error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("prediction failed: %v", e.Err)
}

func (e *PredictionError) Unwrap() error {
	return e.Err
}
