// Package errors provides standardized error types for the groupby engine.
// This package defines EngineError for consistent error handling across
// all public APIs, with operation context and error wrapping support.
package errors

import (
	"fmt"
)

// EngineError represents standardized errors across all engine operations.
// The error taxonomy is deliberately narrow: precondition violations are
// raised here before any kernel runs, while numerical edge cases (empty
// groups, invalid degrees of freedom) are handled by policy inside the
// kernels and never surface as errors.
type EngineError struct {
	Op      string // Operation name (e.g., "GroupBy", "Variance", "Quantile")
	Column  string // Column name if applicable
	Message string // Human-readable error description
	Cause   error  // Underlying error cause
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s failed on column '%s': %s", e.Op, e.Column, e.Message)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying cause for error wrapping support
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// Is implements error equality checking for errors.Is()
func (e *EngineError) Is(target error) bool {
	if ee, ok := target.(*EngineError); ok {
		return e.Op == ee.Op && e.Column == ee.Column && e.Message == ee.Message
	}
	return false
}

// Common error constructors for consistent error creation

// NewColumnNotFoundError creates an error for operations on non-existent columns
func NewColumnNotFoundError(op, column string) *EngineError {
	return &EngineError{
		Op:      op,
		Column:  column,
		Message: "column does not exist",
	}
}

// NewLengthMismatchError creates an error for row-count mismatches between
// key and value columns. Detected before any kernel is dispatched.
func NewLengthMismatchError(op, column string, want, got int) *EngineError {
	return &EngineError{
		Op:      op,
		Column:  column,
		Message: fmt.Sprintf("row count mismatch: expected %d rows, got %d", want, got),
	}
}

// NewUnsupportedKeyTypeError creates an error for key columns whose type
// cannot be ordered or hashed for grouping.
func NewUnsupportedKeyTypeError(op, column, typeName string) *EngineError {
	return &EngineError{
		Op:      op,
		Column:  column,
		Message: fmt.Sprintf("unsupported key column type %s", typeName),
	}
}

// NewUnsupportedAggregationError creates an error identifying which
// aggregation rejected which runtime type.
func NewUnsupportedAggregationError(agg, typeName string) *EngineError {
	return &EngineError{
		Op:      agg,
		Message: fmt.Sprintf("unsupported value type %s for this aggregation", typeName),
	}
}

// NewInvalidInputError creates an error for invalid operation inputs
func NewInvalidInputError(op, message string) *EngineError {
	return &EngineError{
		Op:      op,
		Message: message,
	}
}

// NewInternalError creates an error for internal operation failures
func NewInternalError(op string, cause error) *EngineError {
	return &EngineError{
		Op:      op,
		Message: "internal error occurred",
		Cause:   cause,
	}
}

// Predefined error variables for common cases
var (
	// ErrEmptyKeys indicates a groupby request with no key columns
	ErrEmptyKeys = &EngineError{
		Op:      "validation",
		Message: "at least one key column is required",
	}

	// ErrMismatchedLength indicates length mismatches between key columns
	ErrMismatchedLength = &EngineError{
		Op:      "validation",
		Message: "key columns must have the same length",
	}

	// ErrNilValues indicates an aggregation request without a value column
	ErrNilValues = &EngineError{
		Op:      "validation",
		Message: "aggregation request requires a value column",
	}
)
