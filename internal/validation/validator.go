// Package validation provides reusable input validators for the public
// API surface: column existence, length consistency and index bounds are
// checked before any grouping or aggregation work starts.
package validation

import (
	"fmt"

	"github.com/vireodata/vireo/internal/errors"
)

// Validator checks one input condition.
type Validator interface {
	Validate() error
}

// ColumnProvider is the table shape the validators need.
type ColumnProvider interface {
	HasColumn(name string) bool
	Columns() []string
	Len() int
	Width() int
}

// ColumnValidator checks that named columns exist in a table.
type ColumnValidator struct {
	df      ColumnProvider
	columns []string
	op      string
}

// NewColumnValidator creates a validator for column lookups.
func NewColumnValidator(df ColumnProvider, op string, columns ...string) *ColumnValidator {
	return &ColumnValidator{df: df, columns: columns, op: op}
}

// Validate reports the first missing column.
func (v *ColumnValidator) Validate() error {
	for _, column := range v.columns {
		if !v.df.HasColumn(column) {
			return errors.NewColumnNotFoundError(v.op, column)
		}
	}
	return nil
}

// LengthValidator checks that a column's length matches the expected row
// count.
type LengthValidator struct {
	expected int
	actual   int
	op       string
	column   string
}

// NewLengthValidator creates a validator for length consistency.
func NewLengthValidator(expected, actual int, op, column string) *LengthValidator {
	return &LengthValidator{expected: expected, actual: actual, op: op, column: column}
}

// Validate reports a mismatch between expected and actual length.
func (v *LengthValidator) Validate() error {
	if v.expected != v.actual {
		return errors.NewLengthMismatchError(v.op, v.column, v.expected, v.actual)
	}
	return nil
}

// IndexValidator checks index bounds.
type IndexValidator struct {
	index int
	max   int
	op    string
}

// NewIndexValidator creates a validator for index accesses.
func NewIndexValidator(index, maxIndex int, op string) *IndexValidator {
	return &IndexValidator{index: index, max: maxIndex, op: op}
}

// Validate reports an out-of-bounds index.
func (v *IndexValidator) Validate() error {
	if v.index < 0 || v.index >= v.max {
		return errors.NewInvalidInputError(v.op,
			fmt.Sprintf("index %d out of bounds [0, %d)", v.index, v.max))
	}
	return nil
}

// NonEmptyValidator rejects operations on tables without columns.
type NonEmptyValidator struct {
	df ColumnProvider
	op string
}

// NewNonEmptyValidator creates a validator for empty-table checks.
func NewNonEmptyValidator(df ColumnProvider, op string) *NonEmptyValidator {
	return &NonEmptyValidator{df: df, op: op}
}

// Validate reports a table with no columns.
func (v *NonEmptyValidator) Validate() error {
	if v.df.Width() == 0 {
		return errors.NewInvalidInputError(v.op, "table has no columns")
	}
	return nil
}

// CompoundValidator runs several validators in order.
type CompoundValidator struct {
	validators []Validator
}

// NewCompoundValidator combines validators; the first failure wins.
func NewCompoundValidator(validators ...Validator) *CompoundValidator {
	return &CompoundValidator{validators: validators}
}

// Validate runs all validators and returns the first error.
func (v *CompoundValidator) Validate() error {
	for _, validator := range v.validators {
		if err := validator.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Convenience wrappers.

// ValidateColumns checks that all named columns exist.
func ValidateColumns(df ColumnProvider, op string, columns ...string) error {
	return NewColumnValidator(df, op, columns...).Validate()
}

// ValidateLength checks one column's length against the expected count.
func ValidateLength(expected, actual int, op, column string) error {
	return NewLengthValidator(expected, actual, op, column).Validate()
}

// ValidateIndex checks an index against [0, maxIndex).
func ValidateIndex(index, maxIndex int, op string) error {
	return NewIndexValidator(index, maxIndex, op).Validate()
}

// ValidateNotEmpty checks that the table has at least one column.
func ValidateNotEmpty(df ColumnProvider, op string) error {
	return NewNonEmptyValidator(df, op).Validate()
}
