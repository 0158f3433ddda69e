// Package dataframe provides the table abstraction of the engine: an
// ordered sequence of equal-length nullable columns. Key tuples and value
// tuples are both represented as DataFrames.
package dataframe

import (
	"fmt"
	"strings"

	"github.com/vireodata/vireo/internal/errors"
)

// DataFrame represents a table of data with typed columns
type DataFrame struct {
	columns map[string]ISeries
	order   []string // Maintains column order
}

// New creates a new DataFrame from a slice of ISeries. A later series with
// a name already present replaces the earlier one in place; the displaced
// series is released.
func New(series ...ISeries) *DataFrame {
	columns := make(map[string]ISeries)
	order := make([]string, 0, len(series))

	for _, s := range series {
		name := s.Name()
		if prev, exists := columns[name]; exists {
			prev.Release()
			columns[name] = s
			continue
		}
		columns[name] = s
		order = append(order, name)
	}

	return &DataFrame{
		columns: columns,
		order:   order,
	}
}

// Columns returns the names of all columns in order
func (df *DataFrame) Columns() []string {
	if len(df.order) == 0 {
		return []string{}
	}
	return append([]string(nil), df.order...)
}

// Len returns the number of rows (assumes all columns have same length)
func (df *DataFrame) Len() int {
	if len(df.order) > 0 {
		if s, exists := df.columns[df.order[0]]; exists {
			return s.Len()
		}
	}
	return 0
}

// Width returns the number of columns
func (df *DataFrame) Width() int {
	return len(df.columns)
}

// Column returns the series for the given column name
func (df *DataFrame) Column(name string) (ISeries, bool) {
	s, exists := df.columns[name]
	return s, exists
}

// ColumnAt returns the series at the given position in column order.
func (df *DataFrame) ColumnAt(i int) ISeries {
	if i < 0 || i >= len(df.order) {
		return nil
	}
	return df.columns[df.order[i]]
}

// HasColumn checks if a column exists
func (df *DataFrame) HasColumn(name string) bool {
	_, exists := df.columns[name]
	return exists
}

// Select returns a new DataFrame with only the specified columns. The
// columns are shared with the receiver and retained; both frames must be
// released independently.
func (df *DataFrame) Select(names ...string) *DataFrame {
	newColumns := make(map[string]ISeries)
	newOrder := make([]string, 0, len(names))

	for _, name := range names {
		if s, exists := df.columns[name]; exists {
			s.Retain()
			newColumns[name] = s
			newOrder = append(newOrder, name)
		}
	}

	return &DataFrame{
		columns: newColumns,
		order:   newOrder,
	}
}

// ValidateEqualLengths confirms every column carries the same row count.
// Mismatched lengths inside one table are a programming error on the
// caller's side; the groupby entry point rejects them before any kernel
// runs.
func (df *DataFrame) ValidateEqualLengths(op string) error {
	if len(df.order) == 0 {
		return nil
	}
	want := df.Len()
	for _, name := range df.order {
		if got := df.columns[name].Len(); got != want {
			return errors.NewLengthMismatchError(op, name, want, got)
		}
	}
	return nil
}

// String returns a string representation of the DataFrame
func (df *DataFrame) String() string {
	if len(df.columns) == 0 {
		return "DataFrame[empty]"
	}

	parts := []string{fmt.Sprintf("DataFrame[%dx%d]", df.Len(), df.Width())}

	for _, name := range df.order {
		s := df.columns[name]
		parts = append(parts, fmt.Sprintf("  %s: %s", name, s.DataType().String()))
	}

	return strings.Join(parts, "\n")
}

// Release releases all underlying Arrow memory
func (df *DataFrame) Release() {
	for _, s := range df.columns {
		s.Release()
	}
}
