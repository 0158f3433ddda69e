package series

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// Wrapped adapts an existing Arrow array as a series without copying. The
// result assembler uses this for columns whose type is only known at
// runtime (gathered outputs, nested t-digest columns).
type Wrapped struct {
	name  string
	array arrow.Array
}

// NewFromArrow wraps arr as a named series, retaining a reference.
func NewFromArrow(name string, arr arrow.Array) *Wrapped {
	arr.Retain()
	return &Wrapped{name: name, array: arr}
}

// Name returns the column name
func (w *Wrapped) Name() string { return w.name }

// Len returns the length of the series
func (w *Wrapped) Len() int { return w.array.Len() }

// NullN returns the cached null count of the series
func (w *Wrapped) NullN() int { return w.array.NullN() }

// DataType returns the Arrow data type
func (w *Wrapped) DataType() arrow.DataType { return w.array.DataType() }

// IsNull checks if the value at index is null
func (w *Wrapped) IsNull(index int) bool { return w.array.IsNull(index) }

// String returns a string representation of the series
func (w *Wrapped) String() string {
	return fmt.Sprintf("Series[%s]: %s (len=%d, nulls=%d)",
		w.array.DataType().Name(), w.name, w.Len(), w.NullN())
}

// Array returns the underlying Arrow array (retains a reference)
func (w *Wrapped) Array() arrow.Array {
	w.array.Retain()
	return w.array
}

// Retain adds a reference to the underlying Arrow memory
func (w *Wrapped) Retain() {
	w.array.Retain()
}

// Release releases the underlying Arrow memory
func (w *Wrapped) Release() {
	if w.array != nil {
		w.array.Release()
	}
}
