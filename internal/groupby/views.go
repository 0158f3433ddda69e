package groupby

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// numericGetter reads a numeric column as float64 regardless of its native
// width; the bool result is false for non-numeric columns. Kernels that
// accumulate in double precision (mean, variance, quantile, t-digest) go
// through this view; native-width kernels (sum, min/max) use typed getters.
func numericGetter(arr arrow.Array) (func(int) float64, bool) {
	switch a := arr.(type) {
	case *array.Int64:
		return func(i int) float64 { return float64(a.Value(i)) }, true
	case *array.Int32:
		return func(i int) float64 { return float64(a.Value(i)) }, true
	case *array.Int16:
		return func(i int) float64 { return float64(a.Value(i)) }, true
	case *array.Float64:
		return a.Value, true
	case *array.Float32:
		return func(i int) float64 { return float64(a.Value(i)) }, true
	default:
		return nil, false
	}
}

// int64Getter reads an integral column widened to int64.
func int64Getter(arr arrow.Array) (func(int) int64, bool) {
	switch a := arr.(type) {
	case *array.Int64:
		return a.Value, true
	case *array.Int32:
		return func(i int) int64 { return int64(a.Value(i)) }, true
	case *array.Int16:
		return func(i int) int64 { return int64(a.Value(i)) }, true
	default:
		return nil, false
	}
}

func isIntegral(dt arrow.DataType) bool {
	switch dt.ID() {
	case arrow.INT16, arrow.INT32, arrow.INT64:
		return true
	default:
		return false
	}
}

func isNumeric(dt arrow.DataType) bool {
	switch dt.ID() {
	case arrow.INT16, arrow.INT32, arrow.INT64, arrow.FLOAT32, arrow.FLOAT64:
		return true
	default:
		return false
	}
}

// isOrderable reports whether min/max and key comparison are defined for
// the type.
func isOrderable(dt arrow.DataType) bool {
	switch dt.ID() {
	case arrow.INT16, arrow.INT32, arrow.INT64, arrow.FLOAT32, arrow.FLOAT64,
		arrow.STRING, arrow.BOOL, arrow.TIMESTAMP:
		return true
	default:
		return false
	}
}
