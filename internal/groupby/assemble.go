package groupby

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/vireodata/vireo/internal/dataframe"
	"github.com/vireodata/vireo/internal/errors"
	"github.com/vireodata/vireo/internal/series"
)

// The result assembler: gathers per-group rows back into output columns and
// computes their validity masks. Gathers are the one place negative or
// out-of-bounds indices appear (nth-element misses, all-null min/max
// groups); they always produce null outputs, never undefined reads.

// gatherColumn builds a new column of arr's type holding arr[rows[i]] at
// slot i. A negative index, an index past the column's bound, or a null
// source slot yields a null output slot.
func gatherColumn(name string, arr arrow.Array, rows []int, mem memory.Allocator) (dataframe.ISeries, error) {
	switch a := arr.(type) {
	case *array.Int64:
		return gatherTyped(name, rows, mem, a.Len(), a.IsNull, a.Value), nil
	case *array.Int32:
		return gatherTyped(name, rows, mem, a.Len(), a.IsNull, a.Value), nil
	case *array.Int16:
		return gatherTyped(name, rows, mem, a.Len(), a.IsNull, a.Value), nil
	case *array.Float64:
		return gatherTyped(name, rows, mem, a.Len(), a.IsNull, a.Value), nil
	case *array.Float32:
		return gatherTyped(name, rows, mem, a.Len(), a.IsNull, a.Value), nil
	case *array.String:
		return gatherTyped(name, rows, mem, a.Len(), a.IsNull, a.Value), nil
	case *array.Boolean:
		return gatherTyped(name, rows, mem, a.Len(), a.IsNull, a.Value), nil
	case *array.Timestamp:
		return gatherTyped(name, rows, mem, a.Len(), a.IsNull, a.Value), nil
	default:
		return nil, errors.NewUnsupportedAggregationError("Gather", arr.DataType().String())
	}
}

func gatherTyped[T any](
	name string, rows []int, mem memory.Allocator,
	srcLen int, isNull func(int) bool, value func(int) T,
) dataframe.ISeries {
	values := make([]T, len(rows))
	valid := make([]bool, len(rows))
	for i, row := range rows {
		if row < 0 || row >= srcLen || isNull(row) {
			continue
		}
		values[i] = value(row)
		valid[i] = true
	}
	return series.NewNullable(name, values, valid, mem)
}

// buildKeyTable gathers one representative row per group out of every key
// column, in group (i.e. key sort) order.
func buildKeyTable(keys *dataframe.DataFrame, g *Grouping, mem memory.Allocator) (*dataframe.DataFrame, error) {
	rows := g.KeyRows()
	out := make([]dataframe.ISeries, 0, keys.Width())
	for i := 0; i < keys.Width(); i++ {
		col := keys.ColumnAt(i)
		arr := col.Array()
		gathered, err := gatherColumn(col.Name(), arr, rows, mem)
		arr.Release()
		if err != nil {
			for _, s := range out {
				s.Release()
			}
			return nil, err
		}
		out = append(out, gathered)
	}
	return dataframe.New(out...), nil
}

// buildFloat64Column publishes a float64 kernel result with its validity
// mask.
func buildFloat64Column(name string, vals []float64, valid []bool, mem memory.Allocator) dataframe.ISeries {
	return series.NewNullable(name, vals, valid, mem)
}

// buildInt64Column publishes an int64 kernel result with its validity mask.
// A nil mask means every slot is valid (counts).
func buildInt64Column(name string, vals []int64, valid []bool, mem memory.Allocator) dataframe.ISeries {
	return series.NewNullable(name, vals, valid, mem)
}

// buildQuantileColumn publishes the row-major num_groups x num_quantiles
// kernel output as one list<float64> per group, ordered as requested.
// Groups whose every quantile slot is null (all-null input group) publish a
// null list.
func buildQuantileColumn(name string, vals []float64, valid []bool, numQuantiles int, mem memory.Allocator) dataframe.ISeries {
	listB := array.NewListBuilder(mem, arrow.PrimitiveTypes.Float64)
	defer listB.Release()
	valueB := listB.ValueBuilder().(*array.Float64Builder)

	numGroups := len(vals) / numQuantiles
	for gi := 0; gi < numGroups; gi++ {
		base := gi * numQuantiles
		if !valid[base] {
			listB.AppendNull()
			continue
		}
		listB.Append(true)
		for qi := 0; qi < numQuantiles; qi++ {
			valueB.Append(vals[base+qi])
		}
	}

	arr := listB.NewArray()
	defer arr.Release()
	return series.NewFromArrow(name, arr)
}

// buildDigestColumn publishes per-group t-digests as the nested digest
// column.
func buildDigestColumn(name string, digests []groupDigest, mem memory.Allocator) dataframe.ISeries {
	arr := digestsToArrow(removeStubs(digests), mem)
	defer arr.Release()
	return series.NewFromArrow(name, arr)
}
