package groupby

import (
	"sort"

	"github.com/vireodata/vireo/internal/parallel"
)

// The segmented reduction kernels: each walks the maximal runs of equal
// group labels and folds the run's values with the aggregation's binary
// operator. Nulls are skipped, never folded as identity, so a group of all
// nulls yields a null output slot.
//
// Every kernel writes only the group slots of its assigned range, which
// lets the dispatcher fan ranges out across the worker pool without locks.

// countGroups counts per-group rows. With validOnly set, null value slots
// are excluded. Counts are always well-defined, so there is no validity
// mask.
func countGroups(ex *executor, validOnly bool) []int64 {
	out := make([]int64, ex.g.NumGroups())
	ex.forEachGroup(func(gi int, rows []int) {
		if !validOnly {
			out[gi] = int64(len(rows))
			return
		}
		var n int64
		for _, row := range rows {
			if !ex.arr.IsNull(row) {
				n++
			}
		}
		out[gi] = n
	})
	return out
}

// sumInt64 is the native-width segmented sum for integral columns; the
// output is widened to int64.
func sumInt64(ex *executor) ([]int64, []bool) {
	get, _ := int64Getter(ex.arr)
	out := make([]int64, ex.g.NumGroups())
	valid := make([]bool, ex.g.NumGroups())
	ex.forEachGroup(func(gi int, rows []int) {
		var sum int64
		for _, row := range rows {
			if ex.arr.IsNull(row) {
				continue
			}
			sum += get(row)
			valid[gi] = true
		}
		out[gi] = sum
	})
	return out, valid
}

// sumFloat64 is the segmented sum accumulated in float64; used for floating
// inputs and for the mean/variance intermediates of any numeric input.
func sumFloat64(ex *executor) ([]float64, []bool) {
	get, _ := numericGetter(ex.arr)
	out := make([]float64, ex.g.NumGroups())
	valid := make([]bool, ex.g.NumGroups())
	ex.forEachGroup(func(gi int, rows []int) {
		var sum float64
		for _, row := range rows {
			if ex.arr.IsNull(row) {
				continue
			}
			sum += get(row)
			valid[gi] = true
		}
		out[gi] = sum
	})
	return out, valid
}

// argExtremum computes, per group, the row index holding the minimum
// (isMin) or maximum value, or -1 for all-null groups. The result feeds a
// gather so min/max preserve the input column type exactly, strings and
// timestamps included.
func argExtremum(ex *executor, isMin bool) []int {
	out := make([]int, ex.g.NumGroups())
	ex.forEachGroup(func(gi int, rows []int) {
		best := -1
		for _, row := range rows {
			if ex.arr.IsNull(row) {
				continue
			}
			if best < 0 {
				best = row
				continue
			}
			cmp := compareValues(ex.arr, ex.arr, row, best)
			if (isMin && cmp < 0) || (!isMin && cmp > 0) {
				best = row
			}
		}
		out[gi] = best
	})
	return out
}

// forEachGroup applies fn to every group, fanning group ranges out across
// the worker pool once the group count crosses the parallel threshold.
// fn must only write state owned by its group index.
func (ex *executor) forEachGroup(fn func(gi int, rows []int)) {
	n := ex.g.NumGroups()
	if n == 0 {
		return
	}
	if ex.pool == nil || n < ex.parallelThreshold {
		for gi := 0; gi < n; gi++ {
			fn(gi, ex.g.GroupRows(gi))
		}
		return
	}
	parallel.ProcessRanges(ex.pool, n, ex.chunkSize, func(r parallel.Range) {
		for gi := r.Start; gi < r.End; gi++ {
			fn(gi, ex.g.GroupRows(gi))
		}
	})
}

// sortedGroupValues gathers each group's non-null values as float64 and
// sorts them ascending. Quantile, median and t-digest kernels all consume
// this layout; the dispatcher caches it so they share one gather+sort.
func sortedGroupValues(ex *executor) [][]float64 {
	get, _ := numericGetter(ex.arr)
	out := make([][]float64, ex.g.NumGroups())
	ex.forEachGroup(func(gi int, rows []int) {
		vals := make([]float64, 0, len(rows))
		for _, row := range rows {
			if ex.arr.IsNull(row) {
				continue
			}
			vals = append(vals, get(row))
		}
		sort.Float64s(vals)
		out[gi] = vals
	})
	return out
}
