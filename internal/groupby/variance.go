package groupby

import (
	"math"
)

// varianceGroups computes the per-group variance
//
//	var_g = sum_{i in g} (x_i - mean_g)^2 / (n_g - ddof)
//
// where n_g counts only the group's non-null values and the mean is the
// cached intermediate shared with a separately requested MEAN, so the two
// are bit-identical. Accumulation happens in float64 regardless of the
// input's native width.
//
// Groups where n_g == 0 or n_g - ddof <= 0 have no defined variance: their
// contribution is 0 and the output slot is null. No division by zero can
// occur.
func varianceGroups(ex *executor, ddof int) ([]float64, []bool) {
	means, meansValid := ex.means()
	counts := ex.counts(true)
	get, _ := numericGetter(ex.arr)

	out := make([]float64, ex.g.NumGroups())
	valid := make([]bool, ex.g.NumGroups())

	ex.forEachGroup(func(gi int, rows []int) {
		n := counts[gi]
		if n == 0 || !meansValid[gi] || n-int64(ddof) <= 0 {
			return
		}
		mean := means[gi]
		var ss float64
		for _, row := range rows {
			if ex.arr.IsNull(row) {
				continue
			}
			d := get(row) - mean
			ss += d * d
		}
		out[gi] = ss / float64(n-int64(ddof))
		valid[gi] = true
	})

	return out, valid
}

// stdGroups is sqrt of the variance at the same ddof; validity follows the
// variance's.
func stdGroups(ex *executor, ddof int) ([]float64, []bool) {
	vars, valid := ex.variance(ddof)
	out := make([]float64, len(vars))
	for i, v := range vars {
		if valid[i] {
			out[i] = math.Sqrt(v)
		}
	}
	return out, valid
}
