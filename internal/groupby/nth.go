package groupby

// nthRows computes, per group, the original row index of the group's n-th
// element, or -1 when the position does not exist. Negative n counts from
// the end, Python-style. The downstream gather turns -1 into a null output,
// never an out-of-bounds read.
//
// With includeNulls set, the position is taken directly against the group's
// full row run. Otherwise a running count of valid entries locates the n-th
// non-null value; groups with fewer than n+1 valid entries yield -1.
func nthRows(ex *executor, n int, includeNulls bool) []int {
	out := make([]int, ex.g.NumGroups())
	ex.forEachGroup(func(gi int, rows []int) {
		out[gi] = -1

		if includeNulls {
			pos := n
			if pos < 0 {
				pos += len(rows)
			}
			if pos >= 0 && pos < len(rows) {
				out[gi] = rows[pos]
			}
			return
		}

		pos := n
		if pos < 0 {
			// Resolve negative indices against the valid count.
			var validCount int
			for _, row := range rows {
				if !ex.arr.IsNull(row) {
					validCount++
				}
			}
			pos += validCount
		}
		if pos < 0 {
			return
		}
		// Exclusive running count of valid entries; the row whose running
		// count equals pos is the answer.
		seen := 0
		for _, row := range rows {
			if ex.arr.IsNull(row) {
				continue
			}
			if seen == pos {
				out[gi] = row
				return
			}
			seen++
		}
	})
	return out
}
