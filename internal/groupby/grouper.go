package groupby

import (
	"sort"

	"github.com/vireodata/vireo/internal/logging"
)

// Grouping is the ephemeral product of the grouping stage: a permutation
// that clusters identical keys contiguously, run boundaries, and a label
// per sorted row.
//
// Invariants: groups are contiguous in sorted order; labels are
// monotonically non-decreasing; sum of group sizes equals the effective row
// count (all rows for SQL-style grouping, the non-fully-null rows for
// Pandas-style).
type Grouping struct {
	// sortOrder maps sorted position -> original row index.
	sortOrder []int
	// offsets marks the start of each group in sortOrder, plus a final
	// sentinel equal to len(sortOrder). Always numGroups+1 entries.
	offsets []int
	// labels names the group of each sorted row. len == len(sortOrder).
	labels []int
}

// NumGroups returns the number of distinct key tuples.
func (g *Grouping) NumGroups() int {
	if len(g.offsets) == 0 {
		return 0
	}
	return len(g.offsets) - 1
}

// NumRows returns the effective row count after the null-key policy.
func (g *Grouping) NumRows() int {
	return len(g.sortOrder)
}

// GroupSize returns the number of rows in group i.
func (g *Grouping) GroupSize(i int) int {
	return g.offsets[i+1] - g.offsets[i]
}

// GroupRows returns the original row indices belonging to group i, in
// sorted order. The returned slice aliases the grouping's storage.
func (g *Grouping) GroupRows(i int) []int {
	return g.sortOrder[g.offsets[i]:g.offsets[i+1]]
}

// Labels returns the group index of each sorted row, aligned with the key
// sort order: row SortedRow(i) belongs to group Labels()[i]. Labels are
// monotonically non-decreasing. The returned slice aliases the grouping's
// storage.
func (g *Grouping) Labels() []int {
	return g.labels
}

// SortedRow maps sorted position i to its original row index.
func (g *Grouping) SortedRow(i int) int {
	return g.sortOrder[i]
}

// KeyRows returns one representative original row index per group, used to
// gather the output key table.
func (g *Grouping) KeyRows() []int {
	rows := make([]int, g.NumGroups())
	for i := range rows {
		rows[i] = g.sortOrder[g.offsets[i]]
	}
	return rows
}

// sortGroup builds a Grouping by sorting row indices with the comparator
// and detecting runs of equal keys.
//
// Pipeline: (1) build the candidate index sequence, dropping fully-null key
// rows under the Pandas-style policy; (2) sort it by the key tuple unless
// the caller asserted presorted keys; (3) walk the sorted sequence emitting
// one offset per run boundary (adjacent-equal elimination); (4) assign the
// run index as each row's label.
func sortGroup(cmp *comparator, numRows int, opts Options) *Grouping {
	idx := candidateRows(cmp, numRows, opts)
	if len(idx) == 0 {
		return &Grouping{}
	}

	if !opts.KeysAreSorted {
		sort.Slice(idx, func(a, b int) bool {
			c := cmp.compare(idx[a], idx[b])
			if c != 0 {
				return c < 0
			}
			// Original row index breaks ties so the permutation is stable.
			return idx[a] < idx[b]
		})
	}

	g := &Grouping{sortOrder: idx}
	g.detectBoundaries(cmp)

	if logging.DebugEnabled {
		logging.Debugf("groupby: sorted %d rows into %d groups", len(idx), g.NumGroups())
	}
	return g
}

// candidateRows returns the row indices that participate in grouping.
// SQL-style keeps every row; Pandas-style drops rows whose every key column
// is null.
func candidateRows(cmp *comparator, numRows int, opts Options) []int {
	idx := make([]int, 0, numRows)
	for row := 0; row < numRows; row++ {
		if opts.IgnoreNullKeys && cmp.rowAllNull(row) {
			continue
		}
		idx = append(idx, row)
	}
	return idx
}

// detectBoundaries runs the unique-copy pass over the sorted order, filling
// offsets and labels.
func (g *Grouping) detectBoundaries(cmp *comparator) {
	n := len(g.sortOrder)
	g.labels = make([]int, n)
	g.offsets = make([]int, 1, n+1)
	g.offsets[0] = 0

	for k := 1; k < n; k++ {
		if !cmp.equal(g.sortOrder[k-1], g.sortOrder[k]) {
			g.offsets = append(g.offsets, k)
		}
		g.labels[k] = len(g.offsets) - 1
	}
	g.offsets = append(g.offsets, n)
}
