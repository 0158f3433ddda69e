package groupby

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/vireodata/vireo/internal/errors"
	"github.com/vireodata/vireo/internal/tdigest"
)

// Arrow layout of a t-digest column: one struct per group holding the
// ordered centroid list and the stream min/max.
var (
	centroidType = arrow.StructOf(
		arrow.Field{Name: "mean", Type: arrow.PrimitiveTypes.Float64},
		arrow.Field{Name: "weight", Type: arrow.PrimitiveTypes.Float64},
	)
	digestType = arrow.StructOf(
		arrow.Field{Name: "centroids", Type: arrow.ListOf(centroidType)},
		arrow.Field{Name: "min", Type: arrow.PrimitiveTypes.Float64},
		arrow.Field{Name: "max", Type: arrow.PrimitiveTypes.Float64},
	)
)

// groupDigest is the intermediate per-group entry of the t-digest kernel.
// All-null groups produce a stub entry so the reduction pass over groups
// stays branch-free; stubs are compacted out before the column is built.
type groupDigest struct {
	digest tdigest.TDigest
	isStub bool
}

// tdigestGroups builds one digest per group from the cached sorted value
// slices.
func tdigestGroups(groups [][]float64, delta int) []groupDigest {
	out := make([]groupDigest, len(groups))
	for gi, vals := range groups {
		if len(vals) == 0 {
			// Placeholder keeps one entry per group through the reduction;
			// the compaction pass strips its contents.
			out[gi] = groupDigest{digest: tdigest.FromSorted(nil, delta), isStub: true}
			continue
		}
		out[gi] = groupDigest{digest: tdigest.FromSorted(vals, delta)}
	}
	return out
}

// mergeTDigestGroups re-compresses previously built digests per group. The
// value column must carry the digest struct layout; each group's digests
// are merged into one at the target delta.
func mergeTDigestGroups(ex *executor, delta int) ([]groupDigest, error) {
	inputs, err := digestsFromArrow(ex.arr)
	if err != nil {
		return nil, err
	}

	out := make([]groupDigest, ex.g.NumGroups())
	ex.forEachGroup(func(gi int, rows []int) {
		batch := make([]tdigest.TDigest, 0, len(rows))
		for _, row := range rows {
			if ex.arr.IsNull(row) {
				continue
			}
			batch = append(batch, inputs[row])
		}
		merged := tdigest.Merge(batch, delta)
		out[gi] = groupDigest{digest: merged, isStub: merged.Empty()}
	})
	return out, nil
}

// removeStubs is the explicit compaction pass: stub entries keep their
// output slot but lose their placeholder contents, so published centroid
// counts cover live groups only.
func removeStubs(entries []groupDigest) []tdigest.TDigest {
	out := make([]tdigest.TDigest, len(entries))
	for i, e := range entries {
		if e.isStub {
			out[i] = tdigest.TDigest{}
			continue
		}
		out[i] = e.digest
	}
	return out
}

// digestsToArrow publishes per-group digests as the nested digest column.
// Empty digests become empty centroid lists with min/max scrubbed to 0.
func digestsToArrow(digests []tdigest.TDigest, mem memory.Allocator) arrow.Array {
	builder := array.NewStructBuilder(mem, digestType)
	defer builder.Release()

	listB := builder.FieldBuilder(0).(*array.ListBuilder)
	centB := listB.ValueBuilder().(*array.StructBuilder)
	meanB := centB.FieldBuilder(0).(*array.Float64Builder)
	weightB := centB.FieldBuilder(1).(*array.Float64Builder)
	minB := builder.FieldBuilder(1).(*array.Float64Builder)
	maxB := builder.FieldBuilder(2).(*array.Float64Builder)

	for _, d := range digests {
		builder.Append(true)
		listB.Append(true)
		for _, c := range d.Centroids {
			centB.Append(true)
			meanB.Append(c.Mean)
			weightB.Append(c.Weight)
		}
		minB.Append(d.OutputMin())
		maxB.Append(d.OutputMax())
	}

	return builder.NewArray()
}

// digestsFromArrow parses a digest column back into per-row digests, the
// inverse of digestsToArrow. Null rows parse as empty digests.
func digestsFromArrow(arr arrow.Array) ([]tdigest.TDigest, error) {
	st, ok := arr.(*array.Struct)
	if !ok || !arrow.TypeEqual(arr.DataType(), digestType) {
		return nil, errors.NewUnsupportedAggregationError("MergeTDigest", arr.DataType().String())
	}

	list := st.Field(0).(*array.List)
	cents := list.ListValues().(*array.Struct)
	means := cents.Field(0).(*array.Float64)
	weights := cents.Field(1).(*array.Float64)
	mins := st.Field(1).(*array.Float64)
	maxs := st.Field(2).(*array.Float64)
	offsets := list.Offsets()

	out := make([]tdigest.TDigest, st.Len())
	for i := range out {
		if st.IsNull(i) {
			continue
		}
		start, end := offsets[i], offsets[i+1]
		if start == end {
			continue
		}
		cs := make([]tdigest.Centroid, 0, end-start)
		for j := start; j < end; j++ {
			cs = append(cs, tdigest.Centroid{Mean: means.Value(int(j)), Weight: weights.Value(int(j))})
		}
		out[i] = tdigest.TDigest{Centroids: cs, Min: mins.Value(i), Max: maxs.Value(i)}
	}
	return out, nil
}
