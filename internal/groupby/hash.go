package groupby

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/cespare/xxhash/v2"

	"github.com/vireodata/vireo/internal/logging"
)

// hashGroup builds a Grouping without sorting every row: rows are bucketed
// by an xxhash fingerprint of their key tuple, buckets are resolved to
// groups with exact key comparison, and only the group representatives are
// sorted afterwards. Eligible only when every requested aggregation is
// order-insensitive, because rows within a group keep input order rather
// than sort order.
func hashGroup(cmp *comparator, numRows int, opts Options) *Grouping {
	idx := candidateRows(cmp, numRows, opts)
	if len(idx) == 0 {
		return &Grouping{}
	}

	var (
		reps    []int   // representative row per group
		rows    [][]int // member rows per group, input order
		buckets = make(map[uint64][]int, len(idx))
		scratch []byte
	)

	for _, row := range idx {
		scratch = appendRowKey(scratch[:0], cmp, row)
		h := xxhash.Sum64(scratch)

		gid := -1
		for _, candidate := range buckets[h] {
			if cmp.equal(reps[candidate], row) {
				gid = candidate
				break
			}
		}
		if gid < 0 {
			gid = len(reps)
			reps = append(reps, row)
			rows = append(rows, nil)
			buckets[h] = append(buckets[h], gid)
		}
		rows[gid] = append(rows[gid], row)
	}

	// Output ordering contract is unchanged: groups appear in key sort
	// order, so only numGroups representatives are compared here.
	order := make([]int, len(reps))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		c := cmp.compare(reps[order[a]], reps[order[b]])
		if c != 0 {
			return c < 0
		}
		return reps[order[a]] < reps[order[b]]
	})

	g := &Grouping{
		sortOrder: make([]int, 0, len(idx)),
		offsets:   make([]int, 1, len(reps)+1),
		labels:    make([]int, len(idx)),
	}
	for gi, src := range order {
		for _, row := range rows[src] {
			g.labels[len(g.sortOrder)] = gi
			g.sortOrder = append(g.sortOrder, row)
		}
		g.offsets = append(g.offsets, len(g.sortOrder))
	}

	if logging.DebugEnabled {
		logging.Debugf("groupby: hashed %d rows into %d groups", len(idx), g.NumGroups())
	}
	return g
}

// appendRowKey serializes one row of the key tuple into buf for hashing.
// Every column contributes a validity tag so (null) and (zero value) hash
// differently, and string lengths are included so concatenations cannot
// collide across column boundaries.
func appendRowKey(buf []byte, cmp *comparator, row int) []byte {
	for _, arr := range cmp.keys {
		if arr.IsNull(row) {
			buf = append(buf, 0)
			continue
		}
		buf = append(buf, 1)
		switch a := arr.(type) {
		case *array.Int64:
			buf = binary.LittleEndian.AppendUint64(buf, uint64(a.Value(row)))
		case *array.Int32:
			buf = binary.LittleEndian.AppendUint32(buf, uint32(a.Value(row)))
		case *array.Int16:
			buf = binary.LittleEndian.AppendUint16(buf, uint16(a.Value(row)))
		case *array.Float64:
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(a.Value(row)))
		case *array.Float32:
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(a.Value(row)))
		case *array.Timestamp:
			buf = binary.LittleEndian.AppendUint64(buf, uint64(a.Value(row)))
		case *array.String:
			s := a.Value(row)
			buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
			buf = append(buf, s...)
		case *array.Boolean:
			if a.Value(row) {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		default:
			// Unreachable: newComparator rejects non-orderable key types.
			panic("groupby: unsupported key column type " + arr.DataType().String())
		}
	}
	return buf
}
