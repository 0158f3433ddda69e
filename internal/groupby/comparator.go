// Package groupby implements the sort-based groupby and aggregation engine.
//
// The pipeline runs in stages: sort the rows by the key tuple (or hash them
// when every requested aggregation permits it), detect group boundaries,
// dispatch one type-specialized reduction kernel per aggregation request,
// and assemble the per-group results into output columns that follow the
// key sort order.
package groupby

import (
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"golang.org/x/exp/constraints"

	"github.com/vireodata/vireo/internal/dataframe"
	"github.com/vireodata/vireo/internal/errors"
)

// NullOrder controls where null keys sort relative to non-null values.
type NullOrder int

// Null ordering policies. NullsLargest is the default used by the SQL-style
// grouping path; both orderings are honored end to end.
const (
	NullsLargest NullOrder = iota
	NullsSmallest
)

// comparator imposes a lexicographic total order over row indices of a key
// tuple. The first column is most significant. A null compares strictly
// below (or above, per nullOrder) any non-null value; null==null ties and
// comparison proceeds to the next column. Descending columns flip the whole
// per-column comparison, nulls included.
type comparator struct {
	keys      []arrow.Array
	ascending []bool
	nullOrder NullOrder
}

// newComparator validates the key tuple and builds a comparator over it.
// The comparator retains the key arrays; callers must release it.
func newComparator(keys *dataframe.DataFrame, ascending []bool, nullOrder NullOrder) (*comparator, error) {
	if keys == nil || keys.Width() == 0 {
		return nil, errors.ErrEmptyKeys
	}
	if err := keys.ValidateEqualLengths("GroupBy"); err != nil {
		return nil, err
	}
	if ascending != nil && len(ascending) != keys.Width() {
		return nil, errors.NewInvalidInputError("GroupBy",
			"ascending flags must match the number of key columns")
	}
	for i := 0; i < keys.Width(); i++ {
		col := keys.ColumnAt(i)
		if !isOrderable(col.DataType()) {
			return nil, errors.NewUnsupportedKeyTypeError("GroupBy",
				col.Name(), col.DataType().String())
		}
	}

	arrs := make([]arrow.Array, keys.Width())
	for i := range arrs {
		arrs[i] = keys.ColumnAt(i).Array()
	}

	return &comparator{keys: arrs, ascending: ascending, nullOrder: nullOrder}, nil
}

// release drops the comparator's references to the key arrays.
func (c *comparator) release() {
	for _, arr := range c.keys {
		arr.Release()
	}
	c.keys = nil
}

// compare returns -1, 0 or 1 ordering rows i and j.
func (c *comparator) compare(i, j int) int {
	for k, arr := range c.keys {
		cmp := c.compareColumn(arr, i, j)
		if cmp == 0 {
			continue
		}
		if c.ascending != nil && !c.ascending[k] {
			cmp = -cmp
		}
		return cmp
	}
	return 0
}

// equal reports whether rows i and j carry identical key tuples. Two nulls
// in the same column are equal for grouping purposes.
func (c *comparator) equal(i, j int) bool {
	return c.compare(i, j) == 0
}

// rowAllNull reports whether every key column is null at the given row.
// Used by the Pandas-style policy to drop fully-null key rows.
func (c *comparator) rowAllNull(row int) bool {
	for _, arr := range c.keys {
		if !arr.IsNull(row) {
			return false
		}
	}
	return true
}

func (c *comparator) compareColumn(arr arrow.Array, i, j int) int {
	iNull, jNull := arr.IsNull(i), arr.IsNull(j)
	switch {
	case iNull && jNull:
		return 0
	case iNull:
		if c.nullOrder == NullsSmallest {
			return -1
		}
		return 1
	case jNull:
		if c.nullOrder == NullsSmallest {
			return 1
		}
		return -1
	}
	return compareValues(arr, arr, i, j)
}

// compareValues compares the non-null values left[i] and right[j]. The two
// arrays must share a data type.
func compareValues(left, right arrow.Array, i, j int) int {
	switch la := left.(type) {
	case *array.Int64:
		return orderOf(la.Value(i), right.(*array.Int64).Value(j))
	case *array.Int32:
		return orderOf(la.Value(i), right.(*array.Int32).Value(j))
	case *array.Int16:
		return orderOf(la.Value(i), right.(*array.Int16).Value(j))
	case *array.Float64:
		return orderOf(la.Value(i), right.(*array.Float64).Value(j))
	case *array.Float32:
		return orderOf(la.Value(i), right.(*array.Float32).Value(j))
	case *array.Timestamp:
		return orderOf(la.Value(i), right.(*array.Timestamp).Value(j))
	case *array.String:
		return strings.Compare(la.Value(i), right.(*array.String).Value(j))
	case *array.Boolean:
		lv, rv := la.Value(i), right.(*array.Boolean).Value(j)
		switch {
		case lv == rv:
			return 0
		case !lv:
			return -1
		default:
			return 1
		}
	default:
		// Unreachable: newComparator rejects non-orderable key types.
		panic("groupby: unsupported key column type " + left.DataType().String())
	}
}

func orderOf[T constraints.Ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
