// Package vireo is a columnar analytics engine over Apache Arrow. Its core
// is a sort-based groupby + aggregation pipeline: rows are grouped by one
// or more key columns and reduced per group with sums, counts, extrema,
// moments, quantiles, positional picks or t-digest sketches.
//
// This package is the sole public API; it wraps the internal engine types.
package vireo

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/vireodata/vireo/internal/agg"
	"github.com/vireodata/vireo/internal/dataframe"
	"github.com/vireodata/vireo/internal/groupby"
	vio "github.com/vireodata/vireo/internal/io"
	"github.com/vireodata/vireo/internal/series"
	"github.com/vireodata/vireo/internal/validation"
	"github.com/vireodata/vireo/internal/version"
)

// ISeries is the type-erased interface over a typed column.
type ISeries interface {
	Name() string
	Len() int
	NullN() int
	DataType() arrow.DataType
	IsNull(index int) bool
	String() string
	Array() arrow.Array
	Retain()
	Release()
}

// DataFrame is an ordered set of equal-length named columns.
type DataFrame struct {
	df *dataframe.DataFrame
}

// Interpolation selects how fractional quantile ranks are resolved.
type Interpolation = agg.Interpolation

// Interpolation policies.
const (
	Linear   = agg.Linear
	Lower    = agg.Lower
	Higher   = agg.Higher
	Midpoint = agg.Midpoint
	Nearest  = agg.Nearest
)

// NullOrder controls where null keys sort relative to values.
type NullOrder = groupby.NullOrder

// Null ordering policies.
const (
	NullsLargest  = groupby.NullsLargest
	NullsSmallest = groupby.NullsSmallest
)

// NewDataFrame creates a DataFrame from columns. The frame takes ownership
// of the series.
func NewDataFrame(columns ...ISeries) *DataFrame {
	internal := make([]dataframe.ISeries, len(columns))
	for i, col := range columns {
		internal[i] = col
	}
	return &DataFrame{df: dataframe.New(internal...)}
}

// NewSeries creates a typed column from values.
func NewSeries[T any](name string, values []T, mem memory.Allocator) ISeries {
	return series.New(name, values, mem)
}

// NewNullableSeries creates a typed column from values and a validity mask
// (true = valid). A nil mask means all values are valid.
func NewNullableSeries[T any](name string, values []T, valid []bool, mem memory.Allocator) ISeries {
	return series.NewNullable(name, values, valid, mem)
}

// NewSeriesFromArrow wraps an existing Arrow array as a column, retaining
// a reference.
func NewSeriesFromArrow(name string, arr arrow.Array) ISeries {
	return series.NewFromArrow(name, arr)
}

// Columns returns the column names in order.
func (d *DataFrame) Columns() []string { return d.df.Columns() }

// Len returns the number of rows.
func (d *DataFrame) Len() int { return d.df.Len() }

// Width returns the number of columns.
func (d *DataFrame) Width() int { return d.df.Width() }

// Column returns the named column.
func (d *DataFrame) Column(name string) (ISeries, bool) { return d.df.Column(name) }

// HasColumn reports whether the named column exists.
func (d *DataFrame) HasColumn(name string) bool { return d.df.HasColumn(name) }

// Select returns a new DataFrame with only the named columns. The columns
// are shared and retained; both frames must be released.
func (d *DataFrame) Select(names ...string) *DataFrame {
	return &DataFrame{df: d.df.Select(names...)}
}

// String renders a short description of the frame.
func (d *DataFrame) String() string { return d.df.String() }

// Release frees the frame's columns.
func (d *DataFrame) Release() { d.df.Release() }

// GroupBy starts a grouped aggregation over the named key columns.
func (d *DataFrame) GroupBy(columns ...string) *GroupBy {
	return &GroupBy{df: d.df, keys: columns}
}

// GroupBy is a pending grouped aggregation. Options chain before Agg runs
// the pipeline.
type GroupBy struct {
	df   *dataframe.DataFrame
	keys []string
	opts groupby.Options
	mem  memory.Allocator
}

// IgnoreNullKeys drops rows whose key columns are all null instead of
// grouping them.
func (g *GroupBy) IgnoreNullKeys() *GroupBy {
	g.opts.IgnoreNullKeys = true
	return g
}

// Sorted asserts the key columns are already sorted, skipping the sort.
func (g *GroupBy) Sorted() *GroupBy {
	g.opts.KeysAreSorted = true
	return g
}

// NullsFirst orders null keys before all values.
func (g *GroupBy) NullsFirst() *GroupBy {
	g.opts.NullOrder = groupby.NullsSmallest
	return g
}

// Descending sorts every key column in descending order.
func (g *GroupBy) Descending() *GroupBy {
	g.opts.Ascending = make([]bool, len(g.keys))
	return g
}

// Order sets the ascending flag per key column; it must match the key
// count.
func (g *GroupBy) Order(ascending ...bool) *GroupBy {
	g.opts.Ascending = ascending
	return g
}

// WithAllocator sets the allocator for output columns.
func (g *GroupBy) WithAllocator(mem memory.Allocator) *GroupBy {
	g.mem = mem
	return g
}

// Agg runs the grouped aggregations and returns one row per group: the
// unique key columns followed by one column per aggregation. The caller
// owns the result.
func (g *GroupBy) Agg(aggregations ...*Aggregation) (*DataFrame, error) {
	if err := validation.ValidateNotEmpty(g.df, "GroupBy"); err != nil {
		return nil, err
	}
	if err := validation.ValidateColumns(g.df, "GroupBy", g.keys...); err != nil {
		return nil, err
	}
	for _, a := range aggregations {
		if err := validation.ValidateColumns(g.df, "GroupBy", a.column); err != nil {
			return nil, err
		}
	}

	keys := g.df.Select(g.keys...)
	defer keys.Release()

	requests := buildRequests(g.df, aggregations)
	keyTable, aggTable, err := groupby.Run(keys, requests, g.opts, g.mem)
	if err != nil {
		return nil, err
	}
	defer keyTable.Release()
	defer aggTable.Release()

	return mergeFrames(keyTable, aggTable), nil
}

// buildRequests groups aggregations by value column, keeping first-seen
// column order, so aggregations over one column share intermediates.
func buildRequests(df *dataframe.DataFrame, aggregations []*Aggregation) []groupby.Request {
	var requests []groupby.Request
	index := map[string]int{}
	for _, a := range aggregations {
		i, ok := index[a.column]
		if !ok {
			col, _ := df.Column(a.column)
			i = len(requests)
			index[a.column] = i
			requests = append(requests, groupby.Request{Values: col})
		}
		requests[i].Aggs = append(requests[i].Aggs, a.spec)
	}
	return requests
}

// mergeFrames builds one frame from the columns of both inputs, retaining
// each column.
func mergeFrames(left, right *dataframe.DataFrame) *DataFrame {
	columns := make([]dataframe.ISeries, 0, left.Width()+right.Width())
	for i := 0; i < left.Width(); i++ {
		col := left.ColumnAt(i)
		col.Retain()
		columns = append(columns, col)
	}
	for i := 0; i < right.Width(); i++ {
		col := right.ColumnAt(i)
		col.Retain()
		columns = append(columns, col)
	}
	return &DataFrame{df: dataframe.New(columns...)}
}

// Aggregation pairs a value column with an aggregation descriptor.
type Aggregation struct {
	column string
	spec   *agg.Aggregation
}

// As names the output column, overriding the default kind_column name.
func (a *Aggregation) As(alias string) *Aggregation {
	a.spec = a.spec.As(alias)
	return a
}

// Sum requests a per-group sum of non-null values.
func Sum(column string) *Aggregation {
	return &Aggregation{column: column, spec: agg.NewSum()}
}

// Min requests the per-group minimum.
func Min(column string) *Aggregation {
	return &Aggregation{column: column, spec: agg.NewMin()}
}

// Max requests the per-group maximum.
func Max(column string) *Aggregation {
	return &Aggregation{column: column, spec: agg.NewMax()}
}

// Count requests the per-group count of non-null values.
func Count(column string) *Aggregation {
	return &Aggregation{column: column, spec: agg.NewCount()}
}

// CountAll requests the per-group row count, nulls included.
func CountAll(column string) *Aggregation {
	return &Aggregation{column: column, spec: agg.NewCountAll()}
}

// Mean requests the per-group arithmetic mean of non-null values.
func Mean(column string) *Aggregation {
	return &Aggregation{column: column, spec: agg.NewMean()}
}

// Variance requests the per-group variance with the given delta degrees of
// freedom (1 = sample variance).
func Variance(column string, ddof int) *Aggregation {
	return &Aggregation{column: column, spec: agg.NewVariance(ddof)}
}

// Std requests the per-group standard deviation.
func Std(column string, ddof int) *Aggregation {
	return &Aggregation{column: column, spec: agg.NewStd(ddof)}
}

// Median requests the per-group median (linear interpolation).
func Median(column string) *Aggregation {
	return &Aggregation{column: column, spec: agg.NewMedian()}
}

// Quantile requests per-group quantiles, returned as one list per group in
// request order.
func Quantile(column string, qs []float64, interp Interpolation) *Aggregation {
	return &Aggregation{column: column, spec: agg.NewQuantile(qs, interp)}
}

// NthElement requests the n-th value of each group; negative n counts from
// the end. includeNulls counts null slots as positions.
func NthElement(column string, n int, includeNulls bool) *Aggregation {
	return &Aggregation{column: column, spec: agg.NewNthElement(n, includeNulls)}
}

// TDigest requests a per-group t-digest sketch at the given compression.
func TDigest(column string, delta int) *Aggregation {
	return &Aggregation{column: column, spec: agg.NewTDigest(delta)}
}

// MergeTDigest re-compresses previously built per-group digests.
func MergeTDigest(column string, delta int) *Aggregation {
	return &Aggregation{column: column, spec: agg.NewMergeTDigest(delta)}
}

// I/O adapters.

// ReadCSV reads CSV text into a DataFrame with inferred column types.
func ReadCSV(r io.Reader, mem memory.Allocator) (*DataFrame, error) {
	df, err := vio.NewCSVReader(r, vio.DefaultCSVOptions(), mem).Read()
	if err != nil {
		return nil, err
	}
	return &DataFrame{df: df}, nil
}

// WriteCSV writes the DataFrame as CSV text with a header row.
func WriteCSV(w io.Writer, df *DataFrame) error {
	return vio.NewCSVWriter(w, vio.DefaultCSVOptions()).Write(df.df)
}

// ReadJSON reads a JSON array of record objects into a DataFrame.
func ReadJSON(r io.Reader, mem memory.Allocator) (*DataFrame, error) {
	df, err := vio.NewJSONReader(r, mem).Read()
	if err != nil {
		return nil, err
	}
	return &DataFrame{df: df}, nil
}

// WriteJSON writes the DataFrame as a JSON array of record objects.
func WriteJSON(w io.Writer, df *DataFrame) error {
	return vio.NewJSONWriter(w).Write(df.df)
}

// ReadParquet reads a Parquet stream into a DataFrame.
func ReadParquet(r io.Reader, mem memory.Allocator) (*DataFrame, error) {
	df, err := vio.NewParquetReader(r, mem).Read()
	if err != nil {
		return nil, err
	}
	return &DataFrame{df: df}, nil
}

// WriteParquet writes the DataFrame as a Parquet stream.
func WriteParquet(w io.Writer, df *DataFrame) error {
	return vio.NewParquetWriter(w, vio.DefaultParquetOptions(), nil).Write(df.df)
}

// Version returns the engine version string.
func Version() string {
	return version.Short()
}
