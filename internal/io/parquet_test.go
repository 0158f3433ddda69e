package io

import (
	"bytes"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireodata/vireo/internal/dataframe"
	"github.com/vireodata/vireo/internal/series"
)

func TestParquetRoundTrip(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := dataframe.New(
		series.New("key", []string{"a", "b", "c"}, mem),
		series.NewNullable("value", []int64{1, 0, 3}, []bool{true, false, true}, mem),
		series.New("score", []float64{0.5, 1.5, 2.5}, mem),
	)
	defer df.Release()

	var buf bytes.Buffer
	require.NoError(t, NewParquetWriter(&buf, DefaultParquetOptions(), mem).Write(df))

	back, err := NewParquetReader(&buf, mem).Read()
	require.NoError(t, err)
	defer back.Release()

	require.Equal(t, df.Columns(), back.Columns())
	require.Equal(t, df.Len(), back.Len())

	value, _ := back.Column("value")
	assert.Equal(t, arrow.PrimitiveTypes.Int64, value.DataType())
	assert.Equal(t, 1, value.NullN())
	assert.True(t, value.IsNull(1))

	keyArr, _ := back.Column("key")
	arr := keyArr.Array()
	defer arr.Release()
	assert.Equal(t, "c", arr.(*array.String).Value(2))
}

func TestParquetRoundTripNestedList(t *testing.T) {
	mem := memory.NewGoAllocator()

	listB := array.NewListBuilder(mem, arrow.PrimitiveTypes.Float64)
	defer listB.Release()
	valueB := listB.ValueBuilder().(*array.Float64Builder)
	listB.Append(true)
	valueB.AppendValues([]float64{0.25, 0.5, 0.75}, nil)
	listB.Append(true)
	valueB.Append(1.0)
	arr := listB.NewArray()
	df := dataframe.New(series.NewFromArrow("quantiles", arr))
	arr.Release()
	defer df.Release()

	var buf bytes.Buffer
	require.NoError(t, NewParquetWriter(&buf, DefaultParquetOptions(), mem).Write(df))

	back, err := NewParquetReader(&buf, mem).Read()
	require.NoError(t, err)
	defer back.Release()

	col, ok := back.Column("quantiles")
	require.True(t, ok)
	got := col.Array()
	defer got.Release()

	list, ok := got.(*array.List)
	require.True(t, ok, "column is %T, want list", got)
	assert.Equal(t, 2, list.Len())
	vals := list.ListValues().(*array.Float64)
	assert.Equal(t, 0.5, vals.Value(1))
}

func TestParquetCompressionCodecs(t *testing.T) {
	mem := memory.NewGoAllocator()
	for _, codec := range []string{"snappy", "gzip", "zstd", "uncompressed"} {
		t.Run(codec, func(t *testing.T) {
			df := dataframe.New(series.New("v", []int64{1, 2, 3}, mem))
			defer df.Release()

			opts := DefaultParquetOptions()
			opts.Compression = codec

			var buf bytes.Buffer
			require.NoError(t, NewParquetWriter(&buf, opts, mem).Write(df))

			back, err := NewParquetReader(&buf, mem).Read()
			require.NoError(t, err)
			defer back.Release()
			assert.Equal(t, 3, back.Len())
		})
	}
}
