package groupby

import (
	"math"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireodata/vireo/internal/agg"
	"github.com/vireodata/vireo/internal/dataframe"
	"github.com/vireodata/vireo/internal/errors"
	"github.com/vireodata/vireo/internal/series"
)

// runOne groups a single int64 key column against a single value column and
// runs the given aggregations over it.
func runOne(t *testing.T, keyVals []int64, values dataframe.ISeries, opts Options, aggs ...*agg.Aggregation) (*dataframe.DataFrame, *dataframe.DataFrame) {
	t.Helper()
	mem := memory.NewGoAllocator()
	keys := dataframe.New(series.New("key", keyVals, mem))
	t.Cleanup(keys.Release)
	t.Cleanup(values.Release)

	keyTable, aggTable, err := Run(keys, []Request{{Values: values, Aggs: aggs}}, opts, mem)
	require.NoError(t, err)
	t.Cleanup(keyTable.Release)
	t.Cleanup(aggTable.Release)
	return keyTable, aggTable
}

func column(t *testing.T, df *dataframe.DataFrame, name string) dataframe.ISeries {
	t.Helper()
	col, ok := df.Column(name)
	require.True(t, ok, "missing result column %q", name)
	return col
}

func float64Column(t *testing.T, df *dataframe.DataFrame, name string) ([]float64, []bool) {
	t.Helper()
	arr := column(t, df, name).Array()
	defer arr.Release()
	fa, ok := arr.(*array.Float64)
	require.True(t, ok, "column %q is %T, want float64", name, arr)

	vals := make([]float64, fa.Len())
	valid := make([]bool, fa.Len())
	for i := 0; i < fa.Len(); i++ {
		vals[i] = fa.Value(i)
		valid[i] = fa.IsValid(i)
	}
	return vals, valid
}

func int64Column(t *testing.T, df *dataframe.DataFrame, name string) ([]int64, []bool) {
	t.Helper()
	arr := column(t, df, name).Array()
	defer arr.Release()
	ia, ok := arr.(*array.Int64)
	require.True(t, ok, "column %q is %T, want int64", name, arr)

	vals := make([]int64, ia.Len())
	valid := make([]bool, ia.Len())
	for i := 0; i < ia.Len(); i++ {
		vals[i] = ia.Value(i)
		valid[i] = ia.IsValid(i)
	}
	return vals, valid
}

func TestRunSum(t *testing.T) {
	mem := memory.NewGoAllocator()
	values := series.New("amount", []int64{10, 20, 5, 15, 25}, mem)

	keyTable, aggTable, err := func() (*dataframe.DataFrame, *dataframe.DataFrame, error) {
		keys := dataframe.New(series.New("key", []int64{1, 1, 2, 2, 2}, mem))
		defer keys.Release()
		defer values.Release()
		return Run(keys, []Request{{Values: values, Aggs: []*agg.Aggregation{agg.NewSum()}}}, Options{}, mem)
	}()
	require.NoError(t, err)
	defer keyTable.Release()
	defer aggTable.Release()

	keyVals, _ := int64Column(t, keyTable, "key")
	assert.Equal(t, []int64{1, 2}, keyVals)

	sums, valid := int64Column(t, aggTable, "sum_amount")
	assert.Equal(t, []int64{30, 45}, sums)
	assert.Equal(t, []bool{true, true}, valid)
}

func TestRunSumFloat(t *testing.T) {
	mem := memory.NewGoAllocator()
	values := series.New("amount", []float64{1.5, 2.5, 3.0}, mem)

	_, aggTable := runOne(t, []int64{1, 1, 2}, values, Options{}, agg.NewSum())

	sums, valid := float64Column(t, aggTable, "sum_amount")
	assert.Equal(t, []float64{4.0, 3.0}, sums)
	assert.Equal(t, []bool{true, true}, valid)
}

func TestRunSumAllNullGroup(t *testing.T) {
	mem := memory.NewGoAllocator()
	values := series.NewNullable("v", []int64{0, 0, 7}, []bool{false, false, true}, mem)

	_, aggTable := runOne(t, []int64{1, 1, 2}, values, Options{}, agg.NewSum())

	_, valid := int64Column(t, aggTable, "sum_v")
	assert.Equal(t, []bool{false, true}, valid)
}

func TestRunCounts(t *testing.T) {
	mem := memory.NewGoAllocator()
	values := series.NewNullable("v", []int64{10, 0, 5, 15, 0}, []bool{true, false, true, true, false}, mem)

	_, aggTable := runOne(t, []int64{1, 1, 2, 2, 2}, values, Options{},
		agg.NewCount(), agg.NewCountAll())

	countValid, _ := int64Column(t, aggTable, "count_v")
	assert.Equal(t, []int64{1, 2}, countValid)

	countAll, _ := int64Column(t, aggTable, "count_all_v")
	assert.Equal(t, []int64{2, 3}, countAll)
}

func TestRunMinMaxStrings(t *testing.T) {
	mem := memory.NewGoAllocator()
	values := series.New("name", []string{"pear", "apple", "fig", "kiwi"}, mem)

	_, aggTable := runOne(t, []int64{1, 1, 2, 2}, values, Options{},
		agg.NewMin(), agg.NewMax())

	minArr := column(t, aggTable, "min_name").Array()
	defer minArr.Release()
	maxArr := column(t, aggTable, "max_name").Array()
	defer maxArr.Release()

	assert.Equal(t, "apple", minArr.(*array.String).Value(0))
	assert.Equal(t, "pear", maxArr.(*array.String).Value(0))
	assert.Equal(t, "fig", minArr.(*array.String).Value(1))
	assert.Equal(t, "kiwi", maxArr.(*array.String).Value(1))
}

func TestRunMinSkipsNulls(t *testing.T) {
	mem := memory.NewGoAllocator()
	values := series.NewNullable("v", []int64{0, 5, 0}, []bool{false, true, false}, mem)

	_, aggTable := runOne(t, []int64{1, 1, 2}, values, Options{}, agg.NewMin())

	vals, valid := int64Column(t, aggTable, "min_v")
	assert.Equal(t, int64(5), vals[0])
	assert.Equal(t, []bool{true, false}, valid)
}

func TestRunMean(t *testing.T) {
	mem := memory.NewGoAllocator()
	values := series.New("v", []float64{1, 2, 3, 10}, mem)

	_, aggTable := runOne(t, []int64{1, 1, 1, 2}, values, Options{}, agg.NewMean())

	means, valid := float64Column(t, aggTable, "mean_v")
	assert.InDelta(t, 2.0, means[0], 1e-12)
	assert.InDelta(t, 10.0, means[1], 1e-12)
	assert.Equal(t, []bool{true, true}, valid)
}

func TestRunVariance(t *testing.T) {
	mem := memory.NewGoAllocator()
	values := series.New("v", []float64{1, 2, 3, 4, 4}, mem)

	_, aggTable := runOne(t, []int64{1, 1, 1, 2, 2}, values, Options{},
		agg.NewVariance(1), agg.NewStd(1))

	vars, valid := float64Column(t, aggTable, "var_v")
	require.Equal(t, []bool{true, true}, valid)
	assert.InDelta(t, 1.0, vars[0], 1e-12)
	assert.InDelta(t, 0.0, vars[1], 1e-12)

	stds, _ := float64Column(t, aggTable, "std_v")
	assert.InDelta(t, 1.0, stds[0], 1e-12)
}

func TestRunVarianceDegenerateDDof(t *testing.T) {
	mem := memory.NewGoAllocator()
	values := series.New("v", []float64{1, 2, 3}, mem)

	// Group sizes are 1 and 2; ddof=2 leaves no degrees of freedom in
	// either.
	_, aggTable := runOne(t, []int64{1, 2, 2}, values, Options{}, agg.NewVariance(2))

	_, valid := float64Column(t, aggTable, "var_v")
	assert.Equal(t, []bool{false, false}, valid)
}

func TestRunMedian(t *testing.T) {
	mem := memory.NewGoAllocator()
	values := series.New("v", []float64{10, 20, 30, 40, 7}, mem)

	_, aggTable := runOne(t, []int64{1, 1, 1, 1, 2}, values, Options{}, agg.NewMedian())

	medians, valid := float64Column(t, aggTable, "median_v")
	assert.InDelta(t, 25.0, medians[0], 1e-12)
	assert.InDelta(t, 7.0, medians[1], 1e-12)
	assert.Equal(t, []bool{true, true}, valid)
}

func TestRunQuantileInterpolations(t *testing.T) {
	// One group of [10, 20, 30, 40]: q=0.5 lands between ranks 1 and 2.
	cases := []struct {
		interp agg.Interpolation
		want   float64
	}{
		{agg.Linear, 25.0},
		{agg.Lower, 20.0},
		{agg.Higher, 30.0},
		{agg.Midpoint, 25.0},
		{agg.Nearest, 30.0},
	}

	for _, tc := range cases {
		t.Run(tc.interp.String(), func(t *testing.T) {
			mem := memory.NewGoAllocator()
			values := series.New("v", []float64{10, 20, 30, 40}, mem)

			_, aggTable := runOne(t, []int64{1, 1, 1, 1}, values, Options{},
				agg.NewQuantile([]float64{0.5}, tc.interp))

			got := quantileLists(t, aggTable, "quantile_v")
			require.Len(t, got, 1)
			require.Len(t, got[0], 1)
			assert.InDelta(t, tc.want, got[0][0], 1e-12)
		})
	}
}

func TestRunQuantileNearestRounding(t *testing.T) {
	// Ranks over [10, 20, 30, 40]: q=0.4 is rank 1.2, q=0.5 is rank 1.5
	// (a tie, rounds to the higher neighbor), q=0.6 is rank 1.8.
	cases := []struct {
		q    float64
		want float64
	}{
		{0.4, 20.0},
		{0.5, 30.0},
		{0.6, 30.0},
	}

	for _, tc := range cases {
		mem := memory.NewGoAllocator()
		values := series.New("v", []float64{10, 20, 30, 40}, mem)

		_, aggTable := runOne(t, []int64{1, 1, 1, 1}, values, Options{},
			agg.NewQuantile([]float64{tc.q}, agg.Nearest))

		got := quantileLists(t, aggTable, "quantile_v")
		require.Len(t, got, 1)
		assert.InDelta(t, tc.want, got[0][0], 1e-12, "q=%v", tc.q)
	}
}

func TestRunQuantileBoundsAreExtremes(t *testing.T) {
	mem := memory.NewGoAllocator()
	values := series.New("v", []float64{3, 1, 4, 1, 5}, mem)

	_, aggTable := runOne(t, []int64{1, 1, 1, 1, 1}, values, Options{},
		agg.NewQuantile([]float64{0, 1}, agg.Linear))

	got := quantileLists(t, aggTable, "quantile_v")
	require.Len(t, got, 1)
	assert.Equal(t, []float64{1, 5}, got[0])
}

func TestRunQuantileOrderPreserved(t *testing.T) {
	mem := memory.NewGoAllocator()
	values := series.New("v", []float64{10, 20, 30}, mem)

	// Quantiles come back in request order, not sorted.
	_, aggTable := runOne(t, []int64{1, 1, 1}, values, Options{},
		agg.NewQuantile([]float64{0.9, 0.1}, agg.Linear))

	got := quantileLists(t, aggTable, "quantile_v")
	require.Len(t, got, 1)
	require.Len(t, got[0], 2)
	assert.Greater(t, got[0][0], got[0][1])
}

// quantileLists decodes a list<float64> result column into per-group
// quantile slices; a null list decodes as nil.
func quantileLists(t *testing.T, df *dataframe.DataFrame, name string) [][]float64 {
	t.Helper()
	arr := column(t, df, name).Array()
	defer arr.Release()
	la, ok := arr.(*array.List)
	require.True(t, ok, "column %q is %T, want list", name, arr)

	vals := la.ListValues().(*array.Float64)
	offsets := la.Offsets()

	out := make([][]float64, la.Len())
	for i := 0; i < la.Len(); i++ {
		if la.IsNull(i) {
			continue
		}
		for j := offsets[i]; j < offsets[i+1]; j++ {
			out[i] = append(out[i], vals.Value(int(j)))
		}
	}
	return out
}

func TestRunNthElement(t *testing.T) {
	mem := memory.NewGoAllocator()
	vals := []int64{0, 20, 30, 5, 0}
	valid := []bool{false, true, true, true, false}

	t.Run("excluding nulls", func(t *testing.T) {
		values := series.NewNullable("v", vals, valid, mem)
		_, aggTable := runOne(t, []int64{1, 1, 1, 2, 2}, values, Options{},
			agg.NewNthElement(0, false))

		got, gotValid := int64Column(t, aggTable, "nth_v")
		// First valid value per group.
		assert.Equal(t, int64(20), got[0])
		assert.Equal(t, int64(5), got[1])
		assert.Equal(t, []bool{true, true}, gotValid)
	})

	t.Run("including nulls", func(t *testing.T) {
		values := series.NewNullable("v", vals, valid, mem)
		_, aggTable := runOne(t, []int64{1, 1, 1, 2, 2}, values, Options{},
			agg.NewNthElement(0, true))

		_, gotValid := int64Column(t, aggTable, "nth_v")
		// Position 0 of group 1 is a null slot; it is returned as null.
		assert.Equal(t, []bool{false, true}, gotValid)
	})

	t.Run("negative index", func(t *testing.T) {
		values := series.NewNullable("v", vals, valid, mem)
		_, aggTable := runOne(t, []int64{1, 1, 1, 2, 2}, values, Options{},
			agg.NewNthElement(-1, false))

		got, gotValid := int64Column(t, aggTable, "nth_v")
		// Last valid value per group.
		assert.Equal(t, int64(30), got[0])
		assert.Equal(t, int64(5), got[1])
		assert.Equal(t, []bool{true, true}, gotValid)
	})

	t.Run("out of bounds", func(t *testing.T) {
		values := series.NewNullable("v", vals, valid, mem)
		_, aggTable := runOne(t, []int64{1, 1, 1, 2, 2}, values, Options{},
			agg.NewNthElement(5, true))

		_, gotValid := int64Column(t, aggTable, "nth_v")
		assert.Equal(t, []bool{false, false}, gotValid)
	})
}

func TestRunAlias(t *testing.T) {
	mem := memory.NewGoAllocator()
	values := series.New("amount", []int64{1, 2}, mem)

	_, aggTable := runOne(t, []int64{1, 1}, values, Options{},
		agg.NewSum().As("total"))

	assert.True(t, aggTable.HasColumn("total"))
}

func TestRunSharedIntermediates(t *testing.T) {
	// Mean, variance and std on the same column: variance must reuse the
	// mean and std must equal sqrt(variance) bit for bit.
	mem := memory.NewGoAllocator()
	values := series.New("v", []float64{0.1, 0.2, 0.4, 0.8, 1.6}, mem)

	_, aggTable := runOne(t, []int64{1, 1, 1, 1, 1}, values, Options{},
		agg.NewMean(), agg.NewVariance(1), agg.NewStd(1))

	vars, _ := float64Column(t, aggTable, "var_v")
	stds, _ := float64Column(t, aggTable, "std_v")
	assert.Equal(t, math.Sqrt(vars[0]), stds[0])
}

func TestRunMultipleRequests(t *testing.T) {
	mem := memory.NewGoAllocator()
	keys := dataframe.New(series.New("key", []int64{1, 1, 2}, mem))
	defer keys.Release()

	amounts := series.New("amount", []int64{10, 20, 30}, mem)
	defer amounts.Release()
	prices := series.New("price", []float64{1.0, 2.0, 3.0}, mem)
	defer prices.Release()

	keyTable, aggTable, err := Run(keys, []Request{
		{Values: amounts, Aggs: []*agg.Aggregation{agg.NewSum(), agg.NewCount()}},
		{Values: prices, Aggs: []*agg.Aggregation{agg.NewMean()}},
	}, Options{}, mem)
	require.NoError(t, err)
	defer keyTable.Release()
	defer aggTable.Release()

	assert.Equal(t, 2, keyTable.Len())
	assert.Equal(t, []string{"sum_amount", "count_amount", "mean_price"}, aggTable.Columns())
	assert.Equal(t, keyTable.Len(), aggTable.Len())
}

func TestRunEmptyInput(t *testing.T) {
	mem := memory.NewGoAllocator()
	values := series.New("v", []int64{}, mem)

	keyTable, aggTable := runOne(t, []int64{}, values, Options{}, agg.NewSum())

	assert.Equal(t, 0, keyTable.Len())
	assert.Equal(t, 0, aggTable.Len())
	assert.True(t, aggTable.HasColumn("sum_v"))
}

func TestRunNullKeyPolicies(t *testing.T) {
	mem := memory.NewGoAllocator()
	keyVals := []int64{1, 0, 1}
	keyValid := []bool{true, false, true}

	run := func(opts Options) (*dataframe.DataFrame, *dataframe.DataFrame) {
		keys := dataframe.New(series.NewNullable("key", keyVals, keyValid, mem))
		t.Cleanup(keys.Release)
		values := series.New("v", []int64{10, 99, 20}, mem)
		t.Cleanup(values.Release)

		keyTable, aggTable, err := Run(keys, []Request{{Values: values, Aggs: []*agg.Aggregation{agg.NewSum()}}}, opts, mem)
		require.NoError(t, err)
		t.Cleanup(keyTable.Release)
		t.Cleanup(aggTable.Release)
		return keyTable, aggTable
	}

	t.Run("null keys grouped", func(t *testing.T) {
		keyTable, aggTable := run(Options{})
		assert.Equal(t, 2, keyTable.Len())
		sums, _ := int64Column(t, aggTable, "sum_v")
		assert.Equal(t, []int64{30, 99}, sums)

		keyCol := column(t, keyTable, "key").Array()
		defer keyCol.Release()
		assert.True(t, keyCol.IsNull(1))
	})

	t.Run("null keys dropped", func(t *testing.T) {
		keyTable, aggTable := run(Options{IgnoreNullKeys: true})
		assert.Equal(t, 1, keyTable.Len())
		sums, _ := int64Column(t, aggTable, "sum_v")
		assert.Equal(t, []int64{30}, sums)
	})
}

func TestRunValidationErrors(t *testing.T) {
	mem := memory.NewGoAllocator()

	t.Run("no keys", func(t *testing.T) {
		values := series.New("v", []int64{1}, mem)
		defer values.Release()
		_, _, err := Run(nil, []Request{{Values: values, Aggs: []*agg.Aggregation{agg.NewSum()}}}, Options{}, mem)
		assert.ErrorIs(t, err, errors.ErrEmptyKeys)
	})

	t.Run("nil values", func(t *testing.T) {
		keys := dataframe.New(series.New("key", []int64{1}, mem))
		defer keys.Release()
		_, _, err := Run(keys, []Request{{Aggs: []*agg.Aggregation{agg.NewSum()}}}, Options{}, mem)
		assert.ErrorIs(t, err, errors.ErrNilValues)
	})

	t.Run("length mismatch", func(t *testing.T) {
		keys := dataframe.New(series.New("key", []int64{1, 2}, mem))
		defer keys.Release()
		values := series.New("v", []int64{1}, mem)
		defer values.Release()
		_, _, err := Run(keys, []Request{{Values: values, Aggs: []*agg.Aggregation{agg.NewSum()}}}, Options{}, mem)
		require.Error(t, err)
		var engineErr *errors.EngineError
		assert.ErrorAs(t, err, &engineErr)
	})

	t.Run("list-typed key", func(t *testing.T) {
		listB := array.NewListBuilder(mem, arrow.PrimitiveTypes.Float64)
		defer listB.Release()
		listB.Append(true)
		listB.ValueBuilder().(*array.Float64Builder).Append(1.0)
		arr := listB.NewArray()
		defer arr.Release()

		keys := dataframe.New(series.NewFromArrow("key", arr))
		defer keys.Release()
		values := series.New("v", []int64{1}, mem)
		defer values.Release()
		_, _, err := Run(keys, []Request{{Values: values, Aggs: []*agg.Aggregation{agg.NewSum()}}}, Options{}, mem)
		require.Error(t, err)
		var engineErr *errors.EngineError
		require.ErrorAs(t, err, &engineErr)
		assert.Equal(t, "key", engineErr.Column)
	})

	t.Run("sum over strings", func(t *testing.T) {
		keys := dataframe.New(series.New("key", []int64{1}, mem))
		defer keys.Release()
		values := series.New("v", []string{"a"}, mem)
		defer values.Release()
		_, _, err := Run(keys, []Request{{Values: values, Aggs: []*agg.Aggregation{agg.NewSum()}}}, Options{}, mem)
		assert.Error(t, err)
	})

	t.Run("quantile out of range", func(t *testing.T) {
		keys := dataframe.New(series.New("key", []int64{1}, mem))
		defer keys.Release()
		values := series.New("v", []float64{1}, mem)
		defer values.Release()
		_, _, err := Run(keys, []Request{{Values: values, Aggs: []*agg.Aggregation{
			agg.NewQuantile([]float64{1.5}, agg.Linear),
		}}}, Options{}, mem)
		assert.Error(t, err)
	})
}
