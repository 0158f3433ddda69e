package tdigest

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSortedWeightConservation(t *testing.T) {
	sizes := []int{1, 2, 10, 100, 10000}
	for _, n := range sizes {
		values := make([]float64, n)
		for i := range values {
			values[i] = float64(i)
		}

		d := FromSorted(values, 100)
		assert.InDelta(t, float64(n), d.TotalWeight(), 0,
			"weight must be conserved exactly for n=%d", n)
	}
}

func TestFromSortedCentroidBound(t *testing.T) {
	values := make([]float64, 50000)
	for i := range values {
		values[i] = rand.NormFloat64()
	}
	sort.Float64s(values)

	for _, delta := range []int{10, 100, 1000} {
		d := FromSorted(values, delta)
		assert.LessOrEqual(t, len(d.Centroids), delta,
			"centroid count must not exceed delta=%d", delta)
		assert.Greater(t, len(d.Centroids), 0)
	}
}

func TestFromSortedInvariants(t *testing.T) {
	values := make([]float64, 1000)
	for i := range values {
		values[i] = rand.Float64() * 100
	}
	sort.Float64s(values)

	d := FromSorted(values, 100)

	assert.Equal(t, values[0], d.Min)
	assert.Equal(t, values[len(values)-1], d.Max)

	// Centroids ordered by mean, weights positive.
	for i := 1; i < len(d.Centroids); i++ {
		assert.LessOrEqual(t, d.Centroids[i-1].Mean, d.Centroids[i].Mean)
	}
	for _, c := range d.Centroids {
		assert.Greater(t, c.Weight, 0.0)
		assert.GreaterOrEqual(t, c.Mean, d.Min)
		assert.LessOrEqual(t, c.Mean, d.Max)
	}
}

func TestFromSortedEmpty(t *testing.T) {
	d := FromSorted(nil, 100)

	assert.True(t, d.Empty())
	assert.Equal(t, 0.0, d.TotalWeight())
	assert.True(t, math.IsInf(d.Min, 1))
	assert.True(t, math.IsInf(d.Max, -1))

	// Published min/max scrub the sentinels.
	assert.Equal(t, 0.0, d.OutputMin())
	assert.Equal(t, 0.0, d.OutputMax())
}

func TestFromSortedSingleValue(t *testing.T) {
	d := FromSorted([]float64{42}, 100)

	require.Len(t, d.Centroids, 1)
	assert.Equal(t, 42.0, d.Centroids[0].Mean)
	assert.Equal(t, 1.0, d.Centroids[0].Weight)
	assert.Equal(t, 42.0, d.Min)
	assert.Equal(t, 42.0, d.Max)
}

func TestQuantileAccuracy(t *testing.T) {
	values := make([]float64, 100000)
	for i := range values {
		values[i] = float64(i)
	}

	d := FromSorted(values, 200)

	for _, q := range []float64{0.01, 0.25, 0.5, 0.75, 0.99} {
		exact := q * float64(len(values)-1)
		got := d.Quantile(q)
		// t-digest is approximate; allow 1% of range at mid quantiles.
		assert.InDelta(t, exact, got, float64(len(values))*0.01, "q=%v", q)
	}

	assert.Equal(t, 0.0, d.Quantile(0))
	assert.Equal(t, float64(len(values)-1), d.Quantile(1))
	assert.True(t, math.IsNaN(FromSorted(nil, 100).Quantile(0.5)))
}

func TestMergeWeightConservation(t *testing.T) {
	var digests []TDigest
	var totalN int
	for b := 0; b < 5; b++ {
		n := 1000 + b*100
		totalN += n
		values := make([]float64, n)
		for i := range values {
			values[i] = rand.NormFloat64() * float64(b+1)
		}
		sort.Float64s(values)
		digests = append(digests, FromSorted(values, 100))
	}

	merged := Merge(digests, 100)

	assert.InDelta(t, float64(totalN), merged.TotalWeight(), 1e-9)
	assert.LessOrEqual(t, len(merged.Centroids), 100)
}

func TestMergeMinMax(t *testing.T) {
	d1 := FromSorted([]float64{1, 2, 3}, 10)
	d2 := FromSorted([]float64{-5, 0, 10}, 10)
	empty := FromSorted(nil, 10)

	merged := Merge([]TDigest{d1, empty, d2}, 10)

	assert.Equal(t, -5.0, merged.Min)
	assert.Equal(t, 10.0, merged.Max)
}

func TestMergeAllEmpty(t *testing.T) {
	merged := Merge([]TDigest{FromSorted(nil, 10), FromSorted(nil, 10)}, 10)

	assert.True(t, merged.Empty())
	assert.Equal(t, 0.0, merged.OutputMin())
	assert.Equal(t, 0.0, merged.OutputMax())
}

func TestClusterLimitsMonotone(t *testing.T) {
	total := 1000.0
	nearest := func(limit float64) float64 {
		w := math.Round(limit)
		if w < 1 {
			w = 1
		}
		if w > total {
			w = total
		}
		return w
	}

	limits := clusterLimits(total, 50, nearest)

	require.NotEmpty(t, limits)
	assert.Equal(t, total, limits[len(limits)-1])
	for i := 1; i < len(limits); i++ {
		assert.Greater(t, limits[i], limits[i-1],
			"limits must be strictly increasing so no cluster is empty")
	}
	assert.LessOrEqual(t, len(limits), 50)
}

func TestClusterLimitsTinyStream(t *testing.T) {
	total := 3.0
	nearest := func(limit float64) float64 {
		w := math.Round(limit)
		if w < 1 {
			w = 1
		}
		if w > total {
			w = total
		}
		return w
	}

	// Every cluster receives at least one unit of weight even when delta
	// far exceeds the stream size.
	limits := clusterLimits(total, 1000, nearest)
	assert.LessOrEqual(t, len(limits), 3)
	assert.Equal(t, total, limits[len(limits)-1])
}
