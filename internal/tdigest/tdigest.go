// Package tdigest builds bounded-size approximate distribution summaries.
//
// A digest is an ordered list of (mean, weight) centroids plus the stream's
// min and max. Construction follows the merging strategy: inputs arrive
// sorted by value, cluster weight boundaries are generated from the k1
// scale function at a compression parameter delta, and every input falling
// inside one cluster's boundary is folded into a single centroid by
// weighted mean. No digest ever holds more than delta centroids, and
// centroid weights always sum exactly to the input weight.
package tdigest

import (
	"math"
)

// Centroid is one cluster of merged input values.
type Centroid struct {
	Mean   float64
	Weight float64
}

// TDigest summarizes a value distribution.
type TDigest struct {
	// Centroids are ordered by ascending mean with monotone non-decreasing
	// cumulative weight.
	Centroids []Centroid
	Min       float64
	Max       float64
}

// emptySentinelMin/Max mark a digest built from zero values. They are
// replaced by 0 when the digest is published into an output column.
var (
	emptySentinelMin = math.Inf(1)
	emptySentinelMax = math.Inf(-1)
)

// Empty reports whether the digest summarizes zero input weight.
func (t TDigest) Empty() bool {
	return len(t.Centroids) == 0
}

// TotalWeight returns the summed centroid weight.
func (t TDigest) TotalWeight() float64 {
	var w float64
	for _, c := range t.Centroids {
		w += c.Weight
	}
	return w
}

// OutputMin returns Min with the empty-digest sentinel scrubbed to 0.
func (t TDigest) OutputMin() float64 {
	if t.Empty() {
		return 0
	}
	return t.Min
}

// OutputMax returns Max with the empty-digest sentinel scrubbed to 0.
func (t TDigest) OutputMax() float64 {
	if t.Empty() {
		return 0
	}
	return t.Max
}

// FromSorted builds a digest from values sorted ascending, each with unit
// weight. An empty input yields an empty digest with sentinel min/max; the
// scale function is never evaluated for zero total weight.
func FromSorted(values []float64, delta int) TDigest {
	if len(values) == 0 {
		return TDigest{Min: emptySentinelMin, Max: emptySentinelMax}
	}

	total := float64(len(values))
	nearest := func(limit float64) float64 {
		// Snap a weight limit to the nearest input boundary; with unit
		// weights, boundary k carries cumulative weight k.
		w := math.Round(limit)
		if w < 1 {
			w = 1
		}
		if w > total {
			w = total
		}
		return w
	}

	limits := clusterLimits(total, delta, nearest)

	centroids := make([]Centroid, 0, len(limits))
	var sumV, sumW, cum float64
	ci := 0
	for _, v := range values {
		sumV += v
		sumW++
		cum++
		if ci < len(limits) && cum >= limits[ci] {
			centroids = append(centroids, Centroid{Mean: sumV / sumW, Weight: sumW})
			sumV, sumW = 0, 0
			ci++
		}
	}
	if sumW > 0 {
		centroids = append(centroids, Centroid{Mean: sumV / sumW, Weight: sumW})
	}

	return TDigest{
		Centroids: centroids,
		Min:       values[0],
		Max:       values[len(values)-1],
	}
}

// Quantile estimates the q-th quantile (q in [0,1]) by linear interpolation
// across the centroid means. Returns NaN for an empty digest.
func (t TDigest) Quantile(q float64) float64 {
	if t.Empty() {
		return math.NaN()
	}
	if q <= 0 {
		return t.Min
	}
	if q >= 1 {
		return t.Max
	}

	total := t.TotalWeight()
	target := q * total

	// Walk centroids tracking the cumulative weight at each centroid's
	// midpoint, interpolating between adjacent midpoints.
	var cum float64
	prevMid := 0.0
	prevMean := t.Min
	for _, c := range t.Centroids {
		mid := cum + c.Weight/2
		if target < mid {
			if mid == prevMid {
				return c.Mean
			}
			frac := (target - prevMid) / (mid - prevMid)
			return prevMean + frac*(c.Mean-prevMean)
		}
		cum += c.Weight
		prevMid = mid
		prevMean = c.Mean
	}

	last := t.Centroids[len(t.Centroids)-1]
	frac := (target - prevMid) / (total - prevMid)
	if math.IsNaN(frac) || frac > 1 {
		frac = 1
	}
	return last.Mean + frac*(t.Max-last.Mean)
}
