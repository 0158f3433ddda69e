package tdigest

import (
	"math"
)

// Cluster weight-limit generation.
//
// The generator runs as an explicit two-phase protocol: a sizing pass
// counts how many clusters the stream needs under the scale function, then
// a fill pass writes the actual cumulative-weight boundary of each cluster
// into a flat pre-sized buffer. Both passes execute the identical loop, so
// the fill can never outgrow the sizing.

// clusterLimits produces the cumulative-weight boundary of every cluster
// for a stream of the given total weight at compression delta. nearest
// snaps a proposed weight limit to the closest input boundary (a value
// index for raw input, a centroid boundary for merges) and returns that
// boundary's cumulative weight; snapping guarantees every generated cluster
// receives at least one input, so no empty "gap" clusters appear.
//
// total must be positive; callers guard the zero-weight case.
func clusterLimits(total float64, delta int, nearest func(limit float64) float64) []float64 {
	if delta < 1 {
		delta = 1
	}

	n := generateLimits(total, delta, nearest, nil)
	limits := make([]float64, n)
	generateLimits(total, delta, nearest, limits)
	return limits
}

// generateLimits walks the scale function from q=0 to q=1 emitting one
// cumulative-weight boundary per cluster. With a nil output slice it only
// counts (sizing pass); otherwise it fills out (fill pass).
func generateLimits(total float64, delta int, nearest func(limit float64) float64, out []float64) int {
	deltaNorm := float64(delta) / (2 * math.Pi)

	count := 0
	cur := 0.0
	for cur < total {
		next := total * nextLimitQuantile(cur/total, deltaNorm)
		if next <= cur {
			// Degenerate step near the tails: force progress by one unit
			// of weight.
			next = cur + 1
		}

		w := nearest(next)
		if w <= cur {
			// The nearest boundary was already consumed by the previous
			// cluster; widen this limit so the cluster still receives at
			// least one input.
			w = nearest(cur + 1)
		}
		if w <= cur || w > total {
			w = total
		}

		if count == delta-1 && w < total {
			// Compression bound: the final permitted cluster absorbs the
			// remainder of the stream.
			w = total
		}

		if out != nil {
			out[count] = w
		}
		count++
		cur = w
	}
	return count
}

// nextLimitQuantile advances one cluster step through the k1 scale
// function: k(q) = deltaNorm * asin(2q-1), stepped by one and inverted.
// The mapping concentrates clusters where cumulative weight accumulates
// fastest, around the middle of the distribution.
func nextLimitQuantile(q float64, deltaNorm float64) float64 {
	k := deltaNorm * math.Asin(2*q-1)
	k++
	kMax := deltaNorm * (math.Pi / 2)
	if k >= kMax {
		return 1
	}
	return (math.Sin(k/deltaNorm) + 1) / 2
}
