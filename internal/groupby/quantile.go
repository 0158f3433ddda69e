package groupby

import (
	"math"

	"github.com/vireodata/vireo/internal/agg"
)

// quantileGroups computes, per group and per requested q in [0,1], the
// quantile of the group's non-null values under the chosen interpolation
// policy. The per-group value slices must already be sorted ascending;
// the kernel never re-sorts. Output is row-major: group 0's quantiles
// first, in the order qs were requested.
//
// Groups with no valid values produce null slots for every q.
func quantileGroups(groups [][]float64, qs []float64, interp agg.Interpolation) ([]float64, []bool) {
	out := make([]float64, len(groups)*len(qs))
	valid := make([]bool, len(groups)*len(qs))

	for gi, vals := range groups {
		base := gi * len(qs)
		if len(vals) == 0 {
			continue
		}
		for qi, q := range qs {
			out[base+qi] = quantileOfSorted(vals, q, interp)
			valid[base+qi] = true
		}
	}
	return out, valid
}

// quantileOfSorted resolves one quantile over a non-empty ascending slice.
// The target rank is r = q*(len-1); fractional ranks interpolate between
// floor(r) and ceil(r) per the policy.
func quantileOfSorted(vals []float64, q float64, interp agg.Interpolation) float64 {
	if q <= 0 {
		return vals[0]
	}
	if q >= 1 {
		return vals[len(vals)-1]
	}

	r := q * float64(len(vals)-1)
	lo := int(math.Floor(r))
	hi := int(math.Ceil(r))
	frac := r - float64(lo)

	switch interp {
	case agg.Lower:
		return vals[lo]
	case agg.Higher:
		return vals[hi]
	case agg.Midpoint:
		return vals[lo]/2 + vals[hi]/2
	case agg.Nearest:
		// A rank exactly halfway rounds to the higher neighbor, matching
		// round-half-away rounding of the (non-negative) rank.
		if frac >= 0.5 {
			return vals[hi]
		}
		return vals[lo]
	default: // agg.Linear
		return vals[lo] + frac*(vals[hi]-vals[lo])
	}
}
