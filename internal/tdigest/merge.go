package tdigest

import (
	"sort"
)

// Merge re-compresses several digests into one at the target delta. The
// input centroid streams are concatenated and ordered by mean, a new
// cumulative-weight curve is computed, cluster limits are regenerated, and
// the clusters are reduced by weighted mean. Min/max of the result is the
// min/max over the inputs' min/max, ignoring empty digests.
func Merge(digests []TDigest, delta int) TDigest {
	var centroids []Centroid
	minV, maxV := emptySentinelMin, emptySentinelMax
	for _, d := range digests {
		if d.Empty() {
			continue
		}
		centroids = append(centroids, d.Centroids...)
		if d.Min < minV {
			minV = d.Min
		}
		if d.Max > maxV {
			maxV = d.Max
		}
	}
	if len(centroids) == 0 {
		return TDigest{Min: emptySentinelMin, Max: emptySentinelMax}
	}

	sort.Slice(centroids, func(i, j int) bool {
		return centroids[i].Mean < centroids[j].Mean
	})

	// Cumulative-weight curve over the concatenated stream; cum[i] is the
	// weight up to and including centroid i.
	cum := make([]float64, len(centroids))
	run := 0.0
	for i, c := range centroids {
		run += c.Weight
		cum[i] = run
	}
	total := run

	nearest := func(limit float64) float64 {
		i := sort.SearchFloat64s(cum, limit)
		if i >= len(cum) {
			return cum[len(cum)-1]
		}
		if i > 0 && limit-cum[i-1] <= cum[i]-limit {
			return cum[i-1]
		}
		return cum[i]
	}

	limits := clusterLimits(total, delta, nearest)

	merged := make([]Centroid, 0, len(limits))
	var sumWM, sumW, seen float64
	ci := 0
	for _, c := range centroids {
		sumWM += c.Mean * c.Weight
		sumW += c.Weight
		seen += c.Weight
		if ci < len(limits) && seen >= limits[ci] {
			merged = append(merged, Centroid{Mean: sumWM / sumW, Weight: sumW})
			sumWM, sumW = 0, 0
			ci++
		}
	}
	if sumW > 0 {
		merged = append(merged, Centroid{Mean: sumWM / sumW, Weight: sumW})
	}

	return TDigest{Centroids: merged, Min: minV, Max: maxV}
}
