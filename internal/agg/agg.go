// Package agg defines aggregation descriptors: the closed set of
// aggregation kinds the engine supports, plus their parameters (degrees of
// freedom, quantile lists, element index, t-digest compression). Descriptors
// are created by the caller per call and consumed immediately; they carry no
// state of their own.
package agg

import (
	"fmt"
	"strings"
)

// Kind identifies an aggregation function.
type Kind int

// Aggregation kinds.
const (
	Sum Kind = iota
	Min
	Max
	CountValid
	CountAll
	Mean
	Variance
	Std
	Median
	Quantile
	NthElement
	TDigest
	MergeTDigest
)

// String returns the canonical lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case Sum:
		return "sum"
	case Min:
		return "min"
	case Max:
		return "max"
	case CountValid:
		return "count"
	case CountAll:
		return "count_all"
	case Mean:
		return "mean"
	case Variance:
		return "var"
	case Std:
		return "std"
	case Median:
		return "median"
	case Quantile:
		return "quantile"
	case NthElement:
		return "nth"
	case TDigest:
		return "tdigest"
	case MergeTDigest:
		return "merge_tdigest"
	default:
		return "unknown"
	}
}

// Interpolation selects how fractional quantile ranks are resolved.
type Interpolation int

// Interpolation policies, matching standard percentile semantics.
const (
	Linear Interpolation = iota
	Lower
	Higher
	Midpoint
	Nearest
)

// String returns the canonical lower-case name of the policy.
func (ip Interpolation) String() string {
	switch ip {
	case Linear:
		return "linear"
	case Lower:
		return "lower"
	case Higher:
		return "higher"
	case Midpoint:
		return "midpoint"
	case Nearest:
		return "nearest"
	default:
		return "unknown"
	}
}

// Aggregation pairs a kind with its parameters.
type Aggregation struct {
	kind         Kind
	alias        string
	ddof         int
	quantiles    []float64
	interp       Interpolation
	n            int
	includeNulls bool
	delta        int
}

// NewSum requests a per-group sum over non-null values.
func NewSum() *Aggregation { return &Aggregation{kind: Sum} }

// NewMin requests a per-group minimum over non-null values.
func NewMin() *Aggregation { return &Aggregation{kind: Min} }

// NewMax requests a per-group maximum over non-null values.
func NewMax() *Aggregation { return &Aggregation{kind: Max} }

// NewCount requests a per-group count of non-null values.
func NewCount() *Aggregation { return &Aggregation{kind: CountValid} }

// NewCountAll requests a per-group row count, nulls included.
func NewCountAll() *Aggregation { return &Aggregation{kind: CountAll} }

// NewMean requests a per-group arithmetic mean over non-null values.
func NewMean() *Aggregation { return &Aggregation{kind: Mean} }

// NewVariance requests a per-group variance with the given delta degrees of
// freedom. Groups with size-ddof <= 0 yield null.
func NewVariance(ddof int) *Aggregation { return &Aggregation{kind: Variance, ddof: ddof} }

// NewStd requests a per-group standard deviation, sqrt of the variance with
// the given ddof.
func NewStd(ddof int) *Aggregation { return &Aggregation{kind: Std, ddof: ddof} }

// NewMedian requests the per-group median, equivalent to a linear quantile
// at q=0.5.
func NewMedian() *Aggregation { return &Aggregation{kind: Median} }

// NewQuantile requests per-group quantiles at each q in qs, resolved with
// the given interpolation policy. The output column holds one list per
// group, ordered as qs.
func NewQuantile(qs []float64, interp Interpolation) *Aggregation {
	return &Aggregation{kind: Quantile, quantiles: append([]float64(nil), qs...), interp: interp}
}

// NewNthElement requests the n-th value of each group. Negative n counts
// from the end, Python-style. When includeNulls is false, only valid values
// are counted.
func NewNthElement(n int, includeNulls bool) *Aggregation {
	return &Aggregation{kind: NthElement, n: n, includeNulls: includeNulls}
}

// NewTDigest requests a t-digest summary per group at the given compression
// parameter delta. delta <= 0 selects the configured default.
func NewTDigest(delta int) *Aggregation { return &Aggregation{kind: TDigest, delta: delta} }

// NewMergeTDigest requests re-compression of previously built t-digests,
// grouped by the outer key, at the given delta.
func NewMergeTDigest(delta int) *Aggregation { return &Aggregation{kind: MergeTDigest, delta: delta} }

// As sets an output column alias and returns the aggregation for chaining.
func (a *Aggregation) As(alias string) *Aggregation {
	a.alias = alias
	return a
}

// Kind returns the aggregation kind.
func (a *Aggregation) Kind() Kind { return a.kind }

// Alias returns the output alias, or "" when unset.
func (a *Aggregation) Alias() string { return a.alias }

// DDof returns the delta degrees of freedom for Variance/Std.
func (a *Aggregation) DDof() int { return a.ddof }

// Quantiles returns the requested quantile list.
func (a *Aggregation) Quantiles() []float64 { return a.quantiles }

// Interp returns the interpolation policy for Quantile.
func (a *Aggregation) Interp() Interpolation { return a.interp }

// N returns the requested element index for NthElement.
func (a *Aggregation) N() int { return a.n }

// IncludeNulls reports whether NthElement counts null slots.
func (a *Aggregation) IncludeNulls() bool { return a.includeNulls }

// Delta returns the t-digest compression parameter.
func (a *Aggregation) Delta() int { return a.delta }

// OrderInsensitive reports whether the aggregation's result does not depend
// on the order rows are visited within a group. Only order-insensitive
// aggregations are eligible for the hash-based grouping fast path.
func (a *Aggregation) OrderInsensitive() bool {
	switch a.kind {
	case Sum, Min, Max, CountValid, CountAll, Mean:
		return true
	default:
		return false
	}
}

// Signature is a stable cache key for deduplicating shared intermediate
// computations (e.g. the mean feeding a variance).
func (a *Aggregation) Signature() string {
	switch a.kind {
	case Variance, Std:
		return fmt.Sprintf("%s:%d", a.kind, a.ddof)
	case Quantile:
		parts := make([]string, len(a.quantiles))
		for i, q := range a.quantiles {
			parts[i] = fmt.Sprintf("%g", q)
		}
		return fmt.Sprintf("%s:%s:%s", a.kind, strings.Join(parts, ","), a.interp)
	case NthElement:
		return fmt.Sprintf("%s:%d:%t", a.kind, a.n, a.includeNulls)
	case TDigest, MergeTDigest:
		return fmt.Sprintf("%s:%d", a.kind, a.delta)
	default:
		return a.kind.String()
	}
}

// ResultName derives the output column name for a value column, honoring
// the alias when present.
func (a *Aggregation) ResultName(column string) string {
	if a.alias != "" {
		return a.alias
	}
	return fmt.Sprintf("%s_%s", a.kind, column)
}
