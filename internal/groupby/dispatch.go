package groupby

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/vireodata/vireo/internal/agg"
	"github.com/vireodata/vireo/internal/dataframe"
	"github.com/vireodata/vireo/internal/errors"
	"github.com/vireodata/vireo/internal/parallel"
)

// executor runs every aggregation of one request against one value column.
// Intermediate results (counts, means, sorted group values, variances) are
// cached by signature so compound aggregations decompose into simple ones
// computed exactly once: a variance's mean input is bit-identical to a
// separately requested mean, and median shares the gather+sort with any
// quantile request.
type executor struct {
	g                 *Grouping
	arr               arrow.Array
	colName           string
	mem               memory.Allocator
	pool              *parallel.WorkerPool
	parallelThreshold int
	chunkSize         int
	cache             map[string]any
}

type floatResult struct {
	vals  []float64
	valid []bool
}

func newExecutor(
	g *Grouping, arr arrow.Array, colName string, mem memory.Allocator,
	pool *parallel.WorkerPool, parallelThreshold, chunkSize int,
) *executor {
	return &executor{
		g:                 g,
		arr:               arr,
		colName:           colName,
		mem:               mem,
		pool:              pool,
		parallelThreshold: parallelThreshold,
		chunkSize:         chunkSize,
		cache:             make(map[string]any),
	}
}

// validateAggregation rejects unsupported (aggregation, value type)
// combinations before any kernel is dispatched. The error names both sides
// of the mismatch.
func validateAggregation(a *agg.Aggregation, dt arrow.DataType) error {
	switch a.Kind() {
	case agg.CountValid, agg.CountAll:
		return nil
	case agg.Min, agg.Max, agg.NthElement:
		if !isOrderable(dt) {
			return errors.NewUnsupportedAggregationError(a.Kind().String(), dt.String())
		}
		return nil
	case agg.Sum, agg.Mean, agg.Variance, agg.Std, agg.Median, agg.Quantile, agg.TDigest:
		if !isNumeric(dt) {
			return errors.NewUnsupportedAggregationError(a.Kind().String(), dt.String())
		}
		return nil
	case agg.MergeTDigest:
		if !arrow.TypeEqual(dt, digestType) {
			return errors.NewUnsupportedAggregationError(a.Kind().String(), dt.String())
		}
		return nil
	default:
		return errors.NewInvalidInputError("GroupBy", "unknown aggregation kind")
	}
}

// validateParams rejects malformed aggregation parameters.
func validateParams(a *agg.Aggregation) error {
	switch a.Kind() {
	case agg.Variance, agg.Std:
		if a.DDof() < 0 {
			return errors.NewInvalidInputError(a.Kind().String(), "ddof must be non-negative")
		}
	case agg.Quantile:
		if len(a.Quantiles()) == 0 {
			return errors.NewInvalidInputError("Quantile", "at least one quantile is required")
		}
		for _, q := range a.Quantiles() {
			if q < 0 || q > 1 {
				return errors.NewInvalidInputError("Quantile", "quantile must be in [0, 1]")
			}
		}
	}
	return nil
}

// run executes one aggregation and publishes its output column.
func (ex *executor) run(a *agg.Aggregation, delta int) (dataframe.ISeries, error) {
	if err := validateAggregation(a, ex.arr.DataType()); err != nil {
		return nil, err
	}
	if err := validateParams(a); err != nil {
		return nil, err
	}

	name := a.ResultName(ex.colName)

	switch a.Kind() {
	case agg.CountValid:
		return buildInt64Column(name, ex.counts(true), nil, ex.mem), nil

	case agg.CountAll:
		return buildInt64Column(name, ex.counts(false), nil, ex.mem), nil

	case agg.Sum:
		if isIntegral(ex.arr.DataType()) {
			vals, valid := ex.intSums()
			return buildInt64Column(name, vals, valid, ex.mem), nil
		}
		vals, valid := ex.floatSums()
		return buildFloat64Column(name, vals, valid, ex.mem), nil

	case agg.Min:
		return gatherColumn(name, ex.arr, argExtremum(ex, true), ex.mem)

	case agg.Max:
		return gatherColumn(name, ex.arr, argExtremum(ex, false), ex.mem)

	case agg.Mean:
		vals, valid := ex.means()
		return buildFloat64Column(name, vals, valid, ex.mem), nil

	case agg.Variance:
		vals, valid := ex.variance(a.DDof())
		return buildFloat64Column(name, vals, valid, ex.mem), nil

	case agg.Std:
		vals, valid := stdGroups(ex, a.DDof())
		return buildFloat64Column(name, vals, valid, ex.mem), nil

	case agg.Median:
		// Canonical median: a linear quantile at q=0.5.
		vals, valid := quantileGroups(ex.sorted(), []float64{0.5}, agg.Linear)
		return buildFloat64Column(name, vals, valid, ex.mem), nil

	case agg.Quantile:
		vals, valid := quantileGroups(ex.sorted(), a.Quantiles(), a.Interp())
		return buildQuantileColumn(name, vals, valid, len(a.Quantiles()), ex.mem), nil

	case agg.NthElement:
		return gatherColumn(name, ex.arr, nthRows(ex, a.N(), a.IncludeNulls()), ex.mem)

	case agg.TDigest:
		if a.Delta() > 0 {
			delta = a.Delta()
		}
		return buildDigestColumn(name, tdigestGroups(ex.sorted(), delta), ex.mem), nil

	case agg.MergeTDigest:
		if a.Delta() > 0 {
			delta = a.Delta()
		}
		entries, err := mergeTDigestGroups(ex, delta)
		if err != nil {
			return nil, err
		}
		return buildDigestColumn(name, entries, ex.mem), nil

	default:
		return nil, errors.NewInvalidInputError("GroupBy", "unknown aggregation kind")
	}
}

// Cached intermediates. Keys follow agg signatures so a compound request
// and its decomposed parts resolve to the same entry.

func (ex *executor) counts(validOnly bool) []int64 {
	key := "count_all"
	if validOnly {
		key = "count"
	}
	if v, ok := ex.cache[key]; ok {
		return v.([]int64)
	}
	out := countGroups(ex, validOnly)
	ex.cache[key] = out
	return out
}

func (ex *executor) intSums() ([]int64, []bool) {
	if v, ok := ex.cache["sum_int"]; ok {
		r := v.(struct {
			vals  []int64
			valid []bool
		})
		return r.vals, r.valid
	}
	vals, valid := sumInt64(ex)
	ex.cache["sum_int"] = struct {
		vals  []int64
		valid []bool
	}{vals, valid}
	return vals, valid
}

func (ex *executor) floatSums() ([]float64, []bool) {
	if v, ok := ex.cache["sum_float"]; ok {
		r := v.(floatResult)
		return r.vals, r.valid
	}
	vals, valid := sumFloat64(ex)
	ex.cache["sum_float"] = floatResult{vals, valid}
	return vals, valid
}

// means decomposes into sum/count: one float64 sum pass and one valid-count
// pass, recombined.
func (ex *executor) means() ([]float64, []bool) {
	if v, ok := ex.cache["mean"]; ok {
		r := v.(floatResult)
		return r.vals, r.valid
	}

	sums, sumsValid := ex.floatSums()
	counts := ex.counts(true)

	vals := make([]float64, len(sums))
	valid := make([]bool, len(sums))
	for i := range sums {
		if !sumsValid[i] || counts[i] == 0 {
			continue
		}
		vals[i] = sums[i] / float64(counts[i])
		valid[i] = true
	}

	ex.cache["mean"] = floatResult{vals, valid}
	return vals, valid
}

func (ex *executor) variance(ddof int) ([]float64, []bool) {
	key := agg.NewVariance(ddof).Signature()
	if v, ok := ex.cache[key]; ok {
		r := v.(floatResult)
		return r.vals, r.valid
	}
	vals, valid := varianceGroups(ex, ddof)
	ex.cache[key] = floatResult{vals, valid}
	return vals, valid
}

func (ex *executor) sorted() [][]float64 {
	if v, ok := ex.cache["sorted"]; ok {
		return v.([][]float64)
	}
	out := sortedGroupValues(ex)
	ex.cache["sorted"] = out
	return out
}
