package groupby

import (
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/vireodata/vireo/internal/agg"
	"github.com/vireodata/vireo/internal/config"
	"github.com/vireodata/vireo/internal/dataframe"
	"github.com/vireodata/vireo/internal/errors"
	"github.com/vireodata/vireo/internal/logging"
	"github.com/vireodata/vireo/internal/parallel"
)

// Options controls key handling for one groupby run.
type Options struct {
	// IgnoreNullKeys drops rows whose key columns are all null instead of
	// forming a group for them (Pandas-style). The default keeps them
	// (SQL-style).
	IgnoreNullKeys bool

	// KeysAreSorted declares the key columns already key-ordered, which
	// skips the sort and runs boundary detection directly. Grouping output
	// is undefined if the declaration is wrong.
	KeysAreSorted bool

	// Ascending gives the sort direction per key column. Nil means all
	// ascending.
	Ascending []bool

	// NullOrder places null keys before or after values within a column's
	// ordering. Defaults to NullsLargest.
	NullOrder NullOrder
}

// Request pairs one value column with the aggregations to run over it.
type Request struct {
	Values dataframe.ISeries
	Aggs   []*agg.Aggregation
}

// Run groups the key table's rows and evaluates every request against the
// resulting groups. It returns two frames of equal length, one row per
// group: the unique key table (in key sort order) and the aggregated value
// columns, named per aggregation.
func Run(keys *dataframe.DataFrame, requests []Request, opts Options, mem memory.Allocator) (*dataframe.DataFrame, *dataframe.DataFrame, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	if err := validateRequests(keys, requests); err != nil {
		return nil, nil, err
	}

	cfg := config.GetGlobalConfig()

	cmp, err := newComparator(keys, opts.Ascending, opts.NullOrder)
	if err != nil {
		return nil, nil, err
	}
	defer cmp.release()

	numRows := keys.Len()
	g := group(cmp, numRows, opts, requests, cfg)

	if logging.DebugEnabled {
		logging.Debugf("groupby: %d rows, %d keys, %d requests, %d groups",
			numRows, keys.Width(), len(requests), g.NumGroups())
	}

	keyTable, err := buildKeyTable(keys, g, mem)
	if err != nil {
		return nil, nil, err
	}

	aggTable, err := runRequests(g, requests, cfg, mem)
	if err != nil {
		keyTable.Release()
		return nil, nil, err
	}
	return keyTable, aggTable, nil
}

func validateRequests(keys *dataframe.DataFrame, requests []Request) error {
	if keys == nil || keys.Width() == 0 {
		return errors.ErrEmptyKeys
	}
	if err := keys.ValidateEqualLengths("GroupBy"); err != nil {
		return err
	}
	for _, req := range requests {
		if req.Values == nil {
			return errors.ErrNilValues
		}
		if req.Values.Len() != keys.Len() {
			return errors.NewLengthMismatchError("GroupBy", req.Values.Name(), keys.Len(), req.Values.Len())
		}
		if len(req.Aggs) == 0 {
			return errors.NewInvalidInputError("GroupBy", "request carries no aggregations")
		}
	}
	return nil
}

// group picks the grouping strategy. Hashing skips the O(n log n) key sort
// but loses within-group row order, so it only applies when every requested
// aggregation is order-insensitive and the caller did not declare the keys
// presorted.
func group(cmp *comparator, numRows int, opts Options, requests []Request, cfg config.Config) *Grouping {
	if cfg.HashGroupingEnabled && !opts.KeysAreSorted && allOrderInsensitive(requests) {
		return hashGroup(cmp, numRows, opts)
	}
	return sortGroup(cmp, numRows, opts)
}

func allOrderInsensitive(requests []Request) bool {
	for _, req := range requests {
		for _, a := range req.Aggs {
			if !a.OrderInsensitive() {
				return false
			}
		}
	}
	return true
}

// requestResult is the fan-in unit of the per-request parallel pass.
type requestResult struct {
	columns []dataframe.ISeries
	err     error
}

// runRequests evaluates every request, fanning requests out across the
// worker pool when there are enough of them. Aggregations within one
// request stay sequential so they share the executor's intermediate cache.
func runRequests(g *Grouping, requests []Request, cfg config.Config, mem memory.Allocator) (*dataframe.DataFrame, error) {
	pool := parallel.NewWorkerPool(cfg.EffectiveWorkers())
	defer pool.Close()

	threshold := cfg.ParallelThreshold
	chunk := cfg.EffectiveChunkSize(g.NumGroups())

	var results []requestResult
	if len(requests) > 1 {
		results = parallel.ProcessIndexed(pool, requests, func(_ int, req Request) requestResult {
			return runRequest(g, req, nil, threshold, chunk, cfg.TDigestDelta, mem)
		})
	} else {
		results = make([]requestResult, len(requests))
		for i, req := range requests {
			results[i] = runRequest(g, req, pool, threshold, chunk, cfg.TDigestDelta, mem)
		}
	}

	var columns []dataframe.ISeries
	var firstErr error
	for _, res := range results {
		if res.err != nil && firstErr == nil {
			firstErr = res.err
		}
		columns = append(columns, res.columns...)
	}
	if firstErr != nil {
		for _, col := range columns {
			col.Release()
		}
		return nil, firstErr
	}
	return dataframe.New(columns...), nil
}

func runRequest(g *Grouping, req Request, pool *parallel.WorkerPool, threshold, chunk, delta int, mem memory.Allocator) requestResult {
	arr := req.Values.Array()
	defer arr.Release()

	ex := newExecutor(g, arr, req.Values.Name(), mem, pool, threshold, chunk)
	columns := make([]dataframe.ISeries, 0, len(req.Aggs))
	for _, a := range req.Aggs {
		col, err := ex.run(a, delta)
		if err != nil {
			for _, c := range columns {
				c.Release()
			}
			return requestResult{err: err}
		}
		columns = append(columns, col)
	}
	return requestResult{columns: columns}
}

// Grouped exposes the grouping alone, without running aggregations: the
// key sort order, group offsets and labels. Callers own the returned
// Grouping for the lifetime of the keys frame.
func Grouped(keys *dataframe.DataFrame, opts Options) (*Grouping, error) {
	cmp, err := newComparator(keys, opts.Ascending, opts.NullOrder)
	if err != nil {
		return nil, err
	}
	defer cmp.release()
	return sortGroup(cmp, keys.Len(), opts), nil
}
