// Package parallel provides the data-parallel execution substrate for the
// groupby engine.
//
// One logical engine operation is decomposed into many independent work
// items (group ranges for reduction kernels, whole aggregation requests for
// the dispatcher) executed by a pool of goroutines. Work items write to
// disjoint output regions and read only immutable inputs, so no locking is
// needed; a pool draining is the barrier between dependent pipeline stages.
package parallel

import (
	"context"
	"runtime"
	"sync"
)

// WorkerPool manages a pool of goroutines for parallel processing
type WorkerPool struct {
	numWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		numWorkers: numWorkers,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Close shuts down the worker pool
func (wp *WorkerPool) Close() {
	wp.cancel()
}

// ProcessIndexed executes work items in parallel while preserving order
func ProcessIndexed[T, R any](
	wp *WorkerPool,
	items []T,
	worker func(int, T) R,
) []R {
	if len(items) == 0 {
		return nil
	}

	itemCh := make(chan indexedItem[T], len(items))
	resultCh := make(chan indexedResult[R], len(items))

	var wg sync.WaitGroup
	for i := 0; i < wp.numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range itemCh {
				select {
				case <-wp.ctx.Done():
					return
				default:
					result := worker(item.index, item.value)
					resultCh <- indexedResult[R]{
						index:  item.index,
						result: result,
					}
				}
			}
		}()
	}

	go func() {
		defer close(itemCh)
		for i, item := range items {
			select {
			case <-wp.ctx.Done():
				return
			case itemCh <- indexedItem[T]{index: i, value: item}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// Collect results and maintain order
	results := make([]R, len(items))
	for result := range resultCh {
		results[result.index] = result.result
	}

	return results
}

// Range is a half-open [Start, End) span of group indices assigned to one
// work item.
type Range struct {
	Start int
	End   int
}

// Ranges splits [0, n) into chunks of at most chunkSize.
func Ranges(n, chunkSize int) []Range {
	if n <= 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = n
	}
	ranges := make([]Range, 0, (n+chunkSize-1)/chunkSize)
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		ranges = append(ranges, Range{Start: start, End: end})
	}
	return ranges
}

// ProcessRanges runs worker over [0, n) split into chunkSize spans. The
// worker receives a Range and must only touch output slots inside it, which
// keeps the fan-out lock-free.
func ProcessRanges(wp *WorkerPool, n, chunkSize int, worker func(Range)) {
	ranges := Ranges(n, chunkSize)
	if len(ranges) == 0 {
		return
	}
	if len(ranges) == 1 {
		worker(ranges[0])
		return
	}
	ProcessIndexed(wp, ranges, func(_ int, r Range) struct{} {
		worker(r)
		return struct{}{}
	})
}

// indexedItem holds an item with its index
type indexedItem[T any] struct {
	index int
	value T
}

// indexedResult holds a result with its index
type indexedResult[R any] struct {
	index  int
	result R
}
