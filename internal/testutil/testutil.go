// Package testutil provides shared helpers for building test tables and
// checking allocator hygiene.
package testutil

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/vireodata/vireo/internal/dataframe"
	"github.com/vireodata/vireo/internal/series"
)

// CheckedAllocator returns an allocator that fails the test on leaked
// allocations at cleanup.
func CheckedAllocator(t *testing.T) *memory.CheckedAllocator {
	t.Helper()
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	t.Cleanup(func() {
		mem.AssertSize(t, 0)
	})
	return mem
}

// Option configures the sample table builders.
type Option func(*cfg)

type cfg struct {
	rows      int
	withNulls bool
}

// WithRows sets the row count of a sample table.
func WithRows(n int) Option {
	return func(c *cfg) { c.rows = n }
}

// WithNulls makes every third value slot null.
func WithNulls() Option {
	return func(c *cfg) { c.withNulls = true }
}

// SalesTable builds a small sales table: region (string, cycling over
// three values), amount (int64) and price (float64). It is released at
// test cleanup.
func SalesTable(t *testing.T, mem memory.Allocator, opts ...Option) *dataframe.DataFrame {
	t.Helper()
	c := cfg{rows: 6}
	for _, opt := range opts {
		opt(&c)
	}

	regions := []string{"east", "west", "north"}
	regionCol := make([]string, c.rows)
	amountCol := make([]int64, c.rows)
	priceCol := make([]float64, c.rows)
	var valid []bool
	if c.withNulls {
		valid = make([]bool, c.rows)
	}
	for i := 0; i < c.rows; i++ {
		regionCol[i] = regions[i%len(regions)]
		amountCol[i] = int64((i + 1) * 10)
		priceCol[i] = float64(i) + 0.5
		if c.withNulls {
			valid[i] = i%3 != 2
		}
	}

	df := dataframe.New(
		series.New("region", regionCol, mem),
		series.NewNullable("amount", amountCol, valid, mem),
		series.NewNullable("price", priceCol, valid, mem),
	)
	t.Cleanup(df.Release)
	return df
}
