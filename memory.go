package vireo

import (
	"sync"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Releasable is any resource backed by Arrow memory that must be released
// when no longer needed: DataFrames, Series, and groupby results all
// implement it.
type Releasable interface {
	Release()
}

// MemoryManager tracks resources and releases them in bulk. Prefer plain
// defer for straightforward lifetimes; the manager is for loops and fan-out
// code that creates many short-lived frames. Safe for concurrent use.
type MemoryManager struct {
	allocator memory.Allocator
	resources []Releasable
	mu        sync.Mutex
}

// NewMemoryManager creates a manager that allocates from allocator.
func NewMemoryManager(allocator memory.Allocator) *MemoryManager {
	if allocator == nil {
		allocator = memory.NewGoAllocator()
	}
	return &MemoryManager{allocator: allocator}
}

// Allocator returns the manager's allocator.
func (m *MemoryManager) Allocator() memory.Allocator {
	return m.allocator
}

// Track registers a resource for release. Tracking order is release order
// reversed (LIFO), matching defer semantics.
func (m *MemoryManager) Track(r Releasable) {
	if r == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources = append(m.resources, r)
}

// ReleaseAll releases every tracked resource and clears the manager.
func (m *MemoryManager) ReleaseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.resources) - 1; i >= 0; i-- {
		m.resources[i].Release()
	}
	m.resources = nil
}

// WithMemoryManager runs fn with a manager and releases everything it
// tracked afterwards, even when fn returns an error.
func WithMemoryManager(allocator memory.Allocator, fn func(*MemoryManager) error) error {
	m := NewMemoryManager(allocator)
	defer m.ReleaseAll()
	return fn(m)
}
