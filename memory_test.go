package vireo

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type releaseRecorder struct {
	released *[]int
	id       int
}

func (r releaseRecorder) Release() {
	*r.released = append(*r.released, r.id)
}

func TestMemoryManagerReleasesInReverseOrder(t *testing.T) {
	var released []int
	m := NewMemoryManager(nil)
	m.Track(releaseRecorder{&released, 1})
	m.Track(releaseRecorder{&released, 2})
	m.Track(releaseRecorder{&released, 3})
	m.Track(nil)

	m.ReleaseAll()
	assert.Equal(t, []int{3, 2, 1}, released)

	// A second release pass is a no-op.
	m.ReleaseAll()
	assert.Len(t, released, 3)
}

func TestWithMemoryManager(t *testing.T) {
	mem := memory.NewGoAllocator()

	var released []int
	err := WithMemoryManager(mem, func(m *MemoryManager) error {
		assert.Same(t, mem, m.Allocator())
		m.Track(releaseRecorder{&released, 1})

		df := NewDataFrame(NewSeries("v", []int64{1, 2, 3}, m.Allocator()))
		m.Track(df)

		result, err := df.GroupBy("v").Agg(Count("v"))
		require.NoError(t, err)
		m.Track(result)
		assert.Equal(t, 3, result.Len())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, released)
}
