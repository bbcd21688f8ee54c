package quotenumber

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCounter mimics the locked counter row: seed on first use, then
// increment under a mutex.
type memCounter struct {
	mu     sync.Mutex
	value  int64
	seeded bool
}

func (c *memCounter) Next(start int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.seeded {
		c.value = start
		c.seeded = true
	}
	c.value++
	return c.value, nil
}

func startAt(n int64) func() int64 {
	return func() int64 { return n }
}

func TestAllocatorFirstValueIsStartPlusOne(t *testing.T) {
	a := NewAllocator(&memCounter{}, startAt(1000))

	n, err := a.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(1001), n)

	n, err = a.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(1002), n)
}

func TestAllocatorReadsStartPerAllocation(t *testing.T) {
	start := int64(100)
	a := NewAllocator(&memCounter{}, func() int64 { return start })

	// A settings change before the first allocation takes effect.
	start = 5000

	n, err := a.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(5001), n)
}

func TestAllocatorConcurrentAllocationsAreUnique(t *testing.T) {
	a := NewAllocator(&memCounter{}, startAt(0))

	const workers = 50
	results := make(chan int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := a.Next()
			assert.NoError(t, err)
			results <- n
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool, workers)
	for n := range results {
		assert.False(t, seen[n], "quote number %d allocated twice", n)
		seen[n] = true
	}
	assert.Len(t, seen, workers)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "QF-1042", Format("QF-", 1042))
	assert.Equal(t, "1042", Format("", 1042))
}
