package cache

import (
	"testing"

	"github.com/hupe1980/rstar/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_Basic(t *testing.T) {
	c := NewLRU[int, string](2, nil, nil)

	assert.Empty(t, c.Put(1, "a"))
	assert.Empty(t, c.Put(2, "b"))

	v, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, "a", v)

	// 2 is now least recently used.
	ev := c.Put(3, "c")
	require.Len(t, ev, 1)
	assert.Equal(t, 2, ev[0].Key)
	assert.Equal(t, "b", ev[0].Value)

	_, ok = c.Get(2)
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestLRU_ReplaceAndRemove(t *testing.T) {
	c := NewLRU[string, []byte](10, func(b []byte) int64 { return int64(len(b)) }, nil)

	c.Put("k", make([]byte, 4))
	c.Put("k", make([]byte, 6))
	assert.Equal(t, int64(6), c.Size())
	assert.Equal(t, 1, c.Len())

	v, ok := c.Remove("k")
	require.True(t, ok)
	assert.Len(t, v, 6)
	assert.Zero(t, c.Size())

	_, ok = c.Remove("k")
	assert.False(t, ok)
}

func TestLRU_OversizedEntryKept(t *testing.T) {
	c := NewLRU[int, []byte](4, func(b []byte) int64 { return int64(len(b)) }, nil)
	c.Put(1, make([]byte, 2))

	ev := c.Put(2, make([]byte, 8))
	require.Len(t, ev, 1)
	assert.Equal(t, 1, ev[0].Key)

	_, ok := c.Peek(2)
	assert.True(t, ok)
}

func TestLRU_ResourceController(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 10})
	c := NewLRU[int, []byte](100, func(b []byte) int64 { return int64(len(b)) }, rc)

	c.Put(1, make([]byte, 6))
	assert.Equal(t, int64(6), rc.MemoryUsage())

	// Global budget forces eviction of 1 even though local capacity allows it.
	ev := c.Put(2, make([]byte, 6))
	require.Len(t, ev, 1)
	assert.Equal(t, 1, ev[0].Key)
	assert.Equal(t, int64(6), rc.MemoryUsage())

	c.Purge()
	assert.Zero(t, rc.MemoryUsage())
	assert.Zero(t, c.Len())
}

func TestLRU_RangeOrder(t *testing.T) {
	c := NewLRU[int, int](10, nil, nil)
	for i := range 4 {
		c.Put(i, i*i)
	}
	c.Get(0)

	var keys []int
	c.Range(func(k, _ int) bool {
		keys = append(keys, k)
		return len(keys) < 3
	})
	assert.Equal(t, []int{0, 3, 2}, keys)
}
