package resource

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	require.NoError(t, c.AcquireMemory(50))
	require.NoError(t, c.AcquireMemory(40))
	assert.Equal(t, int64(90), c.MemoryUsage())

	err := c.AcquireMemory(20)
	assert.ErrorIs(t, err, ErrMemoryLimitExceeded)
	assert.Equal(t, int64(90), c.MemoryUsage())

	c.ReleaseMemory(50)
	require.NoError(t, c.AcquireMemory(20))
	assert.Equal(t, int64(60), c.MemoryUsage())
	assert.Equal(t, int64(100), c.MemoryLimit())
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{})

	require.NoError(t, c.AcquireMemory(1000))
	c.ReleaseMemory(500)
	assert.Equal(t, int64(500), c.MemoryUsage())
	assert.Equal(t, 1, c.FlushWorkers())
}

func TestController_Workers(t *testing.T) {
	c := NewController(Config{MaxFlushWorkers: 2})

	require.NoError(t, c.AcquireWorker(t.Context()))
	require.NoError(t, c.AcquireWorker(t.Context()))
	assert.False(t, c.TryAcquireWorker())

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, c.AcquireWorker(ctx))

	c.ReleaseWorker()
	assert.True(t, c.TryAcquireWorker())
}

func TestController_IO(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})

	require.NoError(t, c.AcquireIO(t.Context(), 1024))
	// Larger than the burst is split instead of rejected.
	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.AcquireIO(ctx, (1<<20)+1))

	var buf bytes.Buffer
	w := NewRateLimitedWriter(t.Context(), &buf, c)
	n, err := w.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestController_Nil(t *testing.T) {
	var c *Controller
	assert.NoError(t, c.AcquireMemory(10))
	c.ReleaseMemory(10)
	assert.Zero(t, c.MemoryUsage())
	assert.NoError(t, c.AcquireWorker(t.Context()))
	assert.True(t, c.TryAcquireWorker())
	c.ReleaseWorker()
	assert.NoError(t, c.AcquireIO(t.Context(), 1<<30))
	assert.True(t, c.TryAcquireIO(1))
}
