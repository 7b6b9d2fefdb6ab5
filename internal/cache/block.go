package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgraph-io/ristretto/v2"
)

// BlockCache is a byte-oriented cache for immutable blocks.
// Returned slices must be treated as read-only.
type BlockCache interface {
	// Get returns a cached block. ok=false if missing.
	Get(ctx context.Context, key string) (b []byte, ok bool)
	// Set caches a block. The caller must not modify b afterwards.
	Set(ctx context.Context, key string, b []byte)
	// Invalidate removes every block whose key starts with prefix.
	Invalidate(prefix string)
	// Close releases background workers.
	Close() error
	// Stats returns cache statistics.
	Stats() (hits, misses int64)
}

// BlockKey names the block at offset off of blob name.
func BlockKey(name string, off int64) string {
	return fmt.Sprintf("%s@%d", name, off)
}

// RistrettoBlockCache implements BlockCache on top of ristretto.
type RistrettoBlockCache struct {
	c *ristretto.Cache[string, []byte]
}

// NewRistrettoBlockCache creates a block cache holding up to maxBytes.
func NewRistrettoBlockCache(maxBytes int64) (*RistrettoBlockCache, error) {
	if maxBytes <= 0 {
		return nil, fmt.Errorf("cache: invalid block cache size %d", maxBytes)
	}
	// Ristretto recommends ~10 counters per expected item; assume 4 KiB blocks.
	counters := max(maxBytes/4096*10, 1000)
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: counters,
		MaxCost:     maxBytes,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}
	return &RistrettoBlockCache{c: c}, nil
}

// Get returns a cached block.
func (r *RistrettoBlockCache) Get(_ context.Context, key string) ([]byte, bool) {
	return r.c.Get(key)
}

// Set caches a block with its length as cost.
func (r *RistrettoBlockCache) Set(_ context.Context, key string, b []byte) {
	r.c.Set(key, b, int64(len(b)))
}

// Wait blocks until pending Sets are applied.
func (r *RistrettoBlockCache) Wait() { r.c.Wait() }

// Invalidate drops blocks for a key prefix. Ristretto cannot enumerate
// keys, so any non-empty prefix clears the whole cache.
func (r *RistrettoBlockCache) Invalidate(prefix string) {
	if strings.TrimSpace(prefix) == "" {
		return
	}
	r.c.Clear()
}

// Close stops the ristretto workers.
func (r *RistrettoBlockCache) Close() error {
	r.c.Close()
	return nil
}

// Stats returns hit and miss counts.
func (r *RistrettoBlockCache) Stats() (hits, misses int64) {
	m := r.c.Metrics
	if m == nil {
		return 0, 0
	}
	return int64(m.Hits()), int64(m.Misses())
}
