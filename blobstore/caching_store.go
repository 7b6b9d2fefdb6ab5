package blobstore

import (
	"context"
	"errors"
	"io"

	"github.com/hupe1980/rstar/internal/cache"
	"golang.org/x/sync/errgroup"
)

// CachingStore wraps a BlobStore and caches fixed-size blocks of read data.
type CachingStore struct {
	inner     BlobStore
	cache     cache.BlockCache
	blockSize int64
}

// NewCachingStore creates a new CachingStore.
// blockSize defaults to 4KB if <= 0.
func NewCachingStore(inner BlobStore, c cache.BlockCache, blockSize int64) *CachingStore {
	if blockSize <= 0 {
		blockSize = 4096
	}
	return &CachingStore{inner: inner, cache: c, blockSize: blockSize}
}

func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &cachingBlob{inner: b, cache: s.cache, name: name, blockSize: s.blockSize}, nil
}

// Put invalidates cached blocks of name before replacing it.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.cache.Invalidate(name + "@")
	return s.inner.Put(ctx, name, data)
}

func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.cache.Invalidate(name + "@")
	return s.inner.Delete(ctx, name)
}

func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

type cachingBlob struct {
	inner     Blob
	cache     cache.BlockCache
	name      string
	blockSize int64
}

func (b *cachingBlob) Close() error { return b.inner.Close() }

func (b *cachingBlob) Size() int64 { return b.inner.Size() }

func (b *cachingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if off >= b.Size() {
		return 0, io.EOF
	}

	startBlock := off / b.blockSize
	endBlock := (off + int64(len(p)) - 1) / b.blockSize

	blocks, err := b.fetch(ctx, startBlock, endBlock)
	if err != nil {
		return 0, err
	}

	total := 0
	for i, data := range blocks {
		blkStart := (startBlock + int64(i)) * b.blockSize
		lo := max(blkStart, off)
		hi := min(blkStart+int64(len(data)), off+int64(len(p)))
		if hi <= lo {
			continue
		}
		total += copy(p[lo-off:hi-off], data[lo-blkStart:hi-blkStart])
	}
	if total < len(p) {
		return total, io.EOF
	}
	return total, nil
}

// fetch returns blocks [start, end], reading contiguous runs of missing
// blocks from the inner blob with one request each.
func (b *cachingBlob) fetch(ctx context.Context, start, end int64) ([][]byte, error) {
	blocks := make([][]byte, end-start+1)

	type run struct{ start, count int64 }
	var missing []run
	for blk := start; blk <= end; blk++ {
		if data, ok := b.cache.Get(ctx, cache.BlockKey(b.name, blk*b.blockSize)); ok {
			blocks[blk-start] = data
			continue
		}
		if n := len(missing); n > 0 && missing[n-1].start+missing[n-1].count == blk {
			missing[n-1].count++
		} else {
			missing = append(missing, run{start: blk, count: 1})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(16)
	for _, r := range missing {
		g.Go(func() error {
			byteStart := r.start * b.blockSize
			size := min(r.count*b.blockSize, b.Size()-byteStart)
			if size <= 0 {
				return nil
			}
			buf := make([]byte, size)
			n, err := b.inner.ReadAt(gctx, buf, byteStart)
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			buf = buf[:n]
			for i := int64(0); i < r.count; i++ {
				lo := i * b.blockSize
				if lo >= int64(len(buf)) {
					break
				}
				hi := min(lo+b.blockSize, int64(len(buf)))
				// Copy so a cached block does not pin the whole run.
				blk := append([]byte(nil), buf[lo:hi]...)
				blocks[r.start-start+i] = blk
				b.cache.Set(gctx, cache.BlockKey(b.name, (r.start+i)*b.blockSize), blk)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return blocks, nil
}
