package pagefile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/rstar/internal/cache"
	"github.com/hupe1980/rstar/node"
	"golang.org/x/sync/errgroup"
)

// HeaderPage is the reserved page holding the file header.
const HeaderPage node.PageID = 0

// Stats are cumulative page file counters.
type Stats struct {
	Reads      int64 // frames read from the store
	Writes     int64 // frames written to the store
	Hits       int64
	Misses     int64
	Evictions  int64
	WriteBacks int64 // dirty nodes written on eviction
	Spilled    int   // dirty nodes whose write-back failed, pending the next Flush
	Pages      int   // allocated node pages
	FreePages  int
	Cached     int
}

type cachedNode struct {
	n     *node.Node
	dirty bool
}

// PageFile is a cached, page-addressed node store. It is designed for a
// single writer; the internal lock only protects cache bookkeeping.
type PageFile struct {
	mu     sync.Mutex
	store  PageStore
	opts   Options
	logger *slog.Logger

	cache *cache.LRU[node.PageID, *cachedNode]
	// spill holds dirty nodes whose eviction write-back failed.
	spill map[node.PageID]*node.Node

	next        node.PageID
	free        *roaring.Bitmap
	meta        []byte
	headerDirty bool
	closed      bool

	reads, writes, evictions, writeBacks atomic.Int64
}

// Open loads the header from store, or initializes an empty file if the
// store has none.
func Open(ctx context.Context, store PageStore, optFns ...func(o *Options)) (*PageFile, error) {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.PageSize <= slotPrefix+frameHeaderSize+node.HeaderSize {
		return nil, fmt.Errorf("pagefile: page size %d too small", opts.PageSize)
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 1
	}
	if opts.FlushConcurrency <= 0 {
		opts.FlushConcurrency = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	pageSize := int64(opts.PageSize)
	pf := &PageFile{
		store:  store,
		opts:   opts,
		logger: opts.Logger,
		cache: cache.NewLRU[node.PageID, *cachedNode](
			int64(opts.CacheSize)*pageSize,
			func(*cachedNode) int64 { return pageSize },
			opts.Resource,
		),
		spill: make(map[node.PageID]*node.Node),
		next:  1,
		free:  roaring.New(),
	}

	frame, err := store.ReadPage(ctx, HeaderPage)
	switch {
	case errors.Is(err, ErrPageNotFound):
		pf.headerDirty = true
		return pf, nil
	case err != nil:
		return nil, fmt.Errorf("pagefile: read header: %w", err)
	}

	kind, raw, err := decodeFrame(HeaderPage, frame)
	if err != nil {
		return nil, err
	}
	if kind != kindHeader {
		return nil, corrupt(HeaderPage, fmt.Sprintf("frame kind %d is not a header", kind), nil)
	}
	h, free, err := decodeHeader(raw)
	if err != nil {
		return nil, corrupt(HeaderPage, "decode header", err)
	}
	if h.PageSize != opts.PageSize {
		return nil, fmt.Errorf("pagefile: file has page size %d, opened with %d", h.PageSize, opts.PageSize)
	}
	if h.NextPage == 0 {
		return nil, corrupt(HeaderPage, "next page id is 0", nil)
	}
	pf.next = node.PageID(h.NextPage)
	pf.free = free
	pf.meta = h.Meta

	pf.logger.Debug("pagefile opened", "next_page", h.NextPage, "free_pages", free.GetCardinality())
	return pf, nil
}

// PageSize returns the configured page size.
func (pf *PageFile) PageSize() int { return pf.opts.PageSize }

// PayloadBudget returns the largest uncompressed node payload that fits
// in one page, regardless of compression.
func (pf *PageFile) PayloadBudget() int {
	return pf.opts.PageSize - slotPrefix - frameHeaderSize
}

// Meta returns a copy of the client metadata stored in the header.
func (pf *PageFile) Meta() []byte {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	return slices.Clone(pf.meta)
}

// SetMeta replaces the client metadata. It is persisted by the next Flush.
func (pf *PageFile) SetMeta(meta []byte) {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	if bytes.Equal(pf.meta, meta) {
		return
	}
	pf.meta = slices.Clone(meta)
	pf.headerDirty = true
}

// Allocate returns an unused page id, preferring the lowest freed one.
func (pf *PageFile) Allocate(_ context.Context) (node.PageID, error) {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	if pf.closed {
		return 0, ErrClosed
	}
	pf.headerDirty = true
	if !pf.free.IsEmpty() {
		id := pf.free.Minimum()
		pf.free.Remove(id)
		return node.PageID(id), nil
	}
	if pf.next == ^node.PageID(0) {
		return 0, errors.New("pagefile: page ids exhausted")
	}
	id := pf.next
	pf.next++
	return id, nil
}

// IsAllocated reports whether id is a live node page.
func (pf *PageFile) IsAllocated(id node.PageID) bool {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	return pf.allocated(id)
}

func (pf *PageFile) allocated(id node.PageID) bool {
	return id != HeaderPage && id < pf.next && !pf.free.Contains(uint32(id))
}

// Read returns a private copy of the node stored at id. Capacity is not
// persisted and is zero on nodes decoded from the store.
func (pf *PageFile) Read(ctx context.Context, id node.PageID) (*node.Node, error) {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	if pf.closed {
		return nil, ErrClosed
	}
	if !pf.allocated(id) {
		return nil, fmt.Errorf("%w: read %d", ErrInvalidPage, id)
	}
	if c, ok := pf.cache.Get(id); ok {
		return c.n.Clone(), nil
	}
	if n, ok := pf.spill[id]; ok {
		return n.Clone(), nil
	}

	if err := pf.opts.Resource.AcquireIO(ctx, pf.opts.PageSize); err != nil {
		return nil, err
	}
	frame, err := pf.store.ReadPage(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("pagefile: read page %d: %w", id, err)
	}
	pf.reads.Add(1)

	n, err := decodeNode(id, frame)
	if err != nil {
		return nil, err
	}
	pf.insert(ctx, id, &cachedNode{n: n})
	return n.Clone(), nil
}

// ReadKind reads id and fails with a CorruptPageError if the node is not
// of the expected kind.
func (pf *PageFile) ReadKind(ctx context.Context, id node.PageID, kind node.Kind) (*node.Node, error) {
	n, err := pf.Read(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Kind != kind {
		return nil, corrupt(id, fmt.Sprintf("expected %s node, found %s", kind, n.Kind), nil)
	}
	return n, nil
}

func decodeNode(id node.PageID, frame []byte) (*node.Node, error) {
	kind, raw, err := decodeFrame(id, frame)
	if err != nil {
		return nil, err
	}
	n, err := node.Unmarshal(raw, 0)
	if err != nil {
		return nil, corrupt(id, "decode node", err)
	}
	if uint8(n.Kind) != kind {
		return nil, corrupt(id, fmt.Sprintf("frame kind %d disagrees with node kind %s", kind, n.Kind), nil)
	}
	if n.PageID != id {
		return nil, corrupt(id, fmt.Sprintf("node claims page %d", n.PageID), nil)
	}
	return n, nil
}

// Write replaces the node at n.PageID. The page must have been allocated.
// The node is copied; later changes to n do not affect the file.
func (pf *PageFile) Write(ctx context.Context, n *node.Node) error {
	return pf.WriteAll(ctx, n)
}

// WriteAll replaces several nodes at once. Every node is checked before
// any is cached, so on error none of them has been written.
//
// Writing may evict dirty nodes. A failed write-back does not fail the
// call: the victim is kept in memory and written by the next Flush.
func (pf *PageFile) WriteAll(ctx context.Context, nodes ...*node.Node) error {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	if pf.closed {
		return ErrClosed
	}
	for _, n := range nodes {
		if err := pf.checkWrite(n); err != nil {
			return err
		}
	}
	for _, n := range nodes {
		delete(pf.spill, n.PageID)
		pf.insert(ctx, n.PageID, &cachedNode{n: n.Clone(), dirty: true})
	}
	return nil
}

func (pf *PageFile) checkWrite(n *node.Node) error {
	if !pf.allocated(n.PageID) {
		return fmt.Errorf("%w: write %d", ErrInvalidPage, n.PageID)
	}
	if n.Kind != node.KindLeaf && n.Kind != node.KindDirectory {
		return fmt.Errorf("pagefile: write %d: unknown node kind %d", n.PageID, n.Kind)
	}
	dim := 0
	if len(n.Entries) > 0 {
		dim = n.Entries[0].MBR.Dim()
	}
	if size := node.EncodedSize(n.Kind, dim, len(n.Entries)); size > pf.PayloadBudget() {
		return fmt.Errorf("%w: page %d needs %d bytes, budget %d", ErrPageOverflow, n.PageID, size, pf.PayloadBudget())
	}
	return nil
}

// Free releases id for reuse and deletes its stored frame. A failed
// delete only leaves a stale frame behind; the page is free either way
// and its frame is replaced when the id is reused.
func (pf *PageFile) Free(ctx context.Context, id node.PageID) error {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	if pf.closed {
		return ErrClosed
	}
	if !pf.allocated(id) {
		return fmt.Errorf("%w: free %d", ErrInvalidPage, id)
	}
	pf.cache.Remove(id)
	delete(pf.spill, id)
	pf.free.Add(uint32(id))
	pf.headerDirty = true
	if err := pf.store.DeletePage(ctx, id); err != nil {
		pf.logger.Warn("pagefile delete frame", "page", id, "error", err)
	}
	return nil
}

// insert caches c and writes back dirty victims. Victims that cannot be
// written move to the spill map. Must hold mu.
func (pf *PageFile) insert(ctx context.Context, id node.PageID, c *cachedNode) {
	for _, ev := range pf.cache.Put(id, c) {
		pf.evictions.Add(1)
		if !ev.Value.dirty {
			continue
		}
		if err := pf.writeNode(ctx, ev.Value.n); err != nil {
			pf.spill[ev.Key] = ev.Value.n
			pf.logger.Warn("pagefile write-back deferred", "page", ev.Key, "error", err)
			continue
		}
		pf.writeBacks.Add(1)
		pf.logger.Debug("pagefile write-back", "page", ev.Key)
	}
}

func (pf *PageFile) encodeNode(n *node.Node) ([]byte, error) {
	dim := 0
	if len(n.Entries) > 0 {
		dim = n.Entries[0].MBR.Dim()
	}
	raw, err := node.Marshal(n, dim)
	if err != nil {
		return nil, err
	}
	return encodeFrame(uint8(n.Kind), raw, pf.opts.Compression)
}

func (pf *PageFile) writeNode(ctx context.Context, n *node.Node) error {
	frame, err := pf.encodeNode(n)
	if err != nil {
		return err
	}
	return pf.writeFrame(ctx, n.PageID, frame)
}

func (pf *PageFile) writeFrame(ctx context.Context, id node.PageID, frame []byte) error {
	if err := pf.opts.Resource.AcquireIO(ctx, len(frame)); err != nil {
		return err
	}
	if err := pf.store.WritePage(ctx, id, frame); err != nil {
		return err
	}
	pf.writes.Add(1)
	return nil
}

// Flush writes every dirty node and the header, then syncs the store.
func (pf *PageFile) Flush(ctx context.Context) error {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	if pf.closed {
		return ErrClosed
	}
	return pf.flush(ctx)
}

func (pf *PageFile) flush(ctx context.Context) error {
	var dirty []*cachedNode
	pf.cache.Range(func(_ node.PageID, c *cachedNode) bool {
		if c.dirty {
			dirty = append(dirty, c)
		}
		return true
	})
	for _, n := range pf.spill {
		dirty = append(dirty, &cachedNode{n: n, dirty: true})
	}
	// Deterministic write order.
	slices.SortFunc(dirty, func(a, b *cachedNode) int { return int(a.n.PageID) - int(b.n.PageID) })

	if len(dirty) == 0 && !pf.headerDirty {
		return nil
	}

	rc := pf.opts.Resource
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pf.opts.FlushConcurrency)
	for _, c := range dirty {
		g.Go(func() error {
			if err := rc.AcquireWorker(gctx); err != nil {
				return err
			}
			defer rc.ReleaseWorker()
			if err := pf.writeNode(gctx, c.n); err != nil {
				return fmt.Errorf("pagefile: flush page %d: %w", c.n.PageID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		pf.logger.Error("pagefile flush failed", "error", err)
		return err
	}
	for _, c := range dirty {
		c.dirty = false
		delete(pf.spill, c.n.PageID)
	}

	raw, err := encodeHeader(pf.opts.PageSize, uint32(pf.next), pf.free, pf.meta)
	if err != nil {
		return err
	}
	frame, err := encodeFrame(kindHeader, raw, pf.opts.Compression)
	if err != nil {
		return err
	}
	if mf, ok := pf.store.(MaxFramer); ok && len(frame) > mf.MaxFrameSize() {
		return fmt.Errorf("%w: header needs %d bytes", ErrPageOverflow, len(frame))
	}
	if err := pf.writeFrame(ctx, HeaderPage, frame); err != nil {
		return fmt.Errorf("pagefile: write header: %w", err)
	}
	if err := pf.store.Sync(ctx); err != nil {
		return fmt.Errorf("pagefile: sync: %w", err)
	}
	pf.headerDirty = false

	pf.logger.Info("pagefile flushed", "pages", len(dirty), "next_page", uint32(pf.next))
	return nil
}

// Close flushes and closes the store. Further calls return ErrClosed.
func (pf *PageFile) Close() error {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	if pf.closed {
		return ErrClosed
	}
	err := pf.flush(context.Background())
	pf.closed = true
	pf.cache.Purge()
	return errors.Join(err, pf.store.Close())
}

// NumPages returns the number of allocated node pages.
func (pf *PageFile) NumPages() int {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	return int(pf.next) - 1 - int(pf.free.GetCardinality())
}

// Stats returns a snapshot of the counters.
func (pf *PageFile) Stats() Stats {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	hits, misses := pf.cache.Stats()
	return Stats{
		Reads:      pf.reads.Load(),
		Writes:     pf.writes.Load(),
		Hits:       hits,
		Misses:     misses,
		Evictions:  pf.evictions.Load(),
		WriteBacks: pf.writeBacks.Load(),
		Pages:      int(pf.next) - 1 - int(pf.free.GetCardinality()),
		FreePages:  int(pf.free.GetCardinality()),
		Cached:     pf.cache.Len(),
		Spilled:    len(pf.spill),
	}
}
