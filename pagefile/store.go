package pagefile

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/hupe1980/rstar/node"
)

// PageStore persists page frames by id. Page 0 holds the file header.
// Implementations need not be safe for concurrent mutation of one page, but
// Flush writes distinct pages concurrently.
type PageStore interface {
	// ReadPage returns the frame stored for id, or ErrPageNotFound.
	ReadPage(ctx context.Context, id node.PageID) ([]byte, error)
	// WritePage stores frame for id, replacing any previous frame.
	WritePage(ctx context.Context, id node.PageID, frame []byte) error
	// DeletePage drops id. Deleting an absent page is not an error.
	DeletePage(ctx context.Context, id node.PageID) error
	// Sync makes prior writes durable.
	Sync(ctx context.Context) error
	Close() error
}

// MaxFramer is implemented by stores with a fixed slot size.
type MaxFramer interface {
	// MaxFrameSize returns the largest frame that fits in one page.
	MaxFrameSize() int
}

// MemoryStore is an in-memory PageStore.
type MemoryStore struct {
	mu    sync.RWMutex
	pages map[node.PageID][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pages: make(map[node.PageID][]byte)}
}

func (m *MemoryStore) ReadPage(_ context.Context, id node.PageID) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	frame, ok := m.pages[id]
	if !ok {
		return nil, ErrPageNotFound
	}
	return slices.Clone(frame), nil
}

func (m *MemoryStore) WritePage(_ context.Context, id node.PageID, frame []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pages[id] = slices.Clone(frame)
	return nil
}

func (m *MemoryStore) DeletePage(_ context.Context, id node.PageID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.pages, id)
	return nil
}

func (m *MemoryStore) Sync(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

// PageIDs returns the stored page ids in ascending order.
func (m *MemoryStore) PageIDs() []node.PageID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.pages))
}

// Corrupt flips one byte of a stored frame. Tests use it to simulate media
// errors.
func (m *MemoryStore) Corrupt(id node.PageID, off int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	frame, ok := m.pages[id]
	if !ok || off >= len(frame) {
		return false
	}
	frame[off] ^= 0xFF
	return true
}
