package pagefile

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/rstar/blobstore"
	"github.com/hupe1980/rstar/node"
)

// HeaderBlob is the blob name of page 0 in a BlobPageStore.
const HeaderBlob = "HEADER"

// BlobPageStore keeps one blob per page. Page 0 is stored as HeaderBlob so
// that a commit store can intercept it.
type BlobPageStore struct {
	store  blobstore.BlobStore
	prefix string
}

// NewBlobPageStore stores pages under prefix in store.
func NewBlobPageStore(store blobstore.BlobStore, prefix string) *BlobPageStore {
	return &BlobPageStore{store: store, prefix: prefix}
}

// BlobName returns the blob name of page id.
func (s *BlobPageStore) BlobName(id node.PageID) string {
	if id == 0 {
		return s.prefix + HeaderBlob
	}
	return fmt.Sprintf("%spage-%010d", s.prefix, uint32(id))
}

func (s *BlobPageStore) ReadPage(ctx context.Context, id node.PageID) ([]byte, error) {
	data, err := blobstore.ReadAll(ctx, s.store, s.BlobName(id))
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, ErrPageNotFound
	}
	return data, err
}

func (s *BlobPageStore) WritePage(ctx context.Context, id node.PageID, frame []byte) error {
	return s.store.Put(ctx, s.BlobName(id), frame)
}

func (s *BlobPageStore) DeletePage(ctx context.Context, id node.PageID) error {
	return s.store.Delete(ctx, s.BlobName(id))
}

// Sync is a no-op: every Put is durable on return.
func (s *BlobPageStore) Sync(context.Context) error { return nil }

func (s *BlobPageStore) Close() error { return nil }
