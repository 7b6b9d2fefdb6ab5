// Package blobstore provides the object storage abstraction behind the
// blob-backed page store.
//
// Each tree page is one blob. BlobStore is deliberately small so that local
// disks, MinIO and S3 can all serve it:
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// # Implementations
//
//   - MemoryStore: in-process, for tests
//   - LocalStore: a directory on the local filesystem, reads via mmap
//   - CachingStore: wraps another store with a block cache for remote reads
//   - minio.Store and s3.Store: S3-compatible object storage
//
// Implementations must be safe for concurrent use. Missing blobs are
// reported with an error satisfying errors.Is(err, ErrNotFound).
package blobstore
