// Package resource limits the memory, concurrency and IO used by a page file.
//
//   - Memory: bytes held by cached page images (non-blocking, fail-fast)
//   - Workers: concurrent page write-backs during Flush
//   - IO: token bucket for bytes moved to and from the page store
//
// All methods are safe for concurrent use and a nil *Controller is a no-op,
// so callers can leave limits unset without nil checks.
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   64 << 20,
//	    MaxFlushWorkers:    4,
//	    IOLimitBytesPerSec: 100 << 20,
//	})
package resource
