package pagefile

import (
	"errors"
	"fmt"

	"github.com/hupe1980/rstar/node"
)

var (
	// ErrPageNotFound is returned by stores for pages that were never written
	// or have been deleted.
	ErrPageNotFound = errors.New("pagefile: page not found")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("pagefile: closed")
	// ErrPageOverflow is returned when a node does not fit into one page.
	ErrPageOverflow = errors.New("pagefile: node does not fit in page")
	// ErrReadOnly is returned when writing to a read-only store.
	ErrReadOnly = errors.New("pagefile: store is read-only")
	// ErrInvalidPage is returned for the header page or unallocated ids.
	ErrInvalidPage = errors.New("pagefile: invalid page id")
)

// CorruptPageError reports page bytes that cannot be decoded into a node of
// the expected kind.
type CorruptPageError struct {
	PageID node.PageID
	Reason string
	cause  error
}

func (e *CorruptPageError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("pagefile: corrupt page %d: %s: %v", e.PageID, e.Reason, e.cause)
	}
	return fmt.Sprintf("pagefile: corrupt page %d: %s", e.PageID, e.Reason)
}

func (e *CorruptPageError) Unwrap() error { return e.cause }

func corrupt(id node.PageID, reason string, cause error) error {
	return &CorruptPageError{PageID: id, Reason: reason, cause: cause}
}
