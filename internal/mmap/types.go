package mmap

import "errors"

// AccessPattern is a hint to the kernel about how pages will be read.
type AccessPattern int

const (
	// AccessDefault is the default access pattern (no specific advice).
	AccessDefault AccessPattern = iota
	// AccessSequential suits full scans such as Validate or breadth-first walks.
	AccessSequential
	// AccessRandom suits point lookups during queries.
	AccessRandom
	// AccessWillNeed prefetches.
	AccessWillNeed
	// AccessDontNeed releases pages.
	AccessDontNeed
)

var (
	// ErrClosed is returned when attempting to access a closed mapping.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned when the file size is negative or too large.
	ErrInvalidSize = errors.New("mmap: invalid file size")
	// ErrOutOfBounds is returned when attempting to access a region outside the mapping.
	ErrOutOfBounds = errors.New("mmap: out of bounds")
	// ErrInvalidOffset is returned when the offset is negative.
	ErrInvalidOffset = errors.New("mmap: invalid offset")
)
