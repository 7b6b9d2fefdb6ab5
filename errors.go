package rstar

import (
	"errors"
	"fmt"

	"github.com/hupe1980/rstar/node"
	"github.com/hupe1980/rstar/query"
)

var (
	// ErrEmptyTree is returned by Extent on a tree without objects. Queries
	// on an empty tree return an empty result instead.
	ErrEmptyTree = errors.New("tree is empty")

	// ErrTreeNotEmpty is returned when bulk loading into a populated tree.
	ErrTreeNotEmpty = errors.New("tree is not empty")

	// ErrNoTree is returned by Open when the page file holds no tree.
	ErrNoTree = errors.New("page file holds no tree")

	// ErrTreeExists is returned by New when the page file already holds a tree.
	ErrTreeExists = errors.New("page file already holds a tree")

	// ErrNotFound is returned when an object is not in the tree.
	ErrNotFound = errors.New("object not found")

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = query.ErrInvalidK

	// ErrNonMetric is returned when a non-metric distance function is used
	// for an index query. Use the linear scan instead.
	ErrNonMetric = query.ErrNonMetric
)

// ErrDimensionMismatch indicates an object or query whose dimensionality
// disagrees with the tree.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrInvalidCapacity indicates a node capacity that is too small or does
// not fit into one page.
type ErrInvalidCapacity struct {
	Kind     node.Kind
	Capacity int
	Max      int // largest capacity the page size allows
}

func (e *ErrInvalidCapacity) Error() string {
	return fmt.Sprintf("invalid %s capacity %d: must be in [2, %d]", e.Kind, e.Capacity, e.Max)
}

// ErrInvalidDimension indicates an invalid configured dimension.
type ErrInvalidDimension struct {
	Dimension int
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}
