package rstar

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidTree wraps every structural violation reported by Validate.
var ErrInvalidTree = errors.New("invalid tree")

// Validate walks the whole tree and checks the structural invariants: all
// leaves on one level, every directory box containing its child, node
// sizes within capacity, non-root nodes at least minimally filled,
// uniform entry kinds and dimensions, and the object count. All violations found are returned together.
func (t *Tree) Validate(ctx context.Context) error {
	var (
		errs    []error
		objects int
	)
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidTree}, args...)...))
	}

	for v, err := range t.Walk(ctx) {
		if err != nil {
			return err
		}
		n, depth := v.Node, v.Path.Depth()

		if n.IsLeaf() != (depth == t.height-1) {
			fail("page %d: %s node at depth %d of a tree of height %d", n.PageID, n.Kind, depth, t.height)
		}
		if err := n.Validate(t.dim); err != nil {
			fail("%v", err)
		}
		if n.Overflows() {
			fail("page %d: %d entries exceed capacity %d", n.PageID, n.Len(), n.Capacity)
		}
		if depth > 0 {
			if n.Len() == 0 {
				fail("page %d: empty non-root node", n.PageID)
				continue
			}
			minFill := t.minDir
			if n.IsLeaf() {
				minFill = t.minLeaf
			}
			if n.Len() < minFill {
				fail("page %d: %d entries below minimum fill %d", n.PageID, n.Len(), minFill)
			}
			e := v.Entry()
			if e.Child != n.PageID {
				fail("page %d: reached through entry for page %d", n.PageID, e.Child)
			}
			if !e.MBR.Contains(n.MBR()) {
				fail("page %d: entry box %s does not contain node box %s", n.PageID, e.MBR, n.MBR())
			}
		}
		if n.IsLeaf() {
			objects += n.Len()
		}
	}
	if objects != t.size {
		fail("found %d objects, tree size is %d", objects, t.size)
	}
	return errors.Join(errs...)
}
