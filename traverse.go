package rstar

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/hupe1980/rstar/node"
	"github.com/hupe1980/rstar/spatial"
)

// PathStep is one edge of a path from the root: the entry followed and its
// position in the containing node. The root step has Index -1.
type PathStep struct {
	Index int
	Entry node.Entry
}

// Path leads from the root to an entry. The last step names the entry the
// path points at.
type Path []PathStep

// Last returns the final step.
func (p Path) Last() PathStep { return p[len(p)-1] }

// Depth returns the number of steps below the root.
func (p Path) Depth() int { return len(p) - 1 }

// Child returns a new path extended by one step. p is not modified.
func (p Path) Child(index int, e node.Entry) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, PathStep{Index: index, Entry: e})
}

// Parent returns the path without its last step.
func (p Path) Parent() Path { return p[:len(p)-1] }

func (p Path) String() string {
	var sb strings.Builder
	for i, s := range p {
		if i > 0 {
			sb.WriteByte('/')
		}
		if s.Index < 0 {
			fmt.Fprintf(&sb, "root(%d)", s.Entry.Child)
			continue
		}
		fmt.Fprintf(&sb, "%d", s.Index)
	}
	return sb.String()
}

// Visit is one node produced by a traversal, reached through Path.
type Visit struct {
	Path Path
	Node *node.Node
}

// Entry returns the directory entry that points at the visited node.
func (v Visit) Entry() node.Entry { return v.Path.Last().Entry }

// RootPath returns the path to the root node.
func (t *Tree) RootPath(ctx context.Context) (Path, error) {
	e, err := t.RootEntry(ctx)
	if err != nil {
		return nil, err
	}
	return Path{{Index: -1, Entry: e}}, nil
}

// levelOf returns the level of the node a directory path points at.
func (t *Tree) levelOf(p Path) int { return t.height - p.Depth() }

// BreadthFirst lazily yields the nodes of the subtree at start in
// breadth-first order. The sequence is single-pass; stopping the range
// loop stops the traversal. A read error is yielded once and ends the
// sequence.
func (t *Tree) BreadthFirst(ctx context.Context, start Path) iter.Seq2[Visit, error] {
	return func(yield func(Visit, error) bool) {
		queue := []Path{start}
		for len(queue) > 0 {
			p := queue[0]
			queue = queue[1:]

			if err := ctx.Err(); err != nil {
				yield(Visit{}, err)
				return
			}
			e := p.Last().Entry
			if e.IsLeaf() {
				yield(Visit{}, fmt.Errorf("rstar: path %s points at object %d, not a node", p, e.ID))
				return
			}
			n, err := t.readNode(ctx, e.Child, t.levelOf(p))
			if err != nil {
				yield(Visit{}, err)
				return
			}
			if !yield(Visit{Path: p, Node: n}, nil) {
				return
			}
			if n.IsLeaf() {
				continue
			}
			for i, child := range n.Entries {
				queue = append(queue, p.Child(i, child))
			}
		}
	}
}

// Walk is BreadthFirst from the root.
func (t *Tree) Walk(ctx context.Context) iter.Seq2[Visit, error] {
	return func(yield func(Visit, error) bool) {
		root, err := t.RootPath(ctx)
		if err != nil {
			yield(Visit{}, err)
			return
		}
		for v, err := range t.BreadthFirst(ctx, root) {
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}

// NodeCounts are per-kind node totals.
type NodeCounts struct {
	Leaves      int
	Directories int
}

// Total returns the number of nodes.
func (c NodeCounts) Total() int { return c.Leaves + c.Directories }

// CountNodes walks the tree and counts nodes by kind.
func (t *Tree) CountNodes(ctx context.Context) (NodeCounts, error) {
	var c NodeCounts
	for v, err := range t.Walk(ctx) {
		if err != nil {
			return NodeCounts{}, err
		}
		if v.Node.IsLeaf() {
			c.Leaves++
		} else {
			c.Directories++
		}
	}
	return c, nil
}

// FindPath returns the path to the leaf entry of obj. Only subtrees whose
// box contains obj.Bounds are searched.
func (t *Tree) FindPath(ctx context.Context, obj spatial.Object) (Path, error) {
	if err := t.checkDim(obj.Bounds.Dim()); err != nil {
		return nil, err
	}
	root, err := t.RootPath(ctx)
	if err != nil {
		return nil, err
	}

	stack := []Path{root}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n, err := t.readNode(ctx, p.Last().Entry.Child, t.levelOf(p))
		if err != nil {
			return nil, err
		}
		// Push in reverse so that lower positions are searched first.
		for i := len(n.Entries) - 1; i >= 0; i-- {
			e := n.Entries[i]
			if !e.MBR.Contains(obj.Bounds) {
				continue
			}
			if n.IsLeaf() {
				if e.ID == obj.ID && e.MBR.Equal(obj.Bounds) {
					return p.Child(i, e), nil
				}
				continue
			}
			stack = append(stack, p.Child(i, e))
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrNotFound, obj.ID)
}

// UpdateEntry applies fn to the entry the path points at and writes the
// containing node back. fn may change Flags only; the box, id and child
// of the entry are restored afterwards. The root step cannot be updated.
func (t *Tree) UpdateEntry(ctx context.Context, p Path, fn func(e *node.Entry)) (node.Entry, error) {
	if len(p) < 2 {
		return node.Entry{}, fmt.Errorf("rstar: path %s has no containing node", p)
	}
	parent := p.Parent()
	n, err := t.readNode(ctx, parent.Last().Entry.Child, t.levelOf(parent))
	if err != nil {
		return node.Entry{}, err
	}
	i := p.Last().Index
	if i < 0 || i >= len(n.Entries) || n.Entries[i].ID != p.Last().Entry.ID {
		return node.Entry{}, fmt.Errorf("rstar: stale path %s", p)
	}

	e := n.Entries[i]
	fn(&e)
	n.Entries[i].Flags = e.Flags
	if err := t.pf.Write(ctx, n); err != nil {
		return node.Entry{}, err
	}
	return n.Entries[i].Clone(), nil
}
