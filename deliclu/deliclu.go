package deliclu

import (
	"context"
	"fmt"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/rstar"
	"github.com/hupe1980/rstar/node"
	"github.com/hupe1980/rstar/pagefile"
	"github.com/hupe1980/rstar/spatial"
)

// Hooks create entries carrying handled/unhandled flags.
type Hooks struct{}

// LeafEntry returns an unhandled object entry.
func (Hooks) LeafEntry(obj spatial.Object) node.Entry {
	return node.Entry{ID: obj.ID, MBR: obj.Bounds.Clone(), Flags: node.FlagUnhandled}
}

// DirectoryEntry summarizes the handled state of child.
func (Hooks) DirectoryEntry(child *node.Node) node.Entry {
	return node.Entry{
		ID:    uint32(child.PageID),
		MBR:   child.MBR(),
		Child: child.PageID,
		Flags: summarize(child),
	}
}

func summarize(n *node.Node) node.Flags {
	var f node.Flags
	if n.HasHandled() {
		f |= node.FlagHandled
	}
	if n.HasUnhandled() {
		f |= node.FlagUnhandled
	}
	return f
}

// Tree is an R*-tree that tracks join progress.
type Tree struct {
	*rstar.Tree

	mu       sync.RWMutex
	expanded map[uint32]*roaring.Bitmap
}

// New creates an empty join-tracking tree in pf. A Hooks option in optFns
// is overridden.
func New(ctx context.Context, pf *pagefile.PageFile, optFns ...func(o *rstar.Options)) (*Tree, error) {
	t, err := rstar.New(ctx, pf, withHooks(optFns)...)
	if err != nil {
		return nil, err
	}
	return wrap(t), nil
}

// Open loads a join-tracking tree stored in pf. The expansion map is not
// persisted and starts empty.
func Open(ctx context.Context, pf *pagefile.PageFile, optFns ...func(o *rstar.Options)) (*Tree, error) {
	t, err := rstar.Open(ctx, pf, withHooks(optFns)...)
	if err != nil {
		return nil, err
	}
	return wrap(t), nil
}

func withHooks(optFns []func(o *rstar.Options)) []func(o *rstar.Options) {
	out := make([]func(o *rstar.Options), 0, len(optFns)+1)
	out = append(out, optFns...)
	return append(out, rstar.WithHooks(Hooks{}))
}

func wrap(t *rstar.Tree) *Tree {
	return &Tree{Tree: t, expanded: make(map[uint32]*roaring.Bitmap)}
}

// MarkExpanded records that a has been expanded with b. Only b is added
// to the partners of a; the reverse pair must be recorded separately.
func (t *Tree) MarkExpanded(a, b node.Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	set, ok := t.expanded[a.ID]
	if !ok {
		set = roaring.New()
		t.expanded[a.ID] = set
	}
	set.Add(b.ID)
}

// ExpandedWith returns a copy of the ids e has been expanded with. The
// result is empty, never nil, when nothing was recorded.
func (t *Tree) ExpandedWith(e node.Entry) *roaring.Bitmap {
	return t.expandedWith(e.ID)
}

// ExpandedWithNode is ExpandedWith keyed by the node's page id, which is
// the id of the directory entry pointing at it.
func (t *Tree) ExpandedWithNode(n *node.Node) *roaring.Bitmap {
	return t.expandedWith(uint32(n.PageID))
}

func (t *Tree) expandedWith(id uint32) *roaring.Bitmap {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if set, ok := t.expanded[id]; ok {
		return set.Clone()
	}
	return roaring.New()
}

// NumExpanded returns the number of recorded (a, b) pairs.
func (t *Tree) NumExpanded() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var n uint64
	for _, set := range t.expanded {
		n += set.GetCardinality()
	}
	return n
}

// CountDirectoryNodes walks the tree breadth-first and counts the
// directory nodes.
func (t *Tree) CountDirectoryNodes(ctx context.Context) (int, error) {
	c, err := t.CountNodes(ctx)
	if err != nil {
		return 0, err
	}
	return c.Directories, nil
}

// NumNodes returns the number of nodes of either kind.
func (t *Tree) NumNodes(ctx context.Context) (int, error) {
	c, err := t.CountNodes(ctx)
	if err != nil {
		return 0, err
	}
	return c.Total(), nil
}

// SetHandled marks the entry of obj as handled and refreshes the summaries
// of its ancestors. It returns the path to the updated entry.
func (t *Tree) SetHandled(ctx context.Context, obj spatial.Object) (rstar.Path, error) {
	p, err := t.FindPath(ctx, obj)
	if err != nil {
		return nil, err
	}
	e, err := t.UpdateEntry(ctx, p, func(e *node.Entry) {
		e.Flags = e.Flags&^node.FlagUnhandled | node.FlagHandled
	})
	if err != nil {
		return nil, err
	}
	p[len(p)-1].Entry = e

	if err := t.AdjustSummaries(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// AdjustSummaries recomputes the flags of every directory entry on p,
// bottom up, from the node each one points at.
func (t *Tree) AdjustSummaries(ctx context.Context, p rstar.Path) error {
	if len(p) == 0 {
		return fmt.Errorf("deliclu: empty path")
	}
	// p[0] is the root step, which has no stored entry.
	for i := len(p) - 1; i >= 1; i-- {
		e := p[i].Entry
		if e.IsLeaf() {
			continue
		}
		n, err := t.ReadNode(ctx, e.Child)
		if err != nil {
			return err
		}
		flags := summarize(n)
		if _, err := t.UpdateEntry(ctx, p[:i+1], func(e *node.Entry) { e.Flags = flags }); err != nil {
			return err
		}
	}
	return nil
}
