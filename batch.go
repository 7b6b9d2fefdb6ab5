package rstar

import (
	"context"

	"github.com/hupe1980/rstar/node"
)

// batch stages the nodes modified by one mutation. Nothing reaches the
// page file before commit, so an aborted mutation leaves the tree as it
// was.
type batch struct {
	t      *Tree
	staged map[node.PageID]*node.Node
	order  []node.PageID
	allocs []node.PageID
	frees  []node.PageID
}

func (t *Tree) begin() *batch {
	return &batch{t: t, staged: make(map[node.PageID]*node.Node)}
}

func (b *batch) read(ctx context.Context, id node.PageID, level int) (*node.Node, error) {
	if n, ok := b.staged[id]; ok {
		return n, nil
	}
	return b.t.readNode(ctx, id, level)
}

func (b *batch) alloc(ctx context.Context) (node.PageID, error) {
	id, err := b.t.pf.Allocate(ctx)
	if err != nil {
		return 0, err
	}
	b.allocs = append(b.allocs, id)
	return id, nil
}

func (b *batch) put(n *node.Node) {
	if _, ok := b.staged[n.PageID]; !ok {
		b.order = append(b.order, n.PageID)
	}
	b.staged[n.PageID] = n
}

func (b *batch) free(id node.PageID) {
	b.frees = append(b.frees, id)
}

// commit writes every staged node in one step and then releases the
// freed pages. It fails only before anything was written; write-back
// failures of evicted pages are deferred to the next flush.
func (b *batch) commit(ctx context.Context) error {
	nodes := make([]*node.Node, len(b.order))
	for i, id := range b.order {
		nodes[i] = b.staged[id]
	}
	if err := b.t.pf.WriteAll(ctx, nodes...); err != nil {
		return err
	}
	for _, id := range b.frees {
		if err := b.t.pf.Free(ctx, id); err != nil {
			b.t.logger.WarnContext(ctx, "release page after mutation", "page", uint32(id), "error", err)
		}
	}
	return nil
}

// abort releases the pages allocated by the batch.
func (b *batch) abort(ctx context.Context) {
	for _, id := range b.allocs {
		if err := b.t.pf.Free(ctx, id); err != nil {
			b.t.logger.WarnContext(ctx, "release page after failed mutation", "page", uint32(id), "error", err)
		}
	}
}
