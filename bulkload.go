package rstar

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/hupe1980/rstar/curve"
	"github.com/hupe1980/rstar/node"
	"github.com/hupe1980/rstar/spatial"
)

// BulkLoad builds the tree from objs in one pass. Each level is
// partitioned by the configured bulk.Strategy into node-sized groups,
// bottom up, until a single root remains. The tree must be empty.
// Loading the same objects with the same strategy always yields the same
// pages.
func (t *Tree) BulkLoad(ctx context.Context, objs []spatial.Object) error {
	start := time.Now()
	err := t.bulkLoad(ctx, objs)
	t.metrics.RecordBulkLoad(len(objs), time.Since(start), err)
	t.logger.LogBulkLoad(ctx, len(objs), t.height, t.opts.BulkStrategy.Name(), err)
	return err
}

func (t *Tree) bulkLoad(ctx context.Context, objs []spatial.Object) error {
	if t.size > 0 {
		return ErrTreeNotEmpty
	}
	if len(objs) == 0 {
		return nil
	}
	entries := make([]node.Entry, len(objs))
	for i, o := range objs {
		if err := t.checkDim(o.Bounds.Dim()); err != nil {
			return fmt.Errorf("object %d: %w", o.ID, err)
		}
		if err := checkRect(o.Bounds); err != nil {
			return fmt.Errorf("object %d: %w", o.ID, err)
		}
		entries[i] = t.hooks.LeafEntry(o)
	}

	b := t.begin()
	height, err := t.buildLevels(ctx, b, entries)
	if err != nil {
		b.abort(ctx)
		return err
	}
	if err := b.commit(ctx); err != nil {
		b.abort(ctx)
		return err
	}
	t.height = height
	t.size = len(objs)
	return t.saveMeta()
}

// buildLevels stages all nodes of the bulk-loaded tree. The root reuses
// the current (empty) root page.
func (t *Tree) buildLevels(ctx context.Context, b *batch, entries []node.Entry) (int, error) {
	kind, capacity, minFill := node.KindLeaf, t.leafCap, t.minLeaf
	for height := 1; ; height++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		groups, err := t.opts.BulkStrategy.Partition(curve.Slice[node.Entry](entries), minFill, capacity)
		if err != nil {
			return 0, err
		}

		next := make([]node.Entry, 0, len(groups))
		for _, g := range groups {
			id := t.root
			if len(groups) > 1 {
				if id, err = b.alloc(ctx); err != nil {
					return 0, err
				}
			}
			n := &node.Node{
				PageID:   id,
				Kind:     kind,
				Capacity: capacity,
				Entries:  slices.Clone(entries[g.Start:g.End]),
			}
			b.put(n)
			next = append(next, t.hooks.DirectoryEntry(n))
		}
		if len(groups) == 1 {
			return height, nil
		}

		t.logger.DebugContext(ctx, "bulk level built", "height", height, "nodes", len(groups))
		entries = next
		kind, capacity, minFill = node.KindDirectory, t.dirCap, t.minDir
	}
}
