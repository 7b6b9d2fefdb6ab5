package rstar

import (
	"context"
	"time"

	"github.com/hupe1980/rstar/node"
	"github.com/hupe1980/rstar/spatial"
)

// Insert adds obj to the tree. On error the tree is unchanged.
func (t *Tree) Insert(ctx context.Context, obj spatial.Object) error {
	start := time.Now()
	err := t.insert(ctx, obj)
	t.metrics.RecordInsert(time.Since(start), err)
	t.logger.LogInsert(ctx, obj.ID, t.height, err)
	return err
}

// InsertAll inserts objs one by one and stops at the first error.
func (t *Tree) InsertAll(ctx context.Context, objs []spatial.Object) error {
	for _, o := range objs {
		if err := t.Insert(ctx, o); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) insert(ctx context.Context, obj spatial.Object) error {
	if err := t.checkDim(obj.Bounds.Dim()); err != nil {
		return err
	}
	if err := checkRect(obj.Bounds); err != nil {
		return err
	}

	b := t.begin()
	root, height, err := t.insertInto(ctx, b, obj)
	if err != nil {
		b.abort(ctx)
		return err
	}
	if err := b.commit(ctx); err != nil {
		b.abort(ctx)
		return err
	}
	t.root, t.height = root, height
	t.size++
	return t.saveMeta()
}

// insertInto stages the insertion of obj and returns the new root and height.
func (t *Tree) insertInto(ctx context.Context, b *batch, obj spatial.Object) (node.PageID, int, error) {
	// path[i] is the node at depth i; slot[i] is the entry chosen in it.
	var (
		path []*node.Node
		slot []int
	)
	cur, err := b.read(ctx, t.root, t.height)
	if err != nil {
		return 0, 0, err
	}
	for level := t.height; level > 1; level-- {
		i, err := t.chooseSubtree(ctx, b, cur, obj.Bounds, level-1)
		if err != nil {
			return 0, 0, err
		}
		path = append(path, cur)
		slot = append(slot, i)
		if cur, err = b.read(ctx, cur.Entries[i].Child, level-1); err != nil {
			return 0, 0, err
		}
	}
	cur.Append(t.hooks.LeafEntry(obj))

	for depth := len(path); ; depth-- {
		var sibling *node.Node
		if cur.Overflows() {
			if sibling, err = t.split(ctx, b, cur); err != nil {
				return 0, 0, err
			}
			b.put(sibling)
		}
		b.put(cur)

		if depth == 0 {
			if sibling == nil {
				return t.root, t.height, nil
			}
			return t.growRoot(ctx, b, cur, sibling)
		}

		parent, i := path[depth-1], slot[depth-1]
		if sibling != nil {
			parent.Entries[i] = t.hooks.DirectoryEntry(cur)
			parent.Append(t.hooks.DirectoryEntry(sibling))
		} else {
			parent.Entries[i].MBR = cur.MBR()
		}
		cur = parent
	}
}

// growRoot places a new directory root above the two halves of a split root.
func (t *Tree) growRoot(ctx context.Context, b *batch, left, right *node.Node) (node.PageID, int, error) {
	id, err := b.alloc(ctx)
	if err != nil {
		return 0, 0, err
	}
	root := node.NewDirectory(id, t.dirCap)
	root.Append(t.hooks.DirectoryEntry(left))
	root.Append(t.hooks.DirectoryEntry(right))
	b.put(root)
	t.logger.DebugContext(ctx, "tree grew", "root", uint32(id), "height", t.height+1)
	return id, t.height + 1, nil
}

// chooseSubtree picks the entry of n needing the least area enlargement to
// cover r. Ties go to the smaller resulting box, then to the child with
// fewer entries, then to the lower position.
func (t *Tree) chooseSubtree(ctx context.Context, b *batch, n *node.Node, r spatial.Rect, childLevel int) (int, error) {
	best := []int{0}
	bestEnl := n.Entries[0].MBR.Enlargement(r)
	bestArea := n.Entries[0].MBR.Area() + bestEnl
	for i := 1; i < len(n.Entries); i++ {
		mbr := n.Entries[i].MBR
		enl := mbr.Enlargement(r)
		area := mbr.Area() + enl
		switch {
		case enl < bestEnl || (enl == bestEnl && area < bestArea):
			best, bestEnl, bestArea = []int{i}, enl, area
		case enl == bestEnl && area == bestArea:
			best = append(best, i)
		}
	}
	if len(best) == 1 {
		return best[0], nil
	}

	pick, fewest := best[0], -1
	for _, i := range best {
		child, err := b.read(ctx, n.Entries[i].Child, childLevel)
		if err != nil {
			return 0, err
		}
		if fewest < 0 || child.Len() < fewest {
			pick, fewest = i, child.Len()
		}
	}
	return pick, nil
}
