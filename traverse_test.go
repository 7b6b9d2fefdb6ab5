package rstar

import (
	"context"
	"testing"

	"github.com/hupe1980/rstar/node"
	"github.com/hupe1980/rstar/spatial"
	"github.com/hupe1980/rstar/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreadthFirst(t *testing.T) {
	ctx := context.Background()
	tree, _ := newMemTree(t, WithDimension(2), WithCapacity(4, 4))
	require.NoError(t, tree.BulkLoad(ctx, testutil.GridPoints(10, 2)))

	var (
		depths  []int
		objects int
		pages   = map[node.PageID]bool{}
	)
	for v, err := range tree.Walk(ctx) {
		require.NoError(t, err)
		depths = append(depths, v.Path.Depth())
		assert.False(t, pages[v.Node.PageID], "page %d visited twice", v.Node.PageID)
		pages[v.Node.PageID] = true
		assert.Equal(t, v.Entry().Child, v.Node.PageID)
		if v.Node.IsLeaf() {
			objects += v.Node.Len()
			assert.Equal(t, tree.Height()-1, v.Path.Depth())
		}
	}
	assert.IsNonDecreasing(t, depths)
	assert.Equal(t, 0, depths[0])
	assert.Equal(t, 100, objects)
	assert.Len(t, pages, tree.PageFile().NumPages())
}

func TestBreadthFirst_EarlyStop(t *testing.T) {
	ctx := context.Background()
	tree, _ := newMemTree(t, WithDimension(2), WithCapacity(4, 4))
	require.NoError(t, tree.BulkLoad(ctx, testutil.GridPoints(10, 2)))

	n := 0
	for _, err := range tree.Walk(ctx) {
		require.NoError(t, err)
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestBreadthFirst_Subtree(t *testing.T) {
	ctx := context.Background()
	tree, _ := newMemTree(t, WithDimension(2), WithCapacity(4, 4))
	require.NoError(t, tree.BulkLoad(ctx, testutil.GridPoints(10, 2)))

	root, err := tree.RootPath(ctx)
	require.NoError(t, err)
	rootNode, err := tree.ReadNode(ctx, tree.Root())
	require.NoError(t, err)

	start := root.Child(1, rootNode.Entries[1])
	objects := 0
	for v, err := range tree.BreadthFirst(ctx, start) {
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v.Path.Depth(), 1)
		assert.Equal(t, 1, v.Path[1].Index)
		assert.True(t, start.Last().Entry.MBR.Contains(v.Node.MBR()))
		if v.Node.IsLeaf() {
			objects += v.Node.Len()
		}
	}
	assert.Positive(t, objects)
	assert.Less(t, objects, 100)
}

func TestBreadthFirst_Canceled(t *testing.T) {
	tree, _ := newMemTree(t, WithDimension(2))
	require.NoError(t, tree.Insert(context.Background(), point(1, 0, 0)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, err := range tree.Walk(ctx) {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestFindPathAndUpdateEntry(t *testing.T) {
	ctx := context.Background()
	tree, _ := newMemTree(t, WithDimension(2), WithCapacity(4, 4))
	objs := testutil.NewRNG(4).UniformPoints(120, 2)
	require.NoError(t, tree.InsertAll(ctx, objs))

	target := objs[57]
	p, err := tree.FindPath(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, tree.Height(), p.Depth())
	assert.Equal(t, target.ID, p.Last().Entry.ID)
	assert.True(t, p.Last().Entry.IsLeaf())
	assert.Equal(t, -1, p[0].Index)

	updated, err := tree.UpdateEntry(ctx, p, func(e *node.Entry) {
		e.Flags |= node.FlagHandled
		e.ID = 9999 // ignored
	})
	require.NoError(t, err)
	assert.True(t, updated.Flags.Has(node.FlagHandled))
	assert.Equal(t, target.ID, updated.ID)

	again, err := tree.FindPath(ctx, target)
	require.NoError(t, err)
	assert.True(t, again.Last().Entry.Flags.Has(node.FlagHandled))

	_, err = tree.FindPath(ctx, spatial.Object{ID: 5000, Bounds: target.Bounds})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = tree.UpdateEntry(ctx, p[:1], func(*node.Entry) {})
	assert.Error(t, err)
	require.NoError(t, tree.Validate(ctx))
}
