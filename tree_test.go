package rstar

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/hupe1980/rstar/distance"
	"github.com/hupe1980/rstar/internal/fs"
	"github.com/hupe1980/rstar/node"
	"github.com/hupe1980/rstar/pagefile"
	"github.com/hupe1980/rstar/query"
	"github.com/hupe1980/rstar/spatial"
	"github.com/hupe1980/rstar/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemTree(t *testing.T, optFns ...func(o *Options)) (*Tree, *pagefile.MemoryStore) {
	t.Helper()
	store := pagefile.NewMemoryStore()
	pf, err := pagefile.Open(context.Background(), store)
	require.NoError(t, err)
	tree, err := New(context.Background(), pf, optFns...)
	require.NoError(t, err)
	return tree, store
}

func point(id uint32, coords ...float64) spatial.Object {
	return spatial.Object{ID: id, Bounds: spatial.Point(coords)}
}

func TestTree_EndToEnd(t *testing.T) {
	ctx := context.Background()
	tree, _ := newMemTree(t, WithDimension(2), WithCapacity(2, 2))

	require.NoError(t, tree.InsertAll(ctx, []spatial.Object{
		point(1, 0, 0),
		point(2, 1, 1),
		point(3, 5, 5),
		point(4, 5, 6),
	}))

	counts, err := tree.CountNodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Leaves)
	assert.Equal(t, 1, counts.Directories)
	assert.Equal(t, 2, tree.Height())
	assert.Equal(t, 4, tree.Size())

	got, err := tree.Range(ctx, []float64{0, 0}, 2.0, distance.Euclidean{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, query.Result{Distance: 0, ID: 1}, got[0])
	assert.Equal(t, uint32(2), got[1].ID)
	assert.InDelta(t, math.Sqrt2, got[1].Distance, 1e-12)

	got, err = tree.Range(ctx, []float64{5, 5}, 1.5, distance.Euclidean{})
	require.NoError(t, err)
	assert.Equal(t, []query.Result{{Distance: 0, ID: 3}, {Distance: 1, ID: 4}}, got)

	require.NoError(t, tree.Validate(ctx))
}

func TestTree_InsertInvariants(t *testing.T) {
	ctx := context.Background()
	for _, dim := range []int{1, 2, 3} {
		tree, _ := newMemTree(t, WithDimension(dim), WithCapacity(4, 3))
		rng := testutil.NewRNG(int64(dim))

		objs := rng.UniformPoints(600, dim)
		objs = append(objs, rng.UniformBoxes(200, dim, 0.05)...)
		for i := range objs {
			objs[i].ID = uint32(i + 1)
		}
		require.NoError(t, tree.InsertAll(ctx, objs))

		assert.Equal(t, len(objs), tree.Size())
		assert.Greater(t, tree.Height(), 2)
		require.NoError(t, tree.Validate(ctx), "dim %d", dim)

		extent, err := tree.Extent(ctx)
		require.NoError(t, err)
		for _, o := range objs {
			assert.True(t, extent.Contains(o.Bounds))
		}
	}
}

func TestTree_DuplicatePoints(t *testing.T) {
	ctx := context.Background()
	tree, _ := newMemTree(t, WithDimension(2), WithCapacity(4, 4))

	objs := testutil.DuplicatePoints(300, []float64{1, 1})
	require.NoError(t, tree.InsertAll(ctx, objs))
	require.NoError(t, tree.Validate(ctx))

	got, err := tree.Range(ctx, []float64{1, 1}, 0, distance.Euclidean{})
	require.NoError(t, err)
	assert.Len(t, got, 300)
	assert.Equal(t, uint32(1), got[0].ID)
	assert.Equal(t, uint32(300), got[299].ID)

	knn, err := tree.KNN(ctx, []float64{0, 0}, 5, distance.Euclidean{})
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3, 4, 5}, testutil.IDs(knn))
}

func TestTree_EmptyTree(t *testing.T) {
	ctx := context.Background()
	tree, _ := newMemTree(t, WithDimension(2))

	got, err := tree.Range(ctx, []float64{0, 0}, 10, distance.Euclidean{})
	require.NoError(t, err)
	assert.Empty(t, got)

	knn, err := tree.KNN(ctx, []float64{0, 0}, 3, distance.Euclidean{})
	require.NoError(t, err)
	assert.Empty(t, knn)

	_, err = tree.Extent(ctx)
	assert.ErrorIs(t, err, ErrEmptyTree)
	require.NoError(t, tree.Validate(ctx))
}

func TestTree_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("dimension mismatch", func(t *testing.T) {
		tree, _ := newMemTree(t, WithDimension(2), WithCapacity(2, 2))
		require.NoError(t, tree.Insert(ctx, point(1, 0, 0)))

		err := tree.Insert(ctx, point(2, 1, 2, 3))
		var dm *ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 2, dm.Expected)
		assert.Equal(t, 3, dm.Actual)
		assert.Equal(t, 1, tree.Size())

		_, err = tree.Range(ctx, []float64{1}, 1, distance.Euclidean{})
		assert.ErrorAs(t, err, &dm)
	})

	t.Run("invalid box", func(t *testing.T) {
		tree, _ := newMemTree(t, WithDimension(1))
		err := tree.Insert(ctx, spatial.Object{ID: 1, Bounds: spatial.Rect{Min: []float64{2}, Max: []float64{1}}})
		assert.ErrorIs(t, err, spatial.ErrInvalidRect)
		assert.Zero(t, tree.Size())
	})

	t.Run("capacity", func(t *testing.T) {
		pf, err := pagefile.Open(ctx, pagefile.NewMemoryStore())
		require.NoError(t, err)

		for _, c := range []int{-1, 1, 1 << 20} {
			_, err = New(ctx, pf, WithDimension(2), WithCapacity(c, 0))
			var ic *ErrInvalidCapacity
			require.ErrorAs(t, err, &ic, "capacity %d", c)
			assert.Equal(t, node.KindLeaf, ic.Kind)
		}
		_, err = New(ctx, pf, WithDimension(2), WithCapacity(0, 1))
		var ic *ErrInvalidCapacity
		require.ErrorAs(t, err, &ic)
		assert.Equal(t, node.KindDirectory, ic.Kind)
	})

	t.Run("dimension", func(t *testing.T) {
		pf, err := pagefile.Open(ctx, pagefile.NewMemoryStore())
		require.NoError(t, err)
		_, err = New(ctx, pf)
		var id *ErrInvalidDimension
		assert.ErrorAs(t, err, &id)
	})

	t.Run("queries", func(t *testing.T) {
		tree, _ := newMemTree(t, WithDimension(2))
		require.NoError(t, tree.Insert(ctx, point(1, 0, 0)))

		_, err := tree.KNN(ctx, []float64{0, 0}, 0, distance.Euclidean{})
		assert.ErrorIs(t, err, ErrInvalidK)
		_, err = tree.Range(ctx, []float64{0, 0}, 1, distance.Cosine{})
		assert.ErrorIs(t, err, ErrNonMetric)
		assert.ErrorIs(t, tree.BulkLoad(ctx, []spatial.Object{point(2, 1, 1)}), ErrTreeNotEmpty)
	})

	t.Run("tree exists", func(t *testing.T) {
		tree, _ := newMemTree(t, WithDimension(2))
		_, err := New(ctx, tree.PageFile(), WithDimension(2))
		assert.ErrorIs(t, err, ErrTreeExists)

		pf, err := pagefile.Open(ctx, pagefile.NewMemoryStore())
		require.NoError(t, err)
		_, err = Open(ctx, pf)
		assert.ErrorIs(t, err, ErrNoTree)
	})
}

func TestTree_FailedInsertLeavesTreeUnchanged(t *testing.T) {
	ctx := context.Background()
	store := pagefile.NewMemoryStore()
	pf, err := pagefile.Open(ctx, store)
	require.NoError(t, err)
	tree, err := New(ctx, pf, WithDimension(2), WithCapacity(4, 4))
	require.NoError(t, err)

	require.NoError(t, tree.InsertAll(ctx, testutil.NewRNG(3).UniformPoints(40, 2)))
	require.NoError(t, tree.Close())

	// Corrupt every page below the root.
	for _, id := range store.PageIDs() {
		if id != pagefile.HeaderPage && id != tree.Root() {
			require.True(t, store.Corrupt(id, 14))
		}
	}

	pf, err = pagefile.Open(ctx, store)
	require.NoError(t, err)
	tree, err = Open(ctx, pf)
	require.NoError(t, err)
	pages := pf.NumPages()

	err = tree.Insert(ctx, point(99, 0.5, 0.5))
	var cpe *pagefile.CorruptPageError
	require.ErrorAs(t, err, &cpe)
	assert.Equal(t, 40, tree.Size())
	assert.Equal(t, pages, pf.NumPages())

	_, err = tree.Range(ctx, []float64{0.5, 0.5}, 1, distance.Euclidean{})
	assert.ErrorAs(t, err, &cpe)
}

func newFaultyTree(t *testing.T, optFns ...func(o *Options)) (*Tree, *fs.FaultyFS, string) {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.rst")
	ffs := fs.NewFaultyFS(nil)
	store, err := pagefile.OpenFileStore(path, 1024, func(o *pagefile.FileStoreOptions) { o.FileSystem = ffs })
	require.NoError(t, err)
	pf, err := pagefile.Open(ctx, store, pagefile.WithPageSize(1024), pagefile.WithCacheSize(1))
	require.NoError(t, err)
	tree, err := New(ctx, pf, optFns...)
	require.NoError(t, err)
	return tree, ffs, path
}

func reopenTree(t *testing.T, path string) *Tree {
	t.Helper()
	ctx := context.Background()
	store, err := pagefile.OpenFileStore(path, 1024)
	require.NoError(t, err)
	pf, err := pagefile.Open(ctx, store, pagefile.WithPageSize(1024))
	require.NoError(t, err)
	tree, err := Open(ctx, pf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tree.Close() })
	return tree
}

func allIDs(t *testing.T, tree *Tree) []uint32 {
	t.Helper()
	res, err := tree.Range(context.Background(), make([]float64, tree.Dimension()), math.MaxFloat64, distance.Euclidean{})
	require.NoError(t, err)
	ids := make([]uint32, len(res))
	for i, r := range res {
		ids[i] = r.ID
	}
	return ids
}

func TestTree_WriteBackFaultDuringRootSplit(t *testing.T) {
	ctx := context.Background()
	tree, ffs, path := newFaultyTree(t, WithDimension(2), WithCapacity(2, 2))

	require.NoError(t, tree.Insert(ctx, point(1, 5, 5)))
	require.NoError(t, tree.Insert(ctx, point(2, 0, 0)))

	// Every store write fails from here on. The split still completes;
	// evicted pages wait in memory for the next flush.
	ffs.SetLimit(0)
	require.NoError(t, tree.Insert(ctx, point(3, 1, 1)))
	assert.Equal(t, 3, tree.Size())
	assert.Equal(t, 2, tree.Height())
	assert.Positive(t, tree.PageFile().Stats().Spilled)
	assert.ElementsMatch(t, []uint32{1, 2, 3}, allIDs(t, tree))
	require.NoError(t, tree.Validate(ctx))

	require.ErrorIs(t, tree.Flush(ctx), fs.ErrInjected)
	assert.ElementsMatch(t, []uint32{1, 2, 3}, allIDs(t, tree))

	ffs.SetLimit(-1)
	require.NoError(t, tree.Close())

	reopened := reopenTree(t, path)
	assert.Equal(t, 3, reopened.Size())
	assert.Equal(t, 2, reopened.Height())
	assert.ElementsMatch(t, []uint32{1, 2, 3}, allIDs(t, reopened))
	require.NoError(t, reopened.Validate(ctx))
}

func TestTree_WriteBackFaultDuringBulkLoad(t *testing.T) {
	ctx := context.Background()
	tree, ffs, path := newFaultyTree(t, WithDimension(2), WithCapacity(4, 4))
	objs := testutil.NewRNG(11).UniformPoints(50, 2)

	ffs.SetLimit(0)
	require.NoError(t, tree.BulkLoad(ctx, objs))
	assert.Equal(t, 50, tree.Size())
	assert.Len(t, allIDs(t, tree), 50)
	require.NoError(t, tree.Validate(ctx))

	ffs.SetLimit(-1)
	require.NoError(t, tree.Close())

	reopened := reopenTree(t, path)
	assert.Equal(t, 50, reopened.Size())
	assert.Len(t, allIDs(t, reopened), 50)
	require.NoError(t, reopened.Validate(ctx))
}

func TestTree_ValidateMinimumFill(t *testing.T) {
	ctx := context.Background()
	tree, _ := newMemTree(t, WithDimension(2), WithCapacity(4, 4), WithMinFill(0.5))
	require.NoError(t, tree.InsertAll(ctx, testutil.NewRNG(5).UniformPoints(5, 2)))
	require.Equal(t, 2, tree.Height())
	require.NoError(t, tree.Validate(ctx))

	root, err := tree.ReadNode(ctx, tree.Root())
	require.NoError(t, err)
	leaf, err := tree.ReadNode(ctx, root.Entries[0].Child)
	require.NoError(t, err)
	removed := leaf.Len() - 1
	leaf.Entries = leaf.Entries[:1]
	require.NoError(t, tree.PageFile().Write(ctx, leaf))
	tree.size -= removed

	err = tree.Validate(ctx)
	require.ErrorIs(t, err, ErrInvalidTree)
	assert.ErrorContains(t, err, "below minimum fill 2")
}

func TestBatch_AbortReleasesPages(t *testing.T) {
	ctx := context.Background()
	tree, _ := newMemTree(t, WithDimension(2))
	before := tree.PageFile().NumPages()

	b := tree.begin()
	for range 3 {
		_, err := b.alloc(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, before+3, tree.PageFile().NumPages())
	b.abort(ctx)
	assert.Equal(t, before, tree.PageFile().NumPages())
}

func TestTree_Persistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.rst")

	store, err := pagefile.OpenFileStore(path, 1024)
	require.NoError(t, err)
	pf, err := pagefile.Open(ctx, store, pagefile.WithPageSize(1024), pagefile.WithCacheSize(8))
	require.NoError(t, err)
	tree, err := New(ctx, pf, WithDimension(3))
	require.NoError(t, err)

	objs := testutil.NewRNG(42).UniformPoints(500, 3)
	require.NoError(t, tree.InsertAll(ctx, objs))
	q := []float64{0.5, 0.5, 0.5}
	want, err := tree.KNN(ctx, q, 10, distance.Euclidean{})
	require.NoError(t, err)
	height := tree.Height()
	require.NoError(t, tree.Close())

	store, err = pagefile.OpenFileStore(path, 1024, func(o *pagefile.FileStoreOptions) { o.ReadOnly = true })
	require.NoError(t, err)
	pf, err = pagefile.Open(ctx, store, pagefile.WithPageSize(1024))
	require.NoError(t, err)
	tree, err = Open(ctx, pf, WithDimension(3))
	require.NoError(t, err)
	defer tree.Close()

	assert.Equal(t, 500, tree.Size())
	assert.Equal(t, height, tree.Height())
	require.NoError(t, tree.Validate(ctx))

	got, err := tree.KNN(ctx, q, 10, distance.Euclidean{})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = Open(ctx, pf, WithDimension(2))
	var dm *ErrDimensionMismatch
	assert.ErrorAs(t, err, &dm)
}

func TestTree_Metrics(t *testing.T) {
	ctx := context.Background()
	m := &BasicMetricsCollector{}
	tree, _ := newMemTree(t, WithDimension(2), WithCapacity(4, 4), WithMetrics(m))

	require.NoError(t, tree.InsertAll(ctx, testutil.NewRNG(1).UniformPoints(100, 2)))
	_, err := tree.KNN(ctx, []float64{0, 0}, 3, distance.Euclidean{})
	require.NoError(t, err)

	st := m.GetStats()
	assert.EqualValues(t, 100, st.InsertCount)
	assert.Positive(t, st.LeafSplits)
	assert.Positive(t, st.DirectorySplits)
	assert.EqualValues(t, 1, st.SearchCount)
	assert.EqualValues(t, 3, st.SearchResults)
}

func TestChooseSplit(t *testing.T) {
	entries := []node.Entry{
		{ID: 1, MBR: spatial.Point([]float64{0, 0})},
		{ID: 2, MBR: spatial.Point([]float64{10, 1})},
		{ID: 3, MBR: spatial.Point([]float64{1, 0})},
		{ID: 4, MBR: spatial.Point([]float64{11, 0})},
		{ID: 5, MBR: spatial.Point([]float64{0, 1})},
	}
	axis, left, right := chooseSplit(entries, 2, 2)
	assert.Equal(t, 0, axis)

	ids := func(es []node.Entry) []uint32 {
		out := make([]uint32, len(es))
		for i, e := range es {
			out[i] = e.ID
		}
		return out
	}
	assert.ElementsMatch(t, []uint32{1, 3, 5}, ids(left))
	assert.ElementsMatch(t, []uint32{2, 4}, ids(right))
}

func TestMinEntries(t *testing.T) {
	assert.Equal(t, 1, minEntries(2, 0.4))
	assert.Equal(t, 4, minEntries(10, 0.4))
	assert.Equal(t, 5, minEntries(10, 0.5))
	assert.Equal(t, 40, minEntries(100, 0.4))
}

func TestTree_BulkLoadThenInsert(t *testing.T) {
	ctx := context.Background()
	tree, _ := newMemTree(t, WithDimension(1), WithCapacity(4, 4))

	require.NoError(t, tree.BulkLoad(ctx, []spatial.Object{
		point(1, 0), point(2, 1), point(3, 0), point(4, 1), point(5, 0), point(6, 1),
	}))
	require.NoError(t, tree.Insert(ctx, point(7, 0.5)))
	require.NoError(t, tree.Validate(ctx))

	var sizes []int
	for v, err := range tree.Walk(ctx) {
		require.NoError(t, err)
		if v.Node.IsLeaf() {
			sizes = append(sizes, v.Node.Len())
		}
	}
	assert.ElementsMatch(t, []int{4, 3}, sizes)
}
