package rstar

import (
	"context"
	"testing"

	"github.com/hupe1980/rstar/bulk"
	"github.com/hupe1980/rstar/distance"
	"github.com/hupe1980/rstar/linearscan"
	"github.com/hupe1980/rstar/query"
	"github.com/hupe1980/rstar/spatial"
	"github.com/hupe1980/rstar/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var queryMetrics = []distance.Func{
	distance.Euclidean{},
	distance.SquaredEuclidean{},
	distance.Manhattan{},
	distance.Chebyshev{},
	distance.Minkowski{P: 3},
}

type buildFunc func(t *testing.T, objs []spatial.Object, dim int) *Tree

func buildByInsert(t *testing.T, objs []spatial.Object, dim int) *Tree {
	tree, _ := newMemTree(t, WithDimension(dim), WithCapacity(8, 6))
	require.NoError(t, tree.InsertAll(context.Background(), objs))
	return tree
}

func buildByBulk(s bulk.Strategy) buildFunc {
	return func(t *testing.T, objs []spatial.Object, dim int) *Tree {
		tree, _ := newMemTree(t, WithDimension(dim), WithCapacity(8, 6), WithBulkStrategy(s))
		require.NoError(t, tree.BulkLoad(context.Background(), objs))
		return tree
	}
}

func TestSearch_MatchesBruteForce(t *testing.T) {
	ctx := context.Background()
	builds := map[string]buildFunc{
		"insert":       buildByInsert,
		"sort-trisect": buildByBulk(bulk.SortTrisect{}),
		"max-extent":   buildByBulk(bulk.MaxExtent{}),
		"passthrough":  buildByBulk(bulk.Passthrough{}),
	}

	rng := testutil.NewRNG(7)
	datasets := map[string][]spatial.Object{
		"uniform":   rng.UniformPoints(700, 3),
		"clustered": rng.ClusteredPoints(700, 3, 5, 0.02),
		"boxes":     rng.UniformBoxes(400, 3, 0.1),
		"grid":      testutil.GridPoints(12, 2),
	}

	for dname, objs := range datasets {
		dim := objs[0].Bounds.Dim()
		for bname, build := range builds {
			t.Run(dname+"/"+bname, func(t *testing.T) {
				tree := build(t, objs, dim)
				require.NoError(t, tree.Validate(ctx))
				require.Equal(t, len(objs), tree.Size())

				for range 5 {
					q := rng.Vector(dim)
					for _, fn := range queryMetrics {
						want := testutil.ExactRange(objs, q, 0.2, fn)
						got, err := tree.Range(ctx, q, 0.2, fn)
						require.NoError(t, err)
						assert.Equal(t, want, got, fn.Name())

						for _, k := range []int{1, 10, 50} {
							got, err := tree.KNN(ctx, q, k, fn)
							require.NoError(t, err)
							assert.Equal(t, testutil.ExactKNN(objs, q, k, fn), got, "%s k=%d", fn.Name(), k)
						}
					}
				}
			})
		}
	}
}

func TestSearch_AgreesWithLinearScan(t *testing.T) {
	ctx := context.Background()
	objs := testutil.NewRNG(11).UniformPoints(500, 2)
	rel := query.NewMemoryRelation(objs...)
	scan := linearscan.New(rel)
	tree := buildByInsert(t, objs, 2)

	for _, id := range []uint32{1, 42, 250, 500} {
		want, err := query.KNNForID(ctx, scan, rel, id, 7, distance.Euclidean{})
		require.NoError(t, err)
		got, err := query.KNNForID(ctx, tree, rel, id, 7, distance.Euclidean{})
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, id, got[0].ID)

		want, err = query.RangeForID(ctx, scan, rel, id, 0.1, distance.Manhattan{})
		require.NoError(t, err)
		got, err = query.RangeForID(ctx, tree, rel, id, 0.1, distance.Manhattan{})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	far := []float64{10, 10}
	want, err := scan.Range(ctx, far, 0.5, distance.Euclidean{})
	require.NoError(t, err)
	got, err := tree.Range(ctx, far, 0.5, distance.Euclidean{})
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Empty(t, got)
}

func TestSearch_KLargerThanSize(t *testing.T) {
	ctx := context.Background()
	tree, _ := newMemTree(t, WithDimension(2), WithCapacity(3, 3))
	objs := testutil.GridPoints(3, 2)
	require.NoError(t, tree.InsertAll(ctx, objs))

	got, err := tree.KNN(ctx, []float64{0, 0}, 100, distance.Euclidean{})
	require.NoError(t, err)
	assert.Len(t, got, len(objs))
	assert.Equal(t, uint32(1), got[0].ID)
}

func TestSearch_Canceled(t *testing.T) {
	tree := buildByInsert(t, testutil.NewRNG(5).UniformPoints(200, 2), 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tree.Range(ctx, []float64{0, 0}, 1, distance.Euclidean{})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = tree.KNN(ctx, []float64{0, 0}, 1, distance.Euclidean{})
	assert.ErrorIs(t, err, context.Canceled)
}

func BenchmarkKNN(b *testing.B) {
	ctx := context.Background()
	tree := newBenchTree(b, 20000)
	q := []float64{0.5, 0.5}

	b.ResetTimer()
	for range b.N {
		if _, err := tree.KNN(ctx, q, 10, distance.Euclidean{}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRange(b *testing.B) {
	ctx := context.Background()
	tree := newBenchTree(b, 20000)
	q := []float64{0.5, 0.5}

	b.ResetTimer()
	for range b.N {
		if _, err := tree.Range(ctx, q, 0.05, distance.Euclidean{}); err != nil {
			b.Fatal(err)
		}
	}
}
