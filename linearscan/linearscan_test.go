package linearscan

import (
	"context"
	"math"
	"testing"

	"github.com/hupe1980/rstar/distance"
	"github.com/hupe1980/rstar/query"
	"github.com/hupe1980/rstar/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func relation() *query.MemoryRelation {
	return query.NewMemoryRelation(
		spatial.Object{ID: 1, Bounds: spatial.Point([]float64{0, 0})},
		spatial.Object{ID: 2, Bounds: spatial.Point([]float64{1, 1})},
		spatial.Object{ID: 3, Bounds: spatial.Point([]float64{5, 5})},
		spatial.Object{ID: 4, Bounds: spatial.Point([]float64{5, 6})},
	)
}

func TestScanner_Range(t *testing.T) {
	ctx := context.Background()
	s := New(relation())

	got, err := s.Range(ctx, []float64{0, 0}, 2, distance.Euclidean{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, query.Result{Distance: 0, ID: 1}, got[0])
	assert.Equal(t, uint32(2), got[1].ID)
	assert.InDelta(t, math.Sqrt2, got[1].Distance, 1e-12)

	got, err = s.Range(ctx, []float64{5, 5}, 1.5, distance.Euclidean{})
	require.NoError(t, err)
	assert.Equal(t, []query.Result{{Distance: 0, ID: 3}, {Distance: 1, ID: 4}}, got)
}

func TestScanner_RangeTiesByID(t *testing.T) {
	rel := query.NewMemoryRelation(
		spatial.Object{ID: 9, Bounds: spatial.Point([]float64{1, 0})},
		spatial.Object{ID: 4, Bounds: spatial.Point([]float64{-1, 0})},
		spatial.Object{ID: 6, Bounds: spatial.Point([]float64{0, 1})},
	)
	got, err := New(rel).Range(context.Background(), []float64{0, 0}, 1, distance.Manhattan{})
	require.NoError(t, err)
	assert.Equal(t, []query.Result{{1, 4}, {1, 6}, {1, 9}}, got)
}

func TestScanner_RangeNoMatches(t *testing.T) {
	ctx := context.Background()

	got, err := New(relation()).Range(ctx, []float64{100, 100}, 1, distance.Euclidean{})
	require.NoError(t, err)
	assert.Equal(t, []query.Result{}, got)

	got, err = New(query.NewMemoryRelation()).Range(ctx, []float64{0, 0}, 1, distance.Euclidean{})
	require.NoError(t, err)
	assert.Equal(t, []query.Result{}, got)
}

func TestScanner_KNN(t *testing.T) {
	ctx := context.Background()
	s := New(relation())

	got, err := s.KNN(ctx, []float64{5, 5.5}, 2, distance.Euclidean{})
	require.NoError(t, err)
	assert.Equal(t, []query.Result{{0.5, 3}, {0.5, 4}}, got)

	got, err = s.KNN(ctx, []float64{0, 0}, 10, distance.Chebyshev{})
	require.NoError(t, err)
	assert.Len(t, got, 4)

	_, err = s.KNN(ctx, []float64{0, 0}, 0, distance.Euclidean{})
	assert.ErrorIs(t, err, query.ErrInvalidK)
}

func TestScanner_NonMetric(t *testing.T) {
	got, err := New(relation()).KNN(context.Background(), []float64{2, 2}, 1, distance.Cosine{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	// (1,1) and (5,5) share the direction of the query.
	assert.Contains(t, []uint32{2, 3}, got[0].ID)
	assert.InDelta(t, 0, got[0].Distance, 1e-12)
}

func TestScanner_ByID(t *testing.T) {
	ctx := context.Background()
	rel := relation()
	s := New(rel)

	got, err := query.RangeForID(ctx, s, rel, 3, 1, distance.Euclidean{})
	require.NoError(t, err)
	assert.Equal(t, []query.Result{{0, 3}, {1, 4}}, got)

	got, err = query.KNNForID(ctx, s, rel, 1, 1, distance.Euclidean{})
	require.NoError(t, err)
	assert.Equal(t, []query.Result{{0, 1}}, got)

	_, err = query.RangeForID(ctx, s, rel, 77, 1, distance.Euclidean{})
	assert.ErrorIs(t, err, query.ErrUnknownID)
}

func TestScanner_Errors(t *testing.T) {
	s := New(relation())

	_, err := s.Range(context.Background(), []float64{0}, 1, distance.Euclidean{})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Range(ctx, []float64{0, 0}, 1, distance.Euclidean{})
	assert.ErrorIs(t, err, context.Canceled)
}
