package distance

import (
	"math"
	"testing"

	"github.com/hupe1980/rstar/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	a := []float64{0, 0}
	b := []float64{3, 4}

	tests := []struct {
		name     string
		fn       Func
		expected float64
	}{
		{"Euclidean", Euclidean{}, 5},
		{"SquaredEuclidean", SquaredEuclidean{}, 25},
		{"Manhattan", Manhattan{}, 7},
		{"Chebyshev", Chebyshev{}, 4},
		{"Minkowski1", Minkowski{P: 1}, 7},
		{"Minkowski2", Minkowski{P: 2}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, tt.fn.Distance(a, b), 1e-9)
			assert.InDelta(t, 0, tt.fn.Distance(b, b), 1e-9)
			assert.True(t, tt.fn.IsMetric())
		})
	}
}

func TestMinDist(t *testing.T) {
	box, err := spatial.NewRect([]float64{1, 1}, []float64{2, 3})
	require.NoError(t, err)

	t.Run("Inside", func(t *testing.T) {
		assert.Equal(t, 0.0, Euclidean{}.MinDist([]float64{1.5, 2}, box))
	})

	t.Run("Outside", func(t *testing.T) {
		p := []float64{5, 7}
		assert.InDelta(t, 5, Euclidean{}.MinDist(p, box), 1e-9)
		assert.InDelta(t, 7, Manhattan{}.MinDist(p, box), 1e-9)
		assert.InDelta(t, 4, Chebyshev{}.MinDist(p, box), 1e-9)
	})

	t.Run("LowerBound", func(t *testing.T) {
		p := []float64{-2, 0.5}
		corners := [][]float64{{1, 1}, {2, 3}, {1, 3}, {2, 1}}
		for _, fn := range []Func{Euclidean{}, SquaredEuclidean{}, Manhattan{}, Chebyshev{}} {
			lb := fn.MinDist(p, box)
			for _, c := range corners {
				assert.LessOrEqual(t, lb, fn.Distance(p, c), fn.Name())
			}
		}
	})

	t.Run("PointBox", func(t *testing.T) {
		q := []float64{3, 4}
		pt := spatial.Point([]float64{0, 0})
		assert.InDelta(t, 5, Euclidean{}.MinDist(q, pt), 1e-9)
	})
}

func TestCosine(t *testing.T) {
	c := Cosine{}
	assert.False(t, c.IsMetric())
	assert.InDelta(t, 0, c.Distance([]float64{1, 0}, []float64{2, 0}), 1e-12)
	assert.InDelta(t, 1, c.Distance([]float64{1, 0}, []float64{0, 2}), 1e-12)
	assert.InDelta(t, 1, c.Distance([]float64{0, 0}, []float64{0, 2}), 1e-12)
}

func TestProvider(t *testing.T) {
	for m := MetricEuclidean; m <= MetricCosine; m++ {
		fn, err := Provider(m)
		require.NoError(t, err)
		assert.Equal(t, m.String(), fn.Name())

		byName, err := ByName(m.String())
		require.NoError(t, err)
		assert.Equal(t, fn, byName)
	}

	_, err := Provider(Metric(42))
	assert.Error(t, err)

	_, err = ByName("nope")
	assert.Error(t, err)
	assert.Equal(t, "unknown(42)", Metric(42).String())
	assert.False(t, math.IsNaN(Minkowski{P: 3}.Distance([]float64{1}, []float64{2})))
}
