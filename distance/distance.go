package distance

import (
	"fmt"
	"math"
	"strings"

	"github.com/hupe1980/rstar/spatial"
)

// Func is a distance function over fixed-dimensionality coordinate vectors.
type Func interface {
	// Distance returns the distance between two points of equal length.
	Distance(a, b []float64) float64
	// MinDist returns a lower bound of Distance(p, x) for every x inside r.
	MinDist(p []float64, r spatial.Rect) float64
	// IsMetric reports whether the function satisfies the triangle
	// inequality and is safe for index pruning.
	IsMetric() bool
	Name() string
}

// Metric represents a built-in distance function.
type Metric int

const (
	MetricEuclidean Metric = iota
	MetricSquaredEuclidean
	MetricManhattan
	MetricChebyshev
	MetricCosine
)

func (m Metric) String() string {
	switch m {
	case MetricEuclidean:
		return "euclidean"
	case MetricSquaredEuclidean:
		return "squared-euclidean"
	case MetricManhattan:
		return "manhattan"
	case MetricChebyshev:
		return "chebyshev"
	case MetricCosine:
		return "cosine"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricEuclidean:
		return Euclidean{}, nil
	case MetricSquaredEuclidean:
		return SquaredEuclidean{}, nil
	case MetricManhattan:
		return Manhattan{}, nil
	case MetricChebyshev:
		return Chebyshev{}, nil
	case MetricCosine:
		return Cosine{}, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}

// ByName resolves a metric by its String form (case-insensitive).
func ByName(name string) (Func, error) {
	for m := MetricEuclidean; m <= MetricCosine; m++ {
		if strings.EqualFold(m.String(), name) {
			return Provider(m)
		}
	}
	return nil, fmt.Errorf("unknown metric %q", name)
}

// gap returns how far p lies outside [lo, hi] on one axis.
func gap(p, lo, hi float64) float64 {
	if p < lo {
		return lo - p
	}
	if p > hi {
		return p - hi
	}
	return 0
}

// Euclidean is the L2 distance.
type Euclidean struct{}

func (Euclidean) Distance(a, b []float64) float64 {
	return math.Sqrt(SquaredEuclidean{}.Distance(a, b))
}

func (Euclidean) MinDist(p []float64, r spatial.Rect) float64 {
	return math.Sqrt(SquaredEuclidean{}.MinDist(p, r))
}

func (Euclidean) IsMetric() bool { return true }
func (Euclidean) Name() string   { return MetricEuclidean.String() }

// SquaredEuclidean is the squared L2 distance. It violates the triangle
// inequality but is monotone in L2, so pruning with it stays exact.
type SquaredEuclidean struct{}

func (SquaredEuclidean) Distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func (SquaredEuclidean) MinDist(p []float64, r spatial.Rect) float64 {
	var sum float64
	for i := range p {
		d := gap(p[i], r.Min[i], r.Max[i])
		sum += d * d
	}
	return sum
}

func (SquaredEuclidean) IsMetric() bool { return true }
func (SquaredEuclidean) Name() string   { return MetricSquaredEuclidean.String() }

// Manhattan is the L1 distance.
type Manhattan struct{}

func (Manhattan) Distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum
}

func (Manhattan) MinDist(p []float64, r spatial.Rect) float64 {
	var sum float64
	for i := range p {
		sum += gap(p[i], r.Min[i], r.Max[i])
	}
	return sum
}

func (Manhattan) IsMetric() bool { return true }
func (Manhattan) Name() string   { return MetricManhattan.String() }

// Chebyshev is the L-infinity (maximum) distance.
type Chebyshev struct{}

func (Chebyshev) Distance(a, b []float64) float64 {
	var m float64
	for i := range a {
		m = math.Max(m, math.Abs(a[i]-b[i]))
	}
	return m
}

func (Chebyshev) MinDist(p []float64, r spatial.Rect) float64 {
	var m float64
	for i := range p {
		m = math.Max(m, gap(p[i], r.Min[i], r.Max[i]))
	}
	return m
}

func (Chebyshev) IsMetric() bool { return true }
func (Chebyshev) Name() string   { return MetricChebyshev.String() }

// Minkowski is the Lp distance for P >= 1.
type Minkowski struct {
	P float64
}

func (m Minkowski) Distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += math.Pow(math.Abs(a[i]-b[i]), m.P)
	}
	return math.Pow(sum, 1/m.P)
}

func (m Minkowski) MinDist(p []float64, r spatial.Rect) float64 {
	var sum float64
	for i := range p {
		sum += math.Pow(gap(p[i], r.Min[i], r.Max[i]), m.P)
	}
	return math.Pow(sum, 1/m.P)
}

func (m Minkowski) IsMetric() bool { return m.P >= 1 }
func (m Minkowski) Name() string   { return fmt.Sprintf("minkowski(%g)", m.P) }

// Cosine is 1 - cosine similarity. It has no valid box lower bound and is
// only usable with the linear scan.
type Cosine struct{}

func (Cosine) Distance(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// MinDist returns 0, the only bound that holds for every box.
func (Cosine) MinDist([]float64, spatial.Rect) float64 { return 0 }

func (Cosine) IsMetric() bool { return false }
func (Cosine) Name() string   { return MetricCosine.String() }
