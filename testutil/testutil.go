package testutil

import (
	"math"
	"math/rand"
	"sync"

	"github.com/hupe1980/rstar/distance"
	"github.com/hupe1980/rstar/query"
	"github.com/hupe1980/rstar/spatial"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Shuffle permutes objs in place.
func (r *RNG) Shuffle(objs []spatial.Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Shuffle(len(objs), func(i, j int) { objs[i], objs[j] = objs[j], objs[i] })
}

// Vector returns a point with coordinates uniform in [0, 1).
func (r *RNG) Vector(dim int) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := make([]float64, dim)
	for i := range v {
		v[i] = r.rand.Float64()
	}
	return v
}

// UniformPoints returns num point objects with ids 1..num.
func (r *RNG) UniformPoints(num, dim int) []spatial.Object {
	objs := make([]spatial.Object, num)
	for i := range objs {
		objs[i] = spatial.Object{ID: uint32(i + 1), Bounds: spatial.Point(r.Vector(dim))}
	}
	return objs
}

// GridPoints returns points on an integer grid of side^dim cells, with
// coordinates in [0, side) and ids in row-major order starting at 1.
// Many distances tie, which exercises deterministic tie-breaking.
func GridPoints(side, dim int) []spatial.Object {
	total := int(math.Pow(float64(side), float64(dim)))
	objs := make([]spatial.Object, total)
	for i := range objs {
		c := make([]float64, dim)
		rest := i
		for d := dim - 1; d >= 0; d-- {
			c[d] = float64(rest % side)
			rest /= side
		}
		objs[i] = spatial.Object{ID: uint32(i + 1), Bounds: spatial.Point(c)}
	}
	return objs
}

// UniformBoxes returns num box objects whose lower corners are uniform in
// [0, 1) and whose side lengths are uniform in [0, maxSide).
func (r *RNG) UniformBoxes(num, dim int, maxSide float64) []spatial.Object {
	objs := make([]spatial.Object, num)
	for i := range objs {
		lo := r.Vector(dim)
		hi := make([]float64, dim)
		for d := range hi {
			hi[d] = lo[d] + r.Float64()*maxSide
		}
		objs[i] = spatial.Object{ID: uint32(i + 1), Bounds: spatial.Rect{Min: lo, Max: hi}}
	}
	return objs
}

// ClusteredPoints returns num points grouped around the given number of
// random centers with the given spread.
func (r *RNG) ClusteredPoints(num, dim, clusters int, spread float64) []spatial.Object {
	centers := make([][]float64, clusters)
	for i := range centers {
		centers[i] = r.Vector(dim)
	}
	objs := make([]spatial.Object, num)
	for i := range objs {
		c := centers[r.Intn(clusters)]
		p := make([]float64, dim)
		r.mu.Lock()
		for d := range p {
			p[d] = c[d] + r.rand.NormFloat64()*spread
		}
		r.mu.Unlock()
		objs[i] = spatial.Object{ID: uint32(i + 1), Bounds: spatial.Point(p)}
	}
	return objs
}

// DuplicatePoints returns num objects at the same point.
func DuplicatePoints(num int, p []float64) []spatial.Object {
	objs := make([]spatial.Object, num)
	for i := range objs {
		objs[i] = spatial.Object{ID: uint32(i + 1), Bounds: spatial.Point(p)}
	}
	return objs
}

// ExactRange computes range query ground truth by brute force.
func ExactRange(objs []spatial.Object, q []float64, threshold float64, fn distance.Func) []query.Result {
	out := []query.Result{}
	for _, o := range objs {
		if d := query.ObjectDistance(fn, q, o.Bounds); d <= threshold {
			out = append(out, query.Result{Distance: d, ID: o.ID})
		}
	}
	query.Sort(out)
	return out
}

// ExactKNN computes kNN ground truth by brute force.
func ExactKNN(objs []spatial.Object, q []float64, k int, fn distance.Func) []query.Result {
	all := make([]query.Result, len(objs))
	for i, o := range objs {
		all[i] = query.Result{Distance: query.ObjectDistance(fn, q, o.Bounds), ID: o.ID}
	}
	query.Sort(all)
	return all[:min(k, len(all))]
}

// IDs returns the ids of rs in order.
func IDs(rs []query.Result) []uint32 {
	out := make([]uint32, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}
