package query

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/hupe1980/rstar/distance"
	"github.com/hupe1980/rstar/internal/queue"
	"github.com/hupe1980/rstar/spatial"
)

var (
	// ErrInvalidK is returned for kNN queries with k <= 0.
	ErrInvalidK = errors.New("k must be positive")
	// ErrNonMetric is returned when an index search is asked to prune with
	// a function that is not a metric.
	ErrNonMetric = errors.New("distance function is not a metric")
	// ErrUnknownID is returned when a reference id is not in the relation.
	ErrUnknownID = errors.New("unknown object id")
)

// Result is one query hit.
type Result struct {
	Distance float64 `json:"distance"`
	ID       uint32  `json:"id"`
}

func (r Result) String() string { return fmt.Sprintf("(%g, %d)", r.Distance, r.ID) }

// Compare orders results by ascending distance, then ascending id.
func Compare(a, b Result) int {
	if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Sort orders rs in place by Compare.
func Sort(rs []Result) { slices.SortFunc(rs, Compare) }

// Searcher answers range and kNN queries around a reference point.
type Searcher interface {
	// Range returns every object within threshold of q, sorted by Compare.
	Range(ctx context.Context, q []float64, threshold float64, fn distance.Func) ([]Result, error)
	// KNN returns the k objects closest to q, sorted by Compare. Ties at
	// the k-th distance are resolved by id.
	KNN(ctx context.Context, q []float64, k int, fn distance.Func) ([]Result, error)
}

// ObjectDistance is the exact distance from q to an object with bounds r.
// Point objects use fn.Distance; extended objects use the distance to the
// nearest point of the box.
func ObjectDistance(fn distance.Func, q []float64, r spatial.Rect) float64 {
	if r.IsPoint() {
		return fn.Distance(q, r.Min)
	}
	return fn.MinDist(q, r)
}

// Collector keeps the k best results seen so far.
type Collector struct {
	k    int
	heap *queue.PriorityQueue
}

// NewCollector returns a collector for the k best results.
func NewCollector(k int) *Collector {
	return &Collector{k: k, heap: queue.NewMax(k + 1)}
}

// Offer considers one result and reports whether it was kept.
func (c *Collector) Offer(r Result) bool {
	item := queue.Item{ID: r.ID, Distance: r.Distance}
	if c.heap.Len() < c.k {
		c.heap.PushItem(item)
		return true
	}
	top, _ := c.heap.Top()
	if Compare(r, Result{Distance: top.Distance, ID: top.ID}) >= 0 {
		return false
	}
	c.heap.PopItem()
	c.heap.PushItem(item)
	return true
}

// Full reports whether k results have been collected.
func (c *Collector) Full() bool { return c.heap.Len() >= c.k }

// Bound returns the k-th best distance. ok is false until the collector is
// full.
func (c *Collector) Bound() (float64, bool) {
	if !c.Full() {
		return 0, false
	}
	top, _ := c.heap.Top()
	return top.Distance, true
}

// Results returns the collected results sorted by Compare.
func (c *Collector) Results() []Result {
	out := make([]Result, 0, c.heap.Len())
	for _, it := range c.heap.Items() {
		out = append(out, Result{Distance: it.Distance, ID: it.ID})
	}
	Sort(out)
	return out
}
