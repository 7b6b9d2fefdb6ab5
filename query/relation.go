package query

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/hupe1980/rstar/distance"
	"github.com/hupe1980/rstar/spatial"
)

// Relation maps object ids to their bounding boxes.
type Relation interface {
	Get(id uint32) (spatial.Rect, bool)
	Len() int
	// Iterate calls fn for every object in ascending id order until fn
	// returns false.
	Iterate(fn func(spatial.Object) bool)
}

// MemoryRelation is an in-memory Relation.
type MemoryRelation struct {
	mu      sync.RWMutex
	objects map[uint32]spatial.Rect
}

// NewMemoryRelation returns a relation holding objs.
func NewMemoryRelation(objs ...spatial.Object) *MemoryRelation {
	r := &MemoryRelation{objects: make(map[uint32]spatial.Rect, len(objs))}
	for _, o := range objs {
		r.objects[o.ID] = o.Bounds
	}
	return r
}

// Add inserts or replaces an object.
func (r *MemoryRelation) Add(o spatial.Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects[o.ID] = o.Bounds
}

func (r *MemoryRelation) Get(id uint32) (spatial.Rect, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.objects[id]
	return b, ok
}

func (r *MemoryRelation) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.objects)
}

func (r *MemoryRelation) Iterate(fn func(spatial.Object) bool) {
	r.mu.RLock()
	ids := slices.Sorted(maps.Keys(r.objects))
	objs := make([]spatial.Object, len(ids))
	for i, id := range ids {
		objs[i] = spatial.Object{ID: id, Bounds: r.objects[id]}
	}
	r.mu.RUnlock()

	for _, o := range objs {
		if !fn(o) {
			return
		}
	}
}

// Objects returns every object in ascending id order.
func (r *MemoryRelation) Objects() []spatial.Object {
	out := make([]spatial.Object, 0, r.Len())
	r.Iterate(func(o spatial.Object) bool {
		out = append(out, o)
		return true
	})
	return out
}

// Reference returns the query point for object id: its center.
func Reference(rel Relation, id uint32) ([]float64, error) {
	b, ok := rel.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownID, id)
	}
	q := make([]float64, b.Dim())
	for d := range q {
		q[d] = b.Center(d)
	}
	return q, nil
}

// RangeForID runs a range query around the object with the given id.
func RangeForID(ctx context.Context, s Searcher, rel Relation, id uint32, threshold float64, fn distance.Func) ([]Result, error) {
	q, err := Reference(rel, id)
	if err != nil {
		return nil, err
	}
	return s.Range(ctx, q, threshold, fn)
}

// KNNForID runs a kNN query around the object with the given id. The
// object itself is part of the result.
func KNNForID(ctx context.Context, s Searcher, rel Relation, id uint32, k int, fn distance.Func) ([]Result, error) {
	q, err := Reference(rel, id)
	if err != nil {
		return nil, err
	}
	return s.KNN(ctx, q, k, fn)
}
