// Package linearscan answers queries by comparing the reference against
// every object of a relation. It is the fallback for data without an index
// and the only search path for non-metric distance functions.
package linearscan

import (
	"context"
	"fmt"

	"github.com/hupe1980/rstar/distance"
	"github.com/hupe1980/rstar/query"
	"github.com/hupe1980/rstar/spatial"
)

// Compile time check to ensure Scanner satisfies the Searcher interface.
var _ query.Searcher = (*Scanner)(nil)

// checkEvery is how many objects are scanned between context checks.
const checkEvery = 1024

// Scanner is a query.Searcher over a relation.
type Scanner struct {
	rel query.Relation
}

// New returns a scanner over rel.
func New(rel query.Relation) *Scanner {
	return &Scanner{rel: rel}
}

// Range implements query.Searcher.
func (s *Scanner) Range(ctx context.Context, q []float64, threshold float64, fn distance.Func) ([]query.Result, error) {
	out := []query.Result{}
	err := s.scan(ctx, q, func(id uint32, d float64) {
		if d <= threshold {
			out = append(out, query.Result{Distance: d, ID: id})
		}
	}, fn)
	if err != nil {
		return nil, err
	}
	query.Sort(out)
	return out, nil
}

// KNN implements query.Searcher.
func (s *Scanner) KNN(ctx context.Context, q []float64, k int, fn distance.Func) ([]query.Result, error) {
	if k <= 0 {
		return nil, query.ErrInvalidK
	}
	c := query.NewCollector(k)
	err := s.scan(ctx, q, func(id uint32, d float64) {
		c.Offer(query.Result{Distance: d, ID: id})
	}, fn)
	if err != nil {
		return nil, err
	}
	return c.Results(), nil
}

func (s *Scanner) scan(ctx context.Context, q []float64, visit func(uint32, float64), fn distance.Func) error {
	var (
		n   int
		err error
	)
	s.rel.Iterate(func(o spatial.Object) bool {
		if n%checkEvery == 0 {
			if err = ctx.Err(); err != nil {
				return false
			}
		}
		n++
		if o.Bounds.Dim() != len(q) {
			err = fmt.Errorf("linearscan: object %d has dimension %d, query has %d", o.ID, o.Bounds.Dim(), len(q))
			return false
		}
		visit(o.ID, query.ObjectDistance(fn, q, o.Bounds))
		return true
	})
	return err
}
