package rstar

import (
	"context"
	"time"

	"github.com/hupe1980/rstar/distance"
	"github.com/hupe1980/rstar/internal/queue"
	"github.com/hupe1980/rstar/node"
	"github.com/hupe1980/rstar/query"
)

func (t *Tree) checkQuery(q []float64, fn distance.Func) error {
	if err := t.checkDim(len(q)); err != nil {
		return err
	}
	if !fn.IsMetric() {
		return ErrNonMetric
	}
	return nil
}

// Range returns every object within threshold of q, ordered by ascending
// distance and then id. Subtrees whose box is farther than threshold are
// pruned, so fn must be a metric.
func (t *Tree) Range(ctx context.Context, q []float64, threshold float64, fn distance.Func) ([]query.Result, error) {
	start := time.Now()
	res, err := t.rangeSearch(ctx, q, threshold, fn)
	t.metrics.RecordSearch(len(res), time.Since(start), err)
	t.logger.LogSearch(ctx, "range", len(res), err)
	return res, err
}

func (t *Tree) rangeSearch(ctx context.Context, q []float64, threshold float64, fn distance.Func) ([]query.Result, error) {
	if err := t.checkQuery(q, fn); err != nil {
		return nil, err
	}
	if t.size == 0 {
		return []query.Result{}, nil
	}

	type frame struct {
		page  node.PageID
		level int
	}
	out := []query.Result{}
	stack := []frame{{t.root, t.height}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n, err := t.readNode(ctx, f.page, f.level)
		if err != nil {
			return nil, err
		}
		for _, e := range n.Entries {
			if n.IsLeaf() {
				if d := query.ObjectDistance(fn, q, e.MBR); d <= threshold {
					out = append(out, query.Result{Distance: d, ID: e.ID})
				}
				continue
			}
			if fn.MinDist(q, e.MBR) <= threshold {
				stack = append(stack, frame{e.Child, f.level - 1})
			}
		}
	}
	query.Sort(out)
	return out, nil
}

// KNN returns the k objects closest to q, ordered by ascending distance and
// then id. Nodes are visited best-first; a subtree is skipped once its
// minimum distance exceeds the current k-th best.
func (t *Tree) KNN(ctx context.Context, q []float64, k int, fn distance.Func) ([]query.Result, error) {
	start := time.Now()
	res, err := t.knnSearch(ctx, q, k, fn)
	t.metrics.RecordSearch(len(res), time.Since(start), err)
	t.logger.LogSearch(ctx, "knn", len(res), err)
	return res, err
}

func (t *Tree) knnSearch(ctx context.Context, q []float64, k int, fn distance.Func) ([]query.Result, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if err := t.checkQuery(q, fn); err != nil {
		return nil, err
	}
	if t.size == 0 {
		return []query.Result{}, nil
	}

	best := query.NewCollector(k)
	pages := queue.NewMin(64)
	levels := map[node.PageID]int{t.root: t.height}
	pages.PushItem(queue.Item{ID: uint32(t.root), Page: true})

	for pages.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		top, _ := pages.PopItem()
		if bound, full := best.Bound(); full && top.Distance > bound {
			break
		}

		id := node.PageID(top.ID)
		level := levels[id]
		delete(levels, id)
		n, err := t.readNode(ctx, id, level)
		if err != nil {
			return nil, err
		}

		for _, e := range n.Entries {
			if n.IsLeaf() {
				best.Offer(query.Result{Distance: query.ObjectDistance(fn, q, e.MBR), ID: e.ID})
				continue
			}
			d := fn.MinDist(q, e.MBR)
			if bound, full := best.Bound(); full && d > bound {
				continue
			}
			levels[e.Child] = level - 1
			pages.PushItem(queue.Item{ID: uint32(e.Child), Distance: d, Page: true})
		}
	}
	return best.Results(), nil
}
