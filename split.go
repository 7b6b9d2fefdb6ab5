package rstar

import (
	"cmp"
	"context"
	"math"
	"slices"

	"github.com/hupe1980/rstar/node"
	"github.com/hupe1980/rstar/spatial"
)

// split divides an overflowing node with the R* heuristic. n keeps the
// first group; the second group moves to a new sibling page.
func (t *Tree) split(ctx context.Context, b *batch, n *node.Node) (*node.Node, error) {
	m := t.minLeaf
	if !n.IsLeaf() {
		m = t.minDir
	}
	axis, left, right := chooseSplit(n.Entries, t.dim, m)

	id, err := b.alloc(ctx)
	if err != nil {
		return nil, err
	}
	sibling := &node.Node{PageID: id, Kind: n.Kind, Capacity: n.Capacity, Entries: right}
	n.Entries = left

	t.metrics.RecordSplit(n.IsLeaf())
	t.logger.LogSplit(ctx, uint32(n.PageID), uint32(id), axis, len(left), len(right))
	return sibling, nil
}

// chooseSplit returns the split axis and the two groups. The axis is the
// one with the smallest margin sum over all legal distributions; on it the
// distribution with the least overlap, then the least total area, wins.
func chooseSplit(entries []node.Entry, dim, m int) (int, []node.Entry, []node.Entry) {
	type candidate struct {
		sorted   []node.Entry
		pre, suf []spatial.Rect
	}

	bestAxis, bestMargin := 0, math.Inf(1)
	var axisCandidates [2]candidate
	for d := range dim {
		var margin float64
		var cands [2]candidate
		for i, upper := range []bool{false, true} {
			s := sortedOnAxis(entries, d, upper)
			pre, suf := prefixBounds(s)
			for k := m; k <= len(s)-m; k++ {
				margin += pre[k-1].Margin() + suf[k].Margin()
			}
			cands[i] = candidate{sorted: s, pre: pre, suf: suf}
		}
		if margin < bestMargin {
			bestAxis, bestMargin, axisCandidates = d, margin, cands
		}
	}

	var (
		best                  []node.Entry
		bestK                 int
		bestOverlap, bestArea = math.Inf(1), math.Inf(1)
	)
	for _, c := range axisCandidates {
		for k := m; k <= len(c.sorted)-m; k++ {
			overlap := c.pre[k-1].Overlap(c.suf[k])
			area := c.pre[k-1].Area() + c.suf[k].Area()
			if overlap < bestOverlap || (overlap == bestOverlap && area < bestArea) {
				best, bestK, bestOverlap, bestArea = c.sorted, k, overlap, area
			}
		}
	}
	if best == nil {
		// Only reachable with NaN geometry; fall back to a positional split.
		best, bestK = axisCandidates[0].sorted, len(entries)/2
	}

	capHint := len(entries)
	left := append(make([]node.Entry, 0, capHint), best[:bestK]...)
	right := append(make([]node.Entry, 0, capHint), best[bestK:]...)
	return bestAxis, left, right
}

// sortedOnAxis returns a copy of entries ordered by lower (or upper) bound
// on axis d, the other bound breaking ties.
func sortedOnAxis(entries []node.Entry, d int, upper bool) []node.Entry {
	s := slices.Clone(entries)
	slices.SortStableFunc(s, func(a, b node.Entry) int {
		if upper {
			return cmp.Or(cmp.Compare(a.MBR.Max[d], b.MBR.Max[d]), cmp.Compare(a.MBR.Min[d], b.MBR.Min[d]))
		}
		return cmp.Or(cmp.Compare(a.MBR.Min[d], b.MBR.Min[d]), cmp.Compare(a.MBR.Max[d], b.MBR.Max[d]))
	})
	return s
}

// prefixBounds returns pre[i] = bounds of s[:i+1] and suf[i] = bounds of s[i:].
func prefixBounds(s []node.Entry) (pre, suf []spatial.Rect) {
	pre = make([]spatial.Rect, len(s))
	suf = make([]spatial.Rect, len(s))
	for i := range s {
		if i == 0 {
			pre[i] = s[i].MBR.Clone()
		} else {
			pre[i] = pre[i-1].Union(s[i].MBR)
		}
	}
	for i := len(s) - 1; i >= 0; i-- {
		if i == len(s)-1 {
			suf[i] = s[i].MBR.Clone()
		} else {
			suf[i] = suf[i+1].Union(s[i].MBR)
		}
	}
	return pre, suf
}
