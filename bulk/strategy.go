package bulk

import (
	"fmt"
	"sort"

	"github.com/hupe1980/rstar/curve"
)

// Range is the half-open index range [Start, End) of one group.
type Range struct {
	Start int
	End   int
}

// Len returns the group size.
func (r Range) Len() int { return r.End - r.Start }

// Strategy splits a sequence into consecutive groups. Implementations may
// permute seq first. Every group holds between minEntries and maxEntries
// elements, except a single group covering fewer than minEntries elements.
type Strategy interface {
	Name() string
	Partition(seq curve.Sequence, minEntries, maxEntries int) ([]Range, error)
}

// Names of the built-in strategies.
const (
	NameSortTrisect = "sort-trisect"
	NameMaxExtent   = "max-extent"
	NamePassthrough = "none"
)

// ByName returns the built-in strategy registered under name.
func ByName(name string) (Strategy, error) {
	switch name {
	case NameSortTrisect, "peano":
		return SortTrisect{}, nil
	case NameMaxExtent:
		return MaxExtent{}, nil
	case NamePassthrough, "passthrough":
		return Passthrough{}, nil
	default:
		return nil, fmt.Errorf("bulk: unknown strategy %q", name)
	}
}

func checkBounds(minEntries, maxEntries int) error {
	if maxEntries < 1 || minEntries < 1 || minEntries > maxEntries {
		return fmt.Errorf("bulk: invalid group bounds [%d, %d]", minEntries, maxEntries)
	}
	return nil
}

// chunk cuts [start, end) into the fewest groups of at most maxEntries,
// with sizes differing by at most one.
func chunk(start, end, maxEntries int) []Range {
	n := end - start
	if n <= 0 {
		return nil
	}
	groups := (n + maxEntries - 1) / maxEntries
	base, extra := n/groups, n%groups

	out := make([]Range, 0, groups)
	for g := range groups {
		size := base
		if g < extra {
			size++
		}
		out = append(out, Range{Start: start, End: start + size})
		start += size
	}
	return out
}

// Passthrough keeps the input order and cuts it into even chunks. Use it
// for input that is already sorted.
type Passthrough struct{}

func (Passthrough) Name() string { return NamePassthrough }

func (Passthrough) Partition(seq curve.Sequence, minEntries, maxEntries int) ([]Range, error) {
	if err := checkBounds(minEntries, maxEntries); err != nil {
		return nil, err
	}
	return chunk(0, seq.Len(), maxEntries), nil
}

// SortTrisect presorts along the Peano curve, then cuts even chunks.
type SortTrisect struct {
	Sorter curve.Sorter // defaults to curve.PeanoSorter
}

func (SortTrisect) Name() string { return NameSortTrisect }

func (s SortTrisect) Partition(seq curve.Sequence, minEntries, maxEntries int) ([]Range, error) {
	if err := checkBounds(minEntries, maxEntries); err != nil {
		return nil, err
	}
	sorter := s.Sorter
	if sorter == nil {
		sorter = curve.PeanoSorter{}
	}
	sorter.Sort(seq)
	return chunk(0, seq.Len(), maxEntries), nil
}

// MaxExtent recursively halves the sequence along the axis on which the
// entry centers spread the most.
type MaxExtent struct{}

func (MaxExtent) Name() string { return NameMaxExtent }

func (MaxExtent) Partition(seq curve.Sequence, minEntries, maxEntries int) ([]Range, error) {
	if err := checkBounds(minEntries, maxEntries); err != nil {
		return nil, err
	}
	var out []Range
	var split func(start, end int)
	split = func(start, end int) {
		n := end - start
		if n <= maxEntries {
			if n > 0 {
				out = append(out, Range{Start: start, End: end})
			}
			return
		}
		dim := widestAxis(seq, start, end)
		sort.Stable(axisOrder{seq: seq, start: start, n: n, dim: dim})

		groups := (n + maxEntries - 1) / maxEntries
		mid := start + n*(groups/2)/groups
		split(start, mid)
		split(mid, end)
	}
	split(0, seq.Len())
	return out, nil
}

func widestAxis(seq curve.Sequence, start, end int) int {
	first := seq.Bounds(start)
	best, bestSpread := 0, -1.0
	for d := range first.Dim() {
		lo, hi := first.Center(d), first.Center(d)
		for i := start + 1; i < end; i++ {
			c := seq.Bounds(i).Center(d)
			lo, hi = min(lo, c), max(hi, c)
		}
		if spread := hi - lo; spread > bestSpread {
			best, bestSpread = d, spread
		}
	}
	return best
}

// axisOrder sorts seq[start:start+n] by center on dim.
type axisOrder struct {
	seq      curve.Sequence
	start, n int
	dim      int
}

func (a axisOrder) Len() int      { return a.n }
func (a axisOrder) Swap(i, j int) { a.seq.Swap(a.start+i, a.start+j) }
func (a axisOrder) Less(i, j int) bool {
	return a.seq.Bounds(a.start+i).Center(a.dim) < a.seq.Bounds(a.start+j).Center(a.dim)
}
