package curve

import (
	"math"
	"slices"

	"github.com/hupe1980/rstar/spatial"
)

// Tolerance is the smallest extent the Peano sorter still subdivides.
const Tolerance = 1e-10

// Sorter permutes a sequence along a space-filling curve.
type Sorter interface {
	// Name identifies the sorter.
	Name() string
	// Sort permutes all of seq.
	Sort(seq Sequence)
	// SortRange permutes seq[start:end], whose bounding box is extent.
	SortRange(seq Sequence, start, end int, extent spatial.Rect)
}

// Compile time check to ensure PeanoSorter satisfies the Sorter interface.
var _ Sorter = PeanoSorter{}

// PeanoSorter orders objects along the Peano curve by recursive trisection.
// The base pattern on a 3x3 grid is
//
//	3---4   9
//	|   |   |
//	2   5   8
//	|   |   |
//	1   6---7
//
// with every middle third traversed in the opposite direction so that the
// curve stays continuous.
type PeanoSorter struct{}

func (PeanoSorter) Name() string { return "peano" }

func (s PeanoSorter) Sort(seq Sequence) {
	n := seq.Len()
	if n < 2 {
		return
	}
	s.SortRange(seq, 0, n, Extent(seq, 0, n))
}

func (PeanoSorter) SortRange(seq Sequence, start, end int, extent spatial.Rect) {
	if end-start < 2 || extent.Dim() == 0 {
		return
	}
	p := &peano{seq: seq, dims: extent.Dim()}
	p.sort(start, end, extent.Min, extent.Max, 0, newParity(extent.Dim()), false)
}

// parity holds one direction bit per dimension. It is never modified in
// place; flip returns a copy.
type parity []uint64

func newParity(dims int) parity { return make(parity, (dims+63)/64) }

func (p parity) get(dim int) bool { return p[dim/64]&(1<<(dim%64)) != 0 }

func (p parity) flip(dim int) parity {
	q := slices.Clone(p)
	q[dim/64] ^= 1 << (dim % 64)
	return q
}

type peano struct {
	seq  Sequence
	dims int
}

// sort orders seq[start:end] whose extent is lo/hi, splitting on dim.
func (p *peano) sort(start, end int, lo, hi []float64, dim int, bits parity, desc bool) {
	mn, mx := lo[dim], hi[dim]
	t1 := (mn + mn + mx) / 3
	t2 := (mn + mx + mx) / 3

	// Duplicate points: stop once no axis has a usable range left. The
	// negated comparisons also catch NaN coordinates.
	if !(mx-t2 >= Tolerance) || !(t2-t1 >= Tolerance) || !(t1-mn >= Tolerance) {
		if !p.hasRange(lo, hi) {
			return
		}
	}

	inv := bits.get(dim) != desc
	var first, second int
	if !inv {
		first = partition(p.seq, start, end, dim, t1, false)
		second = partition(p.seq, first, end, dim, t2, false)
	} else {
		first = partition(p.seq, start, end, dim, t2, true)
		second = partition(p.seq, first, end, dim, t1, true)
	}

	next := (dim + 1) % p.dims
	if first-start > 1 {
		if !inv {
			p.sort(start, first, lo, with(hi, dim, t1), next, bits, desc)
		} else {
			p.sort(start, first, with(lo, dim, t2), hi, next, bits, desc)
		}
	}
	if second-first > 1 {
		p.sort(first, second, with(lo, dim, t1), with(hi, dim, t2), next, bits.flip(dim), !desc)
	}
	if end-second > 1 {
		if !inv {
			p.sort(second, end, with(lo, dim, t2), hi, next, bits, desc)
		} else {
			p.sort(second, end, lo, with(hi, dim, t1), next, bits, desc)
		}
	}
}

// hasRange reports whether some axis still has a finite extent worth
// subdividing.
func (p *peano) hasRange(lo, hi []float64) bool {
	for d := range lo {
		if w := hi[d] - lo[d]; w >= Tolerance && !math.IsInf(w, 0) {
			return true
		}
	}
	return false
}

// with returns a copy of v with v[dim] replaced.
func with(v []float64, dim int, x float64) []float64 {
	out := slices.Clone(v)
	out[dim] = x
	return out
}
