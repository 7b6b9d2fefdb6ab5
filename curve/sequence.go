package curve

import (
	"math"

	"github.com/hupe1980/rstar/spatial"
)

// Sequence is an indexable collection of bounding boxes that can be
// permuted in place.
type Sequence interface {
	Len() int
	Swap(i, j int)
	Bounds(i int) spatial.Rect
}

// Slice adapts a slice of bounded values to Sequence.
type Slice[T spatial.Bounded] []T

func (s Slice[T]) Len() int                  { return len(s) }
func (s Slice[T]) Swap(i, j int)             { s[i], s[j] = s[j], s[i] }
func (s Slice[T]) Bounds(i int) spatial.Rect { return s[i].Bounds() }

// Objects adapts a slice of objects to Sequence.
type Objects []spatial.Object

func (s Objects) Len() int                  { return len(s) }
func (s Objects) Swap(i, j int)             { s[i], s[j] = s[j], s[i] }
func (s Objects) Bounds(i int) spatial.Rect { return s[i].Bounds }

// Extent returns the bounding box of seq[start:end]. It returns an empty
// box for an empty range.
func Extent(seq Sequence, start, end int) spatial.Rect {
	if start >= end {
		return spatial.Rect{}
	}
	first := seq.Bounds(start)
	lo := make([]float64, first.Dim())
	hi := make([]float64, first.Dim())
	for d := range lo {
		lo[d], hi[d] = math.Inf(1), math.Inf(-1)
	}
	for i := start; i < end; i++ {
		b := seq.Bounds(i)
		for d := range lo {
			lo[d] = min(lo[d], b.Min[d])
			hi[d] = max(hi[d], b.Max[d])
		}
	}
	return spatial.Rect{Min: lo, Max: hi}
}

// partition moves the elements of seq[start:end] whose center on dim lies
// below threshold (above it if desc) to the front. It returns the index of
// the first element of the second group.
func partition(seq Sequence, start, end, dim int, threshold float64, desc bool) int {
	split := start
	for i := start; i < end; i++ {
		c := seq.Bounds(i).Center(dim)
		if (!desc && c < threshold) || (desc && c > threshold) {
			if i != split {
				seq.Swap(i, split)
			}
			split++
		}
	}
	return split
}
