package spatial

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// ErrInvalidRect is returned when a box has min > max on some axis or the
// min and max vectors differ in length.
var ErrInvalidRect = errors.New("invalid bounding box")

// Rect is an axis-aligned minimum bounding rectangle.
type Rect struct {
	Min []float64
	Max []float64
}

// Object is an identified item with a bounding box, the unit of insertion
// and bulk loading.
type Object struct {
	ID     uint32
	Bounds Rect
}

// Bounded is implemented by anything exposing a bounding box.
type Bounded interface {
	Bounds() Rect
}

// NewRect returns a box after checking Min[i] <= Max[i] on every axis.
func NewRect(min, max []float64) (Rect, error) {
	if len(min) != len(max) {
		return Rect{}, fmt.Errorf("%w: %d min coordinates, %d max coordinates", ErrInvalidRect, len(min), len(max))
	}
	for i := range min {
		if min[i] > max[i] || math.IsNaN(min[i]) || math.IsNaN(max[i]) {
			return Rect{}, fmt.Errorf("%w: axis %d: min %v > max %v", ErrInvalidRect, i, min[i], max[i])
		}
	}
	return Rect{Min: slices.Clone(min), Max: slices.Clone(max)}, nil
}

// Point returns the degenerate box covering p.
func Point(p []float64) Rect {
	return Rect{Min: slices.Clone(p), Max: slices.Clone(p)}
}

// Dim returns the dimensionality of the box.
func (r Rect) Dim() int { return len(r.Min) }

// IsEmpty reports whether the box has no coordinates at all.
func (r Rect) IsEmpty() bool { return len(r.Min) == 0 }

// IsPoint reports whether the box is degenerate on every axis.
func (r Rect) IsPoint() bool {
	for i := range r.Min {
		if r.Min[i] != r.Max[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (r Rect) Clone() Rect {
	return Rect{Min: slices.Clone(r.Min), Max: slices.Clone(r.Max)}
}

// Equal reports whether both boxes have identical coordinates.
func (r Rect) Equal(o Rect) bool {
	return slices.Equal(r.Min, o.Min) && slices.Equal(r.Max, o.Max)
}

// Center returns the midpoint of the box on axis d.
func (r Rect) Center(d int) float64 {
	return (r.Min[d] + r.Max[d]) / 2
}

// Union returns the smallest box containing r and o. An empty box acts as
// the identity.
func (r Rect) Union(o Rect) Rect {
	if r.IsEmpty() {
		return o.Clone()
	}
	if o.IsEmpty() {
		return r.Clone()
	}
	u := Rect{Min: make([]float64, len(r.Min)), Max: make([]float64, len(r.Max))}
	for i := range r.Min {
		u.Min[i] = math.Min(r.Min[i], o.Min[i])
		u.Max[i] = math.Max(r.Max[i], o.Max[i])
	}
	return u
}

// Extend grows r in place to cover o. r must not be empty.
func (r Rect) Extend(o Rect) {
	for i := range r.Min {
		if o.Min[i] < r.Min[i] {
			r.Min[i] = o.Min[i]
		}
		if o.Max[i] > r.Max[i] {
			r.Max[i] = o.Max[i]
		}
	}
}

// Area returns the volume of the box (product of side lengths).
func (r Rect) Area() float64 {
	if r.IsEmpty() {
		return 0
	}
	a := 1.0
	for i := range r.Min {
		a *= r.Max[i] - r.Min[i]
	}
	return a
}

// Margin returns the sum of side lengths, the R*-tree perimeter measure.
func (r Rect) Margin() float64 {
	m := 0.0
	for i := range r.Min {
		m += r.Max[i] - r.Min[i]
	}
	return m
}

// Enlargement returns how much r's area grows when extended to cover o.
func (r Rect) Enlargement(o Rect) float64 {
	return r.Union(o).Area() - r.Area()
}

// Overlap returns the volume of the intersection of r and o, 0 if disjoint.
func (r Rect) Overlap(o Rect) float64 {
	v := 1.0
	for i := range r.Min {
		lo := math.Max(r.Min[i], o.Min[i])
		hi := math.Min(r.Max[i], o.Max[i])
		if hi < lo {
			return 0
		}
		v *= hi - lo
	}
	return v
}

// Intersects reports whether the boxes share at least one point.
func (r Rect) Intersects(o Rect) bool {
	for i := range r.Min {
		if r.Min[i] > o.Max[i] || r.Max[i] < o.Min[i] {
			return false
		}
	}
	return true
}

// Contains reports whether o lies completely inside r.
func (r Rect) Contains(o Rect) bool {
	for i := range r.Min {
		if o.Min[i] < r.Min[i] || o.Max[i] > r.Max[i] {
			return false
		}
	}
	return true
}

func (r Rect) String() string {
	return fmt.Sprintf("[%v %v]", r.Min, r.Max)
}

// UnionAll returns the smallest box covering every box in rs.
func UnionAll(rs ...Rect) Rect {
	var u Rect
	for _, r := range rs {
		if r.IsEmpty() {
			continue
		}
		if u.IsEmpty() {
			u = r.Clone()
			continue
		}
		u.Extend(r)
	}
	return u
}
