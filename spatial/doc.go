// Package spatial provides the axis-aligned bounding box (MBR) value type
// shared by every index structure in rstar.
//
// A Rect holds one min and one max coordinate per axis. Degenerate boxes
// (Min == Max on every axis) are valid and represent single points.
//
//	r, err := spatial.NewRect([]float64{0, 0}, []float64{1, 2})
//	p := spatial.Point([]float64{5, 5})
//	u := r.Union(p)
package spatial
