// Package distance provides the distance-function capability used by the
// spatial index and the linear-scan fallback.
//
// A Func measures point-to-point distances and the minimum distance from a
// point to a bounding box. The box distance must never exceed the distance
// to any point inside the box; index pruning relies on it.
//
// # Supported Metrics
//
//   - MetricEuclidean: L2 distance (default)
//   - MetricSquaredEuclidean: squared L2, monotone in L2
//   - MetricManhattan: L1 distance
//   - MetricChebyshev: L-infinity (maximum) distance
//   - MetricCosine: cosine distance, non-metric, linear scan only
//
// Minkowski distances of arbitrary order are available through Minkowski.
//
// # Usage
//
//	fn := distance.Euclidean{}
//	d := fn.Distance(a, b)
//	lower := fn.MinDist(a, box)
package distance
