// Package testutil provides testing utilities for rstar.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random points and boxes and for
// checking query results against an exact reference.
//
// # Random Data
//
//	rng := testutil.NewRNG(seed)
//	pts := rng.UniformPoints(1000, 2)        // uniform in [0, 1)^2
//	boxes := rng.UniformBoxes(1000, 3, 0.01) // small boxes
//	dup := testutil.DuplicatePoints(50, []float64{1, 1})
//
// # Exact Search (Ground Truth)
//
//	want := testutil.ExactRange(objs, q, 0.1, distance.Euclidean{})
//	want := testutil.ExactKNN(objs, q, 10, distance.Euclidean{})
package testutil
