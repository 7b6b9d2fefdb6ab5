// Package rstar provides a disk-oriented R*-tree spatial index.
//
// A Tree stores objects with multi-dimensional bounding boxes in fixed-size
// pages of a pagefile.PageFile. It supports single-object insertion with
// R*-style node splits, bulk loading with space-filling-curve presorting,
// and range and k-nearest-neighbor queries that return the same ordered
// results as the linear-scan fallback.
//
// # Quick Start
//
//	ctx := context.Background()
//	pf, _ := pagefile.Open(ctx, pagefile.NewMemoryStore())
//	tree, _ := rstar.New(ctx, pf, rstar.WithDimension(2))
//
//	_ = tree.Insert(ctx, spatial.Object{ID: 1, Bounds: spatial.Point([]float64{0, 0})})
//	res, _ := tree.Range(ctx, []float64{0, 0}, 2, distance.Euclidean{})
//
// # Bulk Loading
//
// BulkLoad builds a denser tree from a complete object set. The default
// strategy sorts objects along the Peano curve and cuts the order into
// full nodes:
//
//	tree, _ := rstar.New(ctx, pf, rstar.WithDimension(2),
//	    rstar.WithBulkStrategy(bulk.MaxExtent{}))
//	_ = tree.BulkLoad(ctx, objs)
//
// # Persistence
//
// The tree keeps its root, height and size in the page file header.
// Flush writes dirty pages; Open reloads a flushed tree:
//
//	store, _ := pagefile.OpenFileStore("index.rst", 4096)
//	pf, _ := pagefile.Open(ctx, store)
//	tree, _ := rstar.Open(ctx, pf)
//
// # Concurrency
//
// Mutations follow a single-writer discipline and must be serialized by the
// caller. A failed mutation leaves the tree unchanged.
package rstar
