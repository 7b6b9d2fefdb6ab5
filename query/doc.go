// Package query defines the search contract shared by the tree index and
// the linear-scan fallback, so that either can answer the same range and
// k-nearest-neighbor queries with identical, deterministically ordered
// results.
package query
