// Package node defines the vertex and edge model of the page-backed R*-tree.
//
// A Node is a tagged union: its Kind says whether every entry references an
// indexed object (leaf) or a child page (directory). Entries carry their
// bounding box, an id and, for directory entries, the child page id.
//
// Marshal and Unmarshal implement the page payload layout:
//
//	header : kind(1) | flags(1) | count(2) | dim(2) | page id(4)
//	entry  : id(4) | flags(1) | min/max per axis (2*dim float64) | child(4, directory only)
//
// All integers are little endian.
package node
