package rstar

import (
	"github.com/hupe1980/rstar/node"
	"github.com/hupe1980/rstar/spatial"
)

// Hooks create the entries stored in tree nodes. Tree variants use them to
// attach extra per-entry state. DirectoryEntry is only called when an
// entry is created: for a new root, for both halves of a split and during
// bulk loading. Later changes to a child only update the entry's box.
type Hooks interface {
	LeafEntry(obj spatial.Object) node.Entry
	DirectoryEntry(child *node.Node) node.Entry
}

// DefaultHooks create plain entries without flags.
type DefaultHooks struct{}

func (DefaultHooks) LeafEntry(obj spatial.Object) node.Entry {
	return node.Entry{ID: obj.ID, MBR: obj.Bounds.Clone()}
}

// DirectoryEntry uses the child page id as entry id.
func (DefaultHooks) DirectoryEntry(child *node.Node) node.Entry {
	return node.Entry{ID: uint32(child.PageID), MBR: child.MBR(), Child: child.PageID}
}
