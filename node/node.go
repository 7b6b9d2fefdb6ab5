package node

import (
	"fmt"
	"slices"

	"github.com/hupe1980/rstar/spatial"
)

// PageID identifies a page in a page file. Page 0 holds the file header and
// never stores a node.
type PageID uint32

// InvalidPage is the zero page id, used as "no child".
const InvalidPage PageID = 0

// Kind tags a node as leaf or directory.
type Kind uint8

const (
	KindLeaf      Kind = 1
	KindDirectory Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindDirectory:
		return "directory"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Flags hold per-entry state maintained by tree variants.
type Flags uint8

const (
	// FlagHandled: the entry (leaf) or some descendant (directory) has been
	// handled by an external join algorithm.
	FlagHandled Flags = 1 << iota
	// FlagUnhandled: the entry (leaf) or some descendant (directory) is
	// still unhandled.
	FlagUnhandled
)

// Has reports whether all bits of f2 are set.
func (f Flags) Has(f2 Flags) bool { return f&f2 == f2 }

// Entry is either a leaf entry (object reference) or a directory entry
// (child page reference).
type Entry struct {
	ID    uint32
	MBR   spatial.Rect
	Child PageID
	Flags Flags
}

// IsLeaf reports whether the entry references an object rather than a page.
func (e Entry) IsLeaf() bool { return e.Child == InvalidPage }

// Bounds implements spatial.Bounded.
func (e Entry) Bounds() spatial.Rect { return e.MBR }

// Clone returns a deep copy.
func (e Entry) Clone() Entry {
	e.MBR = e.MBR.Clone()
	return e
}

func (e Entry) String() string {
	if e.IsLeaf() {
		return fmt.Sprintf("leaf(%d %s)", e.ID, e.MBR)
	}
	return fmt.Sprintf("dir(%d -> %d %s)", e.ID, e.Child, e.MBR)
}

// Node is an ordered collection of entries of uniform kind.
type Node struct {
	PageID   PageID
	Kind     Kind
	Entries  []Entry
	Capacity int
}

// NewLeaf returns an empty leaf node.
func NewLeaf(id PageID, capacity int) *Node {
	return &Node{PageID: id, Kind: KindLeaf, Capacity: capacity, Entries: make([]Entry, 0, capacity+1)}
}

// NewDirectory returns an empty directory node.
func NewDirectory(id PageID, capacity int) *Node {
	return &Node{PageID: id, Kind: KindDirectory, Capacity: capacity, Entries: make([]Entry, 0, capacity+1)}
}

// IsLeaf reports whether the node holds leaf entries.
func (n *Node) IsLeaf() bool { return n.Kind == KindLeaf }

// Len returns the number of entries.
func (n *Node) Len() int { return len(n.Entries) }

// Overflows reports whether the node holds more entries than its capacity.
func (n *Node) Overflows() bool { return len(n.Entries) > n.Capacity }

// Append adds e to the node. The node may transiently overflow.
func (n *Node) Append(e Entry) {
	n.Entries = append(n.Entries, e)
}

// MBR returns the union of all entry boxes.
func (n *Node) MBR() spatial.Rect {
	var u spatial.Rect
	for _, e := range n.Entries {
		if u.IsEmpty() {
			u = e.MBR.Clone()
			continue
		}
		u.Extend(e.MBR)
	}
	return u
}

// IndexOfChild returns the position of the directory entry pointing at
// child, or -1.
func (n *Node) IndexOfChild(child PageID) int {
	return slices.IndexFunc(n.Entries, func(e Entry) bool { return e.Child == child })
}

// HasHandled summarizes FlagHandled over the node's entries.
func (n *Node) HasHandled() bool {
	for _, e := range n.Entries {
		if e.Flags.Has(FlagHandled) {
			return true
		}
	}
	return false
}

// HasUnhandled summarizes FlagUnhandled over the node's entries.
func (n *Node) HasUnhandled() bool {
	for _, e := range n.Entries {
		if e.Flags.Has(FlagUnhandled) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	c := &Node{
		PageID:   n.PageID,
		Kind:     n.Kind,
		Capacity: n.Capacity,
		Entries:  make([]Entry, len(n.Entries), max(len(n.Entries), n.Capacity+1)),
	}
	for i, e := range n.Entries {
		c.Entries[i] = e.Clone()
	}
	return c
}

// Validate checks the uniform-kind invariant and entry dimensionality.
func (n *Node) Validate(dim int) error {
	for i, e := range n.Entries {
		if e.IsLeaf() != n.IsLeaf() {
			return fmt.Errorf("page %d: entry %d kind does not match %s node", n.PageID, i, n.Kind)
		}
		if e.MBR.Dim() != dim {
			return fmt.Errorf("page %d: entry %d has dimension %d, want %d", n.PageID, i, e.MBR.Dim(), dim)
		}
	}
	return nil
}
