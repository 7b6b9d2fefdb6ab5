package node

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/rstar/spatial"
)

const (
	// HeaderSize is the fixed size of the node header in bytes.
	HeaderSize = 10

	entryFixedSize = 4 + 1
	childSize      = 4
)

// ErrMalformed is returned by Unmarshal when a payload cannot be decoded.
var ErrMalformed = errors.New("malformed node payload")

// EntrySize returns the encoded size of one entry of the given kind.
func EntrySize(kind Kind, dim int) int {
	size := entryFixedSize + 2*dim*8
	if kind == KindDirectory {
		size += childSize
	}
	return size
}

// EncodedSize returns the payload size of a node with count entries.
func EncodedSize(kind Kind, dim, count int) int {
	return HeaderSize + count*EntrySize(kind, dim)
}

// MaxEntries returns how many entries of the given kind fit in budget bytes.
func MaxEntries(kind Kind, dim, budget int) int {
	if budget < HeaderSize || dim <= 0 {
		return 0
	}
	return (budget - HeaderSize) / EntrySize(kind, dim)
}

// Marshal encodes n using dim coordinates per axis bound.
func Marshal(n *Node, dim int) ([]byte, error) {
	if n.Kind != KindLeaf && n.Kind != KindDirectory {
		return nil, fmt.Errorf("node %d: unknown kind %d", n.PageID, n.Kind)
	}
	if len(n.Entries) > math.MaxUint16 {
		return nil, fmt.Errorf("node %d: %d entries exceed page format limit", n.PageID, len(n.Entries))
	}

	buf := make([]byte, EncodedSize(n.Kind, dim, len(n.Entries)))
	buf[0] = byte(n.Kind)
	buf[1] = 0 // reserved
	binary.LittleEndian.PutUint16(buf[2:], uint16(len(n.Entries)))
	binary.LittleEndian.PutUint16(buf[4:], uint16(dim))
	binary.LittleEndian.PutUint32(buf[6:], uint32(n.PageID))

	off := HeaderSize
	for i, e := range n.Entries {
		if e.MBR.Dim() != dim {
			return nil, fmt.Errorf("node %d: entry %d has dimension %d, want %d", n.PageID, i, e.MBR.Dim(), dim)
		}
		binary.LittleEndian.PutUint32(buf[off:], e.ID)
		buf[off+4] = byte(e.Flags)
		off += entryFixedSize
		for d := 0; d < dim; d++ {
			binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(e.MBR.Min[d]))
			binary.LittleEndian.PutUint64(buf[off+8:], math.Float64bits(e.MBR.Max[d]))
			off += 16
		}
		if n.Kind == KindDirectory {
			if e.Child == InvalidPage {
				return nil, fmt.Errorf("node %d: directory entry %d has no child", n.PageID, i)
			}
			binary.LittleEndian.PutUint32(buf[off:], uint32(e.Child))
			off += childSize
		}
	}
	return buf, nil
}

// Unmarshal decodes a payload produced by Marshal. The returned node has
// capacity set to the given value.
func Unmarshal(data []byte, capacity int) (*Node, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, header needs %d", ErrMalformed, len(data), HeaderSize)
	}
	kind := Kind(data[0])
	if kind != KindLeaf && kind != KindDirectory {
		return nil, fmt.Errorf("%w: unknown kind %d", ErrMalformed, data[0])
	}
	count := int(binary.LittleEndian.Uint16(data[2:]))
	dim := int(binary.LittleEndian.Uint16(data[4:]))
	id := PageID(binary.LittleEndian.Uint32(data[6:]))

	if want := EncodedSize(kind, dim, count); len(data) < want {
		return nil, fmt.Errorf("%w: %d bytes, %d entries need %d", ErrMalformed, len(data), count, want)
	}

	n := &Node{
		PageID:   id,
		Kind:     kind,
		Capacity: capacity,
		Entries:  make([]Entry, count, max(count, capacity+1)),
	}
	off := HeaderSize
	for i := 0; i < count; i++ {
		e := Entry{
			ID:    binary.LittleEndian.Uint32(data[off:]),
			Flags: Flags(data[off+4]),
			MBR:   spatial.Rect{Min: make([]float64, dim), Max: make([]float64, dim)},
		}
		off += entryFixedSize
		for d := 0; d < dim; d++ {
			e.MBR.Min[d] = math.Float64frombits(binary.LittleEndian.Uint64(data[off:]))
			e.MBR.Max[d] = math.Float64frombits(binary.LittleEndian.Uint64(data[off+8:]))
			if e.MBR.Min[d] > e.MBR.Max[d] {
				return nil, fmt.Errorf("%w: entry %d axis %d has min > max", ErrMalformed, i, d)
			}
			off += 16
		}
		if kind == KindDirectory {
			e.Child = PageID(binary.LittleEndian.Uint32(data[off:]))
			if e.Child == InvalidPage {
				return nil, fmt.Errorf("%w: directory entry %d has no child", ErrMalformed, i)
			}
			off += childSize
		}
		n.Entries[i] = e
	}
	return n, nil
}
