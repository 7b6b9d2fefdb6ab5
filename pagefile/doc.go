// Package pagefile maps page ids to serialized tree nodes.
//
// A PageFile sits on a PageStore (memory, a local file of fixed-size slots,
// or a blob store) and keeps a bounded LRU cache of decoded nodes. Reads
// return private copies and writes replace the cached copy, so a node that
// is still being modified by the tree is never visible to write-back. Dirty
// nodes reach the store when they are evicted or on Flush.
//
// # Page frame
//
// Every stored page is framed as
//
//	checksum(4) | codec(1) | kind(1) | reserved(2) | raw length(4) | payload
//
// where checksum is CRC32C over everything after it and payload is the node
// encoding from package node, optionally compressed with LZ4, Zstandard or
// Snappy. Frames whose checksum, codec or node encoding do not verify are
// reported as *CorruptPageError.
//
// # Header
//
// Page 0 is reserved for the file header: page size, next unused page id,
// the free-page set (a roaring bitmap) and opaque client metadata. The tree
// stores its root, height and capacities there. Freed ids are reused lowest
// first.
package pagefile
