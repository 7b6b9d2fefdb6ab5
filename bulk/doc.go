// Package bulk partitions presorted entries into node-sized groups for one
// level of a bulk-loaded tree.
package bulk
