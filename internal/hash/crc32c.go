package hash

import (
	"hash"
	"hash/crc32"
)

// crc32cTable is pre-computed for the Castagnoli polynomial.
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// CRC32CParts computes the checksum over the concatenation of parts without
// copying them.
func CRC32CParts(parts ...[]byte) uint32 {
	var sum uint32
	for _, p := range parts {
		sum = crc32.Update(sum, crc32cTable, p)
	}
	return sum
}

// Verify reports whether data matches the expected checksum.
func Verify(data []byte, want uint32) bool {
	return CRC32C(data) == want
}

// NewCRC32C returns a new streaming CRC32-Castagnoli hash.Hash32.
func NewCRC32C() hash.Hash32 {
	return crc32.New(crc32cTable)
}
