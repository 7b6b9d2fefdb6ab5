// Package hash provides the checksums used to frame pages on disk.
//
// Every page written by the page file carries a CRC32-Castagnoli (CRC32C)
// checksum of its stored payload. Go's hash/crc32 package uses SSE4.2 or the
// ARM CRC extension when available.
//
//	sum := hash.CRC32C(payload)
//	if !hash.Verify(payload, sum) {
//	    // corrupt page
//	}
package hash
