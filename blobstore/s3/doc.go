// Package s3 stores tree pages in Amazon S3.
//
//	store, err := s3.New(ctx, "spatial-indexes",
//	    s3.WithPrefix("parcels/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
// Pages are uploaded with a CRC32C checksum that S3 verifies server side.
// Reads use ranged GETs.
//
// S3 has no compare-and-swap, so two writers flushing the same tree could
// each overwrite the other's header. CommitStore moves the header blob into
// DynamoDB and commits it with a conditional write; a losing writer gets
// ErrConcurrentModification instead of silently clobbering the root.
package s3
