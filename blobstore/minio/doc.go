// Package minio stores tree pages in MinIO or any S3-compatible service
// through the MinIO Go client.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "spatial", "parcels/")
//	pf, err := pagefile.Open(ctx, pagefile.NewBlobPageStore(store, ""), pagefile.DefaultOptions())
//
// Unlike the s3 package it pulls in no AWS SDK dependencies.
package minio
