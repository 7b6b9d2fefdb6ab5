package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/hupe1980/rstar/blobstore"
	miniostore "github.com/hupe1980/rstar/blobstore/minio"
	s3store "github.com/hupe1980/rstar/blobstore/s3"
	"github.com/hupe1980/rstar/internal/cache"
	"github.com/hupe1980/rstar/internal/resource"
	"github.com/hupe1980/rstar/pagefile"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	backendFile  = "file"
	backendDir   = "dir"
	backendMinIO = "minio"
	backendS3    = "s3"
)

// storeFlags select and configure the page store shared by all commands
// that open an index.
type storeFlags struct {
	backend     string
	path        string
	prefix      string
	endpoint    string
	region      string
	secure      bool
	pageSize    int
	cacheSize   int
	compression string
	memLimit    int64
	ioLimit     int64
	blockCache  int64
	commitTable string
	verbose     bool
}

func (s *storeFlags) register(set *flag.FlagSet) {
	set.StringVar(&s.backend, "store", backendFile, "page store: file, dir, minio or s3")
	set.StringVar(&s.path, "path", "index.rst", "index file, directory, or bucket")
	set.StringVar(&s.prefix, "prefix", "", "key prefix for dir, minio and s3 stores")
	set.StringVar(&s.endpoint, "endpoint", "", "minio or s3 endpoint")
	set.StringVar(&s.region, "region", "", "s3 region")
	set.BoolVar(&s.secure, "secure", true, "use TLS for minio")
	set.IntVar(&s.pageSize, "page-size", 4096, "page size in bytes")
	set.IntVar(&s.cacheSize, "cache", 1024, "node cache size")
	set.StringVar(&s.compression, "compression", "none", "page compression: none, lz4, zstd or snappy")
	set.Int64Var(&s.memLimit, "mem-limit", 0, "node cache memory limit in bytes (0 = unlimited)")
	set.Int64Var(&s.ioLimit, "io-limit", 0, "page store throughput limit in bytes/s (0 = unlimited)")
	set.Int64Var(&s.blockCache, "block-cache", 64<<20, "block cache size for dir, minio and s3 stores")
	set.StringVar(&s.commitTable, "ddb-table", "", "dynamodb table committing the s3 header (optional)")
	set.BoolVar(&s.verbose, "v", false, "verbose logging")
}

func (s *storeFlags) logger() *slog.Logger {
	level := slog.LevelWarn
	if s.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openPageFile opens the configured store and a page file on top of it.
// The returned close function releases everything opened here.
func (s *storeFlags) openPageFile(ctx context.Context, readOnly bool) (*pagefile.PageFile, func() error, error) {
	store, release, err := s.openStore(ctx, readOnly)
	if err != nil {
		return nil, nil, err
	}

	comp, err := pagefile.ParseCompression(s.compression)
	if err != nil {
		return nil, nil, errors.Join(err, release())
	}
	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:   s.memLimit,
		MaxFlushWorkers:    4,
		IOLimitBytesPerSec: s.ioLimit,
	})

	pf, err := pagefile.Open(ctx, store,
		pagefile.WithPageSize(s.pageSize),
		pagefile.WithCacheSize(s.cacheSize),
		pagefile.WithCompression(comp),
		pagefile.WithResourceController(rc),
		pagefile.WithLogger(s.logger()),
	)
	if err != nil {
		return nil, nil, errors.Join(err, store.Close(), release())
	}

	closeFn := func() error {
		err := pf.Close()
		if errors.Is(err, pagefile.ErrClosed) {
			err = nil
		}
		return errors.Join(err, release())
	}
	return pf, closeFn, nil
}

func (s *storeFlags) openStore(ctx context.Context, readOnly bool) (pagefile.PageStore, func() error, error) {
	noop := func() error { return nil }

	if s.backend == backendFile {
		fst, err := pagefile.OpenFileStore(s.path, s.pageSize, func(o *pagefile.FileStoreOptions) {
			o.ReadOnly = readOnly
		})
		if err != nil {
			return nil, nil, err
		}
		return fst, noop, nil
	}

	var blobs blobstore.BlobStore
	switch s.backend {
	case backendDir:
		if err := os.MkdirAll(s.path, 0o755); err != nil {
			return nil, nil, err
		}
		blobs = blobstore.NewLocalStore(s.path)
	case backendMinIO:
		client, err := minio.New(s.endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"), ""),
			Secure: s.secure,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("minio client: %w", err)
		}
		blobs = miniostore.NewStore(client, s.path, "")
	case backendS3:
		var opts []func(o *s3store.Options)
		if s.region != "" {
			opts = append(opts, s3store.WithRegion(s.region))
		}
		if s.endpoint != "" {
			opts = append(opts, s3store.WithEndpoint(s.endpoint))
		}
		st, err := s3store.New(ctx, s.path, opts...)
		if err != nil {
			return nil, nil, err
		}
		blobs = st
	default:
		return nil, nil, fmt.Errorf("unknown store %q", s.backend)
	}

	release := noop
	if s.blockCache > 0 {
		bc, err := cache.NewRistrettoBlockCache(s.blockCache)
		if err != nil {
			return nil, nil, err
		}
		blobs = blobstore.NewCachingStore(blobs, bc, int64(s.pageSize))
		release = bc.Close
	}

	pages := pagefile.NewBlobPageStore(blobs, s.prefix)
	if s.backend == backendS3 && s.commitTable != "" {
		ddb, err := s3store.NewDDBClient(ctx, s3store.WithRegion(s.region))
		if err != nil {
			return nil, nil, errors.Join(err, release())
		}
		// The header bypasses the block cache so every open sees the
		// latest committed version.
		uri := fmt.Sprintf("s3://%s/%s", s.path, s.prefix)
		commits := s3store.NewCommitStore(blobs, ddb, s.commitTable, uri, pages.BlobName(pagefile.HeaderPage))
		pages = pagefile.NewBlobPageStore(commits, s.prefix)
	}
	return pages, release, nil
}
