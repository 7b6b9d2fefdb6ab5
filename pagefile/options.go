package pagefile

import (
	"log/slog"

	"github.com/hupe1980/rstar/internal/resource"
)

// Options configure a PageFile.
type Options struct {
	// PageSize is the byte size of one page. Node capacities are derived
	// from it. Default 4096.
	PageSize int
	// CacheSize is the number of decoded nodes kept in memory. Default 256.
	CacheSize int
	// Compression is applied to page payloads. Default none.
	Compression Compression
	// FlushConcurrency bounds parallel page writes in Flush. Default 4.
	FlushConcurrency int
	// Resource, if set, accounts cached pages against a memory budget,
	// gates flush workers and rate-limits store IO.
	Resource *resource.Controller
	// Logger receives flush and eviction events.
	Logger *slog.Logger
}

// DefaultOptions returns the default page file configuration.
func DefaultOptions() Options {
	return Options{
		PageSize:         4096,
		CacheSize:        256,
		Compression:      CompressionNone,
		FlushConcurrency: 4,
		Logger:           slog.New(slog.DiscardHandler),
	}
}

// WithPageSize sets the page size.
func WithPageSize(n int) func(o *Options) {
	return func(o *Options) { o.PageSize = n }
}

// WithCacheSize sets the node cache size.
func WithCacheSize(n int) func(o *Options) {
	return func(o *Options) { o.CacheSize = n }
}

// WithCompression sets the page codec.
func WithCompression(c Compression) func(o *Options) {
	return func(o *Options) { o.Compression = c }
}

// WithResourceController attaches resource limits.
func WithResourceController(rc *resource.Controller) func(o *Options) {
	return func(o *Options) { o.Resource = rc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}
