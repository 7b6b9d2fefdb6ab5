package rstar

import (
	"github.com/hupe1980/rstar/bulk"
)

// DefaultMinFill is the minimum fraction of a node's capacity that each
// group of a split receives.
const DefaultMinFill = 0.4

// Options configure a Tree.
type Options struct {
	// Dimension of every object. Required by New; Open checks it when set.
	Dimension int

	// LeafCapacity is the maximum number of objects per leaf. Zero derives
	// the largest capacity that fits in one page.
	LeafCapacity int

	// DirCapacity is the maximum number of children per directory node.
	// Zero derives the largest capacity that fits in one page.
	DirCapacity int

	// MinFill is the minimum split group size as a fraction of capacity.
	MinFill float64

	// BulkStrategy partitions each level during bulk loading.
	BulkStrategy bulk.Strategy

	// Hooks create leaf and directory entries.
	Hooks Hooks

	Logger  *Logger
	Metrics MetricsCollector
}

// DefaultOptions returns the defaults used by New and Open.
func DefaultOptions() Options {
	return Options{
		MinFill:      DefaultMinFill,
		BulkStrategy: bulk.SortTrisect{},
		Hooks:        DefaultHooks{},
		Logger:       NoopLogger(),
		Metrics:      NoopMetricsCollector{},
	}
}

// WithDimension sets the object dimensionality.
func WithDimension(dim int) func(o *Options) {
	return func(o *Options) { o.Dimension = dim }
}

// WithCapacity sets the leaf and directory capacities.
func WithCapacity(leaf, dir int) func(o *Options) {
	return func(o *Options) {
		o.LeafCapacity = leaf
		o.DirCapacity = dir
	}
}

// WithMinFill sets the minimum split fill fraction.
func WithMinFill(f float64) func(o *Options) {
	return func(o *Options) { o.MinFill = f }
}

// WithBulkStrategy sets the bulk load partitioning strategy.
func WithBulkStrategy(s bulk.Strategy) func(o *Options) {
	return func(o *Options) { o.BulkStrategy = s }
}

// WithHooks sets the entry factory.
func WithHooks(h Hooks) func(o *Options) {
	return func(o *Options) { o.Hooks = h }
}

// WithLogger sets the logger.
func WithLogger(l *Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m MetricsCollector) func(o *Options) {
	return func(o *Options) { o.Metrics = m }
}
