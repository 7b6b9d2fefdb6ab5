package rstar

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordInsert is called after each insert operation.
	RecordInsert(duration time.Duration, err error)

	// RecordBulkLoad is called after each bulk load with the number of
	// objects loaded.
	RecordBulkLoad(count int, duration time.Duration, err error)

	// RecordSearch is called after each range or kNN search. results is
	// the number of hits returned.
	RecordSearch(results int, duration time.Duration, err error)

	// RecordSplit is called for every node split.
	RecordSplit(leaf bool)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(time.Duration, error)        {}
func (NoopMetricsCollector) RecordBulkLoad(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration, error)   {}
func (NoopMetricsCollector) RecordSplit(bool)                         {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	InsertCount      atomic.Int64
	InsertErrors     atomic.Int64
	InsertTotalNanos atomic.Int64
	BulkLoadCount    atomic.Int64
	BulkLoadObjects  atomic.Int64
	BulkLoadErrors   atomic.Int64
	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchResults    atomic.Int64
	SearchTotalNanos atomic.Int64
	LeafSplits       atomic.Int64
	DirectorySplits  atomic.Int64
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(duration time.Duration, err error) {
	b.InsertCount.Add(1)
	b.InsertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.InsertErrors.Add(1)
	}
}

// RecordBulkLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBulkLoad(count int, _ time.Duration, err error) {
	b.BulkLoadCount.Add(1)
	if err != nil {
		b.BulkLoadErrors.Add(1)
		return
	}
	b.BulkLoadObjects.Add(int64(count))
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(results int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	b.SearchResults.Add(int64(results))
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordSplit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSplit(leaf bool) {
	if leaf {
		b.LeafSplits.Add(1)
	} else {
		b.DirectorySplits.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InsertCount:     b.InsertCount.Load(),
		InsertErrors:    b.InsertErrors.Load(),
		InsertAvgNanos:  avg(b.InsertTotalNanos.Load(), b.InsertCount.Load()),
		BulkLoadCount:   b.BulkLoadCount.Load(),
		BulkLoadObjects: b.BulkLoadObjects.Load(),
		BulkLoadErrors:  b.BulkLoadErrors.Load(),
		SearchCount:     b.SearchCount.Load(),
		SearchErrors:    b.SearchErrors.Load(),
		SearchResults:   b.SearchResults.Load(),
		SearchAvgNanos:  avg(b.SearchTotalNanos.Load(), b.SearchCount.Load()),
		LeafSplits:      b.LeafSplits.Load(),
		DirectorySplits: b.DirectorySplits.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	InsertCount     int64
	InsertErrors    int64
	InsertAvgNanos  int64
	BulkLoadCount   int64
	BulkLoadObjects int64
	BulkLoadErrors  int64
	SearchCount     int64
	SearchErrors    int64
	SearchResults   int64
	SearchAvgNanos  int64
	LeafSplits      int64
	DirectorySplits int64
}
