package main

import (
	"time"

	"github.com/hupe1980/rstar"
	"github.com/prometheus/client_golang/prometheus"
)

// Compile time check to ensure promMetrics satisfies the MetricsCollector interface.
var _ rstar.MetricsCollector = (*promMetrics)(nil)

// promMetrics implements rstar.MetricsCollector with Prometheus collectors.
type promMetrics struct {
	opLatency *prometheus.HistogramVec
	results   prometheus.Counter
	objects   prometheus.Counter
	splits    *prometheus.CounterVec
}

func newPromMetrics(reg prometheus.Registerer) *promMetrics {
	m := &promMetrics{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rstar_operation_latency_seconds",
			Help:    "Latency of tree operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "status"}),
		results: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rstar_search_results_total",
			Help: "Total results returned by searches",
		}),
		objects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rstar_bulk_loaded_objects_total",
			Help: "Total objects added by bulk loads",
		}),
		splits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rstar_node_splits_total",
			Help: "Total node splits",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.opLatency, m.results, m.objects, m.splits)
	return m
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *promMetrics) RecordInsert(d time.Duration, err error) {
	m.opLatency.WithLabelValues("insert", status(err)).Observe(d.Seconds())
}

func (m *promMetrics) RecordBulkLoad(count int, d time.Duration, err error) {
	m.opLatency.WithLabelValues("bulk_load", status(err)).Observe(d.Seconds())
	if err == nil {
		m.objects.Add(float64(count))
	}
}

func (m *promMetrics) RecordSearch(results int, d time.Duration, err error) {
	m.opLatency.WithLabelValues("search", status(err)).Observe(d.Seconds())
	m.results.Add(float64(results))
}

func (m *promMetrics) RecordSplit(leaf bool) {
	kind := "directory"
	if leaf {
		kind = "leaf"
	}
	m.splits.WithLabelValues(kind).Inc()
}
