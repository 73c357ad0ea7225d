// Package metrics provides Prometheus metrics for glacier-server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RefreshRuns counts refresh cycles by outcome.
	RefreshRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glacier",
			Name:      "refresh_runs_total",
			Help:      "Total number of news refresh cycles",
		},
		[]string{"status"},
	)

	// RefreshDuration measures a full refresh cycle.
	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "glacier",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of news refresh cycles in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// ArticlesStored is the size of the news collection after the last replace.
	ArticlesStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "glacier",
			Name:      "news_articles_stored",
			Help:      "Number of articles written by the last successful refresh",
		},
	)

	// BlogOperations counts blog pipeline operations.
	BlogOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glacier",
			Name:      "blog_operations_total",
			Help:      "Total number of blog create/delete operations",
		},
		[]string{"operation", "status"},
	)
)

// Refresh status labels.
const (
	StatusOK       = "ok"
	StatusEmpty    = "empty"
	StatusUpstream = "upstream_error"
	StatusStore    = "store_error"
)

// RecordRefresh records the outcome of one refresh cycle.
func RecordRefresh(status string, seconds float64) {
	RefreshRuns.WithLabelValues(status).Inc()
	RefreshDuration.Observe(seconds)
}

// RecordBlog records a blog pipeline operation.
func RecordBlog(operation, status string) {
	BlogOperations.WithLabelValues(operation, status).Inc()
}
