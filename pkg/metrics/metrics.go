// Package metrics registers the Prometheus collectors shared by the harvester,
// the migrator and the HTTP surface.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// APIRequests counts YouTube Data API calls by resource and outcome.
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytharvest_api_requests_total",
			Help: "YouTube Data API requests, by resource and outcome.",
		},
		[]string{"resource", "outcome"},
	)

	// HarvestRuns counts harvest runs by final outcome (ok, exists, failed).
	HarvestRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytharvest_harvest_runs_total",
			Help: "Harvest runs, by outcome.",
		},
		[]string{"outcome"},
	)

	// CommentFetchFailures counts per-video comment fetches downgraded to zero comments.
	CommentFetchFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ytharvest_comment_fetch_failures_total",
			Help: "Per-video comment fetches that failed and contributed no comments.",
		},
	)

	// MigratedRows counts relational rows actually inserted, by table.
	MigratedRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytharvest_migrated_rows_total",
			Help: "Rows inserted into the relational store, by table.",
		},
		[]string{"table"},
	)

	// RequestDuration observes HTTP handler latency by route, method and status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ytharvest_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by route, method and status.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)

	// CacheHits and CacheMisses track the analytics Redis cache.
	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ytharvest_cache_hits_total",
			Help: "Analytics cache hits.",
		},
	)
	CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ytharvest_cache_misses_total",
			Help: "Analytics cache misses.",
		},
	)
)

// Register adds all collectors to reg. Registering twice is not an error.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		APIRequests, HarvestRuns, CommentFetchFailures, MigratedRows, RequestDuration, CacheHits, CacheMisses,
	} {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}
