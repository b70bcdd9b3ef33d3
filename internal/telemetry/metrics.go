// Package telemetry holds the Prometheus collectors shared across the app.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts successful cache reads per cache type.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ekimeshi",
		Name:      "cache_hits_total",
		Help:      "Number of cache hits by cache type.",
	}, []string{"cache_type"})

	// CacheMisses counts cache reads that fell through to a live fetch.
	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ekimeshi",
		Name:      "cache_misses_total",
		Help:      "Number of cache misses by cache type.",
	}, []string{"cache_type"})

	// ProviderCalls counts outbound places-provider requests per operation
	// and outcome.
	ProviderCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ekimeshi",
		Name:      "provider_calls_total",
		Help:      "Number of outbound provider calls by operation and result.",
	}, []string{"operation", "result"})

	// ExpiredEntriesDeleted counts entries removed by the maintenance sweep.
	ExpiredEntriesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ekimeshi",
		Name:      "cache_expired_deleted_total",
		Help:      "Number of expired cache entries removed by DeleteExpired.",
	})
)
