// Package metrics instruments progress aggregation and its cache.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	invalidations   prometheus.Counter
	computeDuration prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "resimed",
			Subsystem: "progress",
			Name:      "cache_hits_total",
			Help:      "Progress reports served from cache.",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "resimed",
			Subsystem: "progress",
			Name:      "cache_misses_total",
			Help:      "Progress reports recomputed on cache miss.",
		}),
		invalidations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "resimed",
			Subsystem: "progress",
			Name:      "cache_invalidations_total",
			Help:      "Cached progress snapshots dropped after a verification.",
		}),
		computeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "resimed",
			Subsystem: "progress",
			Name:      "compute_duration_seconds",
			Help:      "Time spent aggregating one progress report.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) ObserveCacheHit() { m.cacheHits.Inc() }

func (m *Metrics) ObserveCacheMiss() { m.cacheMisses.Inc() }

func (m *Metrics) ObserveInvalidation() { m.invalidations.Inc() }

func (m *Metrics) ObserveCompute(d time.Duration) {
	m.computeDuration.Observe(d.Seconds())
}
