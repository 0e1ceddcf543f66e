package recurrence

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// engineMetrics holds the collectors of one Engine. They are registered on
// the configured Registerer; without one they still count but are not
// exported.
type engineMetrics struct {
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	expansions        prometheus.Counter
	expansionDuration prometheus.Histogram
}

func newEngineMetrics(reg prometheus.Registerer) *engineMetrics {
	factory := promauto.With(reg)
	return &engineMetrics{
		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "librrule_engine_cache_hits_total",
			Help: "Total number of engine cache hits.",
		}, []string{"operation"}),

		cacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "librrule_engine_cache_misses_total",
			Help: "Total number of engine cache misses.",
		}, []string{"operation"}),

		expansions: factory.NewCounter(prometheus.CounterOpts{
			Name: "librrule_engine_expansions_total",
			Help: "Total number of recurrence expansions computed.",
		}),

		expansionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "librrule_engine_expansion_duration_seconds",
			Help:    "Histogram of recurrence expansion latencies.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *engineMetrics) observeExpansion(start time.Time) {
	m.expansions.Inc()
	m.expansionDuration.Observe(time.Since(start).Seconds())
}
