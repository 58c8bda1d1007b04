package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ProfilesCreated     prometheus.Counter
	ProfilesDeleted     prometheus.Counter
	CacheHits           prometheus.Counter
	CacheMisses         prometheus.Counter
	CacheBypass         prometheus.Counter
	CacheInvalidations  prometheus.Counter
	DerivationDuration  prometheus.Histogram
	ChangefeedPublished prometheus.Counter
	ChangefeedConsumed  prometheus.Counter
	ChangefeedErrors    prometheus.Counter
	FieldParseFailures  prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ProfilesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "casefile_profiles_created_total",
			Help: "Total number of profiles created",
		}),
		ProfilesDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "casefile_profiles_deleted_total",
			Help: "Total number of profiles deleted",
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "casefile_derived_cache_hits_total",
			Help: "Derived-value cache lookups served from the cache",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "casefile_derived_cache_misses_total",
			Help: "Derived-value cache lookups that required computation",
		}),
		CacheBypass: promauto.NewCounter(prometheus.CounterOpts{
			Name: "casefile_derived_cache_bypass_total",
			Help: "Derived-value reads that bypassed the cache for new or dirty profiles",
		}),
		CacheInvalidations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "casefile_derived_cache_invalidations_total",
			Help: "Cache invalidations applied, local and changefeed-driven",
		}),
		DerivationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "casefile_derivation_duration_seconds",
			Help:    "Time spent computing derived profile state",
			Buckets: prometheus.DefBuckets,
		}),
		ChangefeedPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "casefile_changefeed_published_total",
			Help: "Changefeed events published",
		}),
		ChangefeedConsumed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "casefile_changefeed_consumed_total",
			Help: "Changefeed events consumed by the invalidator",
		}),
		ChangefeedErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "casefile_changefeed_errors_total",
			Help: "Changefeed publish or consume failures",
		}),
		FieldParseFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "casefile_field_parse_failures_total",
			Help: "Profile field updates rejected for unparseable input",
		}),
	}
}

// ObserveDerivation records the duration of one derivation run.
func (m *Metrics) ObserveDerivation(d time.Duration) {
	m.DerivationDuration.Observe(d.Seconds())
}

// IncrementProfilesCreated increments the profiles created counter by 1.
func (m *Metrics) IncrementProfilesCreated() {
	m.ProfilesCreated.Inc()
}
