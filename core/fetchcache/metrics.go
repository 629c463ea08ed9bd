package fetchcache

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds the Prometheus collectors shared by every Cache.
type Metrics struct {
	HitsTotal        *prometheus.CounterVec
	MissesTotal      *prometheus.CounterVec
	FetchErrorsTotal *prometheus.CounterVec
	NoDataTotal      *prometheus.CounterVec
	StaleWritesTotal *prometheus.CounterVec
}

// NewMetrics registers the cache metrics with the default registry.
// Registration happens once per process; later calls return the same collectors.
//
// Metrics, all labelled by cache name:
//   - campus_cache_hits_total
//   - campus_cache_misses_total
//   - campus_cache_fetch_errors_total
//   - campus_cache_no_data_total
//   - campus_cache_stale_writes_total
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		labels := []string{"cache"}
		globalMetrics = &Metrics{
			HitsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "campus_cache_hits_total",
					Help: "Total number of loads answered from the cache",
				},
				labels,
			),
			MissesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "campus_cache_misses_total",
					Help: "Total number of loads that required a fetch",
				},
				labels,
			),
			FetchErrorsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "campus_cache_fetch_errors_total",
					Help: "Total number of fetches that failed and were not cached",
				},
				labels,
			),
			NoDataTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "campus_cache_no_data_total",
					Help: "Total number of negative results stored",
				},
				labels,
			),
			StaleWritesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "campus_cache_stale_writes_total",
					Help: "Total number of fetch results dropped after an invalidation",
				},
				labels,
			),
		}
	})
	return globalMetrics
}

func (m *Metrics) inc(vec func(*Metrics) *prometheus.CounterVec, cache string) {
	if m == nil {
		return
	}
	vec(m).WithLabelValues(cache).Inc()
}

func hits(m *Metrics) *prometheus.CounterVec        { return m.HitsTotal }
func misses(m *Metrics) *prometheus.CounterVec      { return m.MissesTotal }
func fetchErrors(m *Metrics) *prometheus.CounterVec { return m.FetchErrorsTotal }
func noData(m *Metrics) *prometheus.CounterVec      { return m.NoDataTotal }
func staleWrites(m *Metrics) *prometheus.CounterVec { return m.StaleWritesTotal }
