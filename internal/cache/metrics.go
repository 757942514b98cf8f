package cache

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tphakala/audiosync/internal/errors"
)

// Metrics exposes cache pressure and eviction activity to a prometheus
// registry, grounded on the observability/metrics package's
// New<X>Metrics(registry) constructor pattern.
type Metrics struct {
	bytes          prometheus.Gauge
	evictionsTotal prometheus.Counter
}

// NewMetrics registers the cache's gauges and counters against registry.
func NewMetrics(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		bytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "audiosync_cache_bytes",
			Help: "Total bytes occupied by non-lock cache artifacts across all sessions.",
		}),
		evictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "audiosync_cache_evictions_total",
			Help: "Total number of cache artifacts removed by LRU eviction.",
		}),
	}

	if err := registry.Register(m.bytes); err != nil {
		return nil, errors.Wrap(err).
			Component("cache").
			Category(errors.CategorySystem).
			Build()
	}
	if err := registry.Register(m.evictionsTotal); err != nil {
		return nil, errors.Wrap(err).
			Component("cache").
			Category(errors.CategorySystem).
			Build()
	}

	return m, nil
}
