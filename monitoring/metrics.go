package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sarchlab/cachesim/mem/cache"
)

type metrics struct {
	registry  *prometheus.Registry
	records   prometheus.Counter
	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cachesim",
			Name:      "records_processed_total",
			Help:      "Total number of trace records replayed",
		}),
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cachesim",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of cache hits",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cachesim",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of cache misses",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cachesim",
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Total number of blocks evicted",
		}),
	}

	m.registry.MustRegister(m.records, m.hits, m.misses, m.evictions)

	return m
}

func (m *metrics) observe(outcomes []cache.Outcome) {
	m.records.Inc()

	for _, o := range outcomes {
		switch {
		case o.IsHit():
			m.hits.Inc()
		case o.IsEviction():
			m.misses.Inc()
			m.evictions.Inc()
		default:
			m.misses.Inc()
		}
	}
}
