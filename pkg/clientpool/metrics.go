package clientpool

import "github.com/prometheus/client_golang/prometheus"

// poolMetrics exposes pool statistics as Prometheus metrics
type poolMetrics struct {
	hits    prometheus.Counter
	misses  prometheus.Counter
	creates prometheus.Counter
	size    prometheus.Gauge
}

// WithMetrics registers pool metrics with the given registerer under the
// given prefix. Registration failures panic via MustRegister; supply a
// fresh registry per pool in tests.
func WithMetrics[T any](reg prometheus.Registerer, prefix string) Option[T] {
	return func(p *Pool[T]) {
		if reg == nil || prefix == "" {
			return
		}
		m := &poolMetrics{
			hits: prometheus.NewCounter(prometheus.CounterOpts{
				Name: prefix + "_hits_total",
				Help: "Total pool lookups served from an existing handle",
			}),
			misses: prometheus.NewCounter(prometheus.CounterOpts{
				Name: prefix + "_misses_total",
				Help: "Total pool lookups that required handle creation",
			}),
			creates: prometheus.NewCounter(prometheus.CounterOpts{
				Name: prefix + "_creates_total",
				Help: "Total client handles constructed",
			}),
			size: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: prefix + "_size",
				Help: "Current number of pooled client handles",
			}),
		}
		reg.MustRegister(m.hits, m.misses, m.creates, m.size)
		p.metrics = m
	}
}
