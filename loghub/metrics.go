package loghub

import "github.com/prometheus/client_golang/prometheus"

// readerMetrics instruments one reader instance. Metrics are optional and
// only registered when the caller supplies a Registerer.
type readerMetrics struct {
	remoteCalls          *prometheus.CounterVec
	retries              prometheus.Counter
	histogramQueries     prometheus.Counter
	incompleteHistograms prometheus.Counter
	rateLimitDuration    prometheus.Histogram
}

func newReaderMetrics(reg prometheus.Registerer) *readerMetrics {
	m := &readerMetrics{
		remoteCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loghub_reader_remote_calls_total",
			Help: "Total remote client calls by operation",
		}, []string{"op"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loghub_reader_retries_total",
			Help: "Total retry attempts across all operations",
		}),
		histogramQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loghub_reader_histogram_queries_total",
			Help: "Total histogram range queries issued",
		}),
		incompleteHistograms: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loghub_reader_incomplete_histograms_total",
			Help: "Histogram batches still incomplete after bounded re-queries",
		}),
		rateLimitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "loghub_reader_rate_limit_duration_seconds",
			Help:    "Time spent computing safe ending positions",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0},
		}),
	}
	reg.MustRegister(
		m.remoteCalls,
		m.retries,
		m.histogramQueries,
		m.incompleteHistograms,
		m.rateLimitDuration,
	)
	return m
}

func (m *readerMetrics) call(op string) {
	if m != nil {
		m.remoteCalls.WithLabelValues(op).Inc()
	}
}
