package dashboard

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	buildDuration prometheus.Histogram
	cacheResults  *prometheus.CounterVec
	exports       prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "labdash",
			Subsystem: "dashboard",
			Name:      "build_duration_seconds",
			Help:      "Time spent computing the dashboard from the database",
			Buckets:   prometheus.DefBuckets,
		}),
		cacheResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labdash",
			Subsystem: "dashboard",
			Name:      "cache_requests_total",
			Help:      "Dashboard cache lookups by result",
		}, []string{"result"}),
		exports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "labdash",
			Subsystem: "dashboard",
			Name:      "exports_total",
			Help:      "Number of XLSX exports generated",
		}),
	}
	reg.MustRegister(m.buildDuration, m.cacheResults, m.exports)
	return m
}

func (m *Metrics) observeBuild(seconds float64) {
	if m != nil {
		m.buildDuration.Observe(seconds)
	}
}

func (m *Metrics) cacheResult(result string) {
	if m != nil {
		m.cacheResults.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) exported() {
	if m != nil {
		m.exports.Inc()
	}
}
