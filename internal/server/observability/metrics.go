package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the API server.
type Metrics struct {
	RecognizeRequests *prometheus.CounterVec // labels: outcome={success,no_cloud,duplicate,upstream_error,timeout,bad_request}
	VisionAPIDuration prometheus.Histogram

	LitEvents    prometheus.Counter
	CooldownHits prometheus.Counter
	Unlocks      *prometheus.CounterVec // labels: result={success,insufficient,already_lit}
	Migrations   *prometheus.CounterVec // labels: result={applied,skipped}
}

// NewMetrics creates and registers all server metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.RecognizeRequests,
		m.VisionAPIDuration,
		m.LitEvents,
		m.CooldownHits,
		m.Unlocks,
		m.Migrations,
	)

	return m
}

// NewMetricsForTesting creates Metrics with unregistered collectors to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RecognizeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skydex",
			Name:      "recognize_requests_total",
			Help:      "Photo recognition requests by outcome.",
		}, []string{"outcome"}),
		VisionAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "skydex",
			Name:      "vision_api_duration_seconds",
			Help:      "Vision-language API request duration in seconds.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}),
		LitEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "skydex",
			Name:      "lit_events_total",
			Help:      "Total card lighting events, including cooldown hits.",
		}),
		CooldownHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "skydex",
			Name:      "cooldown_hits_total",
			Help:      "Lighting events that fell inside the scoring cooldown.",
		}),
		Unlocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skydex",
			Name:      "unlocks_total",
			Help:      "Card unlock attempts by result.",
		}, []string{"result"}),
		Migrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skydex",
			Name:      "migrations_total",
			Help:      "Legacy local-state migration attempts by result.",
		}, []string{"result"}),
	}
}
