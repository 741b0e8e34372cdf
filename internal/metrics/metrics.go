// Package metrics exposes outcome and replay counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SmitUplenchwar2687/httpcopy/internal/recorder"
)

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	events        *prometheus.CounterVec
	replayLatency prometheus.Histogram
	shadowBytes   prometheus.Counter
}

// New registers the collectors. inFlight, if non-nil, is sampled on scrape.
func New(inFlight func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "httpcopy",
			Name:      "events_total",
			Help:      "Outcome events by kind and quarantine category.",
		}, []string{"kind", "category"}),
		replayLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "httpcopy",
			Name:      "replay_duration_seconds",
			Help:      "Time from connect to end of shadow response capture.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		shadowBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "httpcopy",
			Name:      "shadow_response_bytes_total",
			Help:      "Bytes captured from the shadow server.",
		}),
	}
	m.registry.MustRegister(m.events, m.replayLatency, m.shadowBytes)

	if inFlight != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "httpcopy",
			Name:      "replays_in_flight",
			Help:      "Replays currently connected to the shadow server.",
		}, func() float64 { return float64(inFlight()) }))
	}
	return m
}

// Observe implements recorder.Observer.
func (m *Metrics) Observe(ev recorder.Event) {
	m.events.WithLabelValues(string(ev.Kind), ev.Category).Inc()
	if ev.Kind == recorder.KindReplayed {
		m.replayLatency.Observe(ev.Duration.Seconds())
		m.shadowBytes.Add(float64(ev.Bytes))
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
