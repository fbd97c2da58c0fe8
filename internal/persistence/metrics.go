package persistence

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Save outcomes used as the result label.
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultAborted = "aborted"
)

// Metrics holds the save counters in a registry of their own, so several
// coordinators (and tests) never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	Saves        *prometheus.CounterVec
	SaveDuration prometheus.Histogram
	InFlight     prometheus.Gauge
}

func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Saves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "saves_total",
				Help:      "Deck saves by outcome",
			},
			[]string{"result"},
		),
		SaveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "save_duration_seconds",
				Help:      "Time spent in the store's save call",
				Buckets:   prometheus.DefBuckets,
			},
		),
		InFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "saves_in_flight",
				Help:      "Saves currently waiting on the store",
			},
		),
	}
	m.registry.MustRegister(m.Saves, m.SaveDuration, m.InFlight)
	return m
}

// Registry exposes the collector's registry for scraping.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
