// Package telemetry exposes simulation measurements as Prometheus metrics.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/WestonVincze/utility-ai/internal/utility"
)

const metricsNamespace = "utility"

// Metrics holds the simulation collectors. It implements engine.Observer.
type Metrics struct {
	// DecisionsTotal counts applied decisions.
	// Labels: action (Eat, Drink, Idle, ...)
	DecisionsTotal *prometheus.CounterVec

	// TickDurationSeconds measures the decide/act phase of one tick.
	TickDurationSeconds prometheus.Histogram

	// AgentsAlive is the living population after the last hourly update.
	AgentsAlive prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics registers the collectors on a private registry, alongside the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		DecisionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "decisions_total",
				Help:      "Decisions applied to agents, by selected action",
			},
			[]string{"action"},
		),
		TickDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "tick_duration_seconds",
				Help:      "Wall time of one sense/decide/act tick",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
		AgentsAlive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "agents_alive",
				Help:      "Number of living agents",
			},
		),
		registry: reg,
	}
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveDecision(action utility.ActionName) {
	m.DecisionsTotal.WithLabelValues(string(action)).Inc()
}

func (m *Metrics) ObserveTick(d time.Duration) {
	m.TickDurationSeconds.Observe(d.Seconds())
}

func (m *Metrics) ObserveAlive(n int) {
	m.AgentsAlive.Set(float64(n))
}
