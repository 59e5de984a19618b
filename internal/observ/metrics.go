// Package observ holds the Prometheus instrumentation for the evaluation
// engine.
package observ

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// risk-zone engine.
type Metrics struct {
	Evaluations        *prometheus.CounterVec // labels: mode={dynamic,static}, zone_kind={dynamic,static,default}
	UpstreamRequests   *prometheus.CounterVec // labels: endpoint={classify,hazards}, outcome={online,offline_timeout,offline_error}
	EvaluationDuration prometheus.Histogram
	ZoneReloads        *prometheus.CounterVec // labels: outcome={success,error}
	ZonesLoaded        prometheus.Gauge
}

// NewMetrics creates the engine metrics and registers them with the given
// registerer. Pass prometheus.DefaultRegisterer in production.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "riskzone",
			Name:      "evaluations_total",
			Help:      "Completed evaluations by requested mode and resulting zone kind.",
		}, []string{"mode", "zone_kind"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "riskzone",
			Name:      "upstream_requests_total",
			Help:      "External geodata lookups by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		EvaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "riskzone",
			Name:      "evaluation_duration_seconds",
			Help:      "End-to-end duration of one evaluation, including external lookups.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		ZoneReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "riskzone",
			Name:      "zone_reloads_total",
			Help:      "Zone snapshot reload attempts by outcome.",
		}, []string{"outcome"}),
		ZonesLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "riskzone",
			Name:      "zones_loaded",
			Help:      "Number of zones in the live snapshot.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.Evaluations,
			m.UpstreamRequests,
			m.EvaluationDuration,
			m.ZoneReloads,
			m.ZonesLoaded,
		)
	}
	return m
}
