// Package metrics provides Prometheus metrics for seotrack.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	MeasurementsTotal *prometheus.CounterVec
	EvaluationsTotal  *prometheus.CounterVec
	DashboardDuration prometheus.Histogram
	ErrorsTotal       *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seotrack_requests_total",
				Help: "Total number of API requests by route and status.",
			},
			[]string{"route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "seotrack_request_duration_seconds",
				Help:    "Request processing duration by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		MeasurementsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seotrack_measurements_total",
				Help: "Measurement submissions by outcome (recorded, deduplicated).",
			},
			[]string{"outcome"},
		),
		EvaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seotrack_evaluations_total",
				Help: "Objective evaluations by resulting status.",
			},
			[]string{"status"},
		),
		DashboardDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "seotrack_dashboard_scan_duration_seconds",
				Help:    "Full dashboard aggregation duration.",
				Buckets: prometheus.DefBuckets,
			},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seotrack_errors_total",
				Help: "Total errors by module and type.",
			},
			[]string{"module", "type"},
		),
		registry: reg,
	}

	reg.MustRegister(m.RequestsTotal)
	reg.MustRegister(m.RequestDuration)
	reg.MustRegister(m.MeasurementsTotal)
	reg.MustRegister(m.EvaluationsTotal)
	reg.MustRegister(m.DashboardDuration)
	reg.MustRegister(m.ErrorsTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest increments the request counter.
func (m *Metrics) RecordRequest(route, status string) {
	m.RequestsTotal.WithLabelValues(route, status).Inc()
}

// RecordMeasurement increments the measurement counter.
func (m *Metrics) RecordMeasurement(outcome string) {
	m.MeasurementsTotal.WithLabelValues(outcome).Inc()
}

// RecordEvaluation increments the evaluation counter.
func (m *Metrics) RecordEvaluation(status string) {
	m.EvaluationsTotal.WithLabelValues(status).Inc()
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(module, errType string) {
	m.ErrorsTotal.WithLabelValues(module, errType).Inc()
}

// ObserveDuration records request duration.
func (m *Metrics) ObserveDuration(route string, seconds float64) {
	m.RequestDuration.WithLabelValues(route).Observe(seconds)
}

// ObserveDashboardScan records a dashboard aggregation duration.
func (m *Metrics) ObserveDashboardScan(seconds float64) {
	m.DashboardDuration.Observe(seconds)
}
