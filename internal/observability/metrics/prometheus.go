// Package metrics provides Prometheus metrics for the prescription
// lifecycle engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics
type Metrics struct {
	PrescriptionsCreated prometheus.Counter
	StatusTransitions    *prometheus.CounterVec
	TransitionsRejected  prometheus.Counter
	AlertsRaised         *prometheus.CounterVec
	AlertsResolved       *prometheus.CounterVec
	InteractionWarnings  *prometheus.CounterVec
	MonitorSweeps        prometheus.Counter
	PrescriptionsExpired prometheus.Counter
	OperationDuration    prometheus.Histogram
	ActivePrescriptions  prometheus.Gauge
}

// New creates and registers all metrics
func New() *Metrics {
	m := &Metrics{
		PrescriptionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rx_prescriptions_created_total",
			Help: "Total prescriptions created",
		}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rx_status_transitions_total",
			Help: "Total successful status transitions",
		}, []string{"to_status"}),
		TransitionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rx_status_transitions_rejected_total",
			Help: "Total rejected status transitions",
		}),
		AlertsRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rx_alerts_raised_total",
			Help: "Total alerts raised",
		}, []string{"type"}),
		AlertsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rx_alerts_resolved_total",
			Help: "Total alerts resolved",
		}, []string{"type"}),
		InteractionWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rx_interaction_warnings_total",
			Help: "Total drug interaction warnings emitted at creation",
		}, []string{"severity"}),
		MonitorSweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rx_monitor_sweeps_total",
			Help: "Total automated monitoring sweeps executed",
		}),
		PrescriptionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rx_prescriptions_expired_total",
			Help: "Total prescriptions expired by the automated monitor",
		}),
		OperationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rx_operation_duration_seconds",
			Help:    "Lifecycle operation duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		ActivePrescriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rx_prescriptions_active",
			Help: "Prescriptions not yet dispensed or expired",
		}),
	}

	prometheus.MustRegister(
		m.PrescriptionsCreated,
		m.StatusTransitions,
		m.TransitionsRejected,
		m.AlertsRaised,
		m.AlertsResolved,
		m.InteractionWarnings,
		m.MonitorSweeps,
		m.PrescriptionsExpired,
		m.OperationDuration,
		m.ActivePrescriptions,
	)

	return m
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
