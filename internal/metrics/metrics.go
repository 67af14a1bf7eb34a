// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "covenantmonitor"

// Metrics holds all the Prometheus metrics for the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	CovenantAlerts   *prometheus.GaugeVec
	DrawTransitions  *prometheus.CounterVec
	Scenarios        *prometheus.CounterVec
	Submissions      *prometheus.CounterVec
	SweepDuration    prometheus.Histogram
	BackupsCompleted prometheus.Counter
}

// New creates the collectors on a dedicated registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		CovenantAlerts: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "covenant_alerts",
			Help:      "Covenants outside the safe zone per deal and zone at the last evaluation",
		}, []string{"deal_id", "zone"}),
		DrawTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draw_transitions_total",
			Help:      "Draw request status transitions by target status",
		}, []string{"status"}),
		Scenarios: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scenarios_total",
			Help:      "Scenario simulations run, by whether every covenant stayed compliant",
		}, []string{"all_compliant"}),
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Financial submission writes by resulting verification status",
		}, []string{"verification_status"}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compliance_sweep_duration_seconds",
			Help:      "Duration of the scheduled compliance sweep",
			Buckets:   prometheus.DefBuckets,
		}),
		BackupsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backups_completed_total",
			Help:      "Database backups uploaded successfully",
		}),
	}
}

// Registry exposes the underlying registry (tests, custom exporters)
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SetAlertCounts replaces the alert gauges of one deal
func (m *Metrics) SetAlertCounts(dealID string, breach, danger, caution int) {
	if m == nil {
		return
	}
	m.CovenantAlerts.WithLabelValues(dealID, "breach").Set(float64(breach))
	m.CovenantAlerts.WithLabelValues(dealID, "danger").Set(float64(danger))
	m.CovenantAlerts.WithLabelValues(dealID, "caution").Set(float64(caution))
}

// RecordDrawTransition counts a draw moving into status
func (m *Metrics) RecordDrawTransition(status string) {
	if m == nil {
		return
	}
	m.DrawTransitions.WithLabelValues(status).Inc()
}

// RecordScenario counts one simulation run
func (m *Metrics) RecordScenario(allCompliant bool) {
	if m == nil {
		return
	}
	m.Scenarios.WithLabelValues(strconv.FormatBool(allCompliant)).Inc()
}

// RecordSubmission counts a submission write
func (m *Metrics) RecordSubmission(verificationStatus string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(verificationStatus).Inc()
}

// ObserveSweep records how long a sweep took
func (m *Metrics) ObserveSweep(seconds float64) {
	if m == nil {
		return
	}
	m.SweepDuration.Observe(seconds)
}

// RecordBackup counts a completed backup
func (m *Metrics) RecordBackup() {
	if m == nil {
		return
	}
	m.BackupsCompleted.Inc()
}
