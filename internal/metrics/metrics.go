// Package metrics exposes Prometheus collectors for routing activity.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dbrain"

// Metrics holds the router's collectors. A nil *Metrics is a no-op.
type Metrics struct {
	routed          *prometheus.CounterVec
	routeDuration   *prometheus.HistogramVec
	progressUpdates *prometheus.CounterVec
	delegatedActive prometheus.Gauge
	classified      *prometheus.CounterVec
}

// MustNewMetrics registers the collectors with reg and panics on a
// registration conflict. Tests pass a fresh prometheus.NewRegistry().
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		routed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "routed_total",
			Help:      "Utterances handled, by intent and outcome.",
		}, []string{"intent", "outcome"}),
		routeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "route_duration_seconds",
			Help:      "Time spent handling one utterance, by intent.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300, 1200},
		}, []string{"intent"}),
		progressUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "progress",
			Name:      "updates_total",
			Help:      "Status indicator refreshes, by result.",
		}, []string{"result"}),
		delegatedActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "runs_active",
			Help:      "Delegated agent runs currently in flight.",
		}),
		classified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "classified_total",
			Help:      "Classifier decisions, by intent.",
		}, []string{"intent"}),
	}
	reg.MustRegister(m.routed, m.routeDuration, m.progressUpdates, m.delegatedActive, m.classified)
	return m
}

// ObserveRoute records one handled utterance.
func (m *Metrics) ObserveRoute(intent string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.routed.WithLabelValues(intent, outcome).Inc()
	m.routeDuration.WithLabelValues(intent).Observe(d.Seconds())
}

// IncClassified counts a classifier decision.
func (m *Metrics) IncClassified(intent string) {
	if m == nil {
		return
	}
	m.classified.WithLabelValues(intent).Inc()
}

// ObserveProgressUpdate counts a status refresh; err is the update's result.
func (m *Metrics) ObserveProgressUpdate(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.progressUpdates.WithLabelValues(result).Inc()
}

// DelegatedStarted marks an agent run as in flight and returns the func
// that marks it done.
func (m *Metrics) DelegatedStarted() func() {
	if m == nil {
		return func() {}
	}
	m.delegatedActive.Inc()
	return m.delegatedActive.Dec
}
