// Package metrics exposes engine activity as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"

	"github.com/ganot/wardbudget/internal/domain/budget"
	"github.com/ganot/wardbudget/internal/domain/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wardbudget"

// Recorder owns a registry and implements session.Observer.
type Recorder struct {
	registry    *prometheus.Registry
	sessions    prometheus.Gauge
	actions     *prometheus.CounterVec
	failures    *prometheus.CounterVec
	snapshots   *prometheus.CounterVec
	utilization *prometheus.GaugeVec
	spent       *prometheus.GaugeVec
}

// New creates a recorder with its own registry, including the Go runtime
// and process collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of logged-in sessions.",
		}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Committed proposal actions by ward and kind.",
		}, []string{"ward", "kind"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_failures_total",
			Help:      "Storage failures by kind and class (persistence or sync).",
		}, []string{"kind", "class"}),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_applied_total",
			Help:      "Pushed snapshots applied to sessions.",
		}, []string{"kind"}),
		utilization: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "budget_utilization_percent",
			Help:      "Last computed budget utilization per ward.",
		}, []string{"ward"}),
		spent: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "budget_spent_crores",
			Help:      "Last computed spend per ward, uncapped.",
		}, []string{"ward"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.sessions,
		r.actions,
		r.failures,
		r.snapshots,
		r.utilization,
		r.spent,
	)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Observe implements session.Observer.
func (r *Recorder) Observe(_ context.Context, ev session.Event) {
	switch ev.Type {
	case session.EventSessionStarted:
		r.sessions.Inc()
	case session.EventSessionClosed:
		r.sessions.Dec()
	case session.EventProposalSubmitted, session.EventVoteRecorded, session.EventStatusChanged:
		r.actions.WithLabelValues(ev.Session.Ward, string(ev.Kind)).Inc()
	case session.EventPersistenceFailed:
		r.failures.WithLabelValues(string(ev.Kind), "persistence").Inc()
	case session.EventSyncFailed:
		r.failures.WithLabelValues(string(ev.Kind), "sync").Inc()
	case session.EventSnapshotApplied:
		r.snapshots.WithLabelValues(string(ev.Snapshot)).Inc()
	}
}

// ObserveBudget records the figures last served for a ward.
func (r *Recorder) ObserveBudget(wardID string, m budget.Metrics) {
	r.utilization.WithLabelValues(wardID).Set(m.UtilizationPercent)
	r.spent.WithLabelValues(wardID).Set(m.Spent)
}
