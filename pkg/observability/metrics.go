package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/remodel/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the workflow counters on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	PhaseTransitions *prometheus.CounterVec
	GuardFailures    *prometheus.CounterVec
	EngineEvents     *prometheus.CounterVec
	Resets           *prometheus.CounterVec
	Switches         *prometheus.CounterVec
}

// NewMetrics creates and registers the counters.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PhaseTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "remodel_phase_transitions_total",
			Help: "Phase changes by family and target phase.",
		}, []string{"family", "phase"}),
		GuardFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "remodel_guard_failures_total",
			Help: "Rejected user actions by family and action.",
		}, []string{"family", "action"}),
		EngineEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "remodel_engine_events_total",
			Help: "Engine events by kind and outcome.",
		}, []string{"kind", "outcome"}),
		Resets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "remodel_resets_total",
			Help: "Session resets by family and cause.",
		}, []string{"family", "cause"}),
		Switches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "remodel_tab_switches_total",
			Help: "Family switch requests by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(m.PhaseTransitions, m.GuardFailures, m.EngineEvents, m.Resets, m.Switches)
	return m
}

// Registry returns the registry the counters live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPhaseChange: func(_ context.Context, e *domain.PhaseEvent) {
			m.PhaseTransitions.WithLabelValues(string(e.Family), string(e.To)).Inc()
		},
		OnGuardFailure: func(_ context.Context, e *domain.GuardEvent) {
			m.GuardFailures.WithLabelValues(string(e.Family), string(e.Action)).Inc()
		},
		OnEngineEvent: func(_ context.Context, e *domain.EngineEvent) {
			m.EngineEvents.WithLabelValues(string(e.Event.Kind), string(e.Outcome)).Inc()
		},
		OnReset: func(_ context.Context, e *domain.ResetEvent) {
			m.Resets.WithLabelValues(string(e.Family), e.Cause).Inc()
		},
		OnSwitch: func(_ context.Context, e *domain.SwitchEvent) {
			m.Switches.WithLabelValues(string(e.Outcome)).Inc()
		},
	}
}
