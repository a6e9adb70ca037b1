package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by the counters.
const (
	OutcomeAllowed  = "allowed"
	OutcomeDenied   = "denied"
	OutcomeDegraded = "degraded"
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	decisions        *prometheus.CounterVec
	llmRequests      *prometheus.CounterVec
	llmDuration      *prometheus.HistogramVec
	telemetryDropped *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg yields a recorder that
// drops everything.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "entitlement_decisions_total",
		Help: "Entitlement gate decisions by action and outcome.",
	}, []string{"action", "outcome"})
	llmRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_requests_total",
		Help: "Language model provider calls by provider and outcome.",
	}, []string{"provider", "outcome"})
	llmDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_request_duration_seconds",
		Help:    "Time until a provider call returned or its stream started.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})
	telemetryDropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_events_dropped_total",
		Help: "Telemetry events that could not be delivered.",
	}, []string{"reason"})
	reg.MustRegister(decisions, llmRequests, llmDuration, telemetryDropped)
	return &Metrics{
		decisions:        decisions,
		llmRequests:      llmRequests,
		llmDuration:      llmDuration,
		telemetryDropped: telemetryDropped,
	}
}

func (m *Metrics) ObserveDecision(action, outcome string) {
	if m == nil || m.decisions == nil {
		return
	}
	m.decisions.WithLabelValues(normalizeLabel(action), normalizeLabel(outcome)).Inc()
}

func (m *Metrics) ObserveLLMRequest(provider, outcome string, duration time.Duration) {
	if m == nil || m.llmRequests == nil {
		return
	}
	provider = normalizeLabel(provider)
	m.llmRequests.WithLabelValues(provider, normalizeLabel(outcome)).Inc()
	m.llmDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func (m *Metrics) IncTelemetryDropped(reason string) {
	if m == nil || m.telemetryDropped == nil {
		return
	}
	m.telemetryDropped.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
