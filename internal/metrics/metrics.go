// Package metrics exposes Prometheus metrics for agent sessions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the agents.
type Metrics struct {
	registry *prometheus.Registry

	// Session metrics
	SessionsActive  *prometheus.GaugeVec
	SessionsTotal   *prometheus.CounterVec
	SessionDuration *prometheus.HistogramVec

	// Dialogue metrics
	FAQHits      *prometheus.CounterVec
	AskTimeouts  *prometheus.CounterVec
	RecordsSaved *prometheus.CounterVec

	// Verification metrics
	VerificationOutcomes *prometheus.CounterVec
}

// New creates a Metrics instance with every metric registered on a private registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "dialogue_agent"
	}

	registry := prometheus.NewRegistry()

	sessionsActive := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of sessions currently in progress",
		},
		[]string{"agent"},
	)

	sessionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of finished sessions",
		},
		[]string{"agent", "outcome"},
	)

	sessionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Session duration in seconds",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"agent"},
	)

	faqHits := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "faq_hits_total",
			Help:      "Utterances answered from the FAQ",
		},
		[]string{"agent"},
	)

	askTimeouts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ask_timeouts_total",
			Help:      "Questions that went unanswered before the timeout",
		},
		[]string{"agent"},
	)

	recordsSaved := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_saved_total",
			Help:      "Persisted leads and orders",
		},
		[]string{"kind"},
	)

	verificationOutcomes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_outcomes_total",
			Help:      "Fraud case resolutions by status",
		},
		[]string{"status"},
	)

	registry.MustRegister(
		sessionsActive,
		sessionsTotal,
		sessionDuration,
		faqHits,
		askTimeouts,
		recordsSaved,
		verificationOutcomes,
	)

	return &Metrics{
		registry:             registry,
		SessionsActive:       sessionsActive,
		SessionsTotal:        sessionsTotal,
		SessionDuration:      sessionDuration,
		FAQHits:              faqHits,
		AskTimeouts:          askTimeouts,
		RecordsSaved:         recordsSaved,
		VerificationOutcomes: verificationOutcomes,
	}
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordSessionStart records a new session starting.
func (m *Metrics) RecordSessionStart(agent string) {
	m.SessionsActive.WithLabelValues(agent).Inc()
}

// RecordSessionEnd records a session ending with the given outcome.
func (m *Metrics) RecordSessionEnd(agent, outcome string, duration time.Duration) {
	m.SessionsActive.WithLabelValues(agent).Dec()
	m.SessionsTotal.WithLabelValues(agent, outcome).Inc()
	m.SessionDuration.WithLabelValues(agent).Observe(duration.Seconds())
}

// RecordFAQHit records an utterance answered from the FAQ.
func (m *Metrics) RecordFAQHit(agent string) {
	m.FAQHits.WithLabelValues(agent).Inc()
}

// RecordAskTimeout records a question nobody answered.
func (m *Metrics) RecordAskTimeout(agent string) {
	m.AskTimeouts.WithLabelValues(agent).Inc()
}

// RecordSaved records a persisted record of the given kind ("lead", "order").
func (m *Metrics) RecordSaved(kind string) {
	m.RecordsSaved.WithLabelValues(kind).Inc()
}

// RecordVerification records a fraud case resolution.
func (m *Metrics) RecordVerification(status string) {
	m.VerificationOutcomes.WithLabelValues(status).Inc()
}
