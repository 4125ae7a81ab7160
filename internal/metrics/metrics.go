// Package metrics provides Prometheus metrics for admitbot
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Conversation
	TurnsTotal         *prometheus.CounterVec
	TurnDuration       *prometheus.HistogramVec
	ClassifierVerdicts *prometheus.CounterVec

	// Upstream model calls
	LLMCallsTotal    *prometheus.CounterVec
	LLMCallDuration  *prometheus.HistogramVec
	ParseFailures    *prometheus.CounterVec
	AgentToolCalls   *prometheus.CounterVec
	SuggestionLookup *prometheus.CounterVec

	// Knowledge
	IngestionsTotal  *prometheus.CounterVec
	ChunksIngested   prometheus.Counter
	DeletionsTotal   *prometheus.CounterVec
	CleanupJobsTotal *prometheus.CounterVec
}

// New creates and registers all metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	m := &Metrics{}

	m.HTTPRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admitbot_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.HTTPRequestDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "admitbot_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	m.TurnsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admitbot_turns_total",
			Help: "Conversation turns by answering route",
		},
		[]string{"route"},
	)

	m.TurnDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "admitbot_turn_duration_seconds",
			Help:    "End-to-end duration of a conversation turn",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"route"},
	)

	m.ClassifierVerdicts = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admitbot_classifier_verdicts_total",
			Help: "Query classifier verdicts",
		},
		[]string{"verdict"},
	)

	m.LLMCallsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admitbot_llm_calls_total",
			Help: "Calls to the language model",
		},
		[]string{"operation", "status"},
	)

	m.LLMCallDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "admitbot_llm_call_duration_seconds",
			Help:    "Duration of language model calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	m.ParseFailures = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admitbot_llm_parse_failures_total",
			Help: "Structured model outputs that could not be parsed",
		},
		[]string{"operation"},
	)

	m.AgentToolCalls = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admitbot_agent_tool_calls_total",
			Help: "Reasoning agent tool invocations",
		},
		[]string{"tool", "status"},
	)

	m.SuggestionLookup = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admitbot_suggestion_lookups_total",
			Help: "Cached suggestion lookups by outcome",
		},
		[]string{"outcome"},
	)

	m.IngestionsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admitbot_ingestions_total",
			Help: "Document ingestions by outcome",
		},
		[]string{"status"},
	)

	m.ChunksIngested = f.NewCounter(
		prometheus.CounterOpts{
			Name: "admitbot_chunks_ingested_total",
			Help: "Chunks written to the knowledge stores",
		},
	)

	m.DeletionsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admitbot_deletions_total",
			Help: "Document deletions by outcome",
		},
		[]string{"status"},
	)

	m.CleanupJobsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admitbot_cleanup_jobs_total",
			Help: "Compensating cleanup jobs by outcome",
		},
		[]string{"status"},
	)

	return m
}

// NewNop returns metrics bound to a private registry, for tests and tools.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
