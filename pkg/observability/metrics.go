// Package observability provides metrics and tracing for agent calls,
// parsing and plan generation.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Question kinds used as the "kind" label.
const (
	KindMeetings   = "meetings"
	KindTranscript = "transcript"
	KindLocation   = "location"
	KindInsights   = "insights"
	KindAsk        = "ask"
)

// Outcome values for agent questions.
const (
	StatusAnswered = "answered"
	StatusRefusal  = "refusal"
	StatusError    = "error"
)

// Metrics holds all Prometheus metrics for meetprep. The Record methods
// are no-ops on a nil *Metrics.
type Metrics struct {
	// Agent metrics
	AgentQuestionsTotal *prometheus.CounterVec
	AgentLatencySeconds *prometheus.HistogramVec
	CacheLookupsTotal   *prometheus.CounterVec

	// Parsing metrics
	ParseResultsTotal *prometheus.CounterVec
	MeetingsParsed    prometheus.Histogram
	DownloadsTotal    *prometheus.CounterVec

	// AI metrics
	AIOperationsTotal *prometheus.CounterVec
	AILatencySeconds  *prometheus.HistogramVec
	AIStreamedChunks  *prometheus.CounterVec

	// HTTP API metrics
	HTTPRequestsTotal *prometheus.CounterVec
}

// DefaultMetrics creates metrics registered with the default registerer.
func DefaultMetrics() *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer)
}

// NewMetrics creates a new set of metrics registered with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AgentQuestionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meetprep_agent_questions_total",
				Help: "Total questions sent to the agent by outcome",
			},
			[]string{"kind", "status"},
		),
		AgentLatencySeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "meetprep_agent_latency_seconds",
				Help:    "Agent answer latency",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"kind"},
		),
		CacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meetprep_cache_lookups_total",
				Help: "Answer cache lookups by backend and result",
			},
			[]string{"backend", "result"},
		),

		ParseResultsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meetprep_parse_results_total",
				Help: "Parsed agent answers by parser and result shape",
			},
			[]string{"parser", "result"},
		),
		MeetingsParsed: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "meetprep_meetings_parsed",
				Help:    "Meetings assembled from one meeting-list answer",
				Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
			},
		),
		DownloadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meetprep_transcript_downloads_total",
				Help: "Transcript downloads from agent-provided links",
			},
			[]string{"status"},
		),

		AIOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meetprep_ai_operations_total",
				Help: "Total AI completion operations",
			},
			[]string{"operation", "model", "status"},
		),
		AILatencySeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "meetprep_ai_latency_seconds",
				Help:    "AI completion latency",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"operation", "model"},
		),
		AIStreamedChunks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meetprep_ai_streamed_chunks_total",
				Help: "Content chunks relayed from AI streams",
			},
			[]string{"model"},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meetprep_http_requests_total",
				Help: "HTTP API requests by route and status code",
			},
			[]string{"route", "code"},
		),
	}
}

// RecordQuestion records one agent question and its latency.
func (m *Metrics) RecordQuestion(kind, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.AgentQuestionsTotal.WithLabelValues(kind, status).Inc()
	m.AgentLatencySeconds.WithLabelValues(kind).Observe(d.Seconds())
}

// RecordCacheLookup records a cache hit or miss.
func (m *Metrics) RecordCacheLookup(backend string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookupsTotal.WithLabelValues(backend, result).Inc()
}

// RecordParse records the result shape of one parse (structured, verbatim,
// vtt, turns, raw).
func (m *Metrics) RecordParse(parser, result string) {
	if m == nil {
		return
	}
	m.ParseResultsTotal.WithLabelValues(parser, result).Inc()
}

// RecordMeetings records how many meetings one answer produced.
func (m *Metrics) RecordMeetings(n int) {
	if m == nil {
		return
	}
	m.MeetingsParsed.Observe(float64(n))
}

// RecordDownload records a transcript download attempt.
func (m *Metrics) RecordDownload(ok bool) {
	if m == nil {
		return
	}
	status := "empty"
	if ok {
		status = "ok"
	}
	m.DownloadsTotal.WithLabelValues(status).Inc()
}

// RecordAICompletion records an AI operation and its latency.
func (m *Metrics) RecordAICompletion(operation, model, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.AIOperationsTotal.WithLabelValues(operation, model, status).Inc()
	m.AILatencySeconds.WithLabelValues(operation, model).Observe(d.Seconds())
}

// RecordChunk records one relayed stream chunk.
func (m *Metrics) RecordChunk(model string) {
	if m == nil {
		return
	}
	m.AIStreamedChunks.WithLabelValues(model).Inc()
}

// RecordHTTPRequest records an HTTP API response.
func (m *Metrics) RecordHTTPRequest(route, code string) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, code).Inc()
}
