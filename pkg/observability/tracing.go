package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TracerName is the name of the tracer for meetprep operations.
	TracerName = "meetprep"
)

// Span attribute keys
const (
	AttrKind       = "question_kind"
	AttrAttempt    = "attempt"
	AttrTimeoutMs  = "timeout_ms"
	AttrAnswerLen  = "answer_length"
	AttrParser     = "parser"
	AttrResult     = "result"
	AttrModel      = "model"
	AttrOperation  = "operation"
	AttrURLHost    = "url_host"
	AttrErrorCode  = "error_code"
	AttrRetryable  = "retryable"
	AttrCacheHit   = "cache_hit"
	AttrRequestID  = "request_id"
	AttrDurationMs = "duration_ms"
)

// Span names
const (
	SpanAgentAsk = "meetprep.agent.ask"
	SpanDownload = "meetprep.transcript.download"
	SpanParse    = "meetprep.parse"
	SpanAI       = "meetprep.ai"
)

// Tracer starts spans for meetprep operations.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a tracer from the global provider. Without a configured
// provider the spans are no-ops.
func NewTracer() *Tracer {
	return &Tracer{tracer: otel.Tracer(TracerName)}
}

// StartAgentSpan starts a span for one agent question.
func (t *Tracer) StartAgentSpan(ctx context.Context, kind string, attempt int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanAgentAsk,
		trace.WithAttributes(
			attribute.String(AttrKind, kind),
			attribute.Int(AttrAttempt, attempt),
		),
	)
}

// StartDownloadSpan starts a span for a transcript download.
func (t *Tracer) StartDownloadSpan(ctx context.Context, host string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanDownload,
		trace.WithAttributes(attribute.String(AttrURLHost, host)),
	)
}

// StartParseSpan starts a span for parsing one answer.
func (t *Tracer) StartParseSpan(ctx context.Context, parser string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanParse,
		trace.WithAttributes(attribute.String(AttrParser, parser)),
	)
}

// StartAISpan starts a span for an AI completion call.
func (t *Tracer) StartAISpan(ctx context.Context, operation, model string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanAI,
		trace.WithAttributes(
			attribute.String(AttrOperation, operation),
			attribute.String(AttrModel, model),
		),
	)
}

// SpanHelper provides convenient methods for working with a span.
type SpanHelper struct {
	span trace.Span
}

// NewSpanHelper creates a new span helper for the given span.
func NewSpanHelper(span trace.Span) *SpanHelper {
	return &SpanHelper{span: span}
}

// SetAnswer records the size of an agent answer and whether it came from
// the cache.
func (h *SpanHelper) SetAnswer(length int, cacheHit bool) {
	h.span.SetAttributes(
		attribute.Int(AttrAnswerLen, length),
		attribute.Bool(AttrCacheHit, cacheHit),
	)
}

// SetResult sets the result shape attribute.
func (h *SpanHelper) SetResult(result string) {
	h.span.SetAttributes(attribute.String(AttrResult, result))
}

// SetError records an error on the span.
func (h *SpanHelper) SetError(err error, code string, retryable bool) {
	h.span.SetStatus(codes.Error, err.Error())
	h.span.SetAttributes(
		attribute.String(AttrErrorCode, code),
		attribute.Bool(AttrRetryable, retryable),
	)
	h.span.RecordError(err)
}

// SetSuccess marks the span as successful.
func (h *SpanHelper) SetSuccess() {
	h.span.SetStatus(codes.Ok, "")
}

// AddEvent adds an event to the span.
func (h *SpanHelper) AddEvent(name string, attrs ...attribute.KeyValue) {
	h.span.AddEvent(name, trace.WithAttributes(attrs...))
}

// GetTraceID returns the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}
