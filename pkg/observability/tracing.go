package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("imagemath")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartEvalSpan starts the span covering one evaluation.
	StartEvalSpan(ctx context.Context, evalID string, expressionLen int) (context.Context, trace.Span)

	// EndSpanWithError completes a span, recording err when non-nil.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the span in ctx.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type otelSpanManager struct{}

// NewSpanManager returns a SpanManager using the global OTel tracer
// provider.
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

func (m *otelSpanManager) StartEvalSpan(ctx context.Context, evalID string, expressionLen int) (context.Context, trace.Span) {
	return StartEvalSpan(ctx, evalID, expressionLen)
}

func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

// StartEvalSpan starts an "imagemath.eval" span on the global tracer.
func StartEvalSpan(ctx context.Context, evalID string, expressionLen int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "imagemath.eval",
		trace.WithAttributes(
			attribute.String("eval.id", evalID),
			attribute.Int("expression.length", expressionLen),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, recording err when non-nil.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the recording span in ctx.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
