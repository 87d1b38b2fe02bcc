package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTracingTest(t *testing.T) *tracetest.InMemoryExporter {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	tracer = otel.Tracer("imagemath")

	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("shutting down tracer provider: %v", err)
		}
	})
	return exporter
}

func TestStartEvalSpan(t *testing.T) {
	exporter := setupTracingTest(t)

	ctx, span := NewSpanManager().StartEvalSpan(context.Background(), "eval-1", 7)
	AddSpanEvent(ctx, "kernel", attribute.String("kernel", "add_I"))
	EndSpanWithError(span, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	s := spans[0]
	assert.Equal(t, "imagemath.eval", s.Name)
	assert.Equal(t, codes.Ok, s.Status.Code)
	require.Len(t, s.Events, 1)
	assert.Equal(t, "kernel", s.Events[0].Name)

	var evalID string
	var length int64
	for _, attr := range s.Attributes {
		switch attr.Key {
		case "eval.id":
			evalID = attr.Value.AsString()
		case "expression.length":
			length = attr.Value.AsInt64()
		}
	}
	assert.Equal(t, "eval-1", evalID)
	assert.Equal(t, int64(7), length)
}

func TestEndSpanWithError(t *testing.T) {
	exporter := setupTracingTest(t)

	_, span := StartEvalSpan(context.Background(), "eval-2", 1)
	NewSpanManager().EndSpanWithError(span, errors.New("bad operand"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "bad operand", spans[0].Status.Description)

	assert.NotPanics(t, func() { EndSpanWithError(nil, nil) })
}

func TestNoopSpanManager(t *testing.T) {
	var sm SpanManager = NoopSpanManager{}
	ctx := context.Background()
	got, span := sm.StartEvalSpan(ctx, "id", 3)
	assert.Equal(t, ctx, got)
	assert.False(t, span.IsRecording())
	sm.AddSpanEvent(ctx, "x")
	sm.EndSpanWithError(span, errors.New("ignored"))
}
