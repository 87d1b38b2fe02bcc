package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/sandrolain/imagemath/pkg/types"
)

// MetricsRecorder records evaluation metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordEval records one evaluation with its duration and outcome.
	RecordEval(ctx context.Context, duration time.Duration, err error)

	// RecordKernel records one kernel invocation.
	RecordKernel(ctx context.Context, op, mode string)
}

type otelMetrics struct {
	evalCount   metric.Int64Counter
	evalLatency metric.Float64Histogram
	evalErrors  metric.Int64Counter
	kernelCalls metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("imagemath")

	evalCount, err := meter.Int64Counter("imagemath.eval.count",
		metric.WithDescription("Number of expression evaluations"),
	)
	if err != nil {
		return nil, err
	}

	evalLatency, err := meter.Float64Histogram("imagemath.eval.latency_ms",
		metric.WithDescription("Expression evaluation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	evalErrors, err := meter.Int64Counter("imagemath.eval.errors",
		metric.WithDescription("Number of failed evaluations"),
	)
	if err != nil {
		return nil, err
	}

	kernelCalls, err := meter.Int64Counter("imagemath.kernel.invocations",
		metric.WithDescription("Number of kernel invocations"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		evalCount:   evalCount,
		evalLatency: evalLatency,
		evalErrors:  evalErrors,
		kernelCalls: kernelCalls,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder backed by the global OTel
// meter provider, or NoopMetrics if the instruments cannot be created.
//
//	otel.SetMeterProvider(yourProvider)
//	rec := observability.NewMetricsRecorder()
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func (m *otelMetrics) RecordEval(ctx context.Context, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.Bool("success", err == nil),
	}
	m.evalCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.evalLatency.Record(ctx, float64(duration.Microseconds())/1000, metric.WithAttributes(attrs...))

	if err != nil {
		m.evalErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kind", types.KindOf(err).String()),
		))
	}
}

func (m *otelMetrics) RecordKernel(ctx context.Context, op, mode string) {
	m.kernelCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("mode", mode),
	))
}
