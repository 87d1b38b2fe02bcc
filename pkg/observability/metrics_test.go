package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/sandrolain/imagemath/pkg/types"
)

func setupMetricsTest(t *testing.T) *sdkmetric.ManualReader {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	original := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	t.Cleanup(func() {
		otel.SetMeterProvider(original)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("shutting down meter provider: %v", err)
		}
	})
	return reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return &rm
}

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumValue(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected Sum[int64]")
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestNewMetricsRecorder(t *testing.T) {
	setupMetricsTest(t)
	rec := NewMetricsRecorder()
	require.NotNil(t, rec)
	_, isNoop := rec.(NoopMetrics)
	assert.False(t, isNoop)
}

func TestRecordEval(t *testing.T) {
	reader := setupMetricsTest(t)
	m, err := newOtelMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordEval(ctx, 5*time.Millisecond, nil)
	m.RecordEval(ctx, 2*time.Millisecond, types.Errorf(types.ErrForbiddenName, "name 'os' is not allowed"))

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(2), sumValue(t, findMetric(rm, "imagemath.eval.count")))
	assert.Equal(t, int64(1), sumValue(t, findMetric(rm, "imagemath.eval.errors")))

	hist := findMetric(rm, "imagemath.eval.latency_ms")
	require.NotNil(t, hist)
	h, ok := hist.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.NotEmpty(t, h.DataPoints)

	errs := findMetric(rm, "imagemath.eval.errors").Data.(metricdata.Sum[int64])
	require.Len(t, errs.DataPoints, 1)
	kind, ok := errs.DataPoints[0].Attributes.Value("kind")
	require.True(t, ok)
	assert.Equal(t, "ForbiddenNameError", kind.AsString())
}

func TestRecordKernel(t *testing.T) {
	reader := setupMetricsTest(t)
	m, err := newOtelMetrics()
	require.NoError(t, err)

	m.RecordKernel(context.Background(), "add", "I")
	m.RecordKernel(context.Background(), "add", "I")
	m.RecordKernel(context.Background(), "min", "F")

	rm := collectMetrics(t, reader)
	metric := findMetric(rm, "imagemath.kernel.invocations")
	assert.Equal(t, int64(3), sumValue(t, metric))

	sum := metric.Data.(metricdata.Sum[int64])
	found := false
	for _, dp := range sum.DataPoints {
		op, _ := dp.Attributes.Value("op")
		mode, _ := dp.Attributes.Value("mode")
		if op.AsString() == "add" && mode.AsString() == "I" {
			found = true
			assert.Equal(t, int64(2), dp.Value)
		}
	}
	assert.True(t, found)
}

func TestNoopMetrics(t *testing.T) {
	var rec MetricsRecorder = NoopMetrics{}
	assert.NotPanics(t, func() {
		rec.RecordEval(context.Background(), time.Second, errors.New("x"))
		rec.RecordKernel(context.Background(), "add", "I")
	})
}
