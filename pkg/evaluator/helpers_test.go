package evaluator_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sandrolain/imagemath/pkg/evaluator"
	"github.com/sandrolain/imagemath/pkg/image"
	"github.com/sandrolain/imagemath/pkg/kernel"
)

func intImage(t *testing.T, w, h int, data ...int32) *image.Image {
	t.Helper()
	im, err := image.FromInts(image.Size{Width: w, Height: h}, data)
	require.NoError(t, err)
	return im
}

func floatImage(t *testing.T, w, h int, data ...float32) *image.Image {
	t.Helper()
	im, err := image.FromFloats(image.Size{Width: w, Height: h}, data)
	require.NoError(t, err)
	return im
}

func byteImage(t *testing.T, mode image.Mode, w, h int, data ...uint8) *image.Image {
	t.Helper()
	im, err := image.FromBytes(mode, image.Size{Width: w, Height: h}, data)
	require.NoError(t, err)
	return im
}

func evalString(t *testing.T, text string, bindings map[string]any, opts ...evaluator.EvalOption) (any, error) {
	t.Helper()
	return evaluator.New(opts...).EvalString(context.Background(), text, bindings)
}

func mustEval(t *testing.T, text string, bindings map[string]any, opts ...evaluator.EvalOption) any {
	t.Helper()
	v, err := evalString(t, text, bindings, opts...)
	require.NoError(t, err, text)
	return v
}

func mustImage(t *testing.T, v any) *image.Image {
	t.Helper()
	im, ok := v.(*image.Image)
	require.True(t, ok, "expected *image.Image, got %T", v)
	return im
}

// countingRegistry counts every kernel invocation made through it.
type countingRegistry struct {
	reg   kernel.Registry
	calls atomic.Int64
}

func newCountingRegistry() *countingRegistry {
	return &countingRegistry{reg: kernel.Default()}
}

func (c *countingRegistry) Lookup(op kernel.Op, mode image.Mode) (kernel.Kernel, bool) {
	k, ok := c.reg.Lookup(op, mode)
	if !ok {
		return k, false
	}
	if un := k.Unary; un != nil {
		k.Unary = func(out, in *image.Image) {
			c.calls.Add(1)
			un(out, in)
		}
	}
	if bin := k.Binary; bin != nil {
		k.Binary = func(out, a, b *image.Image) {
			c.calls.Add(1)
			bin(out, a, b)
		}
	}
	return k, true
}

type recordedEval struct {
	duration time.Duration
	err      error
}

// fakeMetrics captures metric calls.
type fakeMetrics struct {
	mu      sync.Mutex
	evals   []recordedEval
	kernels []string
}

func (m *fakeMetrics) RecordEval(_ context.Context, d time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evals = append(m.evals, recordedEval{duration: d, err: err})
}

func (m *fakeMetrics) RecordKernel(_ context.Context, op, mode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kernels = append(m.kernels, op+"_"+mode)
}
