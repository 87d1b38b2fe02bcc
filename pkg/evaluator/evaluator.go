// Package evaluator executes parsed image expressions.
//
// An evaluation builds a namespace from the operation vocabulary and the
// caller's bindings, scans the expression for free identifiers, and only
// then walks the tree. Any identifier that is not in the namespace (abs
// excepted) is rejected with a ForbiddenNameError before a single kernel
// runs. Image bindings are wrapped in Operands, so every arithmetic,
// bitwise or comparison operator on them dispatches to the kernel
// registry.
//
// # Example
//
//	ev := evaluator.New(evaluator.WithTimeout(5 * time.Second))
//	expr, _ := parser.Compile("min(a, b) * 2")
//	result, err := ev.Eval(ctx, expr, map[string]any{"a": imgA, "b": imgB})
//
// # Concurrency
//
// An Evaluator and a compiled expression may be shared by any number of
// goroutines. Each call to Eval owns its namespace and intermediate images.
package evaluator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sandrolain/imagemath/pkg/cache"
	"github.com/sandrolain/imagemath/pkg/image"
	"github.com/sandrolain/imagemath/pkg/kernel"
	"github.com/sandrolain/imagemath/pkg/observability"
	"github.com/sandrolain/imagemath/pkg/operand"
	"github.com/sandrolain/imagemath/pkg/parser"
	"github.com/sandrolain/imagemath/pkg/types"
)

// Evaluator evaluates image expressions against bindings.
type Evaluator struct {
	opts    EvalOptions
	logger  *slog.Logger
	cache   *cache.Cache
	kernels kernel.Registry
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
}

// EvalOptions configures evaluator behavior.
type EvalOptions struct {
	// Caching enables compiled expression caching in EvalString.
	Caching bool
	// CacheSize sets the capacity of the cache created by Caching.
	// Defaults to 256.
	CacheSize int
	// Cache is a custom expression cache. If non-nil, Caching is implicitly enabled.
	Cache *cache.Cache
	// MaxDepth bounds evaluation nesting, including lambda calls.
	MaxDepth int
	// Timeout bounds a single evaluation. Zero disables it.
	Timeout time.Duration
	// Debug enables per-node and per-kernel debug logging.
	Debug bool
	// Logger for structured logging.
	Logger *slog.Logger
	// Kernels is the kernel registry. Defaults to kernel.Default().
	Kernels kernel.Registry
	// Metrics records evaluation metrics. Defaults to NoopMetrics.
	Metrics observability.MetricsRecorder
	// Spans creates trace spans. Defaults to NoopSpanManager.
	Spans observability.SpanManager
}

// New creates a new Evaluator.
func New(opts ...EvalOption) *Evaluator {
	options := EvalOptions{
		MaxDepth: 1000,
		Timeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Kernels == nil {
		options.Kernels = kernel.Default()
	}
	if options.Metrics == nil {
		options.Metrics = observability.NoopMetrics{}
	}
	if options.Spans == nil {
		options.Spans = observability.NoopSpanManager{}
	}

	var c *cache.Cache
	if options.Cache != nil {
		c = options.Cache
	} else if options.Caching {
		c = cache.New(options.CacheSize)
	}

	return &Evaluator{
		opts:    options,
		logger:  options.Logger,
		cache:   c,
		kernels: options.Kernels,
		metrics: options.Metrics,
		spans:   options.Spans,
	}
}

// Cache returns the expression cache, or nil if caching is disabled.
func (e *Evaluator) Cache() *cache.Cache {
	return e.cache
}

// Compile parses text, going through the cache when one is configured.
func (e *Evaluator) Compile(text string) (*types.Expression, error) {
	compile := func() (*types.Expression, error) {
		return parser.Compile(text)
	}
	if e.cache == nil {
		return compile()
	}
	return e.cache.GetOrCompile(text, compile)
}

// EvalString compiles and evaluates text.
func (e *Evaluator) EvalString(ctx context.Context, text string, bindings map[string]any) (any, error) {
	expr, err := e.Compile(text)
	if err != nil {
		return nil, err
	}
	return e.Eval(ctx, expr, bindings)
}

// Eval evaluates a compiled expression. The result is an *image.Image, an
// int64, a float64, a bool, a string, nil or a *Lambda; it is never an
// Operand.
func (e *Evaluator) Eval(ctx context.Context, expr *types.Expression, bindings map[string]any) (any, error) {
	if expr == nil || expr.AST() == nil {
		return nil, types.Errorf(types.ErrEmptyExpression, "invalid expression")
	}

	evalID := uuid.NewString()
	logger := observability.EnrichLogger(e.logger, evalID)
	ctx, span := e.spans.StartEvalSpan(ctx, evalID, len(expr.Source()))
	start := time.Now()
	elapsed := observability.TimedOperation()
	observability.LogEvalStart(logger, expr.Source(), len(bindings))

	result, calls, err := e.eval(ctx, expr, bindings, logger)

	e.metrics.RecordEval(ctx, time.Since(start), err)
	e.spans.AddSpanEvent(ctx, "evaluated", attribute.Int64("kernel.calls", calls))
	e.spans.EndSpanWithError(span, err)
	if err != nil {
		observability.LogEvalError(logger, err, elapsed())
		return nil, err
	}
	observability.LogEvalComplete(logger, elapsed(), calls, describe(result))
	return result, nil
}

func (e *Evaluator) eval(ctx context.Context, expr *types.Expression, bindings map[string]any, logger *slog.Logger) (any, int64, error) {
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	st := &evalState{}
	d := &operand.Dispatcher{
		Kernels: e.kernels,
		OnInvoke: func(k kernel.Kernel, out *image.Image) {
			st.kernelCalls.Add(1)
			e.metrics.RecordKernel(ctx, k.Op.String(), string(k.Mode))
			if e.opts.Debug {
				observability.LogKernel(logger, k.Name(), out.Width(), out.Height())
			}
		},
	}

	ns, err := buildNamespace(bindings, d)
	if err != nil {
		return nil, 0, err
	}
	if err := checkNames(expr.AST(), ns); err != nil {
		return nil, 0, err
	}

	root := newRootContext(ns, st)
	v, err := e.evalNode(ctx, expr.AST(), root)
	if err != nil {
		return nil, root.KernelCalls(), err
	}
	return unwrap(v), root.KernelCalls(), nil
}

func describe(v any) string {
	switch x := v.(type) {
	case fmt.Stringer:
		return x.String()
	case nil:
		return "None"
	}
	return fmt.Sprintf("%v", v)
}

// EvalOption configures evaluation behavior.
type EvalOption func(*EvalOptions)

// WithCaching enables or disables compiled expression caching.
// To control the cache size use WithCacheSize; to supply your own cache use WithCache.
func WithCaching(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Caching = enabled
	}
}

// WithCacheSize sets the capacity of the cache created by WithCaching(true).
func WithCacheSize(size int) EvalOption {
	return func(opts *EvalOptions) {
		opts.CacheSize = size
	}
}

// WithCache attaches an external expression cache.
// The evaluator will use this cache regardless of the Caching flag.
func WithCache(c *cache.Cache) EvalOption {
	return func(opts *EvalOptions) {
		opts.Cache = c
	}
}

// WithTimeout sets the evaluation timeout.
func WithTimeout(timeout time.Duration) EvalOption {
	return func(opts *EvalOptions) {
		opts.Timeout = timeout
	}
}

// WithDebug enables or disables debug logging.
func WithDebug(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Debug = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EvalOption {
	return func(opts *EvalOptions) {
		opts.Logger = logger
	}
}

// WithMaxDepth sets the maximum evaluation depth.
func WithMaxDepth(depth int) EvalOption {
	return func(opts *EvalOptions) {
		opts.MaxDepth = depth
	}
}

// WithKernels replaces the kernel registry.
func WithKernels(reg kernel.Registry) EvalOption {
	return func(opts *EvalOptions) {
		opts.Kernels = reg
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observability.MetricsRecorder) EvalOption {
	return func(opts *EvalOptions) {
		opts.Metrics = m
	}
}

// WithSpanManager sets the span manager used for tracing.
func WithSpanManager(sm observability.SpanManager) EvalOption {
	return func(opts *EvalOptions) {
		opts.Spans = sm
	}
}
