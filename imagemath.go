// Package imagemath evaluates arithmetic expressions over images.
//
// Expressions use a small Python-compatible grammar. Names resolve against
// the caller's bindings and a fixed vocabulary (int, float, convert, equal,
// notequal, min, max), plus the abs built-in. Every other identifier is
// rejected before evaluation starts, so an expression can never reach
// anything the caller did not bind.
//
// # Quick Start
//
//	// Simple evaluation
//	result, err := imagemath.Eval("min(a, b) * 2", map[string]any{"a": imgA, "b": imgB})
//
//	// Compile once, evaluate many times
//	expr, err := imagemath.Compile("(a - b) * 0.5 + 128")
//	ev := evaluator.New()
//	r1, _ := ev.Eval(ctx, expr, map[string]any{"a": a1, "b": b1})
//	r2, _ := ev.Eval(ctx, expr, map[string]any{"a": a2, "b": b2})
//
//	// With options
//	result, err := imagemath.Eval("convert(a, 'L')", bindings,
//	    imagemath.WithCaching(true),
//	    imagemath.WithTimeout(5*time.Second),
//	)
//
// Image bindings may be *image.Image values from
// github.com/sandrolain/imagemath/pkg/image or any standard library
// image.Image. Results are an *image.Image, an int64, a float64, a bool, a
// string or nil.
//
// # More Information
//
// For detailed documentation, see:
//   - Parser: github.com/sandrolain/imagemath/pkg/parser
//   - Evaluator: github.com/sandrolain/imagemath/pkg/evaluator
//   - Operands: github.com/sandrolain/imagemath/pkg/operand
//   - Kernels: github.com/sandrolain/imagemath/pkg/kernel
//   - Images: github.com/sandrolain/imagemath/pkg/image
package imagemath

import (
	"context"
	"fmt"

	"github.com/sandrolain/imagemath/pkg/evaluator"
	"github.com/sandrolain/imagemath/pkg/parser"
	"github.com/sandrolain/imagemath/pkg/types"
)

// Version returns the current version of imagemath.
func Version() string {
	return "v0.1.0-dev"
}

// EvalOption configures evaluation behavior.
type EvalOption = evaluator.EvalOption

// Evaluation options, re-exported from the evaluator package.
var (
	WithCaching     = evaluator.WithCaching
	WithCacheSize   = evaluator.WithCacheSize
	WithCache       = evaluator.WithCache
	WithTimeout     = evaluator.WithTimeout
	WithDebug       = evaluator.WithDebug
	WithLogger      = evaluator.WithLogger
	WithMaxDepth    = evaluator.WithMaxDepth
	WithKernels     = evaluator.WithKernels
	WithMetrics     = evaluator.WithMetrics
	WithSpanManager = evaluator.WithSpanManager
)

// Compile compiles an expression for repeated evaluation.
//
// The compiled expression holds no evaluation state and is safe for
// concurrent use.
func Compile(text string, opts ...parser.CompileOption) (*types.Expression, error) {
	return parser.Compile(text, opts...)
}

// Eval compiles and evaluates text against bindings in a single call.
//
// The evaluation is bounded by the evaluator timeout (30 seconds unless
// WithTimeout says otherwise). For repeated evaluations of the same
// expression, use Compile and an evaluator.Evaluator.
func Eval(text string, bindings map[string]any, opts ...EvalOption) (any, error) {
	return EvalWithContext(context.Background(), text, bindings, opts...)
}

// EvalWithContext evaluates an expression with a custom context.
func EvalWithContext(ctx context.Context, text string, bindings map[string]any, opts ...EvalOption) (any, error) {
	expr, err := Compile(text)
	if err != nil {
		return nil, err
	}
	return evaluator.New(opts...).Eval(ctx, expr, bindings)
}

// MustCompile is like Compile but panics if the expression cannot be compiled.
// It simplifies safe initialization of global variables.
func MustCompile(text string) *types.Expression {
	expr, err := Compile(text)
	if err != nil {
		panic(fmt.Sprintf("imagemath: Compile(%q): %v", text, err))
	}
	return expr
}
