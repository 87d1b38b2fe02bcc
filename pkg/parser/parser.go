// Package parser implements the parser for image expressions.
//
// The parser uses a hand-written recursive descent approach (Pratt's
// "Top Down Operator Precedence") over a small Python-compatible grammar:
// numeric and string literals, names, calls, lambdas, conditional
// expressions, boolean operators, chained comparisons, and the arithmetic
// and bitwise operators. There is no attribute access, subscripting or
// assignment; the grammar cannot reach anything beyond the names the
// evaluator puts in scope.
//
// # Architecture
//
// The parser consists of two main components:
//   - Lexer: Tokenizes the input expression into a stream of tokens
//   - Parser: Builds an Abstract Syntax Tree (AST) from tokens
//
// # Example
//
//	expr, err := parser.Parse("min(a, b) * 2")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ast := expr.AST()
package parser

import (
	"github.com/sandrolain/imagemath/pkg/types"
)

// Parse parses an image expression and returns the compiled Expression.
//
// Parsing never evaluates anything. If parsing fails, it returns a
// *types.Error with an S-family code and the offending position.
func Parse(query string) (*types.Expression, error) {
	p := NewParser(query)
	return p.Parse()
}

// Compile is an alias for Parse that accepts options.
func Compile(query string, opts ...CompileOption) (*types.Expression, error) {
	p := NewParser(query, opts...)
	return p.Parse()
}

// CompileOption configures compilation behavior.
type CompileOption func(*CompileOptions)

// CompileOptions holds parser configuration.
type CompileOptions struct {
	// MaxDepth limits nesting depth to prevent stack overflow.
	MaxDepth int
}

// WithMaxDepth sets the maximum parsing depth.
func WithMaxDepth(depth int) CompileOption {
	return func(opts *CompileOptions) {
		opts.MaxDepth = depth
	}
}
