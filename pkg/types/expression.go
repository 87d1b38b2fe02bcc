// Package types defines the core type system for imagemath.
//
// This package contains type definitions for:
//   - Expression: compiled image expressions
//   - ASTNode: Abstract Syntax Tree nodes
//   - Error types: structured errors with codes
package types

// Expression represents a compiled image expression.
//
// An Expression holds only the parsed tree and its source text. It carries
// no evaluation state and is safe for concurrent use by multiple goroutines.
type Expression struct {
	ast    *ASTNode
	source string
}

// NewExpression creates a new Expression from an AST.
func NewExpression(ast *ASTNode, source string) *Expression {
	return &Expression{
		ast:    ast,
		source: source,
	}
}

// AST returns the Abstract Syntax Tree of the expression.
func (e *Expression) AST() *ASTNode {
	return e.ast
}

// Source returns the original source code of the expression.
func (e *Expression) Source() string {
	return e.source
}

// String returns a string representation of the expression.
func (e *Expression) String() string {
	return e.source
}
