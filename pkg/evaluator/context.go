package evaluator

import (
	"sync/atomic"
)

// evalState is shared by every scope of one evaluation.
type evalState struct {
	depth       int
	kernelCalls atomic.Int64
}

// EvalContext is a lexical scope. The root scope holds the namespace;
// each lambda call adds a child scope holding its parameters.
type EvalContext struct {
	bindings map[string]any
	parent   *EvalContext
	state    *evalState
	depth    int
}

func newRootContext(bindings map[string]any, st *evalState) *EvalContext {
	return &EvalContext{bindings: bindings, state: st}
}

// NewChildContext creates a scope nested in c.
func (c *EvalContext) NewChildContext() *EvalContext {
	return &EvalContext{
		bindings: make(map[string]any),
		parent:   c,
		state:    c.state,
		depth:    c.depth + 1,
	}
}

// Depth returns the lambda nesting depth of the scope.
func (c *EvalContext) Depth() int {
	return c.depth
}

// SetBinding binds name in this scope.
func (c *EvalContext) SetBinding(name string, value any) {
	c.bindings[name] = value
}

// GetBinding looks name up in this scope and its parents.
func (c *EvalContext) GetBinding(name string) (any, bool) {
	for s := c; s != nil; s = s.parent {
		if v, ok := s.bindings[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// KernelCalls returns the number of kernels run so far by the evaluation
// owning c.
func (c *EvalContext) KernelCalls() int64 {
	return c.state.kernelCalls.Load()
}
