package evaluator

import (
	"context"
	"fmt"

	"github.com/sandrolain/imagemath/pkg/types"
)

func (e *Evaluator) evalNode(ctx context.Context, node *types.ASTNode, evalCtx *EvalContext) (any, error) {
	// Check context cancellation
	select {
	case <-ctx.Done():
		return nil, types.Errorf(types.ErrTimeout, "evaluation cancelled: %v", ctx.Err()).WithCause(ctx.Err())
	default:
	}

	// Check nesting depth
	st := evalCtx.state
	st.depth++
	defer func() { st.depth-- }()
	if e.opts.MaxDepth > 0 && st.depth > e.opts.MaxDepth {
		return nil, types.NewError(types.ErrStackOverflow, "maximum evaluation depth exceeded", node.Position)
	}

	if e.opts.Debug {
		e.logger.Debug("evaluating node",
			"type", node.Type,
			"value", node.Value,
			"scope_depth", evalCtx.Depth())
	}

	switch node.Type {
	case types.NodeNumber:
		if node.IsInt {
			return node.IntValue, nil
		}
		return node.NumValue, nil
	case types.NodeString:
		return node.StrValue, nil
	case types.NodeBoolean:
		return node.Value, nil
	case types.NodeNone:
		return nil, nil
	case types.NodeName:
		return e.evalName(node, evalCtx)
	case types.NodeUnary:
		return e.evalUnary(ctx, node, evalCtx)
	case types.NodeBinary:
		return e.evalBinary(ctx, node, evalCtx)
	case types.NodeCompare:
		return e.evalCompare(ctx, node, evalCtx)
	case types.NodeLogical:
		return e.evalLogical(ctx, node, evalCtx)
	case types.NodeNot:
		return e.evalNot(ctx, node, evalCtx)
	case types.NodeCondition:
		return e.evalCondition(ctx, node, evalCtx)
	case types.NodeCall:
		return e.evalCall(ctx, node, evalCtx)
	case types.NodeLambda:
		return e.evalLambda(node, evalCtx)
	default:
		return nil, fmt.Errorf("unsupported node type: %s", node.Type)
	}
}

// evalName resolves an identifier against the scope chain. abs resolves
// to the built-in when nothing else binds it.
func (e *Evaluator) evalName(node *types.ASTNode, evalCtx *EvalContext) (any, error) {
	if v, ok := evalCtx.GetBinding(node.StrValue); ok {
		return v, nil
	}
	if node.StrValue == absName {
		return absFunction, nil
	}
	return nil, forbiddenName(node.StrValue, node.Position)
}

func (e *Evaluator) evalNot(ctx context.Context, node *types.ASTNode, evalCtx *EvalContext) (any, error) {
	v, err := e.evalNode(ctx, node.LHS, evalCtx)
	if err != nil {
		return nil, err
	}
	return !truthy(v), nil
}

// evalLogical returns the deciding operand, as Python does.
func (e *Evaluator) evalLogical(ctx context.Context, node *types.ASTNode, evalCtx *EvalContext) (any, error) {
	left, err := e.evalNode(ctx, node.LHS, evalCtx)
	if err != nil {
		return nil, err
	}
	switch node.Value {
	case "and":
		if !truthy(left) {
			return left, nil
		}
	case "or":
		if truthy(left) {
			return left, nil
		}
	}
	return e.evalNode(ctx, node.RHS, evalCtx)
}

func (e *Evaluator) evalCondition(ctx context.Context, node *types.ASTNode, evalCtx *EvalContext) (any, error) {
	test, err := e.evalNode(ctx, node.RHS, evalCtx)
	if err != nil {
		return nil, err
	}
	if truthy(test) {
		return e.evalNode(ctx, node.LHS, evalCtx)
	}
	return e.evalNode(ctx, node.Else, evalCtx)
}

func (e *Evaluator) evalCall(ctx context.Context, node *types.ASTNode, evalCtx *EvalContext) (any, error) {
	fn, err := e.evalNode(ctx, node.LHS, evalCtx)
	if err != nil {
		return nil, err
	}
	args := make([]any, len(node.Arguments))
	for i, arg := range node.Arguments {
		if args[i], err = e.evalNode(ctx, arg, evalCtx); err != nil {
			return nil, err
		}
	}
	v, err := e.callValue(ctx, fn, args)
	if err != nil {
		if te, ok := err.(*types.Error); ok && te.Position < 0 {
			te.Position = node.Position
		}
		return nil, err
	}
	return v, nil
}
