package evaluator

import (
	"context"
	"strings"

	"github.com/sandrolain/imagemath/pkg/types"
)

// Lambda is a function value created by a lambda expression. It closes
// over the scope it was created in.
type Lambda struct {
	Params []string
	Body   *types.ASTNode
	Ctx    *EvalContext
}

func (l *Lambda) String() string {
	return "<lambda(" + strings.Join(l.Params, ", ") + ")>"
}

func (e *Evaluator) evalLambda(node *types.ASTNode, evalCtx *EvalContext) (any, error) {
	return &Lambda{Params: node.Params, Body: node.LHS, Ctx: evalCtx}, nil
}

func (e *Evaluator) callLambda(ctx context.Context, lambda *Lambda, args []any) (any, error) {
	if len(args) != len(lambda.Params) {
		return nil, argumentCount("<lambda>", len(lambda.Params), len(args))
	}
	scope := lambda.Ctx.NewChildContext()
	for i, param := range lambda.Params {
		scope.SetBinding(param, args[i])
	}
	return e.evalNode(ctx, lambda.Body, scope)
}

// callValue invokes a function value.
func (e *Evaluator) callValue(ctx context.Context, fn any, args []any) (any, error) {
	switch f := fn.(type) {
	case *FunctionDef:
		return f.call(ctx, e, args)
	case *Lambda:
		return e.callLambda(ctx, f, args)
	}
	return nil, types.Errorf(types.ErrNotCallable, "'%s' object is not callable", typeName(fn))
}
