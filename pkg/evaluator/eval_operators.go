package evaluator

import (
	"context"

	"github.com/sandrolain/imagemath/pkg/kernel"
	"github.com/sandrolain/imagemath/pkg/operand"
	"github.com/sandrolain/imagemath/pkg/types"
)

// binaryOps maps operator symbols to kernel operations. Floor division
// has no kernel.
var binaryOps = map[string]kernel.Op{
	"+":  kernel.OpAdd,
	"-":  kernel.OpSub,
	"*":  kernel.OpMul,
	"/":  kernel.OpDiv,
	"%":  kernel.OpMod,
	"**": kernel.OpPow,
	"&":  kernel.OpAnd,
	"|":  kernel.OpOr,
	"^":  kernel.OpXor,
	"<<": kernel.OpLShift,
	">>": kernel.OpRShift,
}

var compareOps = map[string]kernel.Op{
	"==": kernel.OpEq,
	"!=": kernel.OpNe,
	"<":  kernel.OpLt,
	"<=": kernel.OpLe,
	">":  kernel.OpGt,
	">=": kernel.OpGe,
}

// truthy implements Python truthiness over the evaluator's value domain.
// An image is true when it has a non-empty bounding box.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	case *operand.Operand:
		return x.Bool()
	}
	return true
}

func (e *Evaluator) evalUnary(ctx context.Context, node *types.ASTNode, evalCtx *EvalContext) (any, error) {
	v, err := e.evalNode(ctx, node.LHS, evalCtx)
	if err != nil {
		return nil, err
	}
	op, _ := node.Value.(string)

	if o, ok := v.(*operand.Operand); ok {
		switch op {
		case "-":
			return o.Neg()
		case "+":
			return o.Pos()
		case "~":
			return o.Invert()
		}
	}
	return numberUnary(op, v)
}

func (e *Evaluator) evalBinary(ctx context.Context, node *types.ASTNode, evalCtx *EvalContext) (any, error) {
	left, err := e.evalNode(ctx, node.LHS, evalCtx)
	if err != nil {
		return nil, err
	}
	right, err := e.evalNode(ctx, node.RHS, evalCtx)
	if err != nil {
		return nil, err
	}
	op, _ := node.Value.(string)

	res, err := binaryOp(op, left, right)
	if te, ok := err.(*types.Error); ok && te.Position < 0 {
		te.Position = node.Position
	}
	return res, err
}

func binaryOp(op string, left, right any) (any, error) {
	lo, lok := left.(*operand.Operand)
	ro, rok := right.(*operand.Operand)
	if lok || rok {
		kop, ok := binaryOps[op]
		if !ok {
			return nil, types.Errorf(types.ErrUnsupportedOperation,
				"unsupported operation %s for images", op).WithToken(op)
		}
		if lok {
			return lo.Binary(kop, right, "")
		}
		return ro.Reflected(kop, left, "")
	}

	if op == "+" {
		if ls, ok := left.(string); ok {
			if rs, ok := right.(string); ok {
				return ls + rs, nil
			}
		}
	}
	res, ok, err := numberBinary(op, left, right)
	if !ok {
		return nil, unsupportedOperands(op, left, right)
	}
	return res, err
}

// evalCompare evaluates a comparison chain. a < b < c behaves as
// (a < b) and (b < c) with b evaluated once.
func (e *Evaluator) evalCompare(ctx context.Context, node *types.ASTNode, evalCtx *EvalContext) (any, error) {
	left, err := e.evalNode(ctx, node.Arguments[0], evalCtx)
	if err != nil {
		return nil, err
	}

	var result any
	for i, op := range node.Ops {
		right, err := e.evalNode(ctx, node.Arguments[i+1], evalCtx)
		if err != nil {
			return nil, err
		}
		result, err = compare(op, left, right)
		if err != nil {
			if te, ok := err.(*types.Error); ok && te.Position < 0 {
				te.Position = node.Arguments[i+1].Position
			}
			return nil, err
		}
		if i < len(node.Ops)-1 && !truthy(result) {
			return result, nil
		}
		left = right
	}
	return result, nil
}

// compare applies one comparison. With an image on the right only, the
// mirrored comparison runs on that image: 3 < x is x > 3.
func compare(op string, left, right any) (any, error) {
	kop := compareOps[op]
	if lo, ok := left.(*operand.Operand); ok {
		return lo.Binary(kop, right, "")
	}
	if ro, ok := right.(*operand.Operand); ok {
		return ro.Binary(kop.Mirror(), left, "")
	}
	return compareValues(op, left, right)
}
