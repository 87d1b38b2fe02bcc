package evaluator

import (
	"context"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/sandrolain/imagemath/pkg/image"
	"github.com/sandrolain/imagemath/pkg/kernel"
	"github.com/sandrolain/imagemath/pkg/operand"
	"github.com/sandrolain/imagemath/pkg/types"
)

// FunctionDef defines a built-in function.
type FunctionDef struct {
	Name    string
	MinArgs int
	MaxArgs int
	Impl    FunctionImpl
}

// FunctionImpl is the implementation of a function.
type FunctionImpl func(ctx context.Context, e *Evaluator, args []any) (any, error)

var (
	vocabularyFunctions     map[string]*FunctionDef
	vocabularyFunctionsOnce sync.Once

	absFunction = &FunctionDef{Name: absName, MinArgs: 1, MaxArgs: 1, Impl: fnAbs}
)

// initVocabulary initializes the fixed operation vocabulary.
func initVocabulary() {
	vocabularyFunctionsOnce.Do(func() {
		vocabularyFunctions = map[string]*FunctionDef{
			// Conversion
			"int":     {Name: "int", MinArgs: 1, MaxArgs: 1, Impl: fnInt},
			"float":   {Name: "float", MinArgs: 1, MaxArgs: 1, Impl: fnFloat},
			"convert": {Name: "convert", MinArgs: 2, MaxArgs: 2, Impl: fnConvert},

			// Comparison with integer output
			"equal":    {Name: "equal", MinArgs: 2, MaxArgs: 2, Impl: fnEqual},
			"notequal": {Name: "notequal", MinArgs: 2, MaxArgs: 2, Impl: fnNotEqual},

			// Selection
			"min": {Name: "min", MinArgs: 2, MaxArgs: 2, Impl: fnMin},
			"max": {Name: "max", MinArgs: 2, MaxArgs: 2, Impl: fnMax},
		}
	})
}

func vocabulary() map[string]*FunctionDef {
	initVocabulary()
	return vocabularyFunctions
}

// Vocabulary returns the names of the pre-populated namespace functions.
func Vocabulary() []string {
	names := make([]string, 0, len(vocabulary()))
	for name := range vocabulary() {
		names = append(names, name)
	}
	return names
}

func (f *FunctionDef) call(ctx context.Context, e *Evaluator, args []any) (any, error) {
	if len(args) < f.MinArgs || len(args) > f.MaxArgs {
		return nil, argumentCount(f.Name, f.MinArgs, len(args))
	}
	return f.Impl(ctx, e, args)
}

func argumentCount(name string, want, got int) error {
	noun := "arguments"
	if want == 1 {
		noun = "argument"
	}
	return types.Errorf(types.ErrArgumentCount, "%s() takes %d %s (%d given)", name, want, noun, got).WithToken(name)
}

// firstOperand returns the first Operand in args, which becomes the
// normalization reference for the call.
func firstOperand(args []any) (*operand.Operand, int) {
	for i, a := range args {
		if o, ok := a.(*operand.Operand); ok {
			return o, i
		}
	}
	return nil, -1
}

// --- Conversion ---

func fnInt(_ context.Context, _ *Evaluator, args []any) (any, error) {
	switch x := args[0].(type) {
	case *operand.Operand:
		return x.Convert(image.ModeI)
	case string:
		v, err := strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(x), "_", ""), 10, 64)
		if err != nil {
			return nil, types.Errorf(types.ErrInvalidOperand, "invalid literal for int(): '%s'", x).WithCause(err)
		}
		return v, nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, types.Errorf(types.ErrNumericDomain, "cannot convert float %v to integer", x)
		}
		if x >= math.MaxInt64 || x < math.MinInt64 {
			return nil, intOverflow("int")
		}
		return int64(x), nil
	}
	if i, ok := asInt(args[0]); ok {
		return i, nil
	}
	return nil, types.Errorf(types.ErrInvalidOperand, "int() argument must be a number, string or image, not '%s'", typeName(args[0]))
}

func fnFloat(_ context.Context, _ *Evaluator, args []any) (any, error) {
	switch x := args[0].(type) {
	case *operand.Operand:
		return x.Convert(image.ModeF)
	case string:
		v, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil, types.Errorf(types.ErrInvalidOperand, "could not convert string to float: '%s'", x).WithCause(err)
		}
		return v, nil
	}
	if f, ok := asFloat(args[0]); ok {
		return f, nil
	}
	return nil, types.Errorf(types.ErrInvalidOperand, "float() argument must be a number, string or image, not '%s'", typeName(args[0]))
}

func fnConvert(_ context.Context, _ *Evaluator, args []any) (any, error) {
	o, ok := args[0].(*operand.Operand)
	if !ok {
		return nil, types.Errorf(types.ErrInvalidOperand, "convert() argument 1 must be an image, not '%s'", typeName(args[0]))
	}
	name, ok := args[1].(string)
	if !ok {
		return nil, types.Errorf(types.ErrInvalidOperand, "convert() argument 2 must be a mode string, not '%s'", typeName(args[1]))
	}
	mode, err := image.ParseMode(name)
	if err != nil {
		return nil, err
	}
	return o.Convert(mode)
}

// --- Comparison ---

func fnEqual(ctx context.Context, e *Evaluator, args []any) (any, error) {
	return compareInt(kernel.OpEq, "==", args)
}

func fnNotEqual(ctx context.Context, e *Evaluator, args []any) (any, error) {
	return compareInt(kernel.OpNe, "!=", args)
}

// compareInt runs eq or ne with an I-mode result. Both operations are
// symmetric, so the reference Operand may sit on either side.
func compareInt(op kernel.Op, symbol string, args []any) (any, error) {
	o, i := firstOperand(args)
	if o == nil {
		return compareValues(symbol, args[0], args[1])
	}
	return o.Binary(op, args[1-i], image.ModeI)
}

// --- Selection ---

func fnMin(_ context.Context, _ *Evaluator, args []any) (any, error) {
	return selectBinary(kernel.OpMin, args)
}

func fnMax(_ context.Context, _ *Evaluator, args []any) (any, error) {
	return selectBinary(kernel.OpMax, args)
}

func selectBinary(op kernel.Op, args []any) (any, error) {
	o, i := firstOperand(args)
	if o != nil {
		if i == 0 {
			return o.Binary(op, args[1], "")
		}
		return o.Reflected(op, args[0], "")
	}

	// Plain values keep Python's rule: the first of equal candidates wins.
	less, err := compareValues("<", args[1], args[0])
	if err != nil {
		return nil, err
	}
	if op == kernel.OpMax {
		greater, err := compareValues(">", args[1], args[0])
		if err != nil {
			return nil, err
		}
		less = greater
	}
	if less {
		return args[1], nil
	}
	return args[0], nil
}

// --- Built-in ---

func fnAbs(_ context.Context, _ *Evaluator, args []any) (any, error) {
	switch x := args[0].(type) {
	case *operand.Operand:
		return x.Abs()
	case float64:
		return math.Abs(x), nil
	}
	if i, ok := asInt(args[0]); ok {
		if i == math.MinInt64 {
			return nil, intOverflow("abs")
		}
		if i < 0 {
			return -i, nil
		}
		return i, nil
	}
	return nil, types.Errorf(types.ErrInvalidOperand, "bad operand type for abs(): '%s'", typeName(args[0]))
}
