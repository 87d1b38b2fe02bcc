package evaluator

import (
	"errors"
	"math"
	"math/bits"

	"github.com/sandrolain/imagemath/pkg/operand"
	"github.com/sandrolain/imagemath/pkg/types"
)

// asInt accepts int64 and bool.
func asInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// asFloat accepts int64, bool and float64.
func asFloat(v any) (float64, bool) {
	if f, ok := v.(float64); ok {
		return f, true
	}
	if i, ok := asInt(v); ok {
		return float64(i), true
	}
	return 0, false
}

// typeName names v's type in error messages.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "NoneType"
	case bool:
		return "bool"
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "str"
	case *operand.Operand:
		return "image"
	case *Lambda:
		return "function"
	case *FunctionDef:
		return "builtin_function"
	}
	return "object"
}

func unsupportedOperands(op string, a, b any) error {
	return types.Errorf(types.ErrInvalidOperand,
		"unsupported operand type(s) for %s: '%s' and '%s'", op, typeName(a), typeName(b)).WithToken(op)
}

func badUnaryOperand(op string, a any) error {
	return types.Errorf(types.ErrInvalidOperand,
		"bad operand type for unary %s: '%s'", op, typeName(a)).WithToken(op)
}

func intOverflow(op string) error {
	return types.Errorf(types.ErrNumericDomain, "integer overflow in %s", op).WithToken(op)
}

func divisionByZero(op string) error {
	msg := "division by zero"
	if op == "%" {
		msg = "modulo by zero"
	}
	return types.Errorf(types.ErrDivisionByZero, "%s", msg).WithToken(op)
}

// numberBinary applies op to two plain numbers. ok is false when either
// operand is not a number.
func numberBinary(op string, a, b any) (result any, ok bool, err error) {
	x, xInt := asInt(a)
	y, yInt := asInt(b)
	if xInt && yInt {
		r, err := intBinary(op, x, y)
		return r, true, err
	}
	fx, okA := asFloat(a)
	fy, okB := asFloat(b)
	if !okA || !okB {
		return nil, false, nil
	}
	r, err := floatBinary(op, fx, fy)
	if err == errNotFloatOp {
		return nil, true, unsupportedOperands(op, a, b)
	}
	return r, true, err
}

func intBinary(op string, x, y int64) (any, error) {
	switch op {
	case "+":
		s := x + y
		if (s > x) != (y > 0) {
			return nil, intOverflow(op)
		}
		return s, nil
	case "-":
		d := x - y
		if (d < x) != (y > 0) {
			return nil, intOverflow(op)
		}
		return d, nil
	case "*":
		if x == 0 || y == 0 {
			return int64(0), nil
		}
		p := x * y
		if p/y != x || (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
			return nil, intOverflow(op)
		}
		return p, nil
	case "/":
		if y == 0 {
			return nil, divisionByZero(op)
		}
		return float64(x) / float64(y), nil
	case "//":
		if y == 0 {
			return nil, divisionByZero(op)
		}
		if x == math.MinInt64 && y == -1 {
			return nil, intOverflow(op)
		}
		return floorDiv(x, y), nil
	case "%":
		if y == 0 {
			return nil, divisionByZero(op)
		}
		if y == -1 {
			return int64(0), nil
		}
		return floorMod(x, y), nil
	case "**":
		if y < 0 {
			return floatBinary(op, float64(x), float64(y))
		}
		return intPow(x, y)
	case "&":
		return x & y, nil
	case "|":
		return x | y, nil
	case "^":
		return x ^ y, nil
	case "<<":
		if y < 0 {
			return nil, types.Errorf(types.ErrNumericDomain, "negative shift count").WithToken(op)
		}
		if x == 0 {
			return int64(0), nil
		}
		if y >= 63 || bits.Len64(uint64(absInt(x)))+int(y) > 63 {
			return nil, intOverflow(op)
		}
		return x << uint(y), nil
	case ">>":
		if y < 0 {
			return nil, types.Errorf(types.ErrNumericDomain, "negative shift count").WithToken(op)
		}
		if y > 63 {
			y = 63
		}
		return x >> uint(y), nil
	}
	return nil, types.Errorf(types.ErrSyntaxError, "unknown operator %s", op).WithToken(op)
}

// absInt returns |x|. MinInt64 maps to itself.
func absInt(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

func floorDiv(x, y int64) int64 {
	q := x / y
	if (x%y != 0) && ((x < 0) != (y < 0)) {
		q--
	}
	return q
}

func floorMod(x, y int64) int64 {
	r := x % y
	if r != 0 && (r < 0) != (y < 0) {
		r += y
	}
	return r
}

func intPow(base, exp int64) (any, error) {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			r, err := intBinary("*", result, base)
			if err != nil {
				return nil, intOverflow("**")
			}
			result = r.(int64)
		}
		exp >>= 1
		if exp > 0 {
			b, err := intBinary("*", base, base)
			if err != nil {
				return nil, intOverflow("**")
			}
			base = b.(int64)
		}
	}
	return result, nil
}

var errNotFloatOp = errors.New("operator not defined for float")

func floatBinary(op string, x, y float64) (any, error) {
	switch op {
	case "+":
		return x + y, nil
	case "-":
		return x - y, nil
	case "*":
		return x * y, nil
	case "/":
		if y == 0 {
			return nil, divisionByZero(op)
		}
		return x / y, nil
	case "//":
		if y == 0 {
			return nil, divisionByZero(op)
		}
		return math.Floor(x / y), nil
	case "%":
		if y == 0 {
			return nil, divisionByZero(op)
		}
		r := math.Mod(x, y)
		if r != 0 && (r < 0) != (y < 0) {
			r += y
		}
		return r, nil
	case "**":
		if x == 0 && y < 0 {
			return nil, types.Errorf(types.ErrDivisionByZero, "0.0 cannot be raised to a negative power").WithToken(op)
		}
		if x < 0 && y != math.Trunc(y) {
			return nil, types.Errorf(types.ErrNumericDomain, "negative number cannot be raised to a fractional power").WithToken(op)
		}
		return math.Pow(x, y), nil
	}
	return nil, errNotFloatOp
}

// numberUnary applies -, + or ~ to a plain number.
func numberUnary(op string, a any) (any, error) {
	if x, ok := asInt(a); ok {
		switch op {
		case "-":
			if x == math.MinInt64 {
				return nil, intOverflow(op)
			}
			return -x, nil
		case "+":
			return x, nil
		case "~":
			return ^x, nil
		}
	}
	if f, ok := a.(float64); ok {
		switch op {
		case "-":
			return -f, nil
		case "+":
			return f, nil
		}
	}
	return nil, badUnaryOperand(op, a)
}

// compareValues applies a comparison to two non-image values.
func compareValues(op string, a, b any) (bool, error) {
	if fa, ok := asFloat(a); ok {
		if fb, ok := asFloat(b); ok {
			if ia, okA := asInt(a); okA {
				if ib, okB := asInt(b); okB {
					return compareOrdered(op, ia, ib), nil
				}
			}
			return compareOrdered(op, fa, fb), nil
		}
	}
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			return compareOrdered(op, sa, sb), nil
		}
	}
	switch op {
	case "==":
		return a == b, nil
	case "!=":
		return a != b, nil
	}
	return false, types.Errorf(types.ErrInvalidOperand,
		"'%s' not supported between instances of '%s' and '%s'", op, typeName(a), typeName(b)).WithToken(op)
}

func compareOrdered[T int64 | float64 | string](op string, a, b T) bool {
	switch op {
	case "==":
		return a == b
	case "!=":
		return a != b
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	case ">=":
		return a >= b
	}
	return false
}
