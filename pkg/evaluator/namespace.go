package evaluator

import (
	stdimage "image"
	"math"
	"strings"

	"github.com/sandrolain/imagemath/pkg/image"
	"github.com/sandrolain/imagemath/pkg/operand"
	"github.com/sandrolain/imagemath/pkg/parser"
	"github.com/sandrolain/imagemath/pkg/types"
)

// builtinNames are the built-in functions a binding may not shadow.
var builtinNames = []string{"abs", "int", "float", "min", "max"}

// ReservedNames returns every identifier a binding key may not use: the
// language keywords and the built-in function names.
func ReservedNames() []string {
	return append(parser.Keywords(), builtinNames...)
}

func isReserved(name string) bool {
	if parser.IsKeyword(name) {
		return true
	}
	for _, b := range builtinNames {
		if name == b {
			return true
		}
	}
	return false
}

// ValidateBindingName reports whether name may be used as a binding key.
func ValidateBindingName(name string) error {
	if strings.Contains(name, "__") {
		return types.Errorf(types.ErrForbiddenBinding, "'%s' not allowed", name).WithToken(name)
	}
	if isReserved(name) {
		return types.Errorf(types.ErrForbiddenBinding, "'%s' not allowed", name).WithToken(name)
	}
	return nil
}

// buildNamespace validates bindings and merges them over the vocabulary.
// Image values are wrapped in Operands bound to d.
func buildNamespace(bindings map[string]any, d *operand.Dispatcher) (map[string]any, error) {
	for name := range bindings {
		if err := ValidateBindingName(name); err != nil {
			return nil, err
		}
	}

	ns := make(map[string]any, len(vocabulary())+len(bindings))
	for name, fn := range vocabulary() {
		ns[name] = fn
	}
	for name, raw := range bindings {
		v, err := convertBinding(raw, d)
		if err != nil {
			return nil, types.Errorf(types.ErrInvalidBinding, "binding '%s': %v", name, err.Error()).
				WithToken(name).WithCause(err)
		}
		ns[name] = v
	}
	return ns, nil
}

// convertBinding maps a Go value to the evaluator's value domain.
func convertBinding(v any, d *operand.Dispatcher) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case *image.Image:
		if x == nil {
			return nil, types.Errorf(types.ErrInvalidBinding, "nil image")
		}
		return d.Wrap(x), nil
	case *operand.Operand:
		return d.Wrap(x.Image()), nil
	case stdimage.Image:
		return d.Wrap(image.FromStd(x)), nil
	case bool, string:
		return x, nil
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint:
		return unsignedValue(uint64(x)), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		return unsignedValue(x), nil
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	}
	return nil, types.Errorf(types.ErrInvalidBinding, "unsupported binding type %T", v)
}

func unsignedValue(u uint64) any {
	if u > math.MaxInt64 {
		return float64(u)
	}
	return int64(u)
}

// unwrap strips the Operand wrapper from a result.
func unwrap(v any) any {
	if o, ok := v.(*operand.Operand); ok {
		return o.Image()
	}
	return v
}
