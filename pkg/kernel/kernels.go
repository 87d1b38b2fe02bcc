package kernel

import (
	"math"

	"github.com/sandrolain/imagemath/pkg/image"
)

// intSink returns a store function writing int32 samples into out.
func intSink(out *image.Image) func(i int, v int32) {
	switch out.Mode() {
	case image.ModeI:
		buf := out.Ints()
		return func(i int, v int32) { buf[i] = v }
	case image.ModeF:
		buf := out.Floats()
		return func(i int, v int32) { buf[i] = float32(v) }
	default:
		buf := out.Bytes()
		return func(i int, v int32) { buf[i] = image.ClipByte(float64(v)) }
	}
}

// floatSink returns a store function writing float32 samples into out.
func floatSink(out *image.Image) func(i int, v float32) {
	switch out.Mode() {
	case image.ModeF:
		buf := out.Floats()
		return func(i int, v float32) { buf[i] = v }
	case image.ModeI:
		buf := out.Ints()
		return func(i int, v float32) { buf[i] = image.SaturateInt32(float64(v)) }
	default:
		buf := out.Bytes()
		return func(i int, v float32) { buf[i] = image.ClipByte(float64(v)) }
	}
}

func unaryI(f func(int32) int32) UnaryFunc {
	return func(out, in *image.Image) {
		put := intSink(out)
		for i, v := range in.Ints() {
			put(i, f(v))
		}
	}
}

func binaryI(f func(a, b int32) int32) BinaryFunc {
	return func(out, a, b *image.Image) {
		put := intSink(out)
		bs := b.Ints()
		for i, v := range a.Ints() {
			put(i, f(v, bs[i]))
		}
	}
}

func unaryF(f func(float32) float32) UnaryFunc {
	return func(out, in *image.Image) {
		put := floatSink(out)
		for i, v := range in.Floats() {
			put(i, f(v))
		}
	}
}

func binaryF(f func(a, b float32) float32) BinaryFunc {
	return func(out, a, b *image.Image) {
		put := floatSink(out)
		bs := b.Floats()
		for i, v := range a.Floats() {
			put(i, f(v, bs[i]))
		}
	}
}

func b2i(ok bool) int32 {
	if ok {
		return 1
	}
	return 0
}

func b2f(ok bool) float32 {
	if ok {
		return 1
	}
	return 0
}

// powi raises a to a non-negative integer power by squaring, saturating
// to the int32 range. Negative exponents truncate to 0 except for bases 1
// and -1.
func powi(a, b int32) int32 {
	if b < 0 {
		switch a {
		case 1:
			return 1
		case -1:
			if b%2 == 0 {
				return 1
			}
			return -1
		}
		return 0
	}
	limit := int32(math.MaxInt32)
	if a < 0 && b&1 == 1 {
		limit = math.MinInt32
	}
	// Both factors stay within int32 magnitude, so products fit in int64.
	result, base := int64(1), int64(a)
	for b > 0 {
		if b&1 == 1 {
			result *= base
			if result > math.MaxInt32 || result < math.MinInt32 {
				return limit
			}
		}
		b >>= 1
		if b > 0 {
			base *= base
			if base > math.MaxInt32 {
				return limit
			}
		}
	}
	return int32(result)
}

// Shift counts are masked to 0..31.
func shiftCount(b int32) uint32 {
	return uint32(b) & 31
}

func intKernels() []Kernel {
	un := func(op Op, f func(int32) int32) Kernel {
		return Kernel{Op: op, Mode: image.ModeI, Unary: unaryI(f)}
	}
	bin := func(op Op, f func(a, b int32) int32) Kernel {
		return Kernel{Op: op, Mode: image.ModeI, Binary: binaryI(f)}
	}
	return []Kernel{
		un(OpNeg, func(a int32) int32 { return -a }),
		un(OpAbs, func(a int32) int32 {
			if a < 0 {
				return -a
			}
			return a
		}),
		un(OpInvert, func(a int32) int32 { return ^a }),

		bin(OpAdd, func(a, b int32) int32 { return a + b }),
		bin(OpSub, func(a, b int32) int32 { return a - b }),
		bin(OpMul, func(a, b int32) int32 { return a * b }),
		bin(OpDiv, func(a, b int32) int32 {
			if b == 0 {
				return 0
			}
			return a / b
		}),
		bin(OpMod, func(a, b int32) int32 {
			if b == 0 {
				return 0
			}
			return a % b
		}),
		bin(OpPow, powi),

		bin(OpAnd, func(a, b int32) int32 { return a & b }),
		bin(OpOr, func(a, b int32) int32 { return a | b }),
		bin(OpXor, func(a, b int32) int32 { return a ^ b }),
		bin(OpLShift, func(a, b int32) int32 { return a << shiftCount(b) }),
		bin(OpRShift, func(a, b int32) int32 { return a >> shiftCount(b) }),

		bin(OpEq, func(a, b int32) int32 { return b2i(a == b) }),
		bin(OpNe, func(a, b int32) int32 { return b2i(a != b) }),
		bin(OpLt, func(a, b int32) int32 { return b2i(a < b) }),
		bin(OpLe, func(a, b int32) int32 { return b2i(a <= b) }),
		bin(OpGt, func(a, b int32) int32 { return b2i(a > b) }),
		bin(OpGe, func(a, b int32) int32 { return b2i(a >= b) }),

		bin(OpMin, func(a, b int32) int32 { return min(a, b) }),
		bin(OpMax, func(a, b int32) int32 { return max(a, b) }),
	}
}

func floatKernels() []Kernel {
	un := func(op Op, f func(float32) float32) Kernel {
		return Kernel{Op: op, Mode: image.ModeF, Unary: unaryF(f)}
	}
	bin := func(op Op, f func(a, b float32) float32) Kernel {
		return Kernel{Op: op, Mode: image.ModeF, Binary: binaryF(f)}
	}
	return []Kernel{
		un(OpNeg, func(a float32) float32 { return -a }),
		un(OpAbs, func(a float32) float32 { return float32(math.Abs(float64(a))) }),

		bin(OpAdd, func(a, b float32) float32 { return a + b }),
		bin(OpSub, func(a, b float32) float32 { return a - b }),
		bin(OpMul, func(a, b float32) float32 { return a * b }),
		bin(OpDiv, func(a, b float32) float32 {
			if b == 0 {
				return 0
			}
			return a / b
		}),
		bin(OpMod, func(a, b float32) float32 {
			if b == 0 {
				return 0
			}
			return float32(math.Mod(float64(a), float64(b)))
		}),
		bin(OpPow, func(a, b float32) float32 {
			return float32(math.Pow(float64(a), float64(b)))
		}),

		bin(OpEq, func(a, b float32) float32 { return b2f(a == b) }),
		bin(OpNe, func(a, b float32) float32 { return b2f(a != b) }),
		bin(OpLt, func(a, b float32) float32 { return b2f(a < b) }),
		bin(OpLe, func(a, b float32) float32 { return b2f(a <= b) }),
		bin(OpGt, func(a, b float32) float32 { return b2f(a > b) }),
		bin(OpGe, func(a, b float32) float32 { return b2f(a >= b) }),

		bin(OpMin, func(a, b float32) float32 { return min(a, b) }),
		bin(OpMax, func(a, b float32) float32 { return max(a, b) }),
	}
}
