package evaluator_test

import (
	"bytes"
	"context"
	stdimage "image"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/imagemath/pkg/cache"
	"github.com/sandrolain/imagemath/pkg/evaluator"
	"github.com/sandrolain/imagemath/pkg/image"
	"github.com/sandrolain/imagemath/pkg/parser"
	"github.com/sandrolain/imagemath/pkg/types"
)

func TestEval_Identity(t *testing.T) {
	for _, im := range []*image.Image{
		intImage(t, 2, 1, 1, 2),
		floatImage(t, 1, 1, 0.5),
		byteImage(t, image.ModeL, 1, 1, 9),
		byteImage(t, image.ModeRGB, 1, 1, 1, 2, 3),
	} {
		got := mustEval(t, "x", map[string]any{"x": im})
		assert.Same(t, im, got)
	}
}

func TestEval_AddCommutesWithConstants(t *testing.T) {
	x := intImage(t, 3, 1, -1, 0, 7)
	for _, c := range []string{"0", "3", "-4", "2.5", "True"} {
		fwd := mustImage(t, mustEval(t, "x + "+c, map[string]any{"x": x}))
		rev := mustImage(t, mustEval(t, c+" + x", map[string]any{"x": x}))
		assert.True(t, fwd.Equal(rev), c)
	}
}

func TestEval_SizeIsElementWiseMinimum(t *testing.T) {
	a := intImage(t, 4, 1, 1, 2, 3, 4)
	b := intImage(t, 2, 2, 10, 20, 30, 40)
	res := mustImage(t, mustEval(t, "a + b", map[string]any{"a": a, "b": b}))
	assert.Equal(t, image.Size{Width: 2, Height: 1}, res.Size())
	assert.Equal(t, []int32{11, 22}, res.Ints())
}

func TestEval_ForbiddenBindings(t *testing.T) {
	img := intImage(t, 1, 1, 1)
	for _, name := range []string{"__class__", "a__b", "__", "abs", "int", "float", "min", "max", "None", "True", "lambda", "and"} {
		t.Run(name, func(t *testing.T) {
			reg := newCountingRegistry()
			_, err := evalString(t, "x + 1", map[string]any{"x": img, name: 1}, evaluator.WithKernels(reg))
			require.Error(t, err)
			assert.Equal(t, types.KindForbiddenName, types.KindOf(err))
			assert.Equal(t, types.ErrForbiddenBinding, types.CodeOf(err))
			assert.Zero(t, reg.calls.Load())
		})
	}
}

func TestEval_UnknownNamesRejectedBeforeKernels(t *testing.T) {
	img := intImage(t, 2, 1, 1, 2)
	tests := []string{
		"x + 1 + os",
		"-x * (y)",
		"open(x)",
		"(lambda a: a + system)(x)",
		"x if x else __import__",
		"(lambda __a: x)(1)",
		"getattr(x, 'im')",
	}
	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			reg := newCountingRegistry()
			_, err := evalString(t, text, map[string]any{"x": img}, evaluator.WithKernels(reg))
			require.Error(t, err)
			assert.Equal(t, types.ErrForbiddenName, types.CodeOf(err))
			assert.Zero(t, reg.calls.Load())
		})
	}
}

func TestEval_AbsIsTheOnlyBuiltin(t *testing.T) {
	x := intImage(t, 2, 1, -3, 4)
	res := mustImage(t, mustEval(t, "abs(x)", map[string]any{"x": x}))
	assert.Equal(t, []int32{3, 4}, res.Ints())

	for _, name := range []string{"len", "print", "eval", "exec", "sum", "round"} {
		_, err := evalString(t, name+"(1)", nil)
		assert.Equal(t, types.ErrForbiddenName, types.CodeOf(err), name)
	}
}

func TestEval_MinMatchesReference(t *testing.T) {
	a := intImage(t, 3, 2, 1, 9, 3, -4, 5, 6)
	b := intImage(t, 3, 2, 2, 8, 3, 0, 5, -6)

	want := make([]int32, 6)
	for i := range want {
		want[i] = min(a.Ints()[i], b.Ints()[i])
	}
	res := mustImage(t, mustEval(t, "min(a, b)", map[string]any{"a": a, "b": b}))
	assert.Equal(t, want, res.Ints())

	res = mustImage(t, mustEval(t, "max(a, b)", map[string]any{"a": a, "b": b}))
	assert.Equal(t, []int32{2, 9, 3, 0, 5, 6}, res.Ints())
}

func TestEval_DoubleNegation(t *testing.T) {
	for _, im := range []*image.Image{
		intImage(t, 3, 1, 5, -2, 0),
		floatImage(t, 3, 1, 1.25, -7.5, 0),
	} {
		neg := mustEval(t, "-x", map[string]any{"x": im})
		back := mustImage(t, mustEval(t, "-y", map[string]any{"y": neg}))
		assert.True(t, im.Equal(back), im.Mode().String())
	}
}

func TestEval_MixedModesProduceFloat(t *testing.T) {
	a := intImage(t, 2, 1, 1, 2)
	b := floatImage(t, 2, 1, 0.5, 0.5)
	res := mustImage(t, mustEval(t, "a + b", map[string]any{"a": a, "b": b}))
	assert.Equal(t, image.ModeF, res.Mode())
	assert.Equal(t, []float32{1.5, 2.5}, res.Floats())
}

// L and I widen to the same mode, so there is no float join between
// them; a float join only happens once the modes still differ after
// widening.
func TestEval_FloatJoinAfterWidening(t *testing.T) {
	l := byteImage(t, image.ModeL, 2, 1, 1, 2)
	i := intImage(t, 2, 1, 3, 4)
	res := mustImage(t, mustEval(t, "l + i", map[string]any{"l": l, "i": i}))
	assert.Equal(t, image.ModeI, res.Mode())

	f := floatImage(t, 2, 1, 1, 1)
	res = mustImage(t, mustEval(t, "l * f", map[string]any{"l": l, "f": f}))
	assert.Equal(t, image.ModeF, res.Mode())
}

func TestEval_ReflectedOperators(t *testing.T) {
	x := intImage(t, 2, 1, 2, 5)
	b := map[string]any{"x": x}

	tests := []struct {
		expr string
		want []int32
	}{
		{"10 - x", []int32{8, 5}},
		{"x - 10", []int32{-8, -5}},
		{"20 / x", []int32{10, 4}},
		{"7 % x", []int32{1, 2}},
		{"2 ** x", []int32{4, 32}},
		{"1 << x", []int32{4, 32}},
		{"64 >> x", []int32{16, 2}},
		{"3 < x", []int32{0, 1}},
		{"3 >= x", []int32{1, 0}},
		{"5 == x", []int32{0, 1}},
		{"x != 5", []int32{1, 0}},
		{"6 & x", []int32{2, 4}},
		{"1 | x", []int32{3, 5}},
		{"~x", []int32{-3, -6}},
		{"+x", []int32{2, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			res := mustImage(t, mustEval(t, tt.expr, b))
			assert.Equal(t, tt.want, res.Ints())
		})
	}
}

func TestEval_VocabularyOnImages(t *testing.T) {
	f := floatImage(t, 3, 1, 1.5, 2, 300)
	b := map[string]any{"f": f}

	eq := mustImage(t, mustEval(t, "equal(f, 2)", b))
	assert.Equal(t, image.ModeI, eq.Mode())
	assert.Equal(t, []int32{0, 1, 0}, eq.Ints())

	ne := mustImage(t, mustEval(t, "notequal(2, f)", b))
	assert.Equal(t, image.ModeI, ne.Mode())
	assert.Equal(t, []int32{1, 0, 1}, ne.Ints())

	i := mustImage(t, mustEval(t, "int(f)", b))
	assert.Equal(t, []int32{1, 2, 300}, i.Ints())

	l := mustImage(t, mustEval(t, "convert(f, 'L')", b))
	assert.Equal(t, image.ModeL, l.Mode())
	assert.Equal(t, []uint8{1, 2, 255}, l.Bytes())

	ff := mustImage(t, mustEval(t, "float(x)", map[string]any{"x": intImage(t, 1, 1, 7)}))
	assert.Equal(t, []float32{7}, ff.Floats())

	lo := mustImage(t, mustEval(t, "min(2, f)", b))
	assert.Equal(t, []float32{1.5, 2, 2}, lo.Floats())

	_, err := evalString(t, "convert(f, 'CMYK')", b)
	assert.Equal(t, types.ErrUnsupportedMode, types.CodeOf(err))
}

func TestEval_Truthiness(t *testing.T) {
	zero := intImage(t, 2, 1, 0, 0)
	some := intImage(t, 2, 1, 0, 1)
	b := map[string]any{"zero": zero, "some": some}

	assert.Equal(t, int64(2), mustEval(t, "1 if zero else 2", b))
	assert.Equal(t, int64(1), mustEval(t, "1 if some else 2", b))
	assert.Equal(t, true, mustEval(t, "not zero", b))
	assert.Equal(t, int64(5), mustEval(t, "some and 5", b))
	assert.Same(t, some, mustEval(t, "zero or some", b))

	// A comparison chain stops at the first empty image.
	res := mustImage(t, mustEval(t, "1 < some < 0", b))
	assert.Equal(t, []int32{0, 0}, res.Ints())
}

func TestEval_UnsupportedCombinations(t *testing.T) {
	f := floatImage(t, 1, 1, 1)
	rgb := byteImage(t, image.ModeRGB, 1, 1, 1, 2, 3)

	_, err := evalString(t, "~f", map[string]any{"f": f})
	assert.Equal(t, types.KindUnsupportedOperation, types.KindOf(err))
	assert.Contains(t, err.Error(), "invert")

	_, err = evalString(t, "f & 1", map[string]any{"f": f})
	assert.Equal(t, types.KindUnsupportedOperation, types.KindOf(err))

	_, err = evalString(t, "f // 2", map[string]any{"f": f})
	assert.Equal(t, types.KindUnsupportedOperation, types.KindOf(err))

	_, err = evalString(t, "rgb + 1", map[string]any{"rgb": rgb})
	assert.Equal(t, types.KindUnsupportedMode, types.KindOf(err))

	_, err = evalString(t, "f + 'text'", map[string]any{"f": f})
	assert.Equal(t, types.ErrInvalidOperand, types.CodeOf(err))
}

func TestEval_Bindings(t *testing.T) {
	gray := stdimage.NewGray(stdimage.Rect(0, 0, 2, 1))
	gray.Pix[0], gray.Pix[1] = 10, 20

	res := mustImage(t, mustEval(t, "g + k", map[string]any{"g": gray, "k": uint8(5)}))
	assert.Equal(t, image.ModeI, res.Mode())
	assert.Equal(t, []int32{15, 25}, res.Ints())

	assert.Equal(t, int64(7), mustEval(t, "a + b", map[string]any{"a": int32(3), "b": uint16(4)}))
	assert.Equal(t, 1.5, mustEval(t, "a", map[string]any{"a": float32(1.5)}))
	assert.Equal(t, "L", mustEval(t, "m", map[string]any{"m": "L"}))

	// Bindings may replace vocabulary entries that are not built-ins.
	assert.Equal(t, int64(1), mustEval(t, "equal", map[string]any{"equal": 1}))

	_, err := evalString(t, "x", map[string]any{"x": struct{}{}})
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidBinding, types.CodeOf(err))

	var nilImage *image.Image
	_, err = evalString(t, "x", map[string]any{"x": nilImage})
	assert.Equal(t, types.ErrInvalidBinding, types.CodeOf(err))
}

func TestEval_ParseErrors(t *testing.T) {
	for _, text := range []string{"", "x +", "x.im", "x[0]", "a = 1", "(", "1 2", "'abc"} {
		_, err := evalString(t, text, map[string]any{"x": 1})
		require.Error(t, err, text)
		assert.Equal(t, types.KindParse, types.KindOf(err), text)
	}
}

func TestEval_CancelledContext(t *testing.T) {
	expr, err := parser.Compile("1 + 2")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = evaluator.New().Eval(ctx, expr, nil)
	require.Error(t, err)
	assert.Equal(t, types.ErrTimeout, types.CodeOf(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEval_MaxDepth(t *testing.T) {
	_, err := evalString(t, "(lambda f: f(f))(lambda f: f(f))", nil, evaluator.WithMaxDepth(64))
	require.Error(t, err)
	assert.Equal(t, types.ErrStackOverflow, types.CodeOf(err))
}

func TestEval_NilExpression(t *testing.T) {
	_, err := evaluator.New().Eval(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestEval_Caching(t *testing.T) {
	c := cache.New(4)
	ev := evaluator.New(evaluator.WithCache(c))
	assert.Same(t, c, ev.Cache())

	for i := 0; i < 3; i++ {
		v, err := ev.EvalString(context.Background(), "a * 2", map[string]any{"a": int64(i)})
		require.NoError(t, err)
		assert.Equal(t, int64(i*2), v)
	}
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, uint64(2), c.Stats().Hits)

	assert.Nil(t, evaluator.New().Cache())
	assert.Equal(t, 8, evaluator.New(evaluator.WithCaching(true), evaluator.WithCacheSize(8)).Cache().Capacity())
}

func TestEval_MetricsAndKernelCount(t *testing.T) {
	m := &fakeMetrics{}
	x := intImage(t, 2, 1, 1, 2)

	_, err := evalString(t, "min(x + 1, -x)", map[string]any{"x": x}, evaluator.WithMetrics(m))
	require.NoError(t, err)
	_, err = evalString(t, "x + nope", map[string]any{"x": x}, evaluator.WithMetrics(m))
	require.Error(t, err)

	require.Len(t, m.evals, 2)
	assert.NoError(t, m.evals[0].err)
	assert.Error(t, m.evals[1].err)
	assert.Equal(t, []string{"add_I", "neg_I", "min_I"}, m.kernels)
}

func TestEval_DebugLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	x := intImage(t, 2, 1, 1, 2)
	mustEval(t, "x * 3", map[string]any{"x": x}, evaluator.WithLogger(logger), evaluator.WithDebug(true))

	out := buf.String()
	assert.Contains(t, out, `"eval_id"`)
	assert.Contains(t, out, "evaluation completed")
	assert.Contains(t, out, `"kernel":"mul_I"`)
	assert.True(t, strings.Count(out, "evaluating node") >= 3)
}

func TestReservedNames(t *testing.T) {
	names := evaluator.ReservedNames()
	for _, n := range []string{"abs", "int", "float", "min", "max", "lambda", "None"} {
		assert.Contains(t, names, n)
	}
	assert.NoError(t, evaluator.ValidateBindingName("image1"))
	assert.Error(t, evaluator.ValidateBindingName("__x"))
	assert.ElementsMatch(t, []string{"int", "float", "convert", "equal", "notequal", "min", "max"}, evaluator.Vocabulary())
}

func TestFreeNames(t *testing.T) {
	expr, err := parser.Compile("a + (lambda b, c: b * c + d)(e, 1) + abs(a)")
	require.NoError(t, err)

	var names []string
	for _, ref := range evaluator.FreeNames(expr.AST()) {
		names = append(names, ref.Name)
	}
	assert.Equal(t, []string{"a", "d", "e", "abs", "a"}, names)
}

func TestEval_Numbers(t *testing.T) {
	tests := []struct {
		expr string
		want any
	}{
		{"1 + 2", int64(3)},
		{"7 / 2", 3.5},
		{"-7 // 2", int64(-4)},
		{"-7 % 3", int64(2)},
		{"7.5 % -2", -0.5},
		{"2 ** -1", 0.5},
		{"2 ** 3 ** 2", int64(512)},
		{"-2 ** 2", int64(-4)},
		{"6 & 3 | 8 ^ 1", int64(11)},
		{"1 << 4 >> 2", int64(4)},
		{"~5", int64(-6)},
		{"True + 1", int64(2)},
		{"1 < 2 < 3", true},
		{"3 > 2 > 2", false},
		{"1 == 1.0", true},
		{"'a' < 'b'", true},
		{"'ab' + 'cd'", "abcd"},
		{"1 if 0 else 2", int64(2)},
		{"0 or 5", int64(5)},
		{"3 and 0", int64(0)},
		{"not 0", true},
		{"(lambda a, b: a * b)(6, 7)", int64(42)},
		{"(lambda a: lambda b: a - b)(10)(3)", int64(7)},
		{"abs(-4)", int64(4)},
		{"abs(-2.5)", 2.5},
		{"int(3.7)", int64(3)},
		{"int(-3.7)", int64(-3)},
		{"int('12')", int64(12)},
		{"float(2)", 2.0},
		{"min(2, 3)", int64(2)},
		{"max(2, 3.5)", 3.5},
		{"0x10 + 0b11", int64(19)},
		{"1_000 * 2", int64(2000)},
		{"None", nil},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			assert.Equal(t, tt.want, mustEval(t, tt.expr, nil))
		})
	}
}

func TestEval_NumberErrors(t *testing.T) {
	tests := []struct {
		expr string
		code types.ErrorCode
	}{
		{"1 / 0", types.ErrDivisionByZero},
		{"1 // 0", types.ErrDivisionByZero},
		{"1 % 0", types.ErrDivisionByZero},
		{"0 ** -1", types.ErrDivisionByZero},
		{"(-8) ** 0.5", types.ErrNumericDomain},
		{"9223372036854775807 + 1", types.ErrNumericDomain},
		{"2 ** 64", types.ErrNumericDomain},
		{"1 << -1", types.ErrNumericDomain},
		{"1 & 1.5", types.ErrInvalidOperand},
		{"~1.5", types.ErrInvalidOperand},
		{"'a' + 1", types.ErrInvalidOperand},
		{"'a' < 1", types.ErrInvalidOperand},
		{"int('x')", types.ErrInvalidOperand},
		{"3(1)", types.ErrNotCallable},
		{"min(1)", types.ErrArgumentCount},
		{"(lambda a: a)(1, 2)", types.ErrArgumentCount},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := evalString(t, tt.expr, nil)
			require.Error(t, err)
			assert.Equal(t, tt.code, types.CodeOf(err))
		})
	}
}

func TestEval_LambdaResult(t *testing.T) {
	v := mustEval(t, "lambda a: a", nil)
	l, ok := v.(*evaluator.Lambda)
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, l.Params)
}

func TestEval_Concurrent(t *testing.T) {
	ev := evaluator.New(evaluator.WithCaching(true))
	x := intImage(t, 2, 2, 1, 2, 3, 4)

	done := make(chan error, 16)
	for i := 0; i < cap(done); i++ {
		go func(k int64) {
			v, err := ev.EvalString(context.Background(), "x * k + min(x, k)", map[string]any{"x": x, "k": k})
			if err == nil {
				_, err = ev.EvalString(context.Background(), "x", map[string]any{"x": v})
			}
			done <- err
		}(int64(i))
	}
	for i := 0; i < cap(done); i++ {
		assert.NoError(t, <-done)
	}
	assert.Equal(t, []int32{1, 2, 3, 4}, x.Ints())
}

func FuzzEval(f *testing.F) {
	for _, seed := range []string{
		"x + 1", "min(x, 3) * 2", "(lambda a: a * x)(2)", "x if x else -x",
		"1 < x < 3", "convert(x, 'L')", "~x ^ 7", "x ** 2 / (x - 1)",
	} {
		f.Add(seed)
	}
	x, err := image.FromInts(image.Size{Width: 2, Height: 2}, []int32{0, 1, 2, 3})
	require.NoError(f, err)

	f.Fuzz(func(t *testing.T, text string) {
		ev := evaluator.New(evaluator.WithMaxDepth(200))
		_, _ = ev.EvalString(context.Background(), text, map[string]any{"x": x})
	})
}
