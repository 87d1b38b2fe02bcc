// Package operand wraps images so they take part in operator dispatch.
//
// An Operand normalizes its inputs (1 and L widen to I, numeric constants
// become filled images), reconciles the mode and size of binary inputs,
// resolves the kernel for the operation and resolved mode, and returns
// the result wrapped in a new Operand. Operands never modify the images
// they wrap.
package operand

import (
	"github.com/sandrolain/imagemath/pkg/image"
	"github.com/sandrolain/imagemath/pkg/kernel"
	"github.com/sandrolain/imagemath/pkg/types"
)

// Dispatcher resolves and runs kernels for the Operands of one evaluation.
type Dispatcher struct {
	// Kernels is consulted for every operation. Nil means kernel.Default().
	Kernels kernel.Registry

	// OnInvoke, when set, is called after every kernel invocation with
	// the kernel and the image it produced.
	OnInvoke func(k kernel.Kernel, out *image.Image)
}

// Wrap returns an Operand for im bound to d.
func (d *Dispatcher) Wrap(im *image.Image) *Operand {
	return &Operand{im: im, d: d}
}

func (d *Dispatcher) lookup(op kernel.Op, mode image.Mode) (kernel.Kernel, error) {
	reg := d.Kernels
	if reg == nil {
		reg = kernel.Default()
	}
	k, ok := reg.Lookup(op, mode)
	if !ok {
		return kernel.Kernel{}, types.Errorf(types.ErrUnsupportedOperation,
			"unsupported operation %s for mode %s", op, mode).WithToken(op.String())
	}
	return k, nil
}

func (d *Dispatcher) invoke(k kernel.Kernel, out *image.Image, in ...*image.Image) error {
	for _, im := range in {
		if err := im.Load(); err != nil {
			return err
		}
	}
	if err := k.Call(out, in...); err != nil {
		return err
	}
	if d.OnInvoke != nil {
		d.OnInvoke(k, out)
	}
	return nil
}

var defaultDispatcher = &Dispatcher{}

// Operand is an image taking part in operator dispatch.
type Operand struct {
	im *image.Image
	d  *Dispatcher
}

// New wraps im using the default kernel registry.
func New(im *image.Image) *Operand {
	return defaultDispatcher.Wrap(im)
}

// Image returns the wrapped image.
func (o *Operand) Image() *image.Image {
	return o.im
}

// Mode returns the mode of the wrapped image.
func (o *Operand) Mode() image.Mode {
	return o.im.Mode()
}

// Size returns the size of the wrapped image.
func (o *Operand) Size() image.Size {
	return o.im.Size()
}

// Bool reports whether the wrapped image has any non-zero sample.
func (o *Operand) Bool() bool {
	return !o.im.IsEmpty()
}

func (o *Operand) String() string {
	return "Operand(" + o.im.String() + ")"
}

// Number converts a Go numeric or bool value to float64.
func Number(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// widen returns the arithmetic form of the wrapped image: 1 and L become
// I, I and F pass through.
func (o *Operand) widen() (*image.Image, error) {
	switch o.im.Mode() {
	case image.ModeBit, image.ModeL:
		return o.im.Convert(image.ModeI)
	case image.ModeI, image.ModeF:
		return o.im, nil
	}
	return nil, types.Errorf(types.ErrUnsupportedMode, "unsupported mode: %s", o.im.Mode()).
		WithToken(string(o.im.Mode()))
}

// normalize turns v into an image. Constants are materialized at the size
// of the receiver: as I when the receiver is 1, L or I, as F otherwise.
func (o *Operand) normalize(v any) (*image.Image, error) {
	switch x := v.(type) {
	case *Operand:
		return x.widen()
	case *image.Image:
		return o.d.Wrap(x).widen()
	}
	c, ok := Number(v)
	if !ok {
		return nil, types.Errorf(types.ErrInvalidOperand, "unsupported operand type %T", v)
	}
	mode := image.ModeF
	switch o.im.Mode() {
	case image.ModeBit, image.ModeL, image.ModeI:
		mode = image.ModeI
	}
	return image.NewFilled(mode, o.im.Size(), c)
}

// Apply runs the unary operation op. An empty mode keeps the normalized
// input mode for the result.
func (o *Operand) Apply(op kernel.Op, mode image.Mode) (*Operand, error) {
	if !op.IsUnary() {
		return nil, types.Errorf(types.ErrUnsupportedOperation,
			"operation %s takes two operands", op).WithToken(op.String())
	}
	in, err := o.normalize(o)
	if err != nil {
		return nil, err
	}
	if mode == "" {
		mode = in.Mode()
	}
	k, err := o.d.lookup(op, in.Mode())
	if err != nil {
		return nil, err
	}
	out, err := image.New(mode, in.Size())
	if err != nil {
		return nil, err
	}
	if err := o.d.invoke(k, out, in); err != nil {
		return nil, err
	}
	return o.d.Wrap(out), nil
}

// Binary runs op with the receiver on the left and other on the right.
// An empty mode keeps the reconciled mode for the result.
func (o *Operand) Binary(op kernel.Op, other any, mode image.Mode) (*Operand, error) {
	return o.apply2(op, o, other, mode)
}

// Reflected runs op with other on the left and the receiver on the right.
func (o *Operand) Reflected(op kernel.Op, other any, mode image.Mode) (*Operand, error) {
	return o.apply2(op, other, o, mode)
}

func (o *Operand) apply2(op kernel.Op, lhs, rhs any, mode image.Mode) (*Operand, error) {
	if op.IsUnary() {
		return nil, types.Errorf(types.ErrUnsupportedOperation,
			"operation %s takes one operand", op).WithToken(op.String())
	}
	a, err := o.normalize(lhs)
	if err != nil {
		return nil, err
	}
	b, err := o.normalize(rhs)
	if err != nil {
		return nil, err
	}

	// Mixed modes join in F.
	if a.Mode() != b.Mode() {
		if a, err = toFloat(a); err != nil {
			return nil, err
		}
		if b, err = toFloat(b); err != nil {
			return nil, err
		}
	}

	if a.Size() != b.Size() {
		size := a.Size().Min(b.Size())
		box := image.Rect{X1: size.Width, Y1: size.Height}
		if a.Size() != size {
			a = a.Crop(box)
		}
		if b.Size() != size {
			b = b.Crop(box)
		}
	}

	if mode == "" {
		mode = a.Mode()
	}
	k, err := o.d.lookup(op, a.Mode())
	if err != nil {
		return nil, err
	}
	out, err := image.New(mode, a.Size())
	if err != nil {
		return nil, err
	}
	if err := o.d.invoke(k, out, a, b); err != nil {
		return nil, err
	}
	return o.d.Wrap(out), nil
}

func toFloat(im *image.Image) (*image.Image, error) {
	if im.Mode() == image.ModeF {
		return im, nil
	}
	return im.Convert(image.ModeF)
}

// Convert returns the wrapped image converted to mode.
func (o *Operand) Convert(mode image.Mode) (*Operand, error) {
	im, err := o.im.Convert(mode)
	if err != nil {
		return nil, err
	}
	return o.d.Wrap(im), nil
}
