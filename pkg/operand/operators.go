package operand

import "github.com/sandrolain/imagemath/pkg/kernel"

// Unary operators.

func (o *Operand) Neg() (*Operand, error)    { return o.Apply(kernel.OpNeg, "") }
func (o *Operand) Abs() (*Operand, error)    { return o.Apply(kernel.OpAbs, "") }
func (o *Operand) Invert() (*Operand, error) { return o.Apply(kernel.OpInvert, "") }

// Pos returns the receiver.
func (o *Operand) Pos() (*Operand, error) { return o, nil }

// Binary operators with the receiver on the left.

func (o *Operand) Add(v any) (*Operand, error)    { return o.Binary(kernel.OpAdd, v, "") }
func (o *Operand) Sub(v any) (*Operand, error)    { return o.Binary(kernel.OpSub, v, "") }
func (o *Operand) Mul(v any) (*Operand, error)    { return o.Binary(kernel.OpMul, v, "") }
func (o *Operand) Div(v any) (*Operand, error)    { return o.Binary(kernel.OpDiv, v, "") }
func (o *Operand) Mod(v any) (*Operand, error)    { return o.Binary(kernel.OpMod, v, "") }
func (o *Operand) Pow(v any) (*Operand, error)    { return o.Binary(kernel.OpPow, v, "") }
func (o *Operand) And(v any) (*Operand, error)    { return o.Binary(kernel.OpAnd, v, "") }
func (o *Operand) Or(v any) (*Operand, error)     { return o.Binary(kernel.OpOr, v, "") }
func (o *Operand) Xor(v any) (*Operand, error)    { return o.Binary(kernel.OpXor, v, "") }
func (o *Operand) LShift(v any) (*Operand, error) { return o.Binary(kernel.OpLShift, v, "") }
func (o *Operand) RShift(v any) (*Operand, error) { return o.Binary(kernel.OpRShift, v, "") }

// Reflected operators: v is the left operand.

func (o *Operand) RAdd(v any) (*Operand, error)    { return o.Reflected(kernel.OpAdd, v, "") }
func (o *Operand) RSub(v any) (*Operand, error)    { return o.Reflected(kernel.OpSub, v, "") }
func (o *Operand) RMul(v any) (*Operand, error)    { return o.Reflected(kernel.OpMul, v, "") }
func (o *Operand) RDiv(v any) (*Operand, error)    { return o.Reflected(kernel.OpDiv, v, "") }
func (o *Operand) RMod(v any) (*Operand, error)    { return o.Reflected(kernel.OpMod, v, "") }
func (o *Operand) RPow(v any) (*Operand, error)    { return o.Reflected(kernel.OpPow, v, "") }
func (o *Operand) RAnd(v any) (*Operand, error)    { return o.Reflected(kernel.OpAnd, v, "") }
func (o *Operand) ROr(v any) (*Operand, error)     { return o.Reflected(kernel.OpOr, v, "") }
func (o *Operand) RXor(v any) (*Operand, error)    { return o.Reflected(kernel.OpXor, v, "") }
func (o *Operand) RLShift(v any) (*Operand, error) { return o.Reflected(kernel.OpLShift, v, "") }
func (o *Operand) RRShift(v any) (*Operand, error) { return o.Reflected(kernel.OpRShift, v, "") }

// Comparisons produce per-sample 1/0 images in the reconciled mode.

func (o *Operand) Eq(v any) (*Operand, error) { return o.Binary(kernel.OpEq, v, "") }
func (o *Operand) Ne(v any) (*Operand, error) { return o.Binary(kernel.OpNe, v, "") }
func (o *Operand) Lt(v any) (*Operand, error) { return o.Binary(kernel.OpLt, v, "") }
func (o *Operand) Le(v any) (*Operand, error) { return o.Binary(kernel.OpLe, v, "") }
func (o *Operand) Gt(v any) (*Operand, error) { return o.Binary(kernel.OpGt, v, "") }
func (o *Operand) Ge(v any) (*Operand, error) { return o.Binary(kernel.OpGe, v, "") }

func (o *Operand) Min(v any) (*Operand, error) { return o.Binary(kernel.OpMin, v, "") }
func (o *Operand) Max(v any) (*Operand, error) { return o.Binary(kernel.OpMax, v, "") }
