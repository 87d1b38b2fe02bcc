package kernel

// Op identifies an operation of the fixed vocabulary.
type Op uint8

// Operation vocabulary.
const (
	OpInvalid Op = iota

	// Arithmetic
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpNeg
	OpAbs

	// Bitwise
	OpInvert
	OpAnd
	OpOr
	OpXor
	OpLShift
	OpRShift

	// Comparison
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	// Selection
	OpMin
	OpMax
)

var opNames = [...]string{
	OpInvalid: "invalid",
	OpAdd:     "add",
	OpSub:     "sub",
	OpMul:     "mul",
	OpDiv:     "div",
	OpMod:     "mod",
	OpPow:     "pow",
	OpNeg:     "neg",
	OpAbs:     "abs",
	OpInvert:  "invert",
	OpAnd:     "and",
	OpOr:      "or",
	OpXor:     "xor",
	OpLShift:  "lshift",
	OpRShift:  "rshift",
	OpEq:      "eq",
	OpNe:      "ne",
	OpLt:      "lt",
	OpLe:      "le",
	OpGt:      "gt",
	OpGe:      "ge",
	OpMin:     "min",
	OpMax:     "max",
}

// String returns the vocabulary name of the operation.
func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "invalid"
}

// IsUnary reports whether the operation takes a single operand.
func (op Op) IsUnary() bool {
	switch op {
	case OpNeg, OpAbs, OpInvert:
		return true
	}
	return false
}

// IsComparison reports whether the operation is one of eq, ne, lt, le, gt, ge.
func (op Op) IsComparison() bool {
	return op >= OpEq && op <= OpGe
}

// Mirror returns the comparison that gives the same answer with the
// operands swapped (lt <-> gt, le <-> ge). Other operations are returned
// unchanged.
func (op Op) Mirror() Op {
	if !op.IsComparison() {
		return op
	}
	switch op {
	case OpLt:
		return OpGt
	case OpGt:
		return OpLt
	case OpLe:
		return OpGe
	case OpGe:
		return OpLe
	}
	return op
}

// ParseOp looks up an operation by vocabulary name.
func ParseOp(name string) (Op, bool) {
	for op := OpAdd; int(op) < len(opNames); op++ {
		if opNames[op] == name {
			return op, true
		}
	}
	return OpInvalid, false
}

// Ops returns every operation of the vocabulary.
func Ops() []Op {
	ops := make([]Op, 0, len(opNames)-1)
	for op := OpAdd; int(op) < len(opNames); op++ {
		ops = append(ops, op)
	}
	return ops
}
