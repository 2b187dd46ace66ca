package interpreter

import (
	"github.com/rcornwell/x86ir/cpustate"
	"github.com/rcornwell/x86ir/ir"
	"github.com/rcornwell/x86ir/softfloat"
)

func init() {
	register(ir.OpF80Add, f80Binop(softfloat.Add, func(a, b float64) float64 { return a + b }))
	register(ir.OpF80Sub, f80Binop(softfloat.Sub, func(a, b float64) float64 { return a - b }))
	register(ir.OpF80Mul, f80Binop(softfloat.Mul, func(a, b float64) float64 { return a * b }))
	register(ir.OpF80Div, f80Binop(softfloat.Div, func(a, b float64) float64 { return a / b }))
	register(ir.OpF80Sqrt, opF80Sqrt)
	register(ir.OpF80Cmp, opF80Cmp)
	register(ir.OpF80Atan, opF80Atan)
	register(ir.OpF80Fyl2x, opF80Fyl2x)
	register(ir.OpF80Fprem, opF80Fprem)
	register(ir.OpF80Fprem1, opF80Fprem1)
	register(ir.OpF80Scale, opF80Scale)
	register(ir.OpF80Sin, opF80Sin)
	register(ir.OpF80Cos, opF80Cos)
	register(ir.OpF80SinCos, opF80SinCos)
	register(ir.OpF80Tan, opF80Tan)
	register(ir.OpF80F2xm1, opF80F2xm1)
	register(ir.OpF80BCDLoad, opF80BCDLoad)
	register(ir.OpF80BCDStore, opF80BCDStore)
	register(ir.OpF80CvtInt, opF80CvtInt)
	register(ir.OpF80CvtToInt, opF80CvtToInt)
	register(ir.OpF80XtractExp, opF80XtractExp)
	register(ir.OpF80XtractSig, opF80XtractSig)
	register(ir.OpGetRoundingMode, opGetRoundingMode)
	register(ir.OpSetRoundingMode, opSetRoundingMode)
}

// x87Src loads an F80 from a general operand reference: RefFPR indexes
// cpustate.State.X87 by logical stack position (0 = top), matching every
// x87 opcode's "ST(i)" operand syntax. Reading a logically empty slot is a
// stack-underflow fault: State.RaiseStackFault records it in FSW, and the
// value returned here is the x87 real-indefinite QNaN rather than whatever
// stale bits physically sit in that slot.
func x87Src(in *Interpreter, ref ir.OpRef) softfloat.F80 {
	if ref.Kind != ir.RefFPR {
		return softfloat.FromInt(int64(ref.Const), ir.Size8)
	}
	logical := uint8(ref.Reg)
	if in.State.StEmpty(logical) {
		in.State.RaiseStackFault(false)
		return softfloat.QNaN()
	}
	phys := in.State.St(logical)
	return in.State.X87[phys]
}

func x87SetDest(in *Interpreter, ref ir.OpRef, v softfloat.F80) {
	if ref.Kind != ir.RefFPR {
		return
	}
	phys := in.State.St(uint8(ref.Reg))
	in.State.X87[phys] = v
	switch v.Classify() {
	case softfloat.ClassZero:
		in.State.X87Tag[phys] = cpustate.X87TagZero
	case softfloat.ClassNormal:
		in.State.X87Tag[phys] = cpustate.X87TagValid
	default:
		in.State.X87Tag[phys] = cpustate.X87TagSpecial
	}
}

// f80Binop wires a soft-float 80-bit op, paired with a host-float64
// stand-in for the ReducedPrecision toggle: when set, arithmetic runs at
// native float64 lanes instead of through the 80-bit soft-float path, the
// throughput/precision tradeoff a reduced-precision mode exists for.
func f80Binop(fn func(a, b softfloat.F80, round ir.RoundMode) softfloat.F80, reduced func(a, b float64) float64) func(*Interpreter, *ir.Node) error {
	return func(in *Interpreter, n *ir.Node) error {
		a := x87Src(in, n.Args[0])
		b := x87Src(in, n.Args[1])
		if in.ReducedPrecision {
			r := reduced(softfloat.ToF64(a), softfloat.ToF64(b))
			x87SetDest(in, n.Dest, softfloat.FromF64(r))
			return nil
		}
		x87SetDest(in, n.Dest, fn(a, b, n.Round))
		return nil
	}
}

func opF80Sqrt(in *Interpreter, n *ir.Node) error {
	a := x87Src(in, n.Args[0])
	x87SetDest(in, n.Dest, softfloat.Sqrt(a, n.Round))
	return nil
}

// opF80Cmp writes the x87 compare predicate triple to Dest as an
// ir.FPCompareMask (FPLT, FPEQ, FPUnordered bits); the flag tracker is not
// touched.
func opF80Cmp(in *Interpreter, n *ir.Node) error {
	a := x87Src(in, n.Args[0])
	b := x87Src(in, n.Args[1])
	res := softfloat.Compare(a, b)
	var mask ir.FPCompareMask
	if res.Less {
		mask |= ir.FPLT
	}
	if res.Equal {
		mask |= ir.FPEQ
	}
	if res.Unordered {
		mask |= ir.FPUnordered
	}
	setGPR(in, n.Dest, uint64(mask), ir.Size1)
	return nil
}

func opF80Atan(in *Interpreter, n *ir.Node) error {
	x87SetDest(in, n.Dest, softfloat.Atan2(x87Src(in, n.Args[0]), x87Src(in, n.Args[1])))
	return nil
}

func opF80Fyl2x(in *Interpreter, n *ir.Node) error {
	x87SetDest(in, n.Dest, softfloat.Fyl2x(x87Src(in, n.Args[0]), x87Src(in, n.Args[1])))
	return nil
}

func opF80Fprem(in *Interpreter, n *ir.Node) error {
	r, incomplete := softfloat.Fprem(x87Src(in, n.Args[0]), x87Src(in, n.Args[1]))
	x87SetDest(in, n.Dest, r)
	in.State.FSW = setC2(in.State.FSW, incomplete)
	return nil
}

func opF80Fprem1(in *Interpreter, n *ir.Node) error {
	r, incomplete := softfloat.Fprem1(x87Src(in, n.Args[0]), x87Src(in, n.Args[1]))
	x87SetDest(in, n.Dest, r)
	in.State.FSW = setC2(in.State.FSW, incomplete)
	return nil
}

func setC2(fsw uint16, set bool) uint16 {
	const c2 = 1 << 10
	if set {
		return fsw | c2
	}
	return fsw &^ c2
}

func opF80Scale(in *Interpreter, n *ir.Node) error {
	x87SetDest(in, n.Dest, softfloat.Scale(x87Src(in, n.Args[0]), x87Src(in, n.Args[1])))
	return nil
}

func opF80Sin(in *Interpreter, n *ir.Node) error {
	x87SetDest(in, n.Dest, softfloat.Sin(x87Src(in, n.Args[0])))
	return nil
}

func opF80Cos(in *Interpreter, n *ir.Node) error {
	x87SetDest(in, n.Dest, softfloat.Cos(x87Src(in, n.Args[0])))
	return nil
}

func opF80Tan(in *Interpreter, n *ir.Node) error {
	x87SetDest(in, n.Dest, softfloat.Tan(x87Src(in, n.Args[0])))
	return nil
}

// opF80SinCos pushes cos onto the stack above sin (FSINCOS: ST(0)=sin,
// then a push makes the new ST(0)=cos, ST(1)=sin), so it writes Dest with
// sin and pushes cos directly rather than returning a second value through
// the single-Dest node shape.
func opF80SinCos(in *Interpreter, n *ir.Node) error {
	s, c := softfloat.SinCos(x87Src(in, n.Args[0]))
	x87SetDest(in, n.Dest, s)
	in.State.PushX87(c)
	return nil
}

func opF80F2xm1(in *Interpreter, n *ir.Node) error {
	x87SetDest(in, n.Dest, softfloat.F2xm1(x87Src(in, n.Args[0])))
	return nil
}

func opF80BCDLoad(in *Interpreter, n *ir.Node) error {
	addr := getOperand(in, n.Args[0])
	var raw [10]byte
	if err := in.State.Mem.LoadBytes(addr, raw[:]); err != nil {
		return err
	}
	x87SetDest(in, n.Dest, softfloat.FromInt(softfloat.BCDLoad(raw), ir.Size8))
	return nil
}

func opF80BCDStore(in *Interpreter, n *ir.Node) error {
	addr := getOperand(in, n.Args[1])
	v, ok := softfloat.ToIntTruncating(x87Src(in, n.Args[0]), ir.Size8)
	if !ok {
		v = softfloat.IndefiniteInt(ir.Size8)
	}
	raw := softfloat.BCDStore(v)
	return in.State.Mem.StoreBytes(addr, raw[:])
}

func opF80CvtInt(in *Interpreter, n *ir.Node) error {
	v := signExtend(getOperand(in, n.Args[0]), n.Size)
	x87SetDest(in, n.Dest, softfloat.FromInt(v, n.Size))
	return nil
}

func opF80CvtToInt(in *Interpreter, n *ir.Node) error {
	a := x87Src(in, n.Args[0])
	v, ok := softfloat.ToInt(a, n.Size, n.Round)
	if !ok {
		v = softfloat.IndefiniteInt(n.Size)
	}
	setGPR(in, n.Dest, uint64(v), n.Size)
	return nil
}

func opF80XtractExp(in *Interpreter, n *ir.Node) error {
	exp, _ := softfloat.Extract(x87Src(in, n.Args[0]))
	x87SetDest(in, n.Dest, exp)
	return nil
}

func opF80XtractSig(in *Interpreter, n *ir.Node) error {
	_, sig := softfloat.Extract(x87Src(in, n.Args[0]))
	x87SetDest(in, n.Dest, sig)
	return nil
}

func opGetRoundingMode(in *Interpreter, n *ir.Node) error {
	mode := ir.DecodeRoundingControl(uint8(in.State.FCW >> 10))
	setGPR(in, n.Dest, uint64(mode), ir.Size1)
	return nil
}

func opSetRoundingMode(in *Interpreter, n *ir.Node) error {
	mode := ir.RoundMode(getOperand(in, n.Args[0]))
	var bits uint16
	switch mode {
	case ir.RoundDown:
		bits = 0b01
	case ir.RoundUp:
		bits = 0b10
	case ir.RoundZero:
		bits = 0b11
	default:
		bits = 0b00
	}
	in.State.FCW = (in.State.FCW &^ (0x3 << 10)) | bits<<10
	return nil
}
