package interpreter

import (
	"math"

	"github.com/rcornwell/x86ir/ir"
	"github.com/rcornwell/x86ir/softfloat"
)

// This file covers the operations float.go and x87stack.go left out:
// scalar-double SSE2 arithmetic (a flat float64 lane, no stack involved at
// all), the F80<->float32/float64 precision-narrowing conversions, FLDCW,
// FRNDINT, and the transcendental members of the x87 "Stack" family that
// x87stack.go only wired for the four basic arithmetic ops.

func init() {
	register(ir.OpF64Add, f64Binop(func(a, b float64) float64 { return a + b }))
	register(ir.OpF64Sub, f64Binop(func(a, b float64) float64 { return a - b }))
	register(ir.OpF64Mul, f64Binop(func(a, b float64) float64 { return a * b }))
	register(ir.OpF64Div, f64Binop(func(a, b float64) float64 { return a / b }))

	register(ir.OpF80Cvt, opF80Cvt)
	register(ir.OpF80CvtTo, opF80CvtTo)
	register(ir.OpF80LoadFCW, opF80LoadFCW)
	register(ir.OpF80Round, opF80Round)

	register(ir.OpConstant, opConstant)
	register(ir.OpEntrypointPC, opEntrypointPC)

	register(ir.OpF80AtanStack, f80StackBinop(ir.OpF80Atan))
	register(ir.OpF80Fyl2xStack, f80StackBinop(ir.OpF80Fyl2x))
	register(ir.OpF80FpremStack, f80StackBinop(ir.OpF80Fprem))
	register(ir.OpF80Fprem1Stack, f80StackBinop(ir.OpF80Fprem1))
	register(ir.OpF80ScaleStack, f80StackBinop(ir.OpF80Scale))
	register(ir.OpF80CmpStack, f80StackBinop(ir.OpF80Cmp))
	register(ir.OpF80VbslStack, opF80VbslStack)
}

// f64Binop runs scalar SSE2 double arithmetic directly against host
// float64 operands read from Vec lane 0, the width SSE's ADDSD/SUBSD/etc.
// actually compute at (no 80-bit extension, unlike the x87 family).
func f64Binop(fn func(a, b float64) float64) func(*Interpreter, *ir.Node) error {
	return func(in *Interpreter, n *ir.Node) error {
		a := laneFloat(in, n.Args[0], 0, ir.Size8)
		b := laneFloat(in, n.Args[1], 0, ir.Size8)
		setLaneFloat(in, n.Dest, 0, ir.Size8, fn(a, b))
		return nil
	}
}

// opF80Cvt is FLD's single/double-precision load path: n.Size selects
// whether Args[0] holds a float32 or float64 bit pattern, widened to F80.
func opF80Cvt(in *Interpreter, n *ir.Node) error {
	raw := getOperand(in, n.Args[0])
	var f float64
	if n.Size == ir.Size4 {
		f = float64(math.Float32frombits(uint32(raw)))
	} else {
		f = math.Float64frombits(raw)
	}
	x87SetDest(in, n.Dest, softfloat.FromF64(f))
	return nil
}

// opF80CvtTo is FST's narrowing counterpart: the F80 source is rounded
// down to a float32 or float64 bit pattern (per n.Size) in a GPR dest.
func opF80CvtTo(in *Interpreter, n *ir.Node) error {
	f := softfloat.ToF64(x87Src(in, n.Args[0]))
	var bits uint64
	if n.Size == ir.Size4 {
		bits = uint64(math.Float32bits(float32(f)))
	} else {
		bits = math.Float64bits(f)
	}
	setGPR(in, n.Dest, bits, n.Size)
	return nil
}

// opF80LoadFCW is FLDCW: it has no Dest (HasDest is false in the
// catalogue) because it only updates control state, not a value lane.
func opF80LoadFCW(in *Interpreter, n *ir.Node) error {
	in.State.FCW = uint16(getOperand(in, n.Args[0]))
	return nil
}

// opF80Round is FRNDINT: round ST(0) to an integral value at the current
// rounding-control setting, expressed by round-tripping through the same
// ToInt/FromInt primitives FIST uses rather than a dedicated soft-float
// entry point.
func opF80Round(in *Interpreter, n *ir.Node) error {
	a := x87Src(in, n.Args[0])
	v, ok := softfloat.ToInt(a, ir.Size8, n.Round)
	if !ok {
		x87SetDest(in, n.Dest, a)
		return nil
	}
	x87SetDest(in, n.Dest, softfloat.FromInt(v, ir.Size8))
	return nil
}

// opConstant materializes a compile-time immediate (packed in Aux) into
// Dest, for the rare case a constant needs to sit in a register slot
// rather than be read inline as a RefConst operand.
func opConstant(in *Interpreter, n *ir.Node) error {
	setGPR(in, n.Dest, n.Aux, n.Size)
	return nil
}

// opEntrypointPC writes the guest program counter the running CodeBlock
// was entered at, the value position-independent code needs for RIP-
// relative addressing computed ahead of time by the translator.
func opEntrypointPC(in *Interpreter, n *ir.Node) error {
	setGPR(in, n.Dest, in.entryPC, n.Size)
	return nil
}

// opF80VbslStack is the x87-stack-relative form of opVBsl: args0 is the
// select mask, args1/args2 the true/false values, all three read
// stack-relative and the result left in place at Dest's stack slot.
func opF80VbslStack(in *Interpreter, n *ir.Node) error {
	sel := x87Src(in, n.Args[0])
	a := x87Src(in, n.Args[1])
	b := x87Src(in, n.Args[2])
	if softfloat.ToF64(sel) != 0 {
		x87SetDest(in, n.Dest, a)
	} else {
		x87SetDest(in, n.Dest, b)
	}
	return nil
}
