package interpreter

import (
	"math/bits"

	"github.com/rcornwell/x86ir/ir"
)

func init() {
	register(ir.OpAdd, opAdd)
	register(ir.OpSub, opSub)
	register(ir.OpNeg, opNeg)
	register(ir.OpAbs, opAbs)
	register(ir.OpMul, opMul)
	register(ir.OpUMul, opUMul)
	register(ir.OpMulH, opMulH)
	register(ir.OpUMulH, opUMulH)
	register(ir.OpDiv, opDiv)
	register(ir.OpUDiv, opUDiv)
	register(ir.OpRem, opRem)
	register(ir.OpURem, opURem)
	register(ir.OpLDiv, opLDiv)
	register(ir.OpLUDiv, opLUDiv)
}

func opAdd(in *Interpreter, n *ir.Node) error {
	a := getOperand(in, n.Args[0])
	b := getOperand(in, n.Args[1])
	setGPR(in, n.Dest, a+b, n.Size)
	return nil
}

func opSub(in *Interpreter, n *ir.Node) error {
	a := getOperand(in, n.Args[0])
	b := getOperand(in, n.Args[1])
	setGPR(in, n.Dest, a-b, n.Size)
	return nil
}

func opNeg(in *Interpreter, n *ir.Node) error {
	a := getOperand(in, n.Args[0])
	setGPR(in, n.Dest, uint64(-int64(a)), n.Size)
	return nil
}

func opAbs(in *Interpreter, n *ir.Node) error {
	a := signExtend(getOperand(in, n.Args[0]), n.Size)
	if a < 0 {
		a = -a
	}
	setGPR(in, n.Dest, uint64(a), n.Size)
	return nil
}

func opMul(in *Interpreter, n *ir.Node) error {
	a := signExtend(getOperand(in, n.Args[0]), n.Size)
	b := signExtend(getOperand(in, n.Args[1]), n.Size)
	setGPR(in, n.Dest, uint64(a*b), n.Size)
	return nil
}

func opUMul(in *Interpreter, n *ir.Node) error {
	a := getOperand(in, n.Args[0])
	b := getOperand(in, n.Args[1])
	setGPR(in, n.Dest, a*b, n.Size)
	return nil
}

// opMulH computes the high half of a signed widening multiply: the
// IR's answer to x86's one-operand IMUL/the widening multiply a plain
// 64x64 Go multiply can't express without bits.Mul64.
func opMulH(in *Interpreter, n *ir.Node) error {
	a := signExtend(getOperand(in, n.Args[0]), n.Size)
	b := signExtend(getOperand(in, n.Args[1]), n.Size)
	hi, _ := bits.Mul64(uint64(a), uint64(b))
	// bits.Mul64 is unsigned; correct the high half for negative operands.
	if a < 0 {
		hi -= uint64(b)
	}
	if b < 0 {
		hi -= uint64(a)
	}
	setGPR(in, n.Dest, hi, n.Size)
	return nil
}

func opUMulH(in *Interpreter, n *ir.Node) error {
	a := getOperand(in, n.Args[0])
	b := getOperand(in, n.Args[1])
	hi, _ := bits.Mul64(a, b)
	setGPR(in, n.Dest, hi, n.Size)
	return nil
}

func opDiv(in *Interpreter, n *ir.Node) error {
	a := signExtend(getOperand(in, n.Args[0]), n.Size)
	b := signExtend(getOperand(in, n.Args[1]), n.Size)
	if b == 0 {
		return errDivideByZero
	}
	setGPR(in, n.Dest, uint64(a/b), n.Size)
	return nil
}

func opUDiv(in *Interpreter, n *ir.Node) error {
	a := getOperand(in, n.Args[0])
	b := getOperand(in, n.Args[1])
	if b == 0 {
		return errDivideByZero
	}
	setGPR(in, n.Dest, a/b, n.Size)
	return nil
}

func opRem(in *Interpreter, n *ir.Node) error {
	a := signExtend(getOperand(in, n.Args[0]), n.Size)
	b := signExtend(getOperand(in, n.Args[1]), n.Size)
	if b == 0 {
		return errDivideByZero
	}
	setGPR(in, n.Dest, uint64(a%b), n.Size)
	return nil
}

func opURem(in *Interpreter, n *ir.Node) error {
	a := getOperand(in, n.Args[0])
	b := getOperand(in, n.Args[1])
	if b == 0 {
		return errDivideByZero
	}
	setGPR(in, n.Dest, a%b, n.Size)
	return nil
}

// opLDiv/opLUDiv divide a 128-bit dividend (args[0]:args[1], high:low) by
// a 64-bit divisor, the IR's widening-divide primitive x86's two-operand
// DIV/IDIV need (quotient must fit in 64 bits or the guest takes #DE).
func opLDiv(in *Interpreter, n *ir.Node) error {
	hi := getOperand(in, n.Args[0])
	lo := getOperand(in, n.Args[1])
	divisor := getOperand(in, n.Args[2])
	if divisor == 0 {
		return errDivideByZero
	}
	if hi >= divisor {
		return errDivideOverflow
	}
	q, _ := bits.Div64(hi, lo, divisor)
	setGPR(in, n.Dest, q, n.Size)
	return nil
}

func opLUDiv(in *Interpreter, n *ir.Node) error {
	return opLDiv(in, n)
}
