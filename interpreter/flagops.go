package interpreter

import (
	"github.com/rcornwell/x86ir/flags"
	"github.com/rcornwell/x86ir/ir"
)

func init() {
	register(ir.OpAddNZCV, opAddNZCV)
	register(ir.OpSubNZCV, opSubNZCV)
	register(ir.OpTestNZ, opTestNZ)
}

func opAddNZCV(in *Interpreter, n *ir.Node) error {
	a := getOperand(in, n.Args[0])
	b := getOperand(in, n.Args[1])
	res := a + b
	setGPR(in, n.Dest, res, n.Size)
	in.Flags.Defer(flags.OpAddNZCV, uint8(n.Size), a, b, res)
	return nil
}

func opSubNZCV(in *Interpreter, n *ir.Node) error {
	a := getOperand(in, n.Args[0])
	b := getOperand(in, n.Args[1])
	res := a - b
	setGPR(in, n.Dest, res, n.Size)
	in.Flags.Defer(flags.OpSubNZCV, uint8(n.Size), a, b, res)
	return nil
}

func opTestNZ(in *Interpreter, n *ir.Node) error {
	a := getOperand(in, n.Args[0])
	setGPR(in, n.Dest, a, n.Size)
	in.Flags.Defer(flags.OpLogicNZ, uint8(n.Size), a, 0, a)
	return nil
}

// materializeFlags computes the deferred NZCV result and returns it at
// EFLAGS bit positions; it does not write in.State.EFLAGS. It runs only
// when a condition is evaluated (Select, CondJump) rather than on every
// flag-setting opcode, which is the entire point of deferring the work.
func materializeFlags(in *Interpreter) uint32 {
	rectified := in.Flags.Rectify()
	var eflags uint32
	if rectified&flags.N != 0 {
		eflags |= cpustateFlagSF
	}
	if rectified&flags.Z != 0 {
		eflags |= cpustateFlagZF
	}
	if rectified&flags.C != 0 {
		eflags |= cpustateFlagCF
	}
	if rectified&flags.V != 0 {
		eflags |= cpustateFlagOF
	}
	return eflags
}

// Mirrors cpustate.FlagSF/ZF/CF/OF; kept local to avoid an import cycle
// risk as context.go grows (cpustate never needs to import interpreter,
// but these four bit positions are cheap enough to just restate).
const (
	cpustateFlagSF = 1 << 7
	cpustateFlagZF = 1 << 6
	cpustateFlagCF = 1 << 0
	cpustateFlagOF = 1 << 11
)

func evalCondition(in *Interpreter, cond ir.Condition) bool {
	f := materializeFlags(in)
	n := f&cpustateFlagSF != 0
	z := f&cpustateFlagZF != 0
	c := f&cpustateFlagCF != 0
	v := f&cpustateFlagOF != 0
	switch cond {
	case ir.CondEQ:
		return z
	case ir.CondNE:
		return !z
	case ir.CondSLT:
		return n != v
	case ir.CondSLE:
		return z || n != v
	case ir.CondSGT:
		return !z && n == v
	case ir.CondSGE:
		return n == v
	case ir.CondULT:
		return c
	case ir.CondULE:
		return c || z
	case ir.CondUGT:
		return !c && !z
	case ir.CondUGE:
		return !c
	case ir.CondCS:
		return c
	case ir.CondCC:
		return !c
	case ir.CondMI:
		return n
	case ir.CondPL:
		return !n
	case ir.CondVS:
		return v
	case ir.CondVC:
		return !v
	default:
		return false
	}
}
