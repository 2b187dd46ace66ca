package interpreter

import "github.com/rcornwell/x86ir/ir"

// The stack-op family is valid IR at runtime as well as being the x87
// optimization pass's input: any stack-relative node the pass could not
// resolve at translation time (a loop back-edge joining two different
// compile-time stack depths, say) survives into the final block
// unchanged, and still needs a direct interpretation here using the
// State's own rotating Top, the slow path the pass's one-way
// fast-to-slow transition falls back to.

func init() {
	register(ir.OpPushStack, opPushStack)
	register(ir.OpPopStackDestroy, opPopStackDestroy)
	register(ir.OpCopyPushStack, opCopyPushStack)
	register(ir.OpReadStackValue, opReadStackValue)
	register(ir.OpF80StackXchange, opF80StackXchange)
	register(ir.OpF80Move, opF80Move)
	register(ir.OpAdjustTop, opAdjustTop)

	register(ir.OpF80AddStack, f80StackBinop(ir.OpF80Add))
	register(ir.OpF80SubStack, f80StackBinop(ir.OpF80Sub))
	register(ir.OpF80MulStack, f80StackBinop(ir.OpF80Mul))
	register(ir.OpF80DivStack, f80StackBinop(ir.OpF80Div))
}

func opPushStack(in *Interpreter, n *ir.Node) error {
	in.State.PushX87(x87Src(in, n.Args[0]))
	return nil
}

func opPopStackDestroy(in *Interpreter, n *ir.Node) error {
	in.State.PopX87()
	return nil
}

func opCopyPushStack(in *Interpreter, n *ir.Node) error {
	v := x87Src(in, n.Args[0])
	in.State.PushX87(v)
	return nil
}

func opReadStackValue(in *Interpreter, n *ir.Node) error {
	x87SetDest(in, n.Dest, x87Src(in, n.Args[0]))
	return nil
}

func opF80StackXchange(in *Interpreter, n *ir.Node) error {
	i := uint8(n.Args[0].Reg)
	a := in.State.St(0)
	b := in.State.St(i)
	in.State.X87[a], in.State.X87[b] = in.State.X87[b], in.State.X87[a]
	in.State.X87Tag[a], in.State.X87Tag[b] = in.State.X87Tag[b], in.State.X87Tag[a]
	return nil
}

func opF80Move(in *Interpreter, n *ir.Node) error {
	x87SetDest(in, n.Dest, x87Src(in, n.Args[0]))
	return nil
}

// opAdjustTop reconciles State.Top after a run of x87opt-fast-lowered F80
// slot writes that addressed the stack relative to a fixed Top: those
// writes never rotated Top themselves, so one signed correction here
// brings the architectural stack pointer back in sync before any
// subsequent slow-path or cross-block code relies on it.
func opAdjustTop(in *Interpreter, n *ir.Node) error {
	delta := int8(n.Aux)
	top := int(in.State.Top) + int(delta)
	in.State.Top = uint8(((top % 8) + 8) % 8)
	return nil
}

// f80StackBinop adapts a flat two-operand F80 opcode's already-registered
// handler to run against the live stack-relative operands of its "Stack"
// counterpart, then pushes nothing: the Stack forms operate in place on
// ST(0) the way FADD ST(0), ST(i) does (no implicit push).
func f80StackBinop(flatOp ir.Opcode) func(*Interpreter, *ir.Node) error {
	return func(in *Interpreter, n *ir.Node) error {
		flat := dispatch[flatOp]
		inPlace := *n
		if !ir.Info(n.Op).HasDest {
			inPlace.Dest = n.Args[0]
		}
		return runFlatAsStack(in, flat, &inPlace)
	}
}

func runFlatAsStack(in *Interpreter, flat handlerFunc, n *ir.Node) error {
	_, _, err := flat(in, n)
	return err
}
