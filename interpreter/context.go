package interpreter

import "github.com/rcornwell/x86ir/ir"

func init() {
	register(ir.OpLoadContext, opLoadContext)
	register(ir.OpStoreContext, opStoreContext)
	register(ir.OpLoadContextIndexed, opLoadContextIndexed)
	register(ir.OpStoreContextIndexed, opStoreContextIndexed)
	register(ir.OpLoadRegister, opLoadRegister)
	register(ir.OpStoreRegister, opStoreRegister)
}

// The "context" is the guest CPU state struct considered as a flat
// byte-addressable blob (the way FEXCore's IR treats ContextStruct
// member offsets): Aux carries the byte offset, resolved here against
// cpustate.State's GPR array. Vector and x87 state go through their own
// dedicated opcodes rather than this generic path.

func contextSlot(offset uint64) int { return int(offset / 8) }

func opLoadContext(in *Interpreter, n *ir.Node) error {
	slot := contextSlot(n.Aux)
	if slot < 0 || slot >= len(in.State.GPR) {
		setGPR(in, n.Dest, 0, n.Size)
		return nil
	}
	setGPR(in, n.Dest, in.State.GPR[slot], n.Size)
	return nil
}

func opStoreContext(in *Interpreter, n *ir.Node) error {
	slot := contextSlot(n.Aux)
	if slot < 0 || slot >= len(in.State.GPR) {
		return nil
	}
	in.State.GPR[slot] = getOperand(in, n.Args[0])
	return nil
}

// opLoadContextIndexed/opStoreContextIndexed add a runtime register index
// on top of the static Aux offset, the form a loop over an array of guest
// thread-local slots needs.
func opLoadContextIndexed(in *Interpreter, n *ir.Node) error {
	idx := getOperand(in, n.Args[0])
	slot := contextSlot(n.Aux) + int(idx)
	if slot < 0 || slot >= len(in.State.GPR) {
		setGPR(in, n.Dest, 0, n.Size)
		return nil
	}
	setGPR(in, n.Dest, in.State.GPR[slot], n.Size)
	return nil
}

func opStoreContextIndexed(in *Interpreter, n *ir.Node) error {
	idx := getOperand(in, n.Args[0])
	slot := contextSlot(n.Aux) + int(idx)
	if slot < 0 || slot >= len(in.State.GPR) {
		return nil
	}
	in.State.GPR[slot] = getOperand(in, n.Args[1])
	return nil
}

func opLoadRegister(in *Interpreter, n *ir.Node) error {
	setGPR(in, n.Dest, getOperand(in, n.Args[0]), n.Size)
	return nil
}

func opStoreRegister(in *Interpreter, n *ir.Node) error {
	if n.Dest.Kind == ir.RefGPR {
		in.State.GPR[n.Dest.Reg] = getOperand(in, n.Args[0])
	}
	return nil
}
