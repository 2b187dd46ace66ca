package interpreter

import "github.com/rcornwell/x86ir/ir"

func init() {
	register(ir.OpLoadMem, opLoadMem)
	register(ir.OpStoreMem, opStoreMem)
	register(ir.OpLoadMemTSO, opLoadMemTSO)
	register(ir.OpStoreMemTSO, opStoreMemTSO)
}

// SIB-style base+index*scale addressing is its own Add/shift subtree
// earlier in the block (the way a real decoder would emit it); by the
// time a memory node runs, Args[0] is always a single already-computed
// guest address.

func opLoadMem(in *Interpreter, n *ir.Node) error {
	addr := getOperand(in, n.Args[0])
	v, err := in.State.Mem.Load(addr, int(n.Size))
	if err != nil {
		return err
	}
	setGPR(in, n.Dest, v, n.Size)
	return nil
}

func opStoreMem(in *Interpreter, n *ir.Node) error {
	addr := getOperand(in, n.Args[0])
	v := getOperand(in, n.Args[1])
	return in.State.Mem.Store(addr, v, int(n.Size))
}

func opLoadMemTSO(in *Interpreter, n *ir.Node) error {
	addr := getOperand(in, n.Args[0])
	v, err := in.State.Mem.LoadTSO(addr, int(n.Size))
	if err != nil {
		return err
	}
	setGPR(in, n.Dest, v, n.Size)
	return nil
}

func opStoreMemTSO(in *Interpreter, n *ir.Node) error {
	addr := getOperand(in, n.Args[0])
	v := getOperand(in, n.Args[1])
	return in.State.Mem.StoreTSO(addr, v, int(n.Size))
}
