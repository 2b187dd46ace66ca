package interpreter

import "github.com/rcornwell/x86ir/ir"

func init() {
	registerTerminator(ir.OpJump, opJump)
	registerTerminator(ir.OpCondJump, opCondJump)
	registerTerminator(ir.OpExitFunction, opExitFunction)
	registerTerminator(ir.OpCallbackReturn, opExitFunction)
	registerTerminator(ir.OpSignalReturn, opExitFunction)
	register(ir.OpSyscall, opSyscall)
	register(ir.OpThunk, opThunk)
}

func opJump(in *Interpreter, n *ir.Node) (*ir.Block, bool, error) {
	return n.Target, true, nil
}

func opCondJump(in *Interpreter, n *ir.Node) (*ir.Block, bool, error) {
	if evalCondition(in, n.Cond) {
		return n.Target2, true, nil
	}
	return n.Target, true, nil
}

// opExitFunction (and its CallbackReturn/SignalReturn aliases) ends block
// walking entirely: returning a nil block tells Run to stop.
func opExitFunction(in *Interpreter, n *ir.Node) (*ir.Block, bool, error) {
	if n.NumArgs > 0 {
		in.State.PC = getOperand(in, n.Args[0])
	}
	return nil, true, nil
}

// opSyscall dispatches through the host syscall ABI shim; this package
// does not know how to make the actual OS call, so every invocation goes
// through the Fallback table entry the caller wires up (see syscallabi).
func opSyscall(in *Interpreter, n *ir.Node) error {
	if fb, ok := in.Fallback[ir.OpSyscall]; ok {
		return fb(in, n)
	}
	return errUnimplementedSyscall
}

// opThunk invokes a registered guest-callable host thunk (the IR's
// generalization of FEXCore's "invoke this C++ function" escape hatch,
// used for things like vsyscall emulation); like OpSyscall this always
// goes through the fallback table.
func opThunk(in *Interpreter, n *ir.Node) error {
	if fb, ok := in.Fallback[ir.OpThunk]; ok {
		return fb(in, n)
	}
	return errUnimplementedThunk
}
