package interpreter

import "github.com/rcornwell/x86ir/ir"

func init() {
	register(ir.OpPrint, opPrint)
	register(ir.OpProcessorID, opProcessorID)
	register(ir.OpCycleCounter, opCycleCounter)
	register(ir.OpRDRand, opRDRand)
	register(ir.OpCacheLineClear, opCacheLineClear)
	register(ir.OpValidateCode, opValidateCode)
	registerTerminator(ir.OpBreak, opBreak)
}

// opPrint is a debug trap (FEXCore's "syscall to print a register for
// tracing") rather than an x86 opcode; it exists so generated IR can leave
// breadcrumbs without a full syscall round trip.
func opPrint(in *Interpreter, n *ir.Node) error {
	v := getOperand(in, n.Args[0])
	in.Log.Debug("print", "value", v)
	return nil
}

// opProcessorID is CPUID's APIC-ID-bearing leaf collapsed to the one
// field guest code actually branches on; everything else CPUID reports is
// out of scope and routed through the fallback table instead.
func opProcessorID(in *Interpreter, n *ir.Node) error {
	setGPR(in, n.Dest, 0, n.Size)
	return nil
}

// opCycleCounter is RDTSC. Without a host-visible guest clock to read,
// it routes to the fallback table's handler when one is registered and
// otherwise writes 0 to Dest.
func opCycleCounter(in *Interpreter, n *ir.Node) error {
	if fb, ok := in.Fallback[ir.OpCycleCounter]; ok {
		return fb(in, n)
	}
	setGPR(in, n.Dest, 0, n.Size)
	return nil
}

func opRDRand(in *Interpreter, n *ir.Node) error {
	if fb, ok := in.Fallback[ir.OpRDRand]; ok {
		return fb(in, n)
	}
	setGPR(in, n.Dest, 0, n.Size)
	in.Flags.Defer(0, 0, 0, 0, 0)
	return nil
}

func opCacheLineClear(in *Interpreter, n *ir.Node) error {
	// Guest memory is plain host memory with no simulated cache hierarchy,
	// so CLFLUSH/CLWB are no-ops here; they exist in the catalogue so
	// translated code containing them still produces valid IR.
	return nil
}

// opValidateCode backs self-modifying-code detection: the translator
// re-hashes a guest code range before trusting a cached block and exits
// back to the dispatcher on mismatch (Dest receives 1 on match, 0 to force
// a retranslate). Actual hashing is outside the interpreter's scope: it is
// the caller's responsibility via the fallback table, since it requires
// access to the code-cache the interpreter itself does not own.
func opValidateCode(in *Interpreter, n *ir.Node) error {
	if fb, ok := in.Fallback[ir.OpValidateCode]; ok {
		return fb(in, n)
	}
	setGPR(in, n.Dest, 1, n.Size)
	return nil
}

// opBreak is a guest breakpoint/UD2: it always ends the block, handing
// control back to the caller the way OpExitFunction does, but without
// updating PC (the trap handler decides where to resume).
func opBreak(in *Interpreter, n *ir.Node) (*ir.Block, bool, error) {
	return nil, true, nil
}
