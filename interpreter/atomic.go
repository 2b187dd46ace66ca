package interpreter

import "github.com/rcornwell/x86ir/ir"

func init() {
	register(ir.OpCAS, opCAS)
	register(ir.OpCASPair, opCASPair)
	register(ir.OpFenceLoad, opFenceNop)
	register(ir.OpFenceStore, opFenceNop)
	register(ir.OpFenceLoadStore, opFenceNop)

	register(ir.OpAtomicFetchAdd, atomicRMW(func(a, b uint64) uint64 { return a + b }))
	register(ir.OpAtomicFetchSub, atomicRMW(func(a, b uint64) uint64 { return a - b }))
	register(ir.OpAtomicFetchAnd, atomicRMW(func(a, b uint64) uint64 { return a & b }))
	register(ir.OpAtomicFetchOr, atomicRMW(func(a, b uint64) uint64 { return a | b }))
	register(ir.OpAtomicFetchXor, atomicRMW(func(a, b uint64) uint64 { return a ^ b }))
	register(ir.OpAtomicFetchSwap, atomicRMW(func(a, b uint64) uint64 { return b }))

	register(ir.OpAtomicAdd, atomicVoid(func(a, b uint64) uint64 { return a + b }))
	register(ir.OpAtomicSub, atomicVoid(func(a, b uint64) uint64 { return a - b }))
	register(ir.OpAtomicAnd, atomicVoid(func(a, b uint64) uint64 { return a & b }))
	register(ir.OpAtomicOr, atomicVoid(func(a, b uint64) uint64 { return a | b }))
	register(ir.OpAtomicXor, atomicVoid(func(a, b uint64) uint64 { return a ^ b }))
	register(ir.OpAtomicSwap, atomicVoid(func(a, b uint64) uint64 { return b }))
	register(ir.OpAtomicNeg, atomicVoid(func(a, b uint64) uint64 { return uint64(-int64(a)) }))
}

// opCAS implements x86 LOCK CMPXCHG: dest receives the memory's prior
// value (the x86 semantic, unlike a boolean-success CAS); the x87-free
// caller compares it against args[1] itself to learn whether the swap
// took effect, same as a real CMPXCHG/ZF pairing.
func opCAS(in *Interpreter, n *ir.Node) error {
	addr := getOperand(in, n.Args[0])
	expect := getOperand(in, n.Args[1])
	newVal := getOperand(in, n.Args[2])
	prior, err := in.State.Mem.Load(addr, int(n.Size))
	if err != nil {
		return err
	}
	if prior == expect {
		if err := in.State.Mem.Store(addr, newVal, int(n.Size)); err != nil {
			return err
		}
	}
	setGPR(in, n.Dest, prior, n.Size)
	return nil
}

// opCASPair is CMPXCHG16B: addr's 16 bytes compare against the expected
// low/high halves (args1/args2) and, on match, are replaced by the 16
// bytes of new (args3, a Vec register holding the packed pair); Dest
// always receives memory's prior 16 bytes, the x86 semantic CMPXCHG16B
// uses whether or not the swap took effect. The two 8-byte halves are
// compared and stored as one sequential operation rather than a single
// native 128-bit primitive, since cpustate.Memory only exposes an 8-byte
// CAS; correct only under this package's single-goroutine-per-Interpreter
// contract, same caveat opFenceNop documents.
func opCASPair(in *Interpreter, n *ir.Node) error {
	addr := getOperand(in, n.Args[0])
	expectLo := getOperand(in, n.Args[1])
	expectHi := getOperand(in, n.Args[2])
	newLo := lane(in, n.Args[3], 0, ir.Size8)
	newHi := lane(in, n.Args[3], 1, ir.Size8)

	priorLo, err := in.State.Mem.Load(addr, 8)
	if err != nil {
		return err
	}
	priorHi, err := in.State.Mem.Load(addr+8, 8)
	if err != nil {
		return err
	}
	if priorLo == expectLo && priorHi == expectHi {
		if err := in.State.Mem.Store(addr, newLo, 8); err != nil {
			return err
		}
		if err := in.State.Mem.Store(addr+8, newHi, 8); err != nil {
			return err
		}
	}
	setLane(in, n.Dest, 0, ir.Size8, priorLo)
	setLane(in, n.Dest, 1, ir.Size8, priorHi)
	return nil
}

func opFenceNop(in *Interpreter, n *ir.Node) error {
	// Guest memory here is a single-process []byte slice under Go's own
	// memory model; every load/store already observes program order
	// within a goroutine, and cross-thread ordering is provided by the
	// atomic accessors in cpustate.Memory, not by these fence opcodes.
	// They exist so the IR stays structurally faithful to the guest's
	// fence instructions, which real JIT backends lower to host fences.
	return nil
}

// atomicRMW builds a read-modify-write handler that also returns the
// prior value in dest, the AtomicFetchXxx family.
func atomicRMW(op func(a, b uint64) uint64) func(*Interpreter, *ir.Node) error {
	return func(in *Interpreter, n *ir.Node) error {
		addr := getOperand(in, n.Args[0])
		operand := getOperand(in, n.Args[1])
		for {
			prior, err := in.State.Mem.LoadTSO(addr, int(n.Size))
			if err != nil {
				return err
			}
			updated := op(prior, operand)
			ok, err := casAtWidth(in, addr, prior, updated, int(n.Size))
			if err != nil {
				return err
			}
			if ok {
				setGPR(in, n.Dest, prior, n.Size)
				return nil
			}
		}
	}
}

// atomicVoid builds a read-modify-write handler with no result, the
// AtomicAdd/Sub/And/Or/Xor/Swap/Neg family (x86 LOCK ADD et al. without a
// destination register). It runs its own copy of atomicRMW's CAS-retry
// loop but discards
// the prior value instead of writing it to n.Dest, since the catalogue
// marks this opcode family HasDest: false.
func atomicVoid(op func(a, b uint64) uint64) func(*Interpreter, *ir.Node) error {
	return func(in *Interpreter, n *ir.Node) error {
		addr := getOperand(in, n.Args[0])
		operand := getOperand(in, n.Args[1])
		for {
			prior, err := in.State.Mem.LoadTSO(addr, int(n.Size))
			if err != nil {
				return err
			}
			updated := op(prior, operand)
			ok, err := casAtWidth(in, addr, prior, updated, int(n.Size))
			if err != nil {
				return err
			}
			if ok {
				return nil
			}
		}
	}
}

func casAtWidth(in *Interpreter, addr, old, new uint64, size int) (bool, error) {
	if size == 8 {
		return in.State.Mem.CAS(addr, old, new)
	}
	// Sub-8-byte atomic RMW: the guest address space only exposes a
	// native CAS at 8 bytes, so narrower widths retry against the whole
	// aligned word the way a real translator widens a LOCK XADD byte/word
	// operation before emitting it as a host CAS loop.
	aligned := addr &^ 7
	shift := (addr - aligned) * 8
	mask := uint64(1)<<(8*size) - 1
	for {
		word, err := in.State.Mem.LoadTSO(aligned, 8)
		if err != nil {
			return false, err
		}
		cur := (word >> shift) & mask
		if cur != old&mask {
			return false, nil
		}
		newWord := (word &^ (mask << shift)) | ((new & mask) << shift)
		return in.State.Mem.CAS(aligned, word, newWord)
	}
}
