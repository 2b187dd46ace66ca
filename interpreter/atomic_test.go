package interpreter

import (
	"testing"

	"github.com/rcornwell/x86ir/ir"
)

func TestCASSucceedsAndReturnsPriorValue(t *testing.T) {
	in := newTestInterp()
	if err := in.State.Mem.Store(0x100, 42, 8); err != nil {
		t.Fatalf("Store: %v", err)
	}
	n := ir.NewNode(ir.OpCAS, ir.GPR(0), ir.GPR(1), ir.GPR(2), ir.GPR(3))
	n.Size = ir.Size8
	in.State.GPR[1] = 0x100
	in.State.GPR[2] = 42
	in.State.GPR[3] = 99
	runNode(t, in, n)
	if in.State.GPR[0] != 42 {
		t.Errorf("CAS prior = %d, want 42", in.State.GPR[0])
	}
	got, _ := in.State.Mem.Load(0x100, 8)
	if got != 99 {
		t.Errorf("CAS did not store new value, mem = %d", got)
	}
}

func TestCASPairSwapsBothHalvesOnMatch(t *testing.T) {
	in := newTestInterp()
	if err := in.State.Mem.Store(0x200, 1, 8); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := in.State.Mem.Store(0x208, 2, 8); err != nil {
		t.Fatalf("Store: %v", err)
	}
	setLane(in, ir.FPR(0), 0, ir.Size8, 10)
	setLane(in, ir.FPR(0), 1, ir.Size8, 20)

	n := ir.NewNode(ir.OpCASPair, ir.FPR(1), ir.GPR(0), ir.GPR(1), ir.GPR(2), ir.FPR(0))
	in.State.GPR[0] = 0x200
	in.State.GPR[1] = 1
	in.State.GPR[2] = 2
	runNode(t, in, n)

	if got := lane(in, ir.FPR(1), 0, ir.Size8); got != 1 {
		t.Errorf("CASPair prior lo = %d, want 1", got)
	}
	if got := lane(in, ir.FPR(1), 1, ir.Size8); got != 2 {
		t.Errorf("CASPair prior hi = %d, want 2", got)
	}
	loAfter, _ := in.State.Mem.Load(0x200, 8)
	hiAfter, _ := in.State.Mem.Load(0x208, 8)
	if loAfter != 10 || hiAfter != 20 {
		t.Errorf("CASPair mem after = (%d, %d), want (10, 20)", loAfter, hiAfter)
	}
}

func TestAtomicAddLeavesDestUntouched(t *testing.T) {
	in := newTestInterp()
	if err := in.State.Mem.Store(0x400, 5, 8); err != nil {
		t.Fatalf("Store: %v", err)
	}
	in.State.GPR[0] = 0xdeadbeef // the zero-value OpRef{} dest (GPR0/RAX)
	n := ir.NewNode(ir.OpAtomicAdd, ir.OpRef{}, ir.GPR(1), ir.GPR(2))
	n.Size = ir.Size8
	in.State.GPR[1] = 0x400
	in.State.GPR[2] = 3
	runNode(t, in, n)

	if in.State.GPR[0] != 0xdeadbeef {
		t.Errorf("AtomicAdd must not write the prior value into Dest, GPR[0] = %#x", in.State.GPR[0])
	}
	got, _ := in.State.Mem.Load(0x400, 8)
	if got != 8 {
		t.Errorf("AtomicAdd result = %d, want 8", got)
	}
	if ir.Info(ir.OpAtomicAdd).HasDest {
		t.Error("OpAtomicAdd catalogue entry must have HasDest = false")
	}
	if !ir.Info(ir.OpAtomicFetchAdd).HasDest {
		t.Error("OpAtomicFetchAdd catalogue entry must have HasDest = true")
	}
}

func TestCASPairLeavesMemoryOnMismatch(t *testing.T) {
	in := newTestInterp()
	if err := in.State.Mem.Store(0x300, 1, 8); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := in.State.Mem.Store(0x308, 2, 8); err != nil {
		t.Fatalf("Store: %v", err)
	}
	setLane(in, ir.FPR(0), 0, ir.Size8, 10)
	setLane(in, ir.FPR(0), 1, ir.Size8, 20)

	n := ir.NewNode(ir.OpCASPair, ir.FPR(1), ir.GPR(0), ir.GPR(1), ir.GPR(2), ir.FPR(0))
	in.State.GPR[0] = 0x300
	in.State.GPR[1] = 1
	in.State.GPR[2] = 999 // wrong expected high half
	runNode(t, in, n)

	loAfter, _ := in.State.Mem.Load(0x300, 8)
	hiAfter, _ := in.State.Mem.Load(0x308, 8)
	if loAfter != 1 || hiAfter != 2 {
		t.Errorf("CASPair must not swap on mismatch, mem = (%d, %d)", loAfter, hiAfter)
	}
}
