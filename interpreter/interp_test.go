package interpreter

import (
	"testing"

	"github.com/rcornwell/x86ir/cpustate"
	"github.com/rcornwell/x86ir/flags"
	"github.com/rcornwell/x86ir/ir"
	"github.com/rcornwell/x86ir/softfloat"
)

func newTestInterp() *Interpreter {
	st := cpustate.NewState(cpustate.NewMemory(1 << 20))
	return New(st, nil)
}

func runNode(t *testing.T, in *Interpreter, n *ir.Node) {
	t.Helper()
	blk := &ir.Block{Nodes: []*ir.Node{n}}
	blk.Emit(ir.OpExitFunction, ir.OpRef{})
	cb := &ir.CodeBlock{Entry: blk, Blocks: []*ir.Block{blk}}
	if err := in.Run(cb); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestAddBasic(t *testing.T) {
	in := newTestInterp()
	in.State.GPR[1] = 5
	in.State.GPR[2] = 7
	n := ir.NewNode(ir.OpAdd, ir.GPR(0), ir.GPR(1), ir.GPR(2))
	n.Size = ir.Size8
	runNode(t, in, n)
	if in.State.GPR[0] != 12 {
		t.Errorf("GPR[0] = %d, want 12", in.State.GPR[0])
	}
}

func TestUMulHWidening(t *testing.T) {
	in := newTestInterp()
	in.State.GPR[1] = 1 << 63
	in.State.GPR[2] = 2
	n := ir.NewNode(ir.OpUMulH, ir.GPR(0), ir.GPR(1), ir.GPR(2))
	n.Size = ir.Size8
	runNode(t, in, n)
	if in.State.GPR[0] != 1 {
		t.Errorf("UMulH high half = %d, want 1", in.State.GPR[0])
	}
}

func TestF80AddRounding(t *testing.T) {
	in := newTestInterp()
	in.State.PushX87(softfloat.FromF64(1.0))
	in.State.PushX87(softfloat.FromF64(2.5))
	n := ir.NewNode(ir.OpF80Add, ir.FPR(0), ir.FPR(0), ir.FPR(1))
	n.Round = ir.RoundNearestEven
	runNode(t, in, n)
	got := softfloat.ToF64(in.State.X87[in.State.St(0)])
	if got != 3.5 {
		t.Errorf("F80 add = %v, want 3.5", got)
	}
}

func TestLoadStoreMemTSO(t *testing.T) {
	in := newTestInterp()
	in.State.GPR[1] = 0x1000
	in.State.GPR[2] = 0xcafebabe
	store := ir.NewNode(ir.OpStoreMemTSO, ir.OpRef{}, ir.GPR(1), ir.GPR(2))
	store.Size = ir.Size4
	runNode(t, in, store)

	load := ir.NewNode(ir.OpLoadMemTSO, ir.GPR(3), ir.GPR(1))
	load.Size = ir.Size4
	runNode(t, in, load)
	if in.State.GPR[3] != 0xcafebabe {
		t.Errorf("TSO load = %#x, want 0xcafebabe", in.State.GPR[3])
	}
}

func TestCASSucceedsAndFails(t *testing.T) {
	in := newTestInterp()
	_ = in.State.Mem.Store(0x2000, 10, 8)
	in.State.GPR[1] = 0x2000
	in.State.GPR[2] = 10
	in.State.GPR[3] = 20
	n := ir.NewNode(ir.OpCAS, ir.GPR(0), ir.GPR(1), ir.GPR(2), ir.GPR(3))
	n.Size = ir.Size8
	runNode(t, in, n)
	if in.State.GPR[0] != 10 {
		t.Errorf("CAS should return prior value 10, got %d", in.State.GPR[0])
	}
	got, _ := in.State.Mem.Load(0x2000, 8)
	if got != 20 {
		t.Errorf("CAS should have stored 20, memory has %d", got)
	}
}

func TestSelectPicksTakenBranch(t *testing.T) {
	in := newTestInterp()
	in.Flags.Defer(flags.OpLogicNZ, 32, 0, 0, 0) // force Z set (logic result 0)
	in.State.GPR[1] = 111
	in.State.GPR[2] = 222
	n := ir.NewNode(ir.OpSelect, ir.GPR(0), ir.GPR(1), ir.GPR(2))
	n.Size = ir.Size8
	n.Cond = ir.CondEQ
	runNode(t, in, n)
	if in.State.GPR[0] != 111 {
		t.Errorf("Select with Z set and CondEQ should pick first arg, got %d", in.State.GPR[0])
	}
}

func TestVPCmpistrxEqualEach(t *testing.T) {
	in := newTestInterp()
	in.State.Vec[0] = [32]byte{'a', 'b', 'c', 0}
	in.State.Vec[1] = [32]byte{'a', 'x', 'c', 0}
	n := ir.NewNode(ir.OpVPCmpistrx, ir.GPR(0), ir.FPR(0), ir.FPR(1))
	n.Aux = uint64(ir.Size1)
	runNode(t, in, n)
	want := uint64(0b101) // lanes 0 and 2 equal, lane 1 differs
	if in.State.GPR[0] != want {
		t.Errorf("VPCMPISTRX mask = %#b, want %#b", in.State.GPR[0], want)
	}
}

func TestPDepPExtRoundTrip(t *testing.T) {
	in := newTestInterp()
	in.State.GPR[1] = 0b1011
	in.State.GPR[2] = 0b10110100
	n := ir.NewNode(ir.OpPDep, ir.GPR(0), ir.GPR(1), ir.GPR(2))
	n.Size = ir.Size8
	runNode(t, in, n)
	back := ir.NewNode(ir.OpPExt, ir.GPR(3), ir.GPR(0), ir.GPR(2))
	back.Size = ir.Size8
	runNode(t, in, back)
	if in.State.GPR[3] != in.State.GPR[1] {
		t.Errorf("PDEP/PEXT round trip: got %#b, want %#b", in.State.GPR[3], in.State.GPR[1])
	}
}
