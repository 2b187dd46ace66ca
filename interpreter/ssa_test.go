package interpreter

import (
	"testing"

	"github.com/rcornwell/x86ir/ir"
)

// TestSSARefAddressesValuesBeyondArchitecturalRegisterCount confirms a
// node can reference an SSA slot whose ID is far past the 16-entry GPR
// file's bounds, the case ir.GPR/ir.FPR cannot express without an
// out-of-range panic against cpustate.State.
func TestSSARefAddressesValuesBeyondArchitecturalRegisterCount(t *testing.T) {
	in := newTestInterp()
	in.State.GPR[1] = 5
	in.State.GPR[2] = 7
	n := ir.NewNode(ir.OpAdd, ir.SSA(200), ir.GPR(1), ir.GPR(2))
	n.Size = ir.Size8
	runNode(t, in, n)
	if got := getOperand(in, ir.SSA(200)); got != 12 {
		t.Errorf("SSA(200) = %d, want 12", got)
	}
}

func TestSSARefChainsAcrossNodesWithinOneBlock(t *testing.T) {
	in := newTestInterp()
	in.State.GPR[0] = 3
	a := ir.NewNode(ir.OpAdd, ir.SSA(20), ir.GPR(0), ir.Imm(4))
	a.Size = ir.Size8
	b := ir.NewNode(ir.OpAdd, ir.GPR(1), ir.SSA(20), ir.Imm(1))
	b.Size = ir.Size8
	blk := &ir.Block{Nodes: []*ir.Node{a, b}}
	blk.Emit(ir.OpExitFunction, ir.OpRef{})
	cb := &ir.CodeBlock{Entry: blk, Blocks: []*ir.Block{blk}}
	if err := in.Run(cb); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if in.State.GPR[1] != 8 {
		t.Errorf("GPR[1] = %d, want 8", in.State.GPR[1])
	}
}

func TestSSAPoolResetsAcrossRuns(t *testing.T) {
	in := newTestInterp()
	n := ir.NewNode(ir.OpConstant, ir.SSA(5))
	n.Aux = 0xff
	n.Size = ir.Size8
	runNode(t, in, n)
	if got := getOperand(in, ir.SSA(5)); got != 0xff {
		t.Fatalf("SSA(5) = %#x, want 0xff", got)
	}

	// A fresh Run (a new translation unit) must not see stale SSA state
	// from the previous one.
	empty := &ir.Block{}
	empty.Emit(ir.OpExitFunction, ir.OpRef{})
	cb := &ir.CodeBlock{Entry: empty, Blocks: []*ir.Block{empty}}
	if err := in.Run(cb); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := getOperand(in, ir.SSA(5)); got != 0 {
		t.Errorf("SSA(5) after reset = %#x, want 0", got)
	}
}
