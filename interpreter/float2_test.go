package interpreter

import (
	"math"
	"testing"

	"github.com/rcornwell/x86ir/ir"
	"github.com/rcornwell/x86ir/softfloat"
)

func TestF64AddIsFlatDoubleNoStack(t *testing.T) {
	in := newTestInterp()
	setVecF64Lane(in, 0, 0, 1.5)
	setVecF64Lane(in, 1, 0, 2.25)
	n := ir.NewNode(ir.OpF64Add, ir.FPR(2), ir.FPR(0), ir.FPR(1))
	runNode(t, in, n)
	if got := laneFloat(in, ir.FPR(2), 0, ir.Size8); got != 3.75 {
		t.Errorf("F64Add = %v, want 3.75", got)
	}
	if in.State.Top != 0 {
		t.Errorf("F64Add must not touch the x87 stack, Top = %d", in.State.Top)
	}
}

func TestF80CvtRoundTripsThroughFloat64(t *testing.T) {
	in := newTestInterp()
	n := ir.NewNode(ir.OpF80Cvt, ir.FPR(0), ir.GPR(1))
	n.Size = ir.Size8
	in.State.GPR[1] = math.Float64bits(3.25)
	runNode(t, in, n)
	if got := softfloat.ToF64(in.State.X87[in.State.St(0)]); got != 3.25 {
		t.Errorf("F80Cvt = %v, want 3.25", got)
	}

	n2 := ir.NewNode(ir.OpF80CvtTo, ir.GPR(2), ir.FPR(0))
	n2.Size = ir.Size4
	runNode(t, in, n2)
	got := math.Float32frombits(uint32(in.State.GPR[2]))
	if got != 3.25 {
		t.Errorf("F80CvtTo narrowed = %v, want 3.25", got)
	}
}

func TestConstantMaterializesAuxIntoDest(t *testing.T) {
	in := newTestInterp()
	n := ir.NewNode(ir.OpConstant, ir.GPR(3))
	n.Aux = 0xdead
	n.Size = ir.Size8
	runNode(t, in, n)
	if in.State.GPR[3] != 0xdead {
		t.Errorf("GPR[3] = %#x, want 0xdead", in.State.GPR[3])
	}
}

func TestEntrypointPCReadsCodeBlockEntry(t *testing.T) {
	in := newTestInterp()
	n := ir.NewNode(ir.OpEntrypointPC, ir.GPR(4))
	n.Size = ir.Size8
	blk := &ir.Block{Nodes: []*ir.Node{n}}
	blk.Emit(ir.OpExitFunction, ir.OpRef{})
	cb := &ir.CodeBlock{Entry: blk, Blocks: []*ir.Block{blk}, EntryPC: 0x401000}
	if err := in.Run(cb); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if in.State.GPR[4] != 0x401000 {
		t.Errorf("GPR[4] = %#x, want 0x401000", in.State.GPR[4])
	}
}

func TestF80SrcOnEmptySlotReturnsIndefiniteAndFaults(t *testing.T) {
	in := newTestInterp()
	n := ir.NewNode(ir.OpF80Move, ir.FPR(0), ir.FPR(0))
	runNode(t, in, n)
	got := in.State.X87[in.State.St(0)]
	if !got.IsNaN() {
		t.Errorf("reading an empty x87 slot should yield the indefinite QNaN")
	}
	if in.State.FSW&0x41 != 0x41 {
		t.Errorf("FSW = %#x, want IE|SF set after a stack-underflow read", in.State.FSW)
	}
}

func TestF80RoundTrundIntegral(t *testing.T) {
	in := newTestInterp()
	in.State.PushX87(softfloat.FromF64(3.7))
	n := ir.NewNode(ir.OpF80Round, ir.FPR(0), ir.FPR(0))
	n.Round = ir.RoundNearestEven
	runNode(t, in, n)
	if got := softfloat.ToF64(in.State.X87[in.State.St(0)]); got != 4.0 {
		t.Errorf("F80Round = %v, want 4.0", got)
	}
}
