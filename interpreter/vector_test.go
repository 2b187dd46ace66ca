package interpreter

import (
	"math"
	"testing"

	"github.com/rcornwell/x86ir/ir"
)

func setVecF64Lane(in *Interpreter, reg uint16, idx int, v float64) {
	setLaneFloat(in, ir.FPR(reg), idx, ir.Size8, v)
}

func TestVFCmpLTSetsLaneMask(t *testing.T) {
	in := newTestInterp()
	setVecF64Lane(in, 0, 0, 1.0)
	setVecF64Lane(in, 1, 0, 2.0)
	n := ir.NewNode(ir.OpVFCmpLT, ir.FPR(2), ir.FPR(0), ir.FPR(1))
	n.Size = ir.Size8
	n.ElemSize = ir.Size8
	runNode(t, in, n)
	got := lane(in, ir.FPR(2), 0, ir.Size8)
	if got != math.MaxUint64 {
		t.Errorf("1.0 < 2.0 lane mask = %#x, want all-ones", got)
	}
}

func TestVFCmpGTIsSwappedVFCmpLT(t *testing.T) {
	in := newTestInterp()
	setVecF64Lane(in, 0, 0, 5.0)
	setVecF64Lane(in, 1, 0, 2.0)
	n := ir.NewNode(ir.OpVFCmpGT, ir.FPR(2), ir.FPR(0), ir.FPR(1))
	n.Size = ir.Size8
	n.ElemSize = ir.Size8
	runNode(t, in, n)
	got := lane(in, ir.FPR(2), 0, ir.Size8)
	if got != math.MaxUint64 {
		t.Errorf("5.0 > 2.0 lane mask = %#x, want all-ones", got)
	}

	// And the false case: operands reversed so VFCMPLT(b, a) is false.
	in2 := newTestInterp()
	setVecF64Lane(in2, 0, 0, 2.0)
	setVecF64Lane(in2, 1, 0, 5.0)
	n2 := ir.NewNode(ir.OpVFCmpGT, ir.FPR(2), ir.FPR(0), ir.FPR(1))
	n2.Size = ir.Size8
	n2.ElemSize = ir.Size8
	runNode(t, in2, n2)
	if lane(in2, ir.FPR(2), 0, ir.Size8) != 0 {
		t.Errorf("2.0 > 5.0 should be false")
	}
}

func TestVFCmpUnoDetectsNaN(t *testing.T) {
	in := newTestInterp()
	setVecF64Lane(in, 0, 0, math.NaN())
	setVecF64Lane(in, 1, 0, 1.0)
	n := ir.NewNode(ir.OpVFCmpUno, ir.FPR(2), ir.FPR(0), ir.FPR(1))
	n.Size = ir.Size8
	n.ElemSize = ir.Size8
	runNode(t, in, n)
	if lane(in, ir.FPR(2), 0, ir.Size8) != math.MaxUint64 {
		t.Errorf("NaN operand should mark lane unordered")
	}
}
