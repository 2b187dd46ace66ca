package interpreter

import (
	"testing"

	"github.com/rcornwell/x86ir/ir"
)

func TestVUQAddSaturatesAtElementMax(t *testing.T) {
	in := newTestInterp()
	setLane(in, ir.FPR(0), 0, ir.Size1, 250)
	setLane(in, ir.FPR(1), 0, ir.Size1, 20)
	n := ir.NewNode(ir.OpVUQAdd, ir.FPR(2), ir.FPR(0), ir.FPR(1))
	n.Size = ir.Size1
	n.ElemSize = ir.Size1
	runNode(t, in, n)
	if got := lane(in, ir.FPR(2), 0, ir.Size1); got != 255 {
		t.Errorf("VUQAdd = %d, want saturated 255", got)
	}
}

func TestVAddPSumsAdjacentLanes(t *testing.T) {
	in := newTestInterp()
	for i, v := range []uint64{1, 2, 3, 4} {
		setLane(in, ir.FPR(0), i, ir.Size4, v)
	}
	for i, v := range []uint64{10, 20, 30, 40} {
		setLane(in, ir.FPR(1), i, ir.Size4, v)
	}
	n := ir.NewNode(ir.OpVAddP, ir.FPR(2), ir.FPR(0), ir.FPR(1))
	n.Size = 16
	n.ElemSize = ir.Size4
	runNode(t, in, n)
	want := []uint64{3, 7, 30, 70}
	for i, w := range want {
		if got := lane(in, ir.FPR(2), i, ir.Size4); got != w {
			t.Errorf("VAddP lane %d = %d, want %d", i, got, w)
		}
	}
}

func TestVAddVReducesAllLanes(t *testing.T) {
	in := newTestInterp()
	for i, v := range []uint64{1, 2, 3, 4} {
		setLane(in, ir.FPR(0), i, ir.Size4, v)
	}
	n := ir.NewNode(ir.OpVAddV, ir.FPR(1), ir.FPR(0))
	n.Size = 16
	n.ElemSize = ir.Size4
	runNode(t, in, n)
	if got := lane(in, ir.FPR(1), 0, ir.Size4); got != 10 {
		t.Errorf("VAddV = %d, want 10", got)
	}
}

func TestVZipInterleavesLowHalves(t *testing.T) {
	in := newTestInterp()
	for i, v := range []uint64{1, 2, 3, 4} {
		setLane(in, ir.FPR(0), i, ir.Size4, v)
	}
	for i, v := range []uint64{10, 20, 30, 40} {
		setLane(in, ir.FPR(1), i, ir.Size4, v)
	}
	n := ir.NewNode(ir.OpVZip, ir.FPR(2), ir.FPR(0), ir.FPR(1))
	n.Size = 16
	n.ElemSize = ir.Size4
	runNode(t, in, n)
	want := []uint64{1, 10, 2, 20}
	for i, w := range want {
		if got := lane(in, ir.FPR(2), i, ir.Size4); got != w {
			t.Errorf("VZip lane %d = %d, want %d", i, got, w)
		}
	}
}

func TestVSXtlWidensLowHalfSignExtended(t *testing.T) {
	in := newTestInterp()
	setLane(in, ir.FPR(0), 0, ir.Size4, uint64(^uint32(0))) // int32(-1)
	setLane(in, ir.FPR(0), 1, ir.Size4, 7)
	n := ir.NewNode(ir.OpVSXtl, ir.FPR(1), ir.FPR(0))
	n.Size = 16
	n.ElemSize = ir.Size4
	runNode(t, in, n)
	if got := lane(in, ir.FPR(1), 0, ir.Size8); got != ^uint64(0) {
		t.Errorf("VSXtl lane 0 = %#x, want all-ones (sign extended)", got)
	}
	if got := lane(in, ir.FPR(1), 1, ir.Size8); got != 7 {
		t.Errorf("VSXtl lane 1 = %d, want 7", got)
	}
}

func TestVectorSToFConvertsIntegerLanes(t *testing.T) {
	in := newTestInterp()
	setLane(in, ir.FPR(0), 0, ir.Size8, ^uint64(4)) // int64(-5)
	n := ir.NewNode(ir.OpVectorSToF, ir.FPR(1), ir.FPR(0))
	n.Size = 8
	n.ElemSize = ir.Size8
	runNode(t, in, n)
	if got := laneFloat(in, ir.FPR(1), 0, ir.Size8); got != -5.0 {
		t.Errorf("VectorSToF = %v, want -5.0", got)
	}
}
