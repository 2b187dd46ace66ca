package interpreter

import (
	"math"
	"math/bits"

	"github.com/rcornwell/x86ir/ir"
)

// Vector opcodes operate lane-wise over the 128/256-bit Vec registers.
// Rather than one handler per named opcode (the catalogue lists dozens of
// near-identical variants differing only in lane width and element
// operation), each handler here is generic over ElemSize and reads which
// arithmetic/logical/compare function to apply from a per-opcode table,
// the same "one function pointer per row" shape the teacher's createTable
// uses for its 256-entry instruction dispatch, just keyed by a smaller
// opcode space.

type vecIntOp func(a, b uint64, elemSize ir.Size) uint64
type vecFloatOp func(a, b float64) float64

var vecIntTable = map[ir.Opcode]vecIntOp{
	ir.OpVAdd: func(a, b uint64, s ir.Size) uint64 { return truncateLane(a+b, s) },
	ir.OpVSub: func(a, b uint64, s ir.Size) uint64 { return truncateLane(a-b, s) },
	ir.OpVAnd: func(a, b uint64, s ir.Size) uint64 { return a & b },
	ir.OpVOr:  func(a, b uint64, s ir.Size) uint64 { return a | b },
	ir.OpVXor: func(a, b uint64, s ir.Size) uint64 { return a ^ b },
	ir.OpVBic: func(a, b uint64, s ir.Size) uint64 { return a &^ b },
	ir.OpVUMin: func(a, b uint64, s ir.Size) uint64 {
		if a < b {
			return a
		}
		return b
	},
	ir.OpVUMax: func(a, b uint64, s ir.Size) uint64 {
		if a > b {
			return a
		}
		return b
	},
	ir.OpVSMin: func(a, b uint64, s ir.Size) uint64 {
		if signExtendElem(a, s) < signExtendElem(b, s) {
			return a
		}
		return b
	},
	ir.OpVSMax: func(a, b uint64, s ir.Size) uint64 {
		if signExtendElem(a, s) > signExtendElem(b, s) {
			return a
		}
		return b
	},
	ir.OpVCmpEq: func(a, b uint64, s ir.Size) uint64 { return lanesMask(a == b, s) },
	ir.OpVCmpGt: func(a, b uint64, s ir.Size) uint64 {
		return lanesMask(signExtendElem(a, s) > signExtendElem(b, s), s)
	},
	ir.OpVMul:  func(a, b uint64, s ir.Size) uint64 { return truncateLane(a*b, s) },
	ir.OpVUMul: func(a, b uint64, s ir.Size) uint64 { return truncateLane(a*b, s) },
}

var vecFloatTable = map[ir.Opcode]vecFloatOp{
	ir.OpVFAdd: func(a, b float64) float64 { return a + b },
	ir.OpVFSub: func(a, b float64) float64 { return a - b },
	ir.OpVFMul: func(a, b float64) float64 { return a * b },
	ir.OpVFDiv: func(a, b float64) float64 { return a / b },
	ir.OpVFMin: math.Min,
	ir.OpVFMax: math.Max,
}

// vecFloatCmpOp evaluates a float lane compare predicate; the result is
// fed through lanesMask the same way the integer compares are, producing
// an all-ones or all-zero lane rather than a bool.
type vecFloatCmpOp func(a, b float64) bool

var vecFloatCmpTable = map[ir.Opcode]vecFloatCmpOp{
	ir.OpVFCmpEq:  func(a, b float64) bool { return a == b },
	ir.OpVFCmpNeq: func(a, b float64) bool { return a != b },
	ir.OpVFCmpLT:  func(a, b float64) bool { return a < b },
	ir.OpVFCmpLE:  func(a, b float64) bool { return a <= b },
	ir.OpVFCmpOrd: func(a, b float64) bool { return !math.IsNaN(a) && !math.IsNaN(b) },
	ir.OpVFCmpUno: func(a, b float64) bool { return math.IsNaN(a) || math.IsNaN(b) },
}

func init() {
	for op, fn := range vecIntTable {
		register(op, vecIntHandler(fn))
	}
	for op, fn := range vecFloatTable {
		register(op, vecFloatHandler(fn))
	}
	for op, fn := range vecFloatCmpTable {
		register(op, vecFloatCmpHandler(fn))
	}
	// VFCMPGT has no dedicated predicate of its own: it is VFCMPLT with
	// its operands swapped at the call site, not a separate comparison.
	register(ir.OpVFCmpGT, func(in *Interpreter, n *ir.Node) error {
		swapped := *n
		swapped.Args[0], swapped.Args[1] = n.Args[1], n.Args[0]
		return vecFloatCmpHandler(vecFloatCmpTable[ir.OpVFCmpLT])(in, &swapped)
	})
	register(ir.OpVNeg, opVNeg)
	register(ir.OpVNot, opVNot)
	register(ir.OpVFNeg, opVFNeg)
	register(ir.OpVAbs, opVAbs)
	register(ir.OpVPopCount, opVPopCount)
	register(ir.OpVDupElement, opVDupElement)
	register(ir.OpVExtractElement, opVExtractElement)
	register(ir.OpVInsElement, opVInsElement)
	register(ir.OpVBsl, opVBsl)
}

func truncateLane(v uint64, s ir.Size) uint64 {
	if s >= 8 {
		return v
	}
	return v & (1<<(8*s) - 1)
}

func signExtendElem(v uint64, s ir.Size) int64 {
	shift := 64 - 8*uint(s)
	return int64(v<<shift) >> shift
}

func lanesMask(cond bool, s ir.Size) uint64 {
	if !cond {
		return 0
	}
	return truncateLane(^uint64(0), s)
}

func lane(in *Interpreter, ref ir.OpRef, idx int, elemSize ir.Size) uint64 {
	buf := vecBacking(in, ref)
	if buf == nil {
		return ref.Const
	}
	off := idx * int(elemSize)
	var v uint64
	for i := 0; i < int(elemSize) && off+i < len(buf); i++ {
		v |= uint64(buf[off+i]) << (8 * i)
	}
	return v
}

func setLane(in *Interpreter, ref ir.OpRef, idx int, elemSize ir.Size, v uint64) {
	buf := vecBacking(in, ref)
	if buf == nil {
		return
	}
	off := idx * int(elemSize)
	for i := 0; i < int(elemSize) && off+i < len(buf); i++ {
		buf[off+i] = byte(v >> (8 * i))
	}
}

// vecBacking returns the 32-byte lane storage a vector-shaped operand
// reads/writes: the architectural Vec file for RefFPR, or the SSA value
// pool's slot for RefSSA (a node result with no architectural vector
// register assigned to it yet). Any other Kind has no lane storage.
func vecBacking(in *Interpreter, ref ir.OpRef) []byte {
	switch ref.Kind {
	case ir.RefFPR:
		return in.State.Vec[ref.Reg][:]
	case ir.RefSSA:
		return in.ssaSlot(ref.Reg)[:]
	default:
		return nil
	}
}

func numLanes(n *ir.Node) int {
	if n.ElemSize == 0 {
		return 1
	}
	return int(n.Size) / int(n.ElemSize)
}

func vecIntHandler(fn vecIntOp) func(*Interpreter, *ir.Node) error {
	return func(in *Interpreter, n *ir.Node) error {
		lanes := numLanes(n)
		for i := 0; i < lanes; i++ {
			a := lane(in, n.Args[0], i, n.ElemSize)
			b := lane(in, n.Args[1], i, n.ElemSize)
			setLane(in, n.Dest, i, n.ElemSize, fn(a, b, n.ElemSize))
		}
		return nil
	}
}

func vecFloatHandler(fn vecFloatOp) func(*Interpreter, *ir.Node) error {
	return func(in *Interpreter, n *ir.Node) error {
		elemSize := n.ElemSize
		if elemSize == 0 {
			elemSize = ir.Size8
		}
		lanes := int(n.Size) / int(elemSize)
		for i := 0; i < lanes; i++ {
			a := laneFloat(in, n.Args[0], i, elemSize)
			b := laneFloat(in, n.Args[1], i, elemSize)
			setLaneFloat(in, n.Dest, i, elemSize, fn(a, b))
		}
		return nil
	}
}

func vecFloatCmpHandler(fn vecFloatCmpOp) func(*Interpreter, *ir.Node) error {
	return func(in *Interpreter, n *ir.Node) error {
		elemSize := n.ElemSize
		if elemSize == 0 {
			elemSize = ir.Size8
		}
		lanes := int(n.Size) / int(elemSize)
		for i := 0; i < lanes; i++ {
			a := laneFloat(in, n.Args[0], i, elemSize)
			b := laneFloat(in, n.Args[1], i, elemSize)
			setLane(in, n.Dest, i, elemSize, lanesMask(fn(a, b), elemSize))
		}
		return nil
	}
}

func laneFloat(in *Interpreter, ref ir.OpRef, idx int, elemSize ir.Size) float64 {
	raw := lane(in, ref, idx, elemSize)
	if elemSize == ir.Size4 {
		return float64(math.Float32frombits(uint32(raw)))
	}
	return math.Float64frombits(raw)
}

func setLaneFloat(in *Interpreter, ref ir.OpRef, idx int, elemSize ir.Size, f float64) {
	if elemSize == ir.Size4 {
		setLane(in, ref, idx, elemSize, uint64(math.Float32bits(float32(f))))
		return
	}
	setLane(in, ref, idx, elemSize, math.Float64bits(f))
}

func opVNeg(in *Interpreter, n *ir.Node) error {
	lanes := numLanes(n)
	for i := 0; i < lanes; i++ {
		a := lane(in, n.Args[0], i, n.ElemSize)
		setLane(in, n.Dest, i, n.ElemSize, truncateLane(uint64(-int64(a)), n.ElemSize))
	}
	return nil
}

func opVNot(in *Interpreter, n *ir.Node) error {
	lanes := numLanes(n)
	for i := 0; i < lanes; i++ {
		a := lane(in, n.Args[0], i, n.ElemSize)
		setLane(in, n.Dest, i, n.ElemSize, truncateLane(^a, n.ElemSize))
	}
	return nil
}

func opVFNeg(in *Interpreter, n *ir.Node) error {
	elemSize := n.ElemSize
	if elemSize == 0 {
		elemSize = ir.Size8
	}
	lanes := int(n.Size) / int(elemSize)
	for i := 0; i < lanes; i++ {
		setLaneFloat(in, n.Dest, i, elemSize, -laneFloat(in, n.Args[0], i, elemSize))
	}
	return nil
}

func opVAbs(in *Interpreter, n *ir.Node) error {
	lanes := numLanes(n)
	for i := 0; i < lanes; i++ {
		a := signExtendElem(lane(in, n.Args[0], i, n.ElemSize), n.ElemSize)
		if a < 0 {
			a = -a
		}
		setLane(in, n.Dest, i, n.ElemSize, truncateLane(uint64(a), n.ElemSize))
	}
	return nil
}

func opVPopCount(in *Interpreter, n *ir.Node) error {
	lanes := numLanes(n)
	for i := 0; i < lanes; i++ {
		a := lane(in, n.Args[0], i, n.ElemSize)
		setLane(in, n.Dest, i, n.ElemSize, uint64(bits.OnesCount64(a)))
	}
	return nil
}

func opVDupElement(in *Interpreter, n *ir.Node) error {
	elemSize := n.ElemSize
	srcIdx := int(n.Aux)
	v := lane(in, n.Args[0], srcIdx, elemSize)
	lanes := numLanes(n)
	for i := 0; i < lanes; i++ {
		setLane(in, n.Dest, i, elemSize, v)
	}
	return nil
}

func opVExtractElement(in *Interpreter, n *ir.Node) error {
	idx := int(n.Aux)
	v := lane(in, n.Args[0], idx, n.ElemSize)
	setGPR(in, n.Dest, v, n.ElemSize)
	return nil
}

func opVInsElement(in *Interpreter, n *ir.Node) error {
	idx := int(n.Aux)
	v := getOperand(in, n.Args[0])
	setLane(in, n.Dest, idx, n.ElemSize, v)
	return nil
}

// opVBsl is ARM-style "bitwise select" (dest = (args0 & sel) | (args1 &
// ~sel)), which x86 code generation uses for blendv-family lowering: it
// reads a select mask from Dest's own prior value, matching FEXCore's
// read-modify-write VBSL semantics.
func opVBsl(in *Interpreter, n *ir.Node) error {
	lanes := numLanes(n)
	for i := 0; i < lanes; i++ {
		sel := lane(in, n.Dest, i, n.ElemSize)
		a := lane(in, n.Args[0], i, n.ElemSize)
		b := lane(in, n.Args[1], i, n.ElemSize)
		setLane(in, n.Dest, i, n.ElemSize, (a&sel)|(b&^sel))
	}
	return nil
}
