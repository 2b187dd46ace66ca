package interpreter

import (
	"github.com/rcornwell/x86ir/flags"
	"github.com/rcornwell/x86ir/ir"
)

func init() {
	register(ir.OpVPCmpistrx, opVPCmpistrx)
	register(ir.OpVPCmpestrx, opVPCmpestrx)
}

// PCMPxSTRx's "equal each" mode (the one instruction form spec work calls
// out by name) compares corresponding byte/word lanes of two 128-bit
// operands for equality, producing a lane-validity-masked bit vector; the
// other IntelIntrinsics aggregation modes (ranges, equal-any, equal-
// ordered substring match) are not modeled, matching the reduced scope
// named for this opcode family.
func equalEachMask(in *Interpreter, a, b ir.OpRef, elemSize ir.Size, validA, validB int) uint32 {
	lanes := 16 / int(elemSize)
	var mask uint32
	for i := 0; i < lanes; i++ {
		if i >= validA || i >= validB {
			continue
		}
		if lane(in, a, i, elemSize) == lane(in, b, i, elemSize) {
			mask |= 1 << i
		}
	}
	return mask
}

// opVPCmpistrx is PCMPISTRI/PCMPISTRM: implicit length, strings are
// NUL-terminated and Aux packs the element size (1 or 2 bytes).
func opVPCmpistrx(in *Interpreter, n *ir.Node) error {
	elemSize := ir.Size(n.Aux)
	if elemSize == 0 {
		elemSize = ir.Size1
	}
	validA := stringLen(in, n.Args[0], elemSize)
	validB := stringLen(in, n.Args[1], elemSize)
	mask := equalEachMask(in, n.Args[0], n.Args[1], elemSize, validA, validB)
	setGPR(in, n.Dest, uint64(mask), ir.Size4)
	in.Flags.Defer(flags.OpLogicNZ, 32, uint64(mask), 0, uint64(mask))
	return nil
}

// opVPCmpestrx is PCMPESTRI/PCMPESTRM: explicit lengths supplied in two
// extra integer operands (EAX/EDX in the real ISA).
func opVPCmpestrx(in *Interpreter, n *ir.Node) error {
	elemSize := ir.Size(n.Aux)
	if elemSize == 0 {
		elemSize = ir.Size1
	}
	validA := int(getOperand(in, n.Args[2]))
	validB := int(getOperand(in, n.Args[3]))
	mask := equalEachMask(in, n.Args[0], n.Args[1], elemSize, validA, validB)
	setGPR(in, n.Dest, uint64(mask), ir.Size4)
	in.Flags.Defer(flags.OpLogicNZ, 32, uint64(mask), 0, uint64(mask))
	return nil
}

func stringLen(in *Interpreter, ref ir.OpRef, elemSize ir.Size) int {
	lanes := 16 / int(elemSize)
	for i := 0; i < lanes; i++ {
		if lane(in, ref, i, elemSize) == 0 {
			return i
		}
	}
	return lanes
}
