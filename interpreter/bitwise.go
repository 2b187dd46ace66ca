package interpreter

import (
	"math/bits"

	"github.com/rcornwell/x86ir/ir"
)

func init() {
	register(ir.OpAnd, opAnd)
	register(ir.OpOr, opOr)
	register(ir.OpXor, opXor)
	register(ir.OpAndN, opAndN)
	register(ir.OpNot, opNot)
	register(ir.OpLShl, opLShl)
	register(ir.OpLShr, opLShr)
	register(ir.OpAShr, opAShr)
	register(ir.OpRor, opRor)
	register(ir.OpBfe, opBfe)
	register(ir.OpSBfe, opSBfe)
	register(ir.OpBfi, opBfi)
	register(ir.OpBfxil, opBfxil)
	register(ir.OpPopCount, opPopCount)
	register(ir.OpFindLSB, opFindLSB)
	register(ir.OpFindMSB, opFindMSB)
	register(ir.OpCountLeadingZeroes, opClz)
	register(ir.OpRev, opRev)
	register(ir.OpPDep, opPDep)
	register(ir.OpPExt, opPExt)
}

func opAnd(in *Interpreter, n *ir.Node) error {
	setGPR(in, n.Dest, getOperand(in, n.Args[0])&getOperand(in, n.Args[1]), n.Size)
	return nil
}

func opOr(in *Interpreter, n *ir.Node) error {
	setGPR(in, n.Dest, getOperand(in, n.Args[0])|getOperand(in, n.Args[1]), n.Size)
	return nil
}

func opXor(in *Interpreter, n *ir.Node) error {
	setGPR(in, n.Dest, getOperand(in, n.Args[0])^getOperand(in, n.Args[1]), n.Size)
	return nil
}

func opAndN(in *Interpreter, n *ir.Node) error {
	setGPR(in, n.Dest, getOperand(in, n.Args[0])&^getOperand(in, n.Args[1]), n.Size)
	return nil
}

func opNot(in *Interpreter, n *ir.Node) error {
	setGPR(in, n.Dest, ^getOperand(in, n.Args[0]), n.Size)
	return nil
}

func opLShl(in *Interpreter, n *ir.Node) error {
	a := getOperand(in, n.Args[0])
	sh := getOperand(in, n.Args[1]) & (8*uint64(n.Size) - 1)
	setGPR(in, n.Dest, a<<sh, n.Size)
	return nil
}

func opLShr(in *Interpreter, n *ir.Node) error {
	a := getOperand(in, n.Args[0])
	bitw := 8 * uint64(n.Size)
	if bitw < 64 {
		a &= 1<<bitw - 1
	}
	sh := getOperand(in, n.Args[1]) & (bitw - 1)
	setGPR(in, n.Dest, a>>sh, n.Size)
	return nil
}

func opAShr(in *Interpreter, n *ir.Node) error {
	a := signExtend(getOperand(in, n.Args[0]), n.Size)
	sh := getOperand(in, n.Args[1]) & (8*uint64(n.Size) - 1)
	setGPR(in, n.Dest, uint64(a>>sh), n.Size)
	return nil
}

func opRor(in *Interpreter, n *ir.Node) error {
	bitw := uint(8 * n.Size)
	a := getOperand(in, n.Args[0])
	sh := uint(getOperand(in, n.Args[1])) % bitw
	if bitw == 64 {
		setGPR(in, n.Dest, bits.RotateLeft64(a, -int(sh)), n.Size)
		return nil
	}
	mask := uint64(1)<<bitw - 1
	a &= mask
	rotated := (a>>sh | a<<(bitw-sh)) & mask
	setGPR(in, n.Dest, rotated, n.Size)
	return nil
}

// opBfe extracts an unsigned bitfield: args[0] is the source, args[1] is
// the LSB offset, args[2] is the field width, both packed as constants.
func opBfe(in *Interpreter, n *ir.Node) error {
	src := getOperand(in, n.Args[0])
	lsb := getOperand(in, n.Args[1])
	width := getOperand(in, n.Args[2])
	if width >= 64 {
		setGPR(in, n.Dest, src>>lsb, n.Size)
		return nil
	}
	setGPR(in, n.Dest, (src>>lsb)&(1<<width-1), n.Size)
	return nil
}

// opSBfe is opBfe with sign extension from the field's top bit.
func opSBfe(in *Interpreter, n *ir.Node) error {
	src := getOperand(in, n.Args[0])
	lsb := getOperand(in, n.Args[1])
	width := getOperand(in, n.Args[2])
	field := (src >> lsb)
	if width < 64 {
		field &= 1<<width - 1
	}
	shift := 64 - width
	signed := int64(field<<shift) >> shift
	setGPR(in, n.Dest, uint64(signed), n.Size)
	return nil
}

// opBfi inserts args[0]'s low `width` bits (args[2]) into dest at bit
// offset args[1], preserving the rest of args[3] (the prior destination
// value), the IR's BFI/DEPOSIT primitive.
func opBfi(in *Interpreter, n *ir.Node) error {
	src := getOperand(in, n.Args[0])
	lsb := getOperand(in, n.Args[1])
	width := getOperand(in, n.Args[2])
	base := getOperand(in, n.Args[3])
	var mask uint64
	if width >= 64 {
		mask = ^uint64(0)
	} else {
		mask = 1<<width - 1
	}
	result := (base &^ (mask << lsb)) | ((src & mask) << lsb)
	setGPR(in, n.Dest, result, n.Size)
	return nil
}

// opBfxil runs opBfi on the same operands: the low bits are inserted and
// the rest of args[3] is preserved.
func opBfxil(in *Interpreter, n *ir.Node) error {
	return opBfi(in, n)
}

func opPopCount(in *Interpreter, n *ir.Node) error {
	setGPR(in, n.Dest, uint64(bits.OnesCount64(getOperand(in, n.Args[0]))), n.Size)
	return nil
}

func opFindLSB(in *Interpreter, n *ir.Node) error {
	v := getOperand(in, n.Args[0])
	if v == 0 {
		setGPR(in, n.Dest, ^uint64(0), n.Size)
		return nil
	}
	setGPR(in, n.Dest, uint64(bits.TrailingZeros64(v)), n.Size)
	return nil
}

func opFindMSB(in *Interpreter, n *ir.Node) error {
	v := getOperand(in, n.Args[0])
	if v == 0 {
		setGPR(in, n.Dest, ^uint64(0), n.Size)
		return nil
	}
	setGPR(in, n.Dest, uint64(63-bits.LeadingZeros64(v)), n.Size)
	return nil
}

func opClz(in *Interpreter, n *ir.Node) error {
	v := getOperand(in, n.Args[0])
	bitw := 8 * int(n.Size)
	lead := bits.LeadingZeros64(v) - (64 - bitw)
	if lead < 0 {
		lead = 0
	}
	setGPR(in, n.Dest, uint64(lead), n.Size)
	return nil
}

func opRev(in *Interpreter, n *ir.Node) error {
	v := getOperand(in, n.Args[0])
	switch n.Size {
	case ir.Size1:
		setGPR(in, n.Dest, uint64(bits.Reverse8(uint8(v))), n.Size)
	case ir.Size2:
		setGPR(in, n.Dest, uint64(bits.Reverse16(uint16(v))), n.Size)
	case ir.Size4:
		setGPR(in, n.Dest, uint64(bits.Reverse32(uint32(v))), n.Size)
	default:
		setGPR(in, n.Dest, bits.Reverse64(v), n.Size)
	}
	return nil
}

// opPDep is BMI2's PDEP: scatter the low popcount(mask) bits of src into
// the positions where mask has a set bit.
func opPDep(in *Interpreter, n *ir.Node) error {
	src := getOperand(in, n.Args[0])
	mask := getOperand(in, n.Args[1])
	var result uint64
	for bit := uint(0); mask != 0; bit++ {
		lsb := mask & -mask
		if src&1 != 0 {
			result |= lsb
		}
		mask &^= lsb
		src >>= 1
	}
	setGPR(in, n.Dest, result, n.Size)
	return nil
}

// opPExt is BMI2's PEXT: gather the bits of src selected by mask into the
// low popcount(mask) bits of the result.
func opPExt(in *Interpreter, n *ir.Node) error {
	src := getOperand(in, n.Args[0])
	mask := getOperand(in, n.Args[1])
	var result uint64
	var outBit uint
	for mask != 0 {
		lsb := mask & -mask
		if src&lsb != 0 {
			result |= 1 << outBit
		}
		mask &^= lsb
		outBit++
	}
	setGPR(in, n.Dest, result, n.Size)
	return nil
}
