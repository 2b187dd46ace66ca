package interpreter

import (
	"math"

	"github.com/rcornwell/x86ir/ir"
)

// This file rounds out the vector family with the lane-shuffle, saturating,
// widening, and across-vector opcodes vector.go's simple per-lane binary/
// unary tables don't fit: each of these needs its own access pattern (pairs
// of adjacent lanes, a halved or doubled ElemSize between source and dest,
// a full-vector reduction, an immediate lane index out of Aux).

func init() {
	register(ir.OpVUQAdd, vecSatHandler(true, true))
	register(ir.OpVSQAdd, vecSatHandler(true, false))
	register(ir.OpVUQSub, vecSatHandler(false, true))
	register(ir.OpVSQSub, vecSatHandler(false, false))
	register(ir.OpVAddP, opVAddP)
	register(ir.OpVAddV, opVAddV)
	register(ir.OpVUMulL, vecWidenMulHandler(0))
	register(ir.OpVUMulL2, vecWidenMulHandler(1))
	register(ir.OpVUAbdL, opVUAbdL)
	register(ir.OpVFRecp, vecFloatUnaryHandler(func(a float64) float64 { return 1 / a }))
	register(ir.OpVFSqrt, vecFloatUnaryHandler(math.Sqrt))
	register(ir.OpVFRSqrt, vecFloatUnaryHandler(func(a float64) float64 { return 1 / math.Sqrt(a) }))
	register(ir.OpVZip, vecShuffleHandler(zipLow))
	register(ir.OpVZip2, vecShuffleHandler(zipHigh))
	register(ir.OpVUnzip, vecShuffleHandler(unzipEven))
	register(ir.OpVTrn, vecShuffleHandler(trnLow))
	register(ir.OpVTrn2, vecShuffleHandler(trnHigh))
	register(ir.OpVCmpEqZ, vecCmpZeroHandler(func(a int64) bool { return a == 0 }))
	register(ir.OpVCmpGtZ, vecCmpZeroHandler(func(a int64) bool { return a > 0 }))
	register(ir.OpVUShl, vecShiftHandler(shiftLeft))
	register(ir.OpVUShr, vecShiftHandler(shiftRightLogical))
	register(ir.OpVSShr, vecShiftHandler(shiftRightArith))
	register(ir.OpVSli, vecShiftInsertHandler(true))
	register(ir.OpVSri, vecShiftInsertHandler(false))
	register(ir.OpVUShrNI, vecNarrowShiftHandler(0))
	register(ir.OpVUShrNI2, vecNarrowShiftHandler(1))
	register(ir.OpVSXtl, vecExtendHandler(true, 0))
	register(ir.OpVSXtl2, vecExtendHandler(true, 1))
	register(ir.OpVUXtl, vecExtendHandler(false, 0))
	register(ir.OpVUXtl2, vecExtendHandler(false, 1))
	register(ir.OpVSQXtn, vecNarrowSatHandler(false, 0))
	register(ir.OpVSQXtn2, vecNarrowSatHandler(false, 1))
	register(ir.OpVSQXtun, vecNarrowSatHandler(true, 0))
	register(ir.OpVSQXtun2, vecNarrowSatHandler(true, 1))
	register(ir.OpVTbl1, opVTbl1)
	register(ir.OpVRev32, vecRevHandler(4))
	register(ir.OpVRev64, vecRevHandler(8))
	register(ir.OpVBitcast, opVBitcast)
	register(ir.OpVExtr, opVExtr)
	register(ir.OpVInsScalarElement, opVInsScalarElement)
	register(ir.OpVFCAdd, opVFCAdd)
	register(ir.OpVectorSToF, vecConvertHandler(vectorSToF))
	register(ir.OpVectorFToS, vecConvertHandler(vectorFToS))
	register(ir.OpVectorFToZS, vecConvertHandler(vectorFToZS))
	register(ir.OpVectorFToF, vecConvertHandler(vectorFToF))
	register(ir.OpVectorFToI, vecConvertHandler(vectorFToI))
}

// saturate clamps v (sign-extended from an intermediate width) to the
// representable range of an elemSize-wide lane, signed or unsigned.
func saturate(v int64, elemSize ir.Size, signed bool) uint64 {
	bits := 8 * uint(elemSize)
	if signed {
		max := int64(1)<<(bits-1) - 1
		min := -(int64(1) << (bits - 1))
		if v > max {
			v = max
		} else if v < min {
			v = min
		}
		return uint64(v) & (uint64(1)<<bits - 1)
	}
	max := int64(1)<<bits - 1
	if v > max {
		v = max
	} else if v < 0 {
		v = 0
	}
	return uint64(v)
}

func vecSatHandler(add, unsigned bool) func(*Interpreter, *ir.Node) error {
	return func(in *Interpreter, n *ir.Node) error {
		lanes := numLanes(n)
		for i := 0; i < lanes; i++ {
			a := lane(in, n.Args[0], i, n.ElemSize)
			b := lane(in, n.Args[1], i, n.ElemSize)
			var av, bv int64
			if unsigned {
				av, bv = int64(a), int64(b)
			} else {
				av, bv = signExtendElem(a, n.ElemSize), signExtendElem(b, n.ElemSize)
			}
			var r int64
			if add {
				r = av + bv
			} else {
				r = av - bv
			}
			setLane(in, n.Dest, i, n.ElemSize, saturate(r, n.ElemSize, !unsigned))
		}
		return nil
	}
}

// opVAddP sums adjacent lane pairs from args0 then args1, concatenating
// the halves into Dest the way ARM's pairwise-add shuffles do.
func opVAddP(in *Interpreter, n *ir.Node) error {
	lanes := numLanes(n)
	half := lanes / 2
	for i := 0; i < half; i++ {
		a := lane(in, n.Args[0], 2*i, n.ElemSize) + lane(in, n.Args[0], 2*i+1, n.ElemSize)
		setLane(in, n.Dest, i, n.ElemSize, truncateLane(a, n.ElemSize))
	}
	for i := 0; i < half; i++ {
		b := lane(in, n.Args[1], 2*i, n.ElemSize) + lane(in, n.Args[1], 2*i+1, n.ElemSize)
		setLane(in, n.Dest, half+i, n.ElemSize, truncateLane(b, n.ElemSize))
	}
	return nil
}

// opVAddV reduces every lane of args0 to a single scalar in Dest's lane 0.
func opVAddV(in *Interpreter, n *ir.Node) error {
	lanes := numLanes(n)
	var sum uint64
	for i := 0; i < lanes; i++ {
		sum += lane(in, n.Args[0], i, n.ElemSize)
	}
	setLane(in, n.Dest, 0, n.ElemSize, truncateLane(sum, n.ElemSize))
	return nil
}

// vecWidenMulHandler multiplies half-width source lanes (the low half when
// half==0, the high half when half==1) into a full result at double
// ElemSize, the access pattern ARM's long-multiply family uses to widen
// without overflow.
func vecWidenMulHandler(half int) func(*Interpreter, *ir.Node) error {
	return func(in *Interpreter, n *ir.Node) error {
		srcElem := n.ElemSize
		dstElem := srcElem * 2
		lanes := int(n.Size) / int(dstElem)
		offset := half * lanes
		for i := 0; i < lanes; i++ {
			a := lane(in, n.Args[0], offset+i, srcElem)
			b := lane(in, n.Args[1], offset+i, srcElem)
			setLane(in, n.Dest, i, dstElem, a*b)
		}
		return nil
	}
}

// opVUAbdL is the widening unsigned absolute-difference used to feed SAD
// (sum-of-absolute-differences) style reductions.
func opVUAbdL(in *Interpreter, n *ir.Node) error {
	srcElem := n.ElemSize
	dstElem := srcElem * 2
	lanes := int(n.Size) / int(dstElem)
	for i := 0; i < lanes; i++ {
		a := lane(in, n.Args[0], i, srcElem)
		b := lane(in, n.Args[1], i, srcElem)
		var d uint64
		if a > b {
			d = a - b
		} else {
			d = b - a
		}
		setLane(in, n.Dest, i, dstElem, d)
	}
	return nil
}

func vecFloatUnaryHandler(fn func(float64) float64) func(*Interpreter, *ir.Node) error {
	return func(in *Interpreter, n *ir.Node) error {
		elemSize := n.ElemSize
		if elemSize == 0 {
			elemSize = ir.Size8
		}
		lanes := int(n.Size) / int(elemSize)
		for i := 0; i < lanes; i++ {
			setLaneFloat(in, n.Dest, i, elemSize, fn(laneFloat(in, n.Args[0], i, elemSize)))
		}
		return nil
	}
}

type shuffleFn func(lanes, i int) (srcArg, srcIdx int)

func zipLow(lanes, i int) (int, int)   { return i % 2, i / 2 }
func zipHigh(lanes, i int) (int, int)  { h := lanes / 2; return i % 2, h + i/2 }
func unzipEven(lanes, i int) (int, int) {
	if i < lanes/2 {
		return 0, 2 * i
	}
	return 1, 2*(i-lanes/2)
}
func trnLow(lanes, i int) (int, int)  { return i % 2, (i/2)*2 + i%2 }
func trnHigh(lanes, i int) (int, int) { h := lanes / 2; return i % 2, h + (i/2)*2 + i%2 }

func vecShuffleHandler(fn shuffleFn) func(*Interpreter, *ir.Node) error {
	return func(in *Interpreter, n *ir.Node) error {
		lanes := numLanes(n)
		out := make([]uint64, lanes)
		for i := 0; i < lanes; i++ {
			argIdx, srcIdx := fn(lanes, i)
			out[i] = lane(in, n.Args[argIdx], srcIdx, n.ElemSize)
		}
		for i, v := range out {
			setLane(in, n.Dest, i, n.ElemSize, v)
		}
		return nil
	}
}

func vecCmpZeroHandler(fn func(int64) bool) func(*Interpreter, *ir.Node) error {
	return func(in *Interpreter, n *ir.Node) error {
		lanes := numLanes(n)
		for i := 0; i < lanes; i++ {
			a := signExtendElem(lane(in, n.Args[0], i, n.ElemSize), n.ElemSize)
			setLane(in, n.Dest, i, n.ElemSize, lanesMask(fn(a), n.ElemSize))
		}
		return nil
	}
}

func shiftLeft(a uint64, amt int, elemSize ir.Size) uint64 {
	if amt <= 0 {
		return a
	}
	return truncateLane(a<<uint(amt), elemSize)
}

func shiftRightLogical(a uint64, amt int, elemSize ir.Size) uint64 {
	if amt <= 0 {
		return a
	}
	return truncateLane(a, elemSize) >> uint(amt)
}

func shiftRightArith(a uint64, amt int, elemSize ir.Size) uint64 {
	s := signExtendElem(a, elemSize)
	if amt <= 0 {
		return truncateLane(uint64(s), elemSize)
	}
	return truncateLane(uint64(s>>uint(amt)), elemSize)
}

// vecShiftHandler applies a uniform shift amount, read as a signed Aux
// immediate, to every lane of args0; a zero or negative amount leaves
// each lane unchanged.
func vecShiftHandler(fn func(a uint64, amt int, elemSize ir.Size) uint64) func(*Interpreter, *ir.Node) error {
	return func(in *Interpreter, n *ir.Node) error {
		amt := int(int8(n.Aux))
		lanes := numLanes(n)
		for i := 0; i < lanes; i++ {
			a := lane(in, n.Args[0], i, n.ElemSize)
			setLane(in, n.Dest, i, n.ElemSize, fn(a, amt, n.ElemSize))
		}
		return nil
	}
}

// vecShiftInsertHandler implements SLI/SRI: shift args0 by the Aux amount
// and merge it into Dest's own prior value over the vacated bits, the same
// read-modify-write shape opVBsl uses.
func vecShiftInsertHandler(left bool) func(*Interpreter, *ir.Node) error {
	return func(in *Interpreter, n *ir.Node) error {
		amt := uint(n.Aux)
		bits := 8 * uint(n.ElemSize)
		if amt >= bits {
			return nil
		}
		lanes := numLanes(n)
		for i := 0; i < lanes; i++ {
			a := lane(in, n.Args[0], i, n.ElemSize)
			prev := lane(in, n.Dest, i, n.ElemSize)
			var shifted, keepMask uint64
			if left {
				shifted = truncateLane(a<<amt, n.ElemSize)
				keepMask = (uint64(1)<<amt - 1)
			} else {
				shifted = a >> amt
				keepMask = truncateLane(^uint64(0), n.ElemSize) &^ (truncateLane(^uint64(0), n.ElemSize) >> amt)
			}
			setLane(in, n.Dest, i, n.ElemSize, shifted|(prev&keepMask))
		}
		return nil
	}
}

// vecNarrowShiftHandler shifts right and narrows full-width source lanes
// into half-width destination lanes, writing the low or high half per
// narrowHalf (0 or 1), mirroring ARM's SHRN/SHRN2 pair.
func vecNarrowShiftHandler(narrowHalf int) func(*Interpreter, *ir.Node) error {
	return func(in *Interpreter, n *ir.Node) error {
		amt := uint(n.Aux)
		dstElem := n.ElemSize
		srcElem := dstElem * 2
		lanes := int(n.Size) / int(dstElem) / 2
		offset := narrowHalf * lanes
		for i := 0; i < lanes; i++ {
			a := lane(in, n.Args[0], i, srcElem)
			setLane(in, n.Dest, offset+i, dstElem, truncateLane(a>>amt, dstElem))
		}
		return nil
	}
}

// vecExtendHandler widens half-width source lanes (low half when half==0,
// high half when half==1) into full-width destination lanes.
func vecExtendHandler(signed bool, half int) func(*Interpreter, *ir.Node) error {
	return func(in *Interpreter, n *ir.Node) error {
		srcElem := n.ElemSize
		dstElem := srcElem * 2
		lanes := int(n.Size) / int(dstElem)
		offset := half * lanes
		for i := 0; i < lanes; i++ {
			a := lane(in, n.Args[0], offset+i, srcElem)
			if signed {
				setLane(in, n.Dest, i, dstElem, uint64(signExtendElem(a, srcElem)))
			} else {
				setLane(in, n.Dest, i, dstElem, a)
			}
		}
		return nil
	}
}

// vecNarrowSatHandler narrows full-width source lanes into half-width,
// saturating destination lanes, writing the low or high half per
// narrowHalf, the SQXTN/SQXTN2/SQXTUN/SQXTUN2 family's shape.
func vecNarrowSatHandler(toUnsigned bool, narrowHalf int) func(*Interpreter, *ir.Node) error {
	return func(in *Interpreter, n *ir.Node) error {
		dstElem := n.ElemSize
		srcElem := dstElem * 2
		lanes := int(n.Size) / int(dstElem) / 2
		offset := narrowHalf * lanes
		for i := 0; i < lanes; i++ {
			a := signExtendElem(lane(in, n.Args[0], i, srcElem), srcElem)
			setLane(in, n.Dest, offset+i, dstElem, saturate(a, dstElem, !toUnsigned))
		}
		return nil
	}
}

// opVTbl1 performs a byte-granularity table lookup: each lane of args1
// selects a byte from args0 by index, with out-of-range indices (>=
// table length) producing zero, matching ARM's TBL semantics for a
// single-register table.
func opVTbl1(in *Interpreter, n *ir.Node) error {
	tableLen := int(n.Size)
	lanes := int(n.Size)
	for i := 0; i < lanes; i++ {
		idx := int(lane(in, n.Args[1], i, ir.Size1))
		var v uint64
		if idx < tableLen {
			v = lane(in, n.Args[0], idx, ir.Size1)
		}
		setLane(in, n.Dest, i, ir.Size1, v)
	}
	return nil
}

func vecRevHandler(groupBytes int) func(*Interpreter, *ir.Node) error {
	return func(in *Interpreter, n *ir.Node) error {
		elemBytes := int(n.ElemSize)
		perGroup := groupBytes / elemBytes
		lanes := numLanes(n)
		for i := 0; i < lanes; i++ {
			group := i / perGroup
			within := i % perGroup
			srcIdx := group*perGroup + (perGroup - 1 - within)
			setLane(in, n.Dest, i, n.ElemSize, lane(in, n.Args[0], srcIdx, n.ElemSize))
		}
		return nil
	}
}

// opVBitcast is a no-op reinterpretation: the bytes move unchanged, only
// the ElemSize used to address them differs between source and dest.
func opVBitcast(in *Interpreter, n *ir.Node) error {
	size := int(n.Size)
	for i := 0; i < size; i++ {
		v := lane(in, n.Args[0], i, ir.Size1)
		setLane(in, n.Dest, i, ir.Size1, v)
	}
	return nil
}

// opVExtr concatenates args0:args1 and extracts a byte-aligned window
// starting at the Aux byte offset, x86's PALIGNR/VEXT shape.
func opVExtr(in *Interpreter, n *ir.Node) error {
	off := int(n.Aux)
	size := int(n.Size)
	for i := 0; i < size; i++ {
		srcIdx := off + i
		var v uint64
		if srcIdx < size {
			v = lane(in, n.Args[0], srcIdx, ir.Size1)
		} else {
			v = lane(in, n.Args[1], srcIdx-size, ir.Size1)
		}
		setLane(in, n.Dest, i, ir.Size1, v)
	}
	return nil
}

// opVInsScalarElement copies one lane from args0 at the source index
// packed in the high bits of Aux into Dest at the destination index in
// the low bits, leaving Dest's other lanes at their prior value.
func opVInsScalarElement(in *Interpreter, n *ir.Node) error {
	dstIdx := int(n.Aux & 0xff)
	srcIdx := int((n.Aux >> 8) & 0xff)
	v := lane(in, n.Args[0], srcIdx, n.ElemSize)
	setLane(in, n.Dest, dstIdx, n.ElemSize, v)
	return nil
}

// opVFCAdd is x86 FCADD: a complex-number add rotated 90 degrees, pairing
// each (real, imag) lane as (a.re - b.im, a.im + b.re) for a 90 degree
// rotation (the only rotation x86 exposes as a single instruction).
func opVFCAdd(in *Interpreter, n *ir.Node) error {
	elemSize := n.ElemSize
	if elemSize == 0 {
		elemSize = ir.Size8
	}
	pairs := int(n.Size) / int(elemSize) / 2
	for i := 0; i < pairs; i++ {
		aRe := laneFloat(in, n.Args[0], 2*i, elemSize)
		aIm := laneFloat(in, n.Args[0], 2*i+1, elemSize)
		bRe := laneFloat(in, n.Args[1], 2*i, elemSize)
		bIm := laneFloat(in, n.Args[1], 2*i+1, elemSize)
		setLaneFloat(in, n.Dest, 2*i, elemSize, aRe-bIm)
		setLaneFloat(in, n.Dest, 2*i+1, elemSize, aIm+bRe)
	}
	return nil
}

type vecConvertOp func(in *Interpreter, n *ir.Node, i int)

func vecConvertHandler(fn vecConvertOp) func(*Interpreter, *ir.Node) error {
	return func(in *Interpreter, n *ir.Node) error {
		elemSize := n.ElemSize
		if elemSize == 0 {
			elemSize = ir.Size8
		}
		lanes := int(n.Size) / int(elemSize)
		for i := 0; i < lanes; i++ {
			fn(in, n, i)
		}
		return nil
	}
}

func vectorSToF(in *Interpreter, n *ir.Node, i int) {
	a := signExtendElem(lane(in, n.Args[0], i, n.ElemSize), n.ElemSize)
	setLaneFloat(in, n.Dest, i, n.ElemSize, float64(a))
}

func vectorFToS(in *Interpreter, n *ir.Node, i int) {
	f := laneFloat(in, n.Args[0], i, n.ElemSize)
	v := int64(math.RoundToEven(f))
	setLane(in, n.Dest, i, n.ElemSize, truncateLane(uint64(v), n.ElemSize))
}

func vectorFToZS(in *Interpreter, n *ir.Node, i int) {
	f := laneFloat(in, n.Args[0], i, n.ElemSize)
	v := int64(math.Trunc(f))
	setLane(in, n.Dest, i, n.ElemSize, truncateLane(uint64(v), n.ElemSize))
}

// vectorFToF narrows or widens float lanes between Size4 (float32) and
// Size8 (float64); n.ElemSize is the source width, n.Aux!=0 selects
// narrowing to float32 rather than widening to float64.
func vectorFToF(in *Interpreter, n *ir.Node, i int) {
	f := laneFloat(in, n.Args[0], i, n.ElemSize)
	if n.Aux != 0 {
		setLaneFloat(in, n.Dest, i, ir.Size4, float64(float32(f)))
	} else {
		setLaneFloat(in, n.Dest, i, ir.Size8, f)
	}
}

// vectorFToI is CVTTPS2DQ/CVTTPD2DQ's truncating conversion, the
// toward-zero counterpart to vectorFToS's round-to-nearest.
func vectorFToI(in *Interpreter, n *ir.Node, i int) {
	vectorFToZS(in, n, i)
}
