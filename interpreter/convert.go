package interpreter

import (
	"math"

	"github.com/rcornwell/x86ir/ir"
	"github.com/rcornwell/x86ir/softfloat"
)

func init() {
	register(ir.OpFloatFromGPR_S, opFloatFromGPRS)
	register(ir.OpFloatFToF, opFloatFToF)
	register(ir.OpFloatToGPR_S, opFloatToGPRS)
	register(ir.OpFloatToGPR_ZS, opFloatToGPRZS)
}

// vecLaneF64 returns the float64 stored at the node's vector source lane 0,
// the subset of the SSE scalar conversions (CVTSI2SD et al.) this
// interpreter carries its Vec registers through: low 8 bytes, IEEE-754
// double, the common case for compiler-generated code.
func vecLaneF64(in *Interpreter, ref ir.OpRef) float64 {
	buf := vecBacking(in, ref)
	if buf == nil {
		return softfloat.ToF64(softfloat.FromInt(int64(ref.Const), ir.Size8))
	}
	var raw uint64
	for i := 0; i < 8; i++ {
		raw |= uint64(buf[i]) << (8 * i)
	}
	return math.Float64frombits(raw)
}

func setVecLaneF64(in *Interpreter, ref ir.OpRef, f float64) {
	buf := vecBacking(in, ref)
	if buf == nil {
		return
	}
	raw := math.Float64bits(f)
	for i := 0; i < 8; i++ {
		buf[i] = byte(raw >> (8 * i))
	}
}

// opFloatFromGPR_S converts a signed GPR integer to a float in a vector
// register, CVTSI2SD/CVTSI2SS.
func opFloatFromGPRS(in *Interpreter, n *ir.Node) error {
	v := signExtend(getOperand(in, n.Args[0]), n.Size)
	setVecLaneF64(in, n.Dest, float64(v))
	return nil
}

// opFloatFToF copies the float64 in lane 0 of Args[0] to Dest's lane 0
// unchanged. It does not convert between float32 and float64: a float32
// lane (CVTSS2SD's source, CVTSD2SS's result) is not read or produced.
func opFloatFToF(in *Interpreter, n *ir.Node) error {
	f := vecLaneF64(in, n.Args[0])
	setVecLaneF64(in, n.Dest, f)
	return nil
}

// opFloatToGPR_S converts a float to a signed integer with the current
// rounding mode, CVTSD2SI.
func opFloatToGPRS(in *Interpreter, n *ir.Node) error {
	f := vecLaneF64(in, n.Args[0])
	v, ok := softfloat.ToInt(softfloat.FromF64(f), n.Size, n.Round)
	if !ok {
		v = softfloat.IndefiniteInt(n.Size)
	}
	setGPR(in, n.Dest, uint64(v), n.Size)
	return nil
}

// opFloatToGPR_ZS is CVTTSD2SI: truncating regardless of the active
// rounding mode.
func opFloatToGPRZS(in *Interpreter, n *ir.Node) error {
	f := vecLaneF64(in, n.Args[0])
	v, ok := softfloat.ToIntTruncating(softfloat.FromF64(f), n.Size)
	if !ok {
		v = softfloat.IndefiniteInt(n.Size)
	}
	setGPR(in, n.Dest, uint64(v), n.Size)
	return nil
}
