package softfloat

import (
	"math"

	"github.com/rcornwell/x86ir/ir"
)

// The x87 transcendental opcodes (FPATAN, FYL2X, F2XM1, FSIN, FCOS, FSINCOS,
// FPTAN) have no cheap closed-form software path at 80-bit precision: FEXCore
// itself round-trips these through the host's long-double or double
// transcendental library rather than reimplementing CORDIC tables, and this
// package follows the same shortcut through Go's math package, accepting
// the float64 rounding error as the cost of a readable implementation.

// Atan2 returns atan(y/x) in radians, with the quadrant taken from the
// signs of both operands, i.e. FPATAN's y,x order.
func Atan2(y, x F80) F80 {
	return FromF64(math.Atan2(ToF64(y), ToF64(x)))
}

// Fyl2x returns y*log2(x), FYL2X's operation.
func Fyl2x(y, x F80) F80 {
	return FromF64(ToF64(y) * math.Log2(ToF64(x)))
}

// Fprem returns the partial remainder a - q*b with the quotient q
// truncated toward zero, matching FPREM's "not necessarily exact"
// reduction which may need several steps for large exponent differences.
// The caller is responsible for looping until the C2 condition-code
// reduction-incomplete flag this returns clears.
func Fprem(a, b F80) (F80, bool) {
	fa, fb := ToF64(a), ToF64(b)
	if fb == 0 || math.IsInf(fa, 0) || math.IsNaN(fa) || math.IsNaN(fb) {
		return QNaN(), false
	}
	q := math.Trunc(fa / fb)
	const maxExpReduction = 1 << 32
	if math.Abs(q) > maxExpReduction {
		// Partial reduction: x87 pulls the exponent down in steps of at
		// most 32 bits per FPREM iteration rather than dividing in one go.
		q = math.Trunc(q / maxExpReduction) * maxExpReduction
		r := fa - q*fb
		return FromF64(r), true
	}
	return FromF64(fa - q*fb), false
}

// Fprem1 is Fprem with round-to-nearest-even quotient rounding (IEEE
// remainder), FPREM1's operation -- distinct from Fprem's truncation, per
// the explicit FPREM vs FPREM1 split x87 draws.
func Fprem1(a, b F80) (F80, bool) {
	fa, fb := ToF64(a), ToF64(b)
	if fb == 0 || math.IsInf(fa, 0) || math.IsNaN(fa) || math.IsNaN(fb) {
		return QNaN(), false
	}
	q := math.RoundToEven(fa / fb)
	const maxExpReduction = 1 << 32
	if math.Abs(q) > maxExpReduction {
		q = math.RoundToEven(q/maxExpReduction) * maxExpReduction
		r := fa - q*fb
		return FromF64(r), true
	}
	return FromF64(fa - q*fb), false
}

// Scale returns a * 2^trunc(b), FSCALE's operation.
func Scale(a, b F80) F80 {
	n := math.Trunc(ToF64(b))
	return FromF64(math.Ldexp(ToF64(a), int(n)))
}

// F2xm1 returns 2^x - 1, F2XM1's operation. Valid only for |x| <= 1.
func F2xm1(a F80) F80 {
	return FromF64(math.Exp2(ToF64(a)) - 1)
}

func Sin(a F80) F80 { return FromF64(math.Sin(ToF64(a))) }
func Cos(a F80) F80 { return FromF64(math.Cos(ToF64(a))) }
func Tan(a F80) F80 { return FromF64(math.Tan(ToF64(a))) }

// SinCos returns (sin a, cos a) together, FSINCOS's operation.
func SinCos(a F80) (F80, F80) {
	s, c := math.Sincos(ToF64(a))
	return FromF64(s), FromF64(c)
}

// Extract splits v into its unbiased exponent and its significand rescaled
// to [1,2), the two halves FXTRACT pushes onto the stack.
func Extract(v F80) (exponent, significand F80) {
	if v.IsZero() || v.IsNaN() || v.IsInf() {
		return v, v
	}
	exp := int32(v.Exp) - bias
	sig := v
	sig.Exp = bias
	return FromInt(int64(exp), ir.Size8), sig
}
