package softfloat

import "github.com/rcornwell/x86ir/ir"

// roundMantissa rounds a 128-bit significand (hi holds the 64 retained
// bits, lo holds the discarded low-order bits used only to pick a rounding
// direction) down to 64 bits per mode. Returns the rounded mantissa and
// whether rounding overflowed into bit 64 (caller must renormalize by one).
func roundMantissa(hi, lo uint64, sign bool, mode ir.RoundMode) (uint64, bool) {
	if lo == 0 {
		return hi, false
	}
	guard := lo>>63 != 0
	stickyRest := lo<<1 != 0
	roundUp := false
	switch mode {
	case ir.RoundNearestEven:
		roundUp = guard && (stickyRest || hi&1 != 0)
	case ir.RoundZero:
		roundUp = false
	case ir.RoundUp:
		roundUp = !sign
	case ir.RoundDown:
		roundUp = sign
	case ir.RoundHost:
		roundUp = guard && (stickyRest || hi&1 != 0)
	}
	if !roundUp {
		return hi, false
	}
	rounded := hi + 1
	return rounded, rounded == 0
}

// pack builds a normalized F80 from an unnormalized exponent and 64-bit
// mantissa (bit 63 is the explicit integer bit once normalized), clamping
// to infinity on overflow and to zero on total underflow. A genuine
// gradual-underflow denormal range is not modeled: a result below the
// normal range packs to a signed zero, and neither clamp sets an
// exception flag.
func pack(sign bool, exp int32, mant uint64, round ir.RoundMode) F80 {
	if mant == 0 {
		return Zero(sign)
	}
	mant, exp = normalize(mant, exp)
	if exp >= 0x7fff {
		return Infinity(sign)
	}
	if exp <= 0 {
		return Zero(sign)
	}
	return F80{Sign: sign, Exp: uint16(exp), Mant: mant}
}
