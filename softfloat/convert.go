package softfloat

import (
	"math"

	"github.com/rcornwell/x86ir/ir"
)

func sqrtF64(f float64) float64 { return math.Sqrt(f) }

// F80FromF64Seed is FromF64 under a name that documents its only legitimate
// use: seeding a Newton-Raphson refinement, never as a final rounded result.
func F80FromF64Seed(f float64) F80 { return FromF64(f) }

// FromF64 converts a float64 to the equivalent F80 exactly; widening never
// loses precision so no rounding mode is needed.
func FromF64(f float64) F80 {
	bits64 := math.Float64bits(f)
	sign := bits64>>63 != 0
	exp := int32(bits64>>52) & 0x7ff
	frac := bits64 & (1<<52 - 1)

	switch {
	case exp == 0x7ff && frac == 0:
		return Infinity(sign)
	case exp == 0x7ff:
		nan := QNaN()
		nan.Sign = sign
		return nan
	case exp == 0 && frac == 0:
		return Zero(sign)
	case exp == 0:
		// denormal float64: normalize into F80's explicit-integer-bit form.
		mant, newExp := normalize(frac<<(63-52), int32(1-1023+bias))
		return F80{Sign: sign, Exp: uint16(newExp), Mant: mant}
	default:
		mant := (uint64(1) << 63) | (frac << (63 - 52))
		return F80{Sign: sign, Exp: uint16(exp - 1023 + bias), Mant: mant}
	}
}

// ToF64 converts v to the nearest float64, rounding to nearest-even.
func ToF64(v F80) float64 {
	switch v.Classify() {
	case ClassZero:
		return math.Float64frombits(boolBit(v.Sign) << 63)
	case ClassInfinity:
		return math.Float64frombits(boolBit(v.Sign)<<63 | 0x7ff<<52)
	case ClassQNaN, ClassSNaN:
		return math.NaN()
	}
	exp := int32(v.Exp) - bias + 1023
	kept := v.Mant >> 11       // top 53 bits: implicit 1 + 52 fraction bits
	discarded := v.Mant & 0x7ff // bottom 11 bits, used only to pick rounding
	kept, _ = roundMantissa(kept, discarded<<53, v.Sign, ir.RoundNearestEven)
	if kept>>53 != 0 {
		kept >>= 1
		exp++
	}
	frac := kept &^ (1 << 52)
	if exp <= 0 {
		return math.Float64frombits(boolBit(v.Sign) << 63)
	}
	if exp >= 0x7ff {
		return math.Float64frombits(boolBit(v.Sign)<<63 | 0x7ff<<52)
	}
	return math.Float64frombits(boolBit(v.Sign)<<63 | uint64(exp)<<52 | frac)
}

func boolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// FromInt converts a signed integer of the given bit width to F80, exactly.
func FromInt(v int64, width ir.Size) F80 {
	if v == 0 {
		return Zero(false)
	}
	sign := v < 0
	u := uint64(v)
	if sign {
		u = uint64(-v)
	}
	mant, exp := normalize(u, bias+63)
	return F80{Sign: sign, Exp: uint16(exp), Mant: mant}
}

// ToInt converts v to a signed integer of the given width, per round. The
// second return is false when v is out of range or NaN, in which case the
// caller (the interpreter's F80CVTTOINT handler) substitutes the
// size-specific x87 "integer indefinite" pattern.
func ToInt(v F80, width ir.Size, round ir.RoundMode) (int64, bool) {
	if v.IsNaN() || v.IsInf() {
		return 0, false
	}
	if v.IsZero() {
		return 0, true
	}
	shift := int32(v.Exp) - bias - 63
	var mant uint64
	var lo uint64
	switch {
	case shift >= 0:
		if shift > 63 {
			return 0, false
		}
		mant = v.Mant << uint(shift)
		if mant>>uint(shift) != v.Mant {
			return 0, false
		}
	default:
		s := -shift
		if s >= 64 {
			mant, lo = 0, v.Mant
		} else {
			mant, lo = v.Mant>>uint(s), v.Mant<<uint(64-s)
		}
		rounded, carry := roundMantissa(mant, lo, v.Sign, round)
		mant = rounded
		if carry {
			return 0, false
		}
	}
	limit := uint64(1) << (8*uint(width) - 1)
	if v.Sign {
		if mant > limit {
			return 0, false
		}
		return -int64(mant), true
	}
	if mant >= limit {
		return 0, false
	}
	return int64(mant), true
}

// ToIntTruncating is ToInt with RoundZero forced, the semantics x86's
// plain CVTTxx2xx family (as opposed to CVTxx2xx) requires regardless of
// the active rounding-control field.
func ToIntTruncating(v F80, width ir.Size) (int64, bool) {
	return ToInt(v, width, ir.RoundZero)
}

// IndefiniteInt returns the x87 "integer indefinite" bit pattern for an
// out-of-range or invalid F80->int conversion at the given width.
func IndefiniteInt(width ir.Size) int64 {
	return int64(uint64(1) << (8*uint(width) - 1))
}
