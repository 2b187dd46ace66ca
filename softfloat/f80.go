/*
   Soft-float: 80-bit extended precision representation.

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   ROBERT M SUPNIK BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/

// Package softfloat implements x87 80-bit extended precision arithmetic in
// software, the way the host's vector unit cannot: an explicit integer bit,
// a 64-bit mantissa and a 15-bit exponent, all carried by value so callers
// can run several independent rounding/precision contexts without any
// global state.
package softfloat

import "math/bits"

// F80 is an 80-bit extended-precision value: 1 sign bit, 15-bit biased
// exponent (bias 16383) and a 64-bit significand with an explicit integer
// bit, matching the x87 register format byte-for-byte.
type F80 struct {
	Sign bool
	Exp  uint16 // biased; 0 = zero/denormal, 0x7fff = inf/nan
	Mant uint64 // bit 63 is the explicit integer bit
}

const bias = 16383

// Class identifies the kind of value Classify reports.
type Class uint8

const (
	ClassZero Class = iota
	ClassNormal
	ClassDenormal
	ClassInfinity
	ClassQNaN
	ClassSNaN
	ClassUnsupported // exponent all-ones/zero with integer bit clear: "pseudo" encodings
)

// Classify reports the IEEE/x87 class of v.
func (v F80) Classify() Class {
	switch {
	case v.Exp == 0 && v.Mant == 0:
		return ClassZero
	case v.Exp == 0:
		return ClassDenormal
	case v.Exp == 0x7fff:
		if v.Mant == (1 << 63) {
			return ClassInfinity
		}
		if v.Mant&(1<<63) == 0 {
			return ClassUnsupported
		}
		if v.Mant&(1<<62) != 0 {
			return ClassQNaN
		}
		return ClassSNaN
	case v.Mant&(1<<63) == 0:
		return ClassUnsupported
	default:
		return ClassNormal
	}
}

// Zero returns a signed zero.
func Zero(sign bool) F80 { return F80{Sign: sign} }

// Infinity returns a signed infinity.
func Infinity(sign bool) F80 { return F80{Sign: sign, Exp: 0x7fff, Mant: 1 << 63} }

// QNaN returns the default quiet-NaN x87 raises on invalid operations.
func QNaN() F80 { return F80{Sign: true, Exp: 0x7fff, Mant: 0xc000000000000000} }

// IsNaN reports whether v is any kind of NaN.
func (v F80) IsNaN() bool {
	c := v.Classify()
	return c == ClassQNaN || c == ClassSNaN
}

// IsInf reports whether v is an infinity of either sign.
func (v F80) IsInf() bool { return v.Classify() == ClassInfinity }

// IsZero reports whether v is a signed zero.
func (v F80) IsZero() bool { return v.Classify() == ClassZero }

// normalize shifts mant left until its top bit is set, decrementing exp by
// the same count, mirroring the guard-digit alignment loops the hex-float
// add/multiply handlers use, generalized from base-16 to base-2.
func normalize(mant uint64, exp int32) (uint64, int32) {
	if mant == 0 {
		return 0, 0
	}
	shift := bits.LeadingZeros64(mant)
	return mant << uint(shift), exp - int32(shift)
}
