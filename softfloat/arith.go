package softfloat

import (
	"math/bits"

	"github.com/rcornwell/x86ir/ir"
)

// align shifts the smaller-exponent operand right so both significands
// share expHi, folding every bit shifted out into lo as a sticky bit. This
// is the binary-radix generalization of the guard-digit exponent-alignment
// loop the hex-float adder runs before summing digits.
func align(mant uint64, shift int32) (hi, lo uint64) {
	switch {
	case shift <= 0:
		return mant, 0
	case shift >= 64:
		var sticky uint64
		if mant != 0 {
			sticky = 1
		}
		return 0, sticky
	default:
		hi = mant >> uint(shift)
		lo = mant << uint(64-shift)
		return hi, lo
	}
}

func expOf(v F80) int32 { return int32(v.Exp) }

// Add returns a+b rounded per round.
func Add(a, b F80, round ir.RoundMode) F80 {
	if a.IsNaN() {
		return a
	}
	if b.IsNaN() {
		return b
	}
	if a.IsInf() && b.IsInf() {
		if a.Sign != b.Sign {
			return QNaN()
		}
		return a
	}
	if a.IsInf() {
		return a
	}
	if b.IsInf() {
		return b
	}
	if a.IsZero() && b.IsZero() {
		if a.Sign == b.Sign {
			return a
		}
		return Zero(round == ir.RoundDown)
	}
	if a.IsZero() {
		return b
	}
	if b.IsZero() {
		return a
	}

	if a.Sign == b.Sign {
		return addSameSign(a, b, round)
	}
	return addOppositeSign(a, b, round)
}

func addSameSign(a, b F80, round ir.RoundMode) F80 {
	ea, eb := expOf(a), expOf(b)
	exp := ea
	var hiA, loA, hiB, loB uint64
	if ea >= eb {
		hiA, loA = a.Mant, 0
		hiB, loB = align(b.Mant, ea-eb)
	} else {
		exp = eb
		hiB, loB = b.Mant, 0
		hiA, loA = align(a.Mant, eb-ea)
	}
	lo, carryLo := bits.Add64(loA, loB, 0)
	hi, carryHi := bits.Add64(hiA, hiB, carryLo)
	if carryHi != 0 {
		lo = lo>>1 | (hi&1)<<63
		hi = hi>>1 | 1<<63
		exp++
	}
	mant, overflow := roundMantissa(hi, lo, a.Sign, round)
	if overflow {
		mant = mant>>1 | 1<<63
		exp++
	}
	return pack(a.Sign, exp, mant, round)
}

func addOppositeSign(a, b F80, round ir.RoundMode) F80 {
	ea, eb := expOf(a), expOf(b)
	var hiA, loA, hiB, loB uint64
	var exp int32
	var resultSign bool
	if ea > eb || (ea == eb && a.Mant >= b.Mant) {
		exp = ea
		resultSign = a.Sign
		hiA, loA = a.Mant, 0
		hiB, loB = align(b.Mant, ea-eb)
	} else {
		exp = eb
		resultSign = b.Sign
		hiA, loA = b.Mant, 0
		hiB, loB = align(a.Mant, eb-ea)
	}
	lo, borrow := bits.Sub64(loA, loB, 0)
	hi, _ := bits.Sub64(hiA, hiB, borrow)
	if hi == 0 && lo == 0 {
		return Zero(round == ir.RoundDown)
	}
	mant, exp2 := normalize(hi, exp)
	if hi != 0 {
		// lo bits still carry sub-ULP precision lost during alignment; fold
		// them in at the same shift normalize just applied.
		shift := bits.LeadingZeros64(hi)
		if shift > 0 && shift < 64 {
			mant |= lo >> uint(64-shift)
		}
	} else {
		mant, exp2 = normalize(lo, exp-64)
	}
	return pack(resultSign, exp2, mant, round)
}

// Sub returns a-b rounded per round.
func Sub(a, b F80, round ir.RoundMode) F80 {
	b.Sign = !b.Sign
	return Add(a, b, round)
}

// Mul returns a*b rounded per round.
func Mul(a, b F80, round ir.RoundMode) F80 {
	if a.IsNaN() {
		return a
	}
	if b.IsNaN() {
		return b
	}
	sign := a.Sign != b.Sign
	if a.IsInf() || b.IsInf() {
		if a.IsZero() || b.IsZero() {
			return QNaN()
		}
		return Infinity(sign)
	}
	if a.IsZero() || b.IsZero() {
		return Zero(sign)
	}
	hi, lo := bits.Mul64(a.Mant, b.Mant)
	exp := expOf(a) + expOf(b) - bias + 1
	if hi&(1<<63) == 0 {
		hi = hi<<1 | lo>>63
		lo <<= 1
		exp--
	}
	mant, overflow := roundMantissa(hi, lo, sign, round)
	if overflow {
		mant = mant>>1 | 1<<63
		exp++
	}
	return pack(sign, exp, mant, round)
}

// Div returns a/b rounded per round.
func Div(a, b F80, round ir.RoundMode) F80 {
	if a.IsNaN() {
		return a
	}
	if b.IsNaN() {
		return b
	}
	sign := a.Sign != b.Sign
	if b.IsZero() {
		if a.IsZero() {
			return QNaN()
		}
		return Infinity(sign)
	}
	if a.IsInf() && b.IsInf() {
		return QNaN()
	}
	if a.IsInf() {
		return Infinity(sign)
	}
	if b.IsInf() {
		return Zero(sign)
	}
	if a.IsZero() {
		return Zero(sign)
	}

	// 128/64 long division: dividend is a.Mant shifted to the top of a
	// 128-bit field so the quotient lands with bit 63 as the integer bit.
	quo, rem := bits.Div64(a.Mant>>1, a.Mant<<63, b.Mant)
	exp := expOf(a) - expOf(b) + bias
	var lo uint64
	if rem != 0 {
		lo = 1 << 63 // sticky: exact remainder is nonzero
	}
	mant, exp2 := normalize(quo, exp)
	mant, overflow := roundMantissa(mant, lo, sign, round)
	if overflow {
		mant = mant>>1 | 1<<63
		exp2++
	}
	return pack(sign, exp2, mant, round)
}

// Sqrt returns sqrt(a) rounded per round, using a Newton-Raphson refinement
// over the 64-bit mantissa seeded from the host's float64 sqrt.
func Sqrt(a F80, round ir.RoundMode) F80 {
	if a.IsNaN() {
		return a
	}
	if a.Sign && !a.IsZero() {
		return QNaN()
	}
	if a.IsZero() || a.IsInf() {
		return a
	}
	f64 := ToF64(a)
	seed := F80FromF64Seed(sqrtF64(f64))
	// One Newton iteration x_{n+1} = x_n - (x_n*x_n - a) / (2*x_n), carried
	// out in F80 so the seed's float64 rounding error is refined away.
	two := F80{Sign: false, Exp: bias + 1, Mant: 1 << 63}
	xn := seed
	for i := 0; i < 2; i++ {
		xn2 := Mul(xn, xn, ir.RoundNearestEven)
		num := Sub(xn2, a, ir.RoundNearestEven)
		den := Mul(two, xn, ir.RoundNearestEven)
		xn = Sub(xn, Div(num, den, ir.RoundNearestEven), round)
	}
	return xn
}

// CompareResult mirrors the x87/AVX compare predicate triple.
type CompareResult struct {
	Less       bool
	Equal      bool
	Unordered  bool
}

// Compare evaluates the ordering of a and b.
func Compare(a, b F80) CompareResult {
	if a.IsNaN() || b.IsNaN() {
		return CompareResult{Unordered: true}
	}
	if a.IsZero() && b.IsZero() {
		return CompareResult{Equal: true}
	}
	as, bs := signedMagnitude(a), signedMagnitude(b)
	if as == bs && a.Mant != b.Mant {
		as, bs = int64(a.Mant&0xffff), int64(b.Mant&0xffff)
		if a.Sign {
			as, bs = -as, -bs
		}
	}
	switch {
	case as == bs:
		return CompareResult{Equal: true}
	case as < bs:
		return CompareResult{Less: true}
	default:
		return CompareResult{}
	}
}

// signedMagnitude maps a non-NaN F80 to a key whose signed comparison
// follows numeric order: the biased exponent above the top 48 mantissa
// bits, negated for negative values. The low 16 mantissa bits are not in
// the key; Compare breaks ties on them.
func signedMagnitude(v F80) int64 {
	mag := int64(v.Exp)<<48 ^ int64(v.Mant>>16)
	if v.Sign {
		return -mag
	}
	return mag
}
