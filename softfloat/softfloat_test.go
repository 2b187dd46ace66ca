package softfloat

import (
	"math"
	"testing"

	"github.com/rcornwell/x86ir/ir"
)

func near(t *testing.T, got, want float64, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("got %v, want %v (tol %v)", got, want, tol)
	}
}

func TestFromF64ToF64RoundTrip(t *testing.T) {
	vals := []float64{0, 1, -1, 3.5, 1e100, -1e-100, 123456.789}
	for _, v := range vals {
		got := ToF64(FromF64(v))
		if got != v {
			t.Errorf("round trip %v -> %v", v, got)
		}
	}
}

func TestAddBasic(t *testing.T) {
	a := FromF64(1.5)
	b := FromF64(2.25)
	near(t, ToF64(Add(a, b, ir.RoundNearestEven)), 3.75, 1e-12)
}

func TestSubBasic(t *testing.T) {
	a := FromF64(5.0)
	b := FromF64(2.0)
	near(t, ToF64(Sub(a, b, ir.RoundNearestEven)), 3.0, 1e-12)
}

func TestMulBasic(t *testing.T) {
	a := FromF64(3.0)
	b := FromF64(4.0)
	near(t, ToF64(Mul(a, b, ir.RoundNearestEven)), 12.0, 1e-12)
}

func TestDivBasic(t *testing.T) {
	a := FromF64(10.0)
	b := FromF64(4.0)
	near(t, ToF64(Div(a, b, ir.RoundNearestEven)), 2.5, 1e-12)
}

func TestDivByZero(t *testing.T) {
	a := FromF64(1.0)
	got := Div(a, Zero(false), ir.RoundNearestEven)
	if !got.IsInf() {
		t.Errorf("1/0 should be infinity, got %+v", got)
	}
}

func TestSqrtBasic(t *testing.T) {
	a := FromF64(2.0)
	near(t, ToF64(Sqrt(a, ir.RoundNearestEven)), math.Sqrt2, 1e-9)
}

func TestCompareOrdering(t *testing.T) {
	a := FromF64(1.0)
	b := FromF64(2.0)
	res := Compare(a, b)
	if !res.Less || res.Equal || res.Unordered {
		t.Errorf("1 < 2 comparison wrong: %+v", res)
	}
}

func TestCompareUnorderedNaN(t *testing.T) {
	res := Compare(QNaN(), FromF64(1.0))
	if !res.Unordered {
		t.Errorf("NaN compare should be unordered")
	}
}

func TestBCDRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 123456789012345, -987654321} {
		data := BCDStore(v)
		got := BCDLoad(data)
		if got != v {
			t.Errorf("BCD round trip %d -> %d", v, got)
		}
	}
}

func TestFpremVsFprem1Differ(t *testing.T) {
	a := FromF64(5.3)
	b := FromF64(2.0)
	r1, _ := Fprem(a, b)
	r2, _ := Fprem1(a, b)
	if ToF64(r1) == ToF64(r2) {
		t.Skip("values happened to coincide for this input")
	}
}

func TestToIntTruncating(t *testing.T) {
	v := FromF64(3.9)
	got, ok := ToIntTruncating(v, ir.Size4)
	if !ok || got != 3 {
		t.Errorf("truncating 3.9 -> (%d, %v), want (3, true)", got, ok)
	}
}

func TestToIntOutOfRange(t *testing.T) {
	v := FromF64(1e30)
	_, ok := ToInt(v, ir.Size4, ir.RoundZero)
	if ok {
		t.Errorf("expected out-of-range conversion to fail")
	}
}

func TestFromIntRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 1 << 40, -(1 << 40)} {
		got, ok := ToInt(FromInt(v, ir.Size8), ir.Size8, ir.RoundZero)
		if !ok || got != v {
			t.Errorf("FromInt/ToInt round trip %d -> (%d, %v)", v, got, ok)
		}
	}
}
