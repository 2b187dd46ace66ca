package flags

import "testing"

func TestRectifyAddZero(t *testing.T) {
	var tr Tracker
	tr.Defer(OpAddNZCV, 4, 0, 0, 0)
	f := tr.Rectify()
	if f&Z == 0 {
		t.Errorf("expected Z set for 0+0")
	}
	if f&N != 0 || f&C != 0 || f&V != 0 {
		t.Errorf("unexpected flags set: %#x", f)
	}
}

func TestRectifyAddOverflow(t *testing.T) {
	var tr Tracker
	// 0x7fffffff + 1 overflows a signed 32-bit add.
	tr.Defer(OpAddNZCV, 4, 0x7fffffff, 1, 0x80000000)
	f := tr.Rectify()
	if f&V == 0 {
		t.Errorf("expected V set for signed overflow")
	}
	if f&N == 0 {
		t.Errorf("expected N set for negative result")
	}
}

func TestRectifySubBorrow(t *testing.T) {
	var tr Tracker
	tr.Defer(OpSubNZCV, 4, 1, 2, uint64(^uint32(0))) // 1-2 at 32 bits
	f := tr.Rectify()
	if f&C != 0 {
		t.Errorf("1-2 borrows; ARM-convention carry should be clear, got %#x", f)
	}
}

func TestRectifySubCFInverted(t *testing.T) {
	var tr Tracker
	tr.CFInverted = true
	tr.Defer(OpSubNZCV, 4, 1, 2, uint64(^uint32(0))) // 1-2 at 32 bits
	f := tr.Rectify()
	if f&C == 0 {
		t.Errorf("inverting the borrow convention should set C when the uninverted value was clear, got %#x", f)
	}
}

func TestParityEven(t *testing.T) {
	if !ParityOf8(0x03) {
		t.Errorf("0x03 has two set bits, should be even parity")
	}
	if ParityOf8(0x01) {
		t.Errorf("0x01 has one set bit, should be odd parity")
	}
}
