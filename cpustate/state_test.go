package cpustate

import (
	"testing"

	"github.com/rcornwell/x86ir/softfloat"
)

func TestMemoryLoadStoreRoundTrip(t *testing.T) {
	m := NewMemory(4096)
	if err := m.Store(0x100, 0xdeadbeef, 4); err != nil {
		t.Fatalf("Store: %v", err)
	}
	v, err := m.Load(0x100, 4)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v != 0xdeadbeef {
		t.Errorf("Load = %#x, want 0xdeadbeef", v)
	}
}

func TestMemoryOutOfRange(t *testing.T) {
	m := NewMemory(16)
	if _, err := m.Load(100, 4); err == nil {
		t.Errorf("expected out-of-range error")
	}
}

func TestMemoryCAS(t *testing.T) {
	m := NewMemory(4096)
	_ = m.Store(0x200, 1, 8)
	ok, err := m.CAS(0x200, 1, 2)
	if err != nil || !ok {
		t.Fatalf("CAS(1->2) failed: ok=%v err=%v", ok, err)
	}
	ok, _ = m.CAS(0x200, 1, 3)
	if ok {
		t.Errorf("CAS should fail when old value no longer matches")
	}
}

func TestX87PushPopRotatesTop(t *testing.T) {
	s := NewState(NewMemory(4096))
	s.PushX87(softfloat.FromF64(1.0))
	s.PushX87(softfloat.FromF64(2.0))
	top := s.X87[s.St(0)]
	if softfloat.ToF64(top) != 2.0 {
		t.Errorf("top of stack = %v, want 2.0", softfloat.ToF64(top))
	}
	s.PopX87()
	top = s.X87[s.St(0)]
	if softfloat.ToF64(top) != 1.0 {
		t.Errorf("top of stack after pop = %v, want 1.0", softfloat.ToF64(top))
	}
}

func TestX87TagEmptyAfterPop(t *testing.T) {
	s := NewState(NewMemory(4096))
	s.PushX87(softfloat.FromF64(1.0))
	phys := s.St(0)
	s.PopX87()
	if s.X87Tag[phys] != X87TagEmpty {
		t.Errorf("expected tag empty after pop, got %v", s.X87Tag[phys])
	}
}

func TestPopX87OnEmptyStackSetsUnderflowFault(t *testing.T) {
	s := NewState(NewMemory(4096))
	s.PopX87()
	if s.FSW&(fswIE|fswSF) != fswIE|fswSF {
		t.Errorf("FSW = %#x, want IE|SF set", s.FSW)
	}
	if s.FSW&fswC1 != 0 {
		t.Errorf("FSW C1 should be clear on underflow, got %#x", s.FSW)
	}
}

func TestPushX87OverflowSetsOverflowFault(t *testing.T) {
	s := NewState(NewMemory(4096))
	for i := 0; i < 8; i++ {
		s.PushX87(softfloat.FromF64(float64(i)))
	}
	if s.FSW != 0 {
		t.Errorf("FSW = %#x, want clear after filling exactly 8 slots", s.FSW)
	}
	s.PushX87(softfloat.FromF64(9.0))
	if s.FSW&(fswIE|fswSF|fswC1) != fswIE|fswSF|fswC1 {
		t.Errorf("FSW = %#x, want IE|SF|C1 set on a ninth push", s.FSW)
	}
}
