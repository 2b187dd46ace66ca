/*
   Guest memory: flat byte-addressable backing store with TSO ordering.

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

package cpustate

import (
	"fmt"
	"sync/atomic"
)

// Memory is a flat guest address space, the generalization of the
// teacher's fixed-size word array to a byte-addressable space wide enough
// for a 64-bit guest, with atomic sub-word accessors standing in for the
// host memory subsystem's own ordering guarantees.
type Memory struct {
	buf  []byte
	size uint64
}

// NewMemory allocates a zero-filled guest address space of size bytes.
func NewMemory(size uint64) *Memory {
	return &Memory{buf: make([]byte, size), size: size}
}

// Size returns the guest address space size in bytes.
func (m *Memory) Size() uint64 { return m.size }

// CheckAddr reports whether the byte range [addr, addr+n) lies within the
// guest address space.
func (m *Memory) CheckAddr(addr, n uint64) bool {
	return addr+n >= addr && addr+n <= m.size
}

// errOutOfRange is returned by every accessor on an out-of-bounds address;
// the interpreter maps it to the guest's general-protection-fault path.
type errOutOfRange struct{ addr uint64 }

func (e errOutOfRange) Error() string {
	return fmt.Sprintf("memory access out of range: %#x", e.addr)
}

// Load reads n bytes (n in {1,2,4,8}) at addr with relaxed ordering: plain
// byte-at-a-time copy, no host fence.
func (m *Memory) Load(addr uint64, n int) (uint64, error) {
	if !m.CheckAddr(addr, uint64(n)) {
		return 0, errOutOfRange{addr}
	}
	var v uint64
	for i := 0; i < n; i++ {
		v |= uint64(m.buf[addr+uint64(i)]) << (8 * i)
	}
	return v, nil
}

// Store writes n bytes of v at addr with relaxed ordering.
func (m *Memory) Store(addr uint64, v uint64, n int) error {
	if !m.CheckAddr(addr, uint64(n)) {
		return errOutOfRange{addr}
	}
	for i := 0; i < n; i++ {
		m.buf[addr+uint64(i)] = byte(v >> (8 * i))
	}
	return nil
}

// LoadTSO reads at addr with x86 total-store-order semantics: an
// acquire-fenced 8-byte-aligned word read when n==8 and addr is aligned,
// otherwise a byte sequence that still orders-after any prior StoreTSO on
// the same address from another guest thread.
func (m *Memory) LoadTSO(addr uint64, n int) (uint64, error) {
	if !m.CheckAddr(addr, uint64(n)) {
		return 0, errOutOfRange{addr}
	}
	if n == 8 && addr%8 == 0 {
		word := (*uint64)(wordPtr(m.buf, addr))
		return atomic.LoadUint64(word), nil
	}
	if n == 4 && addr%4 == 0 {
		word := (*uint32)(dwordPtr(m.buf, addr))
		return uint64(atomic.LoadUint32(word)), nil
	}
	return m.Load(addr, n)
}

// StoreTSO writes at addr with x86 total-store-order semantics, paired
// with LoadTSO.
func (m *Memory) StoreTSO(addr uint64, v uint64, n int) error {
	if !m.CheckAddr(addr, uint64(n)) {
		return errOutOfRange{addr}
	}
	if n == 8 && addr%8 == 0 {
		word := (*uint64)(wordPtr(m.buf, addr))
		atomic.StoreUint64(word, v)
		return nil
	}
	if n == 4 && addr%4 == 0 {
		word := (*uint32)(dwordPtr(m.buf, addr))
		atomic.StoreUint32(word, uint32(v))
		return nil
	}
	return m.Store(addr, v, n)
}

// CAS performs an 8-byte compare-and-swap at addr, the primitive the
// interpreter's CAS/CASPair opcodes and the x86 LOCK CMPXCHG family build
// on.
func (m *Memory) CAS(addr uint64, old, new uint64) (bool, error) {
	if !m.CheckAddr(addr, 8) {
		return false, errOutOfRange{addr}
	}
	word := (*uint64)(wordPtr(m.buf, addr))
	return atomic.CompareAndSwapUint64(word, old, new), nil
}

// LoadBytes copies n bytes starting at addr, used for vector loads wider
// than 8 bytes where no atomicity is architecturally required.
func (m *Memory) LoadBytes(addr uint64, dst []byte) error {
	if !m.CheckAddr(addr, uint64(len(dst))) {
		return errOutOfRange{addr}
	}
	copy(dst, m.buf[addr:addr+uint64(len(dst))])
	return nil
}

// StoreBytes copies src into guest memory starting at addr.
func (m *Memory) StoreBytes(addr uint64, src []byte) error {
	if !m.CheckAddr(addr, uint64(len(src))) {
		return errOutOfRange{addr}
	}
	copy(m.buf[addr:addr+uint64(len(src))], src)
	return nil
}
