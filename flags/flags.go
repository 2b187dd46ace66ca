/*
   Deferred NZCV flag tracking.

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

// Package flags tracks the x86 NZCV-equivalent condition flags the way the
// host's own arithmetic instructions set them: lazily, as a cached
// operation plus its two operands, rectified into concrete N/Z/C/V bits
// only when a later opcode actually reads one.
package flags

const (
	N uint8 = 1 << iota
	Z
	C
	V
)

// Op identifies which deferred computation produced the cached flags.
type Op uint8

const (
	OpNone Op = iota
	OpAddNZCV
	OpSubNZCV
	OpLogicNZ
)

// Tracker holds one pending flag computation. CFInverted mirrors the
// arm64-style inverted-borrow convention host code generation prefers:
// Rectify un-inverts it back to the x86 carry/borrow sense before
// returning the concrete bits.
type Tracker struct {
	Op         Op
	Size       uint8 // operand width in bytes, needed to find the sign/carry-out bit
	Src1, Src2 uint64
	Result     uint64
	CFInverted bool

	// PF, AF, DF are pseudo-flags x86 keeps independently of NZCV: parity
	// of the low result byte, the BCD half-carry, and the direction flag.
	// They are not part of the deferred Op/Src1/Src2 computation because
	// no x86 opcode this interpreter implements branches on them directly;
	// they are read only by flag-materializing opcodes (LAHF, PUSHF).
	PF, AF bool
	DF     bool
}

// Defer records a pending NZCV computation, replacing whatever was cached
// before. Materialization is postponed until Rectify is called.
func (t *Tracker) Defer(op Op, size uint8, src1, src2, result uint64) {
	t.Op = op
	t.Size = size
	t.Src1, t.Src2, t.Result = src1, src2, result
}

func signBit(v uint64, size uint8) bool {
	return v&(1<<(8*size-1)) != 0
}

func truncate(v uint64, size uint8) uint64 {
	if size >= 8 {
		return v
	}
	return v & (1<<(8*size) - 1)
}

// Rectify computes the concrete N/Z/C/V bits for the currently cached
// operation. Safe to call repeatedly; it does not consume the cache.
func (t *Tracker) Rectify() uint8 {
	switch t.Op {
	case OpNone:
		return 0
	case OpAddNZCV:
		return t.rectifyAdd()
	case OpSubNZCV:
		return t.rectifySub()
	case OpLogicNZ:
		return t.rectifyLogic()
	default:
		return 0
	}
}

func (t *Tracker) rectifyAdd() uint8 {
	res := truncate(t.Result, t.Size)
	var f uint8
	if signBit(res, t.Size) {
		f |= N
	}
	if res == 0 {
		f |= Z
	}
	a, b := truncate(t.Src1, t.Size), truncate(t.Src2, t.Size)
	sum := a + b
	carry := sum != truncate(sum, t.Size) || sum < a
	if carry {
		f |= C
	}
	if signBit(a, t.Size) == signBit(b, t.Size) && signBit(a, t.Size) != signBit(res, t.Size) {
		f |= V
	}
	return f
}

func (t *Tracker) rectifySub() uint8 {
	res := truncate(t.Result, t.Size)
	var f uint8
	if signBit(res, t.Size) {
		f |= N
	}
	if res == 0 {
		f |= Z
	}
	a, b := truncate(t.Src1, t.Size), truncate(t.Src2, t.Size)
	borrow := a < b
	carry := !borrow // arm64-style carry on SUB is the inverted borrow
	if t.CFInverted {
		carry = !carry
	}
	if carry {
		f |= C
	}
	if signBit(a, t.Size) != signBit(b, t.Size) && signBit(a, t.Size) != signBit(res, t.Size) {
		f |= V
	}
	return f
}

func (t *Tracker) rectifyLogic() uint8 {
	res := truncate(t.Result, t.Size)
	var f uint8
	if signBit(res, t.Size) {
		f |= N
	}
	if res == 0 {
		f |= Z
	}
	return f
}

// ParityOf8 computes PF: set when the low byte of v has an even number of
// set bits, the convention x86's PF has always used.
func ParityOf8(v uint8) bool {
	v ^= v >> 4
	v ^= v >> 2
	v ^= v >> 1
	return v&1 == 0
}
