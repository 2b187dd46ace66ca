/*
   IR: closed enumerations shared by the data model, the x87 pass and
   the interpreter.

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

package ir

// Size is a node or memory access width, in bytes. Only these values ever
// appear on a node header or a memory opcode.
type Size uint8

const (
	Size1  Size = 1
	Size2  Size = 2
	Size4  Size = 4
	Size8  Size = 8
	Size16 Size = 16
	Size32 Size = 32
)

// Valid reports whether s is one of the closed set of sizes the catalogue
// allows. Handlers assert on this rather than silently truncating.
func (s Size) Valid() bool {
	switch s {
	case Size1, Size2, Size4, Size8, Size16, Size32:
		return true
	}
	return false
}

// MemOrder selects the ordering semantics of a memory opcode.
type MemOrder uint8

const (
	OrderRelaxed MemOrder = iota
	OrderTSO              // LOADMEMTSO / STOREMEMTSO: acquire/release matching x86.
)

// OffsetType is the index-extend mode of a memory addressing node, matching
// common host addressing forms.
type OffsetType uint8

const (
	OffsetSXTX OffsetType = iota // sign-extend 64
	OffsetSXTW                   // sign-extend from 32
	OffsetUXTW                   // zero-extend from 32
)

// Scale is the index multiplier of a memory addressing node.
type Scale uint8

const (
	Scale1 Scale = 1
	Scale2 Scale = 2
	Scale4 Scale = 4
	Scale8 Scale = 8
)

// FPCompareMask is the 3-bit flags mask a floating compare opcode carries,
// selecting which of the three predicates the handler must compute.
type FPCompareMask uint8

const (
	FPLT          FPCompareMask = 1 << 0
	FPEQ          FPCompareMask = 1 << 1
	FPUnordered   FPCompareMask = 1 << 2
)

// RoundMode is the closed set of IEEE/x87 rounding modes.
type RoundMode uint8

const (
	RoundNearestEven RoundMode = iota
	RoundDown                  // toward -Inf
	RoundUp                    // toward +Inf
	RoundZero                  // truncate
	RoundHost                  // defer to host FPU rounding (vector conversions only)
)

// Precision is the x87 FCW precision-control field, decoded to a concrete
// mantissa width.
type Precision uint8

const (
	Precision32 Precision = 32
	Precision64 Precision = 64
	Precision80 Precision = 80
)

// DecodePrecisionControl maps the 2-bit FCW precision-control field
// (bits 8-9) to a concrete width. Encoding 01 is reserved; callers should
// treat it as Precision64 (the value real x87 hardware returns in practice).
func DecodePrecisionControl(bits uint8) Precision {
	switch bits & 0x3 {
	case 0b00:
		return Precision32
	case 0b10:
		return Precision64
	case 0b11:
		return Precision80
	default: // 0b01 reserved
		return Precision64
	}
}

// DecodeRoundingControl maps the 2-bit FCW rounding-control field
// (bits 10-11) to a RoundMode.
func DecodeRoundingControl(bits uint8) RoundMode {
	switch bits & 0x3 {
	case 0b00:
		return RoundNearestEven
	case 0b01:
		return RoundDown
	case 0b10:
		return RoundUp
	default:
		return RoundZero
	}
}

// Condition is the closed set of condition codes Select and CondJump accept.
type Condition uint8

const (
	CondEQ Condition = iota
	CondNE
	CondSLT
	CondSLE
	CondSGT
	CondSGE
	CondULT
	CondULE
	CondUGT
	CondUGE
	CondCS // carry set
	CondCC // carry clear
	CondMI // negative
	CondPL // positive
	CondVS // overflow set
	CondVC // overflow clear
)

// RefKind distinguishes an operand reference's storage class. RefGPR/RefFPR
// address the persistent architectural register file (cpustate.State);
// RefSSA addresses a transient per-translation-unit value slot instead,
// one of arbitrarily many, for a node result that has no architectural
// home (a temporary a register-allocation pass has not yet assigned).
type RefKind uint8

const (
	RefGPR RefKind = iota
	RefFPR
	RefConst
	RefSSA
)
