/*
   x87 stack optimization: virtual register stack model.

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

// Package x87opt lowers the virtual 8-slot rotating x87 register stack a
// guest function manipulates (FLD/FSTP/FXCH and friends) into flat IR
// operating directly on physical slots, the way the interpreter's float.go
// expects: ST(i) resolved once at translation time instead of re-derived
// from a runtime top-of-stack pointer on every access.
package x87opt

import "github.com/rcornwell/x86ir/ir"

// StackMemberKind is one tracked slot's validity: whether the rewrite pass
// can trust resolving a read against it without falling back to the
// runtime stack-relative form.
type StackMemberKind uint8

const (
	StackUnused  StackMemberKind = iota // never referenced since this stack was constructed
	StackInvalid                        // produced, then popped, without a later push refreshing it
	StackValid                          // holds a live producer node
)

// StackMember is one tracked entry of the virtual stack.
type StackMember struct {
	Kind  StackMemberKind
	Value *ir.Node // producer node, valid when Kind == StackValid
	Slot  uint8    // physical x87 slot, valid once assigned
}

// FixedSizeStack is the 8-deep rotating structure the x87 ISA itself
// exposes: Push/Pop move a signed TopOffset rather than shifting data,
// exactly mirroring how real hardware treats FPU "TOP" in FSW.
type FixedSizeStack struct {
	members    [8]StackMember
	topOffset  int8 // signed so Push (-1) and Pop (+1) never need branches for wraparound before the mod
}

// NewFixedSizeStack returns an 8-slot stack with every member Unused.
func NewFixedSizeStack() *FixedSizeStack {
	s := &FixedSizeStack{}
	for i := range s.members {
		s.members[i] = StackMember{Kind: StackUnused, Slot: uint8(i)}
	}
	return s
}

func (s *FixedSizeStack) physIndex(logical int8) uint8 {
	idx := (int(s.topOffset) + int(logical)) % 8
	if idx < 0 {
		idx += 8
	}
	return uint8(idx)
}

// Top returns the current logical top-of-stack member (ST(0)).
func (s *FixedSizeStack) Top() *StackMember {
	return &s.members[s.physIndex(0)]
}

// At returns the member at logical position i (ST(i)).
func (s *FixedSizeStack) At(i int8) *StackMember {
	return &s.members[s.physIndex(i)]
}

// Push rotates TopOffset down by one and installs m as the new ST(0),
// FLD's primitive.
func (s *FixedSizeStack) Push(m StackMember) {
	s.topOffset--
	*s.Top() = m
}

// Pop marks ST(0) invalid and rotates TopOffset up by one, FSTP's
// primitive. The vacated slot is Invalid rather than Unused: a later read
// of it within the same translation unit, without an intervening push, is
// a stale-data bug the rewrite pass must not resolve statically.
func (s *FixedSizeStack) Pop() StackMember {
	m := *s.Top()
	*s.Top() = StackMember{Kind: StackInvalid}
	s.topOffset++
	return m
}

// Set overwrites the member at logical position i in place, without
// moving TopOffset: an in-place arithmetic write (FADD ST(0), ST(1)
// overwrites ST(0) without a push or pop).
func (s *FixedSizeStack) Set(i int8, m StackMember) {
	*s.At(i) = m
}

// Exchange swaps ST(0) and ST(i), FXCH's primitive, without moving
// TopOffset: a pure data swap between two physical slots.
func (s *FixedSizeStack) Exchange(i int8) {
	a := s.physIndex(0)
	b := s.physIndex(i)
	s.members[a], s.members[b] = s.members[b], s.members[a]
}

// TopOffset exposes the raw rotation amount.
func (s *FixedSizeStack) TopOffset() int8 { return s.topOffset }

// Physical returns the member at a raw physical slot index (0-7),
// bypassing the logical-to-physical TopOffset translation At uses.
func (s *FixedSizeStack) Physical(slot uint8) *StackMember {
	return &s.members[slot%8]
}
