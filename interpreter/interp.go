/*
   IR interpreter: execution engine core.

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

// Package interpreter walks a CodeBlock node by node against one guest
// thread's State, the direct generalization of the teacher's fetch/decode/
// execute cycle to an IR that is already decoded.
package interpreter

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/rcornwell/x86ir/cpustate"
	"github.com/rcornwell/x86ir/flags"
	"github.com/rcornwell/x86ir/ir"
)

// byteOrder packs/unpacks an SSA value-pool slot's leading bytes; the
// choice is arbitrary (the slot is never exposed outside this package)
// but fixed, so repeated reads of the same slot agree with each other.
var byteOrder = binary.LittleEndian

// Interpreter owns one guest thread's register state and flag tracker.
// Nothing here is shared across goroutines; callers run one Interpreter
// per guest thread, same as one cpuState per simulated CPU in the teacher.
type Interpreter struct {
	State    *cpustate.State
	Flags    flags.Tracker
	Log      *slog.Logger
	Fallback FallbackTable

	// ReducedPrecision routes F80 arithmetic through host float64 lanes
	// instead of the 80-bit soft-float path, trading the last few bits of
	// x87 precision for throughput; off by default.
	ReducedPrecision bool

	scratch [4]uint64 // per-node temporaries, vector lane staging

	entryPC uint64 // cb.EntryPC for the CodeBlock currently running, read by OpEntrypointPC

	// ssaPool backs ir.RefSSA operands: a value pool indexed by node ID
	// rather than by a fixed architectural slot, sized on demand so a
	// block can carry arbitrarily many live temporaries past the 16-entry
	// GPR/vector files. Reset at the start of every Run, since SSA IDs
	// are scoped to one CodeBlock translation unit, not to the guest
	// thread's persistent architectural state.
	ssaPool [][32]byte
}

// ssaSlot returns the value-pool slot backing an ir.RefSSA operand,
// growing the pool as needed.
func (in *Interpreter) ssaSlot(id uint16) *[32]byte {
	for len(in.ssaPool) <= int(id) {
		in.ssaPool = append(in.ssaPool, [32]byte{})
	}
	return &in.ssaPool[id]
}

// New builds an Interpreter over state, logging through log.
func New(state *cpustate.State, log *slog.Logger) *Interpreter {
	if log == nil {
		log = slog.Default()
	}
	in := &Interpreter{State: state, Log: log}
	// x86's CF on SUB means "borrow occurred"; the tracker's native sense
	// (inherited from the arm64 code-generation convention it is modeled
	// on) is the opposite, so this interpreter always runs inverted.
	in.Flags.CFInverted = true
	return in
}

// FallbackTable is the escape hatch spec.md's external-interfaces section
// calls for: opcodes this interpreter does not implement natively (an
// unimplemented vector shuffle, a host syscall needing real OS state) are
// routed to a caller-supplied handler instead of aborting the block.
type FallbackTable map[ir.Opcode]func(*Interpreter, *ir.Node) error

// ExecError reports which node failed and why, so the caller can decide
// whether to raise a guest fault or abort translation entirely.
type ExecError struct {
	Node *ir.Node
	Err  error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("opcode %s: %v", ir.Info(e.Node.Op).Mnemonic, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// Run executes cb's entry block and every block control transfer reaches,
// starting execution at cb.Entry. It returns when a terminator opcode exits the
// code block (OpExitFunction, OpCallbackReturn, OpSignalReturn) or a node
// errors.
func (in *Interpreter) Run(cb *ir.CodeBlock) error {
	in.entryPC = cb.EntryPC
	in.ssaPool = in.ssaPool[:0]
	blk := cb.Entry
	for blk != nil {
		next, err := in.runBlock(blk)
		if err != nil {
			return err
		}
		blk = next
	}
	return nil
}

func (in *Interpreter) runBlock(blk *ir.Block) (*ir.Block, error) {
	for _, n := range blk.Nodes {
		next, terminate, err := in.step(n)
		if err != nil {
			return nil, &ExecError{Node: n, Err: err}
		}
		if terminate {
			return next, nil
		}
	}
	return nil, nil
}

// step executes a single node. The returned block is non-nil only when n
// was a control-transfer node that selected a successor; the bool reports
// whether the node ended the current block (a control transfer, or a
// block-ending side effect such as OpExitFunction).
func (in *Interpreter) step(n *ir.Node) (*ir.Block, bool, error) {
	handler, ok := dispatch[n.Op]
	if !ok {
		if fb, ok := in.Fallback[n.Op]; ok {
			return nil, false, fb(in, n)
		}
		return nil, false, fmt.Errorf("unimplemented opcode %s", ir.Info(n.Op).Mnemonic)
	}
	return handler(in, n)
}

// handlerFunc is the signature every opcode implementation satisfies.
type handlerFunc func(*Interpreter, *ir.Node) (*ir.Block, bool, error)

var dispatch = map[ir.Opcode]handlerFunc{}

// register installs fn as the handler for op. Called only from each
// family file's init(), mirroring the teacher's one-shot createTable().
func register(op ir.Opcode, fn func(*Interpreter, *ir.Node) error) {
	dispatch[op] = func(in *Interpreter, n *ir.Node) (*ir.Block, bool, error) {
		return nil, false, fn(in, n)
	}
}

// registerTerminator installs fn as a control-transfer handler, one that
// decides the next block itself.
func registerTerminator(op ir.Opcode, fn func(*Interpreter, *ir.Node) (*ir.Block, bool, error)) {
	dispatch[op] = fn
}

// getOperand/setGPR are small helpers every ALU-family handler uses
// to read operands and commit a destination, honoring each node's Size by
// masking to that width the way x86's partial-register writes do.
func getOperand(in *Interpreter, ref ir.OpRef) uint64 {
	switch ref.Kind {
	case ir.RefConst:
		return ref.Const
	case ir.RefGPR:
		return in.State.GPR[ref.Reg]
	case ir.RefSSA:
		return byteOrder.Uint64(in.ssaSlot(ref.Reg)[:8])
	default:
		return 0
	}
}

func setGPR(in *Interpreter, ref ir.OpRef, v uint64, size ir.Size) {
	if size < 8 {
		v &= uint64(1)<<(8*size) - 1
	}
	switch ref.Kind {
	case ir.RefGPR:
		in.State.GPR[ref.Reg] = v
	case ir.RefSSA:
		byteOrder.PutUint64(in.ssaSlot(ref.Reg)[:8], v)
	}
}

func signExtend(v uint64, size ir.Size) int64 {
	shift := 64 - 8*uint(size)
	return int64(v<<shift) >> shift
}
