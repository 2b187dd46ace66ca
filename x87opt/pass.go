package x87opt

import "github.com/rcornwell/x86ir/ir"

// Pass lowers x87 stack-relative nodes within a CodeBlock into flat IR
// operating on concrete ST(i) positions (relative to the block's entry
// Top), eliminating the runtime stack-rotation opcodes the interpreter
// would otherwise execute via cpustate.State.PushX87/PopX87 on every
// block. It never mutates the input block: Rewrite always returns a new
// CodeBlock, matching the builder-based rewrite convention the rest of
// this IR's passes use.
type Pass struct {
	compileTop int8 // net pushes (negative) / pops (positive) since block entry
	slow       bool // one-way: once true, every remaining node in this block passes through unresolved
	stores     map[int8]*ir.Node // peephole store-reuse: last node that wrote a given logical ST(i)
	visited    map[*ir.Block]bool

	// virtual tracks each logical ST(i)'s Unused/Invalid/Valid status
	// across the walk, addressed the same way the runtime stack itself
	// is (current logical position, not entry-relative): a read of
	// anything but a Valid slot can't be trusted to resolve statically.
	virtual *FixedSizeStack
}

// NewPass returns a fresh Pass ready to rewrite one CodeBlock. A Pass is
// not reusable across CodeBlocks: compile-time stack state is specific to
// one translation unit's control flow.
func NewPass() *Pass {
	return &Pass{stores: map[int8]*ir.Node{}, visited: map[*ir.Block]bool{}, virtual: NewFixedSizeStack()}
}

// RegHint is the pass's outbound register-allocation hint to whatever
// backend consumes the lowered CodeBlock: which physical x87 slots hold a
// value the fast path resolved to a fixed compile-time position (worth a
// host register or a pinned physical slot) versus slots a backend must
// still treat as resolved only through the runtime stack-relative path.
type RegHint struct {
	// Resolved lists the physical x87 slots (0-7) the fast path proved a
	// stable compile-time position for.
	Resolved []uint8
	// Unresolved lists slots the pass could not prove a position for,
	// either because a read of them tripped the slow path or because the
	// whole CodeBlock fell back to the runtime stack-relative form.
	Unresolved []uint8
}

// regHint summarizes p.virtual's final Unused/Invalid/Valid state into the
// Resolved/Unresolved split Rewrite returns. Once the pass has gone slow,
// nothing it tracked afterward is trustworthy, so every slot reports
// Unresolved rather than a stale Valid snapshot from before the trip.
func (p *Pass) regHint() *RegHint {
	h := &RegHint{}
	for slot := uint8(0); slot < 8; slot++ {
		if !p.slow && p.virtual.Physical(slot).Kind == StackValid {
			h.Resolved = append(h.Resolved, slot)
		} else {
			h.Unresolved = append(h.Unresolved, slot)
		}
	}
	return h
}

// Rewrite produces a new CodeBlock with every x87 stack-op node replaced
// by its flat equivalent wherever the pass can prove the stack shape
// statically, falling back to the original stack-relative node (still
// directly executable, see interpreter/x87stack.go) once it cannot. The
// returned RegHint tells a backend which physical slots it resolved.
func (p *Pass) Rewrite(cb *ir.CodeBlock) (*ir.CodeBlock, *RegHint) {
	out := &ir.CodeBlock{EntryPC: cb.EntryPC, GuestLen: cb.GuestLen}
	blockMap := make(map[*ir.Block]*ir.Block, len(cb.Blocks))
	for _, b := range cb.Blocks {
		nb := &ir.Block{Name: b.Name}
		blockMap[b] = nb
		out.Blocks = append(out.Blocks, nb)
	}
	out.Entry = blockMap[cb.Entry]

	for _, b := range cb.Blocks {
		p.rewriteBlock(b, blockMap[b], blockMap)
	}

	if !p.slow && p.compileTop != 0 && len(out.Blocks) > 0 {
		// The whole walk stayed on the fast path: every push/pop along the
		// way was folded into a fixed-Top slot write, so the architectural
		// Top now needs exactly one correction before anything downstream
		// (another CodeBlock, a debugger, FXSAVE) reads it.
		last := out.Blocks[len(out.Blocks)-1]
		adj := adjustTopNode(p.compileTop)
		if len(last.Nodes) == 0 {
			last.Append(adj)
		} else {
			idx := len(last.Nodes) - 1
			last.Nodes = append(last.Nodes, nil)
			copy(last.Nodes[idx+1:], last.Nodes[idx:])
			last.Nodes[idx] = adj
		}
	}

	return out, p.regHint()
}

func (p *Pass) rewriteBlock(src, dst *ir.Block, blockMap map[*ir.Block]*ir.Block) {
	p.visited[src] = true

	for _, n := range src.Nodes {
		if p.visited[n.Target] || p.visited[n.Target2] {
			// A branch back to an already-walked block (a loop back-edge)
			// joins a compile-time stack depth this single-pass walk can
			// no longer relate to the current one: trip the one-way
			// fast-to-slow transition and stop resolving further ST(i)
			// indices for the rest of this CodeBlock.
			p.slow = true
		}
		dst.Append(p.rewriteNode(n, blockMap))
	}
}

func (p *Pass) rewriteNode(n *ir.Node, blockMap map[*ir.Block]*ir.Block) *ir.Node {
	rewritten := *n
	if rewritten.Target != nil {
		rewritten.Target = blockMap[rewritten.Target]
	}
	if rewritten.Target2 != nil {
		rewritten.Target2 = blockMap[rewritten.Target2]
	}

	if p.slow {
		return &rewritten
	}

	switch n.Op {
	case ir.OpCopyPushStack:
		return p.lowerCopyPush(&rewritten)
	case ir.OpPushStack:
		return p.lowerPush(&rewritten)
	case ir.OpPopStackDestroy:
		return p.lowerPop(&rewritten)
	case ir.OpReadStackValue:
		return p.lowerRead(&rewritten)
	case ir.OpF80StackXchange:
		return p.lowerXchange(&rewritten)
	case ir.OpF80AddStack:
		return p.lowerArith(&rewritten, ir.OpF80Add)
	case ir.OpF80SubStack:
		return p.lowerArith(&rewritten, ir.OpF80Sub)
	case ir.OpF80MulStack:
		return p.lowerArith(&rewritten, ir.OpF80Mul)
	case ir.OpF80DivStack:
		return p.lowerArith(&rewritten, ir.OpF80Div)
	default:
		return &rewritten
	}
}

// resolve translates a current-point logical ST(i) reference into one
// expressed relative to the block's entry Top (which the fast path never
// actually rotates at runtime: x87Src/x87SetDest still resolve FPR
// through State.St(), so a reference correct "as of entry" keeps working
// for as long as Top genuinely hasn't moved). The entry-relative index is
// wrapped mod 8 rather than rejected when it runs negative: the physical
// stack is circular, and with Top held fixed a negative index is simply
// the slot State.St would have reached after that many real pushes.
//
// resolve only does address translation; it does not gate on p.virtual's
// Unused/Invalid/Valid status (resolve also runs for slots about to be
// written, where validity doesn't yet apply). Callers reading an existing
// slot (lowerRead) check p.virtual themselves before calling resolve.
func (p *Pass) resolve(ref ir.OpRef) ir.OpRef {
	if ref.Kind != ir.RefFPR {
		return ref
	}
	e := int16(ref.Reg) + int16(p.compileTop)
	return ir.FPR(uint16(((e % 8) + 8) % 8))
}

// entryKey is the store/read-reuse map key for the entry-relative slot a
// resolved FPR reference names, independent of wraparound.
func entryKey(resolved ir.OpRef, compileTop int8) int8 {
	return int8(resolved.Reg) - compileTop
}

func (p *Pass) pushLike(n *ir.Node, op ir.Opcode) *ir.Node {
	src := p.resolve(n.Args[0])
	p.compileTop--
	if p.compileTop < -7 {
		// A push run this deep relative to entry can no longer fit in
		// the 8-slot physical file without a pop in between; let the
		// slow path's runtime PushX87 enforce/trap this properly.
		p.slow = true
		return n
	}
	dest := p.resolve(ir.FPR(0))
	n.Op = op
	n.Dest = dest
	n.Args[0] = src
	n.NumArgs = 1
	p.stores[entryKey(dest, p.compileTop)] = n
	p.virtual.Push(StackMember{Kind: StackValid, Value: n})
	return n
}

func (p *Pass) lowerCopyPush(n *ir.Node) *ir.Node { return p.pushLike(n, ir.OpF80Move) }
func (p *Pass) lowerPush(n *ir.Node) *ir.Node     { return p.pushLike(n, ir.OpF80Move) }

func (p *Pass) lowerPop(n *ir.Node) *ir.Node {
	// A pure pop with no store has no flat-IR effect: nothing reads the
	// discarded slot again once compileTop has moved past it. Emit a
	// no-op F80Move of the about-to-be-vacated slot onto itself so the
	// node stream stays one-to-one with the input for debuggability,
	// rather than deleting the node outright.
	top := p.resolve(ir.FPR(0))
	n.Op = ir.OpF80Move
	n.Dest = top
	n.Args[0] = top
	n.NumArgs = 1
	p.compileTop++
	p.virtual.Pop()
	return n
}

// lowerRead resolves an explicit ST(i) read (FST/FISTP-style extraction
// into a GPR, OpReadStackValue). Unlike lowerArith's in-place operand
// reads, this one gates on p.virtual: a slot this block itself popped
// and never refreshed is Invalid, and a slot nothing in this block ever
// produced is Unused — either way the value can't be trusted to resolve
// statically, so the read falls back to the slow (runtime stack-relative)
// path instead of silently returning stale or unrelated data.
func (p *Pass) lowerRead(n *ir.Node) *ir.Node {
	if n.Args[0].Kind == ir.RefFPR {
		if m := p.virtual.At(int8(n.Args[0].Reg)); m.Kind != StackValid {
			p.slow = true
			return n
		}
	}
	src := p.resolve(n.Args[0])
	// Peephole store-reuse: if the value at this logical position was
	// produced by a node we already rewrote in this same block, and nothing
	// has pushed/popped since, read directly from that producer instead of
	// re-issuing a stack access against State.X87.
	if producer, ok := p.stores[entryKey(src, p.compileTop)]; ok {
		n.Op = ir.OpF80Move
		n.Args[0] = producer.Dest
		n.NumArgs = 1
		return n
	}
	n.Op = ir.OpF80Move
	n.Args[0] = src
	n.NumArgs = 1
	return n
}

func (p *Pass) lowerXchange(n *ir.Node) *ir.Node {
	logical := int8(n.Args[0].Reg)
	i := p.resolve(n.Args[0])
	n.Args[0] = i
	// Keep the stack-op form: a real exchange swaps two physical slots'
	// contents, which plain flat F80Move cannot express as one node
	// without a temporary. The interpreter still executes this directly.
	delete(p.stores, entryKey(p.resolve(ir.FPR(0)), p.compileTop))
	delete(p.stores, entryKey(i, p.compileTop))
	p.virtual.Exchange(logical)
	return n
}

func (p *Pass) lowerArith(n *ir.Node, flat ir.Opcode) *ir.Node {
	logical := int8(n.Args[0].Reg)
	a := p.resolve(n.Args[0])
	b := p.resolve(n.Args[1])
	n.Op = flat
	n.Args[0] = a
	n.Args[1] = b
	n.Dest = a
	p.stores[entryKey(a, p.compileTop)] = n
	p.virtual.Set(logical, StackMember{Kind: StackValid, Value: n})
	return n
}

// adjustTopNode reconciles the architectural Top with every fast-lowered
// push/pop this pass folded into fixed-Top slot writes, emitted once at
// the tail of a block the fast path carried all the way through.
func adjustTopNode(delta int8) *ir.Node {
	n := ir.NewNode(ir.OpAdjustTop, ir.OpRef{})
	n.Aux = uint64(uint8(delta))
	return n
}
