package x87opt

import (
	"testing"

	"github.com/rcornwell/x86ir/ir"
)

func TestLowerPushAddPopResolvesToFlatF80(t *testing.T) {
	blk := &ir.Block{}
	push := ir.NewNode(ir.OpPushStack, ir.OpRef{}, ir.FPR(3))
	add := ir.NewNode(ir.OpF80AddStack, ir.OpRef{}, ir.FPR(0), ir.FPR(1))
	pop := ir.NewNode(ir.OpPopStackDestroy, ir.OpRef{})
	blk.Append(push)
	blk.Append(add)
	blk.Append(pop)
	blk.Emit(ir.OpExitFunction, ir.OpRef{})

	cb := &ir.CodeBlock{Entry: blk, Blocks: []*ir.Block{blk}}

	p := NewPass()
	out, _ := p.Rewrite(cb)

	got := out.Entry.Nodes
	if len(got) != 4 {
		t.Fatalf("rewritten block has %d nodes, want 4", len(got))
	}
	if got[0].Op != ir.OpF80Move {
		t.Errorf("push should lower to OpF80Move, got %v", got[0].Op)
	}
	if got[1].Op != ir.OpF80Add {
		t.Errorf("stack add should lower to flat OpF80Add, got %v", got[1].Op)
	}
	// The add's operands are resolved against entry-relative slots: its
	// ST(0) is the value the preceding push just installed (entry slot 7,
	// one below entry's ST(0) once Top is held fixed), its ST(1) is the
	// caller's original entry ST(0).
	if got[1].Args[0].Reg != 7 || got[1].Args[1].Reg != 0 {
		t.Errorf("add operands = %v, %v; want 7, 0", got[1].Args[0].Reg, got[1].Args[1].Reg)
	}
	if got[2].Op != ir.OpF80Move {
		t.Errorf("pop should lower to a no-op OpF80Move, got %v", got[2].Op)
	}
}

func TestLowerReadStackValueReusesLastStore(t *testing.T) {
	blk := &ir.Block{}
	add := ir.NewNode(ir.OpF80AddStack, ir.OpRef{}, ir.FPR(0), ir.FPR(1))
	read := ir.NewNode(ir.OpReadStackValue, ir.GPR(5), ir.FPR(0))
	blk.Append(add)
	blk.Append(read)
	blk.Emit(ir.OpExitFunction, ir.OpRef{})

	cb := &ir.CodeBlock{Entry: blk, Blocks: []*ir.Block{blk}}

	p := NewPass()
	out, _ := p.Rewrite(cb)

	got := out.Entry.Nodes
	if got[1].Op != ir.OpF80Move {
		t.Fatalf("read should lower to OpF80Move, got %v", got[1].Op)
	}
	if got[1].Args[0] != got[0].Dest {
		t.Errorf("read should reuse the add's own dest %v directly, got %v", got[0].Dest, got[1].Args[0])
	}
}

func TestLoopBackEdgeTripsSlowPath(t *testing.T) {
	header := &ir.Block{Name: "header"}
	body := &ir.Block{Name: "body"}

	push := ir.NewNode(ir.OpPushStack, ir.OpRef{}, ir.FPR(0))
	body.Append(push)
	body.Emit(ir.OpCondJump, ir.OpRef{})
	body.Nodes[len(body.Nodes)-1].Target2 = header
	body.Nodes[len(body.Nodes)-1].Target = body

	header.Emit(ir.OpJump, ir.OpRef{})
	header.Nodes[len(header.Nodes)-1].Target = body

	cb := &ir.CodeBlock{Entry: header, Blocks: []*ir.Block{header, body}}

	p := NewPass()
	out, _ := p.Rewrite(cb)

	// The body block is reachable via its own back-edge (Target == body
	// itself), so that branch must trip the slow path rather than
	// keep resolving ST(i) indices against an unprovable depth.
	var bodyOut *ir.Block
	for _, b := range out.Blocks {
		if b.Name == "body" {
			bodyOut = b
		}
	}
	if bodyOut == nil {
		t.Fatal("rewritten CodeBlock missing body block")
	}
	if !p.slow {
		t.Error("revisiting a block via a back-edge should trip the pass to the slow path")
	}
}

func TestUnbalancedPushEmitsTopAdjustment(t *testing.T) {
	blk := &ir.Block{}
	push := ir.NewNode(ir.OpPushStack, ir.OpRef{}, ir.FPR(0))
	blk.Append(push)
	blk.Emit(ir.OpExitFunction, ir.OpRef{})
	cb := &ir.CodeBlock{Entry: blk, Blocks: []*ir.Block{blk}}

	p := NewPass()
	out, _ := p.Rewrite(cb)

	nodes := out.Entry.Nodes
	if len(nodes) != 3 {
		t.Fatalf("got %d nodes, want 3 (push, adjust-top, exit)", len(nodes))
	}
	if nodes[1].Op != ir.OpAdjustTop {
		t.Fatalf("expected OpAdjustTop before the terminator, got %v", nodes[1].Op)
	}
	if int8(nodes[1].Aux) != -1 {
		t.Errorf("adjust-top delta = %d, want -1", int8(nodes[1].Aux))
	}
}

func TestReadAfterPopTripsSlowPath(t *testing.T) {
	blk := &ir.Block{}
	push := ir.NewNode(ir.OpPushStack, ir.OpRef{}, ir.FPR(3))
	pop := ir.NewNode(ir.OpPopStackDestroy, ir.OpRef{})
	read := ir.NewNode(ir.OpReadStackValue, ir.GPR(5), ir.FPR(0))
	blk.Append(push)
	blk.Append(pop)
	blk.Append(read)
	blk.Emit(ir.OpExitFunction, ir.OpRef{})

	cb := &ir.CodeBlock{Entry: blk, Blocks: []*ir.Block{blk}}

	p := NewPass()
	out, _ := p.Rewrite(cb)

	if !p.slow {
		t.Error("reading a slot this block already popped should trip the slow path")
	}
	got := out.Entry.Nodes
	if got[2].Op != ir.OpReadStackValue {
		t.Errorf("once slow, the read should pass through unresolved, got %v", got[2].Op)
	}
}

func TestReadOfNeverWrittenSlotTripsSlowPath(t *testing.T) {
	blk := &ir.Block{}
	read := ir.NewNode(ir.OpReadStackValue, ir.GPR(5), ir.FPR(2))
	blk.Append(read)
	blk.Emit(ir.OpExitFunction, ir.OpRef{})

	cb := &ir.CodeBlock{Entry: blk, Blocks: []*ir.Block{blk}}

	p := NewPass()
	p.Rewrite(cb)

	if !p.slow {
		t.Error("reading ST(i) before anything in this block produced it should trip the slow path")
	}
}

func TestRewriteRegHintMarksSlowPathAllUnresolved(t *testing.T) {
	blk := &ir.Block{}
	read := ir.NewNode(ir.OpReadStackValue, ir.GPR(5), ir.FPR(2))
	blk.Append(read)
	blk.Emit(ir.OpExitFunction, ir.OpRef{})
	cb := &ir.CodeBlock{Entry: blk, Blocks: []*ir.Block{blk}}

	p := NewPass()
	_, hint := p.Rewrite(cb)

	if len(hint.Resolved) != 0 {
		t.Errorf("Resolved = %v, want empty once the pass went slow", hint.Resolved)
	}
	if len(hint.Unresolved) != 8 {
		t.Errorf("Unresolved = %v, want all 8 physical slots", hint.Unresolved)
	}
}

func TestRewriteRegHintMarksPushedSlotResolved(t *testing.T) {
	blk := &ir.Block{}
	push := ir.NewNode(ir.OpPushStack, ir.OpRef{}, ir.FPR(0))
	blk.Append(push)
	blk.Emit(ir.OpExitFunction, ir.OpRef{})
	cb := &ir.CodeBlock{Entry: blk, Blocks: []*ir.Block{blk}}

	p := NewPass()
	_, hint := p.Rewrite(cb)

	found := false
	for _, s := range hint.Resolved {
		if s == 7 {
			found = true
		}
	}
	if !found {
		t.Errorf("Resolved = %v, want physical slot 7 (the pushed value)", hint.Resolved)
	}
}

func TestExchangeKeepsStackForm(t *testing.T) {
	blk := &ir.Block{}
	xchg := ir.NewNode(ir.OpF80StackXchange, ir.OpRef{}, ir.FPR(2))
	blk.Append(xchg)
	blk.Emit(ir.OpExitFunction, ir.OpRef{})
	cb := &ir.CodeBlock{Entry: blk, Blocks: []*ir.Block{blk}}

	p := NewPass()
	out, _ := p.Rewrite(cb)

	if out.Entry.Nodes[0].Op != ir.OpF80StackXchange {
		t.Errorf("exchange must stay in stack form for the interpreter's runtime slot swap, got %v", out.Entry.Nodes[0].Op)
	}
}
