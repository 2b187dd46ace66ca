package ir

import "testing"

func TestBlockEmitAppends(t *testing.T) {
	b := &Block{Name: "b0"}
	n := b.Emit(OpAdd, GPR(1), GPR(2), GPR(3))
	if len(b.Nodes) != 1 || b.Nodes[0] != n {
		t.Fatalf("Emit did not append node")
	}
	if n.NumArgs != 2 {
		t.Errorf("NumArgs = %d, want 2", n.NumArgs)
	}
}

func TestBlockTerminatorEmpty(t *testing.T) {
	b := &Block{Name: "empty"}
	if b.Terminator() != nil {
		t.Errorf("expected nil terminator for empty block")
	}
}

func TestCodeBlockNewBlock(t *testing.T) {
	cb := NewCodeBlock(0x1000)
	if len(cb.Blocks) != 1 || cb.Blocks[0] != cb.Entry {
		t.Fatalf("NewCodeBlock should seed Blocks with the entry block")
	}
	b := cb.NewBlock("side_exit")
	if len(cb.Blocks) != 2 || cb.Blocks[1] != b {
		t.Fatalf("NewBlock did not register block")
	}
}
