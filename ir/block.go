package ir

// Block is one basic block: a straight-line run of Nodes ending in a
// control-transfer opcode. The x87 stack-optimization pass consumes a
// CodeBlock and produces a new one rather than mutating Nodes in place, so
// Block intentionally carries no back-pointer to whatever produced it.
type Block struct {
	Name  string
	Nodes []*Node
}

// Append adds n to the end of the block and returns n, so callers can chain
// construction the way the teacher's table-driven handlers build up a
// stepInfo before dispatch.
func (b *Block) Append(n *Node) *Node {
	b.Nodes = append(b.Nodes, n)
	return n
}

// Emit is a convenience wrapper around Append + NewNode.
func (b *Block) Emit(op Opcode, dest OpRef, args ...OpRef) *Node {
	return b.Append(NewNode(op, dest, args...))
}

// Terminator returns the block's final node, or nil for an empty block.
// A well-formed block's terminator always satisfies Info(op).Terminator.
func (b *Block) Terminator() *Node {
	if len(b.Nodes) == 0 {
		return nil
	}
	return b.Nodes[len(b.Nodes)-1]
}

// CodeBlock is a unit of translation: an entry block plus every block it
// can reach, in layout order. It is the unit the x87 pass rewrites and the
// interpreter executes one at a time.
type CodeBlock struct {
	Entry       *Block
	Blocks      []*Block
	GuestLen    uint32 // bytes of guest code this block was decoded from
	EntryPC     uint64
}

// NewCodeBlock allocates an empty code block with a single entry block.
func NewCodeBlock(entryPC uint64) *CodeBlock {
	entry := &Block{Name: "entry"}
	return &CodeBlock{Entry: entry, Blocks: []*Block{entry}, EntryPC: entryPC}
}

// NewBlock allocates and registers a new block within cb.
func (cb *CodeBlock) NewBlock(name string) *Block {
	b := &Block{Name: name}
	cb.Blocks = append(cb.Blocks, b)
	return b
}
