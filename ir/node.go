package ir

// OpRef is an operand reference: either a source register, a source vector
// register, an SSA value-pool slot, or an inline constant. Which field is
// meaningful is determined by Kind.
type OpRef struct {
	Kind  RefKind
	Reg   uint16 // RefGPR / RefFPR: physical slot index into cpustate. RefSSA: node ID into the value pool.
	Const uint64 // RefConst: the raw bit pattern, width given by the node's Size
}

// GPR builds a general-purpose-register operand reference.
func GPR(reg uint16) OpRef { return OpRef{Kind: RefGPR, Reg: reg} }

// FPR builds a vector/fp-register operand reference.
func FPR(reg uint16) OpRef { return OpRef{Kind: RefFPR, Reg: reg} }

// Imm builds an inline constant operand reference.
func Imm(v uint64) OpRef { return OpRef{Kind: RefConst, Const: v} }

// SSA builds a reference into the interpreter's transient value pool,
// addressed by node ID rather than by a fixed architectural slot. A block
// with more live temporaries than the 16-entry GPR file (or the 16-entry
// vector file) holds assigns the overflow here instead of reusing a
// physical index a register-allocation pass hasn't actually assigned yet;
// unlike RefGPR/RefFPR, id is not bounded to the size of any array in
// cpustate.State.
func SSA(id uint16) OpRef { return OpRef{Kind: RefSSA, Reg: id} }

// Node is one IR instruction. Dest is valid only when Info(Op).HasDest is
// true. ElemSize distinguishes a vector node's per-lane width from Size,
// its overall register width (e.g. 8 lanes of Size2 within a Size16 node).
type Node struct {
	Op        Opcode
	Dest      OpRef
	Args      [4]OpRef
	NumArgs   uint8
	Size      Size
	ElemSize  Size
	Order     MemOrder
	Round     RoundMode
	Cond      Condition
	FPMask    FPCompareMask
	Target    *Block // OpJump / OpCondJump fallthrough-less target
	Target2   *Block // OpCondJump taken target
	Aux       uint64 // opcode-specific extra immediate (shift amount, scale, lane index...)
}

// NewNode allocates a node for op with the given destination and arguments.
// Callers that need the auxiliary fields (Size, Round, Cond, ...) set them
// directly on the returned node.
func NewNode(op Opcode, dest OpRef, args ...OpRef) *Node {
	n := &Node{Op: op, Dest: dest}
	n.NumArgs = uint8(len(args))
	copy(n.Args[:], args)
	return n
}
