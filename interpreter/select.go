package interpreter

import "github.com/rcornwell/x86ir/ir"

func init() {
	register(ir.OpSelect, opSelect)
}

// opSelect is the conditional-move primitive every x86 CMOVcc and SETcc
// lowers to: dest = cond ? args[0] : args[1], with the condition carried
// on the node's Cond field.
func opSelect(in *Interpreter, n *ir.Node) error {
	if evalCondition(in, n.Cond) {
		setGPR(in, n.Dest, getOperand(in, n.Args[0]), n.Size)
	} else {
		setGPR(in, n.Dest, getOperand(in, n.Args[1]), n.Size)
	}
	return nil
}
