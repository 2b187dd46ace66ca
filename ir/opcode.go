/*
   IR: opcode catalogue.

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

// Opcode is a dense numeric ID from the closed catalogue below. Unlike the
// teacher's 8-bit architectural opcode byte, IR opcodes are an internal
// enumeration: the decoder maps guest instructions onto these.
type Opcode uint16

// Opcode catalogue. Grouped by functional family to match the interpreter's
// package layout (one file per group). Values are stable once assigned:
// they appear in cached IR, so an entry is never renumbered once released.
const (
	OpInvalid Opcode = iota

	// Constant / immediate.
	OpConstant
	OpEntrypointPC

	// Integer ALU.
	OpAdd
	OpSub
	OpNeg
	OpAbs
	OpMul
	OpUMul
	OpMulH
	OpUMulH
	OpDiv
	OpUDiv
	OpRem
	OpURem
	OpLDiv
	OpLUDiv

	// Bitwise / shift.
	OpAnd
	OpOr
	OpXor
	OpAndN
	OpNot
	OpLShl
	OpLShr
	OpAShr
	OpRor
	OpBfe
	OpSBfe
	OpBfi
	OpBfxil
	OpPopCount
	OpFindLSB
	OpFindMSB
	OpCountLeadingZeroes
	OpRev
	OpPDep
	OpPExt

	// NZCV flag emission.
	OpAddNZCV
	OpSubNZCV
	OpTestNZ

	// Conditional select.
	OpSelect

	// Context / register access.
	OpLoadContext
	OpStoreContext
	OpLoadContextIndexed
	OpStoreContextIndexed
	OpLoadRegister
	OpStoreRegister

	// Memory access.
	OpLoadMem
	OpStoreMem
	OpLoadMemTSO
	OpStoreMemTSO

	// Vector SIMD.
	OpVAdd
	OpVSub
	OpVUQAdd
	OpVSQAdd
	OpVUQSub
	OpVSQSub
	OpVAddP
	OpVAddV
	OpVUMin
	OpVSMin
	OpVUMax
	OpVSMax
	OpVAbs
	OpVPopCount
	OpVMul
	OpVUMul
	OpVUMulL
	OpVUMulL2
	OpVUAbdL
	OpVFAdd
	OpVFSub
	OpVFMul
	OpVFDiv
	OpVFMin
	OpVFMax
	OpVFRecp
	OpVFSqrt
	OpVFRSqrt
	OpVNeg
	OpVFNeg
	OpVAnd
	OpVBic
	OpVOr
	OpVXor
	OpVNot
	OpVZip
	OpVZip2
	OpVUnzip
	OpVTrn
	OpVTrn2
	OpVBsl
	OpVCmpEq
	OpVCmpGt
	OpVCmpEqZ
	OpVCmpGtZ
	OpVFCmpEq
	OpVFCmpNeq
	OpVFCmpLT
	OpVFCmpGT
	OpVFCmpLE
	OpVFCmpOrd
	OpVFCmpUno
	OpVUShl
	OpVUShr
	OpVSShr
	OpVSli
	OpVSri
	OpVUShrNI
	OpVUShrNI2
	OpVSXtl
	OpVSXtl2
	OpVUXtl
	OpVUXtl2
	OpVSQXtn
	OpVSQXtn2
	OpVSQXtun
	OpVSQXtun2
	OpVTbl1
	OpVRev32
	OpVRev64
	OpVBitcast
	OpVDupElement
	OpVExtr
	OpVExtractElement
	OpVInsElement
	OpVInsScalarElement
	OpVFCAdd

	// Float<->int conversions.
	OpFloatFromGPR_S
	OpFloatFToF
	OpFloatToGPR_S
	OpFloatToGPR_ZS
	OpVectorSToF
	OpVectorFToS
	OpVectorFToZS
	OpVectorFToF
	OpVectorFToI

	// x87-specific post-lowering.
	OpF80LoadFCW
	OpF80Cvt
	OpF80CvtInt
	OpF80CvtTo
	OpF80CvtToInt
	OpF80Cmp
	OpF80Add
	OpF80Sub
	OpF80Mul
	OpF80Div
	OpF80Atan
	OpF80Fyl2x
	OpF80Fprem
	OpF80Fprem1
	OpF80Scale
	OpF80Sqrt
	OpF80Sin
	OpF80Cos
	OpF80SinCos
	OpF80Tan
	OpF80F2xm1
	OpF80BCDLoad
	OpF80BCDStore
	OpF80Round
	OpF80XtractExp
	OpF80XtractSig
	OpF64Add
	OpF64Sub
	OpF64Mul
	OpF64Div

	// Rounding mode get/set.
	OpGetRoundingMode
	OpSetRoundingMode

	// Control transfer.
	OpJump
	OpCondJump
	OpExitFunction
	OpCallbackReturn
	OpSignalReturn
	OpSyscall
	OpThunk

	// Atomics.
	OpCAS
	OpCASPair
	OpAtomicAdd
	OpAtomicSub
	OpAtomicAnd
	OpAtomicOr
	OpAtomicXor
	OpAtomicSwap
	OpAtomicNeg
	OpAtomicFetchAdd
	OpAtomicFetchSub
	OpAtomicFetchAnd
	OpAtomicFetchOr
	OpAtomicFetchXor
	OpAtomicFetchSwap

	// Fences.
	OpFenceLoad
	OpFenceStore
	OpFenceLoadStore

	// SSE4.2 string compare.
	OpVPCmpestrx
	OpVPCmpistrx

	// x87 stack-op family: the pre-lowering shape the decoder emits for
	// FLD/FSTP/FXCH/arithmetic-with-implicit-ST-operands, before the x87
	// stack optimization pass resolves ST(i) to flat physical-slot F80 ops.
	OpPushStack
	OpPopStackDestroy
	OpCopyPushStack
	OpReadStackValue
	OpF80StackXchange
	OpF80CmpStack
	OpF80VbslStack
	OpF80AddStack
	OpF80SubStack
	OpF80MulStack
	OpF80DivStack
	OpF80AtanStack
	OpF80Fyl2xStack
	OpF80FpremStack
	OpF80Fprem1Stack
	OpF80ScaleStack
	OpF80Move // x87-pass-internal physical-slot copy; no guest encoding of its own

	// OpAdjustTop rotates State.Top by a signed delta (packed into Aux)
	// without touching any X87 slot's contents, letting the x87 stack pass
	// fast-path a whole run of pushes/pops as flat slot writes against a
	// compile-time-fixed Top and reconcile the architectural Top once, at
	// the point a slow-path node or the next block needs it to be real
	// again.
	OpAdjustTop

	// Misc.
	OpPrint
	OpProcessorID
	OpCycleCounter
	OpRDRand
	OpBreak
	OpCacheLineClear
	OpValidateCode

	numOpcodes
)

// NumOpcodes is the size the dispatch table must allocate.
const NumOpcodes = int(numOpcodes)

// OpInfo is the per-opcode catalogue entry spec.md §4.A requires: mnemonic,
// argument count, destination-ness, block-terminator-ness, side-effect-ness,
// and the flag subset read/written.
type OpInfo struct {
	Mnemonic    string
	Args        uint8
	HasDest     bool
	Terminator  bool
	SideEffect  bool
	FlagsRead   uint8
	FlagsWrite  uint8
}

var catalogue [numOpcodes]OpInfo

// define installs one catalogue entry. Called only from init() below so the
// table is built once and never touched again (mirrors the teacher's
// createTable() one-shot construction).
func define(op Opcode, mnemonic string, args uint8, hasDest, terminator, sideEffect bool, flagsRead, flagsWrite uint8) {
	catalogue[op] = OpInfo{
		Mnemonic:   mnemonic,
		Args:       args,
		HasDest:    hasDest,
		Terminator: terminator,
		SideEffect: sideEffect,
		FlagsRead:  flagsRead,
		FlagsWrite: flagsWrite,
	}
}

// Info returns the catalogue entry for op. Unknown/unassigned opcodes return
// a zero-value entry with an empty mnemonic; the interpreter's "not
// implemented" handler detects that to report an unknown-opcode error.
func Info(op Opcode) OpInfo {
	if int(op) >= len(catalogue) {
		return OpInfo{}
	}
	return catalogue[op]
}

const (
	flagN uint8 = 1 << iota
	flagZ
	flagC
	flagV
)

func init() {
	define(OpConstant, "constant", 0, true, false, false, 0, 0)
	define(OpEntrypointPC, "entrypoint_pc", 0, true, false, false, 0, 0)

	define(OpAdd, "add", 2, true, false, false, 0, 0)
	define(OpSub, "sub", 2, true, false, false, 0, 0)
	define(OpNeg, "neg", 1, true, false, false, 0, 0)
	define(OpAbs, "abs", 1, true, false, false, 0, 0)
	define(OpMul, "mul", 2, true, false, false, 0, 0)
	define(OpUMul, "umul", 2, true, false, false, 0, 0)
	define(OpMulH, "mulh", 2, true, false, false, 0, 0)
	define(OpUMulH, "umulh", 2, true, false, false, 0, 0)
	define(OpDiv, "div", 2, true, false, false, 0, 0)
	define(OpUDiv, "udiv", 2, true, false, false, 0, 0)
	define(OpRem, "rem", 2, true, false, false, 0, 0)
	define(OpURem, "urem", 2, true, false, false, 0, 0)
	define(OpLDiv, "ldiv", 3, true, false, false, 0, 0)
	define(OpLUDiv, "ludiv", 3, true, false, false, 0, 0)

	define(OpAnd, "and", 2, true, false, false, 0, 0)
	define(OpOr, "or", 2, true, false, false, 0, 0)
	define(OpXor, "xor", 2, true, false, false, 0, 0)
	define(OpAndN, "andn", 2, true, false, false, 0, 0)
	define(OpNot, "not", 1, true, false, false, 0, 0)
	define(OpLShl, "lshl", 2, true, false, false, 0, 0)
	define(OpLShr, "lshr", 2, true, false, false, 0, 0)
	define(OpAShr, "ashr", 2, true, false, false, 0, 0)
	define(OpRor, "ror", 2, true, false, false, 0, 0)
	define(OpBfe, "bfe", 3, true, false, false, 0, 0)
	define(OpSBfe, "sbfe", 3, true, false, false, 0, 0)
	define(OpBfi, "bfi", 4, true, false, false, 0, 0)
	define(OpBfxil, "bfxil", 4, true, false, false, 0, 0)
	define(OpPopCount, "popcount", 1, true, false, false, 0, 0)
	define(OpFindLSB, "findlsb", 1, true, false, false, 0, 0)
	define(OpFindMSB, "findmsb", 1, true, false, false, 0, 0)
	define(OpCountLeadingZeroes, "clz", 1, true, false, false, 0, 0)
	define(OpRev, "rev", 1, true, false, false, 0, 0)
	define(OpPDep, "pdep", 2, true, false, false, 0, 0)
	define(OpPExt, "pext", 2, true, false, false, 0, 0)

	define(OpAddNZCV, "addnzcv", 2, true, false, false, 0, flagN|flagZ|flagC|flagV)
	define(OpSubNZCV, "subnzcv", 2, true, false, false, 0, flagN|flagZ|flagC|flagV)
	define(OpTestNZ, "testnz", 1, true, false, false, 0, flagN|flagZ)

	define(OpSelect, "select", 2, true, false, false, flagN|flagZ|flagC|flagV, 0)

	define(OpLoadContext, "loadcontext", 1, true, false, false, 0, 0)
	define(OpStoreContext, "storecontext", 2, false, false, true, 0, 0)
	define(OpLoadContextIndexed, "loadcontextindexed", 3, true, false, false, 0, 0)
	define(OpStoreContextIndexed, "storecontextindexed", 4, false, false, true, 0, 0)
	define(OpLoadRegister, "loadregister", 1, true, false, false, 0, 0)
	define(OpStoreRegister, "storeregister", 2, false, false, true, 0, 0)

	define(OpLoadMem, "loadmem", 1, true, false, false, 0, 0)
	define(OpStoreMem, "storemem", 2, false, false, true, 0, 0)
	define(OpLoadMemTSO, "loadmemtso", 1, true, false, true, 0, 0)
	define(OpStoreMemTSO, "storememtso", 2, false, false, true, 0, 0)

	for op := OpVAdd; op <= OpVFCAdd; op++ {
		define(op, "v", 2, true, false, false, 0, 0)
	}

	define(OpFloatFromGPR_S, "float_fromgpr_s", 1, true, false, false, 0, 0)
	define(OpFloatFToF, "float_ftof", 1, true, false, false, 0, 0)
	define(OpFloatToGPR_S, "float_togpr_s", 1, true, false, false, 0, 0)
	define(OpFloatToGPR_ZS, "float_togpr_zs", 1, true, false, false, 0, 0)
	define(OpVectorSToF, "vector_stof", 1, true, false, false, 0, 0)
	define(OpVectorFToS, "vector_ftos", 1, true, false, false, 0, 0)
	define(OpVectorFToZS, "vector_ftozs", 1, true, false, false, 0, 0)
	define(OpVectorFToF, "vector_ftof", 1, true, false, false, 0, 0)
	define(OpVectorFToI, "vector_ftoi", 1, true, false, false, 0, 0)

	define(OpF80LoadFCW, "f80loadfcw", 1, false, false, true, 0, 0)
	define(OpF80Cvt, "f80cvt", 1, true, false, false, 0, 0)
	define(OpF80CvtInt, "f80cvtint", 1, true, false, false, 0, 0)
	define(OpF80CvtTo, "f80cvtto", 1, true, false, false, 0, 0)
	define(OpF80CvtToInt, "f80cvttoint", 1, true, false, false, 0, 0)
	define(OpF80Cmp, "f80cmp", 2, true, false, false, 0, 0)
	define(OpF80Add, "f80add", 2, true, false, false, 0, 0)
	define(OpF80Sub, "f80sub", 2, true, false, false, 0, 0)
	define(OpF80Mul, "f80mul", 2, true, false, false, 0, 0)
	define(OpF80Div, "f80div", 2, true, false, false, 0, 0)
	define(OpF80Atan, "f80atan", 2, true, false, false, 0, 0)
	define(OpF80Fyl2x, "f80fyl2x", 2, true, false, false, 0, 0)
	define(OpF80Fprem, "f80fprem", 2, true, false, false, 0, 0)
	define(OpF80Fprem1, "f80fprem1", 2, true, false, false, 0, 0)
	define(OpF80Scale, "f80scale", 2, true, false, false, 0, 0)
	define(OpF80Sqrt, "f80sqrt", 1, true, false, false, 0, 0)
	define(OpF80Sin, "f80sin", 1, true, false, false, 0, 0)
	define(OpF80Cos, "f80cos", 1, true, false, false, 0, 0)
	define(OpF80SinCos, "f80sincos", 1, true, false, false, 0, 0)
	define(OpF80Tan, "f80tan", 1, true, false, false, 0, 0)
	define(OpF80F2xm1, "f80f2xm1", 1, true, false, false, 0, 0)
	define(OpF80BCDLoad, "f80bcdload", 1, true, false, false, 0, 0)
	define(OpF80BCDStore, "f80bcdstore", 1, true, false, false, 0, 0)
	define(OpF80Round, "f80round", 1, true, false, false, 0, 0)
	define(OpF80XtractExp, "f80xtract_exp", 1, true, false, false, 0, 0)
	define(OpF80XtractSig, "f80xtract_sig", 1, true, false, false, 0, 0)
	define(OpF64Add, "f64add", 2, true, false, false, 0, 0)
	define(OpF64Sub, "f64sub", 2, true, false, false, 0, 0)
	define(OpF64Mul, "f64mul", 2, true, false, false, 0, 0)
	define(OpF64Div, "f64div", 2, true, false, false, 0, 0)

	define(OpGetRoundingMode, "getroundingmode", 0, true, false, false, 0, 0)
	define(OpSetRoundingMode, "setroundingmode", 1, false, false, true, 0, 0)

	define(OpJump, "jump", 0, false, true, false, 0, 0)
	define(OpCondJump, "condjump", 0, false, true, false, flagN|flagZ|flagC|flagV, 0)
	define(OpExitFunction, "exitfunction", 1, false, true, true, 0, 0)
	define(OpCallbackReturn, "callbackreturn", 0, false, true, true, 0, 0)
	define(OpSignalReturn, "signalreturn", 0, false, true, true, 0, 0)
	define(OpSyscall, "syscall", 7, true, false, true, 0, 0)
	define(OpThunk, "thunk", 1, true, false, true, 0, 0)

	define(OpCAS, "cas", 3, true, false, true, 0, 0)
	define(OpCASPair, "caspair", 4, true, false, true, 0, 0)
	// The void family (LOCK ADD et al.) discards the prior value: no Dest.
	for op := OpAtomicAdd; op <= OpAtomicNeg; op++ {
		define(op, "atomic", 2, false, false, true, 0, 0)
	}
	// The fetch family returns the pre-update memory value in Dest.
	for op := OpAtomicFetchAdd; op <= OpAtomicFetchSwap; op++ {
		define(op, "atomic", 2, true, false, true, 0, 0)
	}

	define(OpFenceLoad, "fence_load", 0, false, false, true, 0, 0)
	define(OpFenceStore, "fence_store", 0, false, false, true, 0, 0)
	define(OpFenceLoadStore, "fence_loadstore", 0, false, false, true, 0, 0)

	define(OpVPCmpestrx, "vpcmpestrx", 4, true, false, false, 0, flagN|flagZ|flagC|flagV)
	define(OpVPCmpistrx, "vpcmpistrx", 2, true, false, false, 0, flagN|flagZ|flagC|flagV)

	define(OpPushStack, "pushstack", 1, false, false, true, 0, 0)
	define(OpPopStackDestroy, "popstackdestroy", 0, false, false, true, 0, 0)
	define(OpCopyPushStack, "copypushstack", 1, false, false, true, 0, 0)
	define(OpReadStackValue, "readstackvalue", 1, true, false, false, 0, 0)
	define(OpF80StackXchange, "f80stackxchange", 1, false, false, true, 0, 0)
	define(OpF80CmpStack, "f80cmpstack", 2, true, false, false, 0, 0)
	define(OpF80VbslStack, "f80vblstack", 3, false, false, true, 0, 0)
	define(OpF80AddStack, "f80addstack", 2, false, false, true, 0, 0)
	define(OpF80SubStack, "f80substack", 2, false, false, true, 0, 0)
	define(OpF80MulStack, "f80mulstack", 2, false, false, true, 0, 0)
	define(OpF80DivStack, "f80divstack", 2, false, false, true, 0, 0)
	define(OpF80AtanStack, "f80atanstack", 2, false, false, true, 0, 0)
	define(OpF80Fyl2xStack, "f80fyl2xstack", 2, false, false, true, 0, 0)
	define(OpF80FpremStack, "f80fpremstack", 2, false, false, true, 0, 0)
	define(OpF80Fprem1Stack, "f80fprem1stack", 2, false, false, true, 0, 0)
	define(OpF80ScaleStack, "f80scalestack", 2, false, false, true, 0, 0)
	define(OpF80Move, "f80move", 1, true, false, false, 0, 0)
	define(OpAdjustTop, "adjusttop", 0, false, false, true, 0, 0)

	define(OpPrint, "print", 1, false, false, true, 0, 0)
	define(OpProcessorID, "processorid", 0, true, false, true, 0, 0)
	define(OpCycleCounter, "cyclecounter", 0, true, false, true, 0, 0)
	define(OpRDRand, "rdrand", 0, true, false, true, 0, 0)
	define(OpBreak, "break", 1, false, true, true, 0, 0)
	define(OpCacheLineClear, "cachelineclear", 1, false, false, true, 0, 0)
	define(OpValidateCode, "validatecode", 2, true, false, false, 0, 0)
}
