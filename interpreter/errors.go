package interpreter

import "errors"

var (
	errDivideByZero  = errors.New("integer divide by zero")
	errDivideOverflow = errors.New("integer divide overflow")
	errStackUnderflow = errors.New("x87 stack underflow")
	errUnalignedAtomic = errors.New("misaligned atomic access")
	errUnimplementedSyscall = errors.New("syscall opcode with no fallback handler registered")
	errUnimplementedThunk   = errors.New("thunk opcode with no fallback handler registered")
)
