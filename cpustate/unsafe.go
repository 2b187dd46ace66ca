package cpustate

import "unsafe"

// wordPtr and dwordPtr expose an aligned slice position as a pointer
// sync/atomic can operate on directly. Guest memory is a plain []byte so
// that vector and byte accesses stay simple; these two helpers are the
// only place that reaches past the slice abstraction, and only for
// addresses the caller has already range-checked. The atomic load/store
// paths use them only for naturally aligned addresses; CAS does not check
// alignment.

func wordPtr(buf []byte, addr uint64) unsafe.Pointer {
	return unsafe.Pointer(&buf[addr])
}

func dwordPtr(buf []byte, addr uint64) unsafe.Pointer {
	return unsafe.Pointer(&buf[addr])
}
