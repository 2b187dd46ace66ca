/*
 * x86ir - Host syscall ABI shim
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package syscallabi is the narrow boundary between the interpreter and
// whatever actually issues host syscalls on the guest's behalf. The
// interpreter never calls into the OS itself — OpSyscall/OpThunk always
// go through an interpreter.FallbackTable entry, and Dispatcher is the
// shape that entry is expected to hold underneath.
package syscallabi

// Dispatcher issues one host syscall using the guest's raw 7-register
// Linux x86-64 convention (number, 6 arguments) and returns the raw
// return value/errno the guest expects back in RAX.
type Dispatcher interface {
	Syscall(nr uint64, a1, a2, a3, a4, a5, a6 uint64) (ret uint64, errno uint64)
}

// Func adapts a plain function to Dispatcher, the same adapter idiom
// net/http.HandlerFunc uses.
type Func func(nr, a1, a2, a3, a4, a5, a6 uint64) (uint64, uint64)

func (f Func) Syscall(nr, a1, a2, a3, a4, a5, a6 uint64) (uint64, uint64) {
	return f(nr, a1, a2, a3, a4, a5, a6)
}

// Unimplemented is a Dispatcher that refuses every call, the default a
// host wires up before it has a real syscall backend.
var Unimplemented Dispatcher = Func(func(nr, _, _, _, _, _, _ uint64) (uint64, uint64) {
	const negENOSYS = ^uint64(38) + 1 // -ENOSYS in two's complement
	return negENOSYS, 38
})
