/*
 * x86ir - perf symbol map writer
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

// Package symbolmap appends translated-block symbol records to
// /tmp/perf-<pid>.map, the format external samplers (Linux perf,
// "jitdump" consumers) read to resolve JIT addresses back to names.
package symbolmap

import (
	"fmt"
	"os"
	"sync"
)

// Writer appends records to the running process's perf map file. The
// zero value is not usable; construct with Open.
type Writer struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// Open creates (or truncates) /tmp/perf-<pid>.map for the current process.
func Open() (*Writer, error) {
	path := fmt.Sprintf("/tmp/perf-%d.map", os.Getpid())
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &Writer{path: path, f: f}, nil
}

// Record appends one "<hex addr> <hex size> <name>" line describing a
// freshly translated block.
func (w *Writer) Record(addr, size uint64, name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	line := fmt.Sprintf("%x %x %s\n", addr, size, name)
	if _, err := w.f.WriteString(line); err != nil {
		// A remote profiler (perf itself) can close this fd out from
		// under us once it's done sampling; reopen once and retry
		// rather than treating that as a fatal write error.
		if reopenErr := w.reopen(); reopenErr != nil {
			return err
		}
		_, err = w.f.WriteString(line)
		return err
	}
	return nil
}

func (w *Writer) reopen() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	_ = w.f.Close()
	w.f = f
	return nil
}

// Close releases the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}
