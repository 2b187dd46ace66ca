/*
 * x86ir - Configuration file parser
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

// Package config parses the translator's plain-text configuration file:
// one "option = value" or bare switch per line, # comments, blank lines
// ignored. Options and switches are registered by the packages that own
// them (memsize, reduced-precision, symbol-map-path, debug) rather than
// hardcoded here, the same registration-callback idiom the device-model
// config format uses.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

type optionFunc func(value string) error
type switchFunc func() error

var (
	options = map[string]optionFunc{}
	switches = map[string]switchFunc{}
)

// RegisterOption registers a key=value option. Panics on duplicate
// registration: that is always a programming error, never user input.
func RegisterOption(name string, fn optionFunc) {
	if _, dup := options[name]; dup {
		panic("config: duplicate option " + name)
	}
	options[name] = fn
}

// RegisterSwitch registers a bare, valueless option.
func RegisterSwitch(name string, fn switchFunc) {
	if _, dup := switches[name]; dup {
		panic("config: duplicate switch " + name)
	}
	switches[name] = fn
}

// LoadConfigFile reads name and dispatches each line to its registered
// option or switch handler. An unrecognized key is an error: silently
// ignoring a typo'd option is worse than refusing to start.
func LoadConfigFile(name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	scan := bufio.NewScanner(f)
	lineNum := 0
	for scan.Scan() {
		lineNum++
		line := strings.TrimSpace(scan.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := dispatchLine(line); err != nil {
			return fmt.Errorf("%s:%d: %w", name, lineNum, err)
		}
	}
	return scan.Err()
}

func dispatchLine(line string) error {
	key, value, hasValue := strings.Cut(line, "=")
	key = strings.TrimSpace(key)
	if !hasValue {
		fn, ok := switches[key]
		if !ok {
			return fmt.Errorf("unknown switch %q", key)
		}
		return fn()
	}
	fn, ok := options[key]
	if !ok {
		return fmt.Errorf("unknown option %q", key)
	}
	return fn(strings.TrimSpace(value))
}
