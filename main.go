/*
 * x86ir - Main process.
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

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	getopt "github.com/pborman/getopt/v2"
	"github.com/peterh/liner"

	"github.com/rcornwell/x86ir/config"
	"github.com/rcornwell/x86ir/cpustate"
	"github.com/rcornwell/x86ir/interpreter"
	"github.com/rcornwell/x86ir/ir"
	"github.com/rcornwell/x86ir/symbolmap"
	"github.com/rcornwell/x86ir/syscallabi"
	"github.com/rcornwell/x86ir/util/logger"
	"github.com/rcornwell/x86ir/x87opt"
)

var Logger *slog.Logger

const defaultMemSize = 1 << 24 // 16MiB guest address space

func main() {
	optConfig := getopt.StringLong("config", 'c', "", "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if optLogFile != nil && *optLogFile != "" {
		file, _ = os.Create(*optLogFile)
	}
	debug := false
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelInfo)
	Logger = slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}, &debug))
	slog.SetDefault(Logger)

	Logger.Info("x86ir started")

	memSize := uint64(defaultMemSize)
	reducedPrecision := false
	var symbols *symbolmap.Writer

	config.RegisterOption("memsize", func(v string) error {
		n, err := strconv.ParseUint(v, 0, 64)
		if err != nil {
			return fmt.Errorf("memsize: %w", err)
		}
		memSize = n
		return nil
	})
	config.RegisterSwitch("reduced-precision", func() error {
		reducedPrecision = true
		return nil
	})
	config.RegisterSwitch("symbol-map", func() error {
		w, err := symbolmap.Open()
		if err != nil {
			return err
		}
		symbols = w
		return nil
	})
	config.RegisterSwitch("debug", func() error {
		debug = true
		programLevel.Set(slog.LevelDebug)
		return nil
	})

	if optConfig != nil && *optConfig != "" {
		if err := config.LoadConfigFile(*optConfig); err != nil {
			Logger.Error(err.Error())
			os.Exit(1)
		}
	}
	if symbols != nil {
		defer symbols.Close()
	}

	mem := cpustate.NewMemory(memSize)
	state := cpustate.NewState(mem)
	in := interpreter.New(state, Logger)
	in.ReducedPrecision = reducedPrecision
	in.Fallback = interpreter.FallbackTable{
		ir.OpSyscall: syscallFallback(syscallabi.Unimplemented),
	}

	console(in, symbols)

	Logger.Info("x86ir shutting down")
}

// syscallFallback adapts a syscallabi.Dispatcher to the interpreter's
// Fallback entry shape, unpacking the guest's Linux x86-64 syscall
// register convention (nr in GPR0, up to six arguments in GPR1..GPR6)
// and writing the returned value back into GPR0.
func syscallFallback(d syscallabi.Dispatcher) func(*interpreter.Interpreter, *ir.Node) error {
	return func(in *interpreter.Interpreter, n *ir.Node) error {
		g := &in.State.GPR
		ret, _ := d.Syscall(g[0], g[1], g[2], g[3], g[4], g[5], g[6])
		g[0] = ret
		return nil
	}
}

// console runs a small interactive REPL (liner, the same library the
// teacher uses for its operator console) for inspecting and single-stepping
// guest state; a real front end would instead feed Interpreter.Run a stream
// of CodeBlocks decoded off the wire, the way "run" below feeds it one
// built by hand.
func console(in *interpreter.Interpreter, symbols *symbolmap.Writer) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for {
		input, err := line.Prompt("x86ir> ")
		if err != nil {
			return
		}
		line.AppendHistory(input)
		switch input {
		case "quit", "exit":
			return
		case "regs":
			for i, v := range in.State.GPR {
				fmt.Printf("r%d = %#x\n", i, v)
			}
		case "run":
			if err := runDemoBlock(in, symbols); err != nil {
				fmt.Printf("run: %v\n", err)
			} else {
				fmt.Printf("ran demo block: Top=%d FSW=%#x\n", in.State.Top, in.State.FSW)
			}
		case "":
			// ignore blank lines
		default:
			fmt.Printf("unknown command %q\n", input)
		}
	}
}

// runDemoBlock builds one small CodeBlock exercising the x87 stack (push
// two operands, add them in place at ST(0), pop the result), runs it
// through the stack-optimization pass, records its translation in the
// process's symbol map when one is open, then executes the lowered
// block. It stands in for the decoder a real front end would otherwise
// drive this same translate/run pipeline from.
func runDemoBlock(in *interpreter.Interpreter, symbols *symbolmap.Writer) error {
	const entryPC = 0x401000

	blk := &ir.Block{Name: "demo"}
	blk.Emit(ir.OpPushStack, ir.OpRef{}, ir.Imm(3))
	blk.Emit(ir.OpPushStack, ir.OpRef{}, ir.Imm(4))
	blk.Emit(ir.OpF80AddStack, ir.OpRef{}, ir.FPR(0), ir.FPR(1))
	blk.Emit(ir.OpPopStackDestroy, ir.OpRef{})
	blk.Emit(ir.OpExitFunction, ir.OpRef{})

	cb := &ir.CodeBlock{Entry: blk, Blocks: []*ir.Block{blk}, EntryPC: entryPC, GuestLen: 16}

	opt, hint := x87opt.NewPass().Rewrite(cb)
	Logger.Debug("stack pass rewrote demo block",
		"resolved", hint.Resolved, "unresolved", hint.Unresolved)

	if symbols != nil {
		if err := symbols.Record(cb.EntryPC, uint64(cb.GuestLen), "demo_block"); err != nil {
			return fmt.Errorf("symbol map: %w", err)
		}
	}

	return in.Run(opt)
}
