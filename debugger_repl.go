package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DebuggerREPL is a line-oriented command loop over a single CPU's debug
// hooks (debug.go), for --debug/--debugc runs. Command vocabulary
// (step/regs/cregs/break/watch/mem/continue/quit) is grounded on
// original_source's debugger command set, widened from its single-CPU
// assumption to operate against whichever CPU the VM is built with
// (spec.md §9 already pins Cores=1 whenever the debugger is attached).
type DebuggerREPL struct {
	vm          *VM
	core        *CPU
	out         io.Writer
	breakpoints map[uint32]bool
	quit        bool
}

// NewDebuggerREPL creates a REPL over core 0 of vm.
func NewDebuggerREPL(vm *VM, out io.Writer) *DebuggerREPL {
	return &DebuggerREPL{
		vm:          vm,
		core:        vm.Cores[0],
		out:         out,
		breakpoints: make(map[uint32]bool),
	}
}

// Run reads commands from r until "quit" or EOF.
func (d *DebuggerREPL) Run(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for !d.quit && scanner.Scan() {
		d.dispatch(strings.TrimSpace(scanner.Text()))
	}
}

func (d *DebuggerREPL) dispatch(line string) {
	if line == "" {
		return
	}
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "step", "s":
		d.cmdStep()
	case "continue", "c":
		d.cmdContinue()
	case "regs", "r":
		d.cmdRegs()
	case "cregs":
		d.cmdCRegs()
	case "break", "b":
		d.cmdBreak(args)
	case "watch", "w":
		d.cmdWatch(args)
	case "mem", "m":
		d.cmdMem(args)
	case "quit", "q":
		d.quit = true
	default:
		fmt.Fprintf(d.out, "unknown command: %s\n", cmd)
	}
}

func (d *DebuggerREPL) cmdStep() {
	outcome := d.core.Step()
	fmt.Fprintf(d.out, "pc=0x%08X %s\n", d.core.PC(), outcome)
	d.reportWatch()
}

func (d *DebuggerREPL) cmdContinue() {
	for {
		outcome := d.core.Step()
		if d.reportWatch() {
			return
		}
		if d.breakpoints[d.core.PC()] {
			fmt.Fprintf(d.out, "breakpoint hit at 0x%08X\n", d.core.PC())
			return
		}
		if outcome == Sleeping && d.core.halted {
			fmt.Fprintf(d.out, "halted, r1=0x%08X\n", d.core.GetReg(1))
			return
		}
	}
}

func (d *DebuggerREPL) reportWatch() bool {
	hit := d.core.PullWatchHit()
	if hit == nil {
		return false
	}
	fmt.Fprintf(d.out, "watchpoint hit at 0x%08X old=0x%02X new=0x%02X\n",
		hit.Address, hit.OldValue, hit.NewValue)
	return true
}

func (d *DebuggerREPL) cmdRegs() {
	regs := d.core.Registers()
	for i, v := range regs {
		fmt.Fprintf(d.out, "r%-2d = 0x%08X", i, v)
		if i%4 == 3 {
			fmt.Fprintln(d.out)
		} else {
			fmt.Fprint(d.out, "  ")
		}
	}
	fmt.Fprintf(d.out, "pc  = 0x%08X\n", d.core.PC())
}

func (d *DebuggerREPL) cmdCRegs() {
	names := []string{"PSR", "PID", "ISR", "IMR", "EPC", "FLG", "CDV", "TLB", "KSP", "CID", "MBI", "MBO"}
	cr := d.core.ControlRegisters()
	for i, n := range names {
		fmt.Fprintf(d.out, "%-4s = 0x%08X\n", n, cr[i])
	}
}

func (d *DebuggerREPL) cmdBreak(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(d.out, "usage: break <hex-addr>")
		return
	}
	addr, err := strconv.ParseUint(args[0], 16, 32)
	if err != nil {
		fmt.Fprintf(d.out, "bad address: %v\n", err)
		return
	}
	d.breakpoints[uint32(addr)] = true
}

func (d *DebuggerREPL) cmdWatch(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(d.out, "usage: watch <hex-addr> <r|w|rw>")
		return
	}
	addr, err := strconv.ParseUint(args[0], 16, 32)
	if err != nil {
		fmt.Fprintf(d.out, "bad address: %v\n", err)
		return
	}
	var kind WatchKind
	switch args[1] {
	case "r":
		kind = WatchRead
	case "w":
		kind = WatchWrite
	case "rw":
		kind = WatchReadWrite
	default:
		fmt.Fprintln(d.out, "kind must be r, w, or rw")
		return
	}
	d.core.SetWatchpoint(uint32(addr), kind)
}

func (d *DebuggerREPL) cmdMem(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(d.out, "usage: mem <hex-addr>")
		return
	}
	addr, err := strconv.ParseUint(args[0], 16, 32)
	if err != nil {
		fmt.Fprintf(d.out, "bad address: %v\n", err)
		return
	}
	v, ok := d.core.ReadVirtDebug(uint32(addr))
	if !ok {
		fmt.Fprintln(d.out, "no translation for that address")
		return
	}
	fmt.Fprintf(d.out, "0x%08X = 0x%02X\n", addr, v)
}
