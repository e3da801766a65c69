package main

import "sync"

// StepOutcome is the result of executing (or attempting to execute) one
// instruction, reported by step_instruction (spec.md §4.7).
type StepOutcome int

const (
	Executed StepOutcome = iota
	Sleeping
	TlbMiss
)

func (o StepOutcome) String() string {
	switch o {
	case Executed:
		return "Executed"
	case Sleeping:
		return "Sleeping"
	case TlbMiss:
		return "TlbMiss"
	default:
		return "?"
	}
}

// CPU is one core of the Dioptase machine: register.file, flags,
// kernel/user mode, exception vectors, ALU, memory ops, atomics,
// branches, syscalls, and kernel instructions (spec.md §3/§4.4). Each
// core owns its TLB, register file, PC and timer state exclusively; the
// bus and interrupt controller are shared (spec.md §5).
type CPU struct {
	id int

	mu  sync.Mutex // not locked by any method; gpr/cr/pc access is unsynchronized
	gpr     [NumGeneralRegs]uint32
	cr      [NumControlRegs]uint32
	pc      uint32
	instrPC uint32

	asleep     bool
	sleepArmed bool
	halted     bool

	timerCountdown uint32
	tickCount      uint64

	tlb  *TLB
	bus  *Bus
	intc *InterruptController
	io   *IODevices
	log  *Logger

	watchpoints []Watchpoint
	latchedHit  *WatchHit
}

// NewCPU creates a core. Secondary cores (id != 0) start asleep with IPI
// delivery armed, per spec.md §3.
func NewCPU(id int, bus *Bus, intc *InterruptController, io *IODevices, log *Logger) *CPU {
	c := &CPU{
		id:   id,
		tlb:  NewTLB(),
		bus:  bus,
		intc: intc,
		io:   io,
		log:  log,
	}
	c.cr[CRCID] = uint32(id)
	if id != 0 {
		c.asleep = true
		c.cr[CRIMR] = IMREnableBit | (1 << IntBitIPI)
	} else {
		c.cr[CRIMR] = IMREnableBit
	}
	return c
}

// Kmode reports whether the core is currently in kernel mode: PSR>0.
func (c *CPU) Kmode() bool { return c.cr[CRPSR] > 0 }

// GetReg reads a general register with the r31/KSP kernel-mode aliasing
// rule (spec.md §4.4.1); r0 always reads 0.
func (c *CPU) GetReg(i byte) uint32 {
	if i == 0 {
		return 0
	}
	if i == 31 && c.Kmode() {
		return c.cr[CRKSP]
	}
	return c.gpr[i]
}

// SetReg writes a general register, applying the same aliasing rule;
// writes to r0 are ignored.
func (c *CPU) SetReg(i byte, v uint32) {
	if i == 0 {
		return
	}
	if i == 31 && c.Kmode() {
		c.cr[CRKSP] = v
		return
	}
	c.gpr[i] = v
}

// GetRegRaw and SetRegRaw bypass the r31/KSP aliasing; only crmv's
// register-to-register variant uses these (spec.md §4.4.1).
func (c *CPU) GetRegRaw(i byte) uint32 {
	if i == 0 {
		return 0
	}
	return c.gpr[i]
}

func (c *CPU) SetRegRaw(i byte, v uint32) {
	if i == 0 {
		return
	}
	c.gpr[i] = v
}

// translate resolves a virtual address to a physical one through the
// TLB, applying the kernel bypass from spec.md §4.2.
func (c *CPU) translate(vaddr uint32, op AccessKind) (uint32, bool) {
	if c.Kmode() && vaddr <= PhysMemMax {
		return vaddr, true
	}
	base, ok := c.tlb.Access(c.cr[CRPID], vpnOf(vaddr), op, c.Kmode())
	if !ok {
		return 0, false
	}
	return base | (vaddr & PageMask), true
}

// fetch reads one 32-bit instruction word at addr, through the TLB.
// Returns (word, true) on success or (_, false) on a TLB miss.
func (c *CPU) fetch(addr uint32) (uint32, bool) {
	paddr, ok := c.translate(addr, AccessExec)
	if !ok {
		return 0, false
	}
	return c.bus.Read32(paddr), true
}

// Step executes interrupt polling followed by (at most) one instruction,
// matching spec.md §4.7's step_instruction contract.
//
// PC handling: instrPC is the address of the instruction about to run.
// c.pc is advanced to instrPC+4 before execute() runs, so that every
// addressing-mode and branch formula referencing "PC+4" (spec.md
// §4.4.4/§4.4.5) can simply read c.pc; execute() overwrites c.pc again
// for taken branches and kernel control-flow ops. Synchronous faults
// raised during fetch or execute save instrPC (not the already-advanced
// c.pc) into EPC, since that is the address of the faulting instruction.
func (c *CPU) Step() StepOutcome {
	c.pollAndDeliverInterrupts()
	return c.fetchAndExecute()
}

// fetchAndExecute runs tick step 6 on its own: fetch-then-execute one
// instruction with no interrupt polling. The tick driver calls this
// directly (after running steps 1-5 itself, gated by the clock divider);
// Step combines both for the debugger's single-step contract.
func (c *CPU) fetchAndExecute() StepOutcome {
	if c.asleep || c.halted {
		return Sleeping
	}
	instrPC := c.pc
	word, ok := c.fetch(instrPC)
	if !ok {
		c.raiseTLBMissAt(instrPC, instrPC)
		return TlbMiss
	}
	c.pc = instrPC + 4
	c.instrPC = instrPC
	c.execute(word)
	if c.asleep && c.sleepArmed {
		// mode sleep leaves PC on the sleep instruction; the +4 applied on
		// wake makes the instruction after it the resume point.
		c.pc = instrPC
	}
	return Executed
}

// tickTimer implements tick step 4: decrement the countdown, and on
// reaching zero, reload from the PIT reload register and raise the timer
// bit. The countdown lazily seeds itself from pitReload the first time
// it is observed at zero, so a freshly created core doesn't fire on its
// very first tick.
func (c *CPU) tickTimer(pitReload uint32) {
	if c.timerCountdown == 0 {
		c.timerCountdown = pitReload
	}
	c.timerCountdown--
	if c.timerCountdown == 0 {
		c.intc.SetPendingBits(c.id, 1<<IntBitTimer)
	}
}

// pollAndDeliverInterrupts implements spec.md §4.6 steps 3-5: take this
// core's pending bits, merge IPI payload into MBI, merge into ISR, and
// if enabled and non-zero, wake/enter the highest-priority vector.
func (c *CPU) pollAndDeliverInterrupts() {
	bits := c.intc.TakePending(c.id)
	if bits == 0 {
		return
	}
	if bits&(1<<IntBitIPI) != 0 {
		c.cr[CRMBI] = c.intc.TakeIPIPayload(c.id)
	}
	c.cr[CRISR] |= bits

	if c.cr[CRIMR]&IMREnableBit == 0 {
		return
	}
	if c.cr[CRISR] == 0 {
		return
	}
	wasAsleep := c.asleep
	wasArmed := c.sleepArmed
	c.asleep = false
	c.sleepArmed = false
	if wasAsleep && wasArmed {
		c.pc += 4
	}
	vec := highestPriorityVector(c.cr[CRISR])
	c.raiseVectorAt(c.pc, vec)
}

// highestPriorityVector picks the interrupt handler vector for the
// highest set bit in ISR, priority high->low from bit 15 to bit 0
// (spec.md §4.4.6: 0xF0..0xFF, bit 15 maps to 0xFF).
func highestPriorityVector(isr uint32) uint32 {
	for bit := 15; bit >= 0; bit-- {
		if isr&(1<<uint(bit)) != 0 {
			return uint32(VecInterruptLow + bit)
		}
	}
	return VecInterruptLow
}

// raiseVectorAt implements exception entry (spec.md §4.4.6): save epc,
// disable interrupts, bump PSR, enter kernel mode, load new PC.
func (c *CPU) raiseVectorAt(epc uint32, vectorIndex uint32) {
	c.cr[CREPC] = epc
	c.cr[CRIMR] &^= IMREnableBit
	if c.cr[CRPSR] == 0xFFFFFFFF {
		panic(ErrExceptionNestOverflow)
	}
	c.cr[CRPSR]++
	c.pc = c.bus.Read32(vectorIndex * 4)
}

// raiseVector is used by synchronous faults raised from within execute():
// the faulting instruction's address (c.instrPC) is always the correct
// EPC, regardless of whether c.pc has already been advanced.
func (c *CPU) raiseVector(vectorIndex uint32) { c.raiseVectorAt(c.instrPC, vectorIndex) }

func (c *CPU) raiseIllegalInstruction() { c.raiseVector(VecIllegalInstr) }
func (c *CPU) raisePrivileged()         { c.raiseVector(VecPrivInstr) }
func (c *CPU) raiseSyscallExit()        { c.raiseVector(VecSyscallExit) }

// raiseTLBMiss stashes (VPN | PID<<20) into the TLB-fault-info control
// register and vectors to the user or kernel miss handler depending on
// the mode at the time of the fault (spec.md §4.4.6).
func (c *CPU) raiseTLBMiss(vaddr uint32) { c.raiseTLBMissAt(c.instrPC, vaddr) }

func (c *CPU) raiseTLBMissAt(epc uint32, vaddr uint32) {
	wasKernel := c.Kmode()
	c.cr[CRTLB] = vpnOf(vaddr) | (c.cr[CRPID] << 20)
	if wasKernel {
		c.raiseVectorAt(epc, VecKernelTLBMiss)
	} else {
		c.raiseVectorAt(epc, VecUserTLBMiss)
	}
}

// execute decodes and runs a single instruction word.
func (c *CPU) execute(word uint32) {
	op := bitsOf(word, 31, 27)
	switch op {
	case OpALUReg, OpALUImm:
		c.execALUInstr(word, op == OpALUImm)
	case OpLUI:
		rA := byte(bitsOf(word, 26, 22))
		imm := bitsOf(word, 21, 0)
		c.SetReg(rA, imm<<10)
	case OpLoad32Abs, OpLoad32PC, OpLoad32ImmPC,
		OpLoad16Abs, OpLoad16PC, OpLoad16ImmPC,
		OpLoad8Abs, OpLoad8PC, OpLoad8ImmPC:
		c.execMemInstr(word, op)
	case OpBranchImm, OpBranchAbs, OpBranchRel:
		c.execBranchInstr(word, op)
	case OpSyscall:
		c.raiseSyscallExit()
	case OpFaddAbs, OpFaddPC, OpFaddImmPC:
		c.execAtomicInstr(word, op, false)
	case OpSwapAbs, OpSwapPC, OpSwapImmPC:
		c.execAtomicInstr(word, op, true)
	case OpKernel:
		c.execKernelInstr(word)
	default:
		c.raiseIllegalInstruction()
	}
}

func bitsOf(word uint32, hi, lo int) uint32 {
	width := uint(hi - lo + 1)
	return (word >> uint(lo)) & ((1 << width) - 1)
}

func signExtend(v uint32, width int) uint32 {
	shift := 32 - width
	return uint32(int32(v<<uint(shift)) >> uint(shift))
}
