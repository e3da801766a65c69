package main

// WatchKind is the trigger condition for a watchpoint: read, write, or
// both. This widens the teacher's write-only Watchpoint (debug_interface.go)
// to the R/W/RW vocabulary original_source/src/emulator/debugger.rs exposes.
type WatchKind int

const (
	WatchRead WatchKind = iota
	WatchWrite
	WatchReadWrite
)

// Watchpoint is a single watched virtual address.
type Watchpoint struct {
	Address uint32
	Kind    WatchKind
}

// WatchHit is latched the first time a watchpoint fires; it stays latched
// until PullWatchHit clears it, so a debugger attached mid-run never
// misses a hit to a flurry of later accesses on the same address.
type WatchHit struct {
	Address  uint32
	Kind     WatchKind
	OldValue byte
	NewValue byte
}

func (k WatchKind) matches(isWrite bool) bool {
	switch k {
	case WatchRead:
		return !isWrite
	case WatchWrite:
		return isWrite
	default:
		return true
	}
}

// SetWatchpoint installs (or replaces) a watchpoint at a virtual address.
func (c *CPU) SetWatchpoint(addr uint32, kind WatchKind) {
	for i := range c.watchpoints {
		if c.watchpoints[i].Address == addr {
			c.watchpoints[i].Kind = kind
			return
		}
	}
	c.watchpoints = append(c.watchpoints, Watchpoint{Address: addr, Kind: kind})
}

// ClearWatchpoint removes a watchpoint; reports whether one existed.
func (c *CPU) ClearWatchpoint(addr uint32) bool {
	for i := range c.watchpoints {
		if c.watchpoints[i].Address == addr {
			c.watchpoints = append(c.watchpoints[:i], c.watchpoints[i+1:]...)
			return true
		}
	}
	return false
}

// ClearAllWatchpoints removes every watchpoint.
func (c *CPU) ClearAllWatchpoints() { c.watchpoints = nil }

// ListWatchpoints returns a copy of the current watchpoint set.
func (c *CPU) ListWatchpoints() []Watchpoint {
	out := make([]Watchpoint, len(c.watchpoints))
	copy(out, c.watchpoints)
	return out
}

// PullWatchHit returns and clears the latched watchpoint hit, if any.
func (c *CPU) PullWatchHit() *WatchHit {
	hit := c.latchedHit
	c.latchedHit = nil
	return hit
}

// noteAccess is called by the memory-instruction path for every byte
// touched by a load or store. It latches at most one hit at a time: once
// latchedHit is set, further accesses are ignored until a debugger pulls
// it, matching debug_interface.go's single-slot Watchpoint tracking.
func (c *CPU) noteAccess(vaddr uint32, isWrite bool, old, newVal byte) {
	if c.latchedHit != nil {
		return
	}
	for _, w := range c.watchpoints {
		if w.Address != vaddr {
			continue
		}
		if !w.Kind.matches(isWrite) {
			continue
		}
		c.latchedHit = &WatchHit{Address: vaddr, Kind: w.Kind, OldValue: old, NewValue: newVal}
		if c.log != nil {
			c.log.Debug("core %d: watchpoint hit at 0x%08X (write=%v)", c.id, vaddr, isWrite)
		}
		return
	}
}

// ReadVirtDebug reads one byte through translation without touching
// watchpoints or raising faults, for debugger memory inspection.
func (c *CPU) ReadVirtDebug(vaddr uint32) (byte, bool) {
	paddr, ok := c.translate(vaddr, AccessRead)
	if !ok {
		return 0, false
	}
	return c.bus.Read8(paddr), true
}

// ReadPhysDebug reads one physical byte directly, bypassing translation
// entirely — used by the debugger to inspect MMIO and device state.
func (c *CPU) ReadPhysDebug(paddr uint32) byte {
	return c.bus.Read8(paddr)
}

// Registers returns a snapshot of the 32 general registers as seen from
// outside (r31 resolved through the kernel/KSP alias), for debugger
// display.
func (c *CPU) Registers() [NumGeneralRegs]uint32 {
	var out [NumGeneralRegs]uint32
	for i := byte(0); i < NumGeneralRegs; i++ {
		out[i] = c.GetReg(i)
	}
	return out
}

// ControlRegisters returns a snapshot of the 12 control registers.
func (c *CPU) ControlRegisters() [NumControlRegs]uint32 {
	return c.cr
}

// PC returns the address of the next instruction to execute.
func (c *CPU) PC() uint32 { return c.pc }
