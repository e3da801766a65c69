package main

// Memory addressing (spec.md §4.4.4). This repository's instruction
// encoding gives load/store and atomic instructions a common field
// layout: rA (data register), rB (base register), a 2-bit sub-mode y
// (0=offset, 1=preinc, 2=postinc), a 2-bit scale z, a 12-bit signed
// immediate, and (loads/stores only) a trailing store bit.
//
// Absolute addressing combines rB with the scaled immediate under the y
// sub-mode. PC-relative addressing uses PC+4 plus the scaled immediate
// alone (no base register). Imm-PC addressing uses PC+4 plus the base
// register's value, for a register-computed PC-relative address.
const (
	memModeAbsolute = iota
	memModePCRelative
	memModeImmPC
)

func memAddrMode(opcodeGroup int) int {
	switch opcodeGroup % 3 {
	case 0:
		return memModeAbsolute
	case 1:
		return memModePCRelative
	default:
		return memModeImmPC
	}
}

// decodeMemFields pulls the common rA/rB/effective-address fields out of
// a load/store/atomic instruction word.
func (c *CPU) decodeMemFields(word uint32, mode int) (rA, rB byte, addr uint32) {
	rA = byte(bitsOf(word, 26, 22))
	rB = byte(bitsOf(word, 21, 17))
	y := bitsOf(word, 16, 15)
	z := bitsOf(word, 14, 13)
	imm12 := bitsOf(word, 12, 1)
	simm := signExtend(imm12, 12) << z

	switch mode {
	case memModeAbsolute:
		base := c.GetReg(rB)
		switch y {
		case 1: // preinc
			base += simm
			c.SetReg(rB, base)
			addr = base
		case 2: // postinc
			addr = base
			c.SetReg(rB, base+simm)
		default: // offset (and reserved y=3, treated as offset)
			addr = base + simm
		}
	case memModePCRelative:
		// c.pc already holds PC+4 (see CPU.Step).
		addr = c.pc + simm
	case memModeImmPC:
		addr = c.pc + c.GetReg(rB)
	}
	return
}

func (c *CPU) realign(addr uint32, width int) uint32 {
	mask := uint32(width - 1)
	if addr&mask != 0 {
		if c.log != nil {
			c.log.Warn("core %d: misaligned %d-bit access at 0x%08X", c.id, width*8, addr)
		}
		addr &^= mask
	}
	return addr
}

// execMemInstr runs opcodes 3-11: 32/16/8-bit load/store across the
// three addressing forms.
func (c *CPU) execMemInstr(word uint32, opcode uint32) {
	var width int
	var group int
	switch {
	case opcode >= OpLoad32Abs && opcode <= OpLoad32ImmPC:
		width, group = 4, int(opcode-OpLoad32Abs)
	case opcode >= OpLoad16Abs && opcode <= OpLoad16ImmPC:
		width, group = 2, int(opcode-OpLoad16Abs)
	default:
		width, group = 1, int(opcode-OpLoad8Abs)
	}

	mode := memAddrMode(group)
	rA, _, addr := c.decodeMemFields(word, mode)
	if width > 1 {
		addr = c.realign(addr, width)
	}
	store := bitsOf(word, 0, 0) == 1

	op := AccessRead
	if store {
		op = AccessWrite
	}

	// Multi-byte accesses translate every constituent byte separately
	// and batch the bus operation, per spec.md §4.4.4.
	addrs := make([]uint32, width)
	for i := 0; i < width; i++ {
		paddr, ok := c.translate(addr+uint32(i), op)
		if !ok {
			c.raiseTLBMiss(addr + uint32(i))
			return
		}
		addrs[i] = paddr
	}

	if store {
		val := c.GetReg(rA)
		data := make([]byte, width)
		for i := 0; i < width; i++ {
			data[i] = byte(val >> (8 * uint(i)))
		}
		old := c.bus.ReadPhysBytes(addrs)
		c.bus.WritePhysBytes(addrs, data)
		for i := 0; i < width; i++ {
			c.noteAccess(addr+uint32(i), true, old[i], data[i])
		}
		return
	}

	data := c.bus.ReadPhysBytes(addrs)
	var val uint32
	for i := 0; i < width; i++ {
		val |= uint32(data[i]) << (8 * uint(i))
		c.noteAccess(addr+uint32(i), false, data[i], data[i])
	}
	c.SetReg(rA, val)
}

// execAtomicInstr runs opcodes 16-21: atomic fetch-and-add (fadd) and
// atomic swap, each across the three addressing forms. rA supplies the
// operand and receives the previous memory value (spec.md §4.1's
// atomic_add32/atomic_swap32, fetch-and-add semantics — not floating
// point, which is an explicit non-goal).
func (c *CPU) execAtomicInstr(word uint32, opcode uint32, isSwap bool) {
	var base uint32
	if isSwap {
		base = OpSwapAbs
	} else {
		base = OpFaddAbs
	}
	group := int(opcode - base)
	mode := memAddrMode(group)
	rA, _, addr := c.decodeMemFields(word, mode)
	addr = c.realign(addr, 4)

	paddr, ok := c.translate(addr, AccessWrite)
	if !ok {
		c.raiseTLBMiss(addr)
		return
	}
	operand := c.GetReg(rA)
	var prev uint32
	if isSwap {
		prev = c.bus.AtomicSwap32(paddr, operand)
	} else {
		prev = c.bus.AtomicAdd32(paddr, operand)
	}
	c.SetReg(rA, prev)
}
