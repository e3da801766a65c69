package main

// evalCond implements the 18 condition codes from spec.md §4.4.5 over
// the FLG bits.
func (c *CPU) evalCond(cond byte) bool {
	flg := c.cr[CRFLG]
	carry := flg&FlagCarry != 0
	zero := flg&FlagZero != 0
	sign := flg&FlagSign != 0
	overflow := flg&FlagOverflow != 0

	switch cond {
	case CondBR:
		return true
	case CondBZ:
		return zero
	case CondBNZ:
		return !zero
	case CondBS:
		return sign
	case CondBNS:
		return !sign
	case CondBC:
		return carry
	case CondBNC:
		return !carry
	case CondBO:
		return overflow
	case CondBNO:
		return !overflow
	case CondBPS:
		return !zero && !sign
	case CondBNPS:
		return !(!zero && !sign)
	case CondBG:
		return sign == overflow && !zero
	case CondBGE:
		return sign == overflow
	case CondBL:
		return sign != overflow
	case CondBLE:
		return sign != overflow || zero
	case CondBA:
		return !zero && carry
	case CondBAE:
		return carry
	case CondBB:
		return !carry
	case CondBBE:
		return !carry || zero
	}
	return false
}

// execBranchInstr runs opcodes 12-14 (spec.md §4.4.5). Note that c.pc has
// already been advanced to the address following this instruction (see
// CPU.Step), so it equals "PC+4" in the spec's formulas directly.
func (c *CPU) execBranchInstr(word uint32, opcode uint32) {
	cond := byte(bitsOf(word, 26, 22))
	rA := byte(bitsOf(word, 21, 17))

	if !c.evalCond(cond) {
		return
	}

	switch opcode {
	case OpBranchImm:
		imm17 := bitsOf(word, 16, 0)
		offset := signExtend(imm17, 17) * 4
		c.pc = c.pc + offset
	case OpBranchAbs:
		rB := byte(bitsOf(word, 16, 12))
		target := c.GetReg(rB)
		ret := c.pc
		c.pc = target
		c.SetReg(rA, ret)
	case OpBranchRel:
		rB := byte(bitsOf(word, 16, 12))
		ret := c.pc
		c.pc = c.pc + c.GetReg(rB)
		c.SetReg(rA, ret)
	}
}
