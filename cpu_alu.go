package main

import "math/bits"

// execALUInstr decodes and runs opcode 0 (register form) or opcode 1
// (immediate form), per spec.md §4.4.3's field layout and the decode
// rules below (this repository's own instruction encoding, since the
// assembler is an out-of-scope collaborator).
func (c *CPU) execALUInstr(word uint32, immForm bool) {
	rA := byte(bitsOf(word, 26, 22))
	rB := byte(bitsOf(word, 21, 17))

	var aluOp byte
	var rhs uint32
	lhs := c.GetReg(rB)

	if immForm {
		aluOp = byte(bitsOf(word, 16, 12))
		imm12 := bitsOf(word, 11, 0)
		rhs = decodeAluImm(aluOp, imm12)
		if aluOp == AluSUB {
			// Sub-with-immediate computes imm - reg, not reg - imm
			// (spec.md §4.4.3).
			lhs, rhs = rhs, lhs
		}
	} else {
		rC := byte(bitsOf(word, 16, 12))
		aluOp = byte(bitsOf(word, 11, 7))
		rhs = c.GetReg(rC)
	}

	result := c.execALU(aluOp, lhs, rhs)
	c.SetReg(rA, result)
}

// decodeAluImm interprets the 12-bit immediate field according to which
// family the ALU op belongs to (spec.md §4.4.3): bitwise ops pack a byte
// into one of four byte lanes, shifts mask to 5 bits, arithmetic ops
// sign-extend 12 bits, and the unary ops (SXTB/SXTD/TNCB/TNCD) ignore
// the immediate entirely.
func decodeAluImm(op byte, imm12 uint32) uint32 {
	switch {
	case op <= AluNOT:
		lane := (imm12 >> 8) & 0x3
		b := imm12 & 0xFF
		return b << (8 * lane)
	case op >= AluLSL && op <= AluLSRC:
		return imm12 & 0x1F
	case op >= AluADD && op <= AluSUBB:
		return signExtend(imm12, 12)
	default:
		return 0
	}
}

// execALU computes the result of one ALU op and updates FLG, following
// spec.md §4.4.3's carry/zero/sign/overflow rules.
func (c *CPU) execALU(op byte, lhs, rhs uint32) uint32 {
	carryIn := c.cr[CRFLG]&FlagCarry != 0
	result, carry, overflow := aluCompute(op, lhs, rhs, carryIn)

	flg := uint32(0)
	if carry {
		flg |= FlagCarry
	}
	if result == 0 {
		flg |= FlagZero
	}
	if result&0x80000000 != 0 {
		flg |= FlagSign
	}
	if overflow {
		flg |= FlagOverflow
	}
	c.cr[CRFLG] = flg
	return result
}

func signOf(v uint32) bool { return v&0x80000000 != 0 }

func aluCompute(op byte, lhs, rhs uint32, carryIn bool) (result uint32, carry bool, overflow bool) {
	switch op {
	case AluAND:
		return lhs & rhs, false, false
	case AluNAND:
		return ^(lhs & rhs), false, false
	case AluOR:
		return lhs | rhs, false, false
	case AluNOR:
		return ^(lhs | rhs), false, false
	case AluXOR:
		return lhs ^ rhs, false, false
	case AluXNOR:
		return ^(lhs ^ rhs), false, false
	case AluNOT:
		return ^lhs, false, false

	case AluLSL:
		shamt := rhs & 0x1F
		result = lhs << shamt
		if shamt > 0 {
			carry = (lhs>>(32-shamt))&1 != 0
		}
		return result, carry, false
	case AluLSR:
		shamt := rhs & 0x1F
		result = lhs >> shamt
		if shamt > 0 {
			carry = (lhs>>(shamt-1))&1 != 0
		}
		return result, carry, false
	case AluASR:
		shamt := rhs & 0x1F
		result = uint32(int32(lhs) >> shamt)
		if shamt > 0 {
			carry = (lhs>>(shamt-1))&1 != 0
		}
		return result, carry, false
	case AluROTL:
		shamt := int(rhs & 0x1F)
		result = bits.RotateLeft32(lhs, shamt)
		if shamt > 0 {
			carry = result&1 != 0
		}
		return result, carry, false
	case AluROTR:
		shamt := int(rhs & 0x1F)
		result = bits.RotateLeft32(lhs, -shamt)
		if shamt > 0 {
			carry = result&0x80000000 != 0
		}
		return result, carry, false
	case AluLSLC:
		shamt := rhs & 0x1F
		v := lhs
		cin := carryIn
		for i := uint32(0); i < shamt; i++ {
			cout := v&0x80000000 != 0
			v = v<<1 | b2u(cin)
			cin = cout
		}
		return v, cin, false
	case AluLSRC:
		shamt := rhs & 0x1F
		v := lhs
		cin := carryIn
		for i := uint32(0); i < shamt; i++ {
			cout := v&1 != 0
			v = v>>1 | (b2u(cin) << 31)
			cin = cout
		}
		return v, cin, false

	case AluADD:
		result = lhs + rhs
		carry = result < lhs
		overflow = signOf(result) != signOf(lhs) && signOf(lhs) == signOf(rhs)
		return result, carry, overflow
	case AluADDC:
		wide := uint64(lhs) + uint64(rhs) + uint64(b2u(carryIn))
		result = uint32(wide)
		carry = wide > 0xFFFFFFFF
		overflow = signOf(result) != signOf(lhs) && signOf(lhs) == signOf(rhs)
		return result, carry, overflow
	case AluSUB:
		result = lhs - rhs
		carry = lhs < rhs
		overflow = signOf(result) != signOf(lhs) && signOf(lhs) != signOf(rhs)
		return result, carry, overflow
	case AluSUBB:
		borrowIn := uint64(b2u(carryIn))
		wide := uint64(rhs) + borrowIn
		carry = uint64(lhs) < wide
		result = uint32(uint64(lhs) - wide)
		overflow = signOf(result) != signOf(lhs) && signOf(lhs) != signOf(rhs)
		return result, carry, overflow

	case AluSXTB:
		return signExtend(lhs&0xFF, 8), false, false
	case AluSXTD:
		return signExtend(lhs&0xFFFF, 16), false, false
	case AluTNCB:
		return lhs & 0xFF, false, false
	case AluTNCD:
		return lhs & 0xFFFF, false, false
	}
	return 0, false, false
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
