package main

import "testing"

func branchWord(cond, rA, rBOrImmHigh byte, imm17 uint32) uint32 {
	return uint32(cond)<<22 | uint32(rA)<<17 | (imm17 & 0x1FFFF)
}

func TestEvalCondBasic(t *testing.T) {
	c := newTestCPU()
	cases := []struct {
		name string
		flg  uint32
		cond byte
		want bool
	}{
		{"BR always", 0, CondBR, true},
		{"BZ on zero", FlagZero, CondBZ, true},
		{"BNZ on zero", FlagZero, CondBNZ, false},
		{"BC on carry", FlagCarry, CondBC, true},
		{"BNC without carry", 0, CondBNC, true},
		{"BG sign==overflow and not zero", 0, CondBG, true},
		{"BG fails when zero", FlagZero, CondBG, false},
		{"BL sign!=overflow", FlagSign, CondBL, true},
		{"BAE always true on carry set", FlagCarry, CondBAE, true},
		{"BB true without carry", 0, CondBB, true},
	}
	for _, tc := range cases {
		c.cr[CRFLG] = tc.flg
		if got := c.evalCond(tc.cond); got != tc.want {
			t.Errorf("%s: evalCond = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestBranchImmAddsSignedOffset(t *testing.T) {
	c := newTestCPU()
	c.pc = 0x1000
	word := branchWord(CondBR, 0, 0, 2) // offset = 2*4 = 8
	c.execBranchInstr(word, OpBranchImm)
	if c.pc != 0x1008 {
		t.Fatalf("pc = 0x%X, want 0x1008", c.pc)
	}
}

func TestBranchImmNegativeOffset(t *testing.T) {
	c := newTestCPU()
	c.pc = 0x1000
	imm17 := uint32(0x1FFFF) // -1 in 17-bit two's complement
	word := branchWord(CondBR, 0, 0, imm17)
	c.execBranchInstr(word, OpBranchImm)
	if c.pc != 0x0FFC {
		t.Fatalf("pc = 0x%X, want 0x0FFC (pc - 4)", c.pc)
	}
}

func TestBranchImmNotTakenWhenConditionFalse(t *testing.T) {
	c := newTestCPU()
	c.pc = 0x2000
	c.cr[CRFLG] = 0 // zero flag clear
	word := branchWord(CondBZ, 0, 0, 4)
	c.execBranchInstr(word, OpBranchImm)
	if c.pc != 0x2000 {
		t.Fatalf("pc = 0x%X, want unchanged 0x2000", c.pc)
	}
}

func branchRegWord(cond, rA, rB byte) uint32 {
	return uint32(cond)<<22 | uint32(rA)<<17 | uint32(rB)<<12
}

func TestBranchAbsSetsPCAndWritesLinkRegister(t *testing.T) {
	c := newTestCPU()
	c.pc = 0x3000
	c.SetReg(2, 0x8000)
	word := branchRegWord(CondBR, 1, 2)
	c.execBranchInstr(word, OpBranchAbs)
	if c.pc != 0x8000 {
		t.Fatalf("pc = 0x%X, want 0x8000", c.pc)
	}
	if got := c.GetReg(1); got != 0x3000 {
		t.Fatalf("link register r1 = 0x%X, want 0x3000 (old pc)", got)
	}
}

func TestBranchRelAddsRegisterAndWritesLinkRegister(t *testing.T) {
	c := newTestCPU()
	c.pc = 0x3000
	c.SetReg(2, 0x10)
	word := branchRegWord(CondBR, 1, 2)
	c.execBranchInstr(word, OpBranchRel)
	if c.pc != 0x3010 {
		t.Fatalf("pc = 0x%X, want 0x3010", c.pc)
	}
	if got := c.GetReg(1); got != 0x3000 {
		t.Fatalf("link register r1 = 0x%X, want 0x3000 (old pc)", got)
	}
}
