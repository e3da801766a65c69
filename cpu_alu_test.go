package main

import "testing"

func newTestCPU() *CPU {
	log := NewLogger(nil, LevelError)
	bus := NewBus(log)
	intc := NewInterruptController(1, log)
	io := NewIODevices(bus)
	return NewCPU(0, bus, intc, io, log)
}

func aluRegWord(rA, rB, rC, op byte) uint32 {
	return OpALUReg<<27 | uint32(rA)<<22 | uint32(rB)<<17 | uint32(rC)<<12 | uint32(op)<<7
}

// Boundary scenario 1 (spec.md §8): r2=0xFFFFFFFF, r3=1, add r1,r2,r3.
func TestALUAddCarryZero(t *testing.T) {
	c := newTestCPU()
	c.SetReg(2, 0xFFFFFFFF)
	c.SetReg(3, 1)
	c.execute(aluRegWord(1, 2, 3, AluADD))

	if got := c.GetReg(1); got != 0 {
		t.Fatalf("r1 = 0x%08X, want 0", got)
	}
	flg := c.cr[CRFLG]
	if flg&FlagCarry == 0 {
		t.Error("expected carry set")
	}
	if flg&FlagZero == 0 {
		t.Error("expected zero set")
	}
	if flg&FlagSign != 0 {
		t.Error("expected sign clear")
	}
	if flg&FlagOverflow != 0 {
		t.Error("expected overflow clear")
	}
}

// Boundary scenario 2: r2=0x7FFFFFFF, r3=1, add r1,r2,r3 -> signed overflow.
func TestALUAddSignedOverflow(t *testing.T) {
	c := newTestCPU()
	c.SetReg(2, 0x7FFFFFFF)
	c.SetReg(3, 1)
	c.execute(aluRegWord(1, 2, 3, AluADD))

	if got := c.GetReg(1); got != 0x80000000 {
		t.Fatalf("r1 = 0x%08X, want 0x80000000", got)
	}
	flg := c.cr[CRFLG]
	if flg&FlagCarry != 0 {
		t.Error("expected carry clear")
	}
	if flg&FlagZero != 0 {
		t.Error("expected zero clear")
	}
	if flg&FlagSign == 0 {
		t.Error("expected sign set")
	}
	if flg&FlagOverflow == 0 {
		t.Error("expected overflow set")
	}
}

func TestALUSubImmSwapsOperands(t *testing.T) {
	c := newTestCPU()
	c.SetReg(2, 5)
	// imm form: rA=1, rB=2, aluOp=SUB, imm12=10 -> result = imm - reg = 5
	word := OpALUImm<<27 | uint32(1)<<22 | uint32(2)<<17 | uint32(AluSUB)<<12 | uint32(10)
	c.execute(word)
	if got := c.GetReg(1); got != 5 {
		t.Fatalf("r1 = %d, want 5 (10-5)", got)
	}
}

func TestALURotateCarry(t *testing.T) {
	c := newTestCPU()
	c.SetReg(2, 0x80000001)
	c.SetReg(3, 1)
	c.execute(aluRegWord(1, 2, 3, AluROTL))
	if got := c.GetReg(1); got != 0x00000003 {
		t.Fatalf("r1 = 0x%08X, want 0x00000003", got)
	}
	if c.cr[CRFLG]&FlagCarry == 0 {
		t.Error("expected carry set from wrapped bit")
	}
}

func TestR0AlwaysZero(t *testing.T) {
	c := newTestCPU()
	c.SetReg(0, 0xDEADBEEF)
	if got := c.GetReg(0); got != 0 {
		t.Fatalf("r0 = 0x%08X, want 0", got)
	}
}

func TestKernelModeR31AliasesKSP(t *testing.T) {
	c := newTestCPU()
	c.cr[CRPSR] = 1 // enter kernel mode
	c.SetReg(31, 0x1000)
	if c.cr[CRKSP] != 0x1000 {
		t.Fatalf("KSP = 0x%08X, want 0x1000", c.cr[CRKSP])
	}
	if got := c.GetReg(31); got != 0x1000 {
		t.Fatalf("r31 = 0x%08X, want 0x1000", got)
	}
}
