package main

import "testing"

func TestTLBWriteReadPrivate(t *testing.T) {
	tlb := NewTLB()
	tlb.Write(1, 0x10, 0xABCDE000|TLBFlagR|TLBFlagU)
	ppn, ok := tlb.Access(1, 0x10, AccessRead, false)
	if !ok {
		t.Fatal("expected hit")
	}
	if ppn != 0xABCDE000 {
		t.Fatalf("ppn = 0x%08X, want 0xABCDE000", ppn)
	}
}

func TestTLBUserDeniedWithoutUFlag(t *testing.T) {
	tlb := NewTLB()
	tlb.Write(1, 0x10, 0xABCDE000|TLBFlagR) // no U flag
	if _, ok := tlb.Access(1, 0x10, AccessRead, false); ok {
		t.Fatal("expected user access to be denied without U flag")
	}
	if _, ok := tlb.Access(1, 0x10, AccessRead, true); !ok {
		t.Fatal("expected kernel access to succeed")
	}
}

func TestTLBGlobalVisibleAcrossPID(t *testing.T) {
	tlb := NewTLB()
	tlb.Write(1, 0x20, 0xBEEF0000|TLBFlagR|TLBFlagU|TLBFlagG)
	if _, ok := tlb.Access(99, 0x20, AccessRead, false); !ok {
		t.Fatal("expected global entry visible under a different PID")
	}
}

func TestTLBCapacityNeverExceeded(t *testing.T) {
	tlb := NewTLB()
	for i := 0; i < TLBCapacity*4; i++ {
		tlb.Write(1, uint32(i), uint32(i<<12)|TLBFlagR|TLBFlagU)
		if tlb.PrivateCount() > TLBCapacity {
			t.Fatalf("private table grew past capacity: %d", tlb.PrivateCount())
		}
	}
}

func TestTLBInvalidateAndClear(t *testing.T) {
	tlb := NewTLB()
	tlb.Write(1, 0x30, 0xC0FFEE00|TLBFlagR|TLBFlagU)
	tlb.Invalidate(1, 0x30)
	if _, ok := tlb.Access(1, 0x30, AccessRead, false); ok {
		t.Fatal("expected entry gone after invalidate")
	}

	tlb.Write(1, 0x40, 0xC0FFEE00|TLBFlagR|TLBFlagU)
	tlb.Write(2, 0x50, 0xC0FFEE00|TLBFlagR|TLBFlagU|TLBFlagG)
	tlb.Clear()
	if tlb.PrivateCount() != 0 || tlb.GlobalCount() != 0 {
		t.Fatal("expected both tables empty after clear")
	}
}
