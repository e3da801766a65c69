package main

// execKernelInstr runs opcode 31 (spec.md §4.4.8): TLB maintenance,
// control/general register moves, run/sleep/halt mode changes, exception
// return, and inter-processor interrupts. All kernel instructions trap to
// raisePrivileged() when executed outside kernel mode.
//
// Field layout (this repository's own encoding): a 3-bit sub-op selector
// at bits 26-24, followed by a sub-op-specific layout below it.
func (c *CPU) execKernelInstr(word uint32) {
	if !c.Kmode() {
		c.raisePrivileged()
		return
	}

	ksub := byte(bitsOf(word, 26, 24))
	switch ksub {
	case KSubTLB:
		c.execTLBOp(word)
	case KSubCrmv:
		c.execCrmv(word)
	case KSubMode:
		c.execMode(word)
	case KSubRFE:
		c.execRFE(word)
	case KSubIPI:
		c.execIPI(word)
	default:
		c.raiseIllegalInstruction()
	}
}

// execTLBOp runs tlbr/tlbw/tlbi/tlbc. Field layout below the 3-bit ksub:
// a 2-bit tlb-subop at bits 23-22, then rA (result, tlbr only), rB
// (vpn register), rC (payload register, tlbw only).
func (c *CPU) execTLBOp(word uint32) {
	sub := byte(bitsOf(word, 23, 22))
	rA := byte(bitsOf(word, 21, 17))
	rB := byte(bitsOf(word, 16, 12))
	rC := byte(bitsOf(word, 11, 7))
	pid := c.cr[CRPID]

	switch sub {
	case TLBOpRead:
		vpn := c.GetReg(rB)
		payload, _ := c.tlb.Read(pid, vpn)
		c.SetReg(rA, payload)
	case TLBOpWrite:
		vpn := c.GetReg(rB)
		payload := c.GetReg(rC)
		c.tlb.Write(pid, vpn, payload)
	case TLBOpInvalidate:
		vpn := c.GetReg(rB)
		c.tlb.Invalidate(pid, vpn)
	case TLBOpClear:
		c.tlb.Clear()
	}
}

// execCrmv runs the four crmv variants. Field layout: a 2-bit variant at
// bits 23-22, dst at bits 21-17, src at bits 16-12. Writes to CID (cr9)
// are ignored and logged; writes to ISR (cr2) acknowledge cleared KB/UART
// bits with the interrupt controller's in-flight latch.
func (c *CPU) execCrmv(word uint32) {
	variant := byte(bitsOf(word, 23, 22))
	dst := byte(bitsOf(word, 21, 17))
	src := byte(bitsOf(word, 16, 12))

	switch variant {
	case CrmvCRtoR:
		c.SetRegRaw(dst, c.cr[src])
	case CrmvRtoCR:
		c.writeCR(dst, c.GetRegRaw(src))
	case CrmvCRtoCR:
		c.writeCR(dst, c.cr[src])
	case CrmvRtoR:
		c.SetRegRaw(dst, c.GetRegRaw(src))
	}
}

// writeCR applies crmv's write-side rules for the two control registers
// with side effects: CID is read-only, and ISR writes notify the
// interrupt controller which KB/UART in-flight slots were cleared.
func (c *CPU) writeCR(idx byte, v uint32) {
	if idx == CRCID {
		if c.log != nil {
			c.log.Warn("core %d: ignoring write to read-only CID", c.id)
		}
		return
	}
	if idx == CRISR {
		old := c.cr[CRISR]
		cleared := old &^ v
		c.cr[CRISR] = v
		if cleared != 0 {
			c.intc.AckInput(c.id, cleared)
		}
		return
	}
	c.cr[idx] = v
}

// execMode runs run/sleep/halt. Field layout: a 2-bit sub-op at bits
// 23-22; no further operands.
func (c *CPU) execMode(word uint32) {
	sub := byte(bitsOf(word, 23, 22))
	switch sub {
	case ModeRun:
		c.asleep = false
		c.sleepArmed = false
	case ModeSleep:
		c.asleep = true
		c.sleepArmed = true
	case ModeHalt:
		c.halted = true
	}
}

// execRFE restores PC from EPC and decrements PSR (floor 0). A trailing
// rfi bit at bit 21, when set, also re-enables the IMR global-enable bit.
func (c *CPU) execRFE(word uint32) {
	rfi := bitsOf(word, 21, 21) == 1
	c.pc = c.cr[CREPC]
	if c.cr[CRPSR] > 0 {
		c.cr[CRPSR]--
	}
	if rfi {
		c.cr[CRIMR] |= IMREnableBit
	}
}

// execIPI runs ipi_op. Field layout: a broadcast bit at bit 23; when
// clear, a 2-bit target core id at bits 22-21; rA (bits 20-16) receives
// the result (success flag, or the broadcast target mask). Payload comes
// from MBO (cr11).
func (c *CPU) execIPI(word uint32) {
	broadcast := bitsOf(word, 23, 23) == 1
	rA := byte(bitsOf(word, 20, 16))
	payload := c.cr[CRMBO]

	if broadcast {
		mask := c.intc.SendIPIAll(c.id, payload)
		c.SetReg(rA, mask)
		return
	}
	target := int(bitsOf(word, 22, 21))
	ok := c.intc.SendIPI(target, payload)
	c.SetReg(rA, b2u(ok))
}
