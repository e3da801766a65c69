package main

import (
	"sync"
	"sync/atomic"
)

// InterruptController implements spec.md §4.3: per-core pending-bit
// words, IPI payload slots, round-robin device routing, and in-flight
// tracking for edge-triggered input interrupts. All state here is shared
// across core goroutines, so every field is either an atomic or guarded
// by mu; per-core pending words use relaxed-OR / acquire-release swap as
// spec.md §5 requires.
type InterruptController struct {
	numCores int

	pending []atomic.Uint32
	ipi     []atomic.Uint32

	mu sync.Mutex

	rrKB   int
	rrUART int
	rrSD   int
	rrVGA  int
	rrSD2  int

	kbInFlight   int // -1 = empty
	uartInFlight int

	log *Logger
}

// NewInterruptController creates a controller for n cores.
func NewInterruptController(n int, log *Logger) *InterruptController {
	ic := &InterruptController{
		numCores:     n,
		pending:      make([]atomic.Uint32, n),
		ipi:          make([]atomic.Uint32, n),
		kbInFlight:   -1,
		uartInFlight: -1,
		log:          log,
	}
	return ic
}

// SetPendingBits ORs bits into a core's pending word (relaxed-OR atomic,
// spec.md §5).
func (ic *InterruptController) SetPendingBits(core int, bits uint32) {
	for {
		old := ic.pending[core].Load()
		if ic.pending[core].CompareAndSwap(old, old|bits) {
			if ic.log != nil && bits != 0 {
				ic.log.TraceInt("core %d pending |= 0x%X", core, bits)
			}
			return
		}
	}
}

// TakePending atomically swaps out and returns a core's pending word
// (acquire/release swap, spec.md §5).
func (ic *InterruptController) TakePending(core int) uint32 {
	return ic.pending[core].Swap(0)
}

// DispatchInput implements spec.md §4.3's dispatch_input: if the
// in-flight slot for the given device (KB or UART) is empty and input is
// available, route to the next core by round-robin and latch in-flight.
func (ic *InterruptController) DispatchInput(uartMode bool, ioNonEmpty bool) {
	if !ioNonEmpty {
		return
	}
	ic.mu.Lock()
	defer ic.mu.Unlock()

	bit := uint32(1) << IntBitKB
	slot := &ic.kbInFlight
	rr := &ic.rrKB
	if uartMode {
		bit = 1 << IntBitUART
		slot = &ic.uartInFlight
		rr = &ic.rrUART
	}
	if *slot != -1 {
		return
	}
	core := *rr % ic.numCores
	*rr = (*rr + 1) % ic.numCores
	*slot = core
	ic.SetPendingBits(core, bit)
}

// AckInput releases the in-flight slot for whichever of KB/UART appears
// in clearedBits, allowing the next interrupt for that device to fire.
func (ic *InterruptController) AckInput(core int, clearedBits uint32) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	if clearedBits&(1<<IntBitKB) != 0 && ic.kbInFlight == core {
		ic.kbInFlight = -1
	}
	if clearedBits&(1<<IntBitUART) != 0 && ic.uartInFlight == core {
		ic.uartInFlight = -1
	}
}

// deviceRoute names the three independently round-robined device bits.
type deviceRoute struct {
	bit uint32
	rr  *int
}

// DispatchDeviceInterrupts implements dispatch_device_interrupts: for
// each asserted bit among sd, vga, sd2, route to one core using that
// device's own round-robin counter.
func (ic *InterruptController) DispatchDeviceInterrupts(bits uint32) {
	ic.mu.Lock()
	defer ic.mu.Unlock()

	routes := []deviceRoute{
		{1 << IntBitSD, &ic.rrSD},
		{1 << IntBitVGA, &ic.rrVGA},
		{1 << IntBitSD2, &ic.rrSD2},
	}
	for _, r := range routes {
		if bits&r.bit == 0 {
			continue
		}
		core := *r.rr % ic.numCores
		*r.rr = (*r.rr + 1) % ic.numCores
		ic.SetPendingBits(core, r.bit)
	}
}

// SendIPI stores payload in target's IPI slot (release) and raises the
// IPI bit. Returns false if target is out of range.
func (ic *InterruptController) SendIPI(target int, payload uint32) bool {
	if target < 0 || target >= ic.numCores {
		return false
	}
	ic.ipi[target].Store(payload)
	ic.SetPendingBits(target, 1<<IntBitIPI)
	return true
}

// SendIPIAll broadcasts to every other core and returns the bitmask of
// targets signaled.
func (ic *InterruptController) SendIPIAll(sender int, payload uint32) uint32 {
	var mask uint32
	for c := 0; c < ic.numCores; c++ {
		if c == sender {
			continue
		}
		ic.SendIPI(c, payload)
		mask |= 1 << uint(c)
	}
	return mask
}

// TakeIPIPayload reads (acquire) and clears a core's latched IPI payload.
// Called by the CPU when delivering the IPI bit to MBI.
func (ic *InterruptController) TakeIPIPayload(core int) uint32 {
	return ic.ipi[core].Swap(0)
}
