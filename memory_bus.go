package main

import (
	"fmt"
	"sort"
	"sync"
)

// MMIODevice is implemented by anything the bus dispatches byte accesses
// to instead of the backing sparse memory map: SD DMA register blocks,
// the PS2/UART/PIT/clock registers, and the VGA scalar registers. Larger
// byte-addressed regions (tile map, tile/pixel framebuffers, sprite map)
// are NOT MMIODevices — the CPU writes them directly as plain memory and
// video.go reads the same bytes back, matching spec.md §4.1's bus table
// ("tile pattern storage", "tile framebuffer", ...) where those ranges
// are just memory, not intercepted registers.
type MMIODevice interface {
	// Contains reports whether addr falls inside this device's region.
	Contains(addr uint32) bool
	ReadByte(addr uint32) uint8
	WriteByte(addr uint32, v uint8)
}

// ReadOnlyRange marks a physical address range that rejects writes with
// WriteToReadOnly (VGA_STATUS, VGA_FRAME per spec.md §4.1).
type ReadOnlyRange struct {
	Start, End uint32
}

// Bus implements spec.md §4.1: a byte-addressable physical memory store
// overlaid with memory-mapped device registers, plus atomic 32-bit RMW
// and gather/scatter byte helpers. Physical memory is modeled as a
// sparse mapping from address to byte (spec.md §3's own phrasing),
// rather than one contiguous allocation, since the address space used by
// Dioptase spans low RAM and a handful of high MMIO windows near
// PHYSMEM_MAX with a large unused gap between them.
type Bus struct {
	mu      sync.Mutex
	memory  map[uint32]uint8
	devices []MMIODevice
	roRange []ReadOnlyRange

	log *Logger

	uartOut   func(b byte)
	ps2Queue  []uint16
	sdRaised  bool
	vgaRaised bool
	sd2Raised bool
}

// NewBus creates an empty bus.
func NewBus(log *Logger) *Bus {
	return &Bus{memory: make(map[uint32]uint8), log: log}
}

// RegisterDevice adds an MMIO device to the dispatch list.
func (b *Bus) RegisterDevice(d MMIODevice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.devices = append(b.devices, d)
}

// MarkReadOnly registers a physical range as read-only.
func (b *Bus) MarkReadOnly(start, end uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roRange = append(b.roRange, ReadOnlyRange{start, end})
	sort.Slice(b.roRange, func(i, j int) bool { return b.roRange[i].Start < b.roRange[j].Start })
}

func (b *Bus) isReadOnly(addr uint32) bool {
	for _, r := range b.roRange {
		if addr >= r.Start && addr <= r.End {
			return true
		}
	}
	return false
}

func (b *Bus) deviceFor(addr uint32) MMIODevice {
	for _, d := range b.devices {
		if d.Contains(addr) {
			return d
		}
	}
	return nil
}

func (b *Bus) checkBounds(addr uint32) {
	if addr > PhysMemMax {
		panic(&BadPhysicalAddressError{Addr: addr})
	}
}

func (b *Bus) read8Locked(addr uint32) uint8 {
	b.checkBounds(addr)
	if d := b.deviceFor(addr); d != nil {
		return d.ReadByte(addr)
	}
	return b.memory[addr]
}

func (b *Bus) write8Locked(addr uint32, v uint8) {
	b.checkBounds(addr)
	if b.isReadOnly(addr) {
		panic(&WriteToReadOnlyError{Addr: addr})
	}
	if d := b.deviceFor(addr); d != nil {
		d.WriteByte(addr, v)
		return
	}
	if v == 0 {
		delete(b.memory, addr)
		return
	}
	b.memory[addr] = v
}

// Read8 reads a single byte.
func (b *Bus) Read8(addr uint32) uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.read8Locked(addr)
}

// Write8 writes a single byte. UART_TX additionally emits to stdout per
// spec.md §4.1.
func (b *Bus) Write8(addr uint32, v uint8) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.write8Locked(addr, v)
	if addr == UartTX && b.uartOut != nil {
		b.uartOut(v)
	}
}

// Read16 composes two bytes little-endian under a single lock, so a
// concurrent writer cannot tear the halfword.
func (b *Bus) Read16(addr uint32) uint16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	lo := uint16(b.read8Locked(addr))
	hi := uint16(b.read8Locked(addr + 1))
	return lo | hi<<8
}

func (b *Bus) Write16(addr uint32, v uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.write8Locked(addr, uint8(v))
	b.write8Locked(addr+1, uint8(v>>8))
}

// Read32 composes four bytes little-endian under a single lock.
func (b *Bus) Read32(addr uint32) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.read32Locked(addr)
}

func (b *Bus) read32Locked(addr uint32) uint32 {
	var v uint32
	for i := uint32(0); i < 4; i++ {
		v |= uint32(b.read8Locked(addr+i)) << (8 * i)
	}
	return v
}

func (b *Bus) Write32(addr uint32, v uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.write32Locked(addr, v)
}

func (b *Bus) write32Locked(addr uint32, v uint32) {
	for i := uint32(0); i < 4; i++ {
		b.write8Locked(addr+i, uint8(v>>(8*i)))
	}
}

// AtomicSwap32 swaps v into addr and returns the previous value, holding
// the bus lock for the whole read-then-write (spec.md §4.1/§5).
func (b *Bus) AtomicSwap32(addr uint32, v uint32) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	prev := b.read32Locked(addr)
	b.write32Locked(addr, v)
	return prev
}

// AtomicAdd32 adds v to the word at addr and returns the previous value.
func (b *Bus) AtomicAdd32(addr uint32, v uint32) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	prev := b.read32Locked(addr)
	b.write32Locked(addr, prev+v)
	return prev
}

// ReadPhysBytes gathers the bytes at addrs (in order) under one lock,
// preventing tearing against concurrent writers (spec.md §4.1).
func (b *Bus) ReadPhysBytes(addrs []uint32) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, len(addrs))
	for i, a := range addrs {
		out[i] = b.read8Locked(a)
	}
	return out
}

// WritePhysBytes scatters data to addrs (in order) under one lock. A
// byte landing on UART_TX is also emitted, as in Write8.
func (b *Bus) WritePhysBytes(addrs []uint32, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, a := range addrs {
		b.write8Locked(a, data[i])
		if a == UartTX && b.uartOut != nil {
			b.uartOut(data[i])
		}
	}
}

// RaiseSD, RaiseSD2 and RaiseVGA latch a device-raised interrupt bit,
// drained by CheckInterrupts (spec.md §4.1's check_interrupts).
func (b *Bus) RaiseSD() {
	b.mu.Lock()
	b.sdRaised = true
	b.mu.Unlock()
}

func (b *Bus) RaiseSD2() {
	b.mu.Lock()
	b.sd2Raised = true
	b.mu.Unlock()
}

func (b *Bus) RaiseVGA() {
	b.mu.Lock()
	b.vgaRaised = true
	b.mu.Unlock()
}

// CheckInterrupts atomically takes and clears the pending device-raised
// bits (sd, vga, sd2).
func (b *Bus) CheckInterrupts() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	var bits uint32
	if b.sdRaised {
		bits |= 1 << IntBitSD
		b.sdRaised = false
	}
	if b.sd2Raised {
		bits |= 1 << IntBitSD2
		b.sd2Raised = false
	}
	if b.vgaRaised {
		bits |= 1 << IntBitVGA
		b.vgaRaised = false
	}
	return bits
}

// QueuePS2 appends a keycode to the PS/2 input queue (host collaborator
// feeds real keystrokes in; tests feed synthetic ones).
func (b *Bus) QueuePS2(code uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ps2Queue = append(b.ps2Queue, code)
}

// PS2NonEmpty reports whether the PS/2 queue has pending input, used by
// the tick driver's dispatch_input call.
func (b *Bus) PS2NonEmpty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ps2Queue) > 0
}

func (b *Bus) ps2Peek() uint8 {
	if len(b.ps2Queue) == 0 {
		return 0
	}
	return uint8(b.ps2Queue[0])
}

func (b *Bus) ps2Pop() uint8 {
	if len(b.ps2Queue) == 0 {
		return 0
	}
	v := uint8(b.ps2Queue[0] >> 8)
	b.ps2Queue = b.ps2Queue[1:]
	return v
}

// SetUARTSink installs the callback invoked whenever UART_TX is written.
func (b *Bus) SetUARTSink(fn func(b byte)) { b.uartOut = fn }

// LoadImage copies raw bytes starting at the given physical address —
// used by the boot path to install program images and SD disk contents.
func (b *Bus) LoadImage(start uint32, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, v := range data {
		addr := start + uint32(i)
		if addr > PhysMemMax {
			return fmt.Errorf("%w: image extends past PHYSMEM_MAX at 0x%08X", ErrLoadError, addr)
		}
		b.write8Locked(addr, v)
	}
	return nil
}
