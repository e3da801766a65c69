package main

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"
)

// HostTerminal reads raw stdin and feeds bytes into the running VM's
// PS/2 keycode stream and UART RX latch, and prints bytes the guest
// writes to UART TX. Adapted from the teacher's TerminalHost: same raw
// mode + non-blocking read + background-goroutine shape, generalized
// from a single line/char-mode MMIO device to Dioptase's PS2+UART pair.
// Only instantiated by main.go for interactive --vga/--uart runs, never
// in tests.
type HostTerminal struct {
	bus *Bus
	io  *IODevices

	uartMode bool // true: route keystrokes to UART RX; false: PS/2 stream

	stopCh       chan struct{}
	done         chan struct{}
	stopped      sync.Once
	fd           int
	nonblockSet  bool
	oldTermState *term.State
}

// NewHostTerminal creates a host adapter that reads stdin into the VM's
// input devices.
func NewHostTerminal(bus *Bus, io *IODevices, uartMode bool) *HostTerminal {
	return &HostTerminal{
		bus: bus, io: io, uartMode: uartMode,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start sets stdin to raw, non-blocking mode and begins reading in a
// goroutine. Call Stop to restore stdin.
func (h *HostTerminal) Start() {
	h.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "host_terminal: failed to set raw mode: %v\n", err)
		close(h.done)
		return
	}
	h.oldTermState = oldState

	if err := syscall.SetNonblock(h.fd, true); err != nil {
		fmt.Fprintf(os.Stderr, "host_terminal: failed to set nonblocking stdin: %v\n", err)
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
		close(h.done)
		return
	}
	h.nonblockSet = true

	go func() {
		defer close(h.done)
		buf := make([]byte, 1)

		for {
			select {
			case <-h.stopCh:
				return
			default:
			}

			n, err := syscall.Read(h.fd, buf)
			if n > 0 {
				b := buf[0]
				if b == '\r' {
					b = '\n'
				}
				if b == 0x7F {
					b = 0x08
				}
				if h.uartMode {
					h.io.FeedUARTRX(b)
				} else {
					h.bus.QueuePS2(uint16(b))
				}
			}
			if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			if err != nil {
				return
			}
			if n == 0 {
				time.Sleep(5 * time.Millisecond)
			}
		}
	}()
}

// Stop terminates the stdin-reading goroutine and restores stdin.
func (h *HostTerminal) Stop() {
	h.stopped.Do(func() {
		close(h.stopCh)
	})
	<-h.done
	if h.nonblockSet {
		_ = syscall.SetNonblock(h.fd, false)
		h.nonblockSet = false
	}
	if h.oldTermState != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
	}
}

// SetUARTSink installs stdout as the UART TX sink, printing every byte
// the guest writes.
func SetUARTSink(bus *Bus) {
	bus.SetUARTSink(func(b byte) {
		os.Stdout.Write([]byte{b})
	})
}
