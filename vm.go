package main

import (
	"context"
	"fmt"
)

// VM wires together one Dioptase machine: the shared bus, interrupt
// controller, per-core CPUs, scheduler, the two SD DMA engines, video and
// scalar I/O devices. This is the ambient "machine" entity the teacher's
// own main.go assembles ad hoc at startup; here it is its own type so
// main.go, the debugger REPL and tests can all construct one the same
// way.
type VM struct {
	Bus    *Bus
	Intc   *InterruptController
	Cores  []*CPU
	Sched  *Scheduler
	SD0    *SDEngine
	SD1    *SDEngine
	Video  *Video
	IO     *IODevices
	Log    *Logger
	Config VMConfig
}

// NewVM constructs a machine from a VMConfig, wiring every device into
// the bus and every core into the shared interrupt controller.
func NewVM(cfg VMConfig, log *Logger) *VM {
	bus := NewBus(log)
	intc := NewInterruptController(cfg.Cores, log)
	io := NewIODevices(bus)
	video := NewVideo(bus)

	sd0 := NewSDEngine(SD0DMA, cfg.SDDmaBytesPerTick, func() { bus.RaiseSD() })
	sd1 := NewSDEngine(SD1DMA, cfg.SDDmaBytesPerTick, func() { bus.RaiseSD2() })
	bus.RegisterDevice(sd0)
	bus.RegisterDevice(sd1)

	cores := make([]*CPU, cfg.Cores)
	for i := range cores {
		cores[i] = NewCPU(i, bus, intc, io, log.With(fmt.Sprintf("core%d", i)))
	}

	sched := NewScheduler(cfg.SchedMode, cfg.Cores, cfg.SchedSeed)

	return &VM{
		Bus: bus, Intc: intc, Cores: cores, Sched: sched,
		SD0: sd0, SD1: sd1, Video: video, IO: io, Log: log, Config: cfg,
	}
}

// Run drives every core's tick loop until the scheduler reports done (a
// core halted, or a cycle budget was hit), blocking the caller.
func (vm *VM) Run(ctx context.Context) error {
	rs := &RunShared{
		maxCycles: vm.Config.MaxCycles,
		sched:     vm.Sched,
		bus:       vm.Bus,
		intc:      vm.Intc,
		io:        vm.IO,
		sd0:       vm.SD0,
		sd1:       vm.SD1,
		video:     vm.Video,
		log:       vm.Log,
	}
	return RunCores(ctx, vm.Cores, rs)
}

// Halted reports whether every core has halted.
func (vm *VM) Halted() bool {
	for _, c := range vm.Cores {
		if !c.halted {
			return false
		}
	}
	return true
}
