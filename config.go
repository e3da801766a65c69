package main

import (
	"flag"
	"fmt"
)

// VMConfig is the parsed form of the CLI contract in spec.md §6. RAM is
// required; everything else has a sensible default so tests can build a
// VMConfig by hand without going through flag parsing.
type VMConfig struct {
	RAMPath string
	SD0Path string
	SD1Path string

	EnableVGA  bool
	EnableUART bool
	Debug      bool
	DebugC     bool
	TraceInts  bool

	Cores     int
	SchedMode SchedMode
	SchedSeed uint64

	MaxCycles         uint64
	SDDmaBytesPerTick uint32
}

// DefaultConfig mirrors the teacher's own zero-value-plus-flags.Parse
// pattern: construct sane defaults, then let flag.Parse overwrite them.
func DefaultConfig() VMConfig {
	return VMConfig{
		Cores:             1,
		SchedMode:         SchedFree,
		SDDmaBytesPerTick: 4,
	}
}

// ParseFlags parses args (normally os.Args[1:]) into a VMConfig, following
// spec.md §6's CLI contract. Debug mode forces Cores to 1, matching
// spec.md §9's "single-threaded debugger API vs multi-threaded run" open
// question resolution: scheduler nondeterminism must never leak into the
// REPL.
func ParseFlags(fs *flag.FlagSet, args []string, seed uint64) (VMConfig, error) {
	cfg := DefaultConfig()
	cfg.SchedSeed = seed

	var sched string
	fs.StringVar(&cfg.RAMPath, "ram", "", "program image path (required)")
	fs.StringVar(&cfg.SD0Path, "sd0", "", "SD0 disk image path")
	fs.StringVar(&cfg.SD1Path, "sd1", "", "SD1 disk image path")
	fs.BoolVar(&cfg.EnableVGA, "vga", false, "enable video output window")
	fs.BoolVar(&cfg.EnableUART, "uart", false, "enable UART terminal adapter")
	fs.BoolVar(&cfg.Debug, "debug", false, "start with the debugger REPL attached")
	fs.BoolVar(&cfg.DebugC, "debugc", false, "start halted, waiting for debugger commands")
	fs.BoolVar(&cfg.TraceInts, "trace-ints", false, "log every pending-bit change")
	fs.IntVar(&cfg.Cores, "cores", 1, "core count, 1-4")
	fs.StringVar(&sched, "sched", "free", "scheduler mode: free|rr|random")
	fs.Uint64Var(&cfg.MaxCycles, "max-cycles", 0, "tick budget, 0 = unbounded")
	var dmaTicks uint
	fs.UintVar(&dmaTicks, "sd-dma-ticks", 4, "bytes transferred per SD DMA tick")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	cfg.SDDmaBytesPerTick = uint32(dmaTicks)

	if cfg.RAMPath == "" {
		return cfg, fmt.Errorf("%w: --ram is required", ErrConfigError)
	}
	if cfg.Cores < 1 || cfg.Cores > 4 {
		return cfg, fmt.Errorf("%w: --cores must be 1-4, got %d", ErrConfigError, cfg.Cores)
	}
	switch sched {
	case "free":
		cfg.SchedMode = SchedFree
	case "rr":
		cfg.SchedMode = SchedRoundRobin
	case "random":
		cfg.SchedMode = SchedRandom
	default:
		return cfg, fmt.Errorf("%w: --sched must be free|rr|random, got %q", ErrConfigError, sched)
	}
	if cfg.Debug || cfg.DebugC {
		cfg.Cores = 1
		cfg.SchedMode = SchedFree
	}
	return cfg, nil
}
