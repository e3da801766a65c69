// main.go - Dioptase CLI entry point: config -> program loader -> VM run.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"
)

func main() {
	fs := flag.NewFlagSet("dioptase", flag.ExitOnError)
	cfg, err := ParseFlags(fs, os.Args[1:], uint64(time.Now().UnixNano()))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	level := LevelInfo
	log := NewLogger(os.Stderr, level)
	log.SetTraceInterrupts(cfg.TraceInts)

	vm := NewVM(cfg, log)

	if err := loadImageFile(vm, cfg.RAMPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if cfg.SD0Path != "" {
		if err := loadSDImage(vm.SD0, cfg.SD0Path); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if cfg.SD1Path != "" {
		if err := loadSDImage(vm.SD1, cfg.SD1Path); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	if cfg.EnableUART {
		SetUARTSink(vm.Bus)
	}

	var term *HostTerminal
	if cfg.EnableVGA || cfg.EnableUART {
		term = NewHostTerminal(vm.Bus, vm.IO, cfg.EnableUART)
		term.Start()
		defer term.Stop()
	}

	if cfg.Debug || cfg.DebugC {
		repl := NewDebuggerREPL(vm, os.Stdout)
		repl.Run(os.Stdin)
		return
	}

	if err := vm.Run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("%08X\n", vm.Cores[0].GetReg(1))
	os.Exit(0)
}

func loadImageFile(vm *VM, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLoadError, err)
	}
	defer f.Close()

	img, err := LoadProgramText(f)
	if err != nil {
		return err
	}
	return img.InstallInto(vm.Bus)
}

func loadSDImage(e *SDEngine, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLoadError, err)
	}
	e.LoadImage(data)
	return nil
}
