package main

import (
	"errors"
	"flag"
	"testing"
)

func TestParseFlagsRequiresRAM(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	_, err := ParseFlags(fs, []string{}, 1)
	if !errors.Is(err, ErrConfigError) {
		t.Fatalf("err = %v, want ErrConfigError", err)
	}
}

func TestParseFlagsRejectsOutOfRangeCores(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	_, err := ParseFlags(fs, []string{"-ram", "image.bin", "-cores", "9"}, 1)
	if !errors.Is(err, ErrConfigError) {
		t.Fatalf("err = %v, want ErrConfigError", err)
	}
}

func TestParseFlagsRejectsUnknownSchedMode(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	_, err := ParseFlags(fs, []string{"-ram", "image.bin", "-sched", "bogus"}, 1)
	if !errors.Is(err, ErrConfigError) {
		t.Fatalf("err = %v, want ErrConfigError", err)
	}
}

func TestParseFlagsDebugForcesSingleCoreFreeMode(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := ParseFlags(fs, []string{"-ram", "image.bin", "-cores", "4", "-sched", "rr", "-debug"}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Cores != 1 {
		t.Fatalf("Cores = %d, want 1 when -debug is set", cfg.Cores)
	}
	if cfg.SchedMode != SchedFree {
		t.Fatalf("SchedMode = %v, want SchedFree when -debug is set", cfg.SchedMode)
	}
}

func TestParseFlagsValidConfig(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := ParseFlags(fs, []string{"-ram", "image.bin", "-cores", "3", "-sched", "random"}, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Cores != 3 || cfg.SchedMode != SchedRandom || cfg.SchedSeed != 7 {
		t.Fatalf("cfg = %+v", cfg)
	}
}
