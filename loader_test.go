package main

import (
	"strings"
	"testing"
)

func TestLoadProgramTextParsesBasicImage(t *testing.T) {
	src := `; a comment
// another style
#label start 100
DEADBEEF
0000000A
`
	img, err := LoadProgramText(strings.NewReader(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Labels["start"] != 0x100 {
		t.Fatalf("label start = 0x%X, want 0x100", img.Labels["start"])
	}
	if len(img.Words) != 2 {
		t.Fatalf("got %d words, want 2", len(img.Words))
	}
	if img.Words[0].Addr != 0 || img.Words[0].Word != 0xDEADBEEF {
		t.Fatalf("word 0 = %+v", img.Words[0])
	}
	if img.Words[1].Addr != 4 || img.Words[1].Word != 0xA {
		t.Fatalf("word 1 = %+v", img.Words[1])
	}
}

func TestLoadProgramTextLoadAddressDirective(t *testing.T) {
	src := "@10\n00000001\n"
	img, err := LoadProgramText(strings.NewReader(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(img.Words) != 1 || img.Words[0].Addr != 0x40 {
		t.Fatalf("words = %+v, want addr 0x40 (0x10*4)", img.Words)
	}
}

func TestLoadProgramTextRejectsMalformedLabel(t *testing.T) {
	_, err := LoadProgramText(strings.NewReader("#label onlyname\n"))
	if err == nil {
		t.Fatal("expected error for malformed #label directive")
	}
}

func TestLoadProgramTextRejectsBadHexWord(t *testing.T) {
	_, err := LoadProgramText(strings.NewReader("not-hex\n"))
	if err == nil {
		t.Fatal("expected error for non-hex word line")
	}
}

func TestInstallIntoWritesLittleEndian(t *testing.T) {
	img := &ProgramImage{Words: []ImageWord{{Addr: 0x1000, Word: 0x11223344}}}
	bus := NewBus(NewLogger(nil, LevelError))
	if err := img.InstallInto(bus); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := bus.Read32(0x1000); got != 0x11223344 {
		t.Fatalf("installed word = 0x%08X, want 0x11223344", got)
	}
	if got := bus.Read8(0x1000); got != 0x44 {
		t.Fatalf("low byte = 0x%02X, want 0x44 (little-endian)", got)
	}
}
