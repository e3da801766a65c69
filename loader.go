package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ProgramImage is the result of parsing spec.md §6's program-image text
// format: a set of byte writes destined for the bus, plus any debug
// labels the image declared.
type ProgramImage struct {
	Words  []ImageWord
	Labels map[string]uint32
}

// ImageWord is one little-endian 32-bit word destined for a physical
// address.
type ImageWord struct {
	Addr uint32
	Word uint32
}

// LoadProgramText parses the text format from spec.md §6:
//   - blank lines and lines starting with ';' or "//" are ignored
//   - "#label <name> <hex-addr>" records a debug label
//   - "@<hex>" sets the load address to hex*4
//   - anything else is one 32-bit hex instruction word, written
//     little-endian at the current load address, which then advances by 4
func LoadProgramText(r io.Reader) (*ProgramImage, error) {
	img := &ProgramImage{Labels: make(map[string]uint32)}
	scanner := bufio.NewScanner(r)

	var addr uint32
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "#label") {
			fields := strings.Fields(line)
			if len(fields) != 3 {
				return nil, fmt.Errorf("%w: line %d: malformed #label directive %q", ErrAssemblerImage, lineNo, line)
			}
			v, err := strconv.ParseUint(fields[2], 16, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: bad label address %q", ErrAssemblerImage, lineNo, fields[2])
			}
			img.Labels[fields[1]] = uint32(v)
			continue
		}

		if strings.HasPrefix(line, "@") {
			v, err := strconv.ParseUint(strings.TrimPrefix(line, "@"), 16, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: bad load-address directive %q", ErrAssemblerImage, lineNo, line)
			}
			addr = uint32(v) * 4
			continue
		}

		v, err := strconv.ParseUint(line, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: not a hex word: %q", ErrAssemblerImage, lineNo, line)
		}
		img.Words = append(img.Words, ImageWord{Addr: addr, Word: uint32(v)})
		addr += 4
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadError, err)
	}
	return img, nil
}

// InstallInto writes every word of the image into the bus little-endian,
// the boot-time counterpart to spec.md §6's "written little-endian at the
// current load address".
func (img *ProgramImage) InstallInto(bus *Bus) error {
	for _, w := range img.Words {
		data := []byte{
			byte(w.Word),
			byte(w.Word >> 8),
			byte(w.Word >> 16),
			byte(w.Word >> 24),
		}
		if err := bus.LoadImage(w.Addr, data); err != nil {
			return err
		}
	}
	return nil
}
