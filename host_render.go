package main

// FrameSink receives completed frames from the video subsystem. A real
// host renderer (not part of this module's scope; see spec.md's GUI
// non-goal) would implement this against a window; NullFrameSink and
// StatFrameSink are the two in-repo implementations, grounded on
// video_chip.go's dirty-region bookkeeping generalized to a simple
// per-frame callback instead of a bitmap diff.
type FrameSink interface {
	// Present is called once per vblank with the frame counter that just
	// completed.
	Present(frame uint32)
}

// NullFrameSink discards every frame; used for headless runs (no --vga).
type NullFrameSink struct{}

func (NullFrameSink) Present(uint32) {}

// StatFrameSink counts presented frames without rendering anything,
// useful for tests and for a --vga-less run that still wants to observe
// vblank cadence.
type StatFrameSink struct {
	Frames uint64
}

func (s *StatFrameSink) Present(frame uint32) {
	s.Frames++
}

// DrivePresent wires a Video's vblank events into a FrameSink: call once
// per host frame tick to advance vblank and hand the new frame number to
// sink. main.go does not call it.
func DrivePresent(v *Video, sink FrameSink) {
	v.Vblank()
	sink.Present(v.frame)
}
