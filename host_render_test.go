package main

import "testing"

func TestStatFrameSinkCountsFrames(t *testing.T) {
	bus := NewBus(NewLogger(nil, LevelError))
	v := NewVideo(bus)
	sink := &StatFrameSink{}

	DrivePresent(v, sink)
	DrivePresent(v, sink)
	DrivePresent(v, sink)

	if sink.Frames != 3 {
		t.Fatalf("Frames = %d, want 3", sink.Frames)
	}
}

func TestNullFrameSinkIsNoOp(t *testing.T) {
	bus := NewBus(NewLogger(nil, LevelError))
	v := NewVideo(bus)
	var sink NullFrameSink
	DrivePresent(v, sink) // must not panic
}
