package emulator

import (
	"encoding/json"
	"errors"
	"testing"
)

func buildINES(prgBanks int) []byte {
	data := make([]byte, 16+prgBanks*16384+8192)
	copy(data[0:4], "NES\x1A")
	data[4] = uint8(prgBanks)
	data[5] = 1
	return data
}

func TestLoadROMRejectsBadMagic(t *testing.T) {
	e := New(RegionNTSC)
	data := buildINES(1)
	data[0] = 'X'
	if err := e.LoadROM(data); err == nil {
		t.Fatal("expected an error for a corrupt iNES header")
	}
}

func TestRunFrameInvokesSinks(t *testing.T) {
	e := New(RegionNTSC)
	if err := e.LoadROM(buildINES(1)); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}

	var videoCalls, audioCalls int
	e.SetVideoSink(func(frame *[256 * 240]uint32) { videoCalls++ })
	e.SetAudioSink(func(samples []float32) { audioCalls++ })

	stats := e.RunFrame()
	if videoCalls != 1 {
		t.Fatalf("videoCalls = %d, want 1", videoCalls)
	}
	if stats.CPUCycles == 0 {
		t.Fatal("expected a non-zero CPU cycle count for a full frame")
	}
	if stats.PPUCycles != stats.CPUCycles*3 {
		t.Fatalf("PPUCycles = %d, want 3x CPUCycles (%d)", stats.PPUCycles, stats.CPUCycles*3)
	}
	if stats.FramesCompleted != 1 {
		t.Fatalf("FramesCompleted = %d, want 1", stats.FramesCompleted)
	}
	if stats.FrameIndex != 1 {
		t.Fatalf("FrameIndex = %d, want 1", stats.FrameIndex)
	}
}

func TestRunFrameCompletesBeforeSafetyCap(t *testing.T) {
	e := New(RegionNTSC)
	if err := e.LoadROM(buildINES(1)); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}

	capCycles := 2 * cyclesPerFrame(scanlinesFor(RegionNTSC))
	stats := e.RunFrame()
	if stats.CPUCycles >= capCycles {
		t.Fatalf("CPUCycles = %d hit the safety cap %d; frame never completed", stats.CPUCycles, capCycles)
	}
}

func TestLoadStateRejectsVersionMismatch(t *testing.T) {
	e := New(RegionNTSC)
	if err := e.LoadROM(buildINES(1)); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}

	data, err := e.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	var s savedState
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	s.Version = stateVersion + 1
	bad, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	before := e.frameIndex
	if err := e.LoadState(bad); !errors.Is(err, ErrStateInvalid) {
		t.Fatalf("LoadState with mismatched version = %v, want ErrStateInvalid", err)
	}
	if e.frameIndex != before {
		t.Fatal("a rejected load must not mutate emulator state")
	}
}

func TestSaveLoadStateRoundTrip(t *testing.T) {
	e := New(RegionNTSC)
	if err := e.LoadROM(buildINES(1)); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	e.StepInstruction()
	e.StepInstruction()

	data, err := e.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	e.StepInstruction()
	e.StepInstruction()
	e.StepInstruction()

	if err := e.LoadState(data); err != nil {
		t.Fatalf("LoadState: %v", err)
	}

	restored, err := e.SaveState()
	if err != nil {
		t.Fatalf("SaveState after load: %v", err)
	}
	if string(restored) != string(data) {
		t.Fatal("state after save->load->save should match the original snapshot")
	}
}
