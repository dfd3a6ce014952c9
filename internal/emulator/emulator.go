// Package emulator implements the scheduler that drives the bus through
// whole frames and instructions, independent of any host loop or backend.
package emulator

import (
	"encoding/json"
	"errors"
	"fmt"

	"gones/internal/bus"
	"gones/internal/cartridge"
	"gones/internal/input"
	"gones/internal/ppu"
)

// ErrStateInvalid reports a save-state version mismatch or a field shape
// the current build doesn't recognize. The emulator's state is left
// unchanged when this is returned.
var ErrStateInvalid = errors.New("emulator: invalid save state")

// stateVersion is the envelope's format tag. Bump it whenever a State
// sub-struct's shape changes in a way old saves can't be read into.
const stateVersion = 1

// Region selects the console timing the scheduler clocks the bus at.
type Region int

const (
	RegionNTSC Region = iota
	RegionPAL
)

// scanlinesFor reports the PPU raster geometry for a region.
func scanlinesFor(r Region) int {
	if r == RegionPAL {
		return ppu.PALScanlines
	}
	return ppu.NTSCScanlines
}

// cyclesPerFrame returns the nominal CPU cycle count for one frame: 341
// PPU dots per scanline, 3 PPU dots per CPU cycle, for the region's total
// scanline count. run_frame uses 2x this as its safety cap.
func cyclesPerFrame(totalScanlines int) uint64 {
	return uint64(totalScanlines) * 341 / 3
}

// VideoSink receives a completed frame's pixels. Implementations must not
// call back into the Emulator; RunFrame invokes it synchronously once per
// frame.
type VideoSink func(frame *[256 * 240]uint32)

// AudioSink receives a batch of audio samples produced since the last call.
type AudioSink func(samples []float32)

// FrameStats reports diagnostic counters for the frame just executed.
type FrameStats struct {
	CPUCycles       uint64
	PPUCycles       uint64
	FramesCompleted uint64
	FrameIndex      uint64
	IllegalOpcodes  uint64
}

// Emulator is the scheduler: it owns the bus and cartridge, and exposes
// run_frame/step_instruction/reset/load_rom as the core's only entry
// points. It holds no reference to any host UI, audio backend or timer.
type Emulator struct {
	bus    *bus.Bus
	cart   *cartridge.Cartridge
	region Region

	frameIndex uint64

	videoSink VideoSink
	audioSink AudioSink
}

// New creates an Emulator with no cartridge loaded. LoadROM must be called
// before RunFrame produces anything but a cartridge-less open-bus pattern.
func New(region Region) *Emulator {
	e := &Emulator{
		bus:    bus.New(scanlinesFor(region)),
		region: region,
	}
	e.bus.Reset()
	return e
}

// SetVideoSink wires the callback RunFrame invokes with each completed
// frame's pixel buffer.
func (e *Emulator) SetVideoSink(sink VideoSink) { e.videoSink = sink }

// SetAudioSink wires the callback RunFrame invokes with each frame's
// accumulated audio samples.
func (e *Emulator) SetAudioSink(sink AudioSink) { e.audioSink = sink }

// LoadROM parses an iNES image and resets the machine onto it. On a parse
// error the emulator keeps running whatever cartridge it had loaded before.
func (e *Emulator) LoadROM(data []byte) error {
	cart, err := cartridge.Load(data)
	if err != nil {
		return fmt.Errorf("emulator: load rom: %w", err)
	}
	e.cart = cart
	e.bus.LoadCartridge(cart)
	e.bus.Reset()
	e.frameIndex = 0
	return nil
}

// Reset performs a cold reset: Bus, APU (keeping the current sample
// rate), PPU, Controllers, then CPU, without reloading the cartridge.
func (e *Emulator) Reset() {
	e.bus.Reset()
	e.frameIndex = 0
}

// SoftReset models the console's reset button: only the CPU re-reads the
// reset vector and reinitializes its registers. RAM, PPU and APU state
// and the frame counter are left untouched, matching real hardware.
func (e *Emulator) SoftReset() {
	e.bus.SoftReset()
}

// StepInstruction executes exactly one CPU instruction (or one stalled
// cycle, if a DMA transfer is in progress) and returns the CPU cycles it
// consumed.
func (e *Emulator) StepInstruction() uint8 {
	return e.bus.StepInstruction()
}

// RunFrame steps the machine until the PPU completes a frame, then
// delivers the frame buffer and audio samples to their sinks. As a
// safety net against a stuck PPU (rendering disabled in a way that never
// reaches the end-of-frame dot), it gives up after 2x a frame's nominal
// cycle count without completing a frame.
func (e *Emulator) RunFrame() FrameStats {
	startCycles := e.bus.TotalCPUCycles()
	capCycles := 2 * cyclesPerFrame(scanlinesFor(e.region))

	completed := false
	for {
		if e.bus.TotalCPUCycles()-startCycles >= capCycles {
			break
		}
		e.bus.StepInstruction()
		if e.bus.FrameReady() {
			completed = true
			break
		}
	}

	if completed {
		e.frameIndex++
		if e.videoSink != nil {
			e.videoSink(e.bus.FrameBuffer())
		}
	}
	if samples := e.bus.AudioSamples(); e.audioSink != nil && len(samples) > 0 {
		e.audioSink(samples)
	}

	cpuCycles := e.bus.TotalCPUCycles() - startCycles
	stats := FrameStats{
		CPUCycles:      cpuCycles,
		PPUCycles:      cpuCycles * 3,
		FrameIndex:     e.frameIndex,
		IllegalOpcodes: e.bus.CPU.IllegalOpcodes,
	}
	if completed {
		stats.FramesCompleted = 1
	}
	return stats
}

// Controllers exposes the controller ports for the host to drive from its
// input backend.
func (e *Emulator) Controllers() *input.Ports { return e.bus.Input }

// SetAudioSampleRate reconfigures the APU's target output sample rate.
func (e *Emulator) SetAudioSampleRate(rate int) { e.bus.APU.SetSampleRate(rate) }

// savedState is the on-disk envelope: a version tag plus enough of the
// scheduler's own bookkeeping (region, frame_index) to validate a save
// before handing its sub-states to the bus.
type savedState struct {
	Version    int
	Region     Region
	FrameIndex uint64
	Bus        bus.State
}

// SaveState serializes the full machine state to JSON, tagged with a
// format version so a future build can refuse to load an incompatible save.
func (e *Emulator) SaveState() ([]byte, error) {
	s := savedState{
		Version:    stateVersion,
		Region:     e.region,
		FrameIndex: e.frameIndex,
		Bus:        e.bus.SaveState(),
	}
	return json.Marshal(s)
}

// LoadState restores a machine state previously produced by SaveState. The
// same cartridge must already be loaded. On a version mismatch or malformed
// envelope it returns an error wrapping ErrStateInvalid and leaves the
// emulator's current state untouched.
func (e *Emulator) LoadState(data []byte) error {
	var s savedState
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: malformed save: %v", ErrStateInvalid, err)
	}
	if s.Version != stateVersion {
		return fmt.Errorf("%w: save version %d, want %d", ErrStateInvalid, s.Version, stateVersion)
	}
	if s.Region != e.region {
		return fmt.Errorf("%w: save region %d, want %d", ErrStateInvalid, s.Region, e.region)
	}
	e.bus.LoadState(s.Bus)
	e.frameIndex = s.FrameIndex
	return nil
}
