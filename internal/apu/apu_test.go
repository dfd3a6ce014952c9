package apu

import "testing"

func TestWriteChannelEnableClearsLengthCounters(t *testing.T) {
	a := New()
	a.pulse1.lengthCounter = 5
	a.writeChannelEnable(0x00)
	if a.pulse1.lengthCounter != 0 {
		t.Fatalf("pulse1 length counter = %d, want 0 after disabling", a.pulse1.lengthCounter)
	}
}

func TestPulseTimerHighLoadsLengthCounter(t *testing.T) {
	a := New()
	a.writePulseTimerHigh(&a.pulse1, 0x08) // index 1 -> lengthTable[1] = 254
	if a.pulse1.lengthCounter != 254 {
		t.Fatalf("lengthCounter = %d, want 254", a.pulse1.lengthCounter)
	}
	if !a.pulse1.envelopeStart {
		t.Fatal("writing timer-high should restart the envelope")
	}
}

func TestFrameIRQFlagSetInFourStepMode(t *testing.T) {
	a := New()
	a.writeFrameCounter(0x00) // 4-step, IRQ enabled
	for i := 0; i < 29830; i++ {
		a.stepFrameCounter()
	}
	if !a.frameIRQFlag {
		t.Fatal("expected frame IRQ flag after a full 4-step sequence")
	}
}

func TestFrameIRQDisabledWhenInhibited(t *testing.T) {
	a := New()
	a.writeFrameCounter(0x40) // IRQ inhibit
	for i := 0; i < 29830; i++ {
		a.stepFrameCounter()
	}
	if a.frameIRQFlag {
		t.Fatal("frame IRQ flag must stay clear when inhibited")
	}
}

func TestReadStatusClearsFrameIRQ(t *testing.T) {
	a := New()
	a.frameIRQFlag = true
	if status := a.ReadStatus(); status&0x40 == 0 {
		t.Fatal("status should report the frame IRQ flag")
	}
	if a.frameIRQFlag {
		t.Fatal("reading $4015 must clear the frame IRQ flag")
	}
}

func TestDMCSampleFetchUsesWiredMemReader(t *testing.T) {
	a := New()
	mem := map[uint16]uint8{0xC000: 0xAB}
	var stalled int
	a.SetMemReader(func(addr uint16) uint8 { return mem[addr] })
	a.SetDMAStallNotifier(func(cycles int) { stalled += cycles })

	a.writeDMCSampleAddress(0x00) // sampleAddress = 0xC000
	a.writeDMCSampleLength(0x00)  // sampleLength = 1
	a.channelEnable[4] = true
	a.dmc.currentAddress = 0xC000
	a.dmc.bytesRemaining = 1
	a.dmc.sampleBufferEmpty = true
	a.dmc.timerCounter = 0

	a.stepDMCTimer(&a.dmc)

	if a.dmc.sampleBuffer != 0xAB {
		t.Fatalf("sampleBuffer = %#02x, want 0xAB", a.dmc.sampleBuffer)
	}
	if stalled != 4 {
		t.Fatalf("stalled cycles = %d, want 4", stalled)
	}
}

func TestMixChannelsSilentWhenAllZero(t *testing.T) {
	a := New()
	out := a.mixChannels(0, 0, 0, 0, 0)
	if out != -1.0 {
		t.Fatalf("mixChannels(0,0,0,0,0) = %f, want -1.0 (silence)", out)
	}
}

func TestNoiseShiftRegisterInitialValue(t *testing.T) {
	a := New()
	if a.noise.shiftRegister != 1 {
		t.Fatalf("shiftRegister = %d, want 1", a.noise.shiftRegister)
	}
}
