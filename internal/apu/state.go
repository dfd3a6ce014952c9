package apu

// State is a simplified APU snapshot: channel enables and frame-sequencer
// mode survive a save/load, while in-flight envelope, sweep and sequencer
// phase are not captured; LoadState leaves them at whatever values the
// running APU held before the load.
type State struct {
	ChannelEnable  [5]bool
	FrameMode      bool
	FrameIRQEnable bool
	FrameIRQFlag   bool
	SampleRate     int
}

// SaveState captures the APU's channel enables and frame-sequencer mode.
func (apu *APU) SaveState() State {
	return State{
		ChannelEnable:  apu.channelEnable,
		FrameMode:      apu.frameMode,
		FrameIRQEnable: apu.frameIRQEnable,
		FrameIRQFlag:   apu.frameIRQFlag,
		SampleRate:     apu.sampleRate,
	}
}

// LoadState restores a previously captured snapshot.
func (apu *APU) LoadState(s State) {
	apu.channelEnable = s.ChannelEnable
	apu.frameMode = s.FrameMode
	apu.frameIRQEnable = s.FrameIRQEnable
	apu.frameIRQFlag = s.FrameIRQFlag
	apu.sampleRate = s.SampleRate
}
