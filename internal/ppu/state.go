package ppu

// State is a serializable snapshot of everything needed to resume
// rendering from the exact dot it was captured at.
type State struct {
	Ctrl, Mask, Status, OAMAddr uint8
	V, T                        uint16
	X                           uint8
	W                           bool
	ReadBuffer, BusLatch        uint8

	VRAM    [0x800]uint8
	Palette [32]uint8
	OAM     [256]uint8

	Scanline, Dot int
	OddFrame      bool
}

// SaveState captures the PPU's registers and memories.
func (p *PPU) SaveState() State {
	return State{
		Ctrl: p.ctrl, Mask: p.mask, Status: p.status, OAMAddr: p.oamAddr,
		V: p.v, T: p.t, X: p.x, W: p.w,
		ReadBuffer: p.readBuffer, BusLatch: p.busLatch,
		VRAM: p.vram, Palette: p.palette, OAM: p.oam,
		Scanline: p.scanline, Dot: p.dot, OddFrame: p.oddFrame,
	}
}

// LoadState restores a previously captured snapshot. Background/sprite
// shift registers are left cleared; they refill within a handful of dots
// and do not affect correctness across a save/load boundary.
func (p *PPU) LoadState(s State) {
	p.ctrl, p.mask, p.status, p.oamAddr = s.Ctrl, s.Mask, s.Status, s.OAMAddr
	p.v, p.t, p.x, p.w = s.V, s.T, s.X, s.W
	p.readBuffer, p.busLatch = s.ReadBuffer, s.BusLatch
	p.vram, p.palette, p.oam = s.VRAM, s.Palette, s.OAM
	p.scanline, p.dot, p.oddFrame = s.Scanline, s.Dot, s.OddFrame
	p.spriteCount = 0
	p.bgShiftLo, p.bgShiftHi = 0, 0
	p.bgAttrShiftLo, p.bgAttrShiftHi = 0, 0
	p.updateNMI()
}
