package bus

import (
	"gones/internal/apu"
	"gones/internal/cartridge"
	"gones/internal/cpu"
	"gones/internal/input"
	"gones/internal/ppu"
)

// State is a serializable snapshot of the machine for save/load. The CPU,
// PPU and APU sub-states each document what they leave out (pending
// interrupts, shift registers, in-flight channel state).
type State struct {
	CPU   cpu.State
	PPU   ppu.State
	APU   apu.State
	Cart  cartridge.State
	Input input.State

	RAM            [0x0800]uint8
	OpenBus        uint8
	TotalCPUCycles uint64
	StallCycles    uint64
	PrevNMI        bool
}

// SaveState captures the whole machine.
func (b *Bus) SaveState() State {
	s := State{
		CPU:            b.CPU.SaveState(),
		PPU:            b.PPU.SaveState(),
		APU:            b.APU.SaveState(),
		Input:          b.Input.SaveState(),
		RAM:            b.ram,
		OpenBus:        b.openBus,
		TotalCPUCycles: b.totalCPUCycles,
		StallCycles:    b.stallCycles,
		PrevNMI:        b.prevNMI,
	}
	if cart, ok := b.cart.(*cartridge.Cartridge); ok {
		s.Cart = cart.SaveState()
	}
	return s
}

// LoadState restores a previously captured snapshot. The cartridge must
// already be loaded; only its RAM and bank state are restored.
func (b *Bus) LoadState(s State) {
	b.CPU.LoadState(s.CPU)
	b.PPU.LoadState(s.PPU)
	b.APU.LoadState(s.APU)
	b.Input.LoadState(s.Input)
	b.ram = s.RAM
	b.openBus = s.OpenBus
	b.totalCPUCycles = s.TotalCPUCycles
	b.stallCycles = s.StallCycles
	b.prevNMI = s.PrevNMI
	if cart, ok := b.cart.(*cartridge.Cartridge); ok {
		cart.LoadState(s.Cart)
	}
}
