// Package bus wires the CPU, PPU, APU, controller ports and cartridge
// together behind the CPU's single 16-bit address space.
package bus

import (
	"gones/internal/apu"
	"gones/internal/cartridge"
	"gones/internal/cpu"
	"gones/internal/input"
	"gones/internal/ppu"
)

// Cartridge is the subset of cartridge.Cartridge the bus addresses through.
// It is satisfied directly by *cartridge.Cartridge.
type Cartridge interface {
	CPURead(addr uint16) uint8
	CPUWrite(addr uint16, v uint8)
	PPURead(addr uint16) uint8
	PPUWrite(addr uint16, v uint8)
	MirrorMode() cartridge.MirrorMode
	IRQLine() bool
	NotifyA12(rise bool)
}

// Bus owns every NES component and decodes the CPU's address space across
// them, including OAM DMA and DMC DMA stalls.
type Bus struct {
	CPU   *cpu.CPU
	PPU   *ppu.PPU
	APU   *apu.APU
	Input *input.Ports

	cart Cartridge

	ram [0x0800]uint8

	openBus uint8

	totalCPUCycles uint64
	stallCycles    uint64

	prevNMI bool
}

// New creates a Bus with no cartridge loaded. LoadCartridge must be called
// before Reset for CPU reads above $4020 to return anything but open bus.
func New(totalScanlines int) *Bus {
	b := &Bus{}
	b.PPU = ppu.New(nil, totalScanlines)
	b.APU = apu.New()
	b.Input = input.NewPorts()
	b.CPU = cpu.New(b)

	b.APU.SetMemReader(b.Read)
	b.APU.SetDMAStallNotifier(b.RequestDMAStall)

	return b
}

// LoadCartridge swaps in a new cartridge and rewires the PPU's mapper.
func (b *Bus) LoadCartridge(cart Cartridge) {
	b.cart = cart
	b.PPU.SetMapper(cart)
}

// Reset resets every component and clears bus-level timing state.
func (b *Bus) Reset() {
	b.ram = [0x0800]uint8{}
	b.openBus = 0
	b.totalCPUCycles = 0
	b.stallCycles = 0
	b.prevNMI = false
	b.APU.Reset()
	b.PPU.Reset()
	b.Input.Reset()
	b.CPU.Reset()
}

// SoftReset models the console's reset button: only the CPU re-reads the
// reset vector and reinitializes its registers. RAM, PPU, APU and
// controller state are left untouched.
func (b *Bus) SoftReset() {
	b.CPU.Reset()
}

// Read implements cpu.Bus, decoding the full $0000-$FFFF address space.
func (b *Bus) Read(addr uint16) uint8 {
	switch {
	case addr < 0x2000:
		b.openBus = b.ram[addr&0x07FF]
	case addr < 0x4000:
		b.openBus = b.PPU.ReadRegister(addr)
	case addr == 0x4015:
		b.openBus = b.APU.ReadStatus()
	case addr == 0x4016:
		b.openBus = (b.openBus & 0xE0) | (b.Input.Read(0x4016) & 0x1F)
	case addr == 0x4017:
		b.openBus = (b.openBus & 0xE0) | (b.Input.Read(0x4017) & 0x1F)
	case addr < 0x4020:
		// Remaining APU/IO registers are write-only or unused by this
		// core; reads return the open-bus latch.
	default:
		if b.cart != nil {
			b.openBus = b.cart.CPURead(addr)
		}
	}
	return b.openBus
}

// Write implements cpu.Bus.
func (b *Bus) Write(addr uint16, v uint8) {
	b.openBus = v
	switch {
	case addr < 0x2000:
		b.ram[addr&0x07FF] = v
	case addr < 0x4000:
		b.PPU.WriteRegister(addr, v)
	case addr == 0x4014:
		b.oamDMA(v)
	case addr == 0x4016:
		b.Input.Write(addr, v)
	case addr <= 0x4013, addr == 0x4015, addr == 0x4017:
		b.APU.WriteRegister(addr, v)
	case addr < 0x4020:
		// Unused APU/IO test-mode registers.
	default:
		if b.cart != nil {
			b.cart.CPUWrite(addr, v)
		}
	}
}

func (b *Bus) oamDMA(page uint8) {
	base := uint16(page) << 8
	for i := 0; i < 256; i++ {
		b.PPU.WriteOAMByte(b.Read(base + uint16(i)))
	}
	cycles := uint64(513)
	if b.totalCPUCycles%2 == 1 {
		cycles = 514
	}
	b.stallCycles += cycles
}

// RequestDMAStall is wired into the APU so a DMC sample fetch can stall the
// CPU for the given number of cycles the way OAM DMA does.
func (b *Bus) RequestDMAStall(cycles int) {
	b.stallCycles += uint64(cycles)
}

// StepInstruction executes one CPU instruction (or, while a DMA stall is in
// progress, one stalled cycle) and advances the PPU and APU in lockstep,
// returning the number of CPU cycles consumed.
func (b *Bus) StepInstruction() uint8 {
	var cycles uint8
	if b.stallCycles > 0 {
		cycles = 1
		b.stallCycles--
	} else {
		cycles = b.CPU.Step()
	}

	for i := uint8(0); i < cycles*3; i++ {
		b.PPU.Tick()
		asserted := b.PPU.NMIAsserted()
		if asserted && !b.prevNMI {
			b.CPU.NMI()
		}
		b.prevNMI = asserted
	}

	for i := uint8(0); i < cycles; i++ {
		b.APU.Step()
	}

	irq := b.APU.GetFrameIRQ() || b.APU.GetDMCIRQ()
	if b.cart != nil {
		irq = irq || b.cart.IRQLine()
	}
	b.CPU.SetIRQ(irq)

	b.totalCPUCycles += uint64(cycles)
	return cycles
}

// FrameReady reports whether the PPU has completed a frame since the last
// call, clearing the flag.
func (b *Bus) FrameReady() bool { return b.PPU.FrameReady() }

// FrameBuffer returns the last completed frame's pixels.
func (b *Bus) FrameBuffer() *[256 * 240]uint32 { return b.PPU.FrameBuffer() }

// AudioSamples drains and returns the APU's pending audio samples.
func (b *Bus) AudioSamples() []float32 { return b.APU.GetSamples() }

// TotalCPUCycles returns the number of CPU cycles executed since Reset.
func (b *Bus) TotalCPUCycles() uint64 { return b.totalCPUCycles }
