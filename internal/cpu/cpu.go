// Package cpu implements the 6502 CPU used by the NES (Ricoh 2A03, no
// decimal mode).
package cpu

// AddressingMode identifies how an opcode's operand address is formed.
type AddressingMode int

const (
	Implied AddressingMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Relative
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndexedIndirect // (zp,X)
	IndirectIndexed // (zp),Y
)

const (
	stackBase = 0x0100

	nFlagMask      = 0x80
	vFlagMask      = 0x40
	unusedFlagMask = 0x20
	bFlagMask      = 0x10
	dFlagMask      = 0x08
	iFlagMask      = 0x04
	zFlagMask      = 0x02
	cFlagMask      = 0x01

	zeroPageMask = 0x00FF
	pageMask     = 0xFF00

	nmiVector   = 0xFFFA
	resetVector = 0xFFFC
	irqVector   = 0xFFFE
)

// Bus is the interface the CPU needs from the system bus. Every access goes
// through it so bus-side mirroring, PPU register side effects and mapper
// reads stay centralized outside the CPU.
type Bus interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
}

// opcodeInfo describes the addressing mode and base timing for one of the
// 256 possible opcode bytes.
type opcodeInfo struct {
	name   string
	mode   AddressingMode
	cycles uint8
	legal  bool
}

// CPU holds the 6502 register file and interrupt lines.
type CPU struct {
	A, X, Y uint8
	SP      uint8
	PC      uint16

	C, Z, I, D, B, V, N bool

	bus Bus

	cycles uint64

	nmiPending bool
	irqLine    bool

	// IllegalOpcodes counts opcode bytes with no documented behavior,
	// each treated as a 2-cycle NOP per the core's error-handling design.
	IllegalOpcodes uint64
}

// New creates a CPU wired to bus. Reset must be called before Step.
func New(bus Bus) *CPU {
	return &CPU{bus: bus, SP: 0xFD, I: true}
}

// Reset sets SP=0xFD, I=1 and loads PC from the reset vector. A, X and Y
// are left untouched, matching real 6502 reset behavior.
func (c *CPU) Reset() {
	c.SP = 0xFD
	c.I = true
	c.PC = c.readWord(resetVector)
	c.nmiPending = false
	c.irqLine = false
}

// NMI latches a non-maskable interrupt. The scheduler calls this on the
// rising edge of the PPU's NMI line; the CPU itself does no edge detection.
func (c *CPU) NMI() {
	c.nmiPending = true
}

// SetIRQ updates the level-triggered IRQ line. The mapper and APU IRQ
// sources are OR'd together by the caller before this is invoked.
func (c *CPU) SetIRQ(level bool) {
	c.irqLine = level
}

// Step services any pending interrupt, then fetches, decodes and executes
// one instruction, returning the number of CPU cycles consumed.
func (c *CPU) Step() uint8 {
	if c.nmiPending {
		c.nmiPending = false
		c.interrupt(nmiVector, false)
		c.cycles += 7
		return 7
	}
	if c.irqLine && !c.I {
		c.interrupt(irqVector, false)
		c.cycles += 7
		return 7
	}

	opcode := c.bus.Read(c.PC)
	info := opcodeTable[opcode]

	if !info.legal {
		c.IllegalOpcodes++
		c.PC++
		c.cycles += 2
		return 2
	}

	addr, pageCrossed := c.operandAddress(info.mode)
	extra := c.execute(opcode, info.mode, addr)

	if pageCrossed && pageCrossPenalty[opcode] {
		extra++
	}

	total := info.cycles + extra
	c.cycles += uint64(total)
	return total
}

// interrupt pushes PC and P then vectors PC from vector. brk sets the B flag
// in the pushed status byte; NMI/IRQ clear it. The unused flag is always
// pushed set.
func (c *CPU) interrupt(vector uint16, brk bool) {
	c.push16(c.PC)
	status := c.statusByte()
	if brk {
		status |= bFlagMask
	} else {
		status &^= bFlagMask
	}
	status |= unusedFlagMask
	c.push(status)
	c.I = true
	c.PC = c.readWord(vector)
}

func (c *CPU) statusByte() uint8 {
	var s uint8
	if c.C {
		s |= cFlagMask
	}
	if c.Z {
		s |= zFlagMask
	}
	if c.I {
		s |= iFlagMask
	}
	if c.D {
		s |= dFlagMask
	}
	if c.B {
		s |= bFlagMask
	}
	s |= unusedFlagMask
	if c.V {
		s |= vFlagMask
	}
	if c.N {
		s |= nFlagMask
	}
	return s
}

func (c *CPU) setStatusByte(s uint8) {
	c.C = s&cFlagMask != 0
	c.Z = s&zFlagMask != 0
	c.I = s&iFlagMask != 0
	c.D = s&dFlagMask != 0
	c.B = s&bFlagMask != 0
	c.V = s&vFlagMask != 0
	c.N = s&nFlagMask != 0
}

func (c *CPU) readWord(addr uint16) uint16 {
	lo := uint16(c.bus.Read(addr))
	hi := uint16(c.bus.Read(addr + 1))
	return hi<<8 | lo
}

func (c *CPU) push(v uint8) {
	c.bus.Write(stackBase+uint16(c.SP), v)
	c.SP--
}

func (c *CPU) pop() uint8 {
	c.SP++
	return c.bus.Read(stackBase + uint16(c.SP))
}

func (c *CPU) push16(v uint16) {
	c.push(uint8(v >> 8))
	c.push(uint8(v))
}

func (c *CPU) pop16() uint16 {
	lo := uint16(c.pop())
	hi := uint16(c.pop())
	return hi<<8 | lo
}

func (c *CPU) setZN(v uint8) {
	c.Z = v == 0
	c.N = v&nFlagMask != 0
}

// operandAddress resolves the effective address for mode, advancing PC past
// the instruction's operand bytes. It reports whether an indexed access
// crossed a page boundary, which some opcodes penalize with an extra cycle.
func (c *CPU) operandAddress(mode AddressingMode) (uint16, bool) {
	switch mode {
	case Implied, Accumulator:
		c.PC++
		return 0, false

	case Immediate:
		addr := c.PC + 1
		c.PC += 2
		return addr, false

	case ZeroPage:
		addr := uint16(c.bus.Read(c.PC + 1))
		c.PC += 2
		return addr, false

	case ZeroPageX:
		base := c.bus.Read(c.PC + 1)
		c.PC += 2
		return uint16(base+c.X) & zeroPageMask, false

	case ZeroPageY:
		base := c.bus.Read(c.PC + 1)
		c.PC += 2
		return uint16(base+c.Y) & zeroPageMask, false

	case Relative:
		offset := int8(c.bus.Read(c.PC + 1))
		next := c.PC + 2
		target := uint16(int32(next) + int32(offset))
		c.PC = next
		return target, (next & pageMask) != (target & pageMask)

	case Absolute:
		addr := c.readWord(c.PC + 1)
		c.PC += 3
		return addr, false

	case AbsoluteX:
		base := c.readWord(c.PC + 1)
		addr := base + uint16(c.X)
		c.PC += 3
		return addr, (base & pageMask) != (addr & pageMask)

	case AbsoluteY:
		base := c.readWord(c.PC + 1)
		addr := base + uint16(c.Y)
		c.PC += 3
		return addr, (base & pageMask) != (addr & pageMask)

	case Indirect:
		ptr := c.readWord(c.PC + 1)
		c.PC += 3
		// JMP ($xxFF) does not cross a page: the high byte wraps to the
		// start of the same page instead of the next one.
		if ptr&zeroPageMask == zeroPageMask {
			lo := uint16(c.bus.Read(ptr))
			hi := uint16(c.bus.Read(ptr & pageMask))
			return hi<<8 | lo, false
		}
		return c.readWord(ptr), false

	case IndexedIndirect:
		base := c.bus.Read(c.PC + 1)
		c.PC += 2
		ptr := uint16(base + c.X)
		lo := uint16(c.bus.Read(ptr & zeroPageMask))
		hi := uint16(c.bus.Read((ptr + 1) & zeroPageMask))
		return hi<<8 | lo, false

	case IndirectIndexed:
		zp := uint16(c.bus.Read(c.PC + 1))
		c.PC += 2
		lo := uint16(c.bus.Read(zp))
		hi := uint16(c.bus.Read((zp + 1) & zeroPageMask))
		base := hi<<8 | lo
		addr := base + uint16(c.Y)
		return addr, (base & pageMask) != (addr & pageMask)

	default:
		return 0, false
	}
}
