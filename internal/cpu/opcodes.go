package cpu

// opcodeTable holds addressing mode and base cycle count for every byte
// value. Entries with legal=false are undocumented opcodes, which this core
// treats uniformly as 2-cycle NOPs (see CPU.Step).
var opcodeTable = buildOpcodeTable()

// pageCrossPenalty marks opcodes that take one extra cycle when an indexed
// addressing mode crosses a page boundary on a read. Write-only indexed
// opcodes and branches are handled separately and are not listed here.
var pageCrossPenalty = buildPageCrossTable()

func buildOpcodeTable() [256]opcodeInfo {
	var t [256]opcodeInfo

	set := func(op uint8, name string, mode AddressingMode, cycles uint8) {
		t[op] = opcodeInfo{name: name, mode: mode, cycles: cycles, legal: true}
	}

	set(0x69, "ADC", Immediate, 2)
	set(0x65, "ADC", ZeroPage, 3)
	set(0x75, "ADC", ZeroPageX, 4)
	set(0x6D, "ADC", Absolute, 4)
	set(0x7D, "ADC", AbsoluteX, 4)
	set(0x79, "ADC", AbsoluteY, 4)
	set(0x61, "ADC", IndexedIndirect, 6)
	set(0x71, "ADC", IndirectIndexed, 5)

	set(0x29, "AND", Immediate, 2)
	set(0x25, "AND", ZeroPage, 3)
	set(0x35, "AND", ZeroPageX, 4)
	set(0x2D, "AND", Absolute, 4)
	set(0x3D, "AND", AbsoluteX, 4)
	set(0x39, "AND", AbsoluteY, 4)
	set(0x21, "AND", IndexedIndirect, 6)
	set(0x31, "AND", IndirectIndexed, 5)

	set(0x0A, "ASL", Accumulator, 2)
	set(0x06, "ASL", ZeroPage, 5)
	set(0x16, "ASL", ZeroPageX, 6)
	set(0x0E, "ASL", Absolute, 6)
	set(0x1E, "ASL", AbsoluteX, 7)

	set(0x90, "BCC", Relative, 2)
	set(0xB0, "BCS", Relative, 2)
	set(0xF0, "BEQ", Relative, 2)
	set(0x30, "BMI", Relative, 2)
	set(0xD0, "BNE", Relative, 2)
	set(0x10, "BPL", Relative, 2)
	set(0x50, "BVC", Relative, 2)
	set(0x70, "BVS", Relative, 2)

	set(0x24, "BIT", ZeroPage, 3)
	set(0x2C, "BIT", Absolute, 4)

	set(0x00, "BRK", Implied, 7)

	set(0x18, "CLC", Implied, 2)
	set(0xD8, "CLD", Implied, 2)
	set(0x58, "CLI", Implied, 2)
	set(0xB8, "CLV", Implied, 2)

	set(0xC9, "CMP", Immediate, 2)
	set(0xC5, "CMP", ZeroPage, 3)
	set(0xD5, "CMP", ZeroPageX, 4)
	set(0xCD, "CMP", Absolute, 4)
	set(0xDD, "CMP", AbsoluteX, 4)
	set(0xD9, "CMP", AbsoluteY, 4)
	set(0xC1, "CMP", IndexedIndirect, 6)
	set(0xD1, "CMP", IndirectIndexed, 5)

	set(0xE0, "CPX", Immediate, 2)
	set(0xE4, "CPX", ZeroPage, 3)
	set(0xEC, "CPX", Absolute, 4)

	set(0xC0, "CPY", Immediate, 2)
	set(0xC4, "CPY", ZeroPage, 3)
	set(0xCC, "CPY", Absolute, 4)

	set(0xC6, "DEC", ZeroPage, 5)
	set(0xD6, "DEC", ZeroPageX, 6)
	set(0xCE, "DEC", Absolute, 6)
	set(0xDE, "DEC", AbsoluteX, 7)

	set(0xCA, "DEX", Implied, 2)
	set(0x88, "DEY", Implied, 2)

	set(0x49, "EOR", Immediate, 2)
	set(0x45, "EOR", ZeroPage, 3)
	set(0x55, "EOR", ZeroPageX, 4)
	set(0x4D, "EOR", Absolute, 4)
	set(0x5D, "EOR", AbsoluteX, 4)
	set(0x59, "EOR", AbsoluteY, 4)
	set(0x41, "EOR", IndexedIndirect, 6)
	set(0x51, "EOR", IndirectIndexed, 5)

	set(0xE6, "INC", ZeroPage, 5)
	set(0xF6, "INC", ZeroPageX, 6)
	set(0xEE, "INC", Absolute, 6)
	set(0xFE, "INC", AbsoluteX, 7)

	set(0xE8, "INX", Implied, 2)
	set(0xC8, "INY", Implied, 2)

	set(0x4C, "JMP", Absolute, 3)
	set(0x6C, "JMP", Indirect, 5)

	set(0x20, "JSR", Absolute, 6)

	set(0xA9, "LDA", Immediate, 2)
	set(0xA5, "LDA", ZeroPage, 3)
	set(0xB5, "LDA", ZeroPageX, 4)
	set(0xAD, "LDA", Absolute, 4)
	set(0xBD, "LDA", AbsoluteX, 4)
	set(0xB9, "LDA", AbsoluteY, 4)
	set(0xA1, "LDA", IndexedIndirect, 6)
	set(0xB1, "LDA", IndirectIndexed, 5)

	set(0xA2, "LDX", Immediate, 2)
	set(0xA6, "LDX", ZeroPage, 3)
	set(0xB6, "LDX", ZeroPageY, 4)
	set(0xAE, "LDX", Absolute, 4)
	set(0xBE, "LDX", AbsoluteY, 4)

	set(0xA0, "LDY", Immediate, 2)
	set(0xA4, "LDY", ZeroPage, 3)
	set(0xB4, "LDY", ZeroPageX, 4)
	set(0xAC, "LDY", Absolute, 4)
	set(0xBC, "LDY", AbsoluteX, 4)

	set(0x4A, "LSR", Accumulator, 2)
	set(0x46, "LSR", ZeroPage, 5)
	set(0x56, "LSR", ZeroPageX, 6)
	set(0x4E, "LSR", Absolute, 6)
	set(0x5E, "LSR", AbsoluteX, 7)

	set(0xEA, "NOP", Implied, 2)

	set(0x09, "ORA", Immediate, 2)
	set(0x05, "ORA", ZeroPage, 3)
	set(0x15, "ORA", ZeroPageX, 4)
	set(0x0D, "ORA", Absolute, 4)
	set(0x1D, "ORA", AbsoluteX, 4)
	set(0x19, "ORA", AbsoluteY, 4)
	set(0x01, "ORA", IndexedIndirect, 6)
	set(0x11, "ORA", IndirectIndexed, 5)

	set(0x48, "PHA", Implied, 3)
	set(0x08, "PHP", Implied, 3)
	set(0x68, "PLA", Implied, 4)
	set(0x28, "PLP", Implied, 4)

	set(0x2A, "ROL", Accumulator, 2)
	set(0x26, "ROL", ZeroPage, 5)
	set(0x36, "ROL", ZeroPageX, 6)
	set(0x2E, "ROL", Absolute, 6)
	set(0x3E, "ROL", AbsoluteX, 7)

	set(0x6A, "ROR", Accumulator, 2)
	set(0x66, "ROR", ZeroPage, 5)
	set(0x76, "ROR", ZeroPageX, 6)
	set(0x6E, "ROR", Absolute, 6)
	set(0x7E, "ROR", AbsoluteX, 7)

	set(0x40, "RTI", Implied, 6)
	set(0x60, "RTS", Implied, 6)

	set(0xE9, "SBC", Immediate, 2)
	set(0xE5, "SBC", ZeroPage, 3)
	set(0xF5, "SBC", ZeroPageX, 4)
	set(0xED, "SBC", Absolute, 4)
	set(0xFD, "SBC", AbsoluteX, 4)
	set(0xF9, "SBC", AbsoluteY, 4)
	set(0xE1, "SBC", IndexedIndirect, 6)
	set(0xF1, "SBC", IndirectIndexed, 5)

	set(0x38, "SEC", Implied, 2)
	set(0xF8, "SED", Implied, 2)
	set(0x78, "SEI", Implied, 2)

	set(0x85, "STA", ZeroPage, 3)
	set(0x95, "STA", ZeroPageX, 4)
	set(0x8D, "STA", Absolute, 4)
	set(0x9D, "STA", AbsoluteX, 5)
	set(0x99, "STA", AbsoluteY, 5)
	set(0x81, "STA", IndexedIndirect, 6)
	set(0x91, "STA", IndirectIndexed, 6)

	set(0x86, "STX", ZeroPage, 3)
	set(0x96, "STX", ZeroPageY, 4)
	set(0x8E, "STX", Absolute, 4)

	set(0x84, "STY", ZeroPage, 3)
	set(0x94, "STY", ZeroPageX, 4)
	set(0x8C, "STY", Absolute, 4)

	set(0xAA, "TAX", Implied, 2)
	set(0xA8, "TAY", Implied, 2)
	set(0xBA, "TSX", Implied, 2)
	set(0x8A, "TXA", Implied, 2)
	set(0x9A, "TXS", Implied, 2)
	set(0x98, "TYA", Implied, 2)

	return t
}

func buildPageCrossTable() [256]bool {
	var t [256]bool
	for _, op := range []uint8{
		0x7D, 0x79, 0x71, 0x3D, 0x39, 0x31, 0xBD, 0xB9, 0xB1,
		0xDD, 0xD9, 0xD1, 0x5D, 0x59, 0x51, 0x1D, 0x19, 0x11,
		0xBC, 0xBE,
	} {
		t[op] = true
	}
	return t
}

// execute performs the effect of opcode given its resolved operand address
// (ignored for Implied/Accumulator) and returns any extra cycles consumed
// beyond the opcode's base timing (taken branches, RMW already accounted for
// in the base table).
func (c *CPU) execute(opcode uint8, mode AddressingMode, addr uint16) uint8 {
	switch opcode {
	case 0x69, 0x65, 0x75, 0x6D, 0x7D, 0x79, 0x61, 0x71:
		c.adc(c.bus.Read(addr))
	case 0xE9, 0xE5, 0xF5, 0xED, 0xFD, 0xF9, 0xE1, 0xF1:
		c.adc(^c.bus.Read(addr))

	case 0x29, 0x25, 0x35, 0x2D, 0x3D, 0x39, 0x21, 0x31:
		c.A &= c.bus.Read(addr)
		c.setZN(c.A)
	case 0x49, 0x45, 0x55, 0x4D, 0x5D, 0x59, 0x41, 0x51:
		c.A ^= c.bus.Read(addr)
		c.setZN(c.A)
	case 0x09, 0x05, 0x15, 0x0D, 0x1D, 0x19, 0x01, 0x11:
		c.A |= c.bus.Read(addr)
		c.setZN(c.A)

	case 0x0A:
		c.C = c.A&0x80 != 0
		c.A <<= 1
		c.setZN(c.A)
	case 0x06, 0x16, 0x0E, 0x1E:
		v := c.bus.Read(addr)
		c.C = v&0x80 != 0
		v <<= 1
		c.bus.Write(addr, v)
		c.setZN(v)

	case 0x4A:
		c.C = c.A&0x01 != 0
		c.A >>= 1
		c.setZN(c.A)
	case 0x46, 0x56, 0x4E, 0x5E:
		v := c.bus.Read(addr)
		c.C = v&0x01 != 0
		v >>= 1
		c.bus.Write(addr, v)
		c.setZN(v)

	case 0x2A:
		old := c.C
		c.C = c.A&0x80 != 0
		c.A <<= 1
		if old {
			c.A |= 1
		}
		c.setZN(c.A)
	case 0x26, 0x36, 0x2E, 0x3E:
		v := c.bus.Read(addr)
		old := c.C
		c.C = v&0x80 != 0
		v <<= 1
		if old {
			v |= 1
		}
		c.bus.Write(addr, v)
		c.setZN(v)

	case 0x6A:
		old := c.C
		c.C = c.A&0x01 != 0
		c.A >>= 1
		if old {
			c.A |= 0x80
		}
		c.setZN(c.A)
	case 0x66, 0x76, 0x6E, 0x7E:
		v := c.bus.Read(addr)
		old := c.C
		c.C = v&0x01 != 0
		v >>= 1
		if old {
			v |= 0x80
		}
		c.bus.Write(addr, v)
		c.setZN(v)

	case 0x90:
		return c.branch(!c.C, addr)
	case 0xB0:
		return c.branch(c.C, addr)
	case 0xF0:
		return c.branch(c.Z, addr)
	case 0x30:
		return c.branch(c.N, addr)
	case 0xD0:
		return c.branch(!c.Z, addr)
	case 0x10:
		return c.branch(!c.N, addr)
	case 0x50:
		return c.branch(!c.V, addr)
	case 0x70:
		return c.branch(c.V, addr)

	case 0x24, 0x2C:
		v := c.bus.Read(addr)
		c.Z = c.A&v == 0
		c.V = v&vFlagMask != 0
		c.N = v&nFlagMask != 0

	case 0x00:
		c.PC++
		c.interrupt(irqVector, true)
		return 0

	case 0x18:
		c.C = false
	case 0xD8:
		c.D = false
	case 0x58:
		c.I = false
	case 0xB8:
		c.V = false
	case 0x38:
		c.C = true
	case 0xF8:
		c.D = true
	case 0x78:
		c.I = true

	case 0xC9, 0xC5, 0xD5, 0xCD, 0xDD, 0xD9, 0xC1, 0xD1:
		c.compare(c.A, c.bus.Read(addr))
	case 0xE0, 0xE4, 0xEC:
		c.compare(c.X, c.bus.Read(addr))
	case 0xC0, 0xC4, 0xCC:
		c.compare(c.Y, c.bus.Read(addr))

	case 0xC6, 0xD6, 0xCE, 0xDE:
		v := c.bus.Read(addr) - 1
		c.bus.Write(addr, v)
		c.setZN(v)
	case 0xE6, 0xF6, 0xEE, 0xFE:
		v := c.bus.Read(addr) + 1
		c.bus.Write(addr, v)
		c.setZN(v)

	case 0xCA:
		c.X--
		c.setZN(c.X)
	case 0x88:
		c.Y--
		c.setZN(c.Y)
	case 0xE8:
		c.X++
		c.setZN(c.X)
	case 0xC8:
		c.Y++
		c.setZN(c.Y)

	case 0x4C, 0x6C:
		c.PC = addr

	case 0x20:
		c.push16(c.PC - 1)
		c.PC = addr

	case 0xA9, 0xA5, 0xB5, 0xAD, 0xBD, 0xB9, 0xA1, 0xB1:
		c.A = c.bus.Read(addr)
		c.setZN(c.A)
	case 0xA2, 0xA6, 0xB6, 0xAE, 0xBE:
		c.X = c.bus.Read(addr)
		c.setZN(c.X)
	case 0xA0, 0xA4, 0xB4, 0xAC, 0xBC:
		c.Y = c.bus.Read(addr)
		c.setZN(c.Y)

	case 0xEA:
		// NOP

	case 0x48:
		c.push(c.A)
	case 0x08:
		c.push(c.statusByte() | bFlagMask)
	case 0x68:
		c.A = c.pop()
		c.setZN(c.A)
	case 0x28:
		c.setStatusByte(c.pop())

	case 0x40:
		c.setStatusByte(c.pop())
		c.PC = c.pop16()
	case 0x60:
		c.PC = c.pop16() + 1

	case 0x85, 0x95, 0x8D, 0x9D, 0x99, 0x81, 0x91:
		c.bus.Write(addr, c.A)
	case 0x86, 0x96, 0x8E:
		c.bus.Write(addr, c.X)
	case 0x84, 0x94, 0x8C:
		c.bus.Write(addr, c.Y)

	case 0xAA:
		c.X = c.A
		c.setZN(c.X)
	case 0xA8:
		c.Y = c.A
		c.setZN(c.Y)
	case 0xBA:
		c.X = c.SP
		c.setZN(c.X)
	case 0x8A:
		c.A = c.X
		c.setZN(c.A)
	case 0x9A:
		c.SP = c.X
	case 0x98:
		c.A = c.Y
		c.setZN(c.A)

	default:
		// Unreachable: every legal entry in opcodeTable is handled above.
	}

	return 0
}

// adc implements both ADC (operand) and SBC (operand bitwise-complemented by
// the caller), since SBC(m) == ADC(~m) in two's-complement arithmetic.
func (c *CPU) adc(m uint8) {
	carry := uint16(0)
	if c.C {
		carry = 1
	}
	sum := uint16(c.A) + uint16(m) + carry
	result := uint8(sum)
	c.C = sum > 0xFF
	c.V = (^(c.A ^ m) & (c.A ^ result) & 0x80) != 0
	c.A = result
	c.setZN(c.A)
}

func (c *CPU) compare(reg, m uint8) {
	c.C = reg >= m
	c.setZN(reg - m)
}

// branch takes the branch to addr when cond holds, returning the extra
// cycles incurred (1 for a taken branch, +1 more if it crosses a page).
func (c *CPU) branch(cond bool, addr uint16) uint8 {
	if !cond {
		return 0
	}
	extra := uint8(1)
	if (c.PC & pageMask) != (addr & pageMask) {
		extra++
	}
	c.PC = addr
	return extra
}
