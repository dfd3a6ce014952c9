package cpu

import "testing"

type testBus struct {
	mem [0x10000]uint8
}

func (b *testBus) Read(addr uint16) uint8     { return b.mem[addr] }
func (b *testBus) Write(addr uint16, v uint8) { b.mem[addr] = v }

func (b *testBus) load(addr uint16, data ...uint8) {
	copy(b.mem[addr:], data)
}

func newTestCPU() (*CPU, *testBus) {
	bus := &testBus{}
	c := New(bus)
	return c, bus
}

func TestResetVector(t *testing.T) {
	c, bus := newTestCPU()
	bus.load(resetVector, 0x34, 0x12)
	c.Reset()
	if c.PC != 0x1234 {
		t.Fatalf("PC = %#04x, want 0x1234", c.PC)
	}
	if c.SP != 0xFD {
		t.Fatalf("SP = %#02x, want 0xFD", c.SP)
	}
	if !c.I {
		t.Fatal("I flag should be set after reset")
	}
}

func TestLDAImmediateFlags(t *testing.T) {
	c, bus := newTestCPU()
	bus.load(resetVector, 0x00, 0x80)
	bus.load(0x8000, 0xA9, 0x00, 0xA9, 0x80)
	c.Reset()

	cycles := c.Step()
	if c.A != 0x00 || !c.Z || c.N || cycles != 2 {
		t.Fatalf("after LDA #$00: A=%#02x Z=%v N=%v cycles=%d", c.A, c.Z, c.N, cycles)
	}

	cycles = c.Step()
	if c.A != 0x80 || c.Z || !c.N || cycles != 2 {
		t.Fatalf("after LDA #$80: A=%#02x Z=%v N=%v cycles=%d", c.A, c.Z, c.N, cycles)
	}
}

func TestJMPIndirectPageWrapBug(t *testing.T) {
	c, bus := newTestCPU()
	bus.load(resetVector, 0x00, 0x80)
	bus.load(0x8000, 0x6C, 0xFF, 0x30) // JMP ($30FF)
	bus.mem[0x30FF] = 0x34
	bus.mem[0x3000] = 0x12 // high byte read from $3000, not $3100
	bus.mem[0x3100] = 0xFF
	c.Reset()
	c.Step()
	if c.PC != 0x1234 {
		t.Fatalf("PC = %#04x, want 0x1234 (page-wrap bug)", c.PC)
	}
}

func TestIllegalOpcodeIsTwoCycleNOP(t *testing.T) {
	c, bus := newTestCPU()
	bus.load(resetVector, 0x00, 0x80)
	bus.load(0x8000, 0x02) // undocumented opcode
	c.Reset()
	startPC := c.PC
	cycles := c.Step()
	if cycles != 2 {
		t.Fatalf("cycles = %d, want 2", cycles)
	}
	if c.PC != startPC+1 {
		t.Fatalf("PC advanced by %d, want 1", c.PC-startPC)
	}
	if c.IllegalOpcodes != 1 {
		t.Fatalf("IllegalOpcodes = %d, want 1", c.IllegalOpcodes)
	}
}

func TestNMIVectorsAndCosts7Cycles(t *testing.T) {
	c, bus := newTestCPU()
	bus.load(resetVector, 0x00, 0x80)
	bus.load(0x8000, 0xEA) // NOP, never reached
	bus.load(nmiVector, 0x00, 0x90)
	c.Reset()
	c.NMI()
	cycles := c.Step()
	if cycles != 7 {
		t.Fatalf("cycles = %d, want 7", cycles)
	}
	if c.PC != 0x9000 {
		t.Fatalf("PC = %#04x, want 0x9000", c.PC)
	}
}

func TestBRKSetsBreakFlagOnStack(t *testing.T) {
	c, bus := newTestCPU()
	bus.load(resetVector, 0x00, 0x80)
	bus.load(0x8000, 0x00) // BRK
	bus.load(irqVector, 0x00, 0xA0)
	c.Reset()
	c.Step()
	pushedStatus := bus.mem[0x0100+int(c.SP)+1]
	if pushedStatus&bFlagMask == 0 {
		t.Fatal("BRK must push status with B flag set")
	}
	if c.PC != 0xA000 {
		t.Fatalf("PC = %#04x, want 0xA000", c.PC)
	}
}

func TestADCOverflow(t *testing.T) {
	c, _ := newTestCPU()
	c.A = 0x50
	c.adc(0x50)
	if !c.V {
		t.Fatal("expected overflow for 0x50+0x50")
	}
	if c.A != 0xA0 {
		t.Fatalf("A = %#02x, want 0xA0", c.A)
	}
}

func TestBranchPageCrossPenalty(t *testing.T) {
	c, bus := newTestCPU()
	bus.load(resetVector, 0xF0, 0x80)
	bus.mem[0x80F0] = 0xD0 // BNE
	bus.mem[0x80F1] = 0x10 // forward 16, crosses to 0x8102
	c.Reset()
	c.Z = false
	cycles := c.Step()
	if cycles != 4 {
		t.Fatalf("cycles = %d, want 4 (taken + page cross)", cycles)
	}
}

func TestJSRRTSStackRoundTrip(t *testing.T) {
	c, bus := newTestCPU()
	bus.load(resetVector, 0x00, 0x80)
	bus.load(0x8000, 0x20, 0x00, 0x90, 0xEA) // JSR $9000
	bus.load(0x9000, 0x60)                   // RTS
	c.Reset()
	c.Step() // JSR
	if c.PC != 0x9000 {
		t.Fatalf("PC after JSR = %#04x, want 0x9000", c.PC)
	}
	c.Step() // RTS
	if c.PC != 0x8003 {
		t.Fatalf("PC after RTS = %#04x, want 0x8003", c.PC)
	}
}
