package bus

import (
	"testing"

	"gones/internal/ppu"
)

func TestRAMMirroring(t *testing.T) {
	b := New(ppu.NTSCScanlines)
	b.Write(0x0000, 0x42)
	if got := b.Read(0x0800); got != 0x42 {
		t.Fatalf("0x0800 = %#02x, want mirror of 0x0000 (0x42)", got)
	}
	if got := b.Read(0x1800); got != 0x42 {
		t.Fatalf("0x1800 = %#02x, want mirror of 0x0000 (0x42)", got)
	}
}

func TestPPURegisterMirroring(t *testing.T) {
	b := New(ppu.NTSCScanlines)
	b.Write(0x2000, 0x80) // PPUCTRL, enables NMI generation

	// $2008 mirrors $2000 every 8 bytes.
	b.Write(0x2008, 0x00)
	if b.PPU.NMIAsserted() {
		t.Fatal("writing PPUCTRL through its $2008 mirror should clear the NMI enable bit")
	}
}

func TestOAMDMATransfersFullPage(t *testing.T) {
	b := New(ppu.NTSCScanlines)
	for i := 0; i < 256; i++ {
		b.ram[i] = uint8(i)
	}
	b.oamDMA(0x00)
	if b.stallCycles != 513 {
		t.Fatalf("stallCycles = %d, want 513 on an even starting cycle", b.stallCycles)
	}
	oam := b.PPU.SaveState().OAM
	for i := 0; i < 256; i++ {
		if oam[i] != uint8(i) {
			t.Fatalf("OAM[%d] = %#02x, want %#02x", i, oam[i], uint8(i))
		}
	}
}

func TestOpenBusReturnsLastWrittenByte(t *testing.T) {
	b := New(ppu.NTSCScanlines)
	b.Write(0x4000, 0x55) // pulse1 control, write-only
	if got := b.Read(0x4018); got != 0x55 {
		t.Fatalf("open-bus read = %#02x, want 0x55", got)
	}
}

func TestStepInstructionTicksPPUThreeTimesPerCPUCycle(t *testing.T) {
	b := New(ppu.NTSCScanlines)
	b.Reset()
	cycles := b.StepInstruction()
	if cycles == 0 {
		t.Fatal("StepInstruction should consume at least one CPU cycle")
	}
	// Reset leaves the PPU at dot 0 of the pre-render line; one short
	// instruction stays within that scanline.
	if dot := b.PPU.SaveState().Dot; dot != int(cycles)*3 {
		t.Fatalf("PPU dot = %d, want %d (3 per CPU cycle)", dot, int(cycles)*3)
	}
}
