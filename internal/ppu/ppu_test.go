package ppu

import (
	"testing"

	"gones/internal/cartridge"
)

type stubMapper struct {
	chr    [0x2000]uint8
	mirror cartridge.MirrorMode
}

func (m *stubMapper) PPURead(addr uint16) uint8     { return m.chr[addr] }
func (m *stubMapper) PPUWrite(addr uint16, v uint8)  { m.chr[addr] = v }
func (m *stubMapper) MirrorMode() cartridge.MirrorMode { return m.mirror }
func (m *stubMapper) NotifyA12(rise bool)            {}

func newTestPPU(mirror cartridge.MirrorMode) (*PPU, *stubMapper) {
	m := &stubMapper{mirror: mirror}
	return New(m, NTSCScanlines), m
}

func TestPaletteBackdropMirroring(t *testing.T) {
	p, _ := newTestPPU(cartridge.MirrorHorizontal)
	p.writePalette(0x3F00, 0x0F)
	if got := p.paletteByte(0x3F10); got != 0x0F {
		t.Fatalf("0x3F10 = %#02x, want mirror of 0x3F00 (0x0F)", got)
	}
}

func TestPaletteWriteMasksToSixBits(t *testing.T) {
	p, _ := newTestPPU(cartridge.MirrorHorizontal)
	p.writePalette(0x3F01, 0xFF)
	if got := p.paletteByte(0x3F01); got != 0x3F {
		t.Fatalf("palette byte = %#02x, want 0x3F", got)
	}
}

func TestVerticalMirroring(t *testing.T) {
	p, _ := newTestPPU(cartridge.MirrorVertical)
	p.writeBus(0x2000, 0xAB)
	if got := p.busByte(0x2800); got != 0xAB {
		t.Fatalf("nametable 2 should mirror nametable 0 under vertical mirroring, got %#02x", got)
	}
	p.writeBus(0x2400, 0xCD)
	if p.busByte(0x2800) == 0xCD {
		t.Fatal("nametable 1 must not alias nametable 2 under vertical mirroring")
	}
}

func TestHorizontalMirroring(t *testing.T) {
	p, _ := newTestPPU(cartridge.MirrorHorizontal)
	p.writeBus(0x2000, 0x11)
	if got := p.busByte(0x2400); got != 0x11 {
		t.Fatalf("nametable 1 should mirror nametable 0 under horizontal mirroring, got %#02x", got)
	}
}

func TestVBlankSetAtScanline241Dot1(t *testing.T) {
	p, _ := newTestPPU(cartridge.MirrorHorizontal)
	p.ctrl = 0x80 // enable NMI generation
	for p.scanline != vblankLine || p.dot != 1 {
		p.Tick()
	}
	p.Tick() // Tick processes the dot at the current position, then advances
	if p.status&0x80 == 0 {
		t.Fatal("VBlank flag should be set at scanline 241, dot 1")
	}
	if !p.NMIAsserted() {
		t.Fatal("NMI line should be asserted once VBlank is set with NMI enabled")
	}
}

func TestVBlankClearedAtPreRender(t *testing.T) {
	p, _ := newTestPPU(cartridge.MirrorHorizontal)
	p.status |= 0x80
	p.scanline = p.preRenderLine
	p.dot = 1
	p.Tick()
	if p.status&0x80 != 0 {
		t.Fatal("VBlank flag should clear at pre-render dot 1")
	}
}

func TestOAMDMAWriteAdvancesAddress(t *testing.T) {
	p, _ := newTestPPU(cartridge.MirrorHorizontal)
	p.oamAddr = 0xFE
	p.WriteOAMByte(0x11)
	p.WriteOAMByte(0x22)
	if p.oam[0xFE] != 0x11 || p.oam[0xFF] != 0x22 {
		t.Fatal("OAM DMA bytes not written at the expected offsets")
	}
	if p.oamAddr != 0x00 {
		t.Fatalf("oamAddr = %#02x, want wraparound to 0x00", p.oamAddr)
	}
}

func TestSpriteOverflowFlag(t *testing.T) {
	p, _ := newTestPPU(cartridge.MirrorHorizontal)
	for i := 0; i < 64; i++ {
		p.oam[i*4] = 10 // all sprites on the same row
	}
	p.scanline = 10
	p.evaluateSprites()
	if p.status&0x20 == 0 {
		t.Fatal("expected sprite overflow flag when more than 8 sprites are in range")
	}
	if p.spriteCount != 8 {
		t.Fatalf("spriteCount = %d, want 8", p.spriteCount)
	}
}

func TestPPUDataReadIsBufferedExceptPalette(t *testing.T) {
	p, _ := newTestPPU(cartridge.MirrorHorizontal)
	p.writeBus(0x2000, 0x42)
	p.v = 0x2000
	first := p.readData()
	if first != 0 {
		t.Fatalf("first PPUDATA read should return the stale buffer (0), got %#02x", first)
	}
	if second := p.readData(); second != 0x42 {
		t.Fatalf("buffered read should now surface 0x42, got %#02x", second)
	}

	p.writePalette(0x3F01, 0x21)
	p.v = 0x3F01
	if got := p.readData(); got != 0x21 {
		t.Fatalf("palette read should return 0x21 immediately, got %#02x", got)
	}
}
