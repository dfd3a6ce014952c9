// Package ppu implements the NES 2C02 picture processing unit: background
// and sprite rendering, VRAM/palette addressing and the dot-clocked timing
// that drives VBlank and the CPU's NMI line.
package ppu

import "gones/internal/cartridge"

// NTSCScanlines and PALScanlines are the two raster geometries the core
// supports. Scanline indices run 0..total-1, with total-1 acting as the
// pre-render line (equivalent to -1 in NESdev notation).
const (
	NTSCScanlines = 262
	PALScanlines  = 312

	dotsPerScanline = 341
	visibleLines    = 240
	postRenderLine  = 240
	vblankLine      = 241
)

// Mapper is the subset of the cartridge the PPU addresses through: CHR
// reads/writes, nametable mirroring, and the A12 notification some mappers
// use for scanline counting.
type Mapper interface {
	PPURead(addr uint16) uint8
	PPUWrite(addr uint16, v uint8)
	MirrorMode() cartridge.MirrorMode
	NotifyA12(rise bool)
}

type spriteSlot struct {
	patternLo, patternHi uint8
	attributes           uint8
	x                     uint8
	isSpriteZero          bool
}

// PPU holds all CPU-visible registers and the internal rendering state
// machine. It owns no reference back to the CPU: NMIAsserted is a level the
// scheduler samples and edge-detects itself.
type PPU struct {
	mapper Mapper

	ctrl, mask, status uint8
	oamAddr            uint8

	v, t uint16
	x    uint8
	w    bool

	readBuffer uint8
	busLatch   uint8 // last byte written to any PPU register, for open-bus bits

	vram    [0x800]uint8
	palette [32]uint8
	oam     [256]uint8

	secondaryOAM      [32]uint8
	spriteCount       int
	sprites           [8]spriteSlot
	spriteEvalDone    bool

	nextTileID, nextTileAttr, nextTileLo, nextTileHi uint8
	bgShiftLo, bgShiftHi                             uint16
	bgAttrShiftLo, bgAttrShiftHi                      uint16

	scanline int
	dot      int
	oddFrame bool

	totalScanlines int
	preRenderLine  int

	frameBuffer   [256 * 240]uint32
	frameComplete bool

	nmiAsserted bool
}

// New creates a PPU clocked over totalScanlines scanlines per frame; pass
// NTSCScanlines or PALScanlines.
func New(mapper Mapper, totalScanlines int) *PPU {
	p := &PPU{
		mapper:         mapper,
		totalScanlines: totalScanlines,
		preRenderLine:  totalScanlines - 1,
	}
	p.Reset()
	return p
}

// Reset puts the PPU into its post-power-up state.
func (p *PPU) Reset() {
	p.ctrl = 0
	p.mask = 0
	p.status = 0xA0
	p.oamAddr = 0
	p.v, p.t, p.x = 0, 0, 0
	p.w = false
	p.readBuffer = 0
	p.scanline = p.preRenderLine
	p.dot = 0
	p.oddFrame = false
	p.frameComplete = false
	p.nmiAsserted = false
}

// SetMapper rewires the cartridge the PPU addresses, used when a new ROM is
// loaded into an already-constructed emulator.
func (p *PPU) SetMapper(mapper Mapper) { p.mapper = mapper }

// NMIAsserted reports the PPU's current NMI output level. The scheduler
// calls this once per tick and triggers the CPU's NMI on the 0->1 edge.
func (p *PPU) NMIAsserted() bool { return p.nmiAsserted }

// FrameReady reports whether a full frame has completed since the last call,
// clearing the flag.
func (p *PPU) FrameReady() bool {
	ready := p.frameComplete
	p.frameComplete = false
	return ready
}

// FrameBuffer returns the 256x240 RGBA8888 pixel buffer for the last
// completed frame.
func (p *PPU) FrameBuffer() *[256 * 240]uint32 { return &p.frameBuffer }

func (p *PPU) renderingEnabled() bool { return p.mask&0x18 != 0 }
func (p *PPU) showBackground() bool   { return p.mask&0x08 != 0 }
func (p *PPU) showSprites() bool      { return p.mask&0x10 != 0 }

// ReadRegister services a CPU read of $2000-$2007 (mirrored every 8 bytes).
func (p *PPU) ReadRegister(addr uint16) uint8 {
	switch addr & 7 {
	case 2: // PPUSTATUS
		v := (p.status & 0xE0) | (p.busLatch & 0x1F)
		p.status &^= 0x80
		p.w = false
		p.updateNMI()
		return v
	case 4: // OAMDATA
		return p.oam[p.oamAddr]
	case 7: // PPUDATA
		return p.readData()
	default:
		return p.busLatch
	}
}

// WriteRegister services a CPU write of $2000-$2007.
func (p *PPU) WriteRegister(addr uint16, v uint8) {
	p.busLatch = v
	switch addr & 7 {
	case 0: // PPUCTRL
		p.ctrl = v
		p.t = (p.t &^ nametableMask) | (uint16(v&0x03) << 10)
		p.updateNMI()
	case 1: // PPUMASK
		p.mask = v
	case 3: // OAMADDR
		p.oamAddr = v
	case 4: // OAMDATA
		p.oam[p.oamAddr] = v
		p.oamAddr++
	case 5: // PPUSCROLL
		if !p.w {
			p.t = (p.t &^ coarseXMask) | uint16(v>>3)
			p.x = v & 0x07
		} else {
			p.t = (p.t &^ (coarseYMask | fineYMask)) |
				(uint16(v>>3) << coarseYShift) | (uint16(v&0x07) << fineYShift)
		}
		p.w = !p.w
	case 6: // PPUADDR
		if !p.w {
			p.t = (p.t & 0x00FF) | (uint16(v&0x3F) << 8)
		} else {
			p.t = (p.t & 0xFF00) | uint16(v)
			p.v = p.t & loopyAddrMask
		}
		p.w = !p.w
	case 7: // PPUDATA
		p.writeData(v)
	}
}

func (p *PPU) readData() uint8 {
	addr := p.v & vramAddrMask14
	var v uint8
	if addr < 0x3F00 {
		v = p.readBuffer
		p.readBuffer = p.busByte(addr)
	} else {
		v = p.paletteByte(addr)
		p.readBuffer = p.busByte(addr - 0x1000)
	}
	p.v = (p.v + p.addrIncrement()) & loopyAddrMask
	return v
}

func (p *PPU) writeData(v uint8) {
	addr := p.v & vramAddrMask14
	if addr >= 0x3F00 {
		p.writePalette(addr, v)
	} else {
		p.writeBus(addr, v)
	}
	p.v = (p.v + p.addrIncrement()) & loopyAddrMask
}

func (p *PPU) addrIncrement() uint16 {
	if p.ctrl&0x04 != 0 {
		return 32
	}
	return 1
}

// busByte reads CHR space (through the mapper) or nametable VRAM.
func (p *PPU) busByte(addr uint16) uint8 {
	switch {
	case addr < 0x2000:
		return p.mapper.PPURead(addr)
	case addr < 0x3F00:
		return p.vram[p.mirrorNametable(addr)]
	default:
		return p.paletteByte(addr)
	}
}

func (p *PPU) writeBus(addr uint16, v uint8) {
	switch {
	case addr < 0x2000:
		p.mapper.PPUWrite(addr, v)
	case addr < 0x3F00:
		p.vram[p.mirrorNametable(addr)] = v
	default:
		p.writePalette(addr, v)
	}
}

func (p *PPU) mirrorNametable(addr uint16) uint16 {
	addr &= 0x0FFF
	table := addr / 0x400
	offset := addr % 0x400

	switch p.mapper.MirrorMode() {
	case cartridge.MirrorVertical:
		return (table%2)*0x400 + offset
	case cartridge.MirrorHorizontal:
		return (table/2)*0x400 + offset
	case cartridge.MirrorSingleScreen0:
		return offset
	case cartridge.MirrorSingleScreen1:
		return 0x400 + offset
	default: // four-screen: treated as a flat 2KB map, no mirroring
		return addr % 0x800
	}
}

func (p *PPU) paletteIndex(addr uint16) uint16 {
	i := addr & 0x1F
	if i&0x03 == 0 {
		i &^= 0x10
	}
	return i
}

func (p *PPU) paletteByte(addr uint16) uint8 { return p.palette[p.paletteIndex(addr)] }
func (p *PPU) writePalette(addr uint16, v uint8) {
	p.palette[p.paletteIndex(addr)] = v & 0x3F
}

// WriteOAMByte is used by the bus's OAM DMA to load a full 256-byte page
// starting at the current OAMADDR.
func (p *PPU) WriteOAMByte(v uint8) {
	p.oam[p.oamAddr] = v
	p.oamAddr++
}

// Tick advances the PPU by one dot clock cycle.
func (p *PPU) Tick() {
	p.renderTick()

	p.dot++
	if p.dot > 340 {
		p.dot = 0
		p.scanline++
		if p.scanline > p.preRenderLine {
			p.scanline = 0
			p.oddFrame = !p.oddFrame
		}
	}

	// NTSC skips the idle dot on odd frames when rendering is enabled.
	if p.scanline == p.preRenderLine && p.dot == 339 && p.oddFrame && p.renderingEnabled() && p.totalScanlines == NTSCScanlines {
		p.dot = 0
		p.scanline = 0
		p.oddFrame = !p.oddFrame
	}
}

func (p *PPU) renderTick() {
	visible := p.scanline < visibleLines
	preRender := p.scanline == p.preRenderLine

	if preRender && p.dot == 1 {
		p.status &^= 0xE0 // clear VBlank, sprite-0 hit, sprite overflow
		p.updateNMI()
	}

	if (visible || preRender) && p.renderingEnabled() {
		p.backgroundPipeline()
		if visible {
			p.spritePipeline()
		}
		if p.dot == 257 {
			p.v = transferX(p.v, p.t)
		}
		if preRender && p.dot >= 280 && p.dot <= 304 {
			p.v = transferY(p.v, p.t)
		}
	}

	if visible && p.dot >= 1 && p.dot <= 256 {
		p.renderPixel()
	}

	if p.scanline == vblankLine && p.dot == 1 {
		p.status |= 0x80
		p.updateNMI()
		p.frameComplete = true
	}
}

func (p *PPU) updateNMI() {
	p.nmiAsserted = p.status&0x80 != 0 && p.ctrl&0x80 != 0
}

// backgroundPipeline performs the 8-dot nametable/attribute/pattern fetch
// sequence and shifts the background registers, matching the hardware
// fetch schedule used on dots 1-256 and 321-336.
func (p *PPU) backgroundPipeline() {
	fetching := (p.dot >= 1 && p.dot <= 256) || (p.dot >= 321 && p.dot <= 336)
	if fetching {
		p.shiftBackground()

		switch p.dot % 8 {
		case 1:
			p.loadBackgroundShifters()
			p.nextTileID = p.busByte(0x2000 | (p.v & 0x0FFF))
		case 3:
			addr := 0x23C0 | (p.v & 0x0C00) | ((p.v >> 4) & 0x38) | ((p.v >> 2) & 0x07)
			shift := ((p.v >> 4) & 4) | (p.v & 2)
			p.nextTileAttr = (p.busByte(addr) >> shift) & 0x03
		case 5:
			fineY := (p.v & fineYMask) >> fineYShift
			base := uint16(0)
			if p.ctrl&0x10 != 0 {
				base = 0x1000
			}
			p.nextTileLo = p.busByte(base + uint16(p.nextTileID)*16 + fineY)
		case 7:
			fineY := (p.v & fineYMask) >> fineYShift
			base := uint16(0)
			if p.ctrl&0x10 != 0 {
				base = 0x1000
			}
			p.nextTileHi = p.busByte(base + uint16(p.nextTileID)*16 + fineY + 8)
		case 0:
			p.v = incrementCoarseX(p.v)
			if p.dot == 256 {
				p.v = incrementY(p.v)
			}
		}
	}
}

func (p *PPU) loadBackgroundShifters() {
	p.bgShiftLo = (p.bgShiftLo &^ 0xFF00) | uint16(p.nextTileLo)<<8
	p.bgShiftHi = (p.bgShiftHi &^ 0xFF00) | uint16(p.nextTileHi)<<8
	var lo, hi uint16
	if p.nextTileAttr&0x01 != 0 {
		lo = 0xFF00
	}
	if p.nextTileAttr&0x02 != 0 {
		hi = 0xFF00
	}
	p.bgAttrShiftLo = (p.bgAttrShiftLo &^ 0xFF00) | lo
	p.bgAttrShiftHi = (p.bgAttrShiftHi &^ 0xFF00) | hi
}

func (p *PPU) shiftBackground() {
	if !p.showBackground() {
		return
	}
	p.bgShiftLo <<= 1
	p.bgShiftHi <<= 1
	p.bgAttrShiftLo <<= 1
	p.bgAttrShiftHi <<= 1
}

// spritePipeline evaluates sprites in range for the NEXT scanline during
// dots 65-256 and fetches their pattern bytes during dots 257-320.
func (p *PPU) spritePipeline() {
	if p.dot == 65 {
		p.evaluateSprites()
	}
	if p.dot == 320 {
		p.fetchSprites()
	}
}

func (p *PPU) evaluateSprites() {
	height := 8
	if p.ctrl&0x20 != 0 {
		height = 16
	}

	count := 0
	overflow := false
	for i := 0; i < 64; i++ {
		y := int(p.oam[i*4])
		row := p.scanline - y
		if row < 0 || row >= height {
			continue
		}
		if count < 8 {
			copy(p.secondaryOAM[count*4:count*4+4], p.oam[i*4:i*4+4])
			p.sprites[count].isSpriteZero = i == 0
			count++
		} else {
			overflow = true
			break
		}
	}
	p.spriteCount = count
	if overflow {
		p.status |= 0x20
	}
}

func (p *PPU) fetchSprites() {
	height := 8
	if p.ctrl&0x20 != 0 {
		height = 16
	}
	spriteBase := uint16(0)
	if p.ctrl&0x08 != 0 {
		spriteBase = 0x1000
	}

	for i := 0; i < p.spriteCount; i++ {
		y := p.secondaryOAM[i*4]
		tile := p.secondaryOAM[i*4+1]
		attr := p.secondaryOAM[i*4+2]
		x := p.secondaryOAM[i*4+3]

		row := p.scanline - int(y)
		if attr&0x80 != 0 {
			row = height - 1 - row
		}

		var patternAddr uint16
		if height == 16 {
			table := uint16(tile&0x01) * 0x1000
			tileIndex := uint16(tile &^ 0x01)
			if row >= 8 {
				tileIndex++
				row -= 8
			}
			patternAddr = table + tileIndex*16 + uint16(row)
		} else {
			patternAddr = spriteBase + uint16(tile)*16 + uint16(row)
		}

		lo := p.busByte(patternAddr)
		hi := p.busByte(patternAddr + 8)
		if attr&0x40 != 0 {
			lo = reverseBits(lo)
			hi = reverseBits(hi)
		}

		p.sprites[i].patternLo = lo
		p.sprites[i].patternHi = hi
		p.sprites[i].attributes = attr
		p.sprites[i].x = x
	}
}

func reverseBits(b uint8) uint8 {
	var r uint8
	for i := 0; i < 8; i++ {
		r <<= 1
		r |= b & 1
		b >>= 1
	}
	return r
}

func (p *PPU) renderPixel() {
	x := p.dot - 1
	y := p.scanline

	bgPixel, bgPalette := p.backgroundPixel()
	spritePixel, spritePalette, spritePriority, spriteZero := p.spritePixel(x)

	var finalPixel, finalPalette uint8
	var fromSprite bool

	switch {
	case bgPixel == 0 && spritePixel == 0:
		finalPixel, finalPalette = 0, 0
	case bgPixel == 0 && spritePixel != 0:
		finalPixel, finalPalette, fromSprite = spritePixel, spritePalette, true
	case bgPixel != 0 && spritePixel == 0:
		finalPixel, finalPalette = bgPixel, bgPalette
	default:
		if spriteZero && x != 255 {
			p.status |= 0x40
		}
		if spritePriority {
			finalPixel, finalPalette, fromSprite = spritePixel, spritePalette, true
		} else {
			finalPixel, finalPalette = bgPixel, bgPalette
		}
	}

	var colorIndex uint8
	if finalPixel == 0 {
		colorIndex = p.palette[0]
	} else if fromSprite {
		colorIndex = p.palette[0x10+int(finalPalette)*4+int(finalPixel)]
	} else {
		colorIndex = p.palette[finalPalette*4+finalPixel]
	}

	p.frameBuffer[y*256+x] = nesPalette[colorIndex&0x3F]
}

func (p *PPU) backgroundPixel() (pixel, palette uint8) {
	if !p.showBackground() {
		return 0, 0
	}
	bitMux := uint16(0x8000) >> p.x
	lo := uint8(0)
	if p.bgShiftLo&bitMux != 0 {
		lo = 1
	}
	hi := uint8(0)
	if p.bgShiftHi&bitMux != 0 {
		hi = 1
	}
	pixel = (hi << 1) | lo

	alo := uint8(0)
	if p.bgAttrShiftLo&bitMux != 0 {
		alo = 1
	}
	ahi := uint8(0)
	if p.bgAttrShiftHi&bitMux != 0 {
		ahi = 1
	}
	palette = (ahi << 1) | alo
	return pixel, palette
}

func (p *PPU) spritePixel(x int) (pixel, palette uint8, priority, zero bool) {
	if !p.showSprites() {
		return 0, 0, false, false
	}
	for i := 0; i < p.spriteCount; i++ {
		s := &p.sprites[i]
		offset := x - int(s.x)
		if offset < 0 || offset > 7 {
			continue
		}
		bit := uint(7 - offset)
		lo := (s.patternLo >> bit) & 1
		hi := (s.patternHi >> bit) & 1
		px := (hi << 1) | lo
		if px == 0 {
			continue
		}
		return px, s.attributes & 0x03, s.attributes&0x20 == 0, s.isSpriteZero
	}
	return 0, 0, false, false
}
