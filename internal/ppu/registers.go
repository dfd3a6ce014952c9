package ppu

// v and t are 15-bit "loopy" scroll registers with the layout:
//
//	yyy NN YYYYY XXXXX
//	||| || ||||| +++++-- coarse X scroll
//	||| || +++++-------- coarse Y scroll
//	||| ++-------------- nametable select
//	+++----------------- fine Y scroll
const (
	coarseXMask    = 0x001F
	coarseYMask    = 0x03E0
	nametableMask  = 0x0C00
	fineYMask      = 0x7000
	coarseYShift   = 5
	fineYShift     = 12
	loopyAddrMask  = 0x7FFF
	vramAddrMask14 = 0x3FFF
)

func incrementCoarseX(v uint16) uint16 {
	if v&coarseXMask == 31 {
		v &^= coarseXMask
		v ^= 0x0400 // flip horizontal nametable
	} else {
		v++
	}
	return v
}

func incrementY(v uint16) uint16 {
	if v&fineYMask != fineYMask {
		v += 0x1000
		return v
	}
	v &^= fineYMask
	coarseY := (v & coarseYMask) >> coarseYShift
	switch coarseY {
	case 29:
		coarseY = 0
		v ^= 0x0800 // flip vertical nametable
	case 31:
		coarseY = 0
	default:
		coarseY++
	}
	return (v &^ coarseYMask) | (coarseY << coarseYShift)
}

// transferX copies the horizontal scroll bits (coarse X, nametable X) from t
// into v, performed at dot 257 of every visible and pre-render scanline.
func transferX(v, t uint16) uint16 {
	const mask = coarseXMask | 0x0400
	return (v &^ mask) | (t & mask)
}

// transferY copies the vertical scroll bits from t into v, performed on
// dots 280-304 of the pre-render scanline.
func transferY(v, t uint16) uint16 {
	const mask = coarseYMask | fineYMask | 0x0800
	return (v &^ mask) | (t & mask)
}
