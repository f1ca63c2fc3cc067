package video2d

// shapeSizeTable maps (shape, size) to pixel (width, height), the fixed
// table real OAM attributes encode (spec.md §4.5 "Objects").
var shapeSizeTable = [3][4][2]uint8{
	{{8, 8}, {16, 16}, {32, 32}, {64, 64}},   // square
	{{16, 8}, {32, 8}, {32, 16}, {64, 32}},   // horizontal
	{{8, 16}, {8, 32}, {16, 32}, {32, 64}},   // vertical
}

// ParseOAM decodes the 128 sprite entries and 32 affine parameter groups
// out of the latched OAM snapshot, following the real hardware's 8-bytes-
// per-entry attr0/attr1/attr2 layout with affine PA/PB/PC/PD interleaved
// into the fourth halfword ("attr3") of each of the four entries in a
// group.
// Called once per scanline from Latch so object state always reflects
// the most recent OAM writes.
func (e *Engine) ParseOAM() {
	read16 := func(off uint32) uint16 {
		if int(off+1) >= len(e.oamSnap) {
			return 0
		}
		return uint16(e.oamSnap[off]) | uint16(e.oamSnap[off+1])<<8
	}

	for i := 0; i < 128; i++ {
		base := uint32(i * 8)
		attr0 := read16(base)
		attr1 := read16(base + 2)
		attr2 := read16(base + 4)

		o := &e.Obj[i]
		o.Y = int16(attr0 & 0xFF)
		affineFlag := attr0&0x0100 != 0
		doubleOrDisable := attr0&0x0200 != 0
		modeBits := (attr0 >> 10) & 3
		o.Mosaic = attr0&0x1000 != 0
		o.Palette256 = attr0&0x2000 != 0
		shape := (attr0 >> 14) & 3

		xRaw := attr1 & 0x01FF
		o.X = int16(xRaw<<7) >> 7 // sign-extend the 9-bit field
		size := (attr1 >> 14) & 3

		o.TileIndex = attr2 & 0x03FF
		o.Priority = uint8((attr2 >> 10) & 3)
		o.PaletteIndex = uint8((attr2 >> 12) & 0xF)

		if shape > 2 {
			shape = 0
		}
		dims := shapeSizeTable[shape][size]
		o.Width, o.Height = dims[0], dims[1]

		switch {
		case affineFlag:
			o.Affine = true
			o.AffineDouble = doubleOrDisable
			o.AffineGroup = uint8((attr1 >> 9) & 0x1F)
			o.HFlip, o.VFlip = false, false
			o.Mode = objModeFromBits(modeBits)
		case doubleOrDisable:
			o.Affine = false
			o.Mode = ObjDisabled
		default:
			o.Affine = false
			o.HFlip = attr1&0x1000 != 0
			o.VFlip = attr1&0x2000 != 0
			o.Mode = objModeFromBits(modeBits)
		}
	}

	for g := 0; g < 32; g++ {
		groupBase := uint32(g * 32)
		e.AffineParams[g].PA = int16(read16(groupBase + 6))
		e.AffineParams[g].PB = int16(read16(groupBase + 14))
		e.AffineParams[g].PC = int16(read16(groupBase + 22))
		e.AffineParams[g].PD = int16(read16(groupBase + 30))
	}
}

func objModeFromBits(bits uint16) ObjMode {
	switch bits {
	case 0:
		return ObjNormal
	case 1:
		return ObjSemiTransparent
	case 2:
		return ObjWindow
	default:
		return ObjDisabled // bitmap-sprite mode, not modeled
	}
}
