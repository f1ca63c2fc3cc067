package video2d

// bgPixel evaluates layer l at screen column x on the given scanline,
// returning the composited color and whether the pixel is opaque
// (spec.md §4.5 background-mode table). The affine modes share
// affineCoords; the text modes share tileColor.
func (e *Engine) bgPixel(l *BGLayer, x, scanline int) (Color, bool) {
	switch l.Mode {
	case ModeText16:
		return e.textPixel(l, x, scanline, false)
	case ModeText256:
		return e.textPixel(l, x, scanline, true)
	case ModeAffine:
		return e.affineTilePixel(l, x, scanline, false)
	case ModeExtendedMap:
		return e.affineTilePixel(l, x, scanline, true)
	case ModeExtendedBitmap256:
		return e.extBitmap256Pixel(l, x, scanline)
	case ModeExtendedBitmapDirect:
		return e.extBitmapDirectPixel(l, x, scanline)
	case ModeLargeBitmap:
		return e.largeBitmapPixel(l, x, scanline)
	default:
		return Color{}, false
	}
}

// textPixel implements spec.md §8 invariant 4's naive reference directly:
// tile = map[((sx+x)/8) mod mapW, ((sy+y)/8) mod mapH]; texel = tile's
// color at ((sx+x)%8, (sy+y)%8). mapW/mapH are in tiles.
func (e *Engine) textPixel(l *BGLayer, x, scanline int, pal256 bool) (Color, bool) {
	w, h := l.sizeFor()

	px := mod32(int32(x)+int32(l.ScrollX), w)
	py := mod32(int32(scanline)+int32(l.ScrollY), h)
	tileX, tileY := px/8, py/8
	fineX, fineY := px%8, py%8

	entry := e.vramHalf(l.MapBase + uint32(tileY*(w/8)+tileX)*2)
	tileNum := uint32(entry & 0x03FF)
	hflip := entry&0x0400 != 0
	vflip := entry&0x0800 != 0
	palBank := uint32((entry >> 12) & 0xF)

	if hflip {
		fineX = 7 - fineX
	}
	if vflip {
		fineY = 7 - fineY
	}

	if pal256 {
		off := l.CharBase + tileNum*64 + uint32(fineY)*8 + uint32(fineX)
		idx := uint32(e.vramByte(off))
		if idx == 0 {
			return Color{}, false
		}
		palIndex := idx
		if l.UseExtPalette {
			palIndex = uint32(l.ExtPaletteSlot)*256 + idx
		}
		return e.paletteColor(palIndex), true
	}

	off := l.CharBase + tileNum*32 + uint32(fineY)*4 + uint32(fineX)/2
	b := e.vramByte(off)
	var nibble uint8
	if fineX&1 == 0 {
		nibble = b & 0xF
	} else {
		nibble = b >> 4
	}
	if nibble == 0 {
		return Color{}, false
	}
	return e.paletteColor(palBank*16 + uint32(nibble)), true
}

// affineCoords applies the layer's 2x2 transform to screen column x on
// scanline, per spec.md §4.5 "2×2 matrix transform per scanline".
func affineCoords(l *BGLayer, x, scanline int) (int32, int32) {
	xf := int32(x)
	yf := int32(scanline)
	tx := (int32(l.PA)*xf+int32(l.PB)*yf)>>8 + l.RefX
	ty := (int32(l.PC)*xf+int32(l.PD)*yf)>>8 + l.RefY
	return tx, ty
}

// affineTilePixel implements the Affine and ExtendedMap modes: same
// per-tile fetch as text modes but with rotated/scaled coordinates, and
// invariant-5 overflow transparency when OverflowWrap is false.
func (e *Engine) affineTilePixel(l *BGLayer, x, scanline int, extended bool) (Color, bool) {
	w, h := l.sizeFor()
	tx, ty := affineCoords(l, x, scanline)
	if tx < 0 || ty < 0 || tx >= w || ty >= h {
		if !l.OverflowWrap {
			return Color{}, false
		}
		tx = mod32(tx, w)
		ty = mod32(ty, h)
	}
	tileX, tileY := tx/8, ty/8
	fineX, fineY := tx%8, ty%8
	mapW := w / 8

	var tileNum uint32
	palBank := uint32(0)
	hflip, vflip := false, false
	if extended {
		entry := e.vramHalf(l.MapBase + uint32(tileY*mapW+tileX)*2)
		tileNum = uint32(entry & 0x03FF)
		hflip = entry&0x0400 != 0
		vflip = entry&0x0800 != 0
		palBank = uint32((entry >> 12) & 0xF)
	} else {
		tileNum = uint32(e.vramByte(l.MapBase + uint32(tileY*mapW+tileX)))
	}
	if hflip {
		fineX = 7 - fineX
	}
	if vflip {
		fineY = 7 - fineY
	}

	off := l.CharBase + tileNum*64 + uint32(fineY)*8 + uint32(fineX)
	idx := uint32(e.vramByte(off))
	if idx == 0 {
		return Color{}, false
	}
	palIndex := idx
	if l.UseExtPalette {
		palIndex = uint32(l.ExtPaletteSlot)*256 + idx
	} else if extended {
		palIndex = palBank*16 + idx%16
	}
	return e.paletteColor(palIndex), true
}

// extBitmap256Pixel is the ExtendedBitmap256 mode: an indexed bitmap at
// MapBase, sampled via the affine transform.
func (e *Engine) extBitmap256Pixel(l *BGLayer, x, scanline int) (Color, bool) {
	w, h := l.sizeFor()
	tx, ty := affineCoords(l, x, scanline)
	if tx < 0 || ty < 0 || tx >= w || ty >= h {
		if !l.OverflowWrap {
			return Color{}, false
		}
		tx, ty = mod32(tx, w), mod32(ty, h)
	}
	idx := uint32(e.vramByte(l.MapBase + uint32(ty*w+tx)))
	if idx == 0 {
		return Color{}, false
	}
	return e.paletteColor(idx), true
}

// extBitmapDirectPixel is the ExtendedBitmapDirect mode: a direct-RGB5
// bitmap whose bit 15 marks per-pixel opacity.
func (e *Engine) extBitmapDirectPixel(l *BGLayer, x, scanline int) (Color, bool) {
	w, h := l.sizeFor()
	tx, ty := affineCoords(l, x, scanline)
	if tx < 0 || ty < 0 || tx >= w || ty >= h {
		if !l.OverflowWrap {
			return Color{}, false
		}
		tx, ty = mod32(tx, w), mod32(ty, h)
	}
	v := e.vramHalf(l.MapBase + uint32(ty*w+tx)*2)
	if v&0x8000 == 0 {
		return Color{}, false
	}
	return colorFromRGB555(v), true
}

// largeBitmapPixel is the LargeBitmap mode: engine-A-only, slot-2-only
// 1024x512 indexed bitmap, otherwise identical to ExtendedBitmap256.
func (e *Engine) largeBitmapPixel(l *BGLayer, x, scanline int) (Color, bool) {
	return e.extBitmap256Pixel(l, x, scanline)
}

func mod32(v, m int32) int32 {
	r := v % m
	if r < 0 {
		r += m
	}
	return r
}
