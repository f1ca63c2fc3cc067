package video2d

// Register block layout (per engine, mapped into the IO region by the
// console's bus wiring at two different bases for engine A/B). Follows
// the teacher's per-field byte/halfword register style
// (internal/ppu/ppu.go's Read8/Write8 switch) generalized to the wider
// per-layer field set spec.md §4.5 needs.
//
//	0x00..0x7F  four 32-byte BG control blocks (BG0,BG1,BG2,BG3)
//	0x80..0x85  window 0 (enabled,left,right,top,bottom,layermask)
//	0x86..0x8B  window 1
//	0x8C        object-window layer mask
//	0x8D        outside-window layer mask
//	0x90..0x96  color-effects unit
//	0x98..0x99  backdrop color (RGB555)
//	0x9A..0x9B  master brightness (mode byte, Y)
//	0xA0..0xAD  capture unit (engine A only; ignored on engine B)
const (
	bgBlockSize = 32
	bgBlockBase = 0x00
	winBase     = 0x80
	fxBase      = 0x90
	backdropOff = 0x98
	brightOff   = 0x9A
	captureBase = 0xA0
)

func (e *Engine) ReadIO8(offset uint32) uint8 {
	switch {
	case offset < bgBlockBase+bgBlockSize*4:
		return e.readBG(offset)
	case offset >= winBase && offset < winBase+12:
		return e.readWindow(offset)
	case offset == winBase+12:
		return e.ObjWindowMask
	case offset == winBase+13:
		return e.OutsideMask
	case offset >= fxBase && offset < fxBase+7:
		return e.readFX(offset)
	case offset == backdropOff:
		return uint8(e.Backdrop)
	case offset == backdropOff+1:
		return uint8(e.Backdrop >> 8)
	case offset == brightOff:
		return boolByte(e.MasterBrightUp) | boolByte(e.MasterBrightDown)<<1
	case offset == brightOff+1:
		return e.MasterBrightY
	case offset >= captureBase && offset < captureBase+14:
		return e.readCapture(offset)
	default:
		return 0
	}
}

func (e *Engine) WriteIO8(offset uint32, value uint8) {
	switch {
	case offset < bgBlockBase+bgBlockSize*4:
		e.writeBG(offset, value)
	case offset >= winBase && offset < winBase+12:
		e.writeWindow(offset, value)
	case offset == winBase+12:
		e.ObjWindowMask = value
	case offset == winBase+13:
		e.OutsideMask = value
	case offset >= fxBase && offset < fxBase+7:
		e.writeFX(offset, value)
	case offset == backdropOff:
		e.Backdrop = (e.Backdrop &^ 0xFF) | uint16(value)
	case offset == backdropOff+1:
		e.Backdrop = (e.Backdrop &^ 0xFF00) | uint16(value)<<8
	case offset == brightOff:
		e.MasterBrightUp = value&1 != 0
		e.MasterBrightDown = value&2 != 0
	case offset == brightOff+1:
		e.MasterBrightY = value & 0x1F
	case offset >= captureBase && offset < captureBase+14:
		e.writeCapture(offset, value)
	}
}

func (e *Engine) bgLayer(offset uint32) (*BGLayer, uint32) {
	idx := offset / bgBlockSize
	return &e.BG[idx], offset % bgBlockSize
}

func (e *Engine) readBG(offset uint32) uint8 {
	l, o := e.bgLayer(offset)
	switch o {
	case 0x00:
		return boolByte(l.Enabled) | uint8(l.Mode)<<1 | l.Priority<<4 | boolByte(l.Palette256)<<6 | boolByte(l.UseExtPalette)<<7
	case 0x01:
		return l.SizeIndex | l.ExtPaletteSlot<<2 | boolByte(l.OverflowWrap)<<6
	case 0x02, 0x03, 0x04, 0x05:
		return byteOf(l.CharBase, o-0x02)
	case 0x06, 0x07, 0x08, 0x09:
		return byteOf(l.MapBase, o-0x06)
	case 0x0A, 0x0B:
		return byteOf16(uint16(l.ScrollX), o-0x0A)
	case 0x0C, 0x0D:
		return byteOf16(uint16(l.ScrollY), o-0x0C)
	case 0x0E, 0x0F:
		return byteOf16(uint16(l.PA), o-0x0E)
	case 0x10, 0x11:
		return byteOf16(uint16(l.PB), o-0x10)
	case 0x12, 0x13:
		return byteOf16(uint16(l.PC), o-0x12)
	case 0x14, 0x15:
		return byteOf16(uint16(l.PD), o-0x14)
	case 0x16, 0x17, 0x18, 0x19:
		return byteOf(uint32(l.RefX), o-0x16)
	case 0x1A, 0x1B, 0x1C, 0x1D:
		return byteOf(uint32(l.RefY), o-0x1A)
	default:
		return 0
	}
}

func (e *Engine) writeBG(offset uint32, v uint8) {
	l, o := e.bgLayer(offset)
	switch o {
	case 0x00:
		l.Enabled = v&1 != 0
		l.Mode = BGMode((v >> 1) & 7)
		l.Priority = (v >> 4) & 3
		l.Palette256 = v&0x40 != 0
		l.UseExtPalette = v&0x80 != 0
	case 0x01:
		l.SizeIndex = v & 3
		l.ExtPaletteSlot = (v >> 2) & 0xF
		l.OverflowWrap = v&0x40 != 0
	case 0x02, 0x03, 0x04, 0x05:
		l.CharBase = setByte(l.CharBase, o-0x02, v)
	case 0x06, 0x07, 0x08, 0x09:
		l.MapBase = setByte(l.MapBase, o-0x06, v)
	case 0x0A, 0x0B:
		l.ScrollX = int16(setByte16(uint16(l.ScrollX), o-0x0A, v))
	case 0x0C, 0x0D:
		l.ScrollY = int16(setByte16(uint16(l.ScrollY), o-0x0C, v))
	case 0x0E, 0x0F:
		l.PA = int16(setByte16(uint16(l.PA), o-0x0E, v))
	case 0x10, 0x11:
		l.PB = int16(setByte16(uint16(l.PB), o-0x10, v))
	case 0x12, 0x13:
		l.PC = int16(setByte16(uint16(l.PC), o-0x12, v))
	case 0x14, 0x15:
		l.PD = int16(setByte16(uint16(l.PD), o-0x14, v))
	case 0x16, 0x17, 0x18, 0x19:
		l.RefX = int32(setByte(uint32(l.RefX), o-0x16, v))
	case 0x1A, 0x1B, 0x1C, 0x1D:
		l.RefY = int32(setByte(uint32(l.RefY), o-0x1A, v))
	}
}

func (e *Engine) readWindow(offset uint32) uint8 {
	rel := offset - winBase
	w := &e.Window0
	if rel >= 6 {
		w = &e.Window1
		rel -= 6
	}
	switch rel {
	case 0:
		return boolByte(w.Enabled)
	case 1:
		return w.Left
	case 2:
		return w.Right
	case 3:
		return w.Top
	case 4:
		return w.Bottom
	case 5:
		return w.LayerMask
	}
	return 0
}

func (e *Engine) writeWindow(offset uint32, v uint8) {
	rel := offset - winBase
	w := &e.Window0
	if rel >= 6 {
		w = &e.Window1
		rel -= 6
	}
	switch rel {
	case 0:
		w.Enabled = v != 0
	case 1:
		w.Left = v
	case 2:
		w.Right = v
	case 3:
		w.Top = v
	case 4:
		w.Bottom = v
	case 5:
		w.LayerMask = v
	}
}

func (e *Engine) readFX(offset uint32) uint8 {
	switch offset - fxBase {
	case 0:
		return uint8(e.FX.Mode)
	case 1:
		return e.FX.TargetA
	case 2:
		return e.FX.TargetB
	case 3:
		return e.FX.EVA
	case 4:
		return e.FX.EVB
	case 5:
		return e.FX.EVY
	case 6:
		return boolByte(e.FX.WindowEnabled[0]) | boolByte(e.FX.WindowEnabled[1])<<1 | boolByte(e.FX.WindowEnabled[2])<<2
	}
	return 0
}

func (e *Engine) writeFX(offset uint32, v uint8) {
	switch offset - fxBase {
	case 0:
		e.FX.Mode = EffectMode(v & 3)
	case 1:
		e.FX.TargetA = v
	case 2:
		e.FX.TargetB = v
	case 3:
		e.FX.EVA = v & 0x1F
	case 4:
		e.FX.EVB = v & 0x1F
	case 5:
		e.FX.EVY = v & 0x1F
	case 6:
		e.FX.WindowEnabled[0] = v&1 != 0
		e.FX.WindowEnabled[1] = v&2 != 0
		e.FX.WindowEnabled[2] = v&4 != 0
	}
}

func (e *Engine) readCapture(offset uint32) uint8 {
	rel := offset - captureBase
	switch rel {
	case 0:
		return boolByte(e.Cap.Enabled)
	case 1:
		return uint8(e.Cap.Source)
	case 2:
		return e.Cap.EVA
	case 3:
		return e.Cap.EVB
	case 4, 5, 6, 7:
		return byteOf(e.Cap.DestBank, rel-4)
	case 8, 9, 10, 11:
		return byteOf(e.Cap.DestOffset, rel-8)
	case 12, 13:
		return byteOf16(e.Cap.LineCount, rel-12)
	}
	return 0
}

func (e *Engine) writeCapture(offset uint32, v uint8) {
	rel := offset - captureBase
	switch rel {
	case 0:
		wasEnabled := e.Cap.Enabled
		e.Cap.Enabled = v != 0
		if e.Cap.Enabled && !wasEnabled {
			e.StartCapture()
		}
	case 1:
		e.Cap.Source = CaptureSource(v & 3)
	case 2:
		e.Cap.EVA = v & 0x1F
	case 3:
		e.Cap.EVB = v & 0x1F
	case 4, 5, 6, 7:
		e.Cap.DestBank = setByte(e.Cap.DestBank, rel-4, v)
	case 8, 9, 10, 11:
		e.Cap.DestOffset = setByte(e.Cap.DestOffset, rel-8, v)
	case 12, 13:
		e.Cap.LineCount = setByte16(e.Cap.LineCount, rel-12, v)
	}
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func byteOf(v uint32, n uint32) uint8  { return uint8(v >> (8 * n)) }
func byteOf16(v uint16, n uint32) uint8 { return uint8(v >> (8 * n)) }

func setByte(v uint32, n uint32, b uint8) uint32 {
	shift := 8 * n
	return (v &^ (0xFF << shift)) | uint32(b)<<shift
}

func setByte16(v uint16, n uint32, b uint8) uint16 {
	shift := 8 * n
	return (v &^ (0xFF << shift)) | uint16(b)<<shift
}
