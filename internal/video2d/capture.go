package video2d

// VRAMWriter is implemented by the console's VRAM bank wiring; the
// capture unit writes through it rather than into the engine's read-only
// per-scanline snapshot (spec.md §4.5 "Capture (engine A only)").
type VRAMWriter interface {
	WriteVRAMByte(bank uint32, offset uint32, value uint8)
}

// AttachCapture wires the destination bank writer used by stepCapture.
// Only engine A ever calls this; engine B's Cap stays permanently
// disabled.
func (e *Engine) AttachCapture(w VRAMWriter) {
	e.captureWriter = w
}

// stepCapture writes one scanline of the composite output to the
// configured VRAM bank at DestOffset + scanline*512 and counts down the
// configured line count. It always captures the composite it is given:
// Cap.Source and the blend factors are not applied, and the destination
// does not wrap (spec.md §4.5 capture + round-trip law: capturing
// BG+OBJ output at scanline y and displaying it at scanline y on the same
// frame yields identical pixels modulo a documented 1-cycle delay, which
// the console wiring accounts for by reading the capture bank one
// scanline behind the write).
func (e *Engine) stepCapture(scanline int, composite *[ScreenWidth]Color) {
	if e.captureWriter == nil || e.Cap.linesLeft == 0 {
		return
	}
	base := e.Cap.DestOffset + uint32(scanline)*ScreenWidth*2
	for x := 0; x < ScreenWidth; x++ {
		c := composite[x]
		v := rgb555From6(c)
		off := base + uint32(x)*2
		e.captureWriter.WriteVRAMByte(e.Cap.DestBank, off, uint8(v))
		e.captureWriter.WriteVRAMByte(e.Cap.DestBank, off+1, uint8(v>>8))
	}
	e.Cap.linesLeft--
	if e.Cap.linesLeft == 0 {
		e.Cap.Enabled = false
	}
}

// StartCapture arms the capture unit for LineCount scanlines; writeCapture
// calls it when the capture enable bit is written high.
func (e *Engine) StartCapture() {
	e.Cap.linesLeft = e.Cap.LineCount
}

func rgb555From6(c Color) uint16 {
	return uint16(c.R>>1) | uint16(c.G>>1)<<5 | uint16(c.B>>1)<<10 | 0x8000
}
