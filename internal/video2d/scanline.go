package video2d

// windowMaskAt resolves spec.md §4.5 step 3's window priority
// (window-0 ≻ window-1 ≻ object-window ≻ outside) for column x on the
// given scanline.
func (e *Engine) windowMaskAt(x, scanline int, objBuf *[ScreenWidth]objPixel) uint8 {
	anyWindow := e.Window0.Enabled || e.Window1.Enabled
	if !anyWindow {
		return 0xFF // no windows configured: every layer/effect always enabled
	}
	if e.Window0.Enabled && inWindow(e.Window0, x, scanline) {
		return e.Window0.LayerMask
	}
	if e.Window1.Enabled && inWindow(e.Window1, x, scanline) {
		return e.Window1.LayerMask
	}
	if objBuf[x].valid && objBuf[x].window {
		return e.ObjWindowMask
	}
	return e.OutsideMask
}

func inWindow(w Window, x, y int) bool {
	return inSpan(x, int(w.Left), int(w.Right), ScreenWidth) &&
		inSpan(y, int(w.Top), int(w.Bottom), ScreenHeight)
}

// inSpan tests membership in [lo,hi) on a ring of size `size`, allowing
// hi < lo to mean "wraps around the edge" as real window registers do.
func inSpan(v, lo, hi, size int) bool {
	if lo <= hi {
		return v >= lo && v < hi
	}
	return v >= lo || v < hi
}

// compositeEntry tracks the topmost and second-from-top visible pixel at
// a column, which is all the color-effects unit (spec.md §4.5 step 5)
// ever needs.
type compositeEntry struct {
	topColor, secondColor Color
	topLayer, secondLayer uint8
	hasSecond             bool
}

func (c *compositeEntry) push(color Color, layerBit uint8) {
	c.secondColor, c.secondLayer, c.hasSecond = c.topColor, c.topLayer, true
	c.topColor, c.topLayer = color, layerBit
}

// RenderScanline implements spec.md §4.5's six-step scanline algorithm.
// threeD, when non-nil and this is engine A with BG0 configured as the
// 3D layer, supplies the rasterizer's already-composited output for this
// line; a zero Color in that slice means "nothing drawn" (transparent).
func (e *Engine) RenderScanline(scanline int, objCharBase uint32, threeD []Color) [ScreenWidth]Color {
	var objBuf [ScreenWidth]objPixel
	e.prerenderObjects(scanline, objCharBase, &objBuf)

	var out [ScreenWidth]Color
	backdrop := e.backdropColor()

	for x := 0; x < ScreenWidth; x++ {
		mask := e.windowMaskAt(x, scanline, &objBuf)

		entry := compositeEntry{topColor: backdrop, topLayer: layerBackdrop}

		for priority := uint8(3); ; priority-- {
			for i := 0; i < 4; i++ {
				l := &e.BG[i]
				bit := uint8(1) << uint(i)
				if !l.Enabled || l.Priority != priority || mask&bit == 0 {
					continue
				}
				if e.IsEngineA && i == 0 && threeD != nil {
					if c := threeD[x]; c != (Color{}) {
						entry.push(c, bit)
					}
					continue
				}
				if c, opaque := e.bgPixel(l, x, scanline); opaque {
					entry.push(c, bit)
				}
			}
			if op := objBuf[x]; op.valid && !op.window && op.priority == priority && mask&layerOBJ != 0 {
				entry.push(op.color, layerOBJ)
			}
			if priority == 0 {
				break
			}
		}

		out[x] = e.applyEffects(entry, mask)
	}

	if e.MasterBrightUp || e.MasterBrightDown {
		for x := range out {
			out[x] = e.applyMasterBrightness(out[x])
		}
	}

	if e.IsEngineA && e.Cap.Enabled {
		e.stepCapture(scanline, &out)
	}

	return out
}

func (e *Engine) applyEffects(entry compositeEntry, mask uint8) Color {
	if mask&layerBackdrop == 0 {
		return entry.topColor
	}
	switch e.FX.Mode {
	case EffectAlphaBlend:
		if e.FX.TargetA&entry.topLayer == 0 {
			return entry.topColor
		}
		if !entry.hasSecond || e.FX.TargetB&entry.secondLayer == 0 {
			return entry.topColor
		}
		eva, evb := int(e.FX.EVA), int(e.FX.EVB)
		return Color{
			R: clamp6((int(entry.topColor.R)*eva + int(entry.secondColor.R)*evb) / 16),
			G: clamp6((int(entry.topColor.G)*eva + int(entry.secondColor.G)*evb) / 16),
			B: clamp6((int(entry.topColor.B)*eva + int(entry.secondColor.B)*evb) / 16),
		}
	case EffectBrightnessUp:
		if e.FX.TargetA&entry.topLayer == 0 {
			return entry.topColor
		}
		return brighten(entry.topColor, int(e.FX.EVY), true)
	case EffectBrightnessDown:
		if e.FX.TargetA&entry.topLayer == 0 {
			return entry.topColor
		}
		return brighten(entry.topColor, int(e.FX.EVY), false)
	default:
		return entry.topColor
	}
}

func brighten(c Color, evy int, up bool) Color {
	f := func(ch uint8) uint8 {
		v := int(ch)
		if up {
			return clamp6(v + (63-v)*evy/16)
		}
		return clamp6(v - v*evy/16)
	}
	return Color{R: f(c.R), G: f(c.G), B: f(c.B)}
}

func (e *Engine) applyMasterBrightness(c Color) Color {
	return brighten(c, int(e.MasterBrightY), e.MasterBrightUp)
}
