package video2d

// objPixel is one prerendered sprite contribution for a scanline column,
// produced by prerenderObjects before background composition (spec.md
// §4.5 "Objects": "Pre-rendered into a per-scanline sprite buffer before
// the background composition").
type objPixel struct {
	color    Color
	priority uint8
	semi     bool
	window   bool // object-window contribution, no pixel of its own
	valid    bool
}

// ObjCharBase is the VRAM offset of the sprite character/tile graphics
// region, set by the console wiring from the engine's OBJ VRAM bank
// mapping.
func (e *Engine) prerenderObjects(scanline int, objCharBase uint32, buf *[ScreenWidth]objPixel) {
	for i := range buf {
		buf[i] = objPixel{}
	}
	for i := range e.Obj {
		o := &e.Obj[i]
		if o.Mode == ObjDisabled || o.Width == 0 || o.Height == 0 {
			continue
		}
		y0 := int(o.Y)
		h := int(o.Height)
		if o.Affine && o.AffineDouble {
			h *= 2
		}
		row := scanline - y0
		if row < 0 {
			row += 256 // Y wraps near the bottom of the OAM coordinate space
		}
		if row >= h {
			continue
		}

		w := int(o.Width)
		spanW := w
		if o.Affine && o.AffineDouble {
			spanW *= 2
		}
		for col := 0; col < spanW; col++ {
			screenX := int(o.X) + col
			if screenX < 0 || screenX >= ScreenWidth {
				continue
			}
			var texX, texY int
			if o.Affine {
				ap := e.AffineParams[o.AffineGroup]
				cx, cy := spanW/2, h/2
				dx, dy := int32(col-cx), int32(row-cy)
				tx := (int32(ap.PA)*dx+int32(ap.PB)*dy)>>8 + int32(w/2)
				ty := (int32(ap.PC)*dx+int32(ap.PD)*dy)>>8 + int32(o.Height)/2
				if tx < 0 || ty < 0 || int(tx) >= w || int(ty) >= int(o.Height) {
					continue
				}
				texX, texY = int(tx), int(ty)
			} else {
				texX, texY = col, row
				if o.HFlip {
					texX = w - 1 - texX
				}
				if o.VFlip {
					texY = int(o.Height) - 1 - texY
				}
			}

			tilesPerRow := w / 8
			tileX, tileY := texX/8, texY/8
			fineX, fineY := texX%8, texY%8
			tileNum := uint32(o.TileIndex) + uint32(tileY*tilesPerRow+tileX)

			var idx uint32
			var palIndex uint32
			if o.Palette256 {
				off := objCharBase + tileNum*64 + uint32(fineY)*8 + uint32(fineX)
				idx = uint32(e.vramByte(off))
				palIndex = idx
			} else {
				off := objCharBase + tileNum*32 + uint32(fineY)*4 + uint32(fineX)/2
				b := e.vramByte(off)
				if fineX&1 == 0 {
					idx = uint32(b & 0xF)
				} else {
					idx = uint32(b >> 4)
				}
				palIndex = uint32(o.PaletteIndex)*16 + idx
			}
			if idx == 0 {
				continue
			}

			existing := buf[screenX]
			if existing.valid && !existing.window && existing.priority <= o.Priority {
				continue
			}

			if o.Mode == ObjWindow {
				buf[screenX] = objPixel{window: true, valid: true, priority: o.Priority}
				continue
			}
			// OBJ palette bank 16..31 in 256-palette addressing space,
			// matching the teacher's shared-CGRAM split between BG and
			// OBJ (internal/ppu/ppu.go CGRAM layout).
			c := e.paletteColor(256 + palIndex)
			buf[screenX] = objPixel{
				color:    c,
				priority: o.Priority,
				semi:     o.Mode == ObjSemiTransparent,
				valid:    true,
			}
		}
	}
}
