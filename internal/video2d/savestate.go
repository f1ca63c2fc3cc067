package video2d

import "nitro-core-dx/internal/savestate"

func (l *BGLayer) Visit(v savestate.Visitor) {
	v.Bool(&l.Enabled)
	savestate.VisitIntEnum(v, &l.Mode)
	v.U8(&l.Priority)
	v.I16(&l.ScrollX)
	v.I16(&l.ScrollY)
	v.U32(&l.CharBase)
	v.U32(&l.MapBase)
	v.U8(&l.SizeIndex)
	v.Bool(&l.Palette256)
	v.U8(&l.ExtPaletteSlot)
	v.Bool(&l.UseExtPalette)
	v.I16(&l.PA)
	v.I16(&l.PB)
	v.I16(&l.PC)
	v.I16(&l.PD)
	v.I32(&l.RefX)
	v.I32(&l.RefY)
	v.Bool(&l.OverflowWrap)
}

func (o *Object) Visit(v savestate.Visitor) {
	v.I16(&o.X)
	v.I16(&o.Y)
	v.U8(&o.Priority)
	savestate.VisitIntEnum(v, &o.Mode)
	v.Bool(&o.Palette256)
	v.U8(&o.PaletteIndex)
	v.U16(&o.TileIndex)
	v.U8(&o.Width)
	v.U8(&o.Height)
	v.Bool(&o.HFlip)
	v.Bool(&o.VFlip)
	v.Bool(&o.Affine)
	v.Bool(&o.AffineDouble)
	v.U8(&o.AffineGroup)
	v.Bool(&o.Mosaic)
}

func (w *Window) Visit(v savestate.Visitor) {
	v.Bool(&w.Enabled)
	v.U8(&w.Left)
	v.U8(&w.Right)
	v.U8(&w.Top)
	v.U8(&w.Bottom)
	v.U8(&w.LayerMask)
}

func (fx *Effects) Visit(v savestate.Visitor) {
	savestate.VisitIntEnum(v, &fx.Mode)
	v.U8(&fx.TargetA)
	v.U8(&fx.TargetB)
	v.U8(&fx.EVA)
	v.U8(&fx.EVB)
	v.U8(&fx.EVY)
	for i := range fx.WindowEnabled {
		v.Bool(&fx.WindowEnabled[i])
	}
	v.U8(&fx.OutsideMask)
}

func (c *Capture) Visit(v savestate.Visitor) {
	v.Bool(&c.Enabled)
	savestate.VisitIntEnum(v, &c.Source)
	v.U8(&c.EVA)
	v.U8(&c.EVB)
	v.U32(&c.DestBank)
	v.U32(&c.DestOffset)
	v.U16(&c.LineCount)
	v.U16(&c.linesLeft)
}

// Visit walks one compositing engine's configuration and sprite/affine
// tables. The per-scanline VRAM/palette/OAM snapshots and captureWriter
// are collaborators refreshed by Latch every scanline, not state a
// save/load round trip needs to carry.
func (e *Engine) Visit(v savestate.Visitor) {
	v.Bool(&e.IsEngineA)
	for i := range e.BG {
		e.BG[i].Visit(v)
	}
	for i := range e.Obj {
		e.Obj[i].Visit(v)
	}
	for i := range e.AffineParams {
		v.I16(&e.AffineParams[i].PA)
		v.I16(&e.AffineParams[i].PB)
		v.I16(&e.AffineParams[i].PC)
		v.I16(&e.AffineParams[i].PD)
	}
	e.Window0.Visit(v)
	e.Window1.Visit(v)
	v.U8(&e.ObjWindowMask)
	v.U8(&e.OutsideMask)
	e.FX.Visit(v)
	v.U16(&e.Backdrop)
	e.Cap.Visit(v)
	v.Bool(&e.MasterBrightUp)
	v.Bool(&e.MasterBrightDown)
	v.U8(&e.MasterBrightY)
}
