package video3d

import "nitro-core-dx/internal/savestate"

func (m *Mat4) visit(v savestate.Visitor) {
	for i := range m {
		for j := range m[i] {
			v.F64(&m[i][j])
		}
	}
}

func (c *Color6) Visit(v savestate.Visitor) {
	v.U8(&c.R)
	v.U8(&c.G)
	v.U8(&c.B)
	v.U8(&c.A)
}

func (p *PixelAttrs) Visit(v savestate.Visitor) {
	v.U8(&p.EdgeMask)
	v.Bool(&p.Translucent)
	v.Bool(&p.BackFacing)
	v.Bool(&p.FogEnabled)
	v.U8(&p.TranslucentID)
	v.U8(&p.OpaqueID)
}

func (t *polyTemplate) visit(v savestate.Visitor) {
	savestate.VisitIntEnum(v, &t.mode)
	v.U8(&t.alpha)
	v.U8(&t.id)
	v.Bool(&t.depthEqual)
	v.Bool(&t.updateDepthForTranslucent)
	v.Bool(&t.frontFacingOnly)
	savestate.VisitIntEnum(v, &t.tex)
	v.U32(&t.texVRAMOff)
	v.U32(&t.texPalOff)
	v.U8(&t.texWShift)
	v.U8(&t.texHShift)
	v.Bool(&t.repeatS)
	v.Bool(&t.repeatT)
	v.Bool(&t.flipS)
	v.Bool(&t.flipT)
	v.Bool(&t.color0Transparent)
}

func (cv *clipVert) visit(v savestate.Visitor) {
	v.F64(&cv.x)
	v.F64(&cv.y)
	v.F64(&cv.z)
	v.F64(&cv.w)
	cv.color.Visit(v)
	v.F64(&cv.u)
	v.F64(&cv.v)
}

func (vx *Vertex) Visit(v savestate.Visitor) {
	v.I32(&vx.X)
	v.I32(&vx.Y)
	v.I32(&vx.Z)
	v.I32(&vx.W)
	vx.Color.Visit(v)
	v.I16(&vx.U)
	v.I16(&vx.V)
}

func (p *Polygon) Visit(v savestate.Visitor) {
	n := len(p.Vertices)
	v.Len(&n)
	if !v.Saving() {
		p.Vertices = make([]Vertex, n)
	}
	for i := range p.Vertices {
		p.Vertices[i].Visit(v)
	}
	v.Bool(&p.FrontFacing)
	savestate.VisitIntEnum(v, &p.Mode)
	savestate.VisitIntEnum(v, &p.Texture)
	v.U32(&p.TexVRAMOffset)
	v.U32(&p.TexPaletteOff)
	v.U8(&p.TexWidthShift)
	v.U8(&p.TexHeightShift)
	v.Bool(&p.RepeatS)
	v.Bool(&p.RepeatT)
	v.Bool(&p.FlipS)
	v.Bool(&p.FlipT)
	v.Bool(&p.Color0Transparent)
	v.U8(&p.Alpha)
	v.U8(&p.ID)
	savestate.VisitIntEnum(v, &p.DepthTest)
	v.Bool(&p.UpdateDepthForTranslucent)
	v.I32(&p.TopY)
	v.I32(&p.BotY)
}

func (cmd *Command) Visit(v savestate.Visitor) {
	savestate.VisitIntEnum(v, &cmd.Op)
	n := len(cmd.Params)
	v.Len(&n)
	if !v.Saving() {
		cmd.Params = make([]int32, n)
	}
	for i := range cmd.Params {
		v.I32(&cmd.Params[i])
	}
}

// Visit walks the geometry engine's matrix stacks, in-flight command
// FIFO, and the resulting polygon buffer. A save taken mid-FIFO drain
// must resume with the same queued commands and partially-accumulated
// polygon vertices.
func (e *Engine) Visit(v savestate.Visitor) {
	savestate.VisitIntEnum(v, &e.mode)
	e.projection.visit(v)
	for i := range e.position {
		e.position[i].visit(v)
	}
	savestate.VisitInt(v, &e.positionSP)
	for i := range e.vector {
		e.vector[i].visit(v)
	}
	e.texture.visit(v)
	e.curColor.Visit(v)
	v.F64(&e.curU)
	v.F64(&e.curV)
	e.curPoly.visit(v)
	savestate.VisitIntEnum(v, &e.prim)

	nv := len(e.verts)
	v.Len(&nv)
	if !v.Saving() {
		e.verts = make([]clipVert, nv)
	}
	for i := range e.verts {
		e.verts[i].visit(v)
	}

	np := len(e.PolyRAM)
	v.Len(&np)
	if !v.Saving() {
		e.PolyRAM = make([]Polygon, np)
	}
	for i := range e.PolyRAM {
		e.PolyRAM[i].Visit(v)
	}

	savestate.VisitInt(v, &e.vertexBudget)
	v.Bool(&e.WBuffering)
	e.ClearColor.Visit(v)
	v.I32(&e.ClearDepth)
	v.U8(&e.ClearPolyID)
	v.Bool(&e.swapped)

	nc := len(e.fifo)
	v.Len(&nc)
	if !v.Saving() {
		e.fifo = make([]Command, nc)
	}
	for i := range e.fifo {
		e.fifo[i].Visit(v)
	}

	e.visitGX(v)
}

// Visit walks the rasterizer's per-scanline-persistent buffers. VRAM,
// TexPalette, and ToonColors are collaborator slices bound once by the
// console's wiring, not captured by a save.
func (r *Renderer) Visit(v savestate.Visitor) {
	for i := range r.Color {
		r.Color[i].Visit(v)
	}
	for i := range r.Depth {
		v.I32(&r.Depth[i])
	}
	for i := range r.Attr {
		r.Attr[i].Visit(v)
	}
	v.U8(&r.AlphaTestRef)
	r.EdgeColor.Visit(v)
	v.Bool(&r.EdgeMarking)
	v.Bool(&r.FogEnabled)
	v.Bool(&r.AntiAlias)
	v.Bool(&r.WBuffering)
	v.Bool(&r.AlphaBlending)
	r.ClearColor.Visit(v)
	v.I32(&r.ClearDepth)
	v.U8(&r.ClearPolyID)
}
