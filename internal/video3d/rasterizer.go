package video3d

// PixelAttrs is the per-pixel attribute plane (spec.md §4.6 "Maintain a
// per-pixel attribute plane recording edge flags, translucency, fog
// enable, and two polygon-identifier fields"), grounded on render.rs's
// bitfield of the same purpose, expressed as plain fields.
type PixelAttrs struct {
	EdgeMask     uint8 // bit0 top, bit1 bottom, bit2 right, bit3 left
	Translucent  bool
	BackFacing   bool
	FogEnabled   bool
	TranslucentID uint8
	OpaqueID      uint8
}

// Renderer rasterizes one frame's PolyRAM into a 256-wide scanline
// buffer at a time (spec.md §4.6 "Rasterization (per scanline)").
// Grounded directly on render.rs's Renderer: color/depth/attribute
// buffers persisting across scanlines within a frame, polygons tested
// by Y range, two-edge-per-scanline spans, depth test dispatch by mode.
type Renderer struct {
	Color [256]Color6
	Depth [256]int32
	Attr  [256]PixelAttrs

	VRAM       []byte
	TexPalette []byte
	ToonColors []Color6

	AlphaTestRef  uint8
	EdgeColor     Color6
	EdgeMarking   bool
	FogEnabled    bool
	AntiAlias     bool
	WBuffering    bool
	AlphaBlending bool

	ClearColor  Color6
	ClearDepth  int32
	ClearPolyID uint8
}

func depthTestLess(a, b int32) bool    { return a < b }
func depthTestEqualW(a, b int32) bool  { return abs32(a-b) <= 0xFF }
func depthTestEqualZ(a, b int32) bool  { return abs32(a-b) <= 0x200 }

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func (r *Renderer) depthTest(poly *Polygon, a, b int32) bool {
	if poly.DepthTest == DepthEqual {
		if r.WBuffering {
			return depthTestEqualW(a, b)
		}
		return depthTestEqualZ(a, b)
	}
	return depthTestLess(a, b)
}

// ClearLine resets the line buffers to the clear color/depth/polygon id
// (spec.md §4.6 rasterization setup), mirroring render.rs's render_line
// fill step when no rear-plane bitmap is configured.
func (r *Renderer) ClearLine() {
	for i := range r.Color {
		r.Color[i] = r.ClearColor
		r.Depth[i] = r.ClearDepth
		r.Attr[i] = PixelAttrs{OpaqueID: r.ClearPolyID, FogEnabled: r.FogEnabled}
	}
}

// edgeSample holds a polygon edge's attributes linearly interpolated at
// scanline y, as sampleEdge computes them for the edge from a to b.
type edgeSample struct {
	x     int32
	depth int32
	w     int32
	color Color6
	u, v  int16
}

func sampleEdge(a, b Vertex, y int32) edgeSample {
	if b.Y == a.Y {
		return edgeSample{x: a.X, depth: a.Z, w: a.W, color: a.Color, u: a.U, v: a.V}
	}
	t := float64(y-a.Y) / float64(b.Y-a.Y)
	lerp := func(x, y int32) int32 { return x + int32(float64(y-x)*t) }
	lerp8 := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*t) }
	return edgeSample{
		x:     lerp(a.X, b.X),
		depth: lerp(a.Z, b.Z),
		w:     lerp(a.W, b.W),
		color: Color6{R: lerp8(a.Color.R, b.Color.R), G: lerp8(a.Color.G, b.Color.G), B: lerp8(a.Color.B, b.Color.B), A: lerp8(a.Color.A, b.Color.A)},
		u:     int16(lerp(int32(a.U), int32(b.U))),
		v:     int16(lerp(int32(a.V), int32(b.V))),
	}
}

func lerpSample(l, rr edgeSample, x int32) edgeSample {
	if rr.x == l.x {
		return l
	}
	t := float64(x-l.x) / float64(rr.x-l.x)
	lerp := func(a, b int32) int32 { return a + int32(float64(b-a)*t) }
	lerp8 := func(a, b uint8) uint8 { return uint8(float64(a) + (float64(b)-float64(a))*t) }
	return edgeSample{
		depth: lerp(l.depth, rr.depth),
		w:     lerp(l.w, rr.w),
		color: Color6{R: lerp8(l.color.R, rr.color.R), G: lerp8(l.color.G, rr.color.G), B: lerp8(l.color.B, rr.color.B), A: lerp8(l.color.A, rr.color.A)},
		u:     int16(lerp(int32(l.u), int32(rr.u))),
		v:     int16(lerp(int32(l.v), int32(rr.v))),
	}
}

// RenderLine rasterizes every polygon in polys whose Y range contains y
// into the renderer's current buffers (spec.md §4.6 steps 1-4).
func (r *Renderer) RenderLine(y int32, polys []Polygon) {
	for pi := range polys {
		poly := &polys[pi]
		if y < poly.TopY || y > poly.BotY || len(poly.Vertices) < 3 {
			continue
		}

		left, right, ok := polyXSpan(poly, y)
		if !ok {
			continue
		}
		if right.x < left.x {
			left, right = right, left
		}

		topEdge := y == poly.TopY
		bottomEdge := y == poly.BotY

		for x := left.x; x <= right.x; x++ {
			if x < 0 || x >= 256 {
				continue
			}
			s := lerpSample(left, right, x)
			if !r.depthTest(poly, s.depth, r.Depth[x]) {
				continue
			}

			vertColor := s.color
			if poly.Alpha == 0 {
				vertColor.A = 31
			} else {
				vertColor.A = poly.Alpha
			}

			var final Color6
			if poly.Texture == TexNone {
				final = vertColor
			} else {
				tex := fetchTexel(poly, r.VRAM, r.TexPalette, s.u, s.v)
				final = blendVertexAndTexture(poly, vertColor, tex, r.ToonColors)
			}

			if final.A <= r.AlphaTestRef {
				continue // spec.md §8 scenario 6: alpha <= ref must not write
			}

			leftEdge := x == left.x
			rightEdge := x == right.x
			edgeMask := edgeBits(topEdge, bottomEdge, leftEdge, rightEdge)

			if final.A == 31 {
				r.Color[x] = final
				r.Depth[x] = s.depth
				r.Attr[x] = PixelAttrs{
					EdgeMask:    edgeMask,
					BackFacing:  !poly.FrontFacing,
					FogEnabled:  r.FogEnabled,
					OpaqueID:    poly.ID,
				}
			} else {
				prev := r.Attr[x]
				if prev.TranslucentID == poly.ID|0x40 {
					continue // same translucent polygon already covers this pixel
				}
				out := final
				if r.AlphaBlending {
					prevColor := r.Color[x]
					if prevColor.A != 0 {
						a := int(final.A)
						out = Color6{
							R: clamp6((int(final.R)*(a+1) + int(prevColor.R)*(31-a)) >> 5),
							G: clamp6((int(final.G)*(a+1) + int(prevColor.G)*(31-a)) >> 5),
							B: clamp6((int(final.B)*(a+1) + int(prevColor.B)*(31-a)) >> 5),
							A: maxU8(final.A, prevColor.A),
						}
					}
				}
				r.Color[x] = out
				if poly.UpdateDepthForTranslucent {
					r.Depth[x] = s.depth
				}
				r.Attr[x] = PixelAttrs{
					EdgeMask:      edgeMask,
					Translucent:   true,
					BackFacing:    !poly.FrontFacing,
					FogEnabled:    r.FogEnabled,
					TranslucentID: poly.ID | 0x40,
				}
			}
		}
	}

	if r.EdgeMarking {
		r.markEdges()
	}
}

func maxU8(a, b uint8) uint8 {
	if a > b {
		return a
	}
	return b
}

func edgeBits(top, bottom, left, right bool) uint8 {
	var m uint8
	if top {
		m |= 1
	}
	if bottom {
		m |= 2
	}
	if right {
		m |= 4
	}
	if left {
		m |= 8
	}
	return m
}

// polyXSpan finds the polygon's left and right edge samples at scanline
// y by scanning every edge for a Y-crossing (spec.md §4.6 step 2's
// "advance the corresponding edge" generalized to a direct per-scanline
// search, valid for the convex polygons this pipeline's clipper always
// produces).
func polyXSpan(poly *Polygon, y int32) (left, right edgeSample, ok bool) {
	n := len(poly.Vertices)
	var samples []edgeSample
	for i := 0; i < n; i++ {
		a := poly.Vertices[i]
		b := poly.Vertices[(i+1)%n]
		lo, hi := a, b
		if lo.Y > hi.Y {
			lo, hi = hi, lo
		}
		if y < lo.Y || y > hi.Y || lo.Y == hi.Y {
			continue
		}
		samples = append(samples, sampleEdge(a, b, y))
	}
	if len(samples) == 0 {
		return edgeSample{}, edgeSample{}, false
	}
	left, right = samples[0], samples[0]
	for _, s := range samples[1:] {
		if s.x < left.x {
			left = s
		}
		if s.x > right.x {
			right = s
		}
	}
	return left, right, true
}

// markEdges overlays the edge color on pixels whose attribute plane
// marks them as a polygon boundary (spec.md §4.6 "Edge marking (detect
// attribute-plane boundaries, overlay edge color)").
func (r *Renderer) markEdges() {
	for x := range r.Attr {
		if r.Attr[x].EdgeMask != 0 {
			r.Color[x] = r.EdgeColor
		}
	}
}

// ApplyFog blends fog color into every fog-enabled pixel whose depth
// exceeds fogTable's reach, using table as the depth-indexed density
// lookup (spec.md §4.6 "fog (table lookup by depth)").
func (r *Renderer) ApplyFog(fogColor Color6, table []uint8) {
	if len(table) == 0 {
		return
	}
	for x := range r.Color {
		if !r.Attr[x].FogEnabled {
			continue
		}
		idx := int(r.Depth[x] >> 9)
		if idx >= len(table) {
			idx = len(table) - 1
		}
		density := table[idx]
		r.Color[x] = Color6{
			R: clamp6((int(r.Color[x].R)*int(32-density) + int(fogColor.R)*int(density)) / 32),
			G: clamp6((int(r.Color[x].G)*int(32-density) + int(fogColor.G)*int(density)) / 32),
			B: clamp6((int(r.Color[x].B)*int(32-density) + int(fogColor.B)*int(density)) / 32),
			A: r.Color[x].A,
		}
	}
}
