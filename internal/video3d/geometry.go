package video3d

// Mat4 is a 4x4 transform matrix. Geometry-stage math is carried in
// float64 rather than the real hardware's fixed-point registers: the
// spec's bit-exact surface (spec.md §8 invariant 6, scenario 6) lives in
// the rasterizer's depth/alpha test, not in matrix arithmetic, so float64
// keeps the clipping and transform code tractable without giving up any
// testable guarantee. Vertex *submission* still honors the 12-bit
// fixed-point input contract (see vtxFixedToFloat).
type Mat4 [4][4]float64

func identity() Mat4 {
	var m Mat4
	for i := 0; i < 4; i++ {
		m[i][i] = 1
	}
	return m
}

func (a Mat4) mul(b Mat4) Mat4 {
	var out Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var s float64
			for k := 0; k < 4; k++ {
				s += a[i][k] * b[k][j]
			}
			out[i][j] = s
		}
	}
	return out
}

func (m Mat4) apply(x, y, z, w float64) (float64, float64, float64, float64) {
	return m[0][0]*x + m[0][1]*y + m[0][2]*z + m[0][3]*w,
		m[1][0]*x + m[1][1]*y + m[1][2]*z + m[1][3]*w,
		m[2][0]*x + m[2][1]*y + m[2][2]*z + m[2][3]*w,
		m[3][0]*x + m[3][1]*y + m[3][2]*z + m[3][3]*w
}

// MatrixMode selects which of the four named stacks subsequent matrix
// commands target (spec.md §4.6 "matrix ops ... from four named
// stacks").
type MatrixMode int

const (
	MatrixProjection MatrixMode = iota
	MatrixPosition
	MatrixVector // paired with Position: pushed/popped together, used for normals
	MatrixTexture
)

const (
	maxPositionStack = 31
	maxPolygons      = 2048
	maxVertices      = 6144
)

// clipVert is a homogeneous-clip-space vertex carried through
// transform and clipping, interpolated in float64 (see Mat4's doc
// comment).
type clipVert struct {
	x, y, z, w float64
	color      Color6
	u, v       float64
}

// primKind selects how RunFIFO's accumulated vertices group into
// polygons (spec.md §4.6 "vertex submission").
type primKind int

const (
	primTriangles primKind = iota
	primQuads
	primTriStrip
	primQuadStrip
)

// Engine owns the command FIFO, matrix stacks, and the resulting
// polygon buffer for one frame. Grounded on render.rs's RenderingData
// (poly_ram/vert_ram/control registers) generalized from a pre-populated
// data snapshot into the actual geometry stage that produces it, since
// render.rs only rasterizes — nothing in the pack implements the GX
// command FIFO itself.
type Engine struct {
	mode MatrixMode

	projection Mat4
	position   [maxPositionStack + 1]Mat4
	positionSP int
	vector     [maxPositionStack + 1]Mat4
	texture    Mat4

	curColor Color6
	curU, curV float64

	curPoly polyTemplate

	prim  primKind
	verts []clipVert

	PolyRAM      []Polygon
	vertexBudget int

	WBuffering bool
	ClearColor Color6
	ClearDepth int32
	ClearPolyID uint8

	swapped bool

	fifo []Command

	// gx* reassemble Command values from the byte-wide GXFIFO MMIO port
	// (see io.go); they hold a command mid-assembly across WriteIO8 calls.
	gxHaveOp     bool
	gxPendingOp  CmdOp
	gxWantParams int
	gxParams     []int32
	gxWordBuf    uint32
	gxWordIdx    int
}

type polyTemplate struct {
	mode                     PolyMode
	alpha                    uint8
	id                       uint8
	depthEqual               bool
	updateDepthForTranslucent bool
	frontFacingOnly          bool

	tex TexFormat
	texVRAMOff   uint32
	texPalOff    uint32
	texWShift    uint8
	texHShift    uint8
	repeatS, repeatT bool
	flipS, flipT     bool
	color0Transparent bool
}

// Command is one queued geometry-FIFO entry (spec.md §4.6 "A command
// FIFO accepts fixed-function commands").
type Command struct {
	Op     CmdOp
	Params []int32
}

type CmdOp int

const (
	CmdMtxMode CmdOp = iota
	CmdMtxPush
	CmdMtxPop
	CmdMtxIdentity
	CmdMtxLoad4x4
	CmdMtxMult4x4
	CmdColor
	CmdTexCoord
	CmdVtx16 // three 12-bit fixed components
	CmdPolygonAttr
	CmdTexImageParam
	CmdTexPaletteBase
	CmdBeginVtxs
	CmdSwapBuffers
)

// NewEngine returns an Engine with identity matrices on every stack.
func NewEngine() *Engine {
	e := &Engine{projection: identity(), texture: identity()}
	e.position[0] = identity()
	e.vector[0] = identity()
	e.PolyRAM = make([]Polygon, 0, maxPolygons)
	return e
}

// Submit enqueues a command (spec.md §4.6 geometry stage); Flush drains
// it immediately since this engine models the FIFO as a pure command
// log rather than a timed hardware queue (timing is the scheduler's
// concern, not the geometry stage's).
func (e *Engine) Submit(c Command) {
	e.fifo = append(e.fifo, c)
}

// Flush processes every queued command, building PolyRAM. A
// CmdSwapBuffers command marks the frame ready and stops processing
// (spec.md §4.6 "Swap-buffers marks the frame ready for rasterization").
func (e *Engine) Flush() {
	for len(e.fifo) > 0 {
		c := e.fifo[0]
		e.fifo = e.fifo[1:]
		if e.exec(c) {
			return
		}
	}
}

func (e *Engine) curMVP() Mat4 {
	return e.projection.mul(e.position[e.positionSP])
}

func (e *Engine) exec(c Command) (stop bool) {
	switch c.Op {
	case CmdMtxMode:
		e.mode = MatrixMode(c.Params[0])
	case CmdMtxPush:
		e.push()
	case CmdMtxPop:
		e.pop()
	case CmdMtxIdentity:
		e.setCurrent(identity())
	case CmdMtxLoad4x4:
		e.setCurrent(mat4FromFixed(c.Params))
	case CmdMtxMult4x4:
		e.setCurrent(e.current().mul(mat4FromFixed(c.Params)))
	case CmdColor:
		e.curColor = colorFromRGB555Bits(c.Params[0])
	case CmdTexCoord:
		e.curU = float64(c.Params[0]) / 16
		e.curV = float64(c.Params[1]) / 16
	case CmdVtx16:
		e.submitVertex(c.Params)
	case CmdPolygonAttr:
		e.applyPolygonAttr(c.Params[0])
	case CmdTexImageParam:
		e.applyTexParam(c.Params[0])
	case CmdTexPaletteBase:
		e.curPoly.texPalOff = uint32(c.Params[0])
	case CmdBeginVtxs:
		e.prim = primKind(c.Params[0])
		e.verts = e.verts[:0]
	case CmdSwapBuffers:
		e.swapped = true
		return true
	}
	return false
}

func (e *Engine) current() Mat4 {
	switch e.mode {
	case MatrixProjection:
		return e.projection
	case MatrixTexture:
		return e.texture
	case MatrixVector:
		return e.vector[e.positionSP]
	default:
		return e.position[e.positionSP]
	}
}

func (e *Engine) setCurrent(m Mat4) {
	switch e.mode {
	case MatrixProjection:
		e.projection = m
	case MatrixTexture:
		e.texture = m
	case MatrixVector:
		e.vector[e.positionSP] = m
	default:
		e.position[e.positionSP] = m
	}
}

func (e *Engine) push() {
	if e.mode == MatrixProjection {
		return // single-entry stack
	}
	if e.positionSP < maxPositionStack {
		e.positionSP++
		e.position[e.positionSP] = e.position[e.positionSP-1]
		e.vector[e.positionSP] = e.vector[e.positionSP-1]
	}
}

func (e *Engine) pop() {
	if e.mode == MatrixProjection {
		return
	}
	if e.positionSP > 0 {
		e.positionSP--
	}
}

// vtxFixedToFloat converts a 12-bit fixed-point component (spec.md §4.6
// "12-bit fixed-point components") to float64 for the transform/clip
// math.
func vtxFixedToFloat(v int32) float64 {
	return float64(v) / 4096.0
}

func (e *Engine) submitVertex(p []int32) {
	x, y, z := vtxFixedToFloat(p[0]), vtxFixedToFloat(p[1]), vtxFixedToFloat(p[2])
	mvp := e.curMVP()
	cx, cy, cz, cw := mvp.apply(x, y, z, 1)
	e.verts = append(e.verts, clipVert{x: cx, y: cy, z: cz, w: cw, color: e.curColor, u: e.curU, v: e.curV})

	needed := 0
	switch e.prim {
	case primTriangles:
		needed = 3
	case primQuads:
		needed = 4
	case primTriStrip:
		if len(e.verts) >= 3 {
			e.emitPolygon(e.verts[len(e.verts)-3:])
		}
		return
	case primQuadStrip:
		if len(e.verts) >= 4 && len(e.verts)%2 == 0 {
			v := e.verts[len(e.verts)-4:]
			e.emitPolygon([]clipVert{v[0], v[1], v[3], v[2]})
		}
		return
	}
	if needed > 0 && len(e.verts)%needed == 0 {
		e.emitPolygon(e.verts[len(e.verts)-needed:])
	}
}

func (e *Engine) emitPolygon(verts []clipVert) {
	if len(e.PolyRAM) >= maxPolygons || e.vertexBudget+len(verts) > maxVertices {
		return
	}
	clipped := clipToUnitCube(verts)
	if len(clipped) < 3 {
		return
	}
	e.vertexBudget += len(clipped)

	frontFacing := signedArea(clipped) > 0
	if e.curPoly.frontFacingOnly && !frontFacing {
		return
	}

	poly := Polygon{
		FrontFacing:      frontFacing,
		Mode:             e.curPoly.mode,
		Texture:          e.curPoly.tex,
		TexVRAMOffset:    e.curPoly.texVRAMOff,
		TexPaletteOff:    e.curPoly.texPalOff,
		TexWidthShift:    e.curPoly.texWShift,
		TexHeightShift:   e.curPoly.texHShift,
		RepeatS:          e.curPoly.repeatS,
		RepeatT:          e.curPoly.repeatT,
		FlipS:            e.curPoly.flipS,
		FlipT:            e.curPoly.flipT,
		Color0Transparent: e.curPoly.color0Transparent,
		Alpha:            e.curPoly.alpha,
		ID:               e.curPoly.id,
		UpdateDepthForTranslucent: e.curPoly.updateDepthForTranslucent,
	}
	if e.curPoly.depthEqual {
		poly.DepthTest = DepthEqual
	} else {
		poly.DepthTest = DepthLess
	}

	poly.Vertices = make([]Vertex, len(clipped))
	minY, maxY := int32(1<<30), int32(-(1 << 30))
	for i, cv := range clipped {
		sx, sy, depth, w := screenMap(cv, e.WBuffering)
		poly.Vertices[i] = Vertex{X: sx, Y: sy, Z: depth, W: w, Color: cv.color, U: int16(cv.u * 16), V: int16(cv.v * 16)}
		if sy < minY {
			minY = sy
		}
		if sy > maxY {
			maxY = sy
		}
	}
	poly.TopY, poly.BotY = minY, maxY
	e.PolyRAM = append(e.PolyRAM, poly)
}

// screenMap performs the perspective divide and viewport transform,
// producing the integer screen-space coordinates and depth value the
// rasterizer consumes (spec.md §4.6 "screen mapping").
func screenMap(v clipVert, wBuffering bool) (x, y, depth, w int32) {
	invW := 1.0
	if v.w != 0 {
		invW = 1.0 / v.w
	}
	ndcX := v.x * invW
	ndcY := v.y * invW
	ndcZ := v.z * invW

	x = int32((ndcX*0.5 + 0.5) * 256)
	y = int32((1 - (ndcY*0.5 + 0.5)) * 192)
	w = int32(v.w * 4096)

	if wBuffering {
		depth = w
	} else {
		z16 := int32((ndcZ*0.5 + 0.5) * 0xFFFF)
		depth = expandDepthZ(z16)
	}
	return
}

// expandDepthZ matches render.rs's expand_depth: a 16-bit Z value
// becomes a 24-bit depth-buffer value with a sign-extended low bit
// (spec.md §4.6 "Z-buffering mode stores depth expanded as
// (z << 9) | bit-extension").
func expandDepthZ(z16 int32) int32 {
	d := z16
	ext := int32(int8(int32(uint32(d+1))<<24>>31)) & 0x1FF
	return d<<9 | (ext & 0x1FF)
}

func signedArea(verts []clipVert) float64 {
	var area float64
	n := len(verts)
	for i := 0; i < n; i++ {
		a, b := verts[i], verts[(i+1)%n]
		area += a.x*b.y - b.x*a.y
	}
	return area
}

func mat4FromFixed(p []int32) Mat4 {
	var m Mat4
	for i := 0; i < 16 && i < len(p); i++ {
		m[i/4][i%4] = vtxFixedToFloat(p[i])
	}
	return m
}

func colorFromRGB555Bits(v int32) Color6 {
	return decodeRGB555(uint16(v), 31)
}

func (e *Engine) applyPolygonAttr(bits int32) {
	e.curPoly.mode = PolyMode((bits >> 4) & 3)
	e.curPoly.alpha = uint8((bits >> 16) & 0x1F)
	e.curPoly.id = uint8((bits >> 24) & 0x3F)
	e.curPoly.depthEqual = bits&(1<<14) != 0
	e.curPoly.updateDepthForTranslucent = bits&(1<<11) != 0
	mode2sided := (bits>>6)&3 == 3
	e.curPoly.frontFacingOnly = !mode2sided && (bits>>6)&3 == 1
}

func (e *Engine) applyTexParam(bits int32) {
	e.curPoly.texVRAMOff = uint32(bits & 0xFFFF)
	e.curPoly.texWShift = uint8((bits >> 20) & 7)
	e.curPoly.texHShift = uint8((bits >> 23) & 7)
	e.curPoly.tex = TexFormat((bits >> 26) & 7)
	e.curPoly.repeatS = bits&(1<<16) != 0
	e.curPoly.repeatT = bits&(1<<17) != 0
	e.curPoly.flipS = bits&(1<<18) != 0
	e.curPoly.flipT = bits&(1<<19) != 0
	e.curPoly.color0Transparent = bits&(1<<29) != 0
}

// StartFrame resets the polygon buffer for a new frame, called by the
// console after the previous frame's SwapBuffers has been rasterized.
func (e *Engine) StartFrame() {
	e.PolyRAM = e.PolyRAM[:0]
	e.vertexBudget = 0
	e.swapped = false
}

// FrameReady reports whether a CmdSwapBuffers has been processed since
// the last StartFrame.
func (e *Engine) FrameReady() bool { return e.swapped }
