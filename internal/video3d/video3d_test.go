package video3d

import "testing"

func flatQuad(z, w int32) []Vertex {
	c := Color6{R: 63, G: 63, B: 63, A: 31}
	return []Vertex{
		{X: 0, Y: 0, Z: z, W: w, Color: c},
		{X: 10, Y: 0, Z: z, W: w, Color: c},
		{X: 10, Y: 1, Z: z, W: w, Color: c},
		{X: 0, Y: 1, Z: z, W: w, Color: c},
	}
}

func newTestRenderer() *Renderer {
	r := &Renderer{ClearDepth: 200, AlphaTestRef: 0}
	r.VRAM = make([]byte, 256)
	r.TexPalette = make([]byte, 256)
	r.ClearLine()
	return r
}

// TestAlphaTestBlocksZeroAlphaButPassesOne is spec.md §8 scenario 6.
func TestAlphaTestBlocksZeroAlphaButPassesOne(t *testing.T) {
	poly := Polygon{
		Vertices:      flatQuad(100, 100),
		FrontFacing:   true,
		Texture:       TexA5I3,
		TexWidthShift: 0,
		TexHeightShift: 0,
		TopY: 0, BotY: 1,
	}
	r := newTestRenderer()
	r.VRAM[0] = 0x00 // alpha=0, idx=0
	r.RenderLine(0, []Polygon{poly})
	if r.Color[5] != r.ClearColor {
		t.Fatalf("alpha=0 texel must not be written, got %+v", r.Color[5])
	}

	r = newTestRenderer()
	r.VRAM[0] = 0x08 // alpha=1, idx=0
	r.RenderLine(0, []Polygon{poly})
	if r.Color[5] == r.ClearColor {
		t.Fatalf("alpha=1 texel must be written")
	}
	if r.Color[5].A != 1 {
		t.Fatalf("want final alpha 1 (modulated against a fully-opaque vertex), got %d", r.Color[5].A)
	}
}

// TestDepthTestInvariantUnderWTranslation is spec.md §8 invariant 6:
// translating every vertex w by the same constant must not change any
// depth-test outcome, for both the "less" and w-buffering "equal" tests.
func TestDepthTestInvariantUnderWTranslation(t *testing.T) {
	pairs := [][2]int32{{100, 200}, {200, 100}, {150, 150}, {0, 50}, {1000, 1000}}
	offsets := []int32{0, 37, -50, 1000}

	for _, p := range pairs {
		for _, c := range offsets {
			want := depthTestLess(p[0], p[1])
			got := depthTestLess(p[0]+c, p[1]+c)
			if want != got {
				t.Fatalf("depthTestLess(%d,%d) changed under +%d translation", p[0], p[1], c)
			}
			wantEq := depthTestEqualW(p[0], p[1])
			gotEq := depthTestEqualW(p[0]+c, p[1]+c)
			if wantEq != gotEq {
				t.Fatalf("depthTestEqualW(%d,%d) changed under +%d translation", p[0], p[1], c)
			}
		}
	}
}

func TestClipToUnitCubeDropsFullyOutsidePolygon(t *testing.T) {
	verts := []clipVert{
		{x: 10, y: 10, z: 0, w: 1},
		{x: 11, y: 10, z: 0, w: 1},
		{x: 11, y: 11, z: 0, w: 1},
	}
	out := clipToUnitCube(verts)
	if len(out) != 0 {
		t.Fatalf("expected fully-outside triangle to clip away entirely, got %d verts", len(out))
	}
}

func TestClipToUnitCubeKeepsInsidePolygon(t *testing.T) {
	verts := []clipVert{
		{x: -0.5, y: -0.5, z: 0, w: 1},
		{x: 0.5, y: -0.5, z: 0, w: 1},
		{x: 0, y: 0.5, z: 0, w: 1},
	}
	out := clipToUnitCube(verts)
	if len(out) != 3 {
		t.Fatalf("expected fully-inside triangle to survive unclipped, got %d verts", len(out))
	}
}

func TestGeometryEngineEmitsTriangleOnThirdVertex(t *testing.T) {
	e := NewEngine()
	e.Submit(Command{Op: CmdBeginVtxs, Params: []int32{int32(primTriangles)}})
	e.Submit(Command{Op: CmdColor, Params: []int32{0x7FFF}})
	submitVtx := func(x, y, z int32) {
		e.Submit(Command{Op: CmdVtx16, Params: []int32{x, y, z}})
	}
	submitVtx(-2048, -2048, 0)
	submitVtx(2048, -2048, 0)
	submitVtx(0, 2048, 0)
	e.Submit(Command{Op: CmdSwapBuffers})
	e.Flush()

	if !e.FrameReady() {
		t.Fatalf("expected FrameReady after SwapBuffers")
	}
	if len(e.PolyRAM) != 1 {
		t.Fatalf("want 1 polygon, got %d", len(e.PolyRAM))
	}
}
