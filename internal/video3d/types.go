// Package video3d implements the fixed-function 3D pipeline (spec.md
// §4.6): a geometry command FIFO feeding matrix stacks and a polygon
// buffer, and a per-scanline edge-walking rasterizer with seven texture
// formats, depth/alpha test, fog, edge marking and anti-aliasing.
//
// Grounded directly on original_source/soft-3d/src/render.rs, the
// reference software rasterizer this module is translated from (the
// teacher's own PPU is 2D-only and has no 3D counterpart to generalize).
// Expressed in the teacher's idiom rather than ported line for line: Go
// structs/methods and explicit slices in place of Rust's bitfields and
// const-generic monomorphized pixel-shader functions.
package video3d

// Color6 is an RGBA6555-ish working color: 6-bit R/G/B (0..63) and 5-bit
// alpha (0..31), matching the rasterizer's internal precision in
// render.rs's InterpColor.
type Color6 struct {
	R, G, B, A uint8
}

func (c Color6) clampAdd(o Color6) Color6 {
	return Color6{
		R: clamp6(int(c.R) + int(o.R)),
		G: clamp6(int(c.G) + int(o.G)),
		B: clamp6(int(c.B) + int(o.B)),
		A: c.A,
	}
}

func clamp6(v int) uint8 {
	if v > 63 {
		return 63
	}
	if v < 0 {
		return 0
	}
	return uint8(v)
}

func clamp5(v int) uint8 {
	if v > 31 {
		return 31
	}
	if v < 0 {
		return 0
	}
	return uint8(v)
}

// rgb5to6 doubles a 5-bit component to 6-bit, the same plain-doubling
// expansion video2d uses (spec.md §8 scenario 5's worked example; see
// video2d/types.go's expand5to6 for the decision record).
func rgb5to6(x uint8) uint8 { return (x & 0x1F) << 1 }

func decodeRGB555(v uint16, alpha uint8) Color6 {
	return Color6{
		R: rgb5to6(uint8(v & 0x1F)),
		G: rgb5to6(uint8((v >> 5) & 0x1F)),
		B: rgb5to6(uint8((v >> 10) & 0x1F)),
		A: alpha,
	}
}

// TexFormat enumerates the seven texel formats of spec.md §4.6.
type TexFormat int

const (
	TexNone TexFormat = iota
	TexA3I5
	TexPal2
	TexPal4
	TexPal8
	TexCompressed4x4
	TexA5I3
	TexDirectRGB5
)

// PolyMode selects the vertex/texture blend mode.
type PolyMode int

const (
	ModeModulate PolyMode = iota
	ModeDecal
	ModeToonHighlight
	ModeShadow // not modeled; treated as modulate with no texture
)

// DepthMode selects w-buffering or z-buffering, and the equal-depth test
// tolerance that comes with each (spec.md §4.6 "Depth semantics").
type DepthMode int

const (
	DepthLess DepthMode = iota
	DepthEqual
)

// Vertex is the screen-space vertex a polygon carries into the
// rasterizer. Clipping runs on float64 values in geometry.go; X and Y are
// already integer screen coordinates by the time a polygon reaches the
// rasterizer.
type Vertex struct {
	X, Y   int32 // screen-space, after the viewport mapping
	Z, W   int32 // depth: Z is the z-buffer value, W the perspective divisor
	Color  Color6
	U, V   int16 // 12.4 fixed-point texture coordinates
}

// Polygon is one entry of the up-to-2048-polygon frame buffer (spec.md
// §4.6 "Geometry stage").
type Polygon struct {
	Vertices      []Vertex // in winding order, 3..10 vertices
	FrontFacing   bool
	Mode          PolyMode
	Texture       TexFormat
	TexVRAMOffset uint32
	TexPaletteOff uint32
	TexWidthShift uint8 // width = 8 << shift
	TexHeightShift uint8
	RepeatS, RepeatT bool
	FlipS, FlipT     bool
	Color0Transparent bool

	Alpha        uint8 // 0 is drawn fully opaque (as 31); no wireframe outline is drawn
	ID           uint8
	DepthTest    DepthMode
	UpdateDepthForTranslucent bool

	TopY, BotY int32
}
