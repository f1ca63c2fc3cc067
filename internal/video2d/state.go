package video2d

// BGLayer holds one background layer's configuration, covering every
// field any of the seven modes (spec.md §4.5) needs; modes that don't use
// a field simply leave it unread. Grounded on the teacher's
// BackgroundLayer (internal/ppu/ppu.go) generalized from a single
// scroll-only layer to the full text/affine/extended set.
type BGLayer struct {
	Enabled  bool
	Mode     BGMode
	Priority uint8 // 0..3, lower drawn on top

	ScrollX, ScrollY int16 // text modes

	CharBase uint32 // tile graphics base, relative to the engine's VRAM slice
	MapBase  uint32 // tile/screen map base

	SizeIndex uint8 // 0..3, meaning depends on Mode (see sizeFor)

	Palette256      bool // Text256 vs Text16 palette width
	ExtPaletteSlot  uint8
	UseExtPalette   bool

	// Affine/extended-affine transform, applied per scanline (spec.md
	// §4.5 "2×2 matrix transform per scanline"). Values are 8.8 fixed
	// point for PA/PB/PC/PD and 20.8 for the reference point, matching
	// the real hardware's rotation/scaling register widths.
	PA, PB, PC, PD int16
	RefX, RefY     int32
	OverflowWrap   bool // display-area-overflow: wrap instead of transparent
}

// sizeFor returns a layer's logical pixel extent for its current mode and
// SizeIndex (spec.md §4.5's per-mode size tables).
func (l *BGLayer) sizeFor() (w, h int32) {
	switch l.Mode {
	case ModeText16, ModeText256:
		tables := [4][2]int32{{256, 256}, {512, 256}, {256, 512}, {512, 512}}
		t := tables[l.SizeIndex&3]
		return t[0], t[1]
	case ModeAffine, ModeExtendedMap:
		s := int32(128) << (l.SizeIndex & 3)
		return s, s
	case ModeExtendedBitmap256:
		tables := [4][2]int32{{128, 128}, {256, 256}, {512, 256}, {512, 512}}
		t := tables[l.SizeIndex&3]
		return t[0], t[1]
	case ModeExtendedBitmapDirect:
		tables := [2][2]int32{{128, 128}, {256, 256}}
		t := tables[l.SizeIndex&1]
		return t[0], t[1]
	case ModeLargeBitmap:
		return 1024, 512
	default:
		return 256, 256
	}
}

// Object is one of the 128 sprite entries (spec.md §4.5 "Objects").
type Object struct {
	X, Y           int16
	Priority       uint8
	Mode           ObjMode
	Palette256     bool
	PaletteIndex   uint8
	TileIndex      uint16
	Width, Height  uint8
	HFlip, VFlip   bool
	Affine         bool
	AffineDouble   bool // doubles the bounding box for rotated sprites
	AffineGroup    uint8 // index into the 32 affine parameter sets (4 per group)
	Mosaic         bool
}

// Window is one of the two rectangular window regions (spec.md §4.5).
type Window struct {
	Enabled               bool
	Left, Right, Top, Bottom uint8
	LayerMask             uint8 // 6-bit: which layers + effects this region enables
}

// Effects configures the color-effects unit (spec.md §4.5 step 5).
type Effects struct {
	Mode EffectMode

	TargetA uint8 // layer mask eligible as the "upper" blend surface
	TargetB uint8 // layer mask eligible as the "lower" blend surface (alpha blend only)

	EVA, EVB uint8 // 0..16, alpha-blend coefficients
	EVY      uint8 // 0..16, brightness coefficient

	WindowEnabled [3]bool // window0, window1, object-window enable bits; stored and saved, windowMaskAt reads Window0/1.Enabled
	OutsideMask   uint8   // saved only; windowMaskAt reads Engine.OutsideMask
}

// CaptureSource selects what engine A's capture unit samples.
type CaptureSource int

const (
	CaptureBGOBJ CaptureSource = iota
	Capture3D
	CaptureBlend
)

// Capture configures engine A's per-scanline capture-to-VRAM unit
// (spec.md §4.5 "Capture (engine A only)").
type Capture struct {
	Enabled     bool
	Source      CaptureSource
	EVA, EVB    uint8 // blend weights when Source == CaptureBlend
	DestBank    uint32
	DestOffset  uint32
	LineCount   uint16
	linesLeft   uint16
}

// Engine is one of the two compositing engines (A or B). Grounded on the
// teacher's PPU (internal/ppu/ppu.go): VRAM/CGRAM/OAM byte stores plus a
// register file, generalized from its single fixed mode to four
// independently moded layers and expanded from 1 to 2 parallel engines.
type Engine struct {
	IsEngineA bool

	BG [4]BGLayer
	Obj [128]Object
	AffineParams [32]struct{ PA, PB, PC, PD int16 }

	Window0, Window1 Window
	ObjWindowMask    uint8
	OutsideMask      uint8

	FX Effects

	Backdrop uint16 // RGB555 palette index 0 equivalent: engine's own backdrop color register

	Cap Capture // zero value for engine B, never enabled
	captureWriter VRAMWriter

	// Per-scanline VRAM/palette/OAM snapshots, refreshed at the start of
	// each scanline (spec.md §4.5 scanline algorithm step 1) so the
	// renderer never tears mid-scanline against a concurrent bus write.
	vramSnap    []byte
	paletteSnap []byte
	oamSnap     []byte

	MasterBrightUp   bool
	MasterBrightDown bool
	MasterBrightY    uint8 // 0..16
}

// NewEngine returns an Engine with every layer disabled and the backdrop
// black, matching the teacher's NewPPU zero-value-plus-explicit-init
// style.
func NewEngine(isEngineA bool) *Engine {
	e := &Engine{IsEngineA: isEngineA}
	for i := range e.Obj {
		e.Obj[i].Mode = ObjDisabled
	}
	return e
}

// Latch copies the current VRAM/palette/OAM bytes visible to this engine
// into its per-scanline snapshot (spec.md §4.5 step 1). Callers (the
// console's frame driver) pass the engine-appropriate VRAM bank slice and
// the full palette/OAM regions; engine A and B each see their own half of
// palette/OAM per spec.md's memory map.
func (e *Engine) Latch(vram, palette, oam []byte) {
	e.vramSnap = vram
	e.paletteSnap = palette
	e.oamSnap = oam
	e.ParseOAM()
}

func (e *Engine) vramByte(off uint32) uint8 {
	if int(off) >= len(e.vramSnap) {
		return 0
	}
	return e.vramSnap[off]
}

func (e *Engine) vramHalf(off uint32) uint16 {
	return uint16(e.vramByte(off)) | uint16(e.vramByte(off+1))<<8
}

func (e *Engine) paletteColor(index uint32) Color {
	off := index * 2
	if int(off+1) >= len(e.paletteSnap) {
		return Color{}
	}
	v := uint16(e.paletteSnap[off]) | uint16(e.paletteSnap[off+1])<<8
	return colorFromRGB555(v)
}

func (e *Engine) backdropColor() Color {
	return colorFromRGB555(e.Backdrop)
}
