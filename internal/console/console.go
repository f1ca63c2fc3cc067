// Package console owns every subsystem and drives the scheduler-paced
// frame loop spec.md §1 describes as the "root" concern, the same way
// the teacher's internal/emulator.Emulator owns CPU/Bus/PPU/APU/Input
// and exposes NewEmulator/Step/RunFrame. Construction wires I/O handlers
// into the shared bus, binds each peripheral bank to the IRQ controller
// that owns its source numbers, and leaves the frame loop to advance the
// scheduler and every subsystem in lock-step.
package console

import (
	"fmt"

	"nitro-core-dx/internal/audio"
	"nitro-core-dx/internal/bus"
	"nitro-core-dx/internal/cart"
	"nitro-core-dx/internal/cpu7"
	"nitro-core-dx/internal/cpu9"
	"nitro-core-dx/internal/debug"
	"nitro-core-dx/internal/dma"
	"nitro-core-dx/internal/firmware"
	"nitro-core-dx/internal/input"
	"nitro-core-dx/internal/irq"
	"nitro-core-dx/internal/rtc"
	"nitro-core-dx/internal/savestate"
	"nitro-core-dx/internal/scheduler"
	"nitro-core-dx/internal/timers"
	"nitro-core-dx/internal/video2d"
	"nitro-core-dx/internal/video3d"
)

// Approximate per-scanline/per-frame timing in application-CPU cycles.
// spec.md §8 pins the 2:1 CPU-clock ratio and the scheduler's event
// ordering exactly, but leaves the real dot/scanline clock unspecified;
// these constants are a documented simplification chosen to keep the
// mixer's "every 1024 cycles" tick and the scheduler's hblank/vblank
// events in a plausible ratio, not a bit-exact port of the real 33 MHz
// dot clock.
const (
	CyclesPerScanline  = 4260
	VisibleScanlines   = video2d.ScreenHeight
	TotalScanlines     = 263
	CyclesPerMixerTick = 1024
)

// IO region bases within the shared bus's 1 MiB I/O block. Each
// peripheral owns a small, non-overlapping window; the exact offsets
// are this implementation's own layout, not a claim of hardware-exact
// register addresses (spec.md §6 describes the register families, not
// their byte offsets).
const (
	ioIRQ9    = 0x0000
	ioIRQ7    = 0x0010
	ioTimers9 = 0x0020
	ioTimers7 = 0x0030
	ioDMA9    = 0x0040 // 4 channels * 12 bytes, needs 0x30
	ioDMA7    = 0x0070
	ioRTC     = 0x00A0
	ioCartSPI = 0x00A4
	ioInput   = 0x00A8
	ioGeom    = 0x00AC
	ioVideoA  = 0x1000
	ioVideoB  = 0x1100
	ioAudio   = 0x1200
)

// busAccessor adapts bus.Bus's (kind, addr) reads to the narrower
// audio.BusReader/BusWriter interfaces, which don't need to distinguish
// access kinds the way CPU/DMA traffic does.
type busAccessor struct {
	b    *bus.Bus
	kind bus.AccessKind
}

func (a busAccessor) Read32(addr uint32) uint32         { return a.b.Read32(a.kind, addr) }
func (a busAccessor) Write32(addr uint32, value uint32) { a.b.Write32(a.kind, addr, value) }

// Console owns every emulated subsystem.
type Console struct {
	Scheduler *scheduler.Scheduler
	Bus       *bus.Bus

	CPU9 *cpu9.CPU
	CPU7 *cpu7.CPU

	IRQ9 *irq.Controller
	IRQ7 *irq.Controller

	Timers9 *timers.Bank
	Timers7 *timers.Bank

	DMA9 *dma.Bank
	DMA7 *dma.Bank

	RTC     *rtc.Chip
	Cart    *cart.Cartridge
	spi     *cartSPI
	Firmware *firmware.Firmware
	Input   *input.System

	VideoA  *video2d.Engine
	VideoB  *video2d.Engine
	Geom    *video3d.Engine
	Raster  *video3d.Renderer

	Audio *audio.Mixer

	Log *debug.Logger

	scanline int
	mixAccum uint32

	FrameA [video2d.ScreenHeight][video2d.ScreenWidth]video2d.Color
	FrameB [video2d.ScreenHeight][video2d.ScreenWidth]video2d.Color

	AudioOut []int16 // interleaved stereo, appended to each RunFrame
}

// timerIRQSources and dmaIRQSources give each bank's four channels their
// IRQ source numbers, in index order.
var timerIRQSources = [4]irq.Source{irq.SourceTimer0, irq.SourceTimer1, irq.SourceTimer2, irq.SourceTimer3}
var dmaIRQSources = [4]irq.Source{irq.SourceDMA0, irq.SourceDMA1, irq.SourceDMA2, irq.SourceDMA3}

// New constructs a Console around the given boot images. romData must
// hold at least a cartridge header; otherwise cart.New's error is
// returned. log may be nil, in which case a disabled logger is used.
func New(bios9, bios7, romData []byte, saveType cart.SaveType, saveInitial []byte, fw *firmware.Firmware, log *debug.Logger) (*Console, error) {
	if log == nil {
		log = debug.New(nil, 0)
	}

	cartridge, err := cart.New(romData, cart.NewSaveMemory(saveType, saveInitial))
	if err != nil {
		return nil, fmt.Errorf("console: %w", err)
	}

	b := bus.New(cartridge)
	b.BIOS9 = bios9
	b.BIOS7 = bios7

	c := &Console{
		Scheduler: scheduler.New(),
		Bus:       b,
		CPU9:      cpu9.New(b),
		CPU7:      cpu7.New(b),
		IRQ9:      irq.New(),
		IRQ7:      irq.New(),
		RTC:       rtc.New(),
		Cart:      cartridge,
		Firmware:  fw,
		Input:     &input.System{},
		VideoA:    video2d.NewEngine(true),
		VideoB:    video2d.NewEngine(false),
		Geom:      video3d.NewEngine(),
		Raster:    &video3d.Renderer{},
		Audio:     audio.NewMixer(),
		Log:       log,
	}
	c.Timers9 = timers.NewBank(c.IRQ9, timerIRQSources)
	c.Timers7 = timers.NewBank(c.IRQ7, timerIRQSources)
	c.DMA9 = dma.NewBank(c.IRQ9, dmaIRQSources)
	c.DMA7 = dma.NewBank(c.IRQ7, dmaIRQSources)
	c.spi = newCartSPI(cartridge.Save)

	c.registerIO()
	return c, nil
}

// registerIO maps every peripheral's ReadIO8/WriteIO8 into the shared
// bus's I/O block.
func (c *Console) registerIO() {
	c.Bus.RegisterIO(ioIRQ9, 0x10, c.IRQ9)
	c.Bus.RegisterIO(ioIRQ7, 0x10, c.IRQ7)
	c.Bus.RegisterIO(ioTimers9, 0x10, c.Timers9)
	c.Bus.RegisterIO(ioTimers7, 0x10, c.Timers7)
	c.Bus.RegisterIO(ioDMA9, 0x30, c.DMA9)
	c.Bus.RegisterIO(ioDMA7, 0x30, c.DMA7)
	c.Bus.RegisterIO(ioRTC, 0x4, c.RTC)
	c.Bus.RegisterIO(ioCartSPI, 0x4, c.spi)
	c.Bus.RegisterIO(ioInput, 0x4, c.Input)
	c.Bus.RegisterIO(ioGeom, 0x8, c.Geom)
	c.Bus.RegisterIO(ioVideoA, 0x100, c.VideoA)
	c.Bus.RegisterIO(ioVideoB, 0x100, c.VideoB)
	c.Bus.RegisterIO(ioAudio, 0x200, c.Audio)
}

// Reset reconstructs every entity at hardware defaults while preserving
// the firmware, cartridge, and logger collaborators, per spec.md §3's
// lifecycle note.
func (c *Console) Reset() {
	fw, cartridge, log := c.Firmware, c.Cart, c.Log
	saveMem := cartridge.Save

	b := bus.New(cartridge)
	b.BIOS9, b.BIOS7 = c.Bus.BIOS9, c.Bus.BIOS7

	c.Scheduler = scheduler.New()
	c.Bus = b
	c.CPU9 = cpu9.New(b)
	c.CPU7 = cpu7.New(b)
	c.IRQ9 = irq.New()
	c.IRQ7 = irq.New()
	c.RTC = rtc.New()
	c.Firmware = fw
	c.Cart = cartridge
	c.Input = &input.System{}
	c.VideoA = video2d.NewEngine(true)
	c.VideoB = video2d.NewEngine(false)
	c.Geom = video3d.NewEngine()
	c.Raster = &video3d.Renderer{}
	c.Audio = audio.NewMixer()
	c.Log = log
	c.Timers9 = timers.NewBank(c.IRQ9, timerIRQSources)
	c.Timers7 = timers.NewBank(c.IRQ7, timerIRQSources)
	c.DMA9 = dma.NewBank(c.IRQ9, dmaIRQSources)
	c.DMA7 = dma.NewBank(c.IRQ7, dmaIRQSources)
	c.spi = newCartSPI(saveMem)
	c.scanline = 0
	c.mixAccum = 0

	c.registerIO()
}

// WriteGeometryFIFO queues one fixed-function 3D command (spec.md §4.6
// "A command FIFO accepts fixed-function commands") directly, bypassing
// the byte-wide GXFIFO/GXSTAT register port Geom.WriteIO8 exposes on the
// bus. Host tooling (save-state editors, test fixtures) can use this to
// submit a fully-formed Command without assembling it a byte at a time.
func (c *Console) WriteGeometryFIFO(cmd video3d.Command) {
	c.Geom.Submit(cmd)
	c.Geom.Flush()
}

// RunFrame advances the console by exactly one frame: every visible
// scanline is rendered into FrameA/FrameB, vblank-timed DMA and the
// vblank IRQ fire at the frame boundary, and AudioOut accumulates the
// mixer's samples produced along the way (spec.md §4.1 "the outer frame
// loop repeatedly asks the scheduler to advance to the next event or to
// the frame boundary").
func (c *Console) RunFrame() {
	c.AudioOut = c.AudioOut[:0]

	for c.scanline = 0; c.scanline < TotalScanlines; c.scanline++ {
		c.stepCPUs(CyclesPerScanline)
		c.mixAudio(CyclesPerScanline)

		if c.scanline < VisibleScanlines {
			c.renderScanline(c.scanline)
			c.Scheduler.Schedule(scheduler.KindHBlank, c.Scheduler.CurTime())
			c.DMA9.Trigger(c.Bus, dma.TimingHBlank)
			c.IRQ9.Request(irq.SourceHBlank)
			c.IRQ7.Request(irq.SourceHBlank)
		}

		if c.scanline == VisibleScanlines {
			c.Geom.StartFrame()
			c.Scheduler.Schedule(scheduler.KindVBlank, c.Scheduler.CurTime())
			c.DMA9.Trigger(c.Bus, dma.TimingVBlank)
			c.DMA7.Trigger(c.Bus, dma.TimingVBlank)
			c.IRQ9.Request(irq.SourceVBlank)
			c.IRQ7.Request(irq.SourceVBlank)
		}
	}
}

func (c *Console) stepCPUs(appCycles uint32) {
	c.CPU9.IRQLine = c.IRQ9.Line()
	c.CPU7.IRQLine = c.IRQ7.Line()
	c.CPU9.Step(uint64(appCycles))
	c.CPU7.Step(uint64(appCycles) / 2)
	c.Timers9.Step(appCycles)
	c.Timers7.Step(appCycles / 2)
	c.Scheduler.AdvanceTo(c.Scheduler.CurTime() + scheduler.Timestamp(appCycles))
}

// mixAudio advances the mixer by one tick (spec.md §4.4 "per mixer tick,
// every 1024 application-CPU cycles") for every tick boundary crossed
// during appCycles.
func (c *Console) mixAudio(appCycles uint32) {
	reader := busAccessor{b: c.Bus, kind: bus.AccessDMA}
	c.mixAccum += appCycles
	for c.mixAccum >= CyclesPerMixerTick {
		c.mixAccum -= CyclesPerMixerTick
		left, right := c.Audio.Tick(reader, reader)
		c.AudioOut = append(c.AudioOut, clampAudio(left), clampAudio(right))
	}
}

func clampAudio(v int32) int16 {
	if v > 0x7FFF {
		return 0x7FFF
	}
	if v < -0x8000 {
		return -0x8000
	}
	return int16(v)
}

// renderScanline latches VRAM/palette/OAM, rasterizes the 3D pipeline's
// current polygon set for this line, composites both 2D engines, and
// writes the result into FrameA/FrameB.
func (c *Console) renderScanline(y int) {
	c.VideoA.Latch(c.Bus.VRAM[:], c.Bus.Palette[:], c.Bus.OAM[:])
	c.VideoB.Latch(c.Bus.VRAM[:], c.Bus.Palette[:], c.Bus.OAM[:])

	c.Raster.VRAM = c.Bus.VRAM[:]
	c.Raster.ClearLine()
	c.Raster.RenderLine(int32(y), c.Geom.PolyRAM)

	var threeD [video2d.ScreenWidth]video2d.Color
	for x := range threeD {
		rc := c.Raster.Color[x]
		threeD[x] = video2d.Color{R: rc.R, G: rc.G, B: rc.B}
	}

	c.FrameA[y] = c.VideoA.RenderScanline(y, 0, threeD[:])
	c.FrameB[y] = c.VideoB.RenderScanline(y, 0, nil)
}

// Visit composes every owned Entity in a fixed order. The
// logger is a collaborator, not state, and is excluded.
func (c *Console) Visit(v savestate.Visitor) {
	c.Scheduler.Visit(v)
	c.Bus.Visit(v)
	c.CPU9.Visit(v)
	c.CPU7.Visit(v)
	c.IRQ9.Visit(v)
	c.IRQ7.Visit(v)
	c.Timers9.Visit(v)
	c.Timers7.Visit(v)
	c.DMA9.Visit(v)
	c.DMA7.Visit(v)
	c.RTC.Visit(v)
	c.Cart.Visit(v)
	c.spi.Visit(v)
	c.Input.Visit(v)
	c.VideoA.Visit(v)
	c.VideoB.Visit(v)
	c.Geom.Visit(v)
	c.Raster.Visit(v)
	c.Audio.Visit(v)
}

// SaveState serializes the console's entire runtime state (spec.md §3
// "Save-state load replaces every entity atomically").
func (c *Console) SaveState() []byte { return savestate.Save(c) }

// LoadState overwrites the console's current state from data.
func (c *Console) LoadState(data []byte) error { return savestate.Load(c, data) }
