// Command console is the reference frontend: it wires the cli flags
// naming boot images and a config file onto internal/console.Console,
// then either drives a fixed number of headless frames or presents the
// emulation live with ebiten, matching the split the teacher's own
// cmd/emulator made between "--headless --frames N" batch runs and an
// interactive window.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/urfave/cli"

	"nitro-core-dx/internal/cart"
	"nitro-core-dx/internal/config"
	"nitro-core-dx/internal/console"
	"nitro-core-dx/internal/debug"
	"nitro-core-dx/internal/firmware"
	"nitro-core-dx/internal/input"
	"nitro-core-dx/internal/video2d"
)

func main() {
	app := cli.NewApp()
	app.Name = "nitro-core-dx"
	app.Description = "A cycle-accurate dual-CPU handheld console emulator"
	app.Usage = "nitro-core-dx [options] --rom <ROM file>"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "rom", Usage: "Path to the ROM image"},
		cli.StringFlag{Name: "bios9", Usage: "Path to the application-CPU BIOS image"},
		cli.StringFlag{Name: "bios7", Usage: "Path to the I/O-CPU BIOS image"},
		cli.StringFlag{Name: "firmware", Usage: "Path to the firmware image"},
		cli.StringFlag{Name: "config", Usage: "Path to a TOML config file (defaults apply for anything it omits)"},
		cli.StringFlag{Name: "save-type", Usage: "Override save-memory type detection (e.g. flash_8mib)"},
		cli.BoolFlag{Name: "headless", Usage: "Run without a window"},
		cli.IntFlag{Name: "frames", Usage: "Number of frames to run in headless mode", Value: 0},
		cli.BoolFlag{Name: "trace", Usage: "Enable debug logging for every component"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("nitro-core-dx exited with an error", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if v := c.String("rom"); v != "" {
		cfg.ROMPath = v
	}
	if v := c.String("bios9"); v != "" {
		cfg.BIOS9Path = v
	}
	if v := c.String("bios7"); v != "" {
		cfg.BIOS7Path = v
	}
	if v := c.String("firmware"); v != "" {
		cfg.FirmwarePath = v
	}
	if v := c.String("save-type"); v != "" {
		cfg.SaveType = v
	}

	if cfg.ROMPath == "" {
		cli.ShowAppHelp(c)
		return errors.New("no ROM path provided")
	}

	log := debug.New(nil, 1024)
	if c.Bool("trace") {
		for _, comp := range []debug.Component{
			debug.ComponentCPU9, debug.ComponentCPU7, debug.ComponentBus,
			debug.ComponentScheduler, debug.ComponentVideo2D, debug.ComponentVideo3D,
			debug.ComponentAudio, debug.ComponentCart, debug.ComponentDMA,
			debug.ComponentIRQ, debug.ComponentRTC, debug.ComponentConsole,
		} {
			log.Enable(comp)
		}
	}

	cons, err := buildConsole(cfg, log)
	if err != nil {
		return err
	}

	if c.Bool("headless") {
		frames := c.Int("frames")
		if frames <= 0 {
			return errors.New("headless mode requires --frames with a positive value")
		}
		for i := 0; i < frames; i++ {
			cons.RunFrame()
		}
		return nil
	}

	game, err := newGame(cons, cfg)
	if err != nil {
		return err
	}
	ebiten.SetWindowTitle(app_WindowTitle(cfg))
	ebiten.SetWindowSize(video2d.ScreenWidth*3, video2d.ScreenHeight*2*3)
	return ebiten.RunGame(game)
}

func app_WindowTitle(cfg config.Config) string {
	return "nitro-core-dx - " + cfg.ROMPath
}

// buildConsole loads every boot image the config names and constructs a
// console.Console around them.
func buildConsole(cfg config.Config, log *debug.Logger) (*console.Console, error) {
	romData, err := os.ReadFile(cfg.ROMPath)
	if err != nil {
		return nil, fmt.Errorf("read rom: %w", err)
	}

	var bios9, bios7 []byte
	if cfg.BIOS9Path != "" {
		raw, err := os.ReadFile(cfg.BIOS9Path)
		if err != nil {
			return nil, fmt.Errorf("read bios9: %w", err)
		}
		if bios9, err = firmware.LoadBIOS9(raw); err != nil {
			return nil, fmt.Errorf("load bios9: %w", err)
		}
	}
	if cfg.BIOS7Path != "" {
		raw, err := os.ReadFile(cfg.BIOS7Path)
		if err != nil {
			return nil, fmt.Errorf("read bios7: %w", err)
		}
		if bios7, err = firmware.LoadBIOS7(raw); err != nil {
			return nil, fmt.Errorf("load bios7: %w", err)
		}
	}

	var fw *firmware.Firmware
	if cfg.FirmwarePath != "" {
		raw, err := os.ReadFile(cfg.FirmwarePath)
		if err != nil {
			return nil, fmt.Errorf("read firmware: %w", err)
		}
		fw = firmware.Load(raw)
	}

	var saveInitial []byte
	if cfg.SavePath != "" {
		if raw, err := os.ReadFile(cfg.SavePath); err == nil {
			saveInitial = raw
		}
	}

	saveType, ok := cfg.ResolveSaveType()
	if !ok {
		size := len(saveInitial)
		saveType = cart.DetectSaveType(nil, size, nil)
	}

	return console.New(bios9, bios7, romData, saveType, saveInitial, fw, log)
}

// game implements ebiten.Game, driving one console.Console frame per
// Update and presenting FrameA (the top/application engine screen,
// matching the teacher's single-framebuffer Draw) stacked above FrameB.
type game struct {
	cons     *console.Console
	savePath string
	top      *ebiten.Image
	bottom   *ebiten.Image
	player   *audio.Player
	stream   *audioStream
}

func newGame(cons *console.Console, cfg config.Config) (*game, error) {
	ctx := audio.NewContext(cfg.Audio.SampleRate)
	g := &game{
		cons:     cons,
		savePath: cfg.SavePath,
		top:      ebiten.NewImage(video2d.ScreenWidth, video2d.ScreenHeight),
		bottom:   ebiten.NewImage(video2d.ScreenWidth, video2d.ScreenHeight),
		stream:   &audioStream{cons: cons},
	}
	p, err := ctx.NewPlayer(g.stream)
	if err != nil {
		return nil, fmt.Errorf("audio player: %w", err)
	}
	g.player = p
	g.player.Play()
	return g, nil
}

func (g *game) Update() error {
	g.readKeyboard()
	g.cons.RunFrame()
	g.stream.feed(g.cons.AudioOut)
	return nil
}

func (g *game) readKeyboard() {
	keymap := [...]struct {
		key ebiten.Key
		btn input.Button
	}{
		{ebiten.KeyX, input.ButtonA},
		{ebiten.KeyZ, input.ButtonB},
		{ebiten.KeyBackspace, input.ButtonSelect},
		{ebiten.KeyEnter, input.ButtonStart},
		{ebiten.KeyRight, input.ButtonRight},
		{ebiten.KeyLeft, input.ButtonLeft},
		{ebiten.KeyUp, input.ButtonUp},
		{ebiten.KeyDown, input.ButtonDown},
		{ebiten.KeyA, input.ButtonL},
		{ebiten.KeyS, input.ButtonR},
		{ebiten.KeyD, input.ButtonX},
		{ebiten.KeyC, input.ButtonY},
	}
	for _, k := range keymap {
		g.cons.Input.SetButton(k.btn, ebiten.IsKeyPressed(k.key))
	}

	if x, y := ebiten.CursorPosition(); ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if x >= 0 && x < video2d.ScreenWidth && y >= 0 && y < video2d.ScreenHeight {
			g.cons.Input.SetTouch(uint16(x), uint16(y), true)
		}
	} else {
		g.cons.Input.SetTouch(0, 0, false)
	}
}

func (g *game) Draw(screen *ebiten.Image) {
	writePixels(g.top, g.cons.FrameA[:])
	writePixels(g.bottom, g.cons.FrameB[:])

	op := &ebiten.DrawImageOptions{}
	screen.DrawImage(g.top, op)
	op.GeoM.Translate(0, video2d.ScreenHeight)
	screen.DrawImage(g.bottom, op)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return video2d.ScreenWidth, video2d.ScreenHeight * 2
}

// writePixels flattens one of the console's [ScreenHeight][ScreenWidth]Color
// framebuffers into the RGBA byte layout ebiten.Image.WritePixels expects.
func writePixels(img *ebiten.Image, frame [][video2d.ScreenWidth]video2d.Color) {
	buf := make([]byte, video2d.ScreenWidth*video2d.ScreenHeight*4)
	i := 0
	for y := 0; y < video2d.ScreenHeight; y++ {
		for x := 0; x < video2d.ScreenWidth; x++ {
			px := frame[y][x]
			buf[i], buf[i+1], buf[i+2], buf[i+3] = px.R, px.G, px.B, 0xFF
			i += 4
		}
	}
	img.WritePixels(buf)
}

// audioStream implements io.Reader over console.Console.AudioOut, the
// same role the teacher's apuStream plays for its APU: pull whatever
// interleaved stereo samples RunFrame produced and hand them to ebiten's
// audio.Player as little-endian int16 pairs, falling back to silence
// once a frame's worth has been drained.
type audioStream struct {
	cons    *console.Console
	pending []int16
}

func (s *audioStream) feed(samples []int16) {
	s.pending = append(s.pending, samples...)
}

func (s *audioStream) Read(p []byte) (int, error) {
	n := len(p) / 4
	if n > len(s.pending)/2 {
		n = len(s.pending) / 2
	}
	i := 0
	for f := 0; f < n; f++ {
		l := uint16(s.pending[f*2])
		r := uint16(s.pending[f*2+1])
		p[i] = byte(l)
		p[i+1] = byte(l >> 8)
		p[i+2] = byte(r)
		p[i+3] = byte(r >> 8)
		i += 4
	}
	s.pending = s.pending[n*2:]
	for ; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), nil
}
