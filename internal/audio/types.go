// Package audio implements the 16-channel sample-playback mixer (spec.md
// §4.4): PCM8/16, ADPCM, and PSG wave/noise channel formats, feeding a
// per-sample mix and two capture units.
//
// Grounded on the teacher's internal/apu/apu.go for the register-block
// shape, logging conventions, and IOHandler wiring, generalized from its
// 4-channel procedural synth design to the spec's 16-channel
// sample-playback design, whose per-channel decode algorithms (FIFO
// refill, ADPCM step, PSG tables) are ported from
// original_source/core/src/audio/channel.rs and capture.rs.
package audio

// Format selects a channel's sample-generation algorithm (spec.md §4.4
// "Channel formats").
type Format int

const (
	FormatPCM8 Format = iota
	FormatPCM16
	FormatADPCM
	FormatPSGWave
	FormatPSGNoise
	FormatSilence
)

// RepeatMode selects how a channel behaves once it reaches the end of
// its configured sample range (spec.md §4.4 "Loop modes").
type RepeatMode int

const (
	RepeatManual RepeatMode = iota
	RepeatLoopInfinite
	RepeatOneShot
)

// BusReader is the bus-access surface a channel's FIFO refill and a
// capture unit's destination writes need. Grounded on bus.Bus's
// Read32/Write32 (internal/bus/bus.go), kept as a narrow interface here
// so audio does not import bus directly.
type BusReader interface {
	Read32(addr uint32) uint32
}

type BusWriter interface {
	Write32(addr uint32, value uint32)
}
