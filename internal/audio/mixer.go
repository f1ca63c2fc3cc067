package audio

import "nitro-core-dx/internal/savestate"

// Mixer owns all sixteen playback channels and the two capture units,
// producing one stereo sample per tick (spec.md §4.4 "Mixer output. Per
// sample, accumulate all non-muted channels with per-channel volume and
// pan applied, then apply master volume"). Grounded on the teacher's
// apu.APU for the "owns channels + master volume, exposes register
// read/write" shape, generalized to 16 channels and two capture units
// per original_source/core/src/audio/capture.rs.
type Mixer struct {
	Channels [16]Channel
	Capture  [2]CaptureUnit

	MasterVolume uint8 // 0..127, 127 treated as 128 (same re-encoding as channel volume)
}

// NewMixer returns a Mixer with all channels and capture units at reset
// defaults.
func NewMixer() *Mixer {
	m := &Mixer{}
	for i := range m.Channels {
		m.Channels[i] = newChannel(i)
	}
	return m
}

func (m *Mixer) masterVolume() int32 {
	if m.MasterVolume == 127 {
		return 128
	}
	return int32(m.MasterVolume)
}

// Tick steps every channel by one mixer tick's worth of timer clocks
// (spec.md §4.4 "Per mixer tick (every 1024 application-CPU cycles),
// advance the channel's own timer by 512"), mixes their output with
// per-channel volume/pan, applies master volume, and feeds both capture
// units. Returns the stereo sample pair.
//
// The exact fixed-point mix formula (channel amplitude scaled by
// volume/128 and split left/right by pan/128, master volume applied the
// same way) is not pinned down by any testable property in spec.md §8;
// this is a documented simplification rather than a bit-exact port of
// the real hardware's volume/pan multiplier tables.
func (m *Mixer) Tick(bus BusReader, captureBus BusWriter) (left, right int32) {
	var mixL, mixR int32
	var rawSample [16]int16

	for i := range m.Channels {
		ch := &m.Channels[i]
		s := ch.Step(bus, 512)
		rawSample[i] = s

		amp := (int32(s) * int32(ch.Volume)) >> ch.VolumeShift
		amp >>= 7
		panL := int32(128) - int32(ch.Pan)
		panR := int32(ch.Pan)
		mixL += (amp * panL) >> 7
		mixR += (amp * panR) >> 7
	}

	mv := m.masterVolume()
	mixL = (mixL * mv) >> 7
	mixR = (mixR * mv) >> 7

	m.feedCapture(0, captureBus, rawSample, mixL, mixR)
	m.feedCapture(1, captureBus, rawSample, mixL, mixR)

	return mixL, mixR
}

func (m *Mixer) feedCapture(unit int, bus BusWriter, rawSample [16]int16, mixL, mixR int32) {
	u := &m.Capture[unit]
	if !u.Running {
		return
	}
	var sample int16
	switch u.Source {
	case CaptureChannelPair:
		lo, hi := 0, 1
		if unit == 1 {
			lo, hi = 2, 3
		}
		sum := int32(rawSample[lo]) + int32(rawSample[hi])
		sample = clampSample(sum)
	case CaptureMixerOutput:
		if unit == 0 {
			sample = clampSample(mixL)
		} else {
			sample = clampSample(mixR)
		}
	}
	u.Feed(bus, sample)
}

func clampSample(v int32) int16 {
	if v > 0x7FFF {
		return 0x7FFF
	}
	if v < -0x7FFF {
		return -0x7FFF
	}
	return int16(v)
}

// ReadIO8/WriteIO8 expose the mixer as a bus.IOHandler. Register layout
// (byte offsets), grounded on the teacher's per-field switch style in
// apu.go generalized to 16 channels:
//
//	0x000-0x0FF: 16 channels x 16 bytes (Control u32, SrcAddr u32,
//	             TimerReload u16, LoopStart u16, LoopLen u32)
//	0x100:       MasterVolume
//	0x101-0x110: 2 capture units x 8 bytes (Control u8, pad, DestBase u32,
//	             DestLen u16)
func (m *Mixer) ReadIO8(offset uint32) uint8 {
	switch {
	case offset < 0x100:
		return m.readChannel(offset)
	case offset == 0x100:
		return m.MasterVolume
	case offset >= 0x101 && offset < 0x111:
		return m.readCapture(offset - 0x101)
	default:
		return 0
	}
}

func (m *Mixer) WriteIO8(offset uint32, value uint8) {
	switch {
	case offset < 0x100:
		m.writeChannel(offset, value)
	case offset == 0x100:
		m.MasterVolume = value & 0x7F
	case offset >= 0x101 && offset < 0x111:
		m.writeCapture(offset-0x101, value)
	}
}

func (m *Mixer) readChannel(offset uint32) uint8 {
	ch := &m.Channels[offset/16]
	reg := offset % 16
	switch {
	case reg < 4:
		return byte(ch.ControlBits >> (8 * reg))
	case reg < 8:
		return byte(ch.SrcAddr >> (8 * (reg - 4)))
	case reg == 8:
		return byte(ch.TimerReload)
	case reg == 9:
		return byte(ch.TimerReload >> 8)
	case reg == 10:
		return byte(ch.LoopStart)
	case reg == 11:
		return byte(ch.LoopStart >> 8)
	case reg < 16:
		return byte(ch.LoopLen >> (8 * (reg - 12)))
	default:
		return 0
	}
}

func (m *Mixer) writeChannel(offset uint32, value uint8) {
	ch := &m.Channels[offset/16]
	reg := offset % 16
	switch {
	case reg < 4:
		shift := uint(8 * reg)
		bits := ch.ControlBits
		bits = (bits &^ (0xFF << shift)) | (uint32(value) << shift)
		if reg == 3 {
			ch.SetControl(bits)
		} else {
			ch.ControlBits = bits
		}
	case reg < 8:
		shift := uint(8 * (reg - 4))
		addr := ch.SrcAddr
		addr = (addr &^ (0xFF << shift)) | (uint32(value) << shift)
		ch.SetSrcAddr(addr)
	case reg == 8:
		ch.TimerReload = (ch.TimerReload & 0xFF00) | uint16(value)
	case reg == 9:
		ch.TimerReload = (ch.TimerReload & 0x00FF) | uint16(value)<<8
	case reg == 10:
		ch.SetLoopStart((ch.LoopStart & 0xFF00) | uint16(value))
	case reg == 11:
		ch.SetLoopStart((ch.LoopStart & 0x00FF) | uint16(value)<<8)
	case reg < 16:
		shift := uint(8 * (reg - 12))
		ll := ch.LoopLen
		ll = (ll &^ (0xFF << shift)) | (uint32(value) << shift)
		ch.SetLoopLen(ll)
	}
}

func (m *Mixer) readCapture(offset uint32) uint8 {
	u := &m.Capture[offset/8]
	reg := offset % 8
	switch reg {
	case 0:
		var v uint8
		if u.Running {
			v |= 1 << 7
		}
		if u.OneShot {
			v |= 1 << 1
		}
		if u.Source == CaptureMixerOutput {
			v |= 1
		}
		return v
	case 1:
		return 0
	case 2, 3, 4, 5:
		return byte(u.DestBase >> (8 * (reg - 2)))
	case 6, 7:
		return byte(u.DestLen >> (8 * (reg - 6)))
	default:
		return 0
	}
}

func (m *Mixer) writeCapture(offset uint32, value uint8) {
	u := &m.Capture[offset/8]
	reg := offset % 8
	switch reg {
	case 0:
		wasRunning := u.Running
		u.OneShot = value&(1<<1) != 0
		if value&1 != 0 {
			u.Source = CaptureMixerOutput
		} else {
			u.Source = CaptureChannelPair
		}
		running := value&(1<<7) != 0
		if running && !wasRunning {
			u.Start()
		}
		u.Running = running
	case 2, 3, 4, 5:
		shift := uint(8 * (reg - 2))
		base := u.DestBase
		base = (base &^ (0xFF << shift)) | (uint32(value) << shift)
		u.DestBase = base & 0x07FF_FFFC
	case 6, 7:
		shift := uint(8 * (reg - 6))
		ln := u.DestLen
		ln = (ln &^ (0xFF << shift)) | (uint32(value) << shift)
		u.DestLen = ln
	}
}

// Visit walks all sixteen channels, both capture units, and the master
// volume.
func (m *Mixer) Visit(v savestate.Visitor) {
	for i := range m.Channels {
		m.Channels[i].Visit(v)
	}
	for i := range m.Capture {
		m.Capture[i].Visit(v)
	}
	v.U8(&m.MasterVolume)
}
