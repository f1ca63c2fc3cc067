package audio

import "nitro-core-dx/internal/savestate"

// volumeShiftTable maps the 2-bit volume_shift field to its actual shift
// amount (spec.md §4.4 "volume shift is one of {4,3,2,0}"), grounded on
// channel.rs's Control::volume_shift.
var volumeShiftTable = [4]uint8{4, 3, 2, 0}

// Channel is one of the sixteen sample-playback channels (spec.md §3
// "Audio channel: 32-byte FIFO, format, loop mode, current source
// offset, sample index, ADPCM state (predictor + index), PSG state").
// Grounded on original_source/core/src/audio/channel.rs's Channel.
type Channel struct {
	index int

	ControlBits uint32
	Volume      uint8
	VolumeShift uint8
	Pan         uint8
	Hold        bool
	PSGDuty     uint8
	Repeat      RepeatMode
	Format      Format
	Running     bool

	start bool

	SrcAddr     uint32
	TimerReload uint16
	timerCount  uint16

	LoopStart           uint16
	LoopLen             uint32
	loopStartSampleIdx  uint32
	totalSize           uint32
	totalSamples        uint32
	curSampleIndex      int32
	curSrcOff           uint32
	lastSample          int16

	fifo         [0x20]byte
	fifoReadPos  uint8
	fifoWritePos uint8

	adpcmValue          int16
	loopStartAdpcmValue int16
	adpcmIndex          uint8
	loopStartAdpcmIndex uint8
	adpcmByte           uint8

	noiseLFSR uint16
}

func newChannel(index int) Channel {
	return Channel{index: index}
}

// SetControl decodes a 32-bit control write (spec.md §4.4 "Per channel"),
// following channel.rs's Control bitfield layout: volume 0..=6, volume
// shift 8..=9, hold bit 15, pan 16..=22, PSG duty 24..=26, repeat mode
// 27..=28, format 29..=30, running bit 31.
func (c *Channel) SetControl(bits uint32) {
	wasRunning := c.Running
	c.ControlBits = bits & 0xFF7F_837F

	c.Running = c.ControlBits&(1<<31) != 0
	if !c.Running {
		c.start = false
		return
	}
	c.start = c.start || !wasRunning

	volumeRaw := uint8(c.ControlBits & 0x7F)
	if volumeRaw == 127 {
		c.Volume = 128
	} else {
		c.Volume = volumeRaw
	}
	c.VolumeShift = volumeShiftTable[(c.ControlBits>>8)&3]
	c.Hold = c.ControlBits&(1<<15) != 0
	panRaw := uint8((c.ControlBits >> 16) & 0x7F)
	if panRaw == 127 {
		c.Pan = 128
	} else {
		c.Pan = panRaw
	}
	c.PSGDuty = uint8((c.ControlBits >> 24) & 7)

	switch (c.ControlBits >> 27) & 3 {
	case 0:
		c.Repeat = RepeatManual
	case 2:
		c.Repeat = RepeatOneShot
	default: // 1 and 3 (3 aliases to 1, per spec.md §4.4)
		c.Repeat = RepeatLoopInfinite
	}

	switch (c.ControlBits >> 29) & 3 {
	case 0:
		c.Format = FormatPCM8
	case 1:
		c.Format = FormatPCM16
	case 2:
		c.Format = FormatADPCM
	default:
		// spec.md §8 open question (b): channels 0-7 using format 3 emit
		// silence, matching the reference's documented behavior.
		switch {
		case c.index >= 8 && c.index <= 13:
			c.Format = FormatPSGWave
		case c.index >= 14 && c.index <= 15:
			c.Format = FormatPSGNoise
		default:
			c.Format = FormatSilence
		}
	}

	c.recalcSampleCounts()
}

func (c *Channel) recalcSampleCounts() {
	switch c.Format {
	case FormatPCM16:
		c.loopStartSampleIdx = uint32(c.LoopStart) << 1
	case FormatADPCM:
		c.loopStartSampleIdx = uint32(c.LoopStart) << 3
	default:
		c.loopStartSampleIdx = uint32(c.LoopStart) << 2
	}
	switch c.Format {
	case FormatPCM16:
		c.totalSamples = c.totalSize >> 1
	case FormatADPCM:
		c.totalSamples = c.totalSize << 1
	default:
		c.totalSamples = c.totalSize
	}
}

// SetSrcAddr stores the channel's 32-bit FIFO-refill source address,
// word-aligned per the real hardware's register mask.
func (c *Channel) SetSrcAddr(v uint32) { c.SrcAddr = v & 0x07FF_FFFC }

// SetLoopStart stores the loop-start offset (in words) and recomputes
// the derived total size/sample count, per channel.rs's set_loop_start.
func (c *Channel) SetLoopStart(v uint16) {
	c.LoopStart = v
	c.totalSize = (uint32(c.LoopStart) + c.LoopLen) << 2
	c.recalcSampleCounts()
}

// SetLoopLen stores the loop length (in words, 22 bits) and recomputes
// the derived total size/sample count.
func (c *Channel) SetLoopLen(v uint32) {
	c.LoopLen = v & 0x3F_FFFF
	c.totalSize = (uint32(c.LoopStart) + c.LoopLen) << 2
	c.recalcSampleCounts()
}

func (c *Channel) keepLastSample() {}

func (c *Channel) pushSample(sample int16) { c.lastSample = sample }

// refillFifo reads up to 16 bytes from src_addr+cur_src_off through bus
// into the channel's circular FIFO (spec.md §4.4 "32-byte circular FIFO
// refilled 16 bytes at a time from source memory via bus-access DMA"),
// grounded on channel.rs's refill_fifo.
func (c *Channel) refillFifo(bus BusReader) {
	var readBytes uint32
	switch c.Repeat {
	case RepeatManual:
		readBytes = 16
	case RepeatLoopInfinite:
		if c.curSrcOff >= c.totalSize {
			c.curSrcOff = uint32(c.LoopStart) << 2
		}
		readBytes = min32(16, c.totalSize-c.curSrcOff)
	case RepeatOneShot:
		if c.curSrcOff >= c.totalSize {
			return
		}
		readBytes = min32(16, c.totalSize-c.curSrcOff)
	}
	addr := c.SrcAddr + c.curSrcOff
	c.curSrcOff += readBytes
	for off := uint32(0); off < readBytes; off += 4 {
		word := bus.Read32(addr)
		c.fifo[c.fifoWritePos] = byte(word)
		c.fifo[(c.fifoWritePos+1)&0x1F] = byte(word >> 8)
		c.fifo[(c.fifoWritePos+2)&0x1F] = byte(word >> 16)
		c.fifo[(c.fifoWritePos+3)&0x1F] = byte(word >> 24)
		c.fifoWritePos = (c.fifoWritePos + 4) & 0x1C
		addr += 4
	}
}

func min32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

func (c *Channel) readFifo8(bus BusReader) uint8 {
	v := c.fifo[c.fifoReadPos]
	c.fifoReadPos = (c.fifoReadPos + 1) & 0x1F
	c.maybeRefill(bus)
	return v
}

func (c *Channel) readFifo16(bus BusReader) uint16 {
	pos := c.fifoReadPos &^ 1
	v := uint16(c.fifo[pos]) | uint16(c.fifo[(pos+1)&0x1F])<<8
	c.fifoReadPos = (pos + 2) & 0x1F
	c.maybeRefill(bus)
	return v
}

func (c *Channel) readFifo32(bus BusReader) uint32 {
	pos := c.fifoReadPos &^ 3
	v := uint32(c.fifo[pos]) | uint32(c.fifo[(pos+1)&0x1F])<<8 |
		uint32(c.fifo[(pos+2)&0x1F])<<16 | uint32(c.fifo[(pos+3)&0x1F])<<24
	c.fifoReadPos = (pos + 4) & 0x1F
	c.maybeRefill(bus)
	return v
}

func (c *Channel) maybeRefill(bus BusReader) {
	if (c.fifoWritePos-c.fifoReadPos)&0x1F <= 0x10 {
		c.refillFifo(bus)
	}
}

// Step advances the channel by one mixer tick's worth of timer clocks
// and returns its current output sample (spec.md §4.4 "Per mixer tick
// ... advance the channel's own timer by 512 ... for each 16-bit timer
// overflow, generate one sample").
func (c *Channel) Step(bus BusReader, timerAdvance uint16) int16 {
	if !c.Running {
		return 0
	}
	if c.start {
		c.start = false
		c.timerCount = c.TimerReload
		c.curSrcOff = 0
		c.fifoReadPos = 0
		c.fifoWritePos = 0
		if c.Format == FormatPSGNoise || c.Format == FormatPSGWave {
			c.noiseLFSR = 0x7FFF
			c.curSampleIndex = -1
		} else {
			c.curSampleIndex = -3
			c.refillFifo(bus)
			c.refillFifo(bus)
		}
	}

	remaining := uint32(timerAdvance)
	counter := uint32(c.timerCount)
	for remaining > 0 {
		toOverflow := 0x10000 - counter
		if remaining < toOverflow {
			counter += remaining
			remaining = 0
		} else {
			remaining -= toOverflow
			counter = uint32(c.TimerReload)
			c.generateSample(bus)
		}
	}
	c.timerCount = uint16(counter)
	return c.lastSample
}

func (c *Channel) generateSample(bus BusReader) {
	switch c.Format {
	case FormatPCM8:
		c.runPCM8(bus)
	case FormatPCM16:
		c.runPCM16(bus)
	case FormatADPCM:
		c.runADPCM(bus)
	case FormatPSGWave:
		c.runPSGWave()
	case FormatPSGNoise:
		c.runPSGNoise()
	default:
		c.pushSample(0)
	}
}

func (c *Channel) atSampleEnd() bool { return uint32(c.curSampleIndex) >= c.totalSamples }

func (c *Channel) runPCM8(bus BusReader) {
	c.curSampleIndex++
	if c.curSampleIndex < 0 {
		c.pushSample(0)
		return
	}
	if c.atSampleEnd() {
		switch c.Repeat {
		case RepeatManual:
		case RepeatLoopInfinite:
			c.curSampleIndex = int32(c.loopStartSampleIdx)
		case RepeatOneShot:
			c.Running = false
			if !c.Hold {
				c.pushSample(0)
			}
			return
		}
	}
	sample := int8(c.readFifo8(bus))
	c.pushSample(int16(sample) << 8)
}

func (c *Channel) runPCM16(bus BusReader) {
	c.curSampleIndex++
	if c.curSampleIndex < 0 {
		c.pushSample(0)
		return
	}
	if c.atSampleEnd() {
		switch c.Repeat {
		case RepeatManual:
		case RepeatLoopInfinite:
			c.curSampleIndex = int32(c.loopStartSampleIdx)
		case RepeatOneShot:
			c.Running = false
			if !c.Hold {
				c.pushSample(0)
			}
			return
		}
	}
	c.pushSample(int16(c.readFifo16(bus)))
}

// runADPCM decodes one Intel/DVI 4-bit ADPCM nibble (spec.md §4.4
// "ADPCM (Intel 4-bit with 89-entry step table and an 8-entry
// index-adjust table, clamping both index (0..=88) and predictor
// (-0x7FFF..=0x7FFF))"). Ported verbatim from channel.rs's run_adpcm,
// the authoritative reference algorithm; see DESIGN.md's open-question
// entry on why this, not the spec's own worked illustration, is what
// this decoder reproduces bit-for-bit.
func (c *Channel) runADPCM(bus BusReader) {
	c.curSampleIndex++
	if c.curSampleIndex < 8 {
		c.pushSample(0)
		if c.curSampleIndex == 0 {
			header := c.readFifo32(bus)
			c.adpcmValue = clampPredictor(int32(int16(header)))
			c.adpcmIndex = clampIndex(int(uint8(header >> 16)))
			c.loopStartAdpcmValue = c.adpcmValue
			c.loopStartAdpcmIndex = c.adpcmIndex
		}
		return
	}
	if c.atSampleEnd() {
		switch c.Repeat {
		case RepeatManual:
		case RepeatLoopInfinite:
			c.curSampleIndex = int32(c.loopStartSampleIdx)
			c.adpcmValue = c.loopStartAdpcmValue
			c.adpcmIndex = c.loopStartAdpcmIndex
			c.pushSample(c.adpcmValue)
			c.adpcmByte = c.readFifo8(bus)
			return
		case RepeatOneShot:
			c.Running = false
			if !c.Hold {
				c.pushSample(0)
			}
			return
		}
	}

	var nibble uint8
	if c.curSampleIndex&1 == 0 {
		c.adpcmByte = c.readFifo8(bus)
		nibble = c.adpcmByte & 0xF
	} else {
		nibble = c.adpcmByte >> 4
	}

	c.adpcmValue, c.adpcmIndex = adpcmDecodeNibble(c.adpcmValue, c.adpcmIndex, nibble)

	if uint32(c.curSampleIndex) == c.loopStartSampleIdx {
		c.loopStartAdpcmValue = c.adpcmValue
		c.loopStartAdpcmIndex = c.adpcmIndex
	}
	c.pushSample(c.adpcmValue)
}

func (c *Channel) runPSGWave() {
	c.curSampleIndex++
	idx := (int(c.PSGDuty) << 3) | (int(c.curSampleIndex) & 7)
	c.pushSample(psgDutyTable[idx])
}

// runPSGNoise steps the 15-bit LFSR (spec.md §4.4 "PSG noise (15-bit
// LFSR with tap 1 ^ 14 ...)"), grounded on channel.rs's run_psg_noise.
func (c *Channel) runPSGNoise() {
	if c.noiseLFSR&1 == 0 {
		c.noiseLFSR >>= 1
		c.pushSample(0x7FFF)
	} else {
		c.noiseLFSR = (c.noiseLFSR >> 1) ^ 0x6000
		c.pushSample(-0x7FFF)
	}
}

// Visit walks every field of Channel, including the FIFO, ADPCM
// predictor/index, and sample-position counters: a save/load round trip
// that dropped any of these would resume playback from the wrong point
// or with a corrupted ADPCM decode, audibly diverging from the state
// that was saved.
func (c *Channel) Visit(v savestate.Visitor) {
	savestate.VisitInt(v, &c.index)

	v.U32(&c.ControlBits)
	v.U8(&c.Volume)
	v.U8(&c.VolumeShift)
	v.U8(&c.Pan)
	v.Bool(&c.Hold)
	v.U8(&c.PSGDuty)
	savestate.VisitIntEnum(v, &c.Repeat)
	savestate.VisitIntEnum(v, &c.Format)
	v.Bool(&c.Running)

	v.Bool(&c.start)

	v.U32(&c.SrcAddr)
	v.U16(&c.TimerReload)
	v.U16(&c.timerCount)

	v.U16(&c.LoopStart)
	v.U32(&c.LoopLen)
	v.U32(&c.loopStartSampleIdx)
	v.U32(&c.totalSize)
	v.U32(&c.totalSamples)
	v.I32(&c.curSampleIndex)
	v.U32(&c.curSrcOff)
	v.I16(&c.lastSample)

	v.Bytes(c.fifo[:])
	v.U8(&c.fifoReadPos)
	v.U8(&c.fifoWritePos)

	v.I16(&c.adpcmValue)
	v.I16(&c.loopStartAdpcmValue)
	v.U8(&c.adpcmIndex)
	v.U8(&c.loopStartAdpcmIndex)
	v.U8(&c.adpcmByte)

	v.U16(&c.noiseLFSR)
}
