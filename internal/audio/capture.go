package audio

import "nitro-core-dx/internal/savestate"

// CaptureSource selects what a capture unit records (spec.md §4.4
// "Each watches either a fixed channel pair (0/1 or 2/3) or the overall
// mixer output").
type CaptureSource int

const (
	CaptureChannelPair CaptureSource = iota
	CaptureMixerOutput
)

// CaptureUnit buffers mixer or channel-pair samples and periodically
// flushes them to memory via DMA (spec.md §3 "Capture unit: 32-byte
// FIFO, destination base/end, running flag, current byte position";
// spec.md §4.4 "Capture units (two)"). Grounded on
// original_source/core/src/audio/capture.rs's general shape of a
// destination window that wraps modulo its length.
type CaptureUnit struct {
	Running     bool
	Source      CaptureSource
	AddPSG      bool // add the channel pair's PCM+PSG mix vs. PCM only (stored and saved; the mixer does not read it)
	OneShot     bool
	DestBase    uint32
	DestLen     uint32
	curOffset   uint32

	fifo    [0x20]byte
	fillPos int
}

// Start begins a capture run, resetting the destination cursor
// (spec.md §4.4 capture unit fields: "running flag, current byte
// position").
func (u *CaptureUnit) Start() {
	u.Running = true
	u.curOffset = 0
	u.fillPos = 0
}

// Feed appends one 16-bit sample to the unit's FIFO; every 16 samples
// (32 bytes) it flushes the FIFO as eight word writes to
// DestBase+curOffset, wrapping modulo DestLen, and a one-shot unit stops
// at the first wrap.
func (u *CaptureUnit) Feed(bus BusWriter, sample int16) {
	if !u.Running {
		return
	}
	u.fifo[u.fillPos] = byte(sample)
	u.fifo[u.fillPos+1] = byte(sample >> 8)
	u.fillPos += 2
	if u.fillPos < len(u.fifo) {
		return
	}
	u.fillPos = 0

	for off := 0; off < len(u.fifo); off += 4 {
		word := uint32(u.fifo[off]) | uint32(u.fifo[off+1])<<8 |
			uint32(u.fifo[off+2])<<16 | uint32(u.fifo[off+3])<<24
		dest := u.DestBase + u.curOffset
		bus.Write32(dest, word)
		u.curOffset += 4
		if u.curOffset >= u.DestLen {
			u.curOffset = 0
			if u.OneShot {
				u.Running = false
				return
			}
		}
	}
}

// Visit walks every field of CaptureUnit, including the FIFO fill
// position and destination cursor: these determine exactly where the
// next Feed call resumes writing, which a save/load round trip must
// preserve bit-for-bit.
func (u *CaptureUnit) Visit(v savestate.Visitor) {
	v.Bool(&u.Running)
	savestate.VisitIntEnum(v, &u.Source)
	v.Bool(&u.AddPSG)
	v.Bool(&u.OneShot)
	v.U32(&u.DestBase)
	v.U32(&u.DestLen)
	v.U32(&u.curOffset)
	v.Bytes(u.fifo[:])
	savestate.VisitInt(v, &u.fillPos)
}
