// Package dma implements the four-channel DMA arbiter each CPU has:
// source/destination address registers, a word count, and a control
// register selecting address-increment mode, transfer size, start
// timing (immediate, vblank, hblank, or a peripheral-driven "special"
// timing used by the audio FIFOs) and repeat behavior. Grounded on
// spec.md §4.2's AccessDMA kind (already implemented by internal/bus)
// and §4.1's "DMA-channel ready" scheduler event; there is no teacher
// equivalent, so register decode follows the same per-field-struct
// pattern internal/audio's Channel.SetControl established.
package dma

import (
	"nitro-core-dx/internal/bus"
	"nitro-core-dx/internal/irq"
	"nitro-core-dx/internal/savestate"
)

// DestControl selects how DstAddr moves after each unit transferred.
type DestControl uint8

const (
	DestIncrement DestControl = iota
	DestDecrement
	DestFixed
	DestIncrementReload // increments per unit, reloads to the original DstAddr when the transfer repeats
)

// SrcControl selects how SrcAddr moves after each unit transferred.
type SrcControl uint8

const (
	SrcIncrement SrcControl = iota
	SrcDecrement
	SrcFixed
	SrcProhibited // reserved setting; treated as SrcFixed
)

// StartTiming selects which scheduler/console signal kicks a channel off.
type StartTiming uint8

const (
	TimingImmediate StartTiming = iota
	TimingVBlank
	TimingHBlank
	TimingSpecial // audio FIFO refill / capture, driven explicitly by internal/console
)

// Channel is one DMA channel's full register state.
type Channel struct {
	SrcAddr   uint32
	DstAddr   uint32
	WordCount uint32 // 0 is treated as the maximum (0x10000), per hardware convention

	ControlBits uint32 // raw register value, for readback
	DestCtrl    DestControl
	SrcCtrl     SrcControl
	Repeat      bool
	Size32      bool
	Timing      StartTiming
	IRQEnable   bool
	Enabled     bool

	origDst uint32 // snapshot for DestIncrementReload
}

func (ch *Channel) setControl(bits uint32) {
	wasEnabled := ch.Enabled
	ch.ControlBits = bits
	ch.DestCtrl = DestControl((bits >> 21) & 0x3)
	ch.SrcCtrl = SrcControl((bits >> 23) & 0x3)
	ch.Repeat = bits&(1<<25) != 0
	ch.Size32 = bits&(1<<26) != 0
	ch.Timing = StartTiming((bits >> 28) & 0x3)
	ch.IRQEnable = bits&(1<<30) != 0
	ch.Enabled = bits&(1<<31) != 0

	if ch.Enabled && !wasEnabled {
		// Caller (Bank.Trigger) runs immediate transfers right after
		// WriteIO8 returns.
		ch.origDst = ch.DstAddr
	}
}

func effectiveCount(wc uint32) uint32 {
	if wc == 0 {
		return 0x10000
	}
	return wc
}

// run performs the transfer for one channel, charging every access to b
// with AccessDMA; Trigger requests the completion IRQ afterwards.
func (ch *Channel) run(b *bus.Bus) {
	unit := uint32(2)
	if ch.Size32 {
		unit = 4
	}
	count := effectiveCount(ch.WordCount)
	src, dst := ch.SrcAddr, ch.DstAddr
	for i := uint32(0); i < count; i++ {
		if ch.Size32 {
			b.Write32(bus.AccessDMA, dst, b.Read32(bus.AccessDMA, src))
		} else {
			b.Write16(bus.AccessDMA, dst, b.Read16(bus.AccessDMA, src))
		}
		if ch.SrcCtrl == SrcIncrement {
			src += unit
		} else if ch.SrcCtrl == SrcDecrement {
			src -= unit
		}
		switch ch.DestCtrl {
		case DestIncrement, DestIncrementReload:
			dst += unit
		case DestDecrement:
			dst -= unit
		}
	}
	ch.SrcAddr = src
	ch.DstAddr = dst

	if ch.Repeat && ch.Timing != TimingImmediate {
		if ch.DestCtrl == DestIncrementReload {
			ch.DstAddr = ch.origDst
		}
	} else {
		ch.Enabled = false
		ch.ControlBits &^= 1 << 31
	}
}

// Bank owns the four DMA channels belonging to one CPU.
type Bank struct {
	Channels [4]Channel
	IRQs     *irq.Controller
	Sources  [4]irq.Source
}

// NewBank returns a Bank with all channels disabled, wired to report
// completion to irqs using the four given sources.
func NewBank(irqs *irq.Controller, sources [4]irq.Source) *Bank {
	return &Bank{IRQs: irqs, Sources: sources}
}

// Trigger runs every enabled channel whose Timing matches timing. Called
// by internal/console at immediate-write time, and at vblank/hblank/
// audio-FIFO boundaries.
func (bk *Bank) Trigger(b *bus.Bus, timing StartTiming) {
	for i := range bk.Channels {
		ch := &bk.Channels[i]
		if !ch.Enabled || ch.Timing != timing {
			continue
		}
		ch.run(b)
		if ch.IRQEnable && bk.IRQs != nil {
			bk.IRQs.Request(bk.Sources[i])
		}
	}
}

// ReadIO8/WriteIO8 expose four 12-byte blocks: SrcAddr (0-3), DstAddr
// (4-7), WordCount (8-9, 16-bit) and Control (10-11, 16-bit, the upper 16
// bits of ControlBits that setControl's bit layout above decodes, the way
// real DMAxCNT_H does, so offset 10 maps to bits 16-23 and offset 11 to
// bits 24-31).
func (bk *Bank) ReadIO8(offset uint32) uint8 {
	i := offset / 12
	if i > 3 {
		return 0
	}
	ch := &bk.Channels[i]
	switch offset % 12 {
	case 0, 1, 2, 3:
		return byte(ch.SrcAddr >> (8 * (offset % 12)))
	case 4, 5, 6, 7:
		return byte(ch.DstAddr >> (8 * (offset%12 - 4)))
	case 8:
		return byte(ch.WordCount)
	case 9:
		return byte(ch.WordCount >> 8)
	case 10:
		return byte(ch.ControlBits >> 16)
	case 11:
		return byte(ch.ControlBits >> 24)
	default:
		return 0
	}
}

func (bk *Bank) WriteIO8(offset uint32, value uint8) {
	i := offset / 12
	if i > 3 {
		return
	}
	ch := &bk.Channels[i]
	switch offset % 12 {
	case 0, 1, 2, 3:
		shift := uint(8 * (offset % 12))
		ch.SrcAddr = (ch.SrcAddr &^ (0xFF << shift)) | (uint32(value) << shift)
	case 4, 5, 6, 7:
		shift := uint(8 * (offset%12 - 4))
		ch.DstAddr = (ch.DstAddr &^ (0xFF << shift)) | (uint32(value) << shift)
	case 8:
		ch.WordCount = (ch.WordCount & 0xFF00) | uint32(value)
	case 9:
		ch.WordCount = (ch.WordCount & 0x00FF) | uint32(value)<<8
	case 10:
		bits := (ch.ControlBits &^ (0xFF << 16)) | (uint32(value) << 16)
		ch.setControl(bits)
	case 11:
		bits := (ch.ControlBits &^ (0xFF << 24)) | (uint32(value) << 24)
		ch.setControl(bits)
	}
}

// Visit walks every field of Channel, including the DestIncrementReload
// destination snapshot: without it, reloading a save-state mid-repeat
// would lose track of where the next repeat should reload the
// destination from.
func (ch *Channel) Visit(v savestate.Visitor) {
	v.U32(&ch.SrcAddr)
	v.U32(&ch.DstAddr)
	v.U32(&ch.WordCount)
	v.U32(&ch.ControlBits)
	savestate.VisitU8Enum(v, &ch.DestCtrl)
	savestate.VisitU8Enum(v, &ch.SrcCtrl)
	v.Bool(&ch.Repeat)
	v.Bool(&ch.Size32)
	savestate.VisitU8Enum(v, &ch.Timing)
	v.Bool(&ch.IRQEnable)
	v.Bool(&ch.Enabled)
	v.U32(&ch.origDst)
}

// Visit walks Bank's four channels. IRQs and Sources are wiring, not
// save-state (spec.md §3's lifecycle note on preserved collaborators).
func (bk *Bank) Visit(v savestate.Visitor) {
	for i := range bk.Channels {
		bk.Channels[i].Visit(v)
	}
}
