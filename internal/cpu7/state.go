// Package cpu7 implements the I/O CPU: the same ARMv4T+Thumb instruction
// set as internal/cpu9 minus its application-CPU-only facilities — no
// MPU, no TCM, no interlocks, no caches, and no long multiply-accumulate,
// saturation, or coprocessor instructions. Its clock advances at half the
// application CPU's rate. It reuses cpu9's decode shape (pipeline,
// exception dispatch, barrel shifter) stripped down, rather than
// importing cpu9 directly, since every stripped concern also removes a
// struct field cpu9 depends on internally.
package cpu7

import "nitro-core-dx/internal/bus"

// Mode mirrors cpu9.Mode; the I/O CPU implements the same seven modes (no FIQ-specific banking beyond what ARMv4T defines).
type Mode uint8

const (
	ModeUser Mode = iota
	ModeFIQ
	ModeIRQ
	ModeSupervisor
	ModeAbort
	ModeUndefined
	ModeSystem
)

func (m Mode) Privileged() bool { return m != ModeUser }

const (
	FlagT = 5
	FlagF = 6
	FlagI = 7
	FlagV = 28
	FlagC = 29
	FlagZ = 30
	FlagN = 31
)

const modeMask = 0x1F

var modeBits = map[Mode]uint32{
	ModeUser:       0x10,
	ModeFIQ:        0x11,
	ModeIRQ:        0x12,
	ModeSupervisor: 0x13,
	ModeAbort:      0x17,
	ModeUndefined:  0x1B,
	ModeSystem:     0x1F,
}

var bitsToMode = map[uint32]Mode{
	0x10: ModeUser,
	0x11: ModeFIQ,
	0x12: ModeIRQ,
	0x13: ModeSupervisor,
	0x17: ModeAbort,
	0x1B: ModeUndefined,
	0x1F: ModeSystem,
}

// PipelineEntry mirrors cpu9's; pipeline modeling is optional for the I/O
// CPU per spec.md §4.4, but kept here for timing fidelity with DMA/IRQ
// interplay.
type PipelineEntry struct {
	Word    uint32
	Addr    uint32
	IsThumb bool
	Valid   bool
}

// Registers is the same base+banked-registers shape as cpu9.Registers,
// including FIQ's banked r8-r14 (FIQBank), kept for mode-switch
// correctness.
type Registers struct {
	R [16]uint32

	FIQBank [7]uint32
	IRQBank [2]uint32
	SVCBank [2]uint32
	ABTBank [2]uint32
	UNDBank [2]uint32

	CPSR                                        uint32
	SPSRFIQ, SPSRIRQ, SPSRSVC, SPSRABT, SPSRUND uint32
}

func (r *Registers) Mode() Mode {
	m, ok := bitsToMode[r.CPSR&modeMask]
	if !ok {
		return ModeUser
	}
	return m
}

func (r *Registers) SetMode(m Mode) {
	cur := r.Mode()
	r.storeBank(cur)
	r.CPSR = (r.CPSR &^ modeMask) | modeBits[m]
	r.loadBank(m)
}

func (r *Registers) storeBank(m Mode) {
	switch m {
	case ModeFIQ:
		copy(r.FIQBank[:], r.R[8:15])
	case ModeIRQ:
		copy(r.IRQBank[:], r.R[13:15])
	case ModeSupervisor:
		copy(r.SVCBank[:], r.R[13:15])
	case ModeAbort:
		copy(r.ABTBank[:], r.R[13:15])
	case ModeUndefined:
		copy(r.UNDBank[:], r.R[13:15])
	}
}

func (r *Registers) loadBank(m Mode) {
	switch m {
	case ModeFIQ:
		copy(r.R[8:15], r.FIQBank[:])
	case ModeIRQ:
		copy(r.R[13:15], r.IRQBank[:])
	case ModeSupervisor:
		copy(r.R[13:15], r.SVCBank[:])
	case ModeAbort:
		copy(r.R[13:15], r.ABTBank[:])
	case ModeUndefined:
		copy(r.R[13:15], r.UNDBank[:])
	}
}

func (r *Registers) SPSR() *uint32 {
	switch r.Mode() {
	case ModeFIQ:
		return &r.SPSRFIQ
	case ModeIRQ:
		return &r.SPSRIRQ
	case ModeSupervisor:
		return &r.SPSRSVC
	case ModeAbort:
		return &r.SPSRABT
	case ModeUndefined:
		return &r.SPSRUND
	default:
		return nil
	}
}

func (r *Registers) flag(bit uint8) bool { return r.CPSR&(1<<bit) != 0 }
func (r *Registers) setFlag(bit uint8, v bool) {
	if v {
		r.CPSR |= 1 << bit
	} else {
		r.CPSR &^= 1 << bit
	}
}

func (r *Registers) Thumb() bool     { return r.flag(FlagT) }
func (r *Registers) SetThumb(v bool) { r.setFlag(FlagT, v) }

func (r *Registers) WriteCPSR(value, mask uint32) {
	if !r.Mode().Privileged() {
		mask &= 0xF000_0000
	}
	newMode := r.Mode()
	if mask&modeMask != 0 {
		if m, ok := bitsToMode[value&modeMask]; ok {
			newMode = m
		}
	}
	merged := (r.CPSR &^ mask) | (value & mask)
	if newMode != r.Mode() {
		r.storeBank(r.Mode())
		r.CPSR = merged
		r.loadBank(newMode)
		return
	}
	r.CPSR = merged
}

// CPU is the I/O-CPU interpreter: the same register file and exception
// model as cpu9, but with no MPU, no TCM, no interlock table, and a half
// clock rate (spec.md §4.4 "Simpler: ... Its clock advances at half the
// application-CPU rate" — modeled by step.go halving the fetch and data
// cycles it charges to BusCycle).
type CPU struct {
	Regs Registers

	Pipeline [2]PipelineEntry

	DataCycles uint32
	BusCycle   uint64

	Bus *bus.Bus

	IRQLine bool
	FIQLine bool
	Halted  bool
}

// New creates an I/O CPU wired to b.
func New(b *bus.Bus) *CPU {
	c := &CPU{Bus: b}
	c.Reset()
	return c
}

// Reset reconstructs CPU state to hardware reset values.
func (c *CPU) Reset() {
	c.Regs = Registers{}
	c.Regs.CPSR = modeBits[ModeSupervisor] | 1<<FlagI | 1<<FlagF
	c.Pipeline = [2]PipelineEntry{}
	c.DataCycles = 0
	c.BusCycle = 0
	c.Halted = false
	c.flushPipeline(0)
}
