package cpu9

// ExceptionClass enumerates the seven classes spec.md §4.3 names.
type ExceptionClass int

const (
	ExcReset ExceptionClass = iota
	ExcUndefined
	ExcSoftwareInterrupt
	ExcPrefetchAbort
	ExcDataAbort
	ExcIRQ
	ExcFIQ
)

// vectorOffset and linkOffset reproduce spec.md §6's "exception vector
// offsets (0, 4, 8, C, 10, 18, 1C)" and the per-class resumption-address
// deltas from the current instruction address.
var vectorOffset = map[ExceptionClass]uint32{
	ExcReset:             0x00,
	ExcUndefined:         0x04,
	ExcSoftwareInterrupt: 0x08,
	ExcPrefetchAbort:     0x0C,
	ExcDataAbort:         0x10,
	ExcIRQ:               0x18,
	ExcFIQ:               0x1C,
}

var targetMode = map[ExceptionClass]Mode{
	ExcReset:             ModeSupervisor,
	ExcUndefined:         ModeUndefined,
	ExcSoftwareInterrupt: ModeSupervisor,
	ExcPrefetchAbort:     ModeAbort,
	ExcDataAbort:         ModeAbort,
	ExcIRQ:               ModeIRQ,
	ExcFIQ:               ModeFIQ,
}

// linkOffset is added to the PC of the instruction that caused (or was
// about to be executed at the point of) the exception to compute the
// value stored in the target mode's link register.
func linkOffset(class ExceptionClass, thumb bool) uint32 {
	instrSize := uint32(4)
	if thumb {
		instrSize = 2
	}
	switch class {
	case ExcSoftwareInterrupt, ExcUndefined:
		return instrSize
	case ExcPrefetchAbort:
		return instrSize * 2
	case ExcDataAbort:
		return instrSize * 2
	case ExcIRQ, ExcFIQ:
		return instrSize * 2
	default:
		return 0
	}
}

// raise dispatches an exception per spec.md §4.3 "Exceptions": save CPSR
// to the target mode's SPSR, switch mode, mask interrupts as hardware
// requires, set LR to the resumption address, jump to vector_base +
// offset, and reload the pipeline in ARM state.
func (c *CPU) raise(class ExceptionClass, pcOfCurrentInstr uint32) {
	savedCPSR := c.Regs.CPSR
	thumb := c.Regs.Thumb()

	c.Regs.SetMode(targetMode[class])
	if spsr := c.Regs.SPSR(); spsr != nil {
		*spsr = savedCPSR
	}

	c.Regs.SetThumb(false)
	c.Regs.setFlag(FlagI, true)
	if class == ExcReset || class == ExcFIQ {
		c.Regs.setFlag(FlagF, true)
	}

	c.Regs.R[14] = pcOfCurrentInstr + linkOffset(class, thumb)
	target := c.CP.VectorBase() + vectorOffset[class]
	c.flushPipeline(target)
}

// flushPipeline discards both pipeline entries and begins refetching at
// addr, in ARM state if addr's mode (Thumb flag) says so; callers that
// need ARM-state reload after an exception set Thumb=false first.
func (c *CPU) flushPipeline(addr uint32) {
	c.Regs.R[15] = addr
	c.Pipeline[0] = PipelineEntry{}
	c.Pipeline[1] = PipelineEntry{}
}
