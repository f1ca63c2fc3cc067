package cpu7

// ExceptionClass mirrors cpu9's; the I/O CPU dispatches the same seven
// classes (it has no MPU, so data/prefetch aborts only arise from
// external bus faults reported by a peripheral, never from a permission
// check).
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

func linkOffset(class ExceptionClass, thumb bool) uint32 {
	instrSize := uint32(4)
	if thumb {
		instrSize = 2
	}
	switch class {
	case ExcSoftwareInterrupt, ExcUndefined:
		return instrSize
	default:
		return instrSize * 2
	}
}

// raise dispatches an exception the same way cpu9 does, always into the
// low vector aperture (the I/O CPU has no high-vector coprocessor bit).
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
	c.flushPipeline(vectorOffset[class])
}

func (c *CPU) flushPipeline(addr uint32) {
	c.Regs.R[15] = addr
	c.Pipeline[0] = PipelineEntry{}
	c.Pipeline[1] = PipelineEntry{}
}
