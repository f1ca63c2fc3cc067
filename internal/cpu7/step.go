package cpu7

// Step runs the I/O CPU for up to budget bus cycles, following the same
// five-step loop as cpu9.Step minus interlock application (spec.md §4.4:
// "no MPU, no TCM, no interlocks, no caches").
func (c *CPU) Step(budget uint64) {
	target := c.BusCycle + budget
	for c.BusCycle < target {
		if c.Halted {
			if !c.IRQLine && !c.FIQLine {
				c.BusCycle = target
				return
			}
			c.Halted = false
		}

		if c.FIQLine && !c.Regs.flag(FlagF) {
			c.fetchDecodeExecuteOne()
			c.raise(ExcFIQ, c.Regs.R[15]-8)
			continue
		}
		if c.IRQLine && !c.Regs.flag(FlagI) {
			c.fetchDecodeExecuteOne()
			c.raise(ExcIRQ, c.Regs.R[15]-8)
			continue
		}

		c.fetchDecodeExecuteOne()
	}
}

func (c *CPU) fetchDecodeExecuteOne() {
	thumb := c.Regs.Thumb()
	instrSize := uint32(4)
	if thumb {
		instrSize = 2
	}

	if !c.Pipeline[0].Valid {
		c.refillBoth()
	}

	current := c.Pipeline[0]
	c.Pipeline[0] = c.Pipeline[1]

	nextAddr := c.Regs.R[15]
	var fr accessResult
	if thumb {
		fr = c.fetch16(nextAddr)
	} else {
		fr = c.fetch32(nextAddr)
	}
	c.Pipeline[1] = PipelineEntry{Word: fr.value, Addr: nextAddr, IsThumb: thumb, Valid: true}
	c.Regs.R[15] = nextAddr + instrSize
	c.BusCycle += uint64(fr.cycles+c.DataCycles) / 2
	c.DataCycles = 0

	if !current.Valid {
		return
	}
	if !c.conditionPasses(current) {
		c.BusCycle += 1
		return
	}
	if current.IsThumb {
		c.executeThumb(current)
	} else {
		c.executeARM(current)
	}
}

func (c *CPU) refillBoth() {
	thumb := c.Regs.Thumb()
	addr := c.Regs.R[15]
	instrSize := uint32(4)
	if thumb {
		instrSize = 2
	}
	var a, b accessResult
	if thumb {
		a = c.fetch16(addr)
		b = c.fetch16(addr + instrSize)
	} else {
		a = c.fetch32(addr)
		b = c.fetch32(addr + instrSize)
	}
	c.Pipeline[0] = PipelineEntry{Word: a.value, Addr: addr, IsThumb: thumb, Valid: true}
	c.Pipeline[1] = PipelineEntry{Word: b.value, Addr: addr + instrSize, IsThumb: thumb, Valid: true}
	c.Regs.R[15] = addr + instrSize*2
	c.BusCycle += uint64(a.cycles+b.cycles) / 2
}

// Branch redirects the pipeline to target in either ARM or Thumb state.
func (c *CPU) Branch(target uint32, thumb bool) {
	c.Regs.SetThumb(thumb)
	if thumb {
		target &^= 1
	} else {
		target &^= 3
	}
	c.flushPipeline(target)
}

type condCode uint8

const (
	condEQ condCode = iota
	condNE
	condCS
	condCC
	condMI
	condPL
	condVS
	condVC
	condHI
	condLS
	condGE
	condLT
	condGT
	condLE
	condAL
	condNV
)

func (c *CPU) conditionPasses(p PipelineEntry) bool {
	if p.IsThumb {
		return true
	}
	cc := condCode(p.Word >> 28)
	n := c.Regs.flag(FlagN)
	z := c.Regs.flag(FlagZ)
	cf := c.Regs.flag(FlagC)
	v := c.Regs.flag(FlagV)
	switch cc {
	case condEQ:
		return z
	case condNE:
		return !z
	case condCS:
		return cf
	case condCC:
		return !cf
	case condMI:
		return n
	case condPL:
		return !n
	case condVS:
		return v
	case condVC:
		return !v
	case condHI:
		return cf && !z
	case condLS:
		return !cf || z
	case condGE:
		return n == v
	case condLT:
		return n != v
	case condGT:
		return !z && n == v
	case condLE:
		return z || n != v
	case condAL:
		return true
	default:
		return false
	}
}
