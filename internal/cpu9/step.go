package cpu9

// Step runs the application CPU for up to budget bus cycles, or until an
// IRQ/FIQ is dispatched, following the five-step loop of spec.md §4.3
// "Execute loop". Scheduler event dispatch and DMA ownership are handled
// by the caller (internal/console); Step only consumes IRQLine/FIQLine
// and the instruction stream.
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
			// One orphan fetch first, matching the hardware prefetch
			// pipeline (spec.md §4.3 step 4).
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

// fetchDecodeExecuteOne implements step 5 of the execute loop: shift the
// pipeline, fetch the next instruction, decode and execute the one that
// was already resident.
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
	if !fr.ok {
		c.raise(ExcPrefetchAbort, current.Addr)
		return
	}
	c.Pipeline[1] = PipelineEntry{Word: fr.value, Addr: nextAddr, IsThumb: thumb, Valid: true}
	c.Regs.R[15] = nextAddr + instrSize
	c.DataCycles += fr.cycles

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
	c.Pipeline[0] = PipelineEntry{Word: a.value, Addr: addr, IsThumb: thumb, Valid: a.ok}
	c.Pipeline[1] = PipelineEntry{Word: b.value, Addr: addr + instrSize, IsThumb: thumb, Valid: b.ok}
	c.Regs.R[15] = addr + instrSize*2
	c.DataCycles += a.cycles + b.cycles
}

// Branch redirects the pipeline to target, in either ARM or Thumb state
// depending on thumb.
func (c *CPU) Branch(target uint32, thumb bool) {
	c.Regs.SetThumb(thumb)
	if thumb {
		target &^= 1
	} else {
		target &^= 3
	}
	c.flushPipeline(target)
}

// condition codes for ARM instructions (also used by a handful of Thumb
// conditional branches).
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
		return true // Thumb instructions are unconditional except B<cc>, handled inline
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
