package cpu7

import "nitro-core-dx/internal/savestate"

// Visit walks one pipeline slot's decoded-or-fetched instruction.
func (p *PipelineEntry) Visit(v savestate.Visitor) {
	v.U32(&p.Word)
	v.U32(&p.Addr)
	v.Bool(&p.IsThumb)
	v.Bool(&p.Valid)
}

// Visit walks every register bank, mirroring cpu9.Registers.Visit.
func (r *Registers) Visit(v savestate.Visitor) {
	for i := range r.R {
		v.U32(&r.R[i])
	}
	for i := range r.FIQBank {
		v.U32(&r.FIQBank[i])
	}
	for i := range r.IRQBank {
		v.U32(&r.IRQBank[i])
	}
	for i := range r.SVCBank {
		v.U32(&r.SVCBank[i])
	}
	for i := range r.ABTBank {
		v.U32(&r.ABTBank[i])
	}
	for i := range r.UNDBank {
		v.U32(&r.UNDBank[i])
	}
	v.U32(&r.CPSR)
	v.U32(&r.SPSRFIQ)
	v.U32(&r.SPSRIRQ)
	v.U32(&r.SPSRSVC)
	v.U32(&r.SPSRABT)
	v.U32(&r.SPSRUND)
}

// Visit walks the full I/O-CPU state. Bus is a collaborator wired at
// construction, preserved across a load rather than captured by it.
func (c *CPU) Visit(v savestate.Visitor) {
	c.Regs.Visit(v)
	for i := range c.Pipeline {
		c.Pipeline[i].Visit(v)
	}
	v.U32(&c.DataCycles)
	v.U64(&c.BusCycle)
	v.Bool(&c.IRQLine)
	v.Bool(&c.FIQLine)
	v.Bool(&c.Halted)
}
