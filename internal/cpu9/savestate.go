package cpu9

import "nitro-core-dx/internal/savestate"

// Visit walks one pipeline slot's decoded-or-fetched instruction.
func (p *PipelineEntry) Visit(v savestate.Visitor) {
	v.U32(&p.Word)
	v.U32(&p.Addr)
	v.Bool(&p.IsThumb)
	v.Bool(&p.Valid)
}

// Visit walks every register bank, including the ones not currently
// visible through r.R (spec.md §3: a register file visits its full bank
// set, not just the active mode's view).
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

// Visit walks the 16 per-register interlock readiness cycles.
func (t *InterlockTable) Visit(v savestate.Visitor) {
	for i := range t.regs {
		v.U64(&t.regs[i].abReady)
		v.U64(&t.regs[i].cReady)
	}
}

// Visit walks one MPU region descriptor.
func (d *RegionDescriptor) Visit(v savestate.Visitor) {
	v.Bool(&d.Enabled)
	v.U32(&d.Base)
	v.U32(&d.Size)
	v.Bool(&d.UserRead)
	v.Bool(&d.UserWrite)
	v.Bool(&d.UserExec)
	v.Bool(&d.PrivRead)
	v.Bool(&d.PrivWrite)
	v.Bool(&d.PrivExec)
}

// Visit walks all eight MPU regions and the global enable bit.
func (m *MPU) Visit(v savestate.Visitor) {
	for i := range m.Regions {
		m.Regions[i].Visit(v)
	}
	v.Bool(&m.Enabled)
}

// Visit walks the coprocessor's register state. mpu is a wiring pointer
// back to the owning CPU's own MPU (bound once at construction via
// bindMPU), not save-state.
func (cp *Coprocessor) Visit(v savestate.Visitor) {
	v.Bool(&cp.CacheEnabled)
	v.Bool(&cp.HighVectors)
	v.U32(&cp.ITCMBase)
	v.U32(&cp.ITCMSize)
	v.Bool(&cp.ITCMEnabled)
	v.U32(&cp.DTCMBase)
	v.U32(&cp.DTCMSize)
	v.Bool(&cp.DTCMEnabled)
}

// Visit walks the full application-CPU state: registers, pipeline,
// interlock table, MPU, coprocessor, both TCMs, and the fault-reporting
// address. Bus is a collaborator wired at construction, preserved across
// a load rather than captured by it (spec.md §3's lifecycle note).
func (c *CPU) Visit(v savestate.Visitor) {
	c.Regs.Visit(v)
	for i := range c.Pipeline {
		c.Pipeline[i].Visit(v)
	}
	v.U32(&c.DataCycles)
	v.U64(&c.BusCycle)
	c.Interlocks.Visit(v)
	c.MPU.Visit(v)
	c.CP.Visit(v)
	v.Bytes(c.ITCM[:])
	v.Bytes(c.DTCM[:])
	v.Bool(&c.IRQLine)
	v.Bool(&c.FIQLine)
	v.Bool(&c.Halted)
	v.U32(&c.lastFaultAddr)
}
