package cpu9

// Port identifies one of the three interlock ports spec.md §4.3/§6
// describes: Port A and Port B feed the ALU's two inputs, Port C feeds
// the multiply accumulator input.
type Port int

const (
	PortA Port = iota
	PortB
	PortC
)

// interlockRecord is the per-register (port_ab_ready_cycle,
// port_c_ready_cycle) pair from spec.md §3.
type interlockRecord struct {
	abReady uint64
	cReady  uint64
}

// InterlockTable tracks readiness for all 16 registers.
type InterlockTable struct {
	regs [16]interlockRecord
}

// ReadyAt returns the bus cycle at which reg becomes ready for the given
// port.
func (t *InterlockTable) ReadyAt(reg int, port Port) uint64 {
	if port == PortC {
		return t.regs[reg].cReady
	}
	return t.regs[reg].abReady
}

// MarkReady records that reg will be ready at cycle readyAt for the given
// port, per spec.md's "Destination registers are marked ready at
// bus_cycle + latency for each port they feed."
func (t *InterlockTable) MarkReady(reg int, port Port, readyAt uint64) {
	if port == PortC {
		t.regs[reg].cReady = readyAt
	} else {
		t.regs[reg].abReady = readyAt
	}
}

// MarkReadyAllPorts marks reg ready on every port at once, the common
// case for an ordinary data-processing or load result.
func (t *InterlockTable) MarkReadyAllPorts(reg int, readyAt uint64) {
	t.regs[reg] = interlockRecord{abReady: readyAt, cReady: readyAt}
}

// sourceSpec is the set of source registers (and which port each feeds)
// a single instruction form requires before it can issue.
type sourceSpec struct {
	regs  []int
	ports []Port
}

// stall advances c.BusCycle to the latest ready time among spec's
// sources, charging the difference plus any pending DataCycles as bus
// cycles (spec.md §4.3 "Interlocks (three ports)").
func (c *CPU) stall(spec sourceSpec) {
	target := c.BusCycle
	for i, reg := range spec.regs {
		if ready := c.Interlocks.ReadyAt(reg, spec.ports[i]); ready > target {
			target = ready
		}
	}
	if target > c.BusCycle {
		c.BusCycle = target
	}
	c.BusCycle += uint64(c.DataCycles)
	c.DataCycles = 0
}

// latency returns the destination-ready delay for a given instruction
// class. Single-cycle ALU results are ready immediately (latency 0);
// loads incur the documented one-cycle interlock offset from spec.md §8
// scenario 3 ("stall by exactly one cycle... interlock offset 1").
const (
	latencyALU  = 0
	latencyLoad = 1
	latencyMul  = 1
)
