package cpu7

import (
	"testing"

	"nitro-core-dx/internal/bus"
)

type romStub struct{}

func (romStub) ReadROM8(addr uint32) uint8 { return 0 }

func newTestCPU() *CPU {
	b := bus.New(romStub{})
	return New(b)
}

func encodeDP(opcode uint32, sBit bool, rn, rd int, imm uint32) uint32 {
	w := uint32(0xE0000000) | opcode<<21 | uint32(rn)<<16 | uint32(rd)<<12 | (imm & 0xFF) | 0x0200_0000
	if sBit {
		w |= 0x0010_0000
	}
	return w
}

// TestDataProcessingHasNoInterlock checks that, unlike cpu9, a
// register-producing instruction followed immediately by a consumer
// never stalls (spec.md §4.4 "no interlocks").
func TestDataProcessingHasNoInterlock(t *testing.T) {
	c := newTestCPU()
	c.Regs.R[0] = 41

	add := encodeDP(0x4, false, 0, 1, 1) // ADD R1, R0, #1
	c.executeARM(PipelineEntry{Word: add, Valid: true})
	if c.Regs.R[1] != 42 {
		t.Fatalf("want R1=42, got %d", c.Regs.R[1])
	}

	before := c.BusCycle
	use := encodeDP(0x4, false, 1, 2, 1) // ADD R2, R1, #1
	c.executeARM(PipelineEntry{Word: use, Valid: true})
	if c.Regs.R[2] != 43 {
		t.Fatalf("want R2=43, got %d", c.Regs.R[2])
	}
	if c.BusCycle != before {
		t.Fatalf("execute must not itself advance BusCycle (no interlocks): before=%d after=%d", before, c.BusCycle)
	}
}

// TestNoMPUEverySubsystemMemoryIsAccessible checks that, lacking an MPU,
// the I/O CPU can write and read back any mapped address regardless of
// mode.
func TestNoMPUEverySubsystemMemoryIsAccessible(t *testing.T) {
	c := newTestCPU()
	c.Regs.SetMode(ModeUser)
	c.writeData32(0x0200_0000, 0x1122_3344)
	r := c.readData32(0x0200_0000)
	if r.value != 0x1122_3344 {
		t.Fatalf("want 0x11223344, got %#x", r.value)
	}
}

// TestHalfClockAdvancesBusCycleSlower checks the fetch accounting halves
// the charged cycle count relative to a CPU9-rate access of the same
// region (spec.md §4.4 "half the application-CPU rate").
func TestHalfClockAdvancesBusCycleSlower(t *testing.T) {
	c := newTestCPU()
	c.Regs.R[15] = 0x0200_0000
	c.flushPipeline(0x0200_0000)

	before := c.BusCycle
	c.fetchDecodeExecuteOne()
	if c.BusCycle <= before {
		t.Fatalf("fetch must still cost some bus cycles, got before=%d after=%d", before, c.BusCycle)
	}
	// Three word fetches (pipeline refill plus one) at full rate, plus one
	// cycle for the failed condition of the zero word at 0x02000000.
	full := 3*uint64(c.Bus.LastCycleCost) + 1
	if got := c.BusCycle - before; got >= full {
		t.Fatalf("I/O CPU charged %d cycles, want fewer than the full-rate %d", got, full)
	}
}

func TestBranchSwitchesState(t *testing.T) {
	c := newTestCPU()
	c.Branch(0x0200_0100, true)
	if !c.Regs.Thumb() {
		t.Fatalf("Branch(thumb=true) must set the T flag")
	}
	if c.Regs.R[15] != 0x0200_0100 {
		t.Fatalf("want PC=0x02000100, got %#x", c.Regs.R[15])
	}
}

func TestExceptionEntersLowVectorAndAbortMode(t *testing.T) {
	c := newTestCPU()
	c.Regs.SetMode(ModeUser)
	c.raise(ExcDataAbort, 0x0200_0100)
	if c.Regs.Mode() != ModeAbort {
		t.Fatalf("want ModeAbort, got %v", c.Regs.Mode())
	}
	if c.Regs.R[15] != 0x10 {
		t.Fatalf("want PC at vector 0x10, got %#x", c.Regs.R[15])
	}
}
