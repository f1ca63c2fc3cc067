package timers

import (
	"testing"

	"nitro-core-dx/internal/irq"
)

func TestTimerOverflowsAndReloads(t *testing.T) {
	bk := NewBank(irq.New(), [4]irq.Source{irq.SourceTimer0, irq.SourceTimer1, irq.SourceTimer2, irq.SourceTimer3})
	bk.Timers[0].Reload = 0xFFF0
	bk.Timers[0].Prescaler = 0
	bk.Timers[0].Running = true
	bk.Timers[0].Counter = bk.Timers[0].Reload

	bk.Step(16) // exactly fills the counter to 0x10000 and overflows once
	if bk.Timers[0].Counter != bk.Timers[0].Reload {
		t.Fatalf("counter = %#x, want reload %#x after overflow", bk.Timers[0].Counter, bk.Timers[0].Reload)
	}
}

func TestTimerRequestsIRQOnOverflowWhenEnabled(t *testing.T) {
	ctl := irq.New()
	ctl.MasterEnable = true
	ctl.Enable |= 1 << uint(irq.SourceTimer0)
	bk := NewBank(ctl, [4]irq.Source{irq.SourceTimer0, irq.SourceTimer1, irq.SourceTimer2, irq.SourceTimer3})
	bk.Timers[0].Reload = 0xFFFF
	bk.Timers[0].Counter = 0xFFFF
	bk.Timers[0].IRQEnable = true
	bk.Timers[0].Running = true

	bk.Step(1)
	if !ctl.Line() {
		t.Fatalf("expected IRQ line asserted after timer 0 overflow")
	}
}

func TestCountUpChainsOffLowerTimerOverflow(t *testing.T) {
	bk := NewBank(irq.New(), [4]irq.Source{irq.SourceTimer0, irq.SourceTimer1, irq.SourceTimer2, irq.SourceTimer3})
	bk.Timers[0].Reload = 0xFFFF
	bk.Timers[0].Counter = 0xFFFF
	bk.Timers[0].Running = true

	bk.Timers[1].CountUp = true
	bk.Timers[1].Running = true
	bk.Timers[1].Counter = 5

	bk.Step(1) // timer 0 overflows this tick, timer 1 should tick once
	if bk.Timers[1].Counter != 6 {
		t.Fatalf("count-up timer 1 counter = %d, want 6", bk.Timers[1].Counter)
	}
}

func TestPrescalerDividesCyclesBeforeIncrementing(t *testing.T) {
	bk := NewBank(irq.New(), [4]irq.Source{irq.SourceTimer0, irq.SourceTimer1, irq.SourceTimer2, irq.SourceTimer3})
	bk.Timers[0].Prescaler = 1 // /64
	bk.Timers[0].Running = true
	bk.Timers[0].Counter = 0

	bk.Step(63)
	if bk.Timers[0].Counter != 0 {
		t.Fatalf("counter advanced before a full prescaler period elapsed: %d", bk.Timers[0].Counter)
	}
	bk.Step(1)
	if bk.Timers[0].Counter != 1 {
		t.Fatalf("counter = %d, want 1 after exactly one prescaler period", bk.Timers[0].Counter)
	}
}

func TestWriteControlStartingStoppedTimerReloadsCounter(t *testing.T) {
	bk := NewBank(irq.New(), [4]irq.Source{irq.SourceTimer0, irq.SourceTimer1, irq.SourceTimer2, irq.SourceTimer3})
	bk.WriteIO8(0, 0x34)
	bk.WriteIO8(1, 0x12)
	bk.WriteIO8(2, 1<<7)
	if bk.Timers[0].Counter != 0x1234 {
		t.Fatalf("counter = %#x, want 0x1234 after start", bk.Timers[0].Counter)
	}
}
