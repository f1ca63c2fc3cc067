package dma

import (
	"testing"

	"nitro-core-dx/internal/bus"
	"nitro-core-dx/internal/irq"
)

func newTestBus() *bus.Bus {
	return bus.New(nil)
}

func TestImmediateTransferCopiesWordsAndDisablesOnCompletion(t *testing.T) {
	b := newTestBus()
	for i := uint32(0); i < 16; i++ {
		b.Write32(bus.AccessDebug, bus.MainRAMBase+i*4, 0x1000+i)
	}

	bk := NewBank(irq.New(), [4]irq.Source{irq.SourceDMA0, irq.SourceDMA1, irq.SourceDMA2, irq.SourceDMA3})
	ch := &bk.Channels[0]
	ch.SrcAddr = bus.MainRAMBase
	ch.DstAddr = bus.MainRAMBase + 0x1000
	ch.WordCount = 4
	ch.setControl(1 << 31) // size16, increment/increment, immediate, enabled

	bk.Trigger(b, TimingImmediate)

	for i := uint32(0); i < 8; i++ {
		got := b.Read8(bus.AccessDebug, bus.MainRAMBase+0x1000+i)
		want := b.Read8(bus.AccessDebug, bus.MainRAMBase+i)
		if got != want {
			t.Fatalf("byte %d = %#x, want %#x (copied from source)", i, got, want)
		}
	}
	if ch.Enabled {
		t.Fatalf("non-repeating channel should disable itself after completion")
	}
}

func TestWordCountZeroMeansMaximum(t *testing.T) {
	if effectiveCount(0) != 0x10000 {
		t.Fatalf("effectiveCount(0) = %#x, want 0x10000", effectiveCount(0))
	}
	if effectiveCount(5) != 5 {
		t.Fatalf("effectiveCount(5) = %d, want 5", effectiveCount(5))
	}
}

func TestTriggerSkipsChannelsWithMismatchedTiming(t *testing.T) {
	b := newTestBus()
	bk := NewBank(irq.New(), [4]irq.Source{irq.SourceDMA0, irq.SourceDMA1, irq.SourceDMA2, irq.SourceDMA3})
	ch := &bk.Channels[0]
	ch.WordCount = 1
	bits := uint32(1<<31) | uint32(TimingVBlank)<<28
	ch.setControl(bits)

	bk.Trigger(b, TimingImmediate)
	if !ch.Enabled {
		t.Fatalf("channel armed for vblank timing should not fire on an immediate trigger")
	}
	bk.Trigger(b, TimingVBlank)
	if ch.Enabled {
		t.Fatalf("channel should have fired and disabled on matching vblank trigger")
	}
}

func TestRepeatingChannelReloadsDestinationOnIncrementReload(t *testing.T) {
	b := newTestBus()
	bk := NewBank(irq.New(), [4]irq.Source{irq.SourceDMA0, irq.SourceDMA1, irq.SourceDMA2, irq.SourceDMA3})
	ch := &bk.Channels[0]
	ch.SrcAddr = bus.MainRAMBase
	ch.DstAddr = bus.MainRAMBase + 0x2000
	ch.WordCount = 4
	destIncReload := uint32(3)
	bits := uint32(1<<31) | 1<<25 | destIncReload<<21 | uint32(TimingVBlank)<<28
	ch.setControl(bits)

	bk.Trigger(b, TimingVBlank)
	if !ch.Enabled {
		t.Fatalf("repeating channel should remain enabled")
	}
	if ch.DstAddr != bus.MainRAMBase+0x2000 {
		t.Fatalf("DstAddr = %#x, want reload to original %#x", ch.DstAddr, bus.MainRAMBase+0x2000)
	}
}
