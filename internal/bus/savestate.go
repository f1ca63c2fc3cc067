package bus

import "nitro-core-dx/internal/savestate"

// Visit walks the Bus's own RAM-backed state. BIOS9/BIOS7/ROM are
// boot-time collaborators (loaded images, not produced by emulation) and
// ioRegions is wiring rebuilt by RegisterIO at construction, so none of
// the three are visited here, per spec.md §3's lifecycle note.
func (b *Bus) Visit(v savestate.Visitor) {
	v.Bytes(b.MainRAM[:])
	v.Bytes(b.SharedWRAM[:])
	v.Bytes(b.ARM7WRAM[:])
	v.Bytes(b.Palette[:])
	v.Bytes(b.VRAM[:])
	v.Bytes(b.OAM[:])
	savestate.VisitU8Enum(v, &b.WRAMCtl)
	v.U32(&b.OpenBus)
	v.U32(&b.LastCycleCost)
}
