package cpu9

// Coprocessor models the CP15-style control coprocessor: MPU region
// definition, cache enable, TCM base/size, and the high-vector flag
// (spec.md §4.3 "Coprocessor").
type Coprocessor struct {
	CacheEnabled bool
	HighVectors  bool

	ITCMBase uint32
	ITCMSize uint32
	ITCMEnabled bool

	DTCMBase uint32
	DTCMSize uint32
	DTCMEnabled bool

	mpu *MPU
}

// NewCoprocessor returns reset-state coprocessor registers: ITCM fixed at
// address 0 (spec.md §4.2 "the instruction TCM is at a fixed physical
// aperture"), DTCM unplaced until configured.
func NewCoprocessor() Coprocessor {
	return Coprocessor{
		ITCMBase:    0,
		ITCMSize:    32 * 1024,
		ITCMEnabled: true,
	}
}

// VectorBase returns the exception vector base address: the low
// aperture (0x0000_0000) or the high aperture (0xFFFF_0000) depending on
// the HighVectors flag.
func (cp *Coprocessor) VectorBase() uint32 {
	if cp.HighVectors {
		return 0xFFFF_0000
	}
	return 0
}

// bindMPU lets the owning CPU hand the coprocessor a pointer to its MPU,
// so that region-defining coprocessor writes can rebuild the permission
// map in place (spec.md: "Writes to MPU-defining registers rebuild the
// permission map").
func (cp *Coprocessor) bindMPU(m *MPU) { cp.mpu = m }

// WriteRegionBaseSize sets region i's base/size and re-derives its
// containment, per the real coprocessor's CP15 region registers.
func (cp *Coprocessor) WriteRegionBaseSize(i int, base, size uint32, enabled bool) {
	if i < 0 || i >= len(cp.mpu.Regions) {
		return
	}
	r := &cp.mpu.Regions[i]
	r.Base, r.Size, r.Enabled = base, size, enabled
}

// WriteRegionPermissions sets region i's access-control bits.
func (cp *Coprocessor) WriteRegionPermissions(i int, userR, userW, userX, privR, privW, privX bool) {
	if i < 0 || i >= len(cp.mpu.Regions) {
		return
	}
	r := &cp.mpu.Regions[i]
	r.UserRead, r.UserWrite, r.UserExec = userR, userW, userX
	r.PrivRead, r.PrivWrite, r.PrivExec = privR, privW, privX
}

// inITCM/inDTCM report whether addr falls in the currently configured
// TCM aperture; both bypass cache/MPU timing per spec.md §4.2.
func (cp *Coprocessor) inITCM(addr uint32) bool {
	return cp.ITCMEnabled && addr >= cp.ITCMBase && addr < cp.ITCMBase+cp.ITCMSize
}

func (cp *Coprocessor) inDTCM(addr uint32) bool {
	return cp.DTCMEnabled && addr >= cp.DTCMBase && addr < cp.DTCMBase+cp.DTCMSize
}
