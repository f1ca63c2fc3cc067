package cpu9

// RegionDescriptor is one of the MPU's eight protectable regions
// (spec.md §3/§4.3).
type RegionDescriptor struct {
	Enabled    bool
	Base       uint32
	Size       uint32 // must be a power of two, per real-hardware MPU semantics
	UserRead   bool
	UserWrite  bool
	UserExec   bool
	PrivRead   bool
	PrivWrite  bool
	PrivExec   bool
}

func (d RegionDescriptor) contains(addr uint32) bool {
	return d.Enabled && addr >= d.Base && addr < d.Base+d.Size
}

// MPU is an address -> (read, write, execute) function indexed by
// privilege level, derived from eight region descriptors (spec.md §3).
type MPU struct {
	Regions [8]RegionDescriptor
	Enabled bool
}

// NewMPU returns an MPU with all regions disabled (hardware reset state;
// a disabled MPU grants full access everywhere).
func NewMPU() MPU { return MPU{} }

// Permission is the result of a permission check for one access.
type Permission struct {
	Read, Write, Execute bool
}

// Check derives permissions for addr at the given privilege. When the
// MPU is disabled, full access is granted — matching real hardware's
// "MPU off" fallback; when it is enabled and no region covers addr, no
// access is granted. When multiple regions
// overlap, the highest-indexed enabled region wins (later regions take
// priority), matching the real coprocessor's region-priority rule.
func (m *MPU) Check(addr uint32, privileged bool) Permission {
	if !m.Enabled {
		return Permission{true, true, true}
	}
	for i := len(m.Regions) - 1; i >= 0; i-- {
		d := m.Regions[i]
		if !d.contains(addr) {
			continue
		}
		if privileged {
			return Permission{d.PrivRead, d.PrivWrite, d.PrivExec}
		}
		return Permission{d.UserRead, d.UserWrite, d.UserExec}
	}
	return Permission{false, false, false}
}
