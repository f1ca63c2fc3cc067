package cpu9

import "nitro-core-dx/internal/bus"

// accessResult reports whether an MPU-checked access succeeded, so the
// caller can raise the matching abort exception (spec.md §4.3
// "Exceptions").
type accessResult struct {
	value uint32
	ok    bool
	cycles uint32
}

// fetch32/fetch16 perform a code-space access: TCM fast path first (zero
// extra cost beyond the 1-cycle ITCM charge), then MPU-gated bus access.
func (c *CPU) fetch32(addr uint32) accessResult {
	if c.CP.inITCM(addr) {
		off := (addr - c.CP.ITCMBase) % uint32(len(c.ITCM))
		v := u32le(c.ITCM[off:])
		return accessResult{value: v, ok: true, cycles: 1}
	}
	perm := c.MPU.Check(addr, c.Regs.Mode().Privileged())
	if !perm.Execute {
		c.lastFaultAddr = addr
		return accessResult{ok: false}
	}
	v := c.Bus.Read32(bus.AccessCPU, addr)
	return accessResult{value: v, ok: true, cycles: c.Bus.LastCycleCost}
}

func (c *CPU) fetch16(addr uint32) accessResult {
	if c.CP.inITCM(addr) {
		off := (addr - c.CP.ITCMBase) % uint32(len(c.ITCM))
		v := uint32(c.ITCM[off]) | uint32(c.ITCM[off+1])<<8
		return accessResult{value: v, ok: true, cycles: 1}
	}
	perm := c.MPU.Check(addr, c.Regs.Mode().Privileged())
	if !perm.Execute {
		c.lastFaultAddr = addr
		return accessResult{ok: false}
	}
	v := c.Bus.Read16(bus.AccessCPU, addr)
	return accessResult{value: uint32(v), ok: true, cycles: c.Bus.LastCycleCost}
}

// readData/writeData perform a data-space access with the same MPU/TCM
// fast-path rules, per spec.md §4.2 "TCM and caches".
func (c *CPU) readData32(addr uint32) accessResult {
	if c.CP.inDTCM(addr) {
		off := (addr - c.CP.DTCMBase) % uint32(len(c.DTCM))
		return accessResult{value: u32le(c.DTCM[off:]), ok: true, cycles: 1}
	}
	perm := c.MPU.Check(addr, c.Regs.Mode().Privileged())
	if !perm.Read {
		c.lastFaultAddr = addr
		return accessResult{ok: false}
	}
	v := c.Bus.Read32(bus.AccessCPU, addr)
	return accessResult{value: v, ok: true, cycles: c.Bus.LastCycleCost}
}

func (c *CPU) writeData32(addr, value uint32) (ok bool, cycles uint32) {
	if c.CP.inDTCM(addr) {
		off := (addr - c.CP.DTCMBase) % uint32(len(c.DTCM))
		putU32le(c.DTCM[off:], value)
		return true, 1
	}
	perm := c.MPU.Check(addr, c.Regs.Mode().Privileged())
	if !perm.Write {
		c.lastFaultAddr = addr
		return false, 0
	}
	c.Bus.Write32(bus.AccessCPU, addr, value)
	return true, c.Bus.LastCycleCost
}

func (c *CPU) readData16(addr uint32) accessResult {
	if c.CP.inDTCM(addr) {
		off := (addr - c.CP.DTCMBase) % uint32(len(c.DTCM))
		return accessResult{value: uint32(c.DTCM[off]) | uint32(c.DTCM[off+1])<<8, ok: true, cycles: 1}
	}
	perm := c.MPU.Check(addr, c.Regs.Mode().Privileged())
	if !perm.Read {
		c.lastFaultAddr = addr
		return accessResult{ok: false}
	}
	v := c.Bus.Read16(bus.AccessCPU, addr)
	return accessResult{value: uint32(v), ok: true, cycles: c.Bus.LastCycleCost}
}

func (c *CPU) writeData16(addr uint32, value uint16) (ok bool, cycles uint32) {
	if c.CP.inDTCM(addr) {
		off := (addr - c.CP.DTCMBase) % uint32(len(c.DTCM))
		c.DTCM[off] = uint8(value)
		c.DTCM[off+1] = uint8(value >> 8)
		return true, 1
	}
	perm := c.MPU.Check(addr, c.Regs.Mode().Privileged())
	if !perm.Write {
		c.lastFaultAddr = addr
		return false, 0
	}
	c.Bus.Write16(bus.AccessCPU, addr, value)
	return true, c.Bus.LastCycleCost
}

func (c *CPU) readData8(addr uint32) accessResult {
	if c.CP.inDTCM(addr) {
		off := (addr - c.CP.DTCMBase) % uint32(len(c.DTCM))
		return accessResult{value: uint32(c.DTCM[off]), ok: true, cycles: 1}
	}
	perm := c.MPU.Check(addr, c.Regs.Mode().Privileged())
	if !perm.Read {
		c.lastFaultAddr = addr
		return accessResult{ok: false}
	}
	v := c.Bus.Read8(bus.AccessCPU, addr)
	return accessResult{value: uint32(v), ok: true, cycles: c.Bus.LastCycleCost}
}

func (c *CPU) writeData8(addr uint32, value uint8) (ok bool, cycles uint32) {
	if c.CP.inDTCM(addr) {
		off := (addr - c.CP.DTCMBase) % uint32(len(c.DTCM))
		c.DTCM[off] = value
		return true, 1
	}
	perm := c.MPU.Check(addr, c.Regs.Mode().Privileged())
	if !perm.Write {
		c.lastFaultAddr = addr
		return false, 0
	}
	c.Bus.Write8(bus.AccessCPU, addr, value)
	return true, c.Bus.LastCycleCost
}

// loadWordRotated implements spec.md §4.3 "Load word rotates the fetched
// word by (addr & 3) * 8 bits; misaligned loads are thus defined."
func loadWordRotated(word, addr uint32) uint32 {
	rot := (addr & 3) * 8
	return word>>rot | word<<(32-rot)
}

func u32le(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func putU32le(b []byte, v uint32) {
	b[0] = uint8(v)
	b[1] = uint8(v >> 8)
	b[2] = uint8(v >> 16)
	b[3] = uint8(v >> 24)
}
