package cpu7

import "nitro-core-dx/internal/bus"

// accessResult mirrors cpu9's, minus the MPU-failure case (the I/O CPU
// has no MPU, so every access succeeds at the bus level).
type accessResult struct {
	value  uint32
	cycles uint32
}

func (c *CPU) fetch32(addr uint32) accessResult {
	v := c.Bus.Read32(bus.AccessCPU, addr)
	return accessResult{value: v, cycles: c.Bus.LastCycleCost}
}

func (c *CPU) fetch16(addr uint32) accessResult {
	v := c.Bus.Read16(bus.AccessCPU, addr)
	return accessResult{value: uint32(v), cycles: c.Bus.LastCycleCost}
}

func (c *CPU) readData32(addr uint32) accessResult {
	v := c.Bus.Read32(bus.AccessCPU, addr)
	return accessResult{value: v, cycles: c.Bus.LastCycleCost}
}

func (c *CPU) writeData32(addr, value uint32) uint32 {
	c.Bus.Write32(bus.AccessCPU, addr, value)
	return c.Bus.LastCycleCost
}

func (c *CPU) readData16(addr uint32) accessResult {
	v := c.Bus.Read16(bus.AccessCPU, addr)
	return accessResult{value: uint32(v), cycles: c.Bus.LastCycleCost}
}

func (c *CPU) writeData16(addr uint32, value uint16) uint32 {
	c.Bus.Write16(bus.AccessCPU, addr, value)
	return c.Bus.LastCycleCost
}

func (c *CPU) readData8(addr uint32) accessResult {
	v := c.Bus.Read8(bus.AccessCPU, addr)
	return accessResult{value: uint32(v), cycles: c.Bus.LastCycleCost}
}

func (c *CPU) writeData8(addr uint32, value uint8) uint32 {
	c.Bus.Write8(bus.AccessCPU, addr, value)
	return c.Bus.LastCycleCost
}

// loadWordRotated mirrors cpu9's misaligned-load rule (spec.md §4.3,
// shared verbatim by the I/O CPU's load-word instruction).
func loadWordRotated(word, addr uint32) uint32 {
	rot := (addr & 3) * 8
	return word>>rot | word<<(32-rot)
}
