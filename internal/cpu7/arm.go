package cpu7

// executeARM decodes and executes one ARM-state instruction word for the
// I/O CPU: the same data-processing/branch/transfer/multiply families as
// cpu9, minus MCR/MRC (no coprocessor) and long multiply-accumulate
// (spec.md §4.4 "minus the application-CPU-only instructions").
func (c *CPU) executeARM(p PipelineEntry) {
	w := p.Word
	switch {
	case w&0x0FFF_FFF0 == 0x012F_FF10: // BX
		c.armBranchExchange(w)
	case w&0x0E00_0000 == 0x0A00_0000: // B/BL
		c.armBranch(w, p.Addr)
	case w&0x0FC0_00F0 == 0x0000_0090: // MUL/MLA
		c.armMultiply(w)
	case w&0x0FB0_0FF0 == 0x0100_0090: // SWP/SWPB, not modeled
		c.armUndefined(p)
	case w&0x0DB0_F000 == 0x0120_F000 && (w&0x0200_0000 != 0 || w&0x0000_0FF0 == 0): // MSR
		c.armMSR(w)
	case w&0x0FBF_0FFF == 0x010F_0000: // MRS
		c.armMRS(w)
	case w&0x0C00_0000 == 0x0000_0000:
		c.armDataProcessing(w)
	case w&0x0E00_0010 == 0x0600_0010:
		c.armUndefined(p)
	case w&0x0C00_0000 == 0x0400_0000:
		c.armSingleTransfer(w)
	case w&0x0E00_0000 == 0x0800_0000:
		c.armBlockTransfer(w)
	case w&0x0F00_0000 == 0x0F00_0000:
		c.armSWI(p.Addr)
	default:
		c.armUndefined(p)
	}
}

func (c *CPU) armUndefined(p PipelineEntry) {
	c.raise(ExcUndefined, p.Addr)
}

func (c *CPU) armSWI(addr uint32) {
	c.raise(ExcSoftwareInterrupt, addr)
}

func barrelShift(value uint32, shiftType uint8, amount uint8, carryIn bool) (result uint32, carryOut bool) {
	switch shiftType {
	case 0: // LSL
		if amount == 0 {
			return value, carryIn
		}
		if amount >= 32 {
			if amount == 32 {
				return 0, value&1 != 0
			}
			return 0, false
		}
		return value << amount, (value>>(32-amount))&1 != 0
	case 1: // LSR
		if amount == 0 || amount == 32 {
			return 0, value>>31 != 0
		}
		if amount > 32 {
			return 0, false
		}
		return value >> amount, (value>>(amount-1))&1 != 0
	case 2: // ASR
		sv := int32(value)
		if amount == 0 || amount >= 32 {
			if sv < 0 {
				return 0xFFFF_FFFF, true
			}
			return 0, false
		}
		return uint32(sv >> amount), (value>>(amount-1))&1 != 0
	default: // ROR / RRX
		if amount == 0 {
			out := value&1 != 0
			return (value >> 1) | boolBit(carryIn, 31), out
		}
		amount %= 32
		if amount == 0 {
			return value, value>>31 != 0
		}
		return value>>amount | value<<(32-amount), (value>>(amount-1))&1 != 0
	}
}

func boolBit(b bool, pos uint) uint32 {
	if b {
		return 1 << pos
	}
	return 0
}

func (c *CPU) operand2(w uint32) (value uint32, carryOut bool) {
	if w&0x0200_0000 != 0 {
		imm := w & 0xFF
		rot := (w >> 8) & 0xF * 2
		if rot == 0 {
			return imm, c.Regs.flag(FlagC)
		}
		v, co := barrelShift(imm, 3, uint8(rot), c.Regs.flag(FlagC))
		return v, co
	}
	rm := int(w & 0xF)
	shiftType := uint8((w >> 5) & 3)
	var amount uint8
	if w&0x10 != 0 {
		rs := int((w >> 8) & 0xF)
		amount = uint8(c.Regs.R[rs] & 0xFF)
	} else {
		amount = uint8((w >> 7) & 0x1F)
	}
	return barrelShift(c.Regs.R[rm], shiftType, amount, c.Regs.flag(FlagC))
}

func (c *CPU) armDataProcessing(w uint32) {
	opcode := (w >> 21) & 0xF
	sBit := w&0x0010_0000 != 0
	rn := int((w >> 16) & 0xF)
	rd := int((w >> 12) & 0xF)

	op2, shiftCarry := c.operand2(w)
	a := c.Regs.R[rn]
	var result uint32
	var carry, overflow bool
	isLogical := true

	switch opcode {
	case 0x0:
		result = a & op2
	case 0x1:
		result = a ^ op2
	case 0x2:
		result, carry, overflow = subWithFlags(a, op2)
		isLogical = false
	case 0x3:
		result, carry, overflow = subWithFlags(op2, a)
		isLogical = false
	case 0x4:
		result, carry, overflow = addWithFlags(a, op2)
		isLogical = false
	case 0x5:
		result, carry, overflow = addWithFlags(a, op2+boolU32(c.Regs.flag(FlagC)))
		isLogical = false
	case 0x6:
		result, carry, overflow = subWithFlags(a, op2+1-boolU32(c.Regs.flag(FlagC)))
		isLogical = false
	case 0x7:
		result, carry, overflow = subWithFlags(op2, a+1-boolU32(c.Regs.flag(FlagC)))
		isLogical = false
	case 0x8:
		result = a & op2
	case 0x9:
		result = a ^ op2
	case 0xA:
		result, carry, overflow = subWithFlags(a, op2)
		isLogical = false
	case 0xB:
		result, carry, overflow = addWithFlags(a, op2)
		isLogical = false
	case 0xC:
		result = a | op2
	case 0xD:
		result = op2
	case 0xE:
		result = a &^ op2
	case 0xF:
		result = ^op2
	}

	isTestOnly := opcode >= 0x8 && opcode <= 0xB
	if sBit {
		c.Regs.setFlag(FlagZ, result == 0)
		c.Regs.setFlag(FlagN, result&0x8000_0000 != 0)
		if isLogical {
			c.Regs.setFlag(FlagC, shiftCarry)
		} else {
			c.Regs.setFlag(FlagC, carry)
			c.Regs.setFlag(FlagV, overflow)
		}
		if rd == 15 {
			if spsr := c.Regs.SPSR(); spsr != nil {
				c.Regs.WriteCPSR(*spsr, 0xFFFF_FFFF)
			}
		}
	}

	if !isTestOnly {
		c.Regs.R[rd] = result
		if rd == 15 {
			c.flushPipeline(result &^ 3)
		}
	}
}

func subWithFlags(a, b uint32) (result uint32, carry, overflow bool) {
	result = a - b
	carry = a >= b
	overflow = (a^b)&0x8000_0000 != 0 && (a^result)&0x8000_0000 != 0
	return
}

func addWithFlags(a, b uint32) (result uint32, carry, overflow bool) {
	sum := uint64(a) + uint64(b)
	result = uint32(sum)
	carry = sum > 0xFFFF_FFFF
	overflow = (a^result)&0x8000_0000 != 0 && (b^result)&0x8000_0000 != 0
	return
}

func boolU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func (c *CPU) armBranch(w uint32, addr uint32) {
	link := w&0x0100_0000 != 0
	offset := int32(w&0xFF_FFFF) << 8 >> 6
	target := uint32(int32(addr) + 8 + offset)
	if link {
		c.Regs.R[14] = addr + 4
	}
	c.Branch(target, false)
}

func (c *CPU) armBranchExchange(w uint32) {
	rm := int(w & 0xF)
	target := c.Regs.R[rm]
	c.Branch(target&^1, target&1 != 0)
}

func (c *CPU) armMultiply(w uint32) {
	accumulate := w&0x0020_0000 != 0
	sBit := w&0x0010_0000 != 0
	rd := int((w >> 16) & 0xF)
	rn := int((w >> 12) & 0xF)
	rs := int((w >> 8) & 0xF)
	rm := int(w & 0xF)

	result := c.Regs.R[rm] * c.Regs.R[rs]
	if accumulate {
		result += c.Regs.R[rn]
	}
	c.Regs.R[rd] = result
	if sBit {
		c.Regs.setFlag(FlagZ, result == 0)
		c.Regs.setFlag(FlagN, result&0x8000_0000 != 0)
	}
}

func (c *CPU) armMRS(w uint32) {
	rd := int((w >> 12) & 0xF)
	useSPSR := w&0x0040_0000 != 0
	if useSPSR {
		if spsr := c.Regs.SPSR(); spsr != nil {
			c.Regs.R[rd] = *spsr
		}
	} else {
		c.Regs.R[rd] = c.Regs.CPSR
	}
}

func (c *CPU) armMSR(w uint32) {
	useSPSR := w&0x0040_0000 != 0
	var value uint32
	if w&0x0200_0000 != 0 {
		imm := w & 0xFF
		rot := (w >> 8) & 0xF * 2
		value = imm
		if rot != 0 {
			value, _ = barrelShift(imm, 3, uint8(rot), false)
		}
	} else {
		rm := int(w & 0xF)
		value = c.Regs.R[rm]
	}

	var mask uint32
	fieldMask := (w >> 16) & 0xF
	if fieldMask&1 != 0 {
		mask |= 0x0000_00FF
	}
	if fieldMask&8 != 0 {
		mask |= 0xFF00_0000
	}
	if useSPSR {
		if spsr := c.Regs.SPSR(); spsr != nil {
			*spsr = (*spsr &^ mask) | (value & mask)
		}
		return
	}
	c.Regs.WriteCPSR(value, mask)
}

func (c *CPU) armSingleTransfer(w uint32) {
	immediate := w&0x0200_0000 == 0
	pre := w&0x0100_0000 != 0
	up := w&0x0080_0000 != 0
	byteXfer := w&0x0040_0000 != 0
	writeback := w&0x0020_0000 != 0
	load := w&0x0010_0000 != 0
	rn := int((w >> 16) & 0xF)
	rd := int((w >> 12) & 0xF)

	var offset uint32
	if immediate {
		offset = w & 0xFFF
	} else {
		offset, _ = c.operand2(w &^ 0x0200_0000)
	}

	base := c.Regs.R[rn]
	var addr uint32
	if up {
		addr = base + offset
	} else {
		addr = base - offset
	}
	effective := base
	if pre {
		effective = addr
	}

	if load {
		if byteXfer {
			r := c.readData8(effective)
			c.Regs.R[rd] = r.value
			c.DataCycles += r.cycles
		} else {
			r := c.readData32(effective)
			c.Regs.R[rd] = loadWordRotated(r.value, effective)
			c.DataCycles += r.cycles
		}
		if rd == 15 {
			c.flushPipeline(c.Regs.R[rd] &^ 3)
		}
	} else {
		if byteXfer {
			c.DataCycles += c.writeData8(effective, uint8(c.Regs.R[rd]))
		} else {
			c.DataCycles += c.writeData32(effective, c.Regs.R[rd])
		}
	}

	if writeback || !pre {
		c.Regs.R[rn] = addr
	}
}

func (c *CPU) armBlockTransfer(w uint32) {
	pre := w&0x0100_0000 != 0
	up := w&0x0080_0000 != 0
	writeback := w&0x0020_0000 != 0
	load := w&0x0010_0000 != 0
	rn := int((w >> 16) & 0xF)
	mask := w & 0xFFFF

	addr := c.Regs.R[rn]
	count := popcount16(uint16(mask))
	var lowest, highest uint32
	if up {
		lowest = addr
		highest = addr + uint32(count)*4
	} else {
		lowest = addr - uint32(count)*4
		highest = addr
	}
	cur := lowest
	if (up && pre) || (!up && !pre) {
		cur += 4
	}

	for reg := 0; reg < 16; reg++ {
		if mask&(1<<uint(reg)) == 0 {
			continue
		}
		if load {
			r := c.readData32(cur)
			c.Regs.R[reg] = r.value
			c.DataCycles += r.cycles
			if reg == 15 {
				c.flushPipeline(r.value &^ 3)
			}
		} else {
			c.DataCycles += c.writeData32(cur, c.Regs.R[reg])
		}
		cur += 4
	}

	if writeback {
		if up {
			c.Regs.R[rn] = highest
		} else {
			c.Regs.R[rn] = lowest
		}
	}
}

func popcount16(v uint16) int {
	n := 0
	for v != 0 {
		n += int(v & 1)
		v >>= 1
	}
	return n
}
