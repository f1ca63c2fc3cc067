package cpu9

// executeARM decodes and executes one ARM-state instruction word. It
// covers the instruction families spec.md §4.3/§6 names explicitly: data
// processing, branch/branch-exchange, single and block data transfer,
// multiply, software interrupt, and status-register/coprocessor
// transfers. Register naming for the ALU ports follows the
// Gopher2600 ARM7TDMI interpreter's decode-table approach from the
// retrieval pack.
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
	case w&0x0F00_0010 == 0x0E00_0000 || w&0x0F00_0010 == 0x0E00_0010:
		c.armCoprocessor(w)
	default:
		c.armUndefined(p)
	}
}

func (c *CPU) armUndefined(p PipelineEntry) {
	c.raise(ExcUndefined, p.Addr)
}

func (c *CPU) armSWI(addr uint32) {
	c.stall(sourceSpec{})
	c.raise(ExcSoftwareInterrupt, addr)
}

// barrelShift applies one of the four ARM shift types and returns the
// shifted value plus the carry-out bit (used by S-suffixed
// data-processing instructions).
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
			// RRX: rotate right through carry by one bit
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

// operand2 evaluates the shifter operand of a data-processing instruction.
func (c *CPU) operand2(w uint32) (value uint32, carryOut bool, rs []int) {
	if w&0x0200_0000 != 0 { // immediate
		imm := w & 0xFF
		rot := (w >> 8) & 0xF * 2
		if rot == 0 {
			return imm, c.Regs.flag(FlagC), nil
		}
		v, co := barrelShift(imm, 3, uint8(rot), c.Regs.flag(FlagC))
		return v, co, nil
	}
	rm := int(w & 0xF)
	shiftType := uint8((w >> 5) & 3)
	var amount uint8
	regShift := w&0x10 != 0
	if regShift {
		rs0 := int((w >> 8) & 0xF)
		amount = uint8(c.Regs.R[rs0] & 0xFF)
		rs = []int{rm, rs0}
	} else {
		amount = uint8((w >> 7) & 0x1F)
		rs = []int{rm}
	}
	v, co := barrelShift(c.Regs.R[rm], shiftType, amount, c.Regs.flag(FlagC))
	return v, co, rs
}

func (c *CPU) armDataProcessing(w uint32) {
	opcode := (w >> 21) & 0xF
	sBit := w&0x0010_0000 != 0
	rn := int((w >> 16) & 0xF)
	rd := int((w >> 12) & 0xF)

	op2, shiftCarry, shiftSrcs := c.operand2(w)
	srcs := append([]int{rn}, shiftSrcs...)
	ports := make([]Port, len(srcs))
	for i := range ports {
		ports[i] = PortA
	}
	c.stall(sourceSpec{regs: srcs, ports: ports})

	a := c.Regs.R[rn]
	var result uint32
	var carry, overflow bool
	isLogical := true

	switch opcode {
	case 0x0: // AND
		result = a & op2
	case 0x1: // EOR
		result = a ^ op2
	case 0x2: // SUB
		result, carry, overflow = subWithFlags(a, op2)
		isLogical = false
	case 0x3: // RSB
		result, carry, overflow = subWithFlags(op2, a)
		isLogical = false
	case 0x4: // ADD
		result, carry, overflow = addWithFlags(a, op2)
		isLogical = false
	case 0x5: // ADC
		result, carry, overflow = addWithFlags(a, op2+boolU32(c.Regs.flag(FlagC)))
		isLogical = false
	case 0x6: // SBC
		result, carry, overflow = subWithFlags(a, op2+1-boolU32(c.Regs.flag(FlagC)))
		isLogical = false
	case 0x7: // RSC
		result, carry, overflow = subWithFlags(op2, a+1-boolU32(c.Regs.flag(FlagC)))
		isLogical = false
	case 0x8: // TST
		result = a & op2
	case 0x9: // TEQ
		result = a ^ op2
	case 0xA: // CMP
		result, carry, overflow = subWithFlags(a, op2)
		isLogical = false
	case 0xB: // CMN
		result, carry, overflow = addWithFlags(a, op2)
		isLogical = false
	case 0xC: // ORR
		result = a | op2
	case 0xD: // MOV
		result = op2
	case 0xE: // BIC
		result = a &^ op2
	case 0xF: // MVN
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
		c.Interlocks.MarkReadyAllPorts(rd, c.BusCycle+latencyALU)
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
	c.stall(sourceSpec{})
	link := w&0x0100_0000 != 0
	offset := int32(w&0xFF_FFFF) << 8 >> 6 // sign-extend 24-bit, *4
	target := uint32(int32(addr) + 8 + offset)
	if link {
		c.Regs.R[14] = addr + 4
	}
	c.Branch(target, false)
}

func (c *CPU) armBranchExchange(w uint32) {
	rm := int(w & 0xF)
	c.stall(sourceSpec{regs: []int{rm}, ports: []Port{PortA}})
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

	srcs := []int{rm, rs}
	ports := []Port{PortA, PortB}
	if accumulate {
		srcs = append(srcs, rn)
		ports = append(ports, PortC)
	}
	c.stall(sourceSpec{regs: srcs, ports: ports})

	result := c.Regs.R[rm] * c.Regs.R[rs]
	if accumulate {
		result += c.Regs.R[rn]
	}
	c.Regs.R[rd] = result
	c.Interlocks.MarkReadyAllPorts(rd, c.BusCycle+latencyMul)
	if sBit {
		c.Regs.setFlag(FlagZ, result == 0)
		c.Regs.setFlag(FlagN, result&0x8000_0000 != 0)
	}
}

func (c *CPU) armMRS(w uint32) {
	rd := int((w >> 12) & 0xF)
	useSPSR := w&0x0040_0000 != 0
	c.stall(sourceSpec{})
	if useSPSR {
		if spsr := c.Regs.SPSR(); spsr != nil {
			c.Regs.R[rd] = *spsr
		}
	} else {
		c.Regs.R[rd] = c.Regs.CPSR
	}
	c.Interlocks.MarkReadyAllPorts(rd, c.BusCycle+latencyALU)
}

func (c *CPU) armMSR(w uint32) {
	useSPSR := w&0x0040_0000 != 0
	var value uint32
	var srcs []int
	if w&0x0200_0000 != 0 { // immediate
		imm := w & 0xFF
		rot := (w >> 8) & 0xF * 2
		value = imm
		if rot != 0 {
			value, _ = barrelShift(imm, 3, uint8(rot), false)
		}
	} else {
		rm := int(w & 0xF)
		value = c.Regs.R[rm]
		srcs = []int{rm}
	}
	ports := make([]Port, len(srcs))
	c.stall(sourceSpec{regs: srcs, ports: ports})

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
	var shiftSrcs []int
	if immediate {
		offset = w & 0xFFF
	} else {
		offset, _, shiftSrcs = c.operand2(w &^ 0x0200_0000)
	}

	srcRegs := append([]int{rn}, shiftSrcs...)
	ports := make([]Port, len(srcRegs))
	for i := range ports {
		ports[i] = PortA
	}
	if !load {
		srcRegs = append(srcRegs, rd)
		ports = append(ports, PortB)
	}
	c.stall(sourceSpec{regs: srcRegs, ports: ports})

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
			if !r.ok {
				c.raise(ExcDataAbort, c.Pipeline[0].Addr)
				return
			}
			c.Regs.R[rd] = r.value
			c.DataCycles += r.cycles
		} else {
			r := c.readData32(effective)
			if !r.ok {
				c.raise(ExcDataAbort, c.Pipeline[0].Addr)
				return
			}
			c.Regs.R[rd] = loadWordRotated(r.value, effective)
			c.DataCycles += r.cycles
		}
		c.Interlocks.MarkReadyAllPorts(rd, c.BusCycle+latencyLoad)
		if rd == 15 {
			c.flushPipeline(c.Regs.R[rd] &^ 3)
		}
	} else {
		var ok bool
		var cyc uint32
		if byteXfer {
			ok, cyc = c.writeData8(effective, uint8(c.Regs.R[rd]))
		} else {
			ok, cyc = c.writeData32(effective, c.Regs.R[rd])
		}
		if !ok {
			c.raise(ExcDataAbort, c.Pipeline[0].Addr)
			return
		}
		c.DataCycles += cyc
	}

	if writeback || !pre {
		c.Regs.R[rn] = addr
		c.Interlocks.MarkReadyAllPorts(rn, c.BusCycle+latencyALU)
	}
}

// armBlockTransfer implements LDM/STM, walking the register bitmask in
// ascending order (spec.md §4.3 "Memory instructions"): a data abort
// mid-sequence still completes accesses that have started.
func (c *CPU) armBlockTransfer(w uint32) {
	pre := w&0x0100_0000 != 0
	up := w&0x0080_0000 != 0
	writeback := w&0x0020_0000 != 0
	load := w&0x0010_0000 != 0
	rn := int((w >> 16) & 0xF)
	mask := w & 0xFFFF

	c.stall(sourceSpec{regs: []int{rn}, ports: []Port{PortA}})

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
			if !r.ok {
				c.raise(ExcDataAbort, c.Pipeline[0].Addr)
				return
			}
			c.Regs.R[reg] = r.value
			c.DataCycles += r.cycles
			c.Interlocks.MarkReadyAllPorts(reg, c.BusCycle+latencyLoad)
			if reg == 15 {
				c.flushPipeline(r.value &^ 3)
			}
		} else {
			ok, cyc := c.writeData32(cur, c.Regs.R[reg])
			if !ok {
				c.raise(ExcDataAbort, c.Pipeline[0].Addr)
				return
			}
			c.DataCycles += cyc
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

// armCoprocessor implements MCR/MRC against the CP15-style coprocessor
// for MPU region definition, cache enable, TCM bases/sizes, and the
// high-vector flag (spec.md §4.3 "Coprocessor").
func (c *CPU) armCoprocessor(w uint32) {
	toCoproc := w&0x0010_0000 == 0 // MCR when bit 20 clear
	crn := (w >> 16) & 0xF
	rd := int((w >> 12) & 0xF)
	crm := w & 0xF

	c.stall(sourceSpec{})

	if toCoproc {
		value := c.Regs.R[rd]
		switch crn {
		case 1:
			c.CP.CacheEnabled = value&1 != 0
			c.CP.HighVectors = value&0x2000 != 0
		case 6: // region base/size, indexed by crm
			enabled := value&1 != 0
			size := uint32(2) << ((value >> 1) & 0x1F)
			base := value &^ 0xFFF
			c.CP.WriteRegionBaseSize(int(crm), base, size, enabled)
		case 9: // TCM base registers
			if crm == 1 {
				c.CP.DTCMBase = value &^ 0xFFF
				c.CP.DTCMSize = uint32(512) << ((value >> 1) & 0x1F)
				c.CP.DTCMEnabled = true
			} else {
				c.CP.ITCMBase = value &^ 0xFFF
				c.CP.ITCMEnabled = true
			}
		case 5: // access permission bits for region crm
			userR := value&1 != 0
			userW := value&2 != 0
			userX := value&4 != 0
			privR := value&8 != 0
			privW := value&16 != 0
			privX := value&32 != 0
			c.CP.WriteRegionPermissions(int(crm), userR, userW, userX, privR, privW, privX)
		}
	} else {
		var value uint32
		switch crn {
		case 1:
			if c.CP.CacheEnabled {
				value |= 1
			}
			if c.CP.HighVectors {
				value |= 0x2000
			}
		}
		c.Regs.R[rd] = value
		c.Interlocks.MarkReadyAllPorts(rd, c.BusCycle+latencyALU)
	}
}
