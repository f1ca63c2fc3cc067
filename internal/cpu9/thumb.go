package cpu9

// executeThumb decodes and executes one Thumb-state instruction halfword,
// covering spec.md §4.3's Thumb subset: register/immediate ALU ops,
// conditional and unconditional branches (including long BL), word
// load/store, push/pop, and software interrupt.
func (c *CPU) executeThumb(p PipelineEntry) {
	w := p.Word
	switch {
	case w&0xF800 == 0x1800: // ADD/SUB register or immediate (format 2)
		c.thumbAddSubRegImm(w)
	case w&0xE000 == 0x0000: // move shifted register (format 1)
		c.thumbShift(w)
	case w&0xE000 == 0x2000: // MOV/CMP/ADD/SUB immediate (format 3)
		c.thumbImmediateALU(w)
	case w&0xFC00 == 0x4000: // ALU register operation (format 4)
		c.thumbALU(w)
	case w&0xFC00 == 0x4400: // hi register ops / BX (format 5)
		c.thumbHiRegOps(w)
	case w&0xF800 == 0x4800: // PC-relative load (format 6)
		c.thumbPCRelativeLoad(w, p.Addr)
	case w&0xF200 == 0x5000: // load/store with register offset (format 7)
		c.thumbLoadStoreReg(w)
	case w&0xF200 == 0x5200: // load/store sign-extended byte/halfword (format 8)
		c.thumbLoadStoreSigned(w)
	case w&0xE000 == 0x6000: // load/store word/byte immediate offset (format 9)
		c.thumbLoadStoreImm(w)
	case w&0xF000 == 0x8000: // load/store halfword immediate offset (format 10)
		c.thumbLoadStoreHalfImm(w)
	case w&0xF000 == 0x9000: // SP-relative load/store (format 11)
		c.thumbSPRelative(w)
	case w&0xF000 == 0xA000: // load address (format 12)
		c.thumbLoadAddress(w, p.Addr)
	case w&0xFF00 == 0xB000: // add offset to SP (format 13)
		c.thumbAddSP(w)
	case w&0xF600 == 0xB400: // push/pop (format 14)
		c.thumbPushPop(w)
	case w&0xF000 == 0xC000: // multiple load/store (format 15)
		c.thumbMultiple(w)
	case w&0xFF00 == 0xDF00: // SWI (format 17)
		c.armSWI(p.Addr)
	case w&0xF000 == 0xD000: // conditional branch (format 16)
		c.thumbCondBranch(w, p.Addr)
	case w&0xF800 == 0xE000: // unconditional branch (format 18)
		c.thumbBranch(w, p.Addr)
	case w&0xF000 == 0xF000: // long branch with link (format 19)
		c.thumbBranchLink(w, p.Addr)
	default:
		c.armUndefined(p)
	}
}

func (c *CPU) thumbShift(w uint32) {
	op := (w >> 11) & 3
	amount := uint8((w >> 6) & 0x1F)
	rs := int((w >> 3) & 7)
	rd := int(w & 7)

	c.stall(sourceSpec{regs: []int{rs}, ports: []Port{PortA}})

	var shiftType uint8
	switch op {
	case 0:
		shiftType = 0 // LSL
	case 1:
		shiftType = 1 // LSR
	case 2:
		shiftType = 2 // ASR
	}
	v, carry := barrelShift(c.Regs.R[rs], shiftType, amount, c.Regs.flag(FlagC))
	if amount == 0 && shiftType != 0 {
		// LSR/ASR #0 means shift by 32
		v, carry = barrelShift(c.Regs.R[rs], shiftType, 32, c.Regs.flag(FlagC))
	}
	c.Regs.R[rd] = v
	c.Regs.setFlag(FlagC, carry)
	c.Regs.setFlag(FlagZ, v == 0)
	c.Regs.setFlag(FlagN, v&0x8000_0000 != 0)
	c.Interlocks.MarkReadyAllPorts(rd, c.BusCycle+latencyALU)
}

func (c *CPU) thumbAddSubRegImm(w uint32) {
	immFlag := w&0x0400 != 0
	subtract := w&0x0200 != 0
	rnOrImm := (w >> 6) & 7
	rs := int((w >> 3) & 7)
	rd := int(w & 7)

	srcs := []int{rs}
	ports := []Port{PortA}
	if !immFlag {
		srcs = append(srcs, int(rnOrImm))
		ports = append(ports, PortB)
	}
	c.stall(sourceSpec{regs: srcs, ports: ports})

	a := c.Regs.R[rs]
	var b uint32
	if immFlag {
		b = rnOrImm
	} else {
		b = c.Regs.R[rnOrImm]
	}

	var result uint32
	var carry, overflow bool
	if subtract {
		result, carry, overflow = subWithFlags(a, b)
	} else {
		result, carry, overflow = addWithFlags(a, b)
	}
	c.Regs.R[rd] = result
	c.Regs.setFlag(FlagZ, result == 0)
	c.Regs.setFlag(FlagN, result&0x8000_0000 != 0)
	c.Regs.setFlag(FlagC, carry)
	c.Regs.setFlag(FlagV, overflow)
	c.Interlocks.MarkReadyAllPorts(rd, c.BusCycle+latencyALU)
}

func (c *CPU) thumbImmediateALU(w uint32) {
	op := (w >> 11) & 3
	rd := int((w >> 8) & 7)
	imm := w & 0xFF

	c.stall(sourceSpec{regs: []int{rd}, ports: []Port{PortA}})

	a := c.Regs.R[rd]
	var result uint32
	var carry, overflow bool
	isTestOnly := false
	switch op {
	case 0: // MOV
		result = imm
	case 1: // CMP
		result, carry, overflow = subWithFlags(a, imm)
		isTestOnly = true
	case 2: // ADD
		result, carry, overflow = addWithFlags(a, imm)
	case 3: // SUB
		result, carry, overflow = subWithFlags(a, imm)
	}
	c.Regs.setFlag(FlagZ, result == 0)
	c.Regs.setFlag(FlagN, result&0x8000_0000 != 0)
	if op != 0 {
		c.Regs.setFlag(FlagC, carry)
		c.Regs.setFlag(FlagV, overflow)
	}
	if !isTestOnly {
		c.Regs.R[rd] = result
		c.Interlocks.MarkReadyAllPorts(rd, c.BusCycle+latencyALU)
	}
}

func (c *CPU) thumbALU(w uint32) {
	op := (w >> 6) & 0xF
	rs := int((w >> 3) & 7)
	rd := int(w & 7)

	c.stall(sourceSpec{regs: []int{rd, rs}, ports: []Port{PortA, PortB}})

	a := c.Regs.R[rd]
	b := c.Regs.R[rs]
	var result uint32
	var carry, overflow bool
	isTestOnly := false
	isLogical := true

	switch op {
	case 0x0: // AND
		result = a & b
	case 0x1: // EOR
		result = a ^ b
	case 0x2: // LSL
		result, carry = barrelShift(a, 0, uint8(b), c.Regs.flag(FlagC))
	case 0x3: // LSR
		result, carry = barrelShift(a, 1, uint8(b), c.Regs.flag(FlagC))
	case 0x4: // ASR
		result, carry = barrelShift(a, 2, uint8(b), c.Regs.flag(FlagC))
	case 0x5: // ADC
		result, carry, overflow = addWithFlags(a, b+boolU32(c.Regs.flag(FlagC)))
		isLogical = false
	case 0x6: // SBC
		result, carry, overflow = subWithFlags(a, b+1-boolU32(c.Regs.flag(FlagC)))
		isLogical = false
	case 0x7: // ROR
		result, carry = barrelShift(a, 3, uint8(b), c.Regs.flag(FlagC))
	case 0x8: // TST
		result = a & b
		isTestOnly = true
	case 0x9: // NEG
		result, carry, overflow = subWithFlags(0, b)
		isLogical = false
	case 0xA: // CMP
		result, carry, overflow = subWithFlags(a, b)
		isTestOnly = true
		isLogical = false
	case 0xB: // CMN
		result, carry, overflow = addWithFlags(a, b)
		isTestOnly = true
		isLogical = false
	case 0xC: // ORR
		result = a | b
	case 0xD: // MUL
		result = a * b
	case 0xE: // BIC
		result = a &^ b
	case 0xF: // MVN
		result = ^b
	}

	c.Regs.setFlag(FlagZ, result == 0)
	c.Regs.setFlag(FlagN, result&0x8000_0000 != 0)
	if !isLogical {
		c.Regs.setFlag(FlagC, carry)
		c.Regs.setFlag(FlagV, overflow)
	} else if op == 0x2 || op == 0x3 || op == 0x4 || op == 0x7 {
		c.Regs.setFlag(FlagC, carry)
	}
	if !isTestOnly {
		c.Regs.R[rd] = result
		c.Interlocks.MarkReadyAllPorts(rd, c.BusCycle+latencyALU)
	}
}

func (c *CPU) thumbHiRegOps(w uint32) {
	op := (w >> 8) & 3
	h1 := w&0x80 != 0
	h2 := w&0x40 != 0
	rs := int((w>>3)&7) + boolInt(h2)*8
	rd := int(w&7) + boolInt(h1)*8

	c.stall(sourceSpec{regs: []int{rs}, ports: []Port{PortA}})

	switch op {
	case 0: // ADD
		c.Regs.R[rd] += c.Regs.R[rs]
		if rd == 15 {
			c.flushPipeline(c.Regs.R[rd] &^ 1)
		}
	case 1: // CMP
		result, carry, overflow := subWithFlags(c.Regs.R[rd], c.Regs.R[rs])
		c.Regs.setFlag(FlagZ, result == 0)
		c.Regs.setFlag(FlagN, result&0x8000_0000 != 0)
		c.Regs.setFlag(FlagC, carry)
		c.Regs.setFlag(FlagV, overflow)
	case 2: // MOV
		c.Regs.R[rd] = c.Regs.R[rs]
		if rd == 15 {
			c.flushPipeline(c.Regs.R[rd] &^ 1)
		}
	case 3: // BX/BLX
		target := c.Regs.R[rs]
		c.Branch(target&^1, target&1 != 0)
	}
}

func (c *CPU) thumbPCRelativeLoad(w uint32, addr uint32) {
	rd := int((w >> 8) & 7)
	imm := (w & 0xFF) * 4
	c.stall(sourceSpec{})
	base := (addr + 4) &^ 3
	r := c.readData32(base + imm)
	if !r.ok {
		c.raise(ExcDataAbort, addr)
		return
	}
	c.Regs.R[rd] = r.value
	c.DataCycles += r.cycles
	c.Interlocks.MarkReadyAllPorts(rd, c.BusCycle+latencyLoad)
}

func (c *CPU) thumbLoadStoreReg(w uint32) {
	load := w&0x0800 != 0
	byteXfer := w&0x0400 != 0
	ro := int((w >> 6) & 7)
	rb := int((w >> 3) & 7)
	rd := int(w & 7)

	srcs := []int{rb, ro}
	ports := []Port{PortA, PortB}
	if !load {
		srcs = append(srcs, rd)
		ports = append(ports, PortC)
	}
	c.stall(sourceSpec{regs: srcs, ports: ports})

	addr := c.Regs.R[rb] + c.Regs.R[ro]
	if load {
		if byteXfer {
			r := c.readData8(addr)
			if !r.ok {
				c.raise(ExcDataAbort, addr)
				return
			}
			c.Regs.R[rd] = r.value
			c.DataCycles += r.cycles
		} else {
			r := c.readData32(addr)
			if !r.ok {
				c.raise(ExcDataAbort, addr)
				return
			}
			c.Regs.R[rd] = loadWordRotated(r.value, addr)
			c.DataCycles += r.cycles
		}
		c.Interlocks.MarkReadyAllPorts(rd, c.BusCycle+latencyLoad)
	} else {
		var ok bool
		var cyc uint32
		if byteXfer {
			ok, cyc = c.writeData8(addr, uint8(c.Regs.R[rd]))
		} else {
			ok, cyc = c.writeData32(addr, c.Regs.R[rd])
		}
		if !ok {
			c.raise(ExcDataAbort, addr)
			return
		}
		c.DataCycles += cyc
	}
}

func (c *CPU) thumbLoadStoreSigned(w uint32) {
	hFlag := w&0x0800 != 0
	signExtend := w&0x0400 != 0
	ro := int((w >> 6) & 7)
	rb := int((w >> 3) & 7)
	rd := int(w & 7)

	c.stall(sourceSpec{regs: []int{rb, ro}, ports: []Port{PortA, PortB}})
	addr := c.Regs.R[rb] + c.Regs.R[ro]

	switch {
	case !signExtend && !hFlag: // STRH
		ok, cyc := c.writeData16(addr, uint16(c.Regs.R[rd]))
		if !ok {
			c.raise(ExcDataAbort, addr)
			return
		}
		c.DataCycles += cyc
	case !signExtend && hFlag: // LDRH
		r := c.readData16(addr)
		if !r.ok {
			c.raise(ExcDataAbort, addr)
			return
		}
		c.Regs.R[rd] = r.value
		c.DataCycles += r.cycles
		c.Interlocks.MarkReadyAllPorts(rd, c.BusCycle+latencyLoad)
	case signExtend && !hFlag: // LDSB
		r := c.readData8(addr)
		if !r.ok {
			c.raise(ExcDataAbort, addr)
			return
		}
		c.Regs.R[rd] = signExtend8(uint8(r.value))
		c.DataCycles += r.cycles
		c.Interlocks.MarkReadyAllPorts(rd, c.BusCycle+latencyLoad)
	default: // LDSH
		r := c.readData16(addr)
		if !r.ok {
			c.raise(ExcDataAbort, addr)
			return
		}
		c.Regs.R[rd] = signExtend16(uint16(r.value))
		c.DataCycles += r.cycles
		c.Interlocks.MarkReadyAllPorts(rd, c.BusCycle+latencyLoad)
	}
}

func signExtend8(v uint8) uint32  { return uint32(int32(int8(v))) }
func signExtend16(v uint16) uint32 { return uint32(int32(int16(v))) }

func (c *CPU) thumbLoadStoreImm(w uint32) {
	byteXfer := w&0x1000 != 0
	load := w&0x0800 != 0
	imm := (w >> 6) & 0x1F
	rb := int((w >> 3) & 7)
	rd := int(w & 7)
	if !byteXfer {
		imm *= 4
	}

	srcs := []int{rb}
	ports := []Port{PortA}
	if !load {
		srcs = append(srcs, rd)
		ports = append(ports, PortB)
	}
	c.stall(sourceSpec{regs: srcs, ports: ports})

	addr := c.Regs.R[rb] + imm
	if load {
		if byteXfer {
			r := c.readData8(addr)
			if !r.ok {
				c.raise(ExcDataAbort, addr)
				return
			}
			c.Regs.R[rd] = r.value
			c.DataCycles += r.cycles
		} else {
			r := c.readData32(addr)
			if !r.ok {
				c.raise(ExcDataAbort, addr)
				return
			}
			c.Regs.R[rd] = loadWordRotated(r.value, addr)
			c.DataCycles += r.cycles
		}
		c.Interlocks.MarkReadyAllPorts(rd, c.BusCycle+latencyLoad)
	} else {
		var ok bool
		var cyc uint32
		if byteXfer {
			ok, cyc = c.writeData8(addr, uint8(c.Regs.R[rd]))
		} else {
			ok, cyc = c.writeData32(addr, c.Regs.R[rd])
		}
		if !ok {
			c.raise(ExcDataAbort, addr)
			return
		}
		c.DataCycles += cyc
	}
}

func (c *CPU) thumbLoadStoreHalfImm(w uint32) {
	load := w&0x0800 != 0
	imm := ((w >> 6) & 0x1F) * 2
	rb := int((w >> 3) & 7)
	rd := int(w & 7)

	srcs := []int{rb}
	ports := []Port{PortA}
	if !load {
		srcs = append(srcs, rd)
		ports = append(ports, PortB)
	}
	c.stall(sourceSpec{regs: srcs, ports: ports})

	addr := c.Regs.R[rb] + imm
	if load {
		r := c.readData16(addr)
		if !r.ok {
			c.raise(ExcDataAbort, addr)
			return
		}
		c.Regs.R[rd] = r.value
		c.DataCycles += r.cycles
		c.Interlocks.MarkReadyAllPorts(rd, c.BusCycle+latencyLoad)
	} else {
		ok, cyc := c.writeData16(addr, uint16(c.Regs.R[rd]))
		if !ok {
			c.raise(ExcDataAbort, addr)
			return
		}
		c.DataCycles += cyc
	}
}

func (c *CPU) thumbSPRelative(w uint32) {
	load := w&0x0800 != 0
	rd := int((w >> 8) & 7)
	imm := (w & 0xFF) * 4

	srcs := []int{13}
	ports := []Port{PortA}
	if !load {
		srcs = append(srcs, rd)
		ports = append(ports, PortB)
	}
	c.stall(sourceSpec{regs: srcs, ports: ports})

	addr := c.Regs.R[13] + imm
	if load {
		r := c.readData32(addr)
		if !r.ok {
			c.raise(ExcDataAbort, addr)
			return
		}
		c.Regs.R[rd] = loadWordRotated(r.value, addr)
		c.DataCycles += r.cycles
		c.Interlocks.MarkReadyAllPorts(rd, c.BusCycle+latencyLoad)
	} else {
		ok, cyc := c.writeData32(addr, c.Regs.R[rd])
		if !ok {
			c.raise(ExcDataAbort, addr)
			return
		}
		c.DataCycles += cyc
	}
}

func (c *CPU) thumbLoadAddress(w uint32, addr uint32) {
	useSP := w&0x0800 != 0
	rd := int((w >> 8) & 7)
	imm := (w & 0xFF) * 4

	c.stall(sourceSpec{})
	if useSP {
		c.Regs.R[rd] = c.Regs.R[13] + imm
	} else {
		c.Regs.R[rd] = (addr+4)&^3 + imm
	}
	c.Interlocks.MarkReadyAllPorts(rd, c.BusCycle+latencyALU)
}

func (c *CPU) thumbAddSP(w uint32) {
	negative := w&0x80 != 0
	imm := (w & 0x7F) * 4
	c.stall(sourceSpec{regs: []int{13}, ports: []Port{PortA}})
	if negative {
		c.Regs.R[13] -= imm
	} else {
		c.Regs.R[13] += imm
	}
}

// thumbPushPop implements PUSH/POP, walking low registers in ascending
// order plus the optional LR (push) / PC (pop) slot.
func (c *CPU) thumbPushPop(w uint32) {
	load := w&0x0800 != 0
	pclr := w&0x0100 != 0
	mask := w & 0xFF

	c.stall(sourceSpec{regs: []int{13}, ports: []Port{PortA}})

	if load { // POP
		addr := c.Regs.R[13]
		for reg := 0; reg < 8; reg++ {
			if mask&(1<<uint(reg)) == 0 {
				continue
			}
			r := c.readData32(addr)
			if !r.ok {
				c.raise(ExcDataAbort, addr)
				return
			}
			c.Regs.R[reg] = r.value
			c.DataCycles += r.cycles
			c.Interlocks.MarkReadyAllPorts(reg, c.BusCycle+latencyLoad)
			addr += 4
		}
		if pclr {
			r := c.readData32(addr)
			if !r.ok {
				c.raise(ExcDataAbort, addr)
				return
			}
			addr += 4
			c.flushPipeline(r.value &^ 1)
		}
		c.Regs.R[13] = addr
	} else { // PUSH
		count := popcount16(uint16(mask))
		if pclr {
			count++
		}
		addr := c.Regs.R[13] - uint32(count)*4
		start := addr
		for reg := 0; reg < 8; reg++ {
			if mask&(1<<uint(reg)) == 0 {
				continue
			}
			ok, cyc := c.writeData32(addr, c.Regs.R[reg])
			if !ok {
				c.raise(ExcDataAbort, addr)
				return
			}
			c.DataCycles += cyc
			addr += 4
		}
		if pclr {
			ok, cyc := c.writeData32(addr, c.Regs.R[14])
			if !ok {
				c.raise(ExcDataAbort, addr)
				return
			}
			c.DataCycles += cyc
		}
		c.Regs.R[13] = start
	}
}

func (c *CPU) thumbMultiple(w uint32) {
	load := w&0x0800 != 0
	rb := int((w >> 8) & 7)
	mask := w & 0xFF

	c.stall(sourceSpec{regs: []int{rb}, ports: []Port{PortA}})

	addr := c.Regs.R[rb]
	for reg := 0; reg < 8; reg++ {
		if mask&(1<<uint(reg)) == 0 {
			continue
		}
		if load {
			r := c.readData32(addr)
			if !r.ok {
				c.raise(ExcDataAbort, addr)
				return
			}
			c.Regs.R[reg] = r.value
			c.DataCycles += r.cycles
			c.Interlocks.MarkReadyAllPorts(reg, c.BusCycle+latencyLoad)
		} else {
			ok, cyc := c.writeData32(addr, c.Regs.R[reg])
			if !ok {
				c.raise(ExcDataAbort, addr)
				return
			}
			c.DataCycles += cyc
		}
		addr += 4
	}
	c.Regs.R[rb] = addr
}

func (c *CPU) thumbCondBranch(w uint32, addr uint32) {
	cc := condCode((w >> 8) & 0xF)
	c.stall(sourceSpec{})
	entry := PipelineEntry{Word: uint32(cc) << 28}
	if !c.conditionPasses(entry) {
		return
	}
	offset := int32(int8(w&0xFF)) * 2
	target := uint32(int32(addr) + 4 + offset)
	c.Branch(target, true)
}

func (c *CPU) thumbBranch(w uint32, addr uint32) {
	c.stall(sourceSpec{})
	offset := int32(w&0x7FF) << 21 >> 20 // sign-extend 11-bit, *2
	target := uint32(int32(addr) + 4 + offset)
	c.Branch(target, true)
}

// thumbBranchLink implements the two-halfword BL sequence: the first
// halfword (H=0) stashes the high PC-relative bits in LR, the second
// (H=1) combines them with the low bits and branches, per spec.md §4.3
// "Thumb long branch".
func (c *CPU) thumbBranchLink(w uint32, addr uint32) {
	high := w&0x0800 != 0
	c.stall(sourceSpec{})
	if !high {
		offset := int32(w&0x7FF) << 21 >> 9 // sign-extend 11-bit, <<12
		c.Regs.R[14] = uint32(int32(addr) + 4 + offset)
		return
	}
	offset := (w & 0x7FF) << 1
	target := c.Regs.R[14] + offset
	nextLR := (addr + 2) | 1
	c.Branch(target, true)
	c.Regs.R[14] = nextLR
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
