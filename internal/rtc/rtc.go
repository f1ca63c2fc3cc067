// Package rtc implements the Seiko/Epson-style serial real-time clock
// wired to the console through a single 1-byte GPIO-like port (CS, SCK,
// SIO lines, each with a software-controlled direction bit), the same
// 3-wire serial scheme spec.md §6 groups under "wire/layout details the
// implementer must honor exactly". There is no teacher equivalent; the
// bit-serial command/parameter shifting below is grounded in the
// documented behavior of the real chip family (command byte, then a
// register-dependent number of BCD parameter bytes), and the register
// dispatch style (single exported ReadIO8/WriteIO8 pair) follows the
// rest of this codebase's peripheral packages.
package rtc

import "nitro-core-dx/internal/savestate"

// Register selects which RTC register a command addresses (the middle
// three bits of the command byte).
type Register uint8

const (
	RegStatus1 Register = 0
	RegStatus2 Register = 1
	RegDateTime Register = 2
	RegTime     Register = 3
	RegAlarm1   Register = 4
	RegAlarm2   Register = 5
	RegClockAdjust Register = 6
	RegFree     Register = 7
)

// paramBytes gives the number of data bytes that follow a command for
// each register, matching the real chip's register widths.
var paramBytes = [8]int{1, 1, 7, 3, 3, 3, 1, 1}

// Chip is one RTC peripheral. DateTime fields are stored already in BCD,
// the format the serial protocol transfers and the format software reads
// directly, so no decimal<->BCD conversion happens at the interface
// boundary.
type Chip struct {
	Year, Month, Day, Weekday, Hour, Minute, Second uint8 // BCD
	Status1, Status2                                uint8
	Alarm1, Alarm2                                   [3]uint8
	ClockAdjust, Free                                uint8

	// Serial line state, sampled/driven through the single control byte.
	cs, sck, sioOut bool
	sioDir          bool // true: SIO driven by CPU (write); false: by chip (read)
	lastSCK         bool

	shiftIn   uint8
	bitCount  int
	haveCmd   bool
	cmd       uint8
	writeCmd  bool
	reg       Register
	data      []uint8
	dataPos   int
	dataShift uint8
	dataBits  int
}

// New returns a Chip with CS/SCK low and the clock registers zeroed.
func New() *Chip {
	return &Chip{}
}

// reset clears in-flight command/shift state, called when CS drops (the
// real chip aborts whatever transfer was in progress on chip-select
// deassert).
func (c *Chip) reset() {
	c.shiftIn = 0
	c.bitCount = 0
	c.haveCmd = false
	c.data = nil
	c.dataPos = 0
	c.dataShift = 0
	c.dataBits = 0
}

// snapshot copies the addressed register's bytes into c.data so reads can
// shift them out, or prepares an empty buffer of the right length to
// receive a write.
func (c *Chip) snapshot() {
	switch c.reg {
	case RegStatus1:
		c.data = []uint8{c.Status1}
	case RegStatus2:
		c.data = []uint8{c.Status2}
	case RegDateTime:
		c.data = []uint8{c.Year, c.Month, c.Day, c.Weekday, c.Hour, c.Minute, c.Second}
	case RegTime:
		c.data = []uint8{c.Hour, c.Minute, c.Second}
	case RegAlarm1:
		c.data = []uint8{c.Alarm1[0], c.Alarm1[1], c.Alarm1[2]}
	case RegAlarm2:
		c.data = []uint8{c.Alarm2[0], c.Alarm2[1], c.Alarm2[2]}
	case RegClockAdjust:
		c.data = []uint8{c.ClockAdjust}
	case RegFree:
		c.data = []uint8{c.Free}
	}
}

// commit writes c.data back into the addressed register after a write
// transfer completes.
func (c *Chip) commit() {
	switch c.reg {
	case RegStatus1:
		c.Status1 = c.data[0]
	case RegStatus2:
		c.Status2 = c.data[0]
	case RegDateTime:
		c.Year, c.Month, c.Day, c.Weekday, c.Hour, c.Minute, c.Second =
			c.data[0], c.data[1], c.data[2], c.data[3], c.data[4], c.data[5], c.data[6]
	case RegTime:
		c.Hour, c.Minute, c.Second = c.data[0], c.data[1], c.data[2]
	case RegAlarm1:
		copy(c.Alarm1[:], c.data)
	case RegAlarm2:
		copy(c.Alarm2[:], c.data)
	case RegClockAdjust:
		c.ClockAdjust = c.data[0]
	case RegFree:
		c.Free = c.data[0]
	}
}

// clockRisingEdge processes one bit transferred on a SCK low-to-high
// transition: the command byte first (LSB first, per the real chip),
// then data bytes for whichever register the command selected.
func (c *Chip) clockRisingEdge() {
	if !c.haveCmd {
		bit := uint8(0)
		if c.sioOut {
			bit = 1
		}
		c.shiftIn |= bit << uint(c.bitCount)
		c.bitCount++
		if c.bitCount == 8 {
			c.cmd = c.shiftIn
			c.reg = Register((c.cmd >> 4) & 0x7)
			c.writeCmd = c.cmd&0x80 == 0
			c.haveCmd = true
			c.bitCount = 0
			c.dataBits = paramBytes[c.reg] * 8
			if c.writeCmd {
				c.data = make([]uint8, paramBytes[c.reg])
			} else {
				c.snapshot()
			}
		}
		return
	}

	if c.dataBits == 0 {
		return
	}
	if c.writeCmd {
		bit := uint8(0)
		if c.sioOut {
			bit = 1
		}
		c.data[c.dataPos] |= bit << uint(c.dataShift)
	}
	c.dataShift++
	c.dataBits--
	if c.dataShift == 8 {
		c.dataShift = 0
		c.dataPos++
		if c.writeCmd && c.dataPos >= len(c.data) {
			c.commit()
		}
	}
}

// sioRead returns the bit the chip is currently driving onto SIO: the bit
// shifted out by the most recent rising SCK edge of the data phase (only
// meaningful to the caller when sioDir is false, i.e. a read transfer).
func (c *Chip) sioRead() bool {
	if !c.haveCmd || c.writeCmd || len(c.data) == 0 {
		return false
	}
	n := c.dataPos*8 + int(c.dataShift) - 1
	if n < 0 || n/8 >= len(c.data) {
		return false
	}
	return c.data[n/8]&(1<<uint(n%8)) != 0
}

// ReadIO8/WriteIO8 expose the single control byte: bit0 CS, bit1 SCK,
// bit2 SIO, bit4 SIO direction (1 = CPU drives it), bit5 SCK direction,
// bit6 CS direction (the latter two are stored but otherwise unused,
// since this emulation always has the CPU driving CS/SCK).
func (c *Chip) ReadIO8(offset uint32) uint8 {
	if offset != 0 {
		return 0
	}
	var v uint8
	if c.cs {
		v |= 1
	}
	if c.sck {
		v |= 1 << 1
	}
	sio := c.sioOut
	if !c.sioDir {
		sio = c.sioRead()
	}
	if sio {
		v |= 1 << 2
	}
	if c.sioDir {
		v |= 1 << 4
	}
	v |= 1 << 5 // SCK direction always CPU-driven
	v |= 1 << 6 // CS direction always CPU-driven
	return v
}

func (c *Chip) WriteIO8(offset uint32, value uint8) {
	if offset != 0 {
		return
	}
	newCS := value&1 != 0
	newSCK := value&(1<<1) != 0
	c.sioDir = value&(1<<4) != 0
	if c.sioDir {
		c.sioOut = value&(1<<2) != 0
	}

	if !newCS && c.cs {
		c.reset()
	}
	c.cs = newCS

	if c.cs && newSCK && !c.lastSCK {
		c.clockRisingEdge()
	}
	c.lastSCK = newSCK
	c.sck = newSCK
}

// Visit walks every field of Chip, including the in-flight serial
// shift-register state: a save made mid-transfer (CS held low between
// two WriteIO8 calls) must resume the same command/data bit position on
// load, not just the committed register values.
func (c *Chip) Visit(v savestate.Visitor) {
	v.U8(&c.Year)
	v.U8(&c.Month)
	v.U8(&c.Day)
	v.U8(&c.Weekday)
	v.U8(&c.Hour)
	v.U8(&c.Minute)
	v.U8(&c.Second)
	v.U8(&c.Status1)
	v.U8(&c.Status2)
	v.Bytes(c.Alarm1[:])
	v.Bytes(c.Alarm2[:])
	v.U8(&c.ClockAdjust)
	v.U8(&c.Free)

	v.Bool(&c.cs)
	v.Bool(&c.sck)
	v.Bool(&c.sioOut)
	v.Bool(&c.sioDir)
	v.Bool(&c.lastSCK)

	v.U8(&c.shiftIn)
	savestate.VisitInt(v, &c.bitCount)
	v.Bool(&c.haveCmd)
	v.U8(&c.cmd)
	v.Bool(&c.writeCmd)
	savestate.VisitU8Enum(v, &c.reg)
	savestate.VisitByteSlice(v, &c.data)
	savestate.VisitInt(v, &c.dataPos)
	v.U8(&c.dataShift)
	savestate.VisitInt(v, &c.dataBits)
}
