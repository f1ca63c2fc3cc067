package rtc

import "testing"

// pulseBit drives one bit onto SIO and toggles SCK low->high->low, the
// minimal waveform clockRisingEdge reacts to.
func pulseBit(c *Chip, bit bool) {
	c.WriteIO8(0, ctrlByte(true, false, bit, true))
	c.WriteIO8(0, ctrlByte(true, true, bit, true))
	c.WriteIO8(0, ctrlByte(true, false, bit, true))
}

func ctrlByte(cs, sck, sio, sioDir bool) uint8 {
	var v uint8
	if cs {
		v |= 1
	}
	if sck {
		v |= 1 << 1
	}
	if sio {
		v |= 1 << 2
	}
	if sioDir {
		v |= 1 << 4
	}
	return v
}

// writeByte shifts one byte onto SIO, LSB first, matching clockRisingEdge's
// bit order.
func writeByte(c *Chip, b uint8) {
	for i := 0; i < 8; i++ {
		pulseBit(c, b&(1<<uint(i)) != 0)
	}
}

func TestWriteStatus1RoundTrips(t *testing.T) {
	c := New()
	// Command byte: write (bit7=0), register RegStatus1 (bits 4-6 = 0),
	// low nibble fixed pattern (unused by this model).
	writeByte(c, 0x06)
	writeByte(c, 0x42)
	if c.Status1 != 0x42 {
		t.Fatalf("Status1 = %#x, want 0x42", c.Status1)
	}
}

func TestReadDateTimeShiftsOutStoredFields(t *testing.T) {
	c := New()
	c.Year, c.Month, c.Day, c.Weekday, c.Hour, c.Minute, c.Second = 0x26, 0x07, 0x31, 0x05, 0x12, 0x34, 0x56

	// Command byte: read (bit7=1), register RegDateTime (bits4-6=2<<4).
	writeByte(c, 0x80|(uint8(RegDateTime)<<4))

	var out []uint8
	for byteIdx := 0; byteIdx < 7; byteIdx++ {
		var b uint8
		for bit := 0; bit < 8; bit++ {
			c.WriteIO8(0, ctrlByte(true, false, false, false))
			c.WriteIO8(0, ctrlByte(true, true, false, false))
			v := c.ReadIO8(0)
			if v&(1<<2) != 0 {
				b |= 1 << uint(bit)
			}
			c.WriteIO8(0, ctrlByte(true, false, false, false))
		}
		out = append(out, b)
	}

	want := []uint8{0x26, 0x07, 0x31, 0x05, 0x12, 0x34, 0x56}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, out[i], want[i])
		}
	}
}

func TestDeselectingChipSelectAbortsTransfer(t *testing.T) {
	c := New()
	writeByte(c, 0x06) // command only, no data byte yet
	c.WriteIO8(0, ctrlByte(false, false, false, false))
	if c.haveCmd {
		t.Fatalf("command state should be cleared when CS drops")
	}
}
