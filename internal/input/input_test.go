package input

import "testing"

func TestKeyInputIsActiveLow(t *testing.T) {
	s := New()
	if s.ReadIO8(0x00) != 0xFF || s.ReadIO8(0x01)&0x03 != 0x03 {
		t.Fatalf("with nothing pressed, KEYINPUT should read all 1s in the button bits")
	}
	s.SetButton(ButtonA, true)
	if s.ReadIO8(0x00)&1 != 0 {
		t.Fatalf("pressed button A should clear bit 0 (active-low)")
	}
	s.SetButton(ButtonA, false)
	if s.ReadIO8(0x00)&1 == 0 {
		t.Fatalf("releasing button A should set bit 0 again")
	}
}

func TestPenDownClearsExtKeyInBit6(t *testing.T) {
	s := New()
	if s.ReadIO8(0x10)&(1<<6) == 0 {
		t.Fatalf("pen up should leave bit 6 set")
	}
	s.SetTouch(100, 50, true)
	if s.ReadIO8(0x10)&(1<<6) != 0 {
		t.Fatalf("pen down should clear bit 6")
	}
}

func TestReleasingTouchKeepsLastCoordinates(t *testing.T) {
	s := New()
	s.SetTouch(10, 20, true)
	s.SetTouch(0, 0, false)
	x := uint16(s.ReadIO8(0x20)) | uint16(s.ReadIO8(0x21))<<8
	y := uint16(s.ReadIO8(0x22)) | uint16(s.ReadIO8(0x23))<<8
	if x != 10 || y != 20 {
		t.Fatalf("touch coordinates = (%d,%d), want (10,20) held from last press", x, y)
	}
}
