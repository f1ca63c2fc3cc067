package cart

import "testing"

func makeROM(size int) []byte {
	rom := make([]byte, size)
	for i := range rom {
		rom[i] = byte(i)
	}
	return rom
}

func TestNewRejectsROMSmallerThanHeader(t *testing.T) {
	_, err := New(make([]byte, 0x10), NewSaveMemory(SaveNone, nil))
	if err == nil {
		t.Fatalf("expected error for undersized ROM")
	}
}

func TestReadSliceWrappingWrapsAtROMEnd(t *testing.T) {
	c, err := New(makeROM(0x200), NewSaveMemory(SaveNone, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	buf := make([]byte, 4)
	c.ReadSliceWrapping(0x1FE, buf)
	want := []byte{0xFE, 0xFF, 0x00, 0x01}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, buf[i], want[i])
		}
	}
}

func TestFlashWriteOnlyClearsBitsUntilErase(t *testing.T) {
	f := newFlashChip(16, nil, false)
	f.Write(0, 0x0F)
	if f.Read(0) != 0x0F {
		t.Fatalf("first write should land directly on a freshly-erased (0xFF) cell")
	}
	f.Write(0, 0xF0)
	if f.Read(0) != 0x00 {
		t.Fatalf("flash write should AND with existing bits, not overwrite: got %#x", f.Read(0))
	}
	f.Erase(0, 1)
	if f.Read(0) != 0xFF {
		t.Fatalf("erase should reset the cell to 0xFF")
	}
}

func TestInfraredFilteredFlashRejectsWritesUntilUnlocked(t *testing.T) {
	f := newFlashChip(16, nil, true)
	f.Write(0, 0x00)
	if f.Read(0) != 0xFF {
		t.Fatalf("write before IR unlock should be dropped")
	}
	f.UnlockInfrared()
	f.Write(0, 0x00)
	if f.Read(0) != 0x00 {
		t.Fatalf("write after IR unlock should take effect")
	}
}

func TestDetectSaveTypePrecedence(t *testing.T) {
	explicit := SaveEEPROM4Kib
	if got := DetectSaveType(&explicit, saveSizes[SaveFlash2Mib], func() (SaveType, bool) { return SaveFlash2Mib, true }); got != SaveEEPROM4Kib {
		t.Fatalf("explicit choice should win over every other signal, got %v", got)
	}
	if got := DetectSaveType(nil, saveSizes[SaveEEPROMFRAM64Kib], func() (SaveType, bool) { return SaveFlash2Mib, true }); got != SaveEEPROMFRAM64Kib {
		t.Fatalf("save-file size inference should win over the database entry, got %v", got)
	}
	if got := DetectSaveType(nil, 0, func() (SaveType, bool) { return SaveFlash4Mib, true }); got != SaveFlash4Mib {
		t.Fatalf("database entry should win over none, got %v", got)
	}
	if got := DetectSaveType(nil, 0, nil); got != SaveNone {
		t.Fatalf("with no signal at all, DetectSaveType should fall back to SaveNone, got %v", got)
	}
}
