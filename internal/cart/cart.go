// Package cart implements the cartridge interface spec.md §6 describes:
// header access, wrapping ROM reads, and a save-memory sub-object with
// several backing variants (EEPROM, EEPROM/FRAM, flash, a stubbed NAND).
// Grounded on the teacher's memory.Cartridge for the "holds ROM bytes,
// validates a header, returns descriptive fmt.Errorf on malformed input"
// shape; the bank-switched LoROM addressing in memory.Cartridge.Read8
// doesn't apply here (this console's cartridge is linearly addressed),
// so that part is rewritten rather than reused.
package cart

import (
	"fmt"

	"nitro-core-dx/internal/savestate"
)

// HeaderSize is the byte length read_header copies, per spec.md §6.
const HeaderSize = 0x170

// SaveType enumerates every backing store DetectSaveType can choose,
// spanning the variants spec.md §6 names: "None, EEPROM 4 Kib,
// EEPROM/FRAM (three sizes), flash (three sizes with optional infrared
// command filtering), NAND (stubbed)".
type SaveType uint8

const (
	SaveNone SaveType = iota
	SaveEEPROM4Kib
	SaveEEPROMFRAM64Kib
	SaveEEPROMFRAM512Kib
	SaveEEPROMFRAM1Mib
	SaveFlash2Mib
	SaveFlash4Mib
	SaveFlash8Mib
	SaveFlash8MibInfrared
	SaveNAND
)

// saveSizes gives the backing byte length for every non-stubbed variant.
var saveSizes = map[SaveType]int{
	SaveEEPROM4Kib:        4 * 1024 / 8,
	SaveEEPROMFRAM64Kib:   64 * 1024 / 8,
	SaveEEPROMFRAM512Kib:  512 * 1024 / 8,
	SaveEEPROMFRAM1Mib:    1024 * 1024 / 8,
	SaveFlash2Mib:         2 * 1024 * 1024 / 8,
	SaveFlash4Mib:         4 * 1024 * 1024 / 8,
	SaveFlash8Mib:         8 * 1024 * 1024 / 8,
	SaveFlash8MibInfrared: 8 * 1024 * 1024 / 8,
}

// SaveMemory is the sub-object spec.md §6 names, byte-addressed (the SPI
// command multiplexing a real EEPROM/flash chip speaks is decoded one
// layer up, by whatever peripheral drives the cartridge's SPI pins; this
// interface is the already-decoded read(addr)/write(addr, value) view
// spec.md itself specifies).
type SaveMemory interface {
	Read(addr uint32) uint8
	Write(addr uint32, value uint8)
	MarkFlushed()
	Contents() []byte
	savestate.Entity
}

// noSave backs SaveNone: reads return the documented open-bus pattern
// (0xFF, matching a floating SPI line) and writes are dropped.
type noSave struct{}

func (noSave) Read(uint32) uint8          { return 0xFF }
func (noSave) Write(uint32, uint8)        {}
func (noSave) MarkFlushed()               {}
func (noSave) Contents() []byte           { return nil }
func (noSave) Visit(savestate.Visitor)    {}

// byteStore backs EEPROM and EEPROM/FRAM: flat byte-addressable memory
// with a dirty flag, the simplest variant since neither chip family needs
// an erase-before-write cycle.
type byteStore struct {
	data  []byte
	dirty bool
}

func newByteStore(size int, initial []byte) *byteStore {
	s := &byteStore{data: make([]byte, size)}
	for i := range s.data {
		s.data[i] = 0xFF
	}
	copy(s.data, initial)
	return s
}

func (s *byteStore) Read(addr uint32) uint8 {
	if int(addr) < len(s.data) {
		return s.data[addr]
	}
	return 0xFF
}

func (s *byteStore) Write(addr uint32, value uint8) {
	if int(addr) < len(s.data) {
		s.data[addr] = value
		s.dirty = true
	}
}

func (s *byteStore) MarkFlushed()     { s.dirty = false }
func (s *byteStore) Contents() []byte { return s.data }

// Visit walks the backing bytes and the dirty flag: a save taken with
// unflushed writes must reload with the flush still pending.
func (s *byteStore) Visit(v savestate.Visitor) {
	v.Bytes(s.data)
	v.Bool(&s.dirty)
}

// flashChip backs flash save memory. Writes only clear bits (matching
// real NOR flash, where a separate erase command is needed to set bits
// back to 1); Erase resets a region to 0xFF. Infrared-equipped carts
// (SaveFlash8MibInfrared) filter writes until UnlockInfrared is called,
// modeling the real cartridge's IR command gate as a documented
// simplification (the real protocol multiplexes IR commands onto the
// same SPI command byte space flash commands use; this implementation
// exposes the gate as an explicit method instead of decoding command
// bytes, since that decoding belongs to the cartridge's SPI controller,
// not this package).
type flashChip struct {
	data         []byte
	dirty        bool
	irFiltered   bool
	irUnlocked   bool
}

func newFlashChip(size int, initial []byte, irFiltered bool) *flashChip {
	f := &flashChip{data: make([]byte, size), irFiltered: irFiltered}
	for i := range f.data {
		f.data[i] = 0xFF
	}
	copy(f.data, initial)
	return f
}

func (f *flashChip) Read(addr uint32) uint8 {
	if int(addr) < len(f.data) {
		return f.data[addr]
	}
	return 0xFF
}

func (f *flashChip) Write(addr uint32, value uint8) {
	if f.irFiltered && !f.irUnlocked {
		return
	}
	if int(addr) < len(f.data) {
		f.data[addr] &= value
		f.dirty = true
	}
}

// UnlockInfrared marks the IR handshake complete, allowing writes to
// reach an infrared-filtered flash chip.
func (f *flashChip) UnlockInfrared() { f.irUnlocked = true }

// Erase sets [addr, addr+length) back to 0xFF, matching a flash sector
// erase.
func (f *flashChip) Erase(addr, length uint32) {
	end := addr + length
	if end > uint32(len(f.data)) {
		end = uint32(len(f.data))
	}
	for i := addr; i < end; i++ {
		f.data[i] = 0xFF
	}
	f.dirty = true
}

func (f *flashChip) MarkFlushed()     { f.dirty = false }
func (f *flashChip) Contents() []byte { return f.data }

// Visit walks the backing bytes, the dirty flag, and the infrared-unlock
// latch (a cart that was IR-unlocked before the save must still accept
// writes after loading it back).
func (f *flashChip) Visit(v savestate.Visitor) {
	v.Bytes(f.data)
	v.Bool(&f.dirty)
	v.Bool(&f.irUnlocked)
}

// nandStub backs SaveNAND: spec.md §6 says NAND is "stubbed", so reads
// return 0xFF and writes are dropped, same as SaveNone but kept as a
// distinct type so DetectSaveType's choice is still observable via
// Contents() returning an (empty) non-nil slice.
type nandStub struct{}

func (nandStub) Read(uint32) uint8       { return 0xFF }
func (nandStub) Write(uint32, uint8)     {}
func (nandStub) MarkFlushed()            {}
func (nandStub) Contents() []byte        { return []byte{} }
func (nandStub) Visit(savestate.Visitor) {}

// NewSaveMemory constructs the SaveMemory backing saveType, seeding it
// from initial (a loaded save file, or nil for a fresh one).
func NewSaveMemory(saveType SaveType, initial []byte) SaveMemory {
	switch saveType {
	case SaveNone:
		return noSave{}
	case SaveNAND:
		return nandStub{}
	case SaveFlash2Mib, SaveFlash4Mib, SaveFlash8Mib:
		return newFlashChip(saveSizes[saveType], initial, false)
	case SaveFlash8MibInfrared:
		return newFlashChip(saveSizes[saveType], initial, true)
	default:
		return newByteStore(saveSizes[saveType], initial)
	}
}

// DetectSaveType implements spec.md §6's precedence: "explicit user
// choice > save-file size inference > database entry > none".
func DetectSaveType(explicit *SaveType, saveFileSize int, databaseLookup func() (SaveType, bool)) SaveType {
	if explicit != nil {
		return *explicit
	}
	for st, size := range saveSizes {
		if size == saveFileSize && saveFileSize > 0 {
			return st
		}
	}
	if databaseLookup != nil {
		if st, ok := databaseLookup(); ok {
			return st
		}
	}
	return SaveNone
}

// Cartridge holds the loaded ROM image and its save memory.
type Cartridge struct {
	rom  []byte
	Save SaveMemory
}

// New validates and wraps rom, assigning save as the cartridge's
// save-memory sub-object (construct one first via NewSaveMemory).
func New(rom []byte, save SaveMemory) (*Cartridge, error) {
	if len(rom) < HeaderSize {
		return nil, fmt.Errorf("cart: ROM too small for header: %d bytes, want at least %d", len(rom), HeaderSize)
	}
	if save == nil {
		save = noSave{}
	}
	return &Cartridge{rom: rom, Save: save}, nil
}

// ReadHeader copies the first HeaderSize bytes of the ROM into into.
func (c *Cartridge) ReadHeader(into *[HeaderSize]byte) {
	copy(into[:], c.rom)
}

// ReadSliceWrapping fills into starting at start, wrapping back to
// address 0 when the read runs past the end of the ROM image — the
// real cartridge bus mirrors its address space rather than exposing open
// bus past the end, per spec.md §6.
func (c *Cartridge) ReadSliceWrapping(start uint32, into []byte) {
	if len(c.rom) == 0 {
		for i := range into {
			into[i] = 0xFF
		}
		return
	}
	romLen := uint32(len(c.rom))
	for i := range into {
		into[i] = c.rom[(start+uint32(i))%romLen]
	}
}

// ReadROM8 satisfies bus.ROMReader, wrapping per ReadSliceWrapping.
func (c *Cartridge) ReadROM8(addr uint32) uint8 {
	if len(c.rom) == 0 {
		return 0xFF
	}
	return c.rom[addr%uint32(len(c.rom))]
}

// Size returns the ROM image length in bytes.
func (c *Cartridge) Size() uint32 { return uint32(len(c.rom)) }

// Visit walks only the save memory: the ROM image is a boot-time
// collaborator, preserved across a load rather than captured by it
// (spec.md §3's lifecycle note that state load "replaces every entity
// atomically" while reset/load "preserve the firmware, cartridge, ...
// collaborators").
func (c *Cartridge) Visit(v savestate.Visitor) {
	c.Save.Visit(v)
}
