package emu

import "hash/crc32"

// Memory map:
//
//	0x000-0x1FF: interpreter area (font set at 0x050-0x09F)
//	0x200-0xFFF: program ROM and work RAM (one region, writable)
const (
	MemorySize   = 4096
	FontStart    = 0x050
	FontSize     = 80
	ProgramStart = 0x200
	MaxROMSize   = MemorySize - ProgramStart // 3584 bytes

	addressMask = MemorySize - 1
)

// fontSet holds the built-in 4x5 hex glyphs 0-F, 5 bytes each.
var fontSet = [FontSize]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Memory is the 4KB CHIP-8 address space plus the pristine copy of the
// loaded program. The whole of 0x200-0xFFF is work RAM, so programs may
// overwrite themselves; the copy lets Reset restore them.
type Memory struct {
	ram     [MemorySize]uint8
	romCopy [MemorySize]uint8 // image stored at ProgramStart, like ram
	romLen  int
}

// Get reads a byte. Addresses wrap at 4KB.
func (m *Memory) Get(addr uint16) uint8 {
	return m.ram[addr&addressMask]
}

// Set writes a byte. Addresses wrap at 4KB.
func (m *Memory) Set(addr uint16, val uint8) {
	m.ram[addr&addressMask] = val
}

// Fetch reads the big-endian opcode at addr.
func (m *Memory) Fetch(addr uint16) uint16 {
	return uint16(m.Get(addr))<<8 | uint16(m.Get(addr+1))
}

// storeROM replaces the ROM copy with rom. The caller validates the size.
func (m *Memory) storeROM(rom []byte) {
	m.romCopy = [MemorySize]uint8{}
	copy(m.romCopy[ProgramStart:], rom)
	m.romLen = len(rom)
}

// clearWorkRAM zeroes 0x200-0xFFF.
func (m *Memory) clearWorkRAM() {
	clear(m.ram[ProgramStart:])
}

// loadFont writes the built-in font set at FontStart.
func (m *Memory) loadFont() {
	copy(m.ram[FontStart:FontStart+FontSize], fontSet[:])
}

// restoreROM copies the whole ROM copy region back over work RAM.
func (m *Memory) restoreROM() {
	copy(m.ram[ProgramStart:], m.romCopy[ProgramStart:])
}

// GetROMCRC32 returns the CRC32 of the loaded program image.
// Used for save state verification to ensure states are loaded with the correct ROM.
func (m *Memory) GetROMCRC32() uint32 {
	return crc32.ChecksumIEEE(m.romCopy[ProgramStart : ProgramStart+m.romLen])
}
