package emu

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
)

// Save state format constants
const (
	stateVersion    = 1
	stateMagic      = "eChip8-State"
	stateHeaderSize = 22 // magic(12) + version(2) + romCRC(4) + dataCRC(4)
)

// Save state errors returned by VerifyState and Deserialize.
var (
	ErrStateTooShort    = errors.New("save state too short")
	ErrStateMagic       = errors.New("invalid save state magic")
	ErrStateVersion     = errors.New("unsupported save state version")
	ErrStateROMMismatch = errors.New("save state is for a different ROM")
	ErrStateCorrupted   = errors.New("save state data is corrupted")
)

// vmStateSize is the number of bytes serializeVM writes.
const vmStateSize = MemorySize + // work memory
	NumRegisters + // V0-VF
	2 + // index
	2 + // pc
	StackSize*2 + // stack
	2 + // sp
	2 + // delay, sound timers
	NumKeys + // key states
	2 + // keyPressed, lastKey
	ScreenSize + // display
	2 + // opcode
	2 + // previous opcode
	8 // cycles passed to the last Tick

// SerializeSize returns the total size in bytes needed for a save state.
func SerializeSize() int {
	return stateHeaderSize +
		vmStateSize +
		8 + // emulator cycle counter
		2 + // input edge mask
		buzzerStateSize
}

// Serialize creates a save state and returns it as a byte slice.
// Quirks, CPU speed and palette are options owned by the frontend and are
// not part of the state.
func (e *Emulator) Serialize() ([]byte, error) {
	data := make([]byte, SerializeSize())

	copy(data[0:12], stateMagic)
	binary.LittleEndian.PutUint16(data[12:14], stateVersion)
	binary.LittleEndian.PutUint32(data[14:18], e.vm.ROMCRC32())

	offset := stateHeaderSize
	offset = e.vm.serialize(data, offset)

	binary.LittleEndian.PutUint64(data[offset:], e.cycles)
	offset += 8
	binary.LittleEndian.PutUint16(data[offset:], e.keyMask)
	offset += 2

	e.buzzer.serialize(data[offset:])

	// Data CRC covers everything after the header
	dataCRC := crc32.ChecksumIEEE(data[stateHeaderSize:])
	binary.LittleEndian.PutUint32(data[18:22], dataCRC)

	return data, nil
}

// Deserialize restores emulator state from a save state byte slice.
// Region and options are NOT restored; the current settings are kept.
func (e *Emulator) Deserialize(data []byte) error {
	if err := e.VerifyState(data); err != nil {
		return err
	}

	offset := stateHeaderSize
	offset = e.vm.deserialize(data, offset)

	e.cycles = binary.LittleEndian.Uint64(data[offset:])
	offset += 8
	e.keyMask = binary.LittleEndian.Uint16(data[offset:])
	offset += 2

	e.buzzer.deserialize(data[offset:])

	e.render()
	return nil
}

// VerifyState checks if a save state is valid without loading it.
func (e *Emulator) VerifyState(data []byte) error {
	if len(data) < SerializeSize() {
		return ErrStateTooShort
	}

	if string(data[0:12]) != stateMagic {
		return ErrStateMagic
	}

	version := binary.LittleEndian.Uint16(data[12:14])
	if version > stateVersion {
		return ErrStateVersion
	}

	romCRC := binary.LittleEndian.Uint32(data[14:18])
	if romCRC != e.vm.ROMCRC32() {
		return ErrStateROMMismatch
	}

	expectedCRC := binary.LittleEndian.Uint32(data[18:22])
	actualCRC := crc32.ChecksumIEEE(data[stateHeaderSize:])
	if expectedCRC != actualCRC {
		return ErrStateCorrupted
	}

	return nil
}

// serialize writes the machine state at offset and returns the new offset.
func (vm *VM) serialize(data []byte, offset int) int {
	copy(data[offset:], vm.mem.ram[:])
	offset += MemorySize

	copy(data[offset:], vm.v[:])
	offset += NumRegisters

	binary.LittleEndian.PutUint16(data[offset:], vm.index)
	offset += 2
	binary.LittleEndian.PutUint16(data[offset:], vm.pc)
	offset += 2

	for _, addr := range vm.stack {
		binary.LittleEndian.PutUint16(data[offset:], addr)
		offset += 2
	}
	binary.LittleEndian.PutUint16(data[offset:], vm.sp)
	offset += 2

	data[offset] = vm.delayTimer
	offset++
	data[offset] = vm.soundTimer
	offset++

	for _, down := range vm.keys {
		data[offset] = boolToFlag(down)
		offset++
	}
	data[offset] = boolToFlag(vm.keyPressed)
	offset++
	data[offset] = vm.lastKey
	offset++

	copy(data[offset:], vm.screen[:])
	offset += ScreenSize

	binary.LittleEndian.PutUint16(data[offset:], vm.opcode)
	offset += 2
	binary.LittleEndian.PutUint16(data[offset:], vm.prevOpcode)
	offset += 2
	binary.LittleEndian.PutUint64(data[offset:], vm.cycles)
	offset += 8

	return offset
}

// deserialize reads the machine state written by serialize.
func (vm *VM) deserialize(data []byte, offset int) int {
	copy(vm.mem.ram[:], data[offset:offset+MemorySize])
	offset += MemorySize

	copy(vm.v[:], data[offset:offset+NumRegisters])
	offset += NumRegisters

	vm.index = binary.LittleEndian.Uint16(data[offset:])
	offset += 2
	vm.pc = binary.LittleEndian.Uint16(data[offset:])
	offset += 2

	for i := range vm.stack {
		vm.stack[i] = binary.LittleEndian.Uint16(data[offset:])
		offset += 2
	}
	vm.sp = binary.LittleEndian.Uint16(data[offset:])
	offset += 2

	vm.delayTimer = data[offset]
	offset++
	vm.soundTimer = data[offset]
	offset++

	for i := range vm.keys {
		vm.keys[i] = data[offset] != 0
		offset++
	}
	vm.keyPressed = data[offset] != 0
	offset++
	vm.lastKey = data[offset]
	offset++

	copy(vm.screen[:], data[offset:offset+ScreenSize])
	offset += ScreenSize

	vm.opcode = binary.LittleEndian.Uint16(data[offset:])
	offset += 2
	vm.prevOpcode = binary.LittleEndian.Uint16(data[offset:])
	offset += 2
	vm.cycles = binary.LittleEndian.Uint64(data[offset:])
	offset += 8

	return offset
}
