package emu

import (
	"errors"
	"fmt"

	"github.com/retroenv/retrogolib/log"
	"github.com/spf13/afero"
	"github.com/user-none/echip8/romloader"
)

const (
	ScreenWidth  = 64
	ScreenHeight = 32
	ScreenSize   = ScreenWidth * ScreenHeight

	NumRegisters = 16
	NumKeys      = 16
	StackSize    = 16
	FlagRegister = 0xF

	// StagingSize bounds how much a ROM file may hold before it is
	// rejected, independent of the smaller MaxROMSize check in LoadROM.
	StagingSize = 16 * 1024
)

// ErrEmptyROM is returned when LoadROM receives no data.
var ErrEmptyROM = errors.New("rom is empty")

// ErrROMTooLarge is returned when a ROM does not fit in work memory.
var ErrROMTooLarge = errors.New("rom does not fit in work memory")

// VM is a CHIP-8 interpreter. It is a single-threaded state machine;
// callers serialise access to Tick, SetKey and the load/reset methods.
type VM struct {
	mem Memory

	v     [NumRegisters]uint8
	index uint16
	pc    uint16
	stack [StackSize]uint16
	sp    uint16

	delayTimer uint8
	soundTimer uint8

	keys       [NumKeys]bool
	keyPressed bool // a key went down since the last Tick
	lastKey    uint8

	screen [ScreenSize]uint8

	opcode     uint16
	prevOpcode uint16
	cycles     uint64

	quirks Quirks
	logger *log.Logger
	trace  bool
}

// NewVM creates a reset machine with the default quirks. logger receives
// decode diagnostics; nil keeps the machine silent.
func NewVM(logger *log.Logger) *VM {
	vm := &VM{
		quirks: DefaultQuirks(),
		logger: logger,
	}
	vm.Reset()
	return vm
}

// SetLogger replaces the diagnostics logger. nil silences the machine.
func (vm *VM) SetLogger(logger *log.Logger) {
	vm.logger = logger
}

// SetTrace enables a debug log line for every executed instruction.
func (vm *VM) SetTrace(enabled bool) {
	vm.trace = enabled
}

// =============================================================================
// Memory & Reset
// =============================================================================

// LoadROM stores a program image to be placed at 0x200 on the next Reset.
// It does not reset the machine itself.
func (vm *VM) LoadROM(rom []byte) error {
	if len(rom) == 0 {
		return ErrEmptyROM
	}
	if len(rom) > MaxROMSize {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrROMTooLarge, len(rom), MaxROMSize)
	}
	vm.mem.storeROM(rom)
	return nil
}

// LoadROMFromFile reads a ROM file (raw or archived) and loads it. The
// machine is reset afterwards whether or not loading succeeded.
func (vm *VM) LoadROMFromFile(path string) error {
	return vm.loadROMFrom(romloader.NewLoader(afero.NewOsFs(), StagingSize), path)
}

func (vm *VM) loadROMFrom(loader *romloader.Loader, path string) error {
	defer vm.Reset()

	rom, _, err := loader.Load(path)
	if err != nil {
		if vm.logger != nil {
			vm.logger.Warn("Could not load ROM file", log.String("path", path), log.Err(err))
		}
		return fmt.Errorf("loading rom file: %w", err)
	}
	if err := vm.LoadROM(rom); err != nil {
		if vm.logger != nil {
			vm.logger.Warn("Rejected ROM file", log.String("path", path), log.Err(err))
		}
		return err
	}
	return nil
}

// Reset restores the power-on state: work RAM is reloaded from the ROM
// copy, the font is rewritten and all registers, timers, keys and the
// display are cleared. The compatibility quirks are kept.
func (vm *VM) Reset() {
	vm.mem.clearWorkRAM()
	vm.screen = [ScreenSize]uint8{}
	vm.keys = [NumKeys]bool{}
	vm.keyPressed = false
	vm.lastKey = 0

	vm.pc = ProgramStart
	vm.index = 0
	vm.v = [NumRegisters]uint8{}
	vm.sp = 0
	vm.stack = [StackSize]uint16{}
	vm.delayTimer = 0
	vm.soundTimer = 0
	vm.opcode = 0
	vm.prevOpcode = 0

	vm.mem.loadFont()
	vm.mem.restoreROM()
}

// =============================================================================
// Tick & Input
// =============================================================================

// Tick executes exactly one instruction and then decrements the timers.
// cycles is the host's monotonic cycle counter; its low byte seeds CXNN.
func (vm *VM) Tick(cycles uint64) {
	vm.cycles = cycles

	vm.prevOpcode = vm.opcode
	vm.opcode = vm.mem.Fetch(vm.pc)
	vm.execute(Decode(vm.opcode))

	if vm.delayTimer > 0 {
		vm.delayTimer--
	}
	if vm.soundTimer > 0 {
		vm.soundTimer--
	}

	vm.keyPressed = false
}

// SetKey records the state of hex key 0-F. Keys above 0xF are ignored.
// A press is latched until the end of the next Tick for FX0A.
func (vm *VM) SetKey(key uint8, pressed bool) {
	if key >= NumKeys {
		return
	}
	vm.keys[key] = pressed
	if pressed {
		vm.keyPressed = true
		vm.lastKey = key
	}
}

// =============================================================================
// Quirks
// =============================================================================

// Quirks returns the active compatibility configuration.
func (vm *VM) Quirks() Quirks {
	return vm.quirks
}

// SetQuirks replaces the whole compatibility configuration.
func (vm *VM) SetQuirks(q Quirks) {
	vm.quirks = q
}

// SetShiftQuirk selects whether 8XY6/8XYE shift VY (true) or VX in place.
func (vm *VM) SetShiftQuirk(useVY bool) {
	vm.quirks.ShiftUsesVY = useVY
}

// SetJumpQuirk selects whether BNNN adds VX (true) or V0.
func (vm *VM) SetJumpQuirk(useVX bool) {
	vm.quirks.JumpUsesVX = useVX
}

// SetLoadStoreQuirk selects whether FX55/FX65 advance I by X.
func (vm *VM) SetLoadStoreQuirk(increment bool) {
	vm.quirks.LoadStoreIncrementsIndex = increment
}

// =============================================================================
// Read views
// =============================================================================

// Screen returns a copy of the 64x32 display, one byte (0 or 1) per pixel,
// row-major.
func (vm *VM) Screen() [ScreenSize]uint8 {
	return vm.screen
}

// Pixel reports whether the pixel at x, y is lit. Out of range is false.
func (vm *VM) Pixel(x, y int) bool {
	if x < 0 || x >= ScreenWidth || y < 0 || y >= ScreenHeight {
		return false
	}
	return vm.screen[y*ScreenWidth+x] != 0
}

// Registers returns a copy of V0-VF.
func (vm *VM) Registers() [NumRegisters]uint8 {
	return vm.v
}

// Keys returns a copy of the keypad state.
func (vm *VM) Keys() [NumKeys]bool {
	return vm.keys
}

// Memory returns a copy of the 4KB address space.
func (vm *VM) Memory() [MemorySize]uint8 {
	return vm.mem.ram
}

// MemorySize returns the size of the address space in bytes.
func (vm *VM) MemorySize() int {
	return MemorySize
}

// DelayTimer returns the delay timer value.
func (vm *VM) DelayTimer() uint8 { return vm.delayTimer }

// SoundTimer returns the sound timer value.
func (vm *VM) SoundTimer() uint8 { return vm.soundTimer }

// Index returns the index register I.
func (vm *VM) Index() uint16 { return vm.index }

// PC returns the program counter.
func (vm *VM) PC() uint16 { return vm.pc }

// SP returns the stack pointer.
func (vm *VM) SP() uint16 { return vm.sp }

// Stack returns a copy of the return address stack.
func (vm *VM) Stack() [StackSize]uint16 {
	return vm.stack
}

// Opcode returns the most recently fetched opcode.
func (vm *VM) Opcode() uint16 {
	return vm.opcode
}

// PreviousOpcode returns the opcode fetched before Opcode.
func (vm *VM) PreviousOpcode() uint16 {
	return vm.prevOpcode
}

// Cycles returns the cycle counter passed to the last Tick.
func (vm *VM) Cycles() uint64 {
	return vm.cycles
}

// SoundActive reports whether the buzzer should currently sound.
func (vm *VM) SoundActive() bool {
	return vm.soundTimer > 0
}

// ROMCRC32 returns the CRC32 of the loaded program image.
func (vm *VM) ROMCRC32() uint32 {
	return vm.mem.GetROMCRC32()
}
