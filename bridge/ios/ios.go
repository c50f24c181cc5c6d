// Package emuios provides a gomobile-compatible interface to the interpreter.
package emuios

import (
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"

	"github.com/user-none/echip8/emu"
	"github.com/user-none/echip8/romloader"
)

// ExtractResult contains the result of ROM extraction
type ExtractResult struct {
	Crc32    string // Hex string, e.g., "AABBCCDD"
	Filename string // Original filename from archive, e.g., "Pong (1 player).ch8"
}

// currentEmu holds the emulator state (unexported)
var currentEmu *emulatorState

type emulatorState struct {
	emulator  emu.Emulator
	audioData []byte
	stateData []byte
}

// InitFromPath creates an emulator from a ROM file path.
// Automatically extracts from archives if needed.
// regionCode: 0=NTSC (60 Hz), 1=PAL (50 Hz)
// Returns true on success, false on error.
func InitFromPath(path string, regionCode int) bool {
	rom, _, err := romloader.LoadROM(path)
	if err != nil {
		return false
	}

	e, err := emu.NewEmulator(rom, regionFromCode(regionCode))
	if err != nil {
		return false
	}
	e.Start()
	currentEmu = &emulatorState{emulator: e}
	return true
}

func regionFromCode(code int) emu.Region {
	if code == 1 {
		return emu.RegionPAL
	}
	return emu.RegionNTSC
}

// Close releases the emulator.
func Close() {
	currentEmu = nil
}

// SetOption applies a core option such as "cpu_speed", "quirks" or "palette".
func SetOption(key, value string) {
	if currentEmu != nil {
		currentEmu.emulator.SetOption(key, value)
	}
}

// RunFrame executes one frame of emulation.
func RunFrame() {
	if currentEmu == nil {
		return
	}
	currentEmu.emulator.RunFrame()

	// Convert audio samples to little-endian bytes
	samples := currentEmu.emulator.GetAudioSamples()
	if len(samples) > 0 {
		currentEmu.audioData = make([]byte, len(samples)*2)
		for i, s := range samples {
			currentEmu.audioData[i*2] = byte(s)
			currentEmu.audioData[i*2+1] = byte(s >> 8)
		}
	} else {
		currentEmu.audioData = nil
	}
}

// FrameWidth returns the display width (always 64).
func FrameWidth() int {
	return emu.ScreenWidth
}

// FrameHeight returns the display height (always 32).
func FrameHeight() int {
	return emu.ScreenHeight
}

// GetFrameData returns the RGBA frame buffer.
func GetFrameData() []byte {
	if currentEmu == nil {
		return nil
	}
	return currentEmu.emulator.GetFramebuffer()
}

// GetAudioData returns the entire audio buffer.
func GetAudioData() []byte {
	if currentEmu == nil {
		return nil
	}
	return currentEmu.audioData
}

// SetInput sets the keypad state. Bits 4-19 are keys 0-F and bits 0-3
// are the d-pad.
func SetInput(buttons int) {
	if currentEmu != nil {
		currentEmu.emulator.SetInput(0, uint32(buttons))
	}
}

// Region returns the current region (0=NTSC, 1=PAL).
func Region() int {
	if currentEmu == nil {
		return 0
	}
	if currentEmu.emulator.GetRegion() == emu.RegionPAL {
		return 1
	}
	return 0
}

// SaveState creates a save state. Returns true on success.
func SaveState() bool {
	if currentEmu == nil {
		return false
	}
	data, err := currentEmu.emulator.Serialize()
	if err != nil {
		currentEmu.stateData = nil
		return false
	}
	currentEmu.stateData = data
	return true
}

// StateLen returns the length of the last saved state.
func StateLen() int {
	if currentEmu == nil {
		return 0
	}
	return len(currentEmu.stateData)
}

// StateByte returns a single byte from the saved state at index i.
func StateByte(i int) int {
	if currentEmu == nil || i < 0 || i >= len(currentEmu.stateData) {
		return 0
	}
	return int(currentEmu.stateData[i])
}

// LoadState loads a save state. Returns true on success.
func LoadState(data []byte) bool {
	if currentEmu == nil {
		return false
	}
	return currentEmu.emulator.Deserialize(data) == nil
}

// GetFPS returns the target FPS for a region code.
func GetFPS(regionCode int) int {
	return emu.GetTimingForRegion(regionFromCode(regionCode)).FPS
}

// GetCRC32FromPath calculates the CRC32 checksum of a ROM file.
// Automatically extracts from archives if needed.
// Returns -1 on error.
func GetCRC32FromPath(path string) int64 {
	rom, _, err := romloader.LoadROM(path)
	if err != nil {
		return -1
	}

	return int64(crc32.ChecksumIEEE(rom))
}

// ExtractAndStoreROM extracts a ROM from an archive (or copies a raw ROM),
// calculates its CRC32, and stores it as {destDir}/{CRC32}.ch8.
// If a file with the same CRC32 already exists, it skips writing.
func ExtractAndStoreROM(srcPath, destDir string) (*ExtractResult, error) {
	rom, filename, err := romloader.LoadROM(srcPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load ROM: %w", err)
	}
	if len(rom) > emu.MaxROMSize {
		return nil, fmt.Errorf("failed to load ROM: %w", emu.ErrROMTooLarge)
	}

	crcHex := fmt.Sprintf("%08X", crc32.ChecksumIEEE(rom))
	destPath := filepath.Join(destDir, crcHex+".ch8")

	// Same CRC means same content
	if _, err := os.Stat(destPath); err == nil {
		return &ExtractResult{Crc32: crcHex, Filename: filename}, nil
	}

	if err := os.WriteFile(destPath, rom, 0644); err != nil {
		return nil, fmt.Errorf("failed to write ROM: %w", err)
	}

	return &ExtractResult{Crc32: crcHex, Filename: filename}, nil
}
