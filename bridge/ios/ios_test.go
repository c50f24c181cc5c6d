package emuios

import (
	"os"
	"path/filepath"
	"testing"
)

func writeROM(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loop.ch8")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write rom: %v", err)
	}
	return path
}

func TestLifecycle(t *testing.T) {
	path := writeROM(t, []byte{0x60, 0x3C, 0xF0, 0x18, 0x12, 0x04})
	if !InitFromPath(path, 1) {
		t.Fatal("InitFromPath failed")
	}
	defer Close()

	if Region() != 1 {
		t.Errorf("Region = %d, want 1", Region())
	}
	RunFrame()

	if got := len(GetFrameData()); got != FrameWidth()*FrameHeight()*4 {
		t.Errorf("frame data = %d bytes, want %d", got, FrameWidth()*FrameHeight()*4)
	}
	if len(GetAudioData()) == 0 {
		t.Error("no audio data after RunFrame")
	}

	if !SaveState() {
		t.Fatal("SaveState failed")
	}
	state := make([]byte, StateLen())
	for i := range state {
		state[i] = byte(StateByte(i))
	}
	RunFrame()
	if !LoadState(state) {
		t.Error("LoadState rejected its own state")
	}
	if StateByte(-1) != 0 || StateByte(len(state)) != 0 {
		t.Error("out of range StateByte should be 0")
	}
}

func TestNoEmulator(t *testing.T) {
	Close()
	RunFrame()
	SetInput(0xFFFF)
	SetOption("palette", "green")
	if GetFrameData() != nil || GetAudioData() != nil {
		t.Error("expected nil data without an emulator")
	}
	if SaveState() || LoadState(nil) {
		t.Error("state calls should fail without an emulator")
	}
}

func TestInitFromPathErrors(t *testing.T) {
	if InitFromPath(filepath.Join(t.TempDir(), "missing.ch8"), 0) {
		t.Error("InitFromPath should fail for a missing file")
	}
	if InitFromPath(writeROM(t, make([]byte, 4000)), 0) {
		t.Error("InitFromPath should fail for an oversized ROM")
	}
}

func TestGetFPS(t *testing.T) {
	if GetFPS(0) != 60 || GetFPS(1) != 50 {
		t.Errorf("GetFPS = %d/%d, want 60/50", GetFPS(0), GetFPS(1))
	}
}

func TestExtractAndStoreROM(t *testing.T) {
	rom := []byte{0x12, 0x00}
	src := writeROM(t, rom)
	dest := t.TempDir()

	res, err := ExtractAndStoreROM(src, dest)
	if err != nil {
		t.Fatalf("ExtractAndStoreROM: %v", err)
	}
	if res.Filename != "loop.ch8" {
		t.Errorf("Filename = %q, want loop.ch8", res.Filename)
	}
	if GetCRC32FromPath(src) < 0 {
		t.Fatal("GetCRC32FromPath failed")
	}

	stored, err := os.ReadFile(filepath.Join(dest, res.Crc32+".ch8"))
	if err != nil {
		t.Fatalf("stored ROM missing: %v", err)
	}
	if string(stored) != string(rom) {
		t.Errorf("stored ROM = %X, want %X", stored, rom)
	}

	// Second call finds the existing file
	if _, err := ExtractAndStoreROM(src, dest); err != nil {
		t.Errorf("second ExtractAndStoreROM: %v", err)
	}
}
