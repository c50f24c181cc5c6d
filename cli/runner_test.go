package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
	"github.com/user-none/echip8/emu"
)

func newEmulator(t *testing.T, rom ...byte) *emu.Emulator {
	t.Helper()
	if len(rom) == 0 {
		rom = []byte{0x12, 0x00}
	}
	e, err := emu.NewEmulator(rom, emu.RegionNTSC)
	assert.NoError(t, err)
	return &e
}

func TestRunner_FrameCount(t *testing.T) {
	e := newEmulator(t)
	r, err := NewRunner(e, log.NewTestLogger(t), Options{Frames: 3})
	assert.NoError(t, err)

	assert.NoError(t, r.Run(context.Background()))
	assert.Equal(t, 3, r.Frames())
	assert.Equal(t, uint64(30), e.Cycles())
	assert.NoError(t, r.Close())
}

func TestRunner_Cancelled(t *testing.T) {
	e := newEmulator(t)
	r, err := NewRunner(e, log.NewTestLogger(t), Options{})
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = r.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, r.Frames())
}

func TestRunner_RecordsAudio(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beep.wav")
	// V0 = 0x3C, ST = V0, loop
	e := newEmulator(t, 0x60, 0x3C, 0xF0, 0x18, 0x12, 0x04)
	r, err := NewRunner(e, log.NewTestLogger(t), Options{Frames: 2, WAVPath: path})
	assert.NoError(t, err)

	assert.NoError(t, r.Run(context.Background()))
	assert.NoError(t, r.Close())

	info, err := os.Stat(path)
	assert.NoError(t, err)
	assert.True(t, info.Size() > 44, "wav file should contain samples")
}

func TestRunner_Trace(t *testing.T) {
	e := newEmulator(t)
	r, err := NewRunner(e, log.NewTestLogger(t), Options{Frames: 1, Trace: true})
	assert.NoError(t, err)
	assert.NoError(t, r.Run(context.Background()))
}

func TestScreenText(t *testing.T) {
	// I = font glyph 0, draw 5 rows at (0,0), loop
	e := newEmulator(t, 0xA0, 0x50, 0xD0, 0x05, 0x12, 0x04)
	e.RunFrame()

	text := ScreenText(e.VM())
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	assert.Len(t, lines, emu.ScreenHeight)
	assert.Equal(t, emu.ScreenWidth, len(lines[0]))
	// Glyph 0 is F0 90 90 90 F0
	assert.True(t, strings.HasPrefix(lines[0], "####...."))
	assert.True(t, strings.HasPrefix(lines[1], "#..#...."))
	assert.True(t, strings.HasPrefix(lines[4], "####...."))
	assert.Equal(t, strings.Repeat(".", emu.ScreenWidth), lines[5])
}

func TestWriteReport(t *testing.T) {
	// V3 = 0x42, loop
	e := newEmulator(t, 0x63, 0x42, 0x12, 0x02)
	e.RunFrame()

	var buf bytes.Buffer
	assert.NoError(t, WriteReport(&buf, e.VM()))

	out := buf.String()
	assert.Contains(t, out, "PC=202")
	assert.Contains(t, out, "V3=42")
	assert.Contains(t, out, "last: 1202 jp $202")
}

func TestCreateLogger(t *testing.T) {
	assert.Equal(t, log.DebugLevel, CreateLogger(true, false).Level())
	assert.Equal(t, log.ErrorLevel, CreateLogger(false, true).Level())
	assert.Equal(t, log.DebugLevel, CreateLogger(true, true).Level())
}
