// Package cli provides a headless runner for the interpreter. It paces
// frames without a window, optionally recording audio, and reports the
// final machine state.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/retroenv/retrogolib/log"
	"github.com/user-none/echip8/emu"
	"github.com/user-none/echip8/wavwriter"
)

// Options configures a Runner.
type Options struct {
	// Frames is the number of frames to run; zero or less runs until the
	// context is cancelled.
	Frames int
	// Trace logs every executed instruction at debug level.
	Trace bool
	// WAVPath records the frame audio to this file when set.
	WAVPath string
}

// Runner drives an emulator without a frontend.
type Runner struct {
	emulator *emu.Emulator
	logger   *log.Logger
	wav      *wavwriter.WavWriter
	opts     Options
	frames   int
}

// NewRunner creates a runner for e. The emulator's VM logs through logger.
func NewRunner(e *emu.Emulator, logger *log.Logger, opts Options) (*Runner, error) {
	r := &Runner{
		emulator: e,
		logger:   logger,
		opts:     opts,
	}

	if opts.WAVPath != "" {
		w, err := wavwriter.New(opts.WAVPath, e.SampleRate())
		if err != nil {
			return nil, fmt.Errorf("creating wav writer: %w", err)
		}
		r.wav = w
	}

	e.SetLogger(logger)
	e.VM().SetTrace(opts.Trace)
	return r, nil
}

// Run executes frames until the frame count is reached or ctx is done.
// A cancelled run returns the context error.
func (r *Runner) Run(ctx context.Context) error {
	for r.opts.Frames <= 0 || r.frames < r.opts.Frames {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		r.emulator.RunFrame()
		r.frames++

		if r.wav != nil {
			if err := r.wav.AddSamples(r.emulator.GetAudioSamples()); err != nil {
				return fmt.Errorf("recording audio: %w", err)
			}
		}
	}

	r.logger.Debug("Run finished",
		log.Int("frames", r.frames),
		log.Uint64("cycles", r.emulator.Cycles()))
	return nil
}

// Frames returns the number of frames run so far.
func (r *Runner) Frames() int {
	return r.frames
}

// Close flushes the audio recording, if any.
func (r *Runner) Close() error {
	if r.wav == nil {
		return nil
	}
	r.logger.Info("Writing audio", log.String("path", r.opts.WAVPath), log.Int("frames", r.wav.Frames()))
	err := r.wav.Close()
	r.wav = nil
	return err
}

// ScreenText renders the display as text, one line per row, using '#' for
// lit pixels and '.' for unlit ones.
func ScreenText(vm *emu.VM) string {
	var b strings.Builder
	b.Grow((emu.ScreenWidth + 1) * emu.ScreenHeight)
	for y := 0; y < emu.ScreenHeight; y++ {
		for x := 0; x < emu.ScreenWidth; x++ {
			if vm.Pixel(x, y) {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteReport prints the register file, timers and the last executed
// instruction.
func WriteReport(w io.Writer, vm *emu.VM) error {
	var b strings.Builder
	fmt.Fprintf(&b, "PC=%03X I=%03X SP=%X DT=%02X ST=%02X cycles=%d\n",
		vm.PC(), vm.Index(), vm.SP(), vm.DelayTimer(), vm.SoundTimer(), vm.Cycles())

	regs := vm.Registers()
	for i, v := range regs {
		fmt.Fprintf(&b, "V%X=%02X", i, v)
		if i%8 == 7 {
			b.WriteByte('\n')
		} else {
			b.WriteByte(' ')
		}
	}

	fmt.Fprintf(&b, "last: %04X %s\n", vm.Opcode(), emu.Disassemble(vm.Opcode()))
	_, err := io.WriteString(w, b.String())
	return err
}

// CreateLogger creates a logger with appropriate settings.
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}
