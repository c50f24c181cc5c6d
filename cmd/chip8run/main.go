// Package main implements a headless CHIP-8 runner.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
	"github.com/user-none/echip8/cli"
	"github.com/user-none/echip8/emu"
	"github.com/user-none/echip8/romloader"
	"github.com/user-none/echip8/statsview"
)

var (
	version = emu.Version
	commit  = ""
	date    = ""
)

type optionFlags struct {
	rom      string
	region   string
	quirks   string
	cpuSpeed int
	frames   int
	wav      string

	boundsCheck bool
	screen      bool
	stats       bool
	trace       bool
	debug       bool
	quiet       bool
}

func main() {
	ctx := app.Context()
	opts := readArguments()

	logger := cli.CreateLogger(opts.debug || opts.trace, opts.quiet)
	if !opts.quiet {
		printBanner()
	}

	if opts.stats {
		if !statsview.Available() {
			logger.Warn("Stats server not compiled in, rebuild with -tags statsview")
		} else {
			statsview.Launch(os.Stdout)
		}
	}

	if err := run(ctx, logger, opts); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("Operation cancelled")
			return
		}
		logger.Error("Run failed", log.Err(err))
		os.Exit(1)
	}
}

func readArguments() optionFlags {
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	opts := optionFlags{}

	flags.StringVar(&opts.region, "region", "ntsc", "frame rate region: ntsc or pal")
	flags.StringVar(&opts.quirks, "quirks", "", "quirk profile: original, cosmac or chip48")
	flags.IntVar(&opts.cpuSpeed, "cpu-speed", emu.DefaultCPUSpeed, "instructions per second")
	flags.IntVar(&opts.frames, "frames", 600, "frames to run, 0 runs until interrupted")
	flags.StringVar(&opts.wav, "wav", "", "record audio to this WAV file")
	flags.BoolVar(&opts.boundsCheck, "bounds-check", false, "clip sprites at the screen edge")
	flags.BoolVar(&opts.screen, "screen", true, "print the final screen")
	flags.BoolVar(&opts.stats, "stats", false, "launch the runtime statistics server")
	flags.BoolVar(&opts.trace, "trace", false, "log every executed instruction")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	flags.BoolVar(&opts.quiet, "q", false, "perform operations quietly")

	err := flags.Parse(os.Args[1:])
	args := flags.Args()

	if err != nil || len(args) == 0 {
		printBanner()
		fmt.Printf("usage: chip8run [options] <program file>\n\n")
		flags.PrintDefaults()
		os.Exit(1)
	}
	opts.rom = args[0]

	return opts
}

func printBanner() {
	fmt.Println("[--------------------------------]")
	fmt.Println("[ chip8run - headless CHIP-8 VM ]")
	fmt.Printf("[--------------------------------]\n\n")
	fmt.Printf("version: %s\n\n", buildinfo.Version(version, commit, date))
}

func run(ctx context.Context, logger *log.Logger, opts optionFlags) error {
	rom, name, err := romloader.LoadROM(opts.rom)
	if err != nil {
		return fmt.Errorf("loading '%s': %w", opts.rom, err)
	}

	region := emu.RegionNTSC
	switch opts.region {
	case "ntsc":
	case "pal":
		region = emu.RegionPAL
	default:
		return fmt.Errorf("unknown region '%s'", opts.region)
	}

	if opts.quirks != "" {
		if _, err := emu.LookupProfile(opts.quirks); err != nil {
			return err
		}
	}

	e, err := emu.NewEmulator(rom, region)
	if err != nil {
		return fmt.Errorf("initializing emulator: %w", err)
	}
	e.SetOption("cpu_speed", strconv.Itoa(opts.cpuSpeed))
	if opts.quirks != "" {
		e.SetOption("quirks", opts.quirks)
	}
	if opts.boundsCheck {
		e.SetOption("bounds_check", "true")
	}
	e.Start()

	logger.Info("Running program",
		log.String("name", name),
		log.Int("size", len(rom)),
		log.Hex("crc32", e.VM().ROMCRC32()))

	runner, err := cli.NewRunner(&e, logger, cli.Options{
		Frames:  opts.frames,
		Trace:   opts.trace,
		WAVPath: opts.wav,
	})
	if err != nil {
		return err
	}

	runErr := runner.Run(ctx)
	if err := runner.Close(); err != nil && runErr == nil {
		runErr = err
	}

	if opts.screen && !opts.quiet {
		fmt.Print(cli.ScreenText(e.VM()))
	}
	if !opts.quiet {
		if err := cli.WriteReport(os.Stdout, e.VM()); err != nil {
			return err
		}
	}
	return runErr
}
