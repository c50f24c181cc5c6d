//go:build !libretro && !ios

package main

import (
	"flag"
	"log"
	"strconv"

	"github.com/user-none/eblitui/standalone"
	"github.com/user-none/echip8/adapter"
	"github.com/user-none/echip8/emu"
)

func main() {
	romPath := flag.String("rom", "", "path to ROM file (opens UI if not provided)")
	regionFlag := flag.String("region", "auto", "region: auto, ntsc, or pal")
	quirks := flag.String("quirks", "", "quirk profile: original, cosmac, or chip48")
	cpuSpeed := flag.Int("cpu-speed", emu.DefaultCPUSpeed, "instructions per second")
	palette := flag.String("palette", emu.DefaultPalette, "display palette: classic, green, or amber")
	boundsCheck := flag.Bool("bounds-check", false, "clip sprites at the screen edge")
	flag.Parse()

	factory := &adapter.Factory{}

	if *romPath != "" {
		options := map[string]string{
			"cpu_speed": strconv.Itoa(*cpuSpeed),
			"palette":   *palette,
		}
		if *quirks != "" {
			options["quirks"] = *quirks
		}
		if *boundsCheck {
			options["bounds_check"] = "true"
		}
		if err := standalone.RunDirect(factory, *romPath, *regionFlag, options, nil); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := standalone.Run(factory); err != nil {
		log.Fatal(err)
	}
}
