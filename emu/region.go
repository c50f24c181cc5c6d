package emu

import (
	emucore "github.com/user-none/eblitui/coreif"
)

// Region is an alias for emucore.Region. CHIP-8 has no video standard of
// its own; the region only picks the host frame rate the core paces to.
type Region = emucore.Region

const (
	RegionNTSC = emucore.RegionNTSC
	RegionPAL  = emucore.RegionPAL
)

// DefaultCPUSpeed is the instruction rate in Hz used when no core option
// overrides it. Programs written for the COSMAC VIP expect roughly 500-800.
const DefaultCPUSpeed = 600

// RegionTiming holds the frame pacing for a region
type RegionTiming struct {
	FPS       int // Frames per second
	Scanlines int // Display lines reported to the frontend
}

// NTSC timing: 60 Hz
var NTSCTiming = RegionTiming{
	FPS:       60,
	Scanlines: ScreenHeight,
}

// PAL timing: 50 Hz
var PALTiming = RegionTiming{
	FPS:       50,
	Scanlines: ScreenHeight,
}

// GetTimingForRegion returns the appropriate timing constants
func GetTimingForRegion(r Region) RegionTiming {
	if r == RegionPAL {
		return PALTiming
	}
	return NTSCTiming
}

// TicksPerFrame returns how many instructions run per host frame at the
// given instruction rate, never less than one.
func TicksPerFrame(cpuSpeed int, timing RegionTiming) int {
	n := cpuSpeed / timing.FPS
	if n < 1 {
		return 1
	}
	return n
}

// DetectRegionFromROM reports the region for a ROM. CHIP-8 images carry
// no header, so this is always NTSC and never a database hit.
func DetectRegionFromROM(_ []byte) (Region, bool) {
	return RegionNTSC, false
}
