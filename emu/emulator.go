package emu

import (
	"sort"
	"strconv"

	"github.com/retroenv/retrogolib/log"
	emucore "github.com/user-none/eblitui/coreif"
)

// Compile-time interface checks.
var _ emucore.Emulator = (*Emulator)(nil)
var _ emucore.SaveStater = (*Emulator)(nil)
var _ emucore.MemoryInspector = (*Emulator)(nil)
var _ emucore.MemoryMapper = (*Emulator)(nil)

const (
	MaxScreenHeight = ScreenHeight
	sampleRate      = 48000

	// keyButtonBase is the input bit of CHIP-8 key 0; keys 0-F use bits 4-19.
	keyButtonBase = 4

	bytesPerPixel = 4
	fbStride      = ScreenWidth * bytesPerPixel
)

// Palette is the pair of RGBA colours used for unlit and lit pixels.
type Palette struct {
	Off [4]uint8
	On  [4]uint8
}

// Palettes holds the selectable display colour schemes.
var Palettes = map[string]Palette{
	"classic": {Off: [4]uint8{0x00, 0x00, 0x00, 0xFF}, On: [4]uint8{0xFF, 0xFF, 0xFF, 0xFF}},
	"green":   {Off: [4]uint8{0x0F, 0x38, 0x0F, 0xFF}, On: [4]uint8{0x9B, 0xBC, 0x0F, 0xFF}},
	"amber":   {Off: [4]uint8{0x1A, 0x0E, 0x00, 0xFF}, On: [4]uint8{0xFF, 0xB0, 0x00, 0xFF}},
}

// DefaultPalette is the palette used until the palette option is set.
const DefaultPalette = "classic"

// PaletteNames returns the palette names in sorted order.
func PaletteNames() []string {
	names := make([]string, 0, len(Palettes))
	for name := range Palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// dpadKeys maps the d-pad bits to the conventional CHIP-8 direction keys.
var dpadKeys = [...]struct {
	mask uint32
	key  uint8
}{
	{1 << emucore.ButtonUp, 0x2},
	{1 << emucore.ButtonDown, 0x8},
	{1 << emucore.ButtonLeft, 0x4},
	{1 << emucore.ButtonRight, 0x6},
}

// Emulator adapts the CHIP-8 VM to the eblitui frontend contract: it paces
// the VM to host frames, renders the display as RGBA and generates audio.
type Emulator struct {
	vm     *VM
	buzzer *Buzzer

	// Region timing
	region        Region
	timing        RegionTiming
	cpuSpeed      int
	ticksPerFrame int

	// cycles is the monotonic tick counter handed to the VM
	cycles uint64

	// Input edge detection, one bit per CHIP-8 key
	keyMask uint16

	palette     Palette
	framebuffer []byte

	// Pre-allocated audio buffers to avoid per-frame allocations
	frameSamples []float32 // Collects float32 samples during the frame
	audioBuffer  []int16   // Final int16 stereo output for external consumption
}

// NewEmulator creates an emulator with the given program loaded and the
// machine reset.
func NewEmulator(rom []byte, region Region) (Emulator, error) {
	vm := NewVM(nil)
	if err := vm.LoadROM(rom); err != nil {
		return Emulator{}, err
	}
	vm.Reset()

	timing := GetTimingForRegion(region)

	return Emulator{
		vm:            vm,
		buzzer:        NewBuzzer(),
		region:        region,
		timing:        timing,
		cpuSpeed:      DefaultCPUSpeed,
		ticksPerFrame: TicksPerFrame(DefaultCPUSpeed, timing),
		palette:       Palettes[DefaultPalette],
		framebuffer:   make([]byte, fbStride*ScreenHeight),
		// ~800 samples/frame at 48kHz/60fps
		frameSamples: make([]float32, 0, 1024),
		audioBuffer:  make([]int16, 0, 2048),
	}, nil
}

// VM returns the underlying machine.
func (e *Emulator) VM() *VM {
	return e.vm
}

// SetLogger forwards diagnostics from the VM to logger.
func (e *Emulator) SetLogger(logger *log.Logger) {
	e.vm.SetLogger(logger)
}

// Reset restarts the loaded program and silences the buzzer. Options and
// region are kept.
func (e *Emulator) Reset() {
	e.vm.Reset()
	e.buzzer.Reset()
	e.keyMask = 0
}

// Cycles returns the number of instructions executed since creation.
func (e *Emulator) Cycles() uint64 {
	return e.cycles
}

// CPUSpeed returns the configured instruction rate in Hz.
func (e *Emulator) CPUSpeed() int {
	return e.cpuSpeed
}

// SetCPUSpeed sets the instruction rate in Hz. Values below 1 are ignored.
func (e *Emulator) SetCPUSpeed(hz int) {
	if hz < 1 {
		return
	}
	e.cpuSpeed = hz
	e.ticksPerFrame = TicksPerFrame(hz, e.timing)
}

// TicksPerFrame returns how many instructions RunFrame executes.
func (e *Emulator) TicksPerFrame() int {
	return e.ticksPerFrame
}

// =============================================================================
// Frame execution
// =============================================================================

// RunFrame executes one frame of emulation, renders the display and
// accumulates the frame's audio.
func (e *Emulator) RunFrame() {
	e.frameSamples = e.frameSamples[:0]
	e.audioBuffer = e.audioBuffer[:0]

	psgCyclesPerFrame := psgClockHz / e.timing.FPS
	prevTarget := 0

	for i := 0; i < e.ticksPerFrame; i++ {
		e.vm.Tick(e.cycles)
		e.cycles++

		e.buzzer.SetActive(e.vm.SoundActive())

		// Spread the PSG cycles evenly so the tone follows the timer
		target := psgCyclesPerFrame * (i + 1) / e.ticksPerFrame
		e.frameSamples = e.buzzer.Generate(e.frameSamples, target-prevTarget)
		prevTarget = target
	}

	e.render()

	// Convert float32 mono samples to int16 stereo. Attenuate by 0.5 since
	// the same signal plays on both speakers.
	for _, sample := range e.frameSamples {
		intSample := int16(sample * 32767 * 0.5)
		e.audioBuffer = append(e.audioBuffer, intSample, intSample)
	}
}

// render converts the 1-bit display into RGBA using the active palette.
func (e *Emulator) render() {
	screen := e.vm.Screen()
	for i, px := range screen {
		colour := e.palette.Off
		if px != 0 {
			colour = e.palette.On
		}
		copy(e.framebuffer[i*bytesPerPixel:], colour[:])
	}
}

// GetFramebuffer returns raw RGBA pixel data for the current frame.
func (e *Emulator) GetFramebuffer() []byte {
	return e.framebuffer
}

// SampleRate returns the audio output rate in Hz.
func (e *Emulator) SampleRate() int {
	return sampleRate
}

// GetFramebufferStride returns the stride (bytes per row) of the framebuffer.
func (e *Emulator) GetFramebufferStride() int {
	return fbStride
}

// GetActiveHeight returns the display height, always 32.
func (e *Emulator) GetActiveHeight() int {
	return ScreenHeight
}

// GetAudioSamples returns accumulated audio samples as 16-bit stereo PCM.
func (e *Emulator) GetAudioSamples() []int16 {
	return e.audioBuffer
}

// =============================================================================
// Input
// =============================================================================

// SetInput unpacks a button bitmask into the hex keypad. Bits 4-19 are keys
// 0-F and the d-pad doubles as keys 2, 8, 4 and 6. Only player 0 is wired.
func (e *Emulator) SetInput(player int, buttons uint32) {
	if player != 0 {
		return
	}

	mask := uint16(buttons >> keyButtonBase)
	for _, d := range dpadKeys {
		if buttons&d.mask != 0 {
			mask |= 1 << d.key
		}
	}

	// Edge detect so a held key is not latched again every frame
	changed := mask ^ e.keyMask
	for key := uint8(0); key < NumKeys; key++ {
		if changed&(1<<key) != 0 {
			e.vm.SetKey(key, mask&(1<<key) != 0)
		}
	}
	e.keyMask = mask
}

// =============================================================================
// Region & options
// =============================================================================

// GetRegion returns the emulator's region setting
func (e *Emulator) GetRegion() Region {
	return e.region
}

// GetTiming returns FPS and scanline count for the current region.
func (e *Emulator) GetTiming() emucore.Timing {
	return emucore.Timing{
		FPS:       e.timing.FPS,
		Scanlines: e.timing.Scanlines,
	}
}

// SetRegion updates the frame rate and the instructions run per frame.
func (e *Emulator) SetRegion(region Region) {
	e.region = region
	e.timing = GetTimingForRegion(region)
	e.ticksPerFrame = TicksPerFrame(e.cpuSpeed, e.timing)
}

// SetOption applies a core option change identified by key. Unknown keys
// and unparsable values are ignored.
func (e *Emulator) SetOption(key string, value string) {
	switch key {
	case "cpu_speed":
		if hz, err := strconv.Atoi(value); err == nil {
			e.SetCPUSpeed(hz)
		}
	case "quirks":
		q, err := LookupProfile(value)
		if err != nil {
			return
		}
		q.BoundsCheck = e.vm.quirks.BoundsCheck
		e.vm.SetQuirks(q)
	case "quirk_shift":
		e.vm.SetShiftQuirk(value == "true")
	case "quirk_jump":
		e.vm.SetJumpQuirk(value == "true")
	case "quirk_loadstore":
		e.vm.SetLoadStoreQuirk(value == "true")
	case "bounds_check":
		e.vm.quirks.BoundsCheck = value == "true"
	case "palette":
		if p, ok := Palettes[value]; ok {
			e.palette = p
			e.render()
		}
	}
}

// SetBIOS is a no-op; the interpreter and font are built in.
func (e *Emulator) SetBIOS(key string, data []byte) {}

// Start refreshes the framebuffer so the first frame reflects the options
// applied since creation.
func (e *Emulator) Start() {
	e.ticksPerFrame = TicksPerFrame(e.cpuSpeed, e.timing)
	e.render()
}

// Close releases any resources held by the emulator.
func (e *Emulator) Close() {}

// =============================================================================
// MemoryInspector interface
// =============================================================================

// ReadMemory reads from a flat address into buf and returns the number
// of bytes read. The flat map is the 4KB address space, 0x000-0xFFF.
func (e *Emulator) ReadMemory(addr uint32, buf []byte) uint32 {
	var count uint32
	for i := range buf {
		cur := addr + uint32(i)
		if cur >= MemorySize {
			return count
		}
		buf[i] = e.vm.mem.ram[cur]
		count++
	}
	return count
}

// =============================================================================
// MemoryMapper interface
// =============================================================================

// MemoryMap returns a list of available memory regions with sizes.
func (e *Emulator) MemoryMap() []emucore.MemoryRegion {
	return []emucore.MemoryRegion{
		{Type: emucore.MemorySystemRAM, Size: MemorySize},
	}
}

// ReadRegion returns a copy of the specified memory region.
func (e *Emulator) ReadRegion(regionType int) []byte {
	switch regionType {
	case emucore.MemorySystemRAM:
		out := make([]byte, MemorySize)
		copy(out, e.vm.mem.ram[:])
		return out
	default:
		return nil
	}
}

// WriteRegion writes data to the specified memory region.
func (e *Emulator) WriteRegion(regionType int, data []byte) {
	if regionType == emucore.MemorySystemRAM {
		copy(e.vm.mem.ram[:], data)
	}
}
