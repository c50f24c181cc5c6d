package adapter

import (
	"strconv"

	emucore "github.com/user-none/eblitui/coreif"
	"github.com/user-none/echip8/emu"
)

// Compile-time interface check.
var _ emucore.CoreFactory = (*Factory)(nil)

// Factory implements emucore.CoreFactory for the CHIP-8 interpreter.
type Factory struct{}

// SystemInfo returns system metadata for UI configuration.
func (f *Factory) SystemInfo() emucore.SystemInfo {
	return emucore.SystemInfo{
		Name:             emu.Name,
		ConsoleName:      "CHIP-8",
		Extensions:       []string{".ch8", ".c8", ".chip8"},
		ScreenWidth:      emu.ScreenWidth,
		MaxScreenHeight:  emu.MaxScreenHeight,
		PixelAspectRatio: 1.0,
		SampleRate:       48000,
		Buttons:          buttons(),
		Players:          1,
		CoreOptions:      coreOptions(),
		DataDirName:      emu.Name,
		ConsoleID:        0,
		CoreName:         emu.Name,
		CoreVersion:      emu.Version,
		SerializeSize:    emu.SerializeSize(),
	}
}

// buttons lists the 16 hex keys. Key k uses input bit 4+k. Default keys
// follow the usual QWERTY layout:
//
//	1 2 3 C      1 2 3 4
//	4 5 6 D  ->  Q W E R
//	7 8 9 E      A S D F
//	A 0 B F      Z X C V
func buttons() []emucore.Button {
	return []emucore.Button{
		{Name: "Key 0", ID: 4, DefaultKey: "X", DefaultPad: "Start"},
		{Name: "Key 1", ID: 5, DefaultKey: "1"},
		{Name: "Key 2", ID: 6, DefaultKey: "2"},
		{Name: "Key 3", ID: 7, DefaultKey: "3"},
		{Name: "Key 4", ID: 8, DefaultKey: "Q"},
		{Name: "Key 5", ID: 9, DefaultKey: "W", DefaultPad: "A"},
		{Name: "Key 6", ID: 10, DefaultKey: "E", DefaultPad: "B"},
		{Name: "Key 7", ID: 11, DefaultKey: "A"},
		{Name: "Key 8", ID: 12, DefaultKey: "S"},
		{Name: "Key 9", ID: 13, DefaultKey: "D"},
		{Name: "Key A", ID: 14, DefaultKey: "Z", DefaultPad: "X"},
		{Name: "Key B", ID: 15, DefaultKey: "C", DefaultPad: "Y"},
		{Name: "Key C", ID: 16, DefaultKey: "4"},
		{Name: "Key D", ID: 17, DefaultKey: "R"},
		{Name: "Key E", ID: 18, DefaultKey: "F"},
		{Name: "Key F", ID: 19, DefaultKey: "V", DefaultPad: "Select"},
	}
}

// coreOptions lists the settings shown by the frontends. The individual
// quirk_shift, quirk_jump and quirk_loadstore keys are also accepted by
// SetOption but are not listed, as frontends apply options in no fixed
// order and they would fight with the profile.
func coreOptions() []emucore.CoreOption {
	return []emucore.CoreOption{
		{
			Key:         "cpu_speed",
			Label:       "CPU Speed",
			Description: "Instructions executed per second",
			Type:        emucore.CoreOptionRange,
			Default:     strconv.Itoa(emu.DefaultCPUSpeed),
			Min:         60,
			Max:         3000,
			Step:        60,
			Category:    emucore.CoreOptionCategoryCore,
			PerGame:     true,
		},
		{
			Key:         "quirks",
			Label:       "Quirk Profile",
			Description: "Interpreter behaviour for ambiguous opcodes",
			Type:        emucore.CoreOptionSelect,
			Default:     "original",
			Values:      emu.ProfileNames(),
			Category:    emucore.CoreOptionCategoryCore,
			PerGame:     true,
		},
		{
			Key:         "bounds_check",
			Label:       "Clip Sprites",
			Description: "Clip sprites at the screen edge and ignore stack overflow",
			Type:        emucore.CoreOptionBool,
			Default:     "false",
			Category:    emucore.CoreOptionCategoryCore,
			PerGame:     true,
		},
		{
			Key:         "palette",
			Label:       "Palette",
			Description: "Colours used for unlit and lit pixels",
			Type:        emucore.CoreOptionSelect,
			Default:     emu.DefaultPalette,
			Values:      emu.PaletteNames(),
			Category:    emucore.CoreOptionCategoryVideo,
		},
	}
}

// CreateEmulator creates a new emulator instance with the given ROM and region.
func (f *Factory) CreateEmulator(rom []byte, region emucore.Region) (emucore.Emulator, error) {
	e, err := emu.NewEmulator(rom, region)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// DetectRegion auto-detects the region from ROM data.
// The bool return indicates whether the region was found in the database.
func (f *Factory) DetectRegion(rom []byte) (emucore.Region, bool) {
	return emu.DetectRegionFromROM(rom)
}
