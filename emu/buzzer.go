package emu

import "github.com/user-none/go-chip-sn76489"

const (
	// psgClockHz is the SN76489 input clock (NTSC colour burst).
	psgClockHz = 3579545
	// buzzerHz is the pitch of the sound timer tone.
	buzzerHz = 440
	// buzzerDivider is the 10-bit tone register value for buzzerHz.
	buzzerDivider = psgClockHz / (32 * buzzerHz)
)

// SN76489 register write bytes.
const (
	psgLatchTone0   = 0x80 // 1 00 0 dddd
	psgLatchVolume0 = 0x90 // 1 00 1 vvvv
	psgVolumeOff    = 0x0F
	psgVolumeMax    = 0x00
)

// Buzzer renders the CHIP-8 sound timer as a square wave on tone channel 0
// of an SN76489. The chip only generates samples; the frontend plays them.
type Buzzer struct {
	psg    *sn76489.SN76489
	active bool
}

// NewBuzzer creates a silent buzzer producing mono float32 samples.
func NewBuzzer() *Buzzer {
	// Largest frame (PAL) doubled, as the PSG buffer is filled per tick
	psg := sn76489.New(psgClockHz, sampleRate, (sampleRate/50)*2, sn76489.Sega)
	b := &Buzzer{psg: psg}
	b.init()
	return b
}

// init silences every channel and tunes channel 0 to the buzzer pitch.
func (b *Buzzer) init() {
	for ch := uint8(0); ch < 4; ch++ {
		b.psg.Write(psgLatchVolume0 | ch<<5 | psgVolumeOff)
	}
	b.psg.Write(psgLatchTone0 | uint8(buzzerDivider&0x0F))
	b.psg.Write(uint8(buzzerDivider>>4) & 0x3F)
	b.active = false
}

// SetActive turns the tone on or off. Only transitions touch the chip.
func (b *Buzzer) SetActive(on bool) {
	if on == b.active {
		return
	}
	if on {
		b.psg.Write(psgLatchVolume0 | psgVolumeMax)
	} else {
		b.psg.Write(psgLatchVolume0 | psgVolumeOff)
	}
	b.active = on
}

// Active reports whether the tone is currently on.
func (b *Buzzer) Active() bool {
	return b.active
}

// Generate runs the chip for the given number of PSG clock cycles and
// appends the produced samples to dst.
func (b *Buzzer) Generate(dst []float32, cycles int) []float32 {
	b.psg.GenerateSamples(cycles)
	buffer, count := b.psg.GetBuffer()
	if count > 0 {
		dst = append(dst, buffer[:count]...)
	}
	return dst
}

// Reset silences the buzzer and restores the channel setup.
func (b *Buzzer) Reset() {
	b.init()
}

// serialize writes PSG state followed by the active flag.
func (b *Buzzer) serialize(data []byte) int {
	b.psg.Serialize(data)
	data[sn76489.SerializeSize] = boolToFlag(b.active)
	return sn76489.SerializeSize + 1
}

// deserialize restores state written by serialize.
func (b *Buzzer) deserialize(data []byte) int {
	b.psg.Deserialize(data)
	b.active = data[sn76489.SerializeSize] != 0
	return sn76489.SerializeSize + 1
}

// buzzerStateSize is the number of bytes serialize writes.
const buzzerStateSize = sn76489.SerializeSize + 1
