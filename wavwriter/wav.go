// Package wavwriter records interleaved 16-bit stereo audio to a WAV file.
// Samples are buffered in memory and written to disk on Close, so it is
// meant for testing and short captures.
package wavwriter

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	bitDepth    = 16
	numChannels = 2
	pcmFormat   = 1
)

// ErrClosed is returned when samples are added after Close.
var ErrClosed = errors.New("wavwriter: already closed")

// WavWriter accumulates frame audio for a single output file.
type WavWriter struct {
	filename   string
	sampleRate int
	buffer     []int
	closed     bool
}

// New creates a writer for filename. Nothing touches the disk until Close.
func New(filename string, sampleRate int) (*WavWriter, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("wavwriter: invalid sample rate %d", sampleRate)
	}
	return &WavWriter{
		filename:   filename,
		sampleRate: sampleRate,
	}, nil
}

// AddSamples appends interleaved stereo samples as produced by
// Emulator.GetAudioSamples.
func (w *WavWriter) AddSamples(samples []int16) error {
	if w.closed {
		return ErrClosed
	}
	for _, s := range samples {
		w.buffer = append(w.buffer, int(s))
	}
	return nil
}

// Frames returns the number of stereo sample frames buffered so far.
func (w *WavWriter) Frames() int {
	return len(w.buffer) / numChannels
}

// Close encodes the buffered audio and writes the file.
func (w *WavWriter) Close() (rerr error) {
	if w.closed {
		return ErrClosed
	}
	w.closed = true

	f, err := os.Create(w.filename)
	if err != nil {
		return fmt.Errorf("wavwriter: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("wavwriter: %w", err)
		}
	}()

	enc := wav.NewEncoder(f, w.sampleRate, bitDepth, numChannels, pcmFormat)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: numChannels,
			SampleRate:  w.sampleRate,
		},
		Data:           w.buffer,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wavwriter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wavwriter: %w", err)
	}
	return nil
}
