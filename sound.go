package fxmix

import (
	"fmt"
	"time"

	"github.com/cbegin/fxmix-go/internal/decode"
)

// Sound is a fully decoded one-shot sample buffer. It is immutable and safe
// to play any number of times, concurrently.
type Sound struct {
	channels   uint16
	sampleRate uint32
	samples    []float32
}

// NewSound decodes WAV, AIFF, MP3 or Ogg Vorbis bytes into memory.
func NewSound(data []byte) (*Sound, error) {
	pcm, err := decode.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding sound: %w", err)
	}
	return newSound(pcm.Channels, pcm.SampleRate, pcm.Samples)
}

// NewSoundFromPCM wraps interleaved samples. The slice is copied.
func NewSoundFromPCM(channels uint16, sampleRate uint32, samples []float32) (*Sound, error) {
	return newSound(channels, sampleRate, append([]float32(nil), samples...))
}

func newSound(channels uint16, sampleRate uint32, samples []float32) (*Sound, error) {
	if channels == 0 || sampleRate == 0 {
		return nil, ErrInvalidSound
	}
	return &Sound{
		channels:   channels,
		sampleRate: sampleRate,
		samples:    samples[:len(samples)/int(channels)*int(channels)],
	}, nil
}

func (s *Sound) Channels() uint16   { return s.channels }
func (s *Sound) SampleRate() uint32 { return s.sampleRate }

// Frames is the number of sample frames per channel.
func (s *Sound) Frames() int { return len(s.samples) / int(s.channels) }

func (s *Sound) Duration() time.Duration {
	return time.Duration(s.Frames()) * time.Second / time.Duration(s.sampleRate)
}

// Samples returns a copy of the interleaved samples.
func (s *Sound) Samples() []float32 {
	return append([]float32(nil), s.samples...)
}
