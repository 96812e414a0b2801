package fxmix

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// RenderOffline pulls seconds worth of frames from m without a device.
func RenderOffline(m *Mixer, seconds float64) []float32 {
	frames := int(float64(m.sampleRate) * seconds)
	out := make([]float32, frames*2)
	m.Render(out)
	return out
}

// EncodeWAV writes interleaved stereo samples as 16-bit PCM. Samples outside
// [-1,1] are clipped.
func EncodeWAV(w io.WriteSeeker, samples []float32, sampleRate int) error {
	if sampleRate <= 0 {
		return ErrInvalidSampleRate
	}
	data := make([]int, len(samples))
	for i, s := range samples {
		s = max(-1, min(1, s))
		data[i] = int(s * 32767)
	}
	enc := wav.NewEncoder(w, sampleRate, 16, 2, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("writing wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing wav: %w", err)
	}
	return nil
}
