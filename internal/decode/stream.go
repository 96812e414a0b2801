package decode

import (
	"errors"
	"fmt"
	"io"
)

// Stream is a decoded PCM stream.
type Stream interface {
	// SampleRate of the stream in Hz.
	SampleRate() int
	// Channels count (1=mono, 2=stereo).
	Channels() int
	// ReadSamples fills dst with interleaved float32 samples in [-1,1] and
	// returns the number of values written. io.EOF marks the end.
	ReadSamples(dst []float32) (int, error)
	Close() error
}

// maxEmptyReads bounds consecutive (0, nil) reads before a stream is
// considered stuck.
const maxEmptyReads = 100

// PCM is a fully materialized stream.
type PCM struct {
	Channels   uint16
	SampleRate uint32
	Samples    []float32
}

// ReadAll drains s into memory. The stream is not closed.
func ReadAll(s Stream) (PCM, error) {
	ch := s.Channels()
	rate := s.SampleRate()
	if ch <= 0 || rate <= 0 {
		return PCM{}, fmt.Errorf("%w: %d channels at %d Hz", ErrInvalidFile, ch, rate)
	}
	pcm := PCM{Channels: uint16(ch), SampleRate: uint32(rate)}
	buf := make([]float32, 4096*ch)
	empty := 0
	for {
		n, err := s.ReadSamples(buf)
		pcm.Samples = append(pcm.Samples, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return PCM{}, fmt.Errorf("reading samples: %w", err)
		}
		if n > 0 {
			empty = 0
			continue
		}
		if empty++; empty >= maxEmptyReads {
			return PCM{}, io.ErrNoProgress
		}
	}
	// Drop a trailing partial frame.
	pcm.Samples = pcm.Samples[:len(pcm.Samples)/ch*ch]
	return pcm, nil
}
