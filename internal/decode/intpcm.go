package decode

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
)

// intReader is the part of the go-audio wav/aiff decoders used for streaming.
type intReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// intStream converts go-audio integer PCM to normalized float32.
type intStream struct {
	dec        intReader
	format     *goaudio.Format
	sampleRate int
	channels   int
	scale      float32
	offset     int
	buf        *goaudio.IntBuffer
}

func newIntStream(dec intReader, format *goaudio.Format, bitDepth int, unsigned8 bool) (*intStream, error) {
	if format == nil || format.NumChannels <= 0 || format.SampleRate <= 0 {
		return nil, ErrInvalidFile
	}
	var scale float32
	switch bitDepth {
	case 8:
		scale = 128
	case 16:
		scale = 32768
	case 24:
		scale = 8388608
	case 32:
		scale = 2147483648
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}
	offset := 0
	if bitDepth == 8 && unsigned8 {
		offset = 128
	}
	return &intStream{
		dec:        dec,
		format:     format,
		sampleRate: format.SampleRate,
		channels:   format.NumChannels,
		scale:      scale,
		offset:     offset,
	}, nil
}

func (s *intStream) SampleRate() int { return s.sampleRate }
func (s *intStream) Channels() int   { return s.channels }
func (s *intStream) Close() error    { return nil }

func (s *intStream) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if s.buf == nil || cap(s.buf.Data) < len(dst) {
		s.buf = &goaudio.IntBuffer{Data: make([]int, len(dst)), Format: s.format}
	}
	s.buf.Data = s.buf.Data[:len(dst)]

	n, err := s.dec.PCMBuffer(s.buf)
	if n == 0 {
		if err != nil && err != io.EOF {
			return 0, fmt.Errorf("reading pcm: %w", err)
		}
		return 0, io.EOF
	}
	for i := range n {
		dst[i] = float32(s.buf.Data[i]-s.offset) / s.scale
	}
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("reading pcm: %w", err)
	}
	return n, nil
}
