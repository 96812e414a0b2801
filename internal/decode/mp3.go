package decode

import (
	"encoding/binary"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
)

// mp3Reader is the subset of gomp3.Decoder used here.
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
}

// go-mp3 always produces 16-bit little-endian stereo.
type mp3Stream struct {
	dec mp3Reader
	buf []byte
}

func (s *mp3Stream) SampleRate() int { return s.dec.SampleRate() }
func (s *mp3Stream) Channels() int   { return 2 }
func (s *mp3Stream) Close() error    { return nil }

func (s *mp3Stream) ReadSamples(dst []float32) (int, error) {
	need := len(dst) * 2
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	s.buf = s.buf[:need]

	n, err := io.ReadFull(s.dec, s.buf)
	samples := n / 2
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(s.buf[2*i:]))
		dst[i] = float32(v) / 32768
	}
	switch err {
	case nil:
		return samples, nil
	case io.EOF, io.ErrUnexpectedEOF:
		if samples == 0 {
			return 0, io.EOF
		}
		return samples, nil
	}
	return samples, fmt.Errorf("reading mp3: %w", err)
}

// MP3Decoder decodes MPEG-1/2 layer III streams.
type MP3Decoder struct{}

func (MP3Decoder) Decode(r io.ReadSeeker) (Stream, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	return &mp3Stream{dec: dec, buf: make([]byte, 8192)}, nil
}
