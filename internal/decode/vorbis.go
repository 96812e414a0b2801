package decode

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"
)

// oggReader is the subset of oggvorbis.Reader used here.
type oggReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
}

type vorbisStream struct {
	dec oggReader
}

func (s *vorbisStream) SampleRate() int { return s.dec.SampleRate() }
func (s *vorbisStream) Channels() int   { return s.dec.Channels() }
func (s *vorbisStream) Close() error    { return nil }

// ReadSamples reads whole frames only; dst is truncated to a multiple of
// the channel count.
func (s *vorbisStream) ReadSamples(dst []float32) (int, error) {
	ch := s.dec.Channels()
	dst = dst[:len(dst)/ch*ch]
	if len(dst) == 0 {
		return 0, nil
	}
	n, err := s.dec.Read(dst)
	if err == io.EOF {
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	}
	if err != nil {
		return n, fmt.Errorf("reading vorbis: %w", err)
	}
	return n, nil
}

// VorbisDecoder decodes Ogg Vorbis streams.
type VorbisDecoder struct{}

func (VorbisDecoder) Decode(r io.ReadSeeker) (Stream, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	if dec.Channels() <= 0 {
		return nil, ErrInvalidFile
	}
	return &vorbisStream{dec: dec}, nil
}
