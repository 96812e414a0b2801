package decode

import (
	"fmt"
	"io"

	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

// WAVDecoder decodes integer PCM RIFF/WAVE files.
type WAVDecoder struct{}

func (WAVDecoder) Decode(r io.ReadSeeker) (Stream, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a WAV file", ErrInvalidFile)
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: wav format tag %d", ErrUnsupportedEncoding, dec.WavAudioFormat)
	}
	return newIntStream(dec, dec.Format(), int(dec.BitDepth), true)
}
