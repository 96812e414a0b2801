package decode

import "bytes"

// Format identifies a container/codec pair.
type Format string

const (
	FormatWAV    Format = "wav"
	FormatAIFF   Format = "aiff"
	FormatMP3    Format = "mp3"
	FormatVorbis Format = "ogg vorbis"
)

// Sniff guesses the format of data from its leading magic bytes.
func Sniff(data []byte) (Format, error) {
	switch {
	case len(data) == 0:
		return "", ErrEmptyInput
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return FormatWAV, nil
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("FORM")) &&
		(bytes.Equal(data[8:12], []byte("AIFF")) || bytes.Equal(data[8:12], []byte("AIFC"))):
		return FormatAIFF, nil
	case bytes.HasPrefix(data, []byte("OggS")):
		return FormatVorbis, nil
	case bytes.HasPrefix(data, []byte("ID3")):
		return FormatMP3, nil
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		// MPEG frame sync
		return FormatMP3, nil
	}
	return "", ErrUnknownFormat
}
