package decode

import (
	"fmt"
	"io"

	"github.com/go-audio/aiff"
)

// AIFFDecoder decodes uncompressed AIFF files.
type AIFFDecoder struct{}

func (AIFFDecoder) Decode(r io.ReadSeeker) (Stream, error) {
	dec := aiff.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not an AIFF file", ErrInvalidFile)
	}
	dec.ReadInfo()
	return newIntStream(dec, dec.Format(), int(dec.BitDepth), false)
}
