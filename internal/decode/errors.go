package decode

import "errors"

var (
	ErrEmptyInput          = errors.New("decode: empty input")
	ErrUnknownFormat       = errors.New("decode: unrecognized audio format")
	ErrNoDecoder           = errors.New("decode: no decoder registered for format")
	ErrInvalidFile         = errors.New("decode: invalid file")
	ErrUnsupportedBitDepth = errors.New("decode: unsupported bit depth")
	ErrUnsupportedEncoding = errors.New("decode: unsupported sample encoding")
)
