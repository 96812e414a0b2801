package decode

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// Decoder constructs a Stream from encoded input.
type Decoder interface {
	Decode(r io.ReadSeeker) (Stream, error)
}

// Registry maps formats to decoders.
type Registry struct {
	mu     sync.Mutex
	codecs map[Format]Decoder
}

func NewRegistry() *Registry {
	return &Registry{codecs: make(map[Format]Decoder)}
}

// DefaultRegistry returns a registry with every built-in decoder.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(FormatWAV, WAVDecoder{})
	r.Register(FormatAIFF, AIFFDecoder{})
	r.Register(FormatMP3, MP3Decoder{})
	r.Register(FormatVorbis, VorbisDecoder{})
	return r
}

func (r *Registry) Register(format Format, d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[format] = d
}

func (r *Registry) Get(format Format) (Decoder, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.codecs[format]
	return d, ok
}

// Open sniffs data and decodes it with the matching decoder. data is not
// copied; callers must not modify it while the stream is in use.
func (r *Registry) Open(data []byte) (Stream, error) {
	format, err := Sniff(data)
	if err != nil {
		return nil, err
	}
	return r.OpenFormat(format, data)
}

// OpenFormat decodes data as format without sniffing it again.
func (r *Registry) OpenFormat(format Format, data []byte) (Stream, error) {
	d, ok := r.Get(format)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoDecoder, format)
	}
	s, err := d.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", format, err)
	}
	return s, nil
}

var defaultRegistry = sync.OnceValue(DefaultRegistry)

// Open decodes data with the built-in decoders.
func Open(data []byte) (Stream, error) {
	return defaultRegistry().Open(data)
}

// Decode fully decodes data into memory.
func Decode(data []byte) (PCM, error) {
	s, err := Open(data)
	if err != nil {
		return PCM{}, err
	}
	defer s.Close()
	return ReadAll(s)
}
