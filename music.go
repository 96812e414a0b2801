package fxmix

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cbegin/fxmix-go/internal/decode"
)

// Music is a streamed track. Decoding happens incrementally on the render
// goroutine; Pause stops consumption without losing the position.
type Music struct {
	mixer   *Mixer
	data    []byte
	format  decode.Format
	mu      sync.Mutex
	voice   *voice
	playing atomic.Bool
}

// NewMusic prepares data for streaming. The container is probed up front so
// a bad file fails here rather than on the render goroutine.
func (m *Mixer) NewMusic(data []byte) (*Music, error) {
	format, err := decode.Sniff(data)
	if err != nil {
		return nil, fmt.Errorf("opening music: %w", err)
	}
	s, err := m.registry.OpenFormat(format, data)
	if err != nil {
		return nil, fmt.Errorf("opening music: %w", err)
	}
	_ = s.Close()
	return &Music{
		mixer:  m,
		data:   append([]byte(nil), data...),
		format: format,
	}, nil
}

// Play resumes a paused track, or starts it from the beginning when it was
// never started or has finished.
func (m *Music) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.voice != nil && !m.voice.done.Load() {
		m.playing.Store(true)
		return nil
	}
	s, err := m.mixer.registry.OpenFormat(m.format, m.data)
	if err != nil {
		return fmt.Errorf("opening music: %w", err)
	}
	v := newVoice(m.mixer.nextVoiceID(), newStreamCursor(s), m.mixer.sampleRate)
	v.music = m
	m.playing.Store(true)
	if err := m.mixer.addVoice(v); err != nil {
		m.playing.Store(false)
		_ = s.Close()
		return err
	}
	m.voice = v
	return nil
}

func (m *Music) Pause() {
	m.playing.Store(false)
}

// IsPlaying reports whether the track is unpaused and has not reached its end.
func (m *Music) IsPlaying() bool {
	m.mu.Lock()
	v := m.voice
	m.mu.Unlock()
	return m.playing.Load() && v != nil && !v.done.Load()
}

func (m *Music) Format() decode.Format { return m.format }
