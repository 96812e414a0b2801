package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// SampleSource renders interleaved stereo float32 into dst. It is called on
// the device's pull goroutine.
type SampleSource interface {
	Process(dst []float32)
}

// FinishingSource is a SampleSource that can signal when it will produce no
// more output. Once Finished returns true, the next Read returns io.EOF.
type FinishingSource interface {
	SampleSource
	Finished() bool
}

// StreamReader adapts a SampleSource to an io.Reader of little-endian
// float32 stereo frames, the layout ebiten's NewPlayerF32 expects.
type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	buf    []float32
	frames atomic.Int64
}

func NewStreamReader(source SampleSource) *StreamReader {
	return &StreamReader{source: source}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if fs, ok := r.source.(FinishingSource); ok && fs.Finished() {
		return 0, io.EOF
	}
	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i, v := range r.buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	r.frames.Add(int64(frames))
	return frames * 8, nil
}

// Frames returns how many frames the device has pulled so far. This runs
// ahead of Player.Position by the device buffer.
func (r *StreamReader) Frames() int64 { return r.frames.Load() }

func (r *StreamReader) Close() error { return nil }

// Player is an output stream on the shared device context.
type Player struct {
	player *ebitaudio.Player
	reader *StreamReader
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

// sharedAudioContext returns the process-wide context. ebiten allows one
// context per process, so every caller must agree on the sample rate.
func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// NewPlayer opens an output stream that pulls from source. bufferSize sets
// the device-side latency; zero keeps ebiten's default.
func NewPlayer(sampleRate int, source SampleSource, bufferSize time.Duration) (*Player, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, fmt.Errorf("creating output player: %w", err)
	}
	if bufferSize > 0 {
		pl.SetBufferSize(bufferSize)
	}
	return &Player{
		player: pl,
		reader: reader,
	}, nil
}

func (p *Player) Play()  { p.player.Play() }
func (p *Player) Pause() { p.player.Pause() }
func (p *Player) IsPlaying() bool {
	return p.player.IsPlaying()
}

// Position is the playback position of the device, excluding audio still
// queued in its buffer.
func (p *Player) Position() time.Duration { return p.player.Position() }

// Buffered reports how far rendering runs ahead of what has been heard.
func (p *Player) Buffered(sampleRate int) time.Duration {
	rendered := time.Duration(p.reader.Frames()) * time.Second / time.Duration(sampleRate)
	return max(rendered-p.Position(), 0)
}

func (p *Player) Close() error {
	p.player.Pause()
	if err := p.player.Close(); err != nil {
		return err
	}
	return p.reader.Close()
}
