package fxmix

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	intaudio "github.com/cbegin/fxmix-go/internal/audio"
	"github.com/cbegin/fxmix-go/internal/decode"
	intfx "github.com/cbegin/fxmix-go/internal/effects"
)

type (
	Frame      = intfx.Frame
	Volume     = intfx.Volume
	Distortion = intfx.Distortion
	Delay      = intfx.Delay
	Reverb     = intfx.Reverb
)

var (
	NewVolume     = intfx.NewVolume
	PannedVolume  = intfx.PannedVolume
	NewDistortion = intfx.NewDistortion
	NewReverb     = intfx.NewReverb
)

type MixerOption func(*mixerConfig)

type mixerConfig struct {
	log        *logrus.Entry
	maxVoices  int
	sampleTap  func([]float32)
	bufferSize time.Duration
	registry   *decode.Registry
}

func defaultMixerConfig() mixerConfig {
	return mixerConfig{
		log:       logrus.StandardLogger().WithField("component", "fxmix"),
		maxVoices: 32,
	}
}

// WithLogger sets the destination for mixer and chain diagnostics.
func WithLogger(log *logrus.Entry) MixerOption {
	return func(cfg *mixerConfig) {
		if log != nil {
			cfg.log = log
		}
	}
}

// WithMaxVoices caps concurrent one-shot sounds. When the cap is reached the
// oldest sound is cut off. Values below 1 are ignored.
func WithMaxVoices(n int) MixerOption {
	return func(cfg *mixerConfig) {
		if n > 0 {
			cfg.maxVoices = n
		}
	}
}

// WithSampleTap installs a callback invoked with each rendered stereo buffer.
// The callback runs on the audio goroutine; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) MixerOption {
	return func(cfg *mixerConfig) {
		cfg.sampleTap = tap
	}
}

// WithBufferSize sets the output device buffer, trading latency for
// robustness against scheduling hiccups.
func WithBufferSize(d time.Duration) MixerOption {
	return func(cfg *mixerConfig) {
		cfg.bufferSize = d
	}
}

// WithRegistry replaces the decoders used by NewMusic.
func WithRegistry(r *decode.Registry) MixerOption {
	return func(cfg *mixerConfig) {
		if r != nil {
			cfg.registry = r
		}
	}
}

// Mixer sums active sounds and music, runs the result through its effect
// chain, and hands frames to the output device. Control methods may be called
// from any goroutine while rendering is in progress.
type Mixer struct {
	sampleRate int
	log        *logrus.Entry
	chain      *intfx.Chain
	registry   *decode.Registry
	maxVoices  int
	sampleTap  func([]float32)
	bufferSize time.Duration

	mu     sync.Mutex
	voices []*voice
	audio  *intaudio.Player
	closed atomic.Bool
	ids    atomic.Uint64

	// render goroutine only
	renderMu sync.Mutex
	scratch  []*voice
	idle     int
	drained  bool
}

func NewMixer(sampleRate int, opts ...MixerOption) (*Mixer, error) {
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	cfg := defaultMixerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.registry == nil {
		cfg.registry = decode.DefaultRegistry()
	}
	return &Mixer{
		sampleRate: sampleRate,
		log:        cfg.log,
		chain:      intfx.NewChain(intfx.WithLogger(cfg.log)),
		registry:   cfg.registry,
		maxVoices:  cfg.maxVoices,
		sampleTap:  cfg.sampleTap,
		bufferSize: cfg.bufferSize,
	}, nil
}

func (m *Mixer) SampleRate() int { return m.sampleRate }

// Chain exposes the effect chain for direct stage access.
func (m *Mixer) Chain() *intfx.Chain { return m.chain }

func (m *Mixer) SetVolume(v Volume)         { m.chain.SetVolume(v) }
func (m *Mixer) SetDistortion(d Distortion) { m.chain.SetDistortion(d) }
func (m *Mixer) SetDelay(d Delay)           { m.chain.SetDelay(d) }
func (m *Mixer) SetReverb(r Reverb)         { m.chain.SetReverb(r) }

// NewDelay builds a delay sized for this mixer's sample rate.
func (m *Mixer) NewDelay(duration time.Duration, cycles int, decay float32) Delay {
	return intfx.NewDelay(duration, cycles, decay, m.sampleRate)
}

// PlaySound starts a one-shot playback of s. A nil sound is ignored.
func (m *Mixer) PlaySound(s *Sound) error {
	if s == nil {
		return nil
	}
	return m.addVoice(newVoice(m.nextVoiceID(), &soundCursor{sound: s}, m.sampleRate))
}

func (m *Mixer) nextVoiceID() uint64 { return m.ids.Add(1) }

func (m *Mixer) addVoice(v *voice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed.Load() {
		return ErrMixerClosed
	}
	if v.music == nil {
		m.evictSounds()
	}
	m.voices = append(m.voices, v)
	return nil
}

// evictSounds cuts the oldest one-shot sounds until there is room for one
// more. Must be called with m.mu held.
func (m *Mixer) evictSounds() {
	sounds := 0
	for _, v := range m.voices {
		if v.music == nil && !v.done.Load() {
			sounds++
		}
	}
	for _, v := range m.voices {
		if sounds < m.maxVoices {
			return
		}
		if v.music == nil && !v.done.Load() {
			v.done.Store(true)
			sounds--
			m.log.WithField("voice", v.id).Debug("voice limit reached; cutting oldest sound")
		}
	}
}

// ActiveVoices returns the number of sounds and tracks not yet finished.
func (m *Mixer) ActiveVoices() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, v := range m.voices {
		if !v.done.Load() {
			n++
		}
	}
	return n
}

// Start opens the output device and begins pulling frames.
func (m *Mixer) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed.Load() {
		return ErrMixerClosed
	}
	if m.audio != nil {
		m.audio.Play()
		return nil
	}
	backend, err := intaudio.NewPlayer(m.sampleRate, m, m.bufferSize)
	if err != nil {
		return fmt.Errorf("starting output: %w", err)
	}
	m.audio = backend
	m.audio.Play()
	m.log.WithField("sample_rate", m.sampleRate).Info("audio output started")
	return nil
}

// Position reports how much audio the output device has played since Start.
// It is zero before Start and after Close.
func (m *Mixer) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.audio == nil {
		return 0
	}
	return m.audio.Position()
}

// Latency reports how far rendering runs ahead of Position. Parameter
// changes become audible after roughly this long.
func (m *Mixer) Latency() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.audio == nil {
		return 0
	}
	return m.audio.Buffered(m.sampleRate)
}

// Close stops output and releases every voice. The mixer cannot be reused.
func (m *Mixer) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	m.mu.Lock()
	backend := m.audio
	m.audio = nil
	voices := m.voices
	m.voices = nil
	m.mu.Unlock()

	var err error
	if backend != nil {
		err = backend.Close()
	}
	m.renderMu.Lock()
	defer m.renderMu.Unlock()
	for _, v := range voices {
		v.done.Store(true)
		_ = v.src.close()
	}
	return err
}

// Finished reports whether the mixer was closed; the device stream ends then.
func (m *Mixer) Finished() bool { return m.closed.Load() }

// Process satisfies the device's pull interface.
func (m *Mixer) Process(dst []float32) { m.Render(dst) }

// Render fills dst with interleaved stereo frames. Every frame is the sum of
// the active voices pushed through the chain; with nothing playing, silence
// is fed through the chain until its tail has rung out.
func (m *Mixer) Render(dst []float32) {
	m.renderMu.Lock()
	defer m.renderMu.Unlock()

	m.mu.Lock()
	m.scratch = append(m.scratch[:0], m.voices...)
	m.mu.Unlock()

	frames := len(dst) / 2
	for i := 0; i < frames; i++ {
		f := m.renderFrame()
		dst[2*i], dst[2*i+1] = f.Left, f.Right
	}
	if len(dst)%2 == 1 {
		dst[len(dst)-1] = 0
	}
	m.reap()
	if m.sampleTap != nil {
		m.sampleTap(dst)
	}
}

func (m *Mixer) renderFrame() Frame {
	var sum Frame
	active := false
	for _, v := range m.scratch {
		if v.done.Load() || v.paused() {
			continue
		}
		f, ok := v.read()
		if !ok {
			m.finish(v)
			continue
		}
		sum = sum.Add(f)
		active = true
	}
	if active {
		if m.drained {
			m.chain.Reset()
			m.drained = false
		}
		m.idle = 0
		return m.chain.Process(sum)
	}
	if m.drained {
		return Frame{}
	}
	// Silence keeps the delay line at full length while the tail rings out.
	if m.idle >= m.chain.Tail() {
		m.drained = true
		return Frame{}
	}
	m.idle++
	return m.chain.Process(Frame{})
}

func (m *Mixer) finish(v *voice) {
	v.done.Store(true)
	if err := v.src.err(); err != nil {
		m.log.WithFields(logrus.Fields{"voice": v.id, "error": err}).Warn("voice ended early")
	}
	if err := v.src.close(); err != nil {
		m.log.WithFields(logrus.Fields{"voice": v.id, "error": err}).Warn("closing voice source")
	}
}

// reap drops finished voices from the shared list.
func (m *Mixer) reap() {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.voices[:0]
	for _, v := range m.voices {
		if !v.done.Load() {
			kept = append(kept, v)
		}
	}
	clear(m.voices[len(kept):])
	m.voices = kept
}
