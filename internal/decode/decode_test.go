package decode

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func wavFixture(t *testing.T, sampleRate, channels int, data []int) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return raw
}

func aiffFixture(t *testing.T, sampleRate, channels int, data []int) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.aiff")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	enc := aiff.NewEncoder(f, sampleRate, 16, channels)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write aiff: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return raw
}

func TestSniff(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		data []byte
		want Format
		err  error
	}{
		{"empty", nil, "", ErrEmptyInput},
		{"wav", []byte("RIFF\x00\x00\x00\x00WAVEfmt "), FormatWAV, nil},
		{"aiff", []byte("FORM\x00\x00\x00\x00AIFFCOMM"), FormatAIFF, nil},
		{"aifc", []byte("FORM\x00\x00\x00\x00AIFCCOMM"), FormatAIFF, nil},
		{"ogg", []byte("OggS\x00\x02"), FormatVorbis, nil},
		{"id3", []byte("ID3\x04\x00"), FormatMP3, nil},
		{"mpeg sync", []byte{0xFF, 0xFB, 0x90, 0x00}, FormatMP3, nil},
		{"text", []byte("hello world"), "", ErrUnknownFormat},
		{"riff not wave", []byte("RIFF\x00\x00\x00\x00AVI LIST"), "", ErrUnknownFormat},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Sniff(tc.data)
			if !errors.Is(err, tc.err) {
				t.Fatalf("Sniff() error = %v, want %v", err, tc.err)
			}
			if got != tc.want {
				t.Fatalf("Sniff() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDecodeWAVStereo16(t *testing.T) {
	t.Parallel()

	data := []int{0, 0, 16384, -16384, 32767, -32768, -8192, 8192}
	pcm, err := Decode(wavFixture(t, 22050, 2, data))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if pcm.Channels != 2 || pcm.SampleRate != 22050 {
		t.Fatalf("format = %d ch @ %d Hz, want 2 @ 22050", pcm.Channels, pcm.SampleRate)
	}
	if len(pcm.Samples) != len(data) {
		t.Fatalf("samples = %d, want %d", len(pcm.Samples), len(data))
	}
	for i, v := range data {
		want := float32(v) / 32768
		if math.Abs(float64(pcm.Samples[i]-want)) > 1e-6 {
			t.Errorf("sample %d = %v, want %v", i, pcm.Samples[i], want)
		}
	}
}

func TestDecodeAIFFMono16(t *testing.T) {
	t.Parallel()

	data := []int{100, -100, 16384, -16384}
	pcm, err := Decode(aiffFixture(t, 8000, 1, data))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if pcm.Channels != 1 || pcm.SampleRate != 8000 {
		t.Fatalf("format = %d ch @ %d Hz, want 1 @ 8000", pcm.Channels, pcm.SampleRate)
	}
	if len(pcm.Samples) != len(data) {
		t.Fatalf("samples = %d, want %d", len(pcm.Samples), len(data))
	}
	for i, v := range data {
		want := float32(v) / 32768
		if math.Abs(float64(pcm.Samples[i]-want)) > 1e-6 {
			t.Errorf("sample %d = %v, want %v", i, pcm.Samples[i], want)
		}
	}
}

func TestDecodeRejectsBadInput(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		data []byte
		err  error
	}{
		{"empty", nil, ErrEmptyInput},
		{"unknown", []byte("definitely not audio"), ErrUnknownFormat},
		{"truncated wav", []byte("RIFF\x24\x00\x00\x00WAVE"), ErrInvalidFile},
		{"truncated ogg", []byte("OggS\x00\x02\x00\x00"), ErrInvalidFile},
		{"truncated mp3", []byte("ID3\x04\x00\x00\x00\x00\x00\x7f"), ErrInvalidFile},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.data)
			if !errors.Is(err, tc.err) {
				t.Fatalf("Decode() error = %v, want %v", err, tc.err)
			}
		})
	}
}

func TestRegistryWithoutDecoder(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	_, err := r.Open(wavFixture(t, 8000, 1, []int{1, 2, 3}))
	if !errors.Is(err, ErrNoDecoder) {
		t.Fatalf("Open() error = %v, want %v", err, ErrNoDecoder)
	}
	r.Register(FormatWAV, WAVDecoder{})
	if _, ok := r.Get(FormatWAV); !ok {
		t.Fatal("Get() after Register should find the decoder")
	}
	data := wavFixture(t, 8000, 1, []int{1, 2, 3})
	s, err := r.OpenFormat(FormatWAV, data)
	if err != nil {
		t.Fatalf("OpenFormat(wav) error = %v", err)
	}
	s.Close()
	if _, err := r.OpenFormat(FormatMP3, data); !errors.Is(err, ErrNoDecoder) {
		t.Fatalf("OpenFormat(mp3) error = %v, want %v", err, ErrNoDecoder)
	}
}

type mockMP3 struct {
	data []byte
	rate int
}

func (m *mockMP3) SampleRate() int { return m.rate }

func (m *mockMP3) Read(p []byte) (int, error) {
	if len(m.data) == 0 {
		return 0, io.EOF
	}
	n := copy(p, m.data)
	m.data = m.data[n:]
	return n, nil
}

func TestMP3StreamConvertsInt16(t *testing.T) {
	t.Parallel()

	// 0x4000 = 16384, 0xC000 = -16384, one dangling byte
	s := &mp3Stream{dec: &mockMP3{data: []byte{0x00, 0x40, 0x00, 0xC0, 0x01}, rate: 44100}}
	if s.Channels() != 2 || s.SampleRate() != 44100 {
		t.Fatalf("format = %d ch @ %d Hz", s.Channels(), s.SampleRate())
	}
	dst := make([]float32, 8)
	n, err := s.ReadSamples(dst)
	if err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if n != 2 || dst[0] != 0.5 || dst[1] != -0.5 {
		t.Fatalf("ReadSamples() = %d %v, want 2 [0.5 -0.5]", n, dst[:n])
	}
	if n, err := s.ReadSamples(dst); n != 0 || err != io.EOF {
		t.Fatalf("ReadSamples() at end = %d, %v, want 0, EOF", n, err)
	}
}

type mockOgg struct {
	samples  []float32
	channels int
}

func (m *mockOgg) SampleRate() int { return 48000 }
func (m *mockOgg) Channels() int   { return m.channels }

func (m *mockOgg) Read(p []float32) (int, error) {
	if len(m.samples) == 0 {
		return 0, io.EOF
	}
	n := copy(p, m.samples)
	m.samples = m.samples[n:]
	return n, nil
}

func TestVorbisStreamReadsWholeFrames(t *testing.T) {
	t.Parallel()

	s := &vorbisStream{dec: &mockOgg{samples: []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}, channels: 2}}
	dst := make([]float32, 5)
	n, err := s.ReadSamples(dst)
	if err != nil || n != 4 {
		t.Fatalf("ReadSamples() = %d, %v, want 4, nil", n, err)
	}
	pcm, err := ReadAll(s)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(pcm.Samples) != 2 || pcm.Samples[0] != 0.5 {
		t.Fatalf("ReadAll() samples = %v, want [0.5 0.6]", pcm.Samples)
	}
}

type stuckStream struct{}

func (stuckStream) SampleRate() int                    { return 8000 }
func (stuckStream) Channels() int                      { return 1 }
func (stuckStream) ReadSamples([]float32) (int, error) { return 0, nil }
func (stuckStream) Close() error                       { return nil }

func TestReadAllDetectsStuckStream(t *testing.T) {
	t.Parallel()

	if _, err := ReadAll(stuckStream{}); !errors.Is(err, io.ErrNoProgress) {
		t.Fatalf("ReadAll() error = %v, want %v", err, io.ErrNoProgress)
	}
}
