package fxmix

import (
	"errors"
	"io"
	"sync/atomic"

	"github.com/cbegin/fxmix-go/internal/decode"
	intfx "github.com/cbegin/fxmix-go/internal/effects"
)

// frameSource yields source-rate frames one at a time.
type frameSource interface {
	next() (intfx.Frame, bool)
	rate() int
	// err reports why the source ended early, if it did.
	err() error
	close() error
}

func toFrame(samples []float32) intfx.Frame {
	if len(samples) == 1 {
		return intfx.Frame{Left: samples[0], Right: samples[0]}
	}
	return intfx.Frame{Left: samples[0], Right: samples[1]}
}

// soundCursor walks a Sound's samples.
type soundCursor struct {
	sound *Sound
	pos   int
}

func (c *soundCursor) next() (intfx.Frame, bool) {
	ch := int(c.sound.channels)
	if c.pos+ch > len(c.sound.samples) {
		return intfx.Frame{}, false
	}
	f := toFrame(c.sound.samples[c.pos : c.pos+ch])
	c.pos += ch
	return f, true
}

func (c *soundCursor) rate() int    { return int(c.sound.sampleRate) }
func (c *soundCursor) err() error   { return nil }
func (c *soundCursor) close() error { return nil }

// streamCursor decodes a Stream in chunks on the render goroutine.
type streamCursor struct {
	stream  decode.Stream
	buf     []float32
	pos     int
	n       int
	eof     bool
	readErr error
}

func newStreamCursor(s decode.Stream) *streamCursor {
	return &streamCursor{stream: s, buf: make([]float32, 1024*s.Channels())}
}

func (c *streamCursor) next() (intfx.Frame, bool) {
	ch := c.stream.Channels()
	for c.pos+ch > c.n {
		if c.eof {
			return intfx.Frame{}, false
		}
		c.fill()
	}
	f := toFrame(c.buf[c.pos : c.pos+ch])
	c.pos += ch
	return f, true
}

func (c *streamCursor) fill() {
	// Keep any partial frame at the front.
	rem := copy(c.buf, c.buf[c.pos:c.n])
	c.pos, c.n = 0, rem
	empty := 0
	for !c.eof {
		n, err := c.stream.ReadSamples(c.buf[c.n:])
		c.n += n
		switch {
		case errors.Is(err, io.EOF):
			c.eof = true
		case err != nil:
			c.eof = true
			c.readErr = err
		case n > 0:
			return
		default:
			if empty++; empty >= 100 {
				c.eof = true
				c.readErr = io.ErrNoProgress
			}
		}
	}
}

func (c *streamCursor) rate() int    { return c.stream.SampleRate() }
func (c *streamCursor) err() error   { return c.readErr }
func (c *streamCursor) close() error { return c.stream.Close() }

// voice resamples one source to the mixer rate. All fields except done and
// music are owned by the render goroutine.
type voice struct {
	id    uint64
	src   frameSource
	step  float64 // source frames per output frame
	pos   float64
	win   [4]intfx.Frame // t-1, t0, t+1, t+2
	live  int            // real frames in win[1:]
	done  atomic.Bool
	music *Music
	prime bool
}

func newVoice(id uint64, src frameSource, mixRate int) *voice {
	return &voice{
		id:    id,
		src:   src,
		step:  float64(src.rate()) / float64(mixRate),
		prime: true,
	}
}

func (v *voice) paused() bool {
	return v.music != nil && !v.music.playing.Load()
}

// read returns the next output frame, or false once the source is spent.
func (v *voice) read() (intfx.Frame, bool) {
	if v.step == 1 {
		return v.src.next()
	}
	if v.prime {
		v.prime = false
		for i := 1; i < len(v.win); i++ {
			v.pull(i)
		}
	}
	if v.live == 0 {
		return intfx.Frame{}, false
	}
	x := float32(v.pos)
	out := intfx.Frame{
		Left:  cubic(v.win[0].Left, v.win[1].Left, v.win[2].Left, v.win[3].Left, x),
		Right: cubic(v.win[0].Right, v.win[1].Right, v.win[2].Right, v.win[3].Right, x),
	}
	v.pos += v.step
	for v.pos >= 1 && v.live > 0 {
		v.pos--
		v.shift()
	}
	return out, true
}

func (v *voice) shift() {
	copy(v.win[:3], v.win[1:])
	v.live--
	v.pull(3)
}

func (v *voice) pull(i int) {
	f, ok := v.src.next()
	if ok {
		v.live++
	}
	v.win[i] = f
}

// cubic is Catmull-Rom interpolation between y1 and y2 at fraction x.
func cubic(y0, y1, y2, y3, x float32) float32 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	return a0*x*x*x + a1*x*x + a2*x + y1
}
