package effects

import (
	"math"
	"time"
)

// Delay is a multi-tap echo. The ring holds spacing*cycles frames; tap i reads
// offset i*spacing from the oldest frame and is weighted decay^(cycles-i), so
// the oldest tap is the quietest.
type Delay struct {
	ring    []Frame
	head    int
	size    int
	spacing int
	cycles  int
	decay   float32
}

// MaxDelayFrames bounds the ring of a single delay, a little over three
// minutes of echo at 44.1 kHz.
const MaxDelayFrames = 1 << 23

// NewDelay creates a delay whose echoes are duration apart at sampleRate.
// Negative durations and cycle counts are treated as 0; decay is clamped to [0,1].
// The spacing is capped at MaxDelayFrames and cycles is reduced until the ring
// fits in MaxDelayFrames.
func NewDelay(duration time.Duration, cycles int, decay float32, sampleRate int) Delay {
	spacing := 0
	if duration > 0 && sampleRate > 0 {
		spacing = int(min(duration.Seconds()*float64(sampleRate), MaxDelayFrames))
	}
	cycles = max(cycles, 0)
	if spacing > 0 {
		cycles = min(cycles, MaxDelayFrames/spacing)
	}
	d := Delay{
		ring:    make([]Frame, spacing*cycles),
		spacing: spacing,
		cycles:  cycles,
		decay:   clamp(decay, 0, 1),
	}
	d.size = len(d.ring)
	return d
}

// DefaultDelay is a bypassed delay with no ring.
func DefaultDelay() Delay { return NewDelay(0, 0, 0, 0) }

// Spacing returns the echo spacing in frames.
func (d Delay) Spacing() int   { return d.spacing }
func (d Delay) Cycles() int    { return d.cycles }
func (d Delay) Decay() float32 { return d.decay }
func (d Delay) Buffered() int  { return d.size }
func (d Delay) Capacity() int  { return len(d.ring) }

// Tail returns how many frames of silent input it takes for every buffered
// echo to leave the ring.
func (d Delay) Tail() int {
	if d.bypassed() {
		return 0
	}
	return d.size
}

func (d Delay) bypassed() bool {
	return d.spacing == 0 || d.cycles == 0 || d.decay == 0
}

func (d *Delay) Process(f Frame) Frame {
	if d.bypassed() {
		return f
	}
	out := d.taps(f)
	// push back, pop front
	d.ring[(d.head+d.size)%len(d.ring)] = f
	d.head = (d.head + 1) % len(d.ring)
	return out
}

// Leftover emits the echo still resident in the ring once the input has
// ended, consuming one frame per call. It reports false once the ring is empty.
func (d *Delay) Leftover() (Frame, bool) {
	if d.size == 0 {
		return Frame{}, false
	}
	out := d.taps(Frame{})
	d.head = (d.head + 1) % len(d.ring)
	d.size--
	return out, true
}

// Reset refills the ring with silence.
func (d *Delay) Reset() {
	clear(d.ring)
	d.head = 0
	d.size = len(d.ring)
}

func (d *Delay) taps(acc Frame) Frame {
	for i := 0; i < d.cycles; i++ {
		off := i * d.spacing
		if off >= d.size {
			continue
		}
		w := float32(math.Pow(float64(d.decay), float64(d.cycles-i)))
		acc = acc.Add(d.ring[(d.head+off)%len(d.ring)].Scale(w))
	}
	return acc
}

func (d Delay) clone() Delay {
	d.ring = append([]Frame(nil), d.ring...)
	return d
}
