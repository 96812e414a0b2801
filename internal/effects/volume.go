package effects

// Volume applies independent gains to the left and right channels.
type Volume struct {
	left  float32
	right float32
}

// NewVolume sets both channels to v.
func NewVolume(v float32) Volume {
	return PannedVolume(v, v)
}

// PannedVolume sets per-channel gains. Negative gains are floored to 0;
// phase inversion is not supported.
func PannedVolume(l, r float32) Volume {
	return Volume{
		left:  max(l, 0),
		right: max(r, 0),
	}
}

// DefaultVolume is unity gain.
func DefaultVolume() Volume { return NewVolume(1) }

func (v Volume) Left() float32  { return v.left }
func (v Volume) Right() float32 { return v.right }

func (v *Volume) Process(f Frame) Frame {
	return Frame{Left: f.Left * v.left, Right: f.Right * v.right}
}

func (v *Volume) Leftover() (Frame, bool) { return Frame{}, false }

func (v *Volume) Reset() {}
