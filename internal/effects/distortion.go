package effects

import "math"

// Distortion implements power-law soft clipping. crunch 0 leaves in-range
// signals untouched, crunch 1 pushes every nonzero sample to ±1.
type Distortion struct {
	crunch float32
}

// NewDistortion creates a distortion stage. crunch is clamped to [0,1].
func NewDistortion(crunch float32) Distortion {
	return Distortion{crunch: clamp(crunch, 0, 1)}
}

func DefaultDistortion() Distortion { return NewDistortion(0) }

func (d Distortion) Crunch() float32 { return d.crunch }

func (d *Distortion) Process(f Frame) Frame {
	c := float64(1 - d.crunch)
	return Frame{Left: shape(f.Left, c), Right: shape(f.Right, c)}
}

// shape returns sign(v) * min(1, |v|^c). Silence stays silent so that full
// crunch does not turn 0^0 into a DC offset.
func shape(v float32, c float64) float32 {
	if v == 0 {
		return 0
	}
	sign := float32(1)
	if v < 0 {
		sign = -1
	}
	mag := float32(math.Pow(float64(v*sign), c))
	return min(mag, 1) * sign
}

func (d *Distortion) Leftover() (Frame, bool) { return Frame{}, false }

func (d *Distortion) Reset() {}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
