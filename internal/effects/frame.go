package effects

// Frame is one stereo sample pair. Values are not clamped; stages that need
// a bounded range (Distortion) enforce it themselves.
type Frame struct {
	Left  float32
	Right float32
}

// Add returns the element-wise sum of f and o.
func (f Frame) Add(o Frame) Frame {
	return Frame{Left: f.Left + o.Left, Right: f.Right + o.Right}
}

// Scale multiplies both channels by s.
func (f Frame) Scale(s float32) Frame {
	return Frame{Left: f.Left * s, Right: f.Right * s}
}
