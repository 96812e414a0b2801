package effects

// Reverb is a passthrough placeholder. No decay or diffusion model exists
// yet; the constructor argument is accepted for API stability and ignored.
type Reverb struct{}

// NewReverb creates a reverb stage. decay is currently unused.
func NewReverb(decay float32) Reverb {
	_ = decay
	return Reverb{}
}

func DefaultReverb() Reverb { return NewReverb(0) }

func (r *Reverb) Process(f Frame) Frame { return f }

func (r *Reverb) Leftover() (Frame, bool) { return Frame{}, false }

func (r *Reverb) Reset() {}
