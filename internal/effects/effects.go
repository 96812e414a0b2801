package effects

// Effector processes one stereo frame at a time and may keep state between
// calls. Leftover drains residual output after the input has ended and
// reports false when nothing remains.
type Effector interface {
	Process(f Frame) Frame
	Leftover() (Frame, bool)
	Reset()
}

// Tailer is implemented by effects whose output keeps ringing after the input
// falls silent.
type Tailer interface {
	Tail() int
}
