package fxmix

import "errors"

var (
	ErrInvalidSampleRate = errors.New("fxmix: sample rate must be positive")
	ErrInvalidSound      = errors.New("fxmix: sound needs at least one channel and a positive sample rate")
	ErrMixerClosed       = errors.New("fxmix: mixer is closed")
)
