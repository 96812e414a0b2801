package effects

import "github.com/sirupsen/logrus"

// Chain is the fixed processing pipeline [Distortion, Delay, Reverb, Volume].
// Each stage has its own lock and the chain has none; rendering holds at most
// one stage lock at a time.
type Chain struct {
	distortion *Stage
	delay      *Stage
	reverb     *Stage
	volume     *Stage
}

type ChainOption func(*chainConfig)

type chainConfig struct {
	log *logrus.Entry
}

func defaultChainConfig() chainConfig {
	return chainConfig{log: logrus.NewEntry(logrus.StandardLogger())}
}

// WithLogger routes stage diagnostics to log.
func WithLogger(log *logrus.Entry) ChainOption {
	return func(cfg *chainConfig) {
		if log != nil {
			cfg.log = log
		}
	}
}

// NewChain creates a chain with every stage at its transparent default.
func NewChain(opts ...ChainOption) *Chain {
	cfg := defaultChainConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	distortion := DefaultDistortion()
	delay := DefaultDelay()
	reverb := DefaultReverb()
	volume := DefaultVolume()
	return &Chain{
		distortion: newStage("distortion", &distortion, cfg.log),
		delay:      newStage("delay", &delay, cfg.log),
		reverb:     newStage("reverb", &reverb, cfg.log),
		volume:     newStage("volume", &volume, cfg.log),
	}
}

// Stages returns the stage handles in processing order. The slice is new on
// every call; the handles share state with the chain.
func (c *Chain) Stages() []*Stage {
	order := c.order()
	return order[:]
}

func (c *Chain) order() [4]*Stage {
	return [4]*Stage{c.distortion, c.delay, c.reverb, c.volume}
}

func (c *Chain) SetVolume(v Volume) {
	c.volume.replace(&v)
}

func (c *Chain) SetDistortion(d Distortion) {
	c.distortion.replace(&d)
}

// SetDelay installs d with its own copy of the ring, so the caller's value
// never aliases render state.
func (c *Chain) SetDelay(d Delay) {
	own := d.clone()
	c.delay.replace(&own)
}

func (c *Chain) SetReverb(r Reverb) {
	c.reverb.replace(&r)
}

// Volume returns a snapshot of the current volume parameters.
func (c *Chain) Volume() Volume {
	var v Volume
	c.volume.inspect(func(fx Effector) {
		if cur, ok := fx.(*Volume); ok {
			v = *cur
		}
	})
	return v
}

// Distortion returns a snapshot of the current distortion parameters.
func (c *Chain) Distortion() Distortion {
	var d Distortion
	c.distortion.inspect(func(fx Effector) {
		if cur, ok := fx.(*Distortion); ok {
			d = *cur
		}
	})
	return d
}

// Delay returns a copy of the current delay, ring included.
func (c *Chain) Delay() Delay {
	var d Delay
	c.delay.inspect(func(fx Effector) {
		if cur, ok := fx.(*Delay); ok {
			d = cur.clone()
		}
	})
	return d
}

func (c *Chain) Process(f Frame) Frame {
	for _, s := range c.order() {
		f = s.Process(f)
	}
	return f
}

// Tail returns the longest stage tail: the number of silent frames that must
// pass through Process before the chain outputs silence again. Feeding silence
// keeps the delay spacing intact, unlike Leftover, which shortens the ring.
func (c *Chain) Tail() int {
	n := 0
	for _, s := range c.order() {
		n = max(n, s.Tail())
	}
	return n
}

// Leftover drains residual tails. The first stage with output left has its
// frame carried through the stages after it. It reports false once every
// stage is drained; callers should stop pulling at that point. Call Reset
// before processing new input after a partial drain.
func (c *Chain) Leftover() (Frame, bool) {
	stages := c.order()
	for i, s := range stages {
		f, ok := s.Leftover()
		if !ok {
			continue
		}
		for _, next := range stages[i+1:] {
			f = next.Process(f)
		}
		return f, true
	}
	return Frame{}, false
}

// Reset restores every stage's processing state, re-arming the delay ring
// after a drain.
func (c *Chain) Reset() {
	for _, s := range c.order() {
		s.Reset()
	}
}
