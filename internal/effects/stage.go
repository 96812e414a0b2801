package effects

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Stage is a lockable handle around one Effector. Every call holds the stage
// mutex for its full duration, so a replacement never lands mid-frame.
//
// A panic raised by the effect is recovered and poisons the stage: it passes
// frames through unchanged from then on and ignores replacements.
type Stage struct {
	name     string
	log      *logrus.Entry
	mu       sync.Mutex
	fx       Effector
	poisoned atomic.Bool
}

func newStage(name string, fx Effector, log *logrus.Entry) *Stage {
	return &Stage{
		name: name,
		fx:   fx,
		log:  log.WithField("stage", name),
	}
}

func (s *Stage) Name() string { return s.name }

// Poisoned reports whether the effect panicked while processing.
func (s *Stage) Poisoned() bool { return s.poisoned.Load() }

func (s *Stage) Process(f Frame) (out Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poisoned.Load() {
		return f
	}
	defer func() {
		if r := recover(); r != nil {
			s.poison(r)
			out = f
		}
	}()
	return s.fx.Process(f)
}

func (s *Stage) Leftover() (out Frame, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poisoned.Load() {
		return Frame{}, false
	}
	defer func() {
		if r := recover(); r != nil {
			s.poison(r)
			out, ok = Frame{}, false
		}
	}()
	return s.fx.Leftover()
}

func (s *Stage) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poisoned.Load() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.poison(r)
		}
	}()
	s.fx.Reset()
}

// Tail reports how many silent frames the effect needs to ring out. Effects
// without a tail and poisoned stages report 0.
func (s *Stage) Tail() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poisoned.Load() {
		return 0
	}
	if t, ok := s.fx.(Tailer); ok {
		return t.Tail()
	}
	return 0
}

// replace swaps in a new effect record. It reports false when the stage is
// poisoned and the update was dropped.
func (s *Stage) replace(fx Effector) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poisoned.Load() {
		s.log.Warn("dropping parameter update on poisoned stage")
		return false
	}
	s.fx = fx
	return true
}

// inspect runs fn with the current effect while the lock is held.
func (s *Stage) inspect(fn func(Effector)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.fx)
}

// poison must be called with s.mu held.
func (s *Stage) poison(r any) {
	s.poisoned.Store(true)
	s.log.WithField("panic", fmt.Sprint(r)).Error("effect panicked; stage bypassed")
}
