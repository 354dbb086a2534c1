package gateway

import (
	"sync"
	"sync/atomic"
)

// StopSignal is a cooperative, idempotent shutdown flag shared by every loop
// the Supervisor spawns. Loops poll Stopped() at iteration boundaries (after
// a timed read, before a blocking send) and may also select on Done() to
// wake immediately instead of waiting out a timeout.
type StopSignal struct {
	flag atomic.Bool
	ch   chan struct{}
	once sync.Once
}

// NewStopSignal returns an unstopped StopSignal.
func NewStopSignal() *StopSignal {
	return &StopSignal{ch: make(chan struct{})}
}

// Stop requests shutdown. Safe to call more than once or concurrently.
func (s *StopSignal) Stop() {
	s.once.Do(func() {
		s.flag.Store(true)
		close(s.ch)
	})
}

// Stopped reports whether Stop has been called.
func (s *StopSignal) Stopped() bool {
	return s.flag.Load()
}

// Done returns a channel closed when Stop is called.
func (s *StopSignal) Done() <-chan struct{} {
	return s.ch
}
