package agent

import "sync/atomic"

// Session is a caller-owned guard that stops one caller from starting a
// second run while the first is in flight. Each caller keeps its own.
type Session struct {
	running atomic.Bool
}

// TryStart claims the session. It returns false if a run is already active.
func (s *Session) TryStart() bool {
	return s.running.CompareAndSwap(false, true)
}

// Done releases the session.
func (s *Session) Done() {
	s.running.Store(false)
}

func (s *Session) Running() bool {
	return s.running.Load()
}
