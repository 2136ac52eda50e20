package snapshot

import (
	"sync"
	"sync/atomic"
)

// ChangeSignal is a one-shot notification tied to a single Snapshot instance.
//
// It fires exactly once, at the moment that snapshot is superseded by a newer
// one. Subscribers wait on Done(), then re-fetch the current snapshot and
// re-subscribe against its signal. The signal is never reused across
// snapshots.
type ChangeSignal struct {
	done  chan struct{}
	once  sync.Once
	fired atomic.Bool
}

// NewChangeSignal creates an unfired signal.
func NewChangeSignal() *ChangeSignal {
	return &ChangeSignal{done: make(chan struct{})}
}

// Done returns a channel closed when the owning snapshot is superseded.
func (s *ChangeSignal) Done() <-chan struct{} {
	return s.done
}

// Fired reports whether the signal has fired.
func (s *ChangeSignal) Fired() bool {
	return s.fired.Load()
}

// fire closes the done channel. Safe to call more than once; only the first
// call has effect. Only the Store calls this, strictly after the replacement
// snapshot is visible to readers.
func (s *ChangeSignal) fire() {
	s.once.Do(func() {
		s.fired.Store(true)
		close(s.done)
	})
}
