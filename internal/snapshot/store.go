package snapshot

import (
	"sync"
	"sync/atomic"
)

// Store owns the current published Snapshot.
//
// Current() is a lock-free atomic read sized for the request path: it never
// blocks on I/O, parsing, or an in-flight rebuild. Publish() serializes
// concurrent publishers around the swap-and-notify step only; build work
// happens before Publish and needs no lock.
type Store struct {
	current atomic.Pointer[Snapshot]
	mu      sync.Mutex
	gen     uint64
}

// NewStore creates an empty store. Current() returns nil until the first
// Publish; callers are expected to publish an initial snapshot during
// startup before any reader is wired up.
func NewStore() *Store {
	return &Store{}
}

// Current returns the published snapshot, or nil before the first Publish.
// The returned snapshot is immutable; it stays valid (as that generation)
// for as long as the caller holds it.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Generation returns the generation of the published snapshot, 0 before the
// first Publish.
func (s *Store) Generation() uint64 {
	if cur := s.current.Load(); cur != nil {
		return cur.Generation
	}
	return 0
}

// Publish makes next the current snapshot and fires the superseded
// snapshot's change signal.
//
// The signal fires strictly after the swap: a subscriber woken by the signal
// for generation N that immediately calls Current() observes generation
// >= N+1, never N. Publish calls serialize, so generations are assigned in
// publish order and a snapshot can never be published out of order with its
// notification.
func (s *Store) Publish(next *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	next.Generation = s.gen

	prev := s.current.Swap(next)
	if prev != nil {
		prev.signal.fire()
	}
}
