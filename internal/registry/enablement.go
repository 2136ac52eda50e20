package registry

import "sync/atomic"

// Enablement provides atomic access to the last-applied enabled-flags map.
//
// The reload path stores a fresh map after every successful rebuild; the
// introspection surface reads it lock-free. Stored maps must never be
// mutated after Store - a new map is built per reload.
type Enablement struct {
	ptr atomic.Pointer[map[string]bool]
}

// NewEnablement creates an Enablement holding the given initial flags.
func NewEnablement(initial map[string]bool) *Enablement {
	e := &Enablement{}
	e.Store(initial)
	return e
}

// Get returns the current flags map. Never nil.
func (e *Enablement) Get() map[string]bool {
	p := e.ptr.Load()
	if p == nil {
		return map[string]bool{}
	}
	return *p
}

// Store atomically replaces the flags map.
func (e *Enablement) Store(flags map[string]bool) {
	if flags == nil {
		flags = map[string]bool{}
	}
	e.ptr.Store(&flags)
}
