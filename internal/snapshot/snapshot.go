// Package snapshot builds, stores, and publishes merged routing snapshots.
//
// A Snapshot is one complete, internally consistent view of every enabled
// fragment's routes and clusters. Snapshots are immutable once published: a
// reload constructs a whole new Snapshot and atomically replaces the current
// one, so in-flight readers keep a consistent view and never observe a
// partial merge.
package snapshot

import (
	"time"

	"github.com/omarluq/cfgmux/internal/fragment"
)

// Snapshot is one merged routing configuration ready to be served.
//
// Routes and Clusters are ordered: position is first-seen merge order, which
// downstream priority semantics may rely on. Generation is assigned by the
// Store at publish time and increases monotonically; it is never persisted.
type Snapshot struct {
	Routes     []fragment.Route
	Clusters   []fragment.Cluster
	Generation uint64
	BuiltAt    time.Time

	signal *ChangeSignal
}

// ChangeSignal returns the one-shot signal fired when this snapshot is
// superseded by the next published one.
func (s *Snapshot) ChangeSignal() *ChangeSignal {
	return s.signal
}
