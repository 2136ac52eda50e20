// Package reload turns file events and manual requests into serialized
// snapshot rebuilds.
package reload

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/omarluq/cfgmux/internal/config"
	"github.com/omarluq/cfgmux/internal/registry"
	"github.com/omarluq/cfgmux/internal/snapshot"
)

// ErrTriggerClosed is returned when an operation is attempted on a closed trigger.
var ErrTriggerClosed = errors.New("reload: trigger already closed")

// Trigger monitors the master config file and coalesces change bursts into
// single rebuilds. It watches the parent directory to properly detect atomic
// writes (temp file + rename pattern) and debounces rapid events from
// editors.
//
// Rebuilds are serialized: at most one runs at a time, and any number of
// requests arriving during a rebuild collapse into exactly one follow-up.
type Trigger struct {
	path       string
	fsWatcher  *fsnotify.Watcher
	builder    *snapshot.Builder
	store      *snapshot.Store
	enablement *registry.Enablement
	breaker    *gobreaker.CircuitBreaker[*snapshot.Snapshot]
	limiter    *rate.Limiter
	debounce   time.Duration

	// kicks has capacity 1: a send while a rebuild is queued is a no-op,
	// which is what coalesces bursts.
	kicks chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	closed bool
}

// Option configures a Trigger.
type Option func(*Trigger)

// WithDebounce sets the debounce delay for file change events.
// Default is 100ms. A longer delay helps with editors that trigger multiple events.
func WithDebounce(d time.Duration) Option {
	return func(t *Trigger) {
		t.debounce = d
	}
}

// New creates a Trigger watching the master config file at path.
// The reload config supplies the debounce delay, rebuild rate cap, and
// circuit breaker thresholds; options override it.
func New(path string, rcfg config.ReloadConfig, builder *snapshot.Builder, store *snapshot.Store, enablement *registry.Enablement, opts ...Option) (*Trigger, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	limit := rate.Inf
	if perSec, ok := rcfg.GetRateOption().Get(); ok {
		limit = rate.Limit(perSec)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &Trigger{
		path:       absPath,
		fsWatcher:  fsWatcher,
		builder:    builder,
		store:      store,
		enablement: enablement,
		debounce:   rcfg.GetDebounceOption().OrElse(100 * time.Millisecond),
		limiter:    rate.NewLimiter(limit, 1),
		kicks:      make(chan struct{}, 1),
		ctx:        ctx,
		cancel:     cancel,
	}

	for _, opt := range opts {
		opt(t)
	}

	t.breaker = newBreaker(rcfg.Breaker)

	// Watch parent directory to catch atomic writes (temp + rename pattern)
	dir := filepath.Dir(absPath)
	if err := fsWatcher.Add(dir); err != nil {
		if closeErr := fsWatcher.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close watcher after add failure")
		}
		cancel()
		return nil, err
	}

	return t, nil
}

func newBreaker(cfg config.BreakerConfig) *gobreaker.CircuitBreaker[*snapshot.Snapshot] {
	maxFailures := cfg.GetMaxFailures()

	settings := gobreaker.Settings{
		Name:    "reload",
		Timeout: cfg.GetOpenDuration(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFailures) //nolint:gosec // GetMaxFailures is non-negative
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			event := log.Info()
			if to == gobreaker.StateOpen {
				event = log.Warn()
			}
			event.
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("reload circuit breaker state change")
		},
	}

	return gobreaker.NewCircuitBreaker[*snapshot.Snapshot](settings)
}

// Path returns the absolute path being watched.
func (t *Trigger) Path() string {
	return t.path
}

// BreakerState returns the reload circuit breaker state.
func (t *Trigger) BreakerState() gobreaker.State {
	return t.breaker.State()
}

// ForceReload requests a rebuild without a file event. If a rebuild is
// already queued the request coalesces into it.
func (t *Trigger) ForceReload() {
	t.kick()
}

func (t *Trigger) kick() {
	select {
	case t.kicks <- struct{}{}:
	default:
	}
}

// Run watches for file changes and drains reload requests. It blocks until
// the context is canceled. Only Write and Create events on the master file
// are processed (Chmod is ignored); events are debounced before queueing a
// rebuild. Returns nil when the context is canceled.
func (t *Trigger) Run(ctx context.Context) error {
	var (
		timer      *time.Timer
		timerMu    sync.Mutex
		targetFile = filepath.Base(t.path)
	)

	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-t.fsWatcher.Events:
			if !ok {
				return nil
			}
			if t.shouldProcessEvent(event, targetFile) {
				t.scheduleKick(&timerMu, &timer)
			}

		case err, ok := <-t.fsWatcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("reload watcher error")

		case <-t.kicks:
			t.reload(ctx)
		}
	}
}

// shouldProcessEvent determines if an fsnotify event should queue a rebuild.
func (t *Trigger) shouldProcessEvent(event fsnotify.Event, targetFile string) bool {
	if filepath.Base(event.Name) != targetFile {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

// scheduleKick arms (or extends) the debounce timer; the timer queues one
// rebuild when the burst settles.
func (t *Trigger) scheduleKick(timerMu *sync.Mutex, timer **time.Timer) {
	timerMu.Lock()
	defer timerMu.Unlock()

	if *timer != nil {
		(*timer).Stop()
	}

	*timer = time.AfterFunc(t.debounce, func() {
		select {
		case <-t.ctx.Done():
			return
		default:
		}
		t.kick()
	})
}

// reload runs one rebuild attempt. A failure keeps the previously published
// snapshot in place; a panic in fragment handling is contained here and
// counts as a breaker failure.
func (t *Trigger) reload(ctx context.Context) {
	if err := t.limiter.Wait(ctx); err != nil {
		return
	}

	start := time.Now()
	snap, err := t.execute()
	if err != nil {
		log.Error().Err(err).Str("path", t.path).
			Msg("reload failed, previous snapshot retained")
		return
	}

	log.Info().
		Uint64("generation", snap.Generation).
		Int("routes", len(snap.Routes)).
		Int("clusters", len(snap.Clusters)).
		Dur("elapsed", time.Since(start)).
		Msg("snapshot published")
}

func (t *Trigger) execute() (snap *snapshot.Snapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reload: panic during rebuild: %v", r)
		}
	}()

	return t.breaker.Execute(func() (*snapshot.Snapshot, error) {
		flags, err := config.LoadEnabled(t.path)
		if err != nil {
			return nil, err
		}

		next := t.builder.Build(flags)
		t.enablement.Store(flags)
		t.store.Publish(next)
		return next, nil
	})
}

// Close stops watching and releases resources.
// Returns ErrTriggerClosed if already closed.
func (t *Trigger) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTriggerClosed
	}
	t.closed = true

	t.cancel()

	return t.fsWatcher.Close()
}
