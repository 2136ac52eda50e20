package reload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/omarluq/cfgmux/internal/config"
	"github.com/omarluq/cfgmux/internal/fragment"
	"github.com/omarluq/cfgmux/internal/registry"
	"github.com/omarluq/cfgmux/internal/snapshot"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func writeMaster(t *testing.T, path, fragPath string, enabled bool) {
	t.Helper()
	writeFile(t, path, fmt.Sprintf(`
services:
  - name: billing
    fragment: %s
enabled:
  billing: %t
`, fragPath, enabled))
}

func writeFragment(t *testing.T, path string) {
	t.Helper()
	writeFile(t, path, `
routes:
  billing-api:
    cluster_id: billing
    match:
      path: /api/billing/*
clusters:
  billing:
    destinations:
      primary:
        address: http://localhost:5001/
`)
}

// newTestTrigger wires a real builder over a temp master file and fragment.
func newTestTrigger(t *testing.T, opts ...Option) (*Trigger, *snapshot.Store, string) {
	t.Helper()

	tmpDir := t.TempDir()
	masterPath := filepath.Join(tmpDir, "cfgmux.yaml")
	fragPath := filepath.Join(tmpDir, "billing.yaml")
	writeFragment(t, fragPath)
	writeMaster(t, masterPath, fragPath, true)

	reg, err := registry.New([]config.ServiceConfig{{Name: "billing", Fragment: fragPath}})
	if err != nil {
		t.Fatalf("registry.New failed: %v", err)
	}

	store := snapshot.NewStore()
	builder := snapshot.NewBuilder(reg, snapshot.ParserFunc(fragment.ParseFile))
	enablement := registry.NewEnablement(nil)

	trigger, err := New(masterPath, config.ReloadConfig{}, builder, store, enablement, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = trigger.Close() })

	return trigger, store, masterPath
}

func waitForGeneration(t *testing.T, store *snapshot.Store, want uint64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if store.Generation() >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("generation %d not reached within timeout, at %d", want, store.Generation())
}

func TestNewPathResolution(t *testing.T) {
	t.Parallel()

	trigger, _, masterPath := newTestTrigger(t)

	absPath, _ := filepath.Abs(masterPath)
	if trigger.Path() != absPath {
		t.Errorf("Expected path %s, got %s", absPath, trigger.Path())
	}
}

func TestNewInvalidPath(t *testing.T) {
	t.Parallel()

	trigger, err := New("/nonexistent/path/to/cfgmux.yaml", config.ReloadConfig{}, nil, nil, nil)
	if err == nil {
		trigger.Close()
		t.Fatal("Expected error for non-existent path")
	}
}

func TestForceReloadPublishes(t *testing.T) {
	t.Parallel()

	trigger, store, _ := newTestTrigger(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = trigger.Run(ctx) }()

	trigger.ForceReload()
	waitForGeneration(t, store, 1)

	snap := store.Current()
	if len(snap.Routes) != 1 {
		t.Fatalf("Expected 1 route, got %d", len(snap.Routes))
	}
	if snap.Routes[0].ID != "billing-api" {
		t.Errorf("Expected route billing-api, got %s", snap.Routes[0].ID)
	}
}

func TestFileChangeTriggersReload(t *testing.T) {
	t.Parallel()

	trigger, store, masterPath := newTestTrigger(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = trigger.Run(ctx) }()

	// Allow watcher to initialize
	time.Sleep(50 * time.Millisecond)

	fragPath := filepath.Join(filepath.Dir(masterPath), "billing.yaml")
	writeMaster(t, masterPath, fragPath, true)

	waitForGeneration(t, store, 1)
}

func TestEnablementToggleObservedOnReload(t *testing.T) {
	t.Parallel()

	trigger, store, masterPath := newTestTrigger(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = trigger.Run(ctx) }()

	trigger.ForceReload()
	waitForGeneration(t, store, 1)
	if len(store.Current().Routes) != 1 {
		t.Fatalf("Expected 1 route while enabled, got %d", len(store.Current().Routes))
	}

	// Disable the service and reload: its contribution disappears
	fragPath := filepath.Join(filepath.Dir(masterPath), "billing.yaml")
	writeMaster(t, masterPath, fragPath, false)
	trigger.ForceReload()
	waitForGeneration(t, store, 2)

	if len(store.Current().Routes) != 0 {
		t.Errorf("Expected 0 routes while disabled, got %d", len(store.Current().Routes))
	}
}

func TestFailedReloadRetainsPreviousSnapshot(t *testing.T) {
	t.Parallel()

	trigger, store, masterPath := newTestTrigger(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = trigger.Run(ctx) }()

	trigger.ForceReload()
	waitForGeneration(t, store, 1)
	prev := store.Current()

	// Corrupt the master file; the reload must fail without unpublishing
	writeFile(t, masterPath, "services: [unclosed\n")
	trigger.ForceReload()
	time.Sleep(300 * time.Millisecond)

	if store.Generation() != 1 {
		t.Fatalf("Expected generation to stay at 1, got %d", store.Generation())
	}
	if store.Current() != prev {
		t.Error("Expected previous snapshot to remain current")
	}
	if prev.ChangeSignal().Fired() {
		t.Error("Previous snapshot's signal must not fire on a failed reload")
	}
}

func TestDebounceCoalescesBursts(t *testing.T) {
	t.Parallel()

	trigger, store, masterPath := newTestTrigger(t, WithDebounce(200*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = trigger.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)

	// Rapid burst of writes within the debounce window
	fragPath := filepath.Join(filepath.Dir(masterPath), "billing.yaml")
	for range 5 {
		writeMaster(t, masterPath, fragPath, true)
		time.Sleep(20 * time.Millisecond)
	}

	waitForGeneration(t, store, 1)
	time.Sleep(300 * time.Millisecond)

	// The burst collapses into a single rebuild
	if gen := store.Generation(); gen > 2 {
		t.Errorf("Expected at most 2 generations after burst, got %d", gen)
	}
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	t.Parallel()

	trigger, store, masterPath := newTestTrigger(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = trigger.Run(ctx) }()

	writeFile(t, masterPath, "services: [unclosed\n")
	for range 6 {
		trigger.ForceReload()
		time.Sleep(50 * time.Millisecond)
	}

	if trigger.BreakerState() != gobreaker.StateOpen {
		t.Errorf("Expected open breaker, got %v", trigger.BreakerState())
	}
	if store.Generation() != 0 {
		t.Errorf("Expected no published snapshot, got generation %d", store.Generation())
	}
}

func TestCloseTwice(t *testing.T) {
	t.Parallel()

	trigger, _, _ := newTestTrigger(t)

	if err := trigger.Close(); err != nil {
		t.Fatalf("First Close failed: %v", err)
	}
	if err := trigger.Close(); err != ErrTriggerClosed {
		t.Errorf("Expected ErrTriggerClosed, got %v", err)
	}
}
