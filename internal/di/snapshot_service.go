package di

import (
	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"

	"github.com/omarluq/cfgmux/internal/snapshot"
)

// SnapshotService wraps the snapshot builder and store.
type SnapshotService struct {
	Builder *snapshot.Builder
	Store   *snapshot.Store
}

// NewSnapshot wires the builder over the registry and parse cache, then
// builds and publishes the initial snapshot from the startup enablement
// flags. Readers therefore never observe an empty store once the container
// is up.
func NewSnapshot(i do.Injector) (*SnapshotService, error) {
	regSvc := do.MustInvoke[*RegistryService](i)
	enableSvc := do.MustInvoke[*EnablementService](i)
	cacheSvc := do.MustInvoke[*ParseCacheService](i)

	builder := snapshot.NewBuilder(regSvc.Registry, cacheSvc.Cache)
	store := snapshot.NewStore()

	initial := builder.Build(enableSvc.Enablement.Get())
	store.Publish(initial)

	log.Info().
		Uint64("generation", initial.Generation).
		Int("routes", len(initial.Routes)).
		Int("clusters", len(initial.Clusters)).
		Msg("initial snapshot published")

	return &SnapshotService{
		Builder: builder,
		Store:   store,
	}, nil
}
