package di

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/omarluq/cfgmux/internal/registry"
)

// RegistryService wraps the immutable service registry.
type RegistryService struct {
	Registry *registry.Registry
}

// NewRegistry builds the registry from the master configuration's service
// declarations. Declaration order is fixed here for the process lifetime.
func NewRegistry(i do.Injector) (*RegistryService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)

	reg, err := registry.New(cfgSvc.Config.Services)
	if err != nil {
		return nil, fmt.Errorf("failed to build registry: %w", err)
	}

	return &RegistryService{Registry: reg}, nil
}

// EnablementService wraps the hot-swappable enablement flags.
type EnablementService struct {
	Enablement *registry.Enablement
}

// NewEnablement seeds the enablement flags from the master configuration.
// Reloads replace the flags wholesale from a fresh read of the file.
func NewEnablement(i do.Injector) (*EnablementService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)

	e := registry.NewEnablement(cfgSvc.Config.Enabled)

	return &EnablementService{Enablement: e}, nil
}
