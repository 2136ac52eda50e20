package di

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/omarluq/cfgmux/internal/config"
)

// ConfigService wraps the loaded master configuration.
//
// The config itself is fixed at startup: only the enablement flags are
// re-read per reload, and those live in the EnablementService. A change to
// any other section of the master file requires a restart.
type ConfigService struct {
	Config *config.Config
	Path   string
}

// NewConfig loads and validates the master configuration from the config path.
func NewConfig(i do.Injector) (*ConfigService, error) {
	path := do.MustInvokeNamed[string](i, ConfigPathKey)

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &ConfigService{
		Config: cfg,
		Path:   path,
	}, nil
}
