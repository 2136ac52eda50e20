package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"

	"github.com/omarluq/cfgmux/internal/reload"
)

// TriggerService wraps the reload trigger.
type TriggerService struct {
	Trigger *reload.Trigger
}

// NewTrigger creates the reload trigger over the master file.
// The trigger is created but not started - call Start() after container init.
func NewTrigger(i do.Injector) (*TriggerService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	snapSvc := do.MustInvoke[*SnapshotService](i)
	enableSvc := do.MustInvoke[*EnablementService](i)

	trigger, err := reload.New(
		cfgSvc.Path,
		cfgSvc.Config.Reload,
		snapSvc.Builder,
		snapSvc.Store,
		enableSvc.Enablement,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reload trigger: %w", err)
	}

	return &TriggerService{Trigger: trigger}, nil
}

// Start runs the trigger loop in the background. The context controls the
// loop lifecycle - cancel to stop watching.
func (s *TriggerService) Start(ctx context.Context) {
	go func() {
		if err := s.Trigger.Run(ctx); err != nil {
			log.Error().Err(err).Msg("reload trigger error")
		}
	}()

	log.Info().Str("path", s.Trigger.Path()).Msg("reload trigger started")
}

// Shutdown implements do.Shutdowner for graceful trigger cleanup.
func (s *TriggerService) Shutdown() error {
	if s.Trigger != nil {
		return s.Trigger.Close()
	}
	return nil
}
