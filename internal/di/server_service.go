package di

import (
	"time"

	"github.com/samber/do/v2"

	"github.com/omarluq/cfgmux/internal/api"
)

// ServerService wraps the introspection HTTP server.
type ServerService struct {
	Server *api.Server
}

// NewHTTPServer assembles the introspection routes and server.
func NewHTTPServer(i do.Injector) (*ServerService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	regSvc := do.MustInvoke[*RegistryService](i)
	enableSvc := do.MustInvoke[*EnablementService](i)
	snapSvc := do.MustInvoke[*SnapshotService](i)
	cacheSvc := do.MustInvoke[*ParseCacheService](i)
	triggerSvc := do.MustInvoke[*TriggerService](i)

	handler := api.SetupRoutes(
		regSvc.Registry,
		enableSvc.Enablement,
		snapSvc.Store,
		cacheSvc.Cache,
		triggerSvc.Trigger,
	)

	listen := cfgSvc.Config.Server.Listen
	if listen == "" {
		listen = ":8600"
	}

	timeout := cfgSvc.Config.Server.GetTimeoutOption().OrElse(30 * time.Second)
	server := api.NewServer(listen, handler, timeout, cfgSvc.Config.Server.EnableHTTP2)

	return &ServerService{Server: server}, nil
}
