package di

import "github.com/samber/do/v2"

// RegisterSingletons registers all service providers as singletons.
// Services are registered in dependency order:
// 1. Config (no dependencies)
// 2. Logger (depends on Config)
// 3. Registry (depends on Config)
// 4. Enablement (depends on Config)
// 5. ParseCache (no dependencies)
// 6. Snapshot (depends on Registry, Enablement, ParseCache) - builds and
// publishes the initial snapshot
// 7. Trigger (depends on Config, Snapshot, Enablement)
// 8. Server (depends on Config, Registry, Enablement, Snapshot, Trigger).
func RegisterSingletons(i do.Injector) {
	do.Provide(i, NewConfig)
	do.Provide(i, NewLogger)
	do.Provide(i, NewRegistry)
	do.Provide(i, NewEnablement)
	do.Provide(i, NewParseCache)
	do.Provide(i, NewSnapshot)
	do.Provide(i, NewTrigger)
	do.Provide(i, NewHTTPServer)
}
