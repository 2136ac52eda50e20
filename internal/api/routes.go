package api

import (
	"net/http"

	"github.com/omarluq/cfgmux/internal/registry"
	"github.com/omarluq/cfgmux/internal/snapshot"
)

// SetupRoutes creates the HTTP handler with all routes configured.
// Routes:
//   - GET /v1/services - List declared services with enabled flags
//   - GET /v1/snapshot - Dump the currently published snapshot
//   - GET /v1/services/{name}/fragment - Parse one fragment on demand
//   - POST /v1/reload - Queue a manual rebuild
//   - GET /health - Health check endpoint
func SetupRoutes(
	reg *registry.Registry,
	enablement *registry.Enablement,
	store *snapshot.Store,
	parser FragmentParser,
	reloader Reloader,
) http.Handler {
	mux := http.NewServeMux()

	// Apply middleware in order:
	// 1. RequestIDMiddleware (first - generates ID)
	// 2. LoggingMiddleware (second - logs with ID)
	wrap := func(h http.Handler) http.Handler {
		return RequestIDMiddleware()(LoggingMiddleware()(h))
	}

	mux.Handle("GET /v1/services", wrap(NewServicesHandler(reg, enablement)))
	mux.Handle("GET /v1/snapshot", wrap(NewSnapshotHandler(store)))
	mux.Handle("GET /v1/services/{name}/fragment", wrap(NewFragmentHandler(reg, enablement, parser)))
	mux.Handle("POST /v1/reload", wrap(NewReloadHandler(reloader)))

	// Health check endpoint (no middleware, probed frequently)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		//nolint:errcheck // Health check write error is non-critical
		w.Write([]byte(`{"status":"ok"}`))
	})

	return mux
}
