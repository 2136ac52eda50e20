package api

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/omarluq/cfgmux/internal/fragment"
	"github.com/omarluq/cfgmux/internal/registry"
	"github.com/omarluq/cfgmux/internal/snapshot"
)

// Reloader accepts manual reload requests. Satisfied by *reload.Trigger.
type Reloader interface {
	ForceReload()
}

// FragmentParser parses one fragment file on demand.
type FragmentParser interface {
	ParseFile(service, path string) (fragment.ParseResult, error)
}

// servicesResponse is the body of GET /v1/services.
type servicesResponse struct {
	Services []registry.ServiceStatus `json:"services"`
}

// snapshotResponse is the body of GET /v1/snapshot.
type snapshotResponse struct {
	Generation   uint64             `json:"generation"`
	BuiltAt      time.Time          `json:"built_at"`
	RouteCount   int                `json:"route_count"`
	ClusterCount int                `json:"cluster_count"`
	Routes       []fragment.Route   `json:"routes"`
	Clusters     []fragment.Cluster `json:"clusters"`
}

// fragmentResponse is the body of GET /v1/services/{name}/fragment.
type fragmentResponse struct {
	Service  string               `json:"service"`
	Path     string               `json:"path"`
	Enabled  bool                 `json:"enabled"`
	Fragment fragment.ParseResult `json:"fragment"`
}

// ServicesHandler lists every declared service with its live enabled flag
// and on-disk fragment presence.
type ServicesHandler struct {
	registry   *registry.Registry
	enablement *registry.Enablement
}

// NewServicesHandler creates the GET /v1/services handler.
func NewServicesHandler(reg *registry.Registry, enablement *registry.Enablement) *ServicesHandler {
	return &ServicesHandler{registry: reg, enablement: enablement}
}

func (h *ServicesHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, servicesResponse{
		Services: h.registry.Statuses(h.enablement.Get()),
	})
}

// SnapshotHandler dumps the currently published snapshot.
type SnapshotHandler struct {
	store *snapshot.Store
}

// NewSnapshotHandler creates the GET /v1/snapshot handler.
func NewSnapshotHandler(store *snapshot.Store) *SnapshotHandler {
	return &SnapshotHandler{store: store}
}

func (h *SnapshotHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	snap := h.store.Current()
	if snap == nil {
		WriteError(w, http.StatusServiceUnavailable, "no_snapshot",
			"no snapshot has been published yet")
		return
	}

	// Routes and Clusters serialize as empty arrays, never null
	routes := snap.Routes
	if routes == nil {
		routes = []fragment.Route{}
	}
	clusters := snap.Clusters
	if clusters == nil {
		clusters = []fragment.Cluster{}
	}

	writeJSON(w, http.StatusOK, snapshotResponse{
		Generation:   snap.Generation,
		BuiltAt:      snap.BuiltAt,
		RouteCount:   len(routes),
		ClusterCount: len(clusters),
		Routes:       routes,
		Clusters:     clusters,
	})
}

// FragmentHandler parses a single service's fragment file on demand, without
// touching the published snapshot. Useful for checking a fragment before
// flipping its enabled flag.
type FragmentHandler struct {
	registry   *registry.Registry
	enablement *registry.Enablement
	parser     FragmentParser
}

// NewFragmentHandler creates the GET /v1/services/{name}/fragment handler.
func NewFragmentHandler(reg *registry.Registry, enablement *registry.Enablement, parser FragmentParser) *FragmentHandler {
	return &FragmentHandler{registry: reg, enablement: enablement, parser: parser}
}

func (h *FragmentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	svc, ok := h.registry.Lookup(name)
	if !ok {
		WriteError(w, http.StatusNotFound, "unknown_service",
			"service "+name+" is not declared")
		return
	}

	res, err := h.parser.ParseFile(svc.Name, svc.FragmentPath)
	if err != nil {
		if os.IsNotExist(err) {
			WriteError(w, http.StatusNotFound, "fragment_missing",
				"fragment file does not exist: "+svc.FragmentPath)
			return
		}
		var parseErr *fragment.ParseError
		if errors.As(err, &parseErr) {
			WriteError(w, http.StatusBadRequest, "fragment_invalid", parseErr.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, "fragment_read_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, fragmentResponse{
		Service:  svc.Name,
		Path:     svc.FragmentPath,
		Enabled:  h.enablement.Get()[svc.Name],
		Fragment: res,
	})
}

// ReloadHandler queues a manual rebuild.
type ReloadHandler struct {
	reloader Reloader
}

// NewReloadHandler creates the POST /v1/reload handler.
func NewReloadHandler(reloader Reloader) *ReloadHandler {
	return &ReloadHandler{reloader: reloader}
}

func (h *ReloadHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.reloader.ForceReload()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
