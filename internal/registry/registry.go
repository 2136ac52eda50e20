// Package registry holds the fixed mapping from service keys to fragment sources.
//
// The registry is declared once at startup from the master configuration's
// service list. Its declaration order determines fragment merge order and
// therefore duplicate-ID tie-break outcomes. Only the enabled flags vary
// between reloads; they are passed in per call so the registry itself stays
// immutable.
package registry

import (
	"errors"
	"fmt"
	"os"

	"github.com/samber/lo"

	"github.com/omarluq/cfgmux/internal/config"
)

// ErrNoServices is returned when a registry is created with no declared services.
var ErrNoServices = errors.New("registry: no services declared")

// Service is one declared service and its backing fragment file.
type Service struct {
	Name         string
	FragmentPath string
}

// ServiceStatus describes one declared service for the introspection surface.
type ServiceStatus struct {
	Name         string `json:"name"`
	FragmentPath string `json:"fragment_path"`
	Enabled      bool   `json:"enabled"`
	FileExists   bool   `json:"file_exists"`
}

// Registry is the immutable, ordered set of declared services.
type Registry struct {
	services []Service
	index    map[string]int
}

// New builds a registry from the master configuration's declaration list.
// Declaration order is preserved; duplicate names are rejected.
func New(services []config.ServiceConfig) (*Registry, error) {
	if len(services) == 0 {
		return nil, ErrNoServices
	}

	r := &Registry{
		services: make([]Service, 0, len(services)),
		index:    make(map[string]int, len(services)),
	}
	for _, svc := range services {
		if _, dup := r.index[svc.Name]; dup {
			return nil, fmt.Errorf("registry: duplicate service %q", svc.Name)
		}
		r.index[svc.Name] = len(r.services)
		r.services = append(r.services, Service{Name: svc.Name, FragmentPath: svc.Fragment})
	}

	return r, nil
}

// Services returns all declared services in declaration order.
func (r *Registry) Services() []Service {
	out := make([]Service, len(r.services))
	copy(out, r.services)
	return out
}

// Len returns the number of declared services.
func (r *Registry) Len() int {
	return len(r.services)
}

// Lookup finds a declared service by name.
func (r *Registry) Lookup(name string) (Service, bool) {
	i, ok := r.index[name]
	if !ok {
		return Service{}, false
	}
	return r.services[i], true
}

// Enabled returns the services switched on by the given flags, in
// declaration order. A service absent from the flags map is disabled
// (default-deny).
func (r *Registry) Enabled(flags map[string]bool) []Service {
	return lo.Filter(r.services, func(s Service, _ int) bool {
		return flags[s.Name]
	})
}

// Statuses reports every declared service with its current enabled flag and
// whether its fragment file exists on disk, so operators can distinguish
// "disabled" from "enabled but missing".
func (r *Registry) Statuses(flags map[string]bool) []ServiceStatus {
	return lo.Map(r.services, func(s Service, _ int) ServiceStatus {
		_, err := os.Stat(s.FragmentPath)
		return ServiceStatus{
			Name:         s.Name,
			FragmentPath: s.FragmentPath,
			Enabled:      flags[s.Name],
			FileExists:   err == nil,
		}
	})
}
