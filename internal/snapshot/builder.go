package snapshot

import (
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/omarluq/cfgmux/internal/fragment"
	"github.com/omarluq/cfgmux/internal/registry"
)

// FragmentParser parses one fragment file. Satisfied by *fragment.Cache and
// by fragment.ParseFile wrapped in ParserFunc.
type FragmentParser interface {
	ParseFile(service, path string) (fragment.ParseResult, error)
}

// ParserFunc adapts a plain function to the FragmentParser interface.
type ParserFunc func(service, path string) (fragment.ParseResult, error)

// ParseFile implements FragmentParser.
func (f ParserFunc) ParseFile(service, path string) (fragment.ParseResult, error) {
	return f(service, path)
}

// Builder merges all enabled fragments into one candidate Snapshot.
type Builder struct {
	registry *registry.Registry
	parser   FragmentParser
}

// NewBuilder creates a Builder over the given registry and parser.
func NewBuilder(reg *registry.Registry, parser FragmentParser) *Builder {
	return &Builder{registry: reg, parser: parser}
}

// Build merges every enabled fragment, in registry declaration order, into a
// new Snapshot. Build never fails as a whole: a missing fragment file or a
// fragment-level parse error is logged and that fragment contributes
// nothing, while every other fragment still lands in the snapshot.
//
// Duplicate route or cluster IDs across fragments resolve to the later
// fragment's value while keeping the first-seen sequence position, so
// position-dependent ordering downstream stays deterministic.
//
// Routes are not cross-checked against built clusters: a route naming an
// absent cluster is the proxy engine's per-request "cluster not found", and
// must never block an otherwise-valid reload.
func (b *Builder) Build(flags map[string]bool) *Snapshot {
	var (
		routes     []fragment.Route
		clusters   []fragment.Cluster
		routeIdx   = map[string]int{}
		clusterIdx = map[string]int{}
	)

	for _, svc := range b.registry.Enabled(flags) {
		res, err := b.parser.ParseFile(svc.Name, svc.FragmentPath)
		if err != nil {
			if os.IsNotExist(err) {
				log.Warn().Str("fragment", svc.Name).Str("path", svc.FragmentPath).
					Msg("fragment file missing, service contributes nothing")
			} else {
				log.Error().Err(err).Str("fragment", svc.Name).
					Msg("fragment parse failed, service contributes nothing")
			}
			continue
		}

		if res.Dropped > 0 {
			log.Warn().Str("fragment", svc.Name).Int("dropped", res.Dropped).
				Msg("fragment entries dropped")
		}

		for _, rt := range res.Routes {
			if i, seen := routeIdx[rt.ID]; seen {
				log.Debug().Str("route", rt.ID).Str("fragment", svc.Name).
					Msg("duplicate route id, later fragment wins")
				routes[i] = rt
				continue
			}
			routeIdx[rt.ID] = len(routes)
			routes = append(routes, rt)
		}

		for _, cl := range res.Clusters {
			if i, seen := clusterIdx[cl.ID]; seen {
				log.Debug().Str("cluster", cl.ID).Str("fragment", svc.Name).
					Msg("duplicate cluster id, later fragment wins")
				clusters[i] = cl
				continue
			}
			clusterIdx[cl.ID] = len(clusters)
			clusters = append(clusters, cl)
		}
	}

	return &Snapshot{
		Routes:   routes,
		Clusters: clusters,
		BuiltAt:  time.Now(),
		signal:   NewChangeSignal(),
	}
}
