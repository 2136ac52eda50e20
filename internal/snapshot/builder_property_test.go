package snapshot

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/omarluq/cfgmux/internal/config"
	"github.com/omarluq/cfgmux/internal/fragment"
	"github.com/omarluq/cfgmux/internal/registry"
)

func propRegistry(n int) *registry.Registry {
	svcs := make([]config.ServiceConfig, 0, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("svc-%d", i)
		svcs = append(svcs, config.ServiceConfig{Name: name, Fragment: name + ".yaml"})
	}
	reg, err := registry.New(svcs)
	if err != nil {
		panic(err)
	}
	return reg
}

func TestBuildProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("disjoint ids merge to the sum of contributions", prop.ForAll(
		func(services, perService int) bool {
			reg := propRegistry(services)
			parser := ParserFunc(func(service, _ string) (fragment.ParseResult, error) {
				var res fragment.ParseResult
				for j := 0; j < perService; j++ {
					res.Routes = append(res.Routes, fragment.Route{
						ID:        fmt.Sprintf("%s-r%d", service, j),
						ClusterID: service,
						Match:     fragment.RouteMatch{Path: "/" + service},
					})
				}
				return res, nil
			})

			flags := map[string]bool{}
			for _, svc := range reg.Services() {
				flags[svc.Name] = true
			}

			snap := NewBuilder(reg, parser).Build(flags)
			return len(snap.Routes) == services*perService
		},
		gen.IntRange(1, 10),
		gen.IntRange(0, 10),
	))

	properties.Property("shared id resolves to the last enabled fragment", prop.ForAll(
		func(services int) bool {
			reg := propRegistry(services)
			parser := ParserFunc(func(service, _ string) (fragment.ParseResult, error) {
				return fragment.ParseResult{Routes: []fragment.Route{{
					ID:        "shared",
					ClusterID: service,
					Match:     fragment.RouteMatch{Path: "/" + service},
				}}}, nil
			})

			flags := map[string]bool{}
			for _, svc := range reg.Services() {
				flags[svc.Name] = true
			}

			snap := NewBuilder(reg, parser).Build(flags)
			if len(snap.Routes) != 1 {
				return false
			}
			last := fmt.Sprintf("svc-%d", services-1)
			return snap.Routes[0].ClusterID == last
		},
		gen.IntRange(1, 20),
	))

	properties.Property("disabled fragments never contribute", prop.ForAll(
		func(services, enabledMask int) bool {
			reg := propRegistry(services)
			parser := ParserFunc(func(service, _ string) (fragment.ParseResult, error) {
				return fragment.ParseResult{Routes: []fragment.Route{{
					ID:        service + "-r",
					ClusterID: service,
					Match:     fragment.RouteMatch{Path: "/" + service},
				}}}, nil
			})

			flags := map[string]bool{}
			enabled := 0
			for i, svc := range reg.Services() {
				on := enabledMask&(1<<i) != 0
				flags[svc.Name] = on
				if on {
					enabled++
				}
			}

			snap := NewBuilder(reg, parser).Build(flags)
			return len(snap.Routes) == enabled
		},
		gen.IntRange(1, 10),
		gen.IntRange(0, 1023),
	))

	properties.TestingRun(t)
}
