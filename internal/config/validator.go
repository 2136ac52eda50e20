package config

import "fmt"

// Validate checks the master configuration for structural errors.
// It accumulates every problem it finds rather than stopping at the first,
// so an operator sees the full list in one pass.
//
// Enablement flags are deliberately not validated here: a key in the enabled
// map that names no declared service is ignored at reload time, and a
// declared service absent from the map is simply disabled (default-deny).
func Validate(cfg *Config) error {
	verr := &ValidationError{}

	if len(cfg.Services) == 0 {
		verr.Add("at least one service must be declared")
	}

	seen := make(map[string]int, len(cfg.Services))
	for i, svc := range cfg.Services {
		if svc.Name == "" {
			verr.Addf("services[%d]: name is required", i)
			continue
		}
		if svc.Fragment == "" {
			verr.Addf("services[%d] (%s): fragment path is required", i, svc.Name)
		}
		if prev, dup := seen[svc.Name]; dup {
			verr.Add(fmt.Sprintf("services[%d]: duplicate service name %q (first declared at index %d)", i, svc.Name, prev))
			continue
		}
		seen[svc.Name] = i
	}

	if cfg.Reload.MaxReloadsPerSec < 0 {
		verr.Addf("reload: max_reloads_per_sec must be >= 0, got %v", cfg.Reload.MaxReloadsPerSec)
	}

	return verr.ToError()
}
