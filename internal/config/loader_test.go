package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadValidYAML(t *testing.T) {
	t.Parallel()

	yamlContent := `
server:
  listen: "127.0.0.1:8600"
  timeout_ms: 5000

logging:
  level: "debug"
  format: "json"

reload:
  debounce_ms: 150
  max_reloads_per_sec: 2

services:
  - name: "billing"
    fragment: "fragments/billing.yaml"
  - name: "users"
    fragment: "fragments/users.yaml"

enabled:
  billing: true
  users: false
`

	cfg, err := LoadFromReader(strings.NewReader(yamlContent), FormatYAML)
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}

	if cfg.Server.Listen != "127.0.0.1:8600" {
		t.Errorf("Expected listen=127.0.0.1:8600, got %s", cfg.Server.Listen)
	}

	if cfg.Server.TimeoutMS != 5000 {
		t.Errorf("Expected timeout_ms=5000, got %d", cfg.Server.TimeoutMS)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected level=debug, got %s", cfg.Logging.Level)
	}

	if cfg.Reload.DebounceMS != 150 {
		t.Errorf("Expected debounce_ms=150, got %d", cfg.Reload.DebounceMS)
	}

	if len(cfg.Services) != 2 {
		t.Fatalf("Expected 2 services, got %d", len(cfg.Services))
	}

	// Declaration order must survive decoding - it fixes merge order
	if cfg.Services[0].Name != "billing" || cfg.Services[1].Name != "users" {
		t.Errorf("Service declaration order not preserved: %+v", cfg.Services)
	}

	if cfg.Services[0].Fragment != "fragments/billing.yaml" {
		t.Errorf("Expected fragment path fragments/billing.yaml, got %s", cfg.Services[0].Fragment)
	}

	if !cfg.Enabled["billing"] {
		t.Error("Expected billing enabled")
	}

	if cfg.Enabled["users"] {
		t.Error("Expected users disabled")
	}
}

func TestLoadValidTOML(t *testing.T) {
	t.Parallel()

	tomlContent := `
[server]
listen = "127.0.0.1:8600"

[[services]]
name = "billing"
fragment = "fragments/billing.toml"

[enabled]
billing = true
`

	cfg, err := LoadFromReader(strings.NewReader(tomlContent), FormatTOML)
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}

	if cfg.Server.Listen != "127.0.0.1:8600" {
		t.Errorf("Expected listen=127.0.0.1:8600, got %s", cfg.Server.Listen)
	}

	if len(cfg.Services) != 1 || cfg.Services[0].Name != "billing" {
		t.Errorf("Expected 1 service billing, got %+v", cfg.Services)
	}

	if !cfg.Enabled["billing"] {
		t.Error("Expected billing enabled")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	t.Parallel()

	_, err := LoadFromReader(strings.NewReader("services: [:::"), FormatYAML)
	if err == nil {
		t.Fatal("Expected error for invalid YAML")
	}
}

func TestLoadEnvExpansion(t *testing.T) {
	t.Setenv("CFGMUX_TEST_LISTEN", "0.0.0.0:9999")

	cfg, err := LoadFromReader(strings.NewReader("server:\n  listen: \"${CFGMUX_TEST_LISTEN}\"\n"), FormatYAML)
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}

	if cfg.Server.Listen != "0.0.0.0:9999" {
		t.Errorf("Expected env-expanded listen, got %s", cfg.Server.Listen)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load("/nonexistent/cfgmux.yaml")
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestFormatForPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want Format
	}{
		{"cfgmux.yaml", FormatYAML},
		{"cfgmux.yml", FormatYAML},
		{"cfgmux.toml", FormatTOML},
		{"cfgmux.conf", FormatYAML},
	}

	for _, tt := range tests {
		if got := FormatForPath(tt.path); got != tt.want {
			t.Errorf("FormatForPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestLoadEnabledRereadsFile(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "cfgmux.yaml")

	write := func(enabled string) {
		content := `
services:
  - name: "billing"
    fragment: "fragments/billing.yaml"
enabled:
  billing: ` + enabled + "\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write master config: %v", err)
		}
	}

	write("true")
	flags, err := LoadEnabled(path)
	if err != nil {
		t.Fatalf("LoadEnabled failed: %v", err)
	}
	if !flags["billing"] {
		t.Error("Expected billing enabled after first read")
	}

	// The toggle must be observed on the next read, not served from cache
	write("false")
	flags, err = LoadEnabled(path)
	if err != nil {
		t.Fatalf("LoadEnabled failed: %v", err)
	}
	if flags["billing"] {
		t.Error("Expected billing disabled after toggle")
	}
}

func TestLoadEnabledMissingSection(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "cfgmux.yaml")
	content := `
services:
  - name: "billing"
    fragment: "fragments/billing.yaml"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write master config: %v", err)
	}

	flags, err := LoadEnabled(path)
	if err != nil {
		t.Fatalf("LoadEnabled failed: %v", err)
	}
	if flags == nil {
		t.Fatal("Expected non-nil flags map")
	}
	if len(flags) != 0 {
		t.Errorf("Expected empty flags, got %v", flags)
	}
}
