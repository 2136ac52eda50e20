package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a master configuration file.
type Format int

// Supported master file formats.
const (
	FormatYAML Format = iota
	FormatTOML
)

// FormatForPath picks the config format from a file extension.
// Defaults to YAML for unknown extensions.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	default:
		return FormatYAML
	}
}

// Load reads and parses a master configuration file from the given path.
// The format is chosen by file extension (.yaml/.yml or .toml). Environment
// variables in the format ${VAR_NAME} are expanded before parsing.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open master config %s: %w", path, err)
	}

	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close master config: %w", cerr)
		}
	}()

	return LoadFromReader(file, FormatForPath(path))
}

// LoadFromReader reads and parses master configuration from an io.Reader.
// Environment variables in the format ${VAR_NAME} are expanded before parsing.
func LoadFromReader(r io.Reader, format Format) (*Config, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read master config: %w", err)
	}

	expanded := os.ExpandEnv(string(content))

	var cfg Config
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse master config TOML: %w", err)
		}
	default:
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse master config YAML: %w", err)
		}
	}

	return &cfg, nil
}

// LoadEnabled re-reads only the enablement map from the master file.
// The reload path calls this on every trigger so toggles take effect without
// trusting any cached state. The declaration list stays fixed at startup; a
// service key absent from the returned map is disabled.
func LoadEnabled(path string) (map[string]bool, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if cfg.Enabled == nil {
		return map[string]bool{}, nil
	}
	return cfg.Enabled, nil
}
