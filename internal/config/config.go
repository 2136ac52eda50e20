// Package config provides master-configuration loading and parsing for cfgmux.
package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/mo"
)

// Log level constants.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Config represents the complete cfgmux master configuration.
//
// The Services list is the registry declaration: it fixes the set of known
// services and their fragment paths at startup, and its order determines
// fragment merge order. The Enabled map is the only part of the master file
// that is re-read on every reload.
type Config struct {
	Server   ServerConfig    `yaml:"server" toml:"server"`
	Logging  LoggingConfig   `yaml:"logging" toml:"logging"`
	Reload   ReloadConfig    `yaml:"reload" toml:"reload"`
	Services []ServiceConfig `yaml:"services" toml:"services"`
	Enabled  map[string]bool `yaml:"enabled" toml:"enabled"`
}

// ServiceConfig declares one service and the fragment file backing it.
type ServiceConfig struct {
	Name     string `yaml:"name" toml:"name"`
	Fragment string `yaml:"fragment" toml:"fragment"`
}

// ServerConfig defines settings for the introspection HTTP server.
type ServerConfig struct {
	Listen      string `yaml:"listen" toml:"listen"`
	TimeoutMS   int    `yaml:"timeout_ms" toml:"timeout_ms"`
	EnableHTTP2 bool   `yaml:"enable_http2" toml:"enable_http2"` // Enable HTTP/2 cleartext (h2c) support
}

// GetTimeoutOption returns the request timeout as a duration Option.
// Returns None if TimeoutMS is zero or negative (use default).
func (s *ServerConfig) GetTimeoutOption() mo.Option[time.Duration] {
	if s.TimeoutMS <= 0 {
		return mo.None[time.Duration]()
	}
	return mo.Some(time.Duration(s.TimeoutMS) * time.Millisecond)
}

// ReloadConfig defines reload trigger behavior.
type ReloadConfig struct {
	// DebounceMS is the quiet window after the first file-change signal in a
	// burst before a rebuild starts. Default: 100ms.
	DebounceMS int `yaml:"debounce_ms" toml:"debounce_ms"`

	// MaxReloadsPerSec caps rebuild frequency beneath the debounce window.
	// Zero means no cap.
	MaxReloadsPerSec float64 `yaml:"max_reloads_per_sec" toml:"max_reloads_per_sec"`

	Breaker BreakerConfig `yaml:"breaker" toml:"breaker"`
}

// BreakerConfig defines the circuit breaker guarding rebuilds against a
// persistently broken master file.
type BreakerConfig struct {
	// MaxFailures is the consecutive rebuild failure count that opens the
	// breaker. Default: 5.
	MaxFailures int `yaml:"max_failures" toml:"max_failures"`

	// OpenForMS is how long the breaker stays open before probing again.
	// Default: 10s.
	OpenForMS int `yaml:"open_for_ms" toml:"open_for_ms"`
}

// GetDebounceOption returns the debounce window as a duration Option.
// Returns None if DebounceMS is zero or negative.
func (r *ReloadConfig) GetDebounceOption() mo.Option[time.Duration] {
	if r.DebounceMS <= 0 {
		return mo.None[time.Duration]()
	}
	return mo.Some(time.Duration(r.DebounceMS) * time.Millisecond)
}

// GetRateOption returns the rebuild rate cap as an Option.
// Returns None if MaxReloadsPerSec is zero or negative (uncapped).
func (r *ReloadConfig) GetRateOption() mo.Option[float64] {
	if r.MaxReloadsPerSec <= 0 {
		return mo.None[float64]()
	}
	return mo.Some(r.MaxReloadsPerSec)
}

// GetMaxFailures returns the breaker failure threshold with default fallback.
func (b *BreakerConfig) GetMaxFailures() int {
	if b.MaxFailures <= 0 {
		return 5
	}
	return b.MaxFailures
}

// GetOpenDuration returns how long the breaker stays open with default fallback.
func (b *BreakerConfig) GetOpenDuration() time.Duration {
	if b.OpenForMS <= 0 {
		return 10 * time.Second
	}
	return time.Duration(b.OpenForMS) * time.Millisecond
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format" toml:"format"` // json, console, pretty
	Output string `yaml:"output" toml:"output"` // stdout, stderr, or file path
	Pretty bool   `yaml:"pretty" toml:"pretty"` // enable colored console output
}

// ParseLevel converts a string log level to zerolog.Level.
// Returns zerolog.InfoLevel if the level string is invalid.
func (l *LoggingConfig) ParseLevel() zerolog.Level {
	switch strings.ToLower(l.Level) {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
