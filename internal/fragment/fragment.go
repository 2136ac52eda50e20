// Package fragment parses per-service routing fragments into routes and clusters.
//
// A fragment is one independently-toggleable configuration file describing the
// routes and backend clusters for a single logical service. A malformed
// individual entry is dropped with a warning while the rest of the fragment
// survives; only a document that fails to decode at all is reported as a
// ParseError.
package fragment

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Route describes one proxy route contributed by a fragment.
// ID is unique within a merged snapshot; ClusterID names the cluster the
// route forwards to, without any guarantee that the cluster exists.
type Route struct {
	ID         string              `json:"id"`
	ClusterID  string              `json:"cluster_id"`
	Match      RouteMatch          `json:"match"`
	Transforms []map[string]string `json:"transforms,omitempty"`
	Order      *int                `json:"order,omitempty"`
}

// RouteMatch holds the request-matching criteria for a route.
type RouteMatch struct {
	Path string `json:"path"`
}

// Cluster describes one backend cluster contributed by a fragment.
// A cluster with zero destinations is valid but inert.
type Cluster struct {
	ID           string                 `json:"id"`
	Destinations map[string]Destination `json:"destinations"`
}

// Destination is one backend address within a cluster.
type Destination struct {
	Address string `json:"address"`
}

// ParseResult is the outcome of parsing one fragment.
// Routes and Clusters are sorted by ID so repeated parses of identical input
// yield structurally equal results. Dropped counts individual entries
// (routes, clusters, destinations) discarded for missing mandatory fields.
type ParseResult struct {
	Routes   []Route   `json:"routes"`
	Clusters []Cluster `json:"clusters"`
	Dropped  int       `json:"dropped,omitempty"`
}

// ParseError reports a fragment that failed to decode as structured data.
// It names the fragment (by service key) and the offending field so the
// reload path can isolate the failure to this one fragment.
type ParseError struct {
	Service string
	Field   string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("fragment %s: invalid %s: %v", e.Service, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Format identifies the encoding of a fragment file.
type Format int

// Supported fragment formats.
const (
	FormatYAML Format = iota
	FormatJSON
	FormatTOML
)

// FormatForPath picks the fragment format from a file extension.
// Defaults to YAML for unknown extensions.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".toml":
		return FormatTOML
	default:
		return FormatYAML
	}
}

// ParseFile reads and parses the fragment file at path.
// The returned error is the file read error (callers distinguish a missing
// file via os.IsNotExist) or a *ParseError.
func ParseFile(service, path string) (ParseResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ParseResult{}, err
	}
	return Parse(service, data, FormatForPath(path))
}
