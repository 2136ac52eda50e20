package fragment

import (
	"sort"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Parse decodes raw fragment bytes into routes and clusters.
//
// A document that fails to decode at all yields a *ParseError; the caller is
// expected to treat the fragment as contributing nothing while other
// fragments still succeed. A document with no routes or clusters sections is
// an empty contribution, not an error.
func Parse(service string, data []byte, format Format) (ParseResult, error) {
	var doc map[string]any

	switch format {
	case FormatJSON:
		return parseJSON(service, data)
	case FormatTOML:
		if err := toml.Unmarshal(data, &doc); err != nil {
			return ParseResult{}, &ParseError{Service: service, Field: "document", Err: err}
		}
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return ParseResult{}, &ParseError{Service: service, Field: "document", Err: err}
		}
	}

	return fromDocument(service, doc), nil
}

// fromDocument converts a decoded generic document into a ParseResult.
// All three fragment encodings funnel through here so the per-entry drop
// rules behave identically regardless of file format.
func fromDocument(service string, doc map[string]any) ParseResult {
	var res ParseResult

	routes, ok := section(doc, "routes")
	if !ok && doc["routes"] != nil {
		log.Warn().Str("fragment", service).Msg("routes section is not a mapping, ignoring")
	}
	for id, v := range routes {
		rt, dropped := convertRoute(service, id, v)
		res.Dropped += dropped
		if rt != nil {
			res.Routes = append(res.Routes, *rt)
		}
	}

	clusters, ok := section(doc, "clusters")
	if !ok && doc["clusters"] != nil {
		log.Warn().Str("fragment", service).Msg("clusters section is not a mapping, ignoring")
	}
	for id, v := range clusters {
		cl, dropped := convertCluster(service, id, v)
		res.Dropped += dropped
		if cl != nil {
			res.Clusters = append(res.Clusters, *cl)
		}
	}

	// Source maps are unordered; sort by ID so rebuilds of unchanged input
	// produce structurally equal results.
	sort.Slice(res.Routes, func(i, j int) bool { return res.Routes[i].ID < res.Routes[j].ID })
	sort.Slice(res.Clusters, func(i, j int) bool { return res.Clusters[i].ID < res.Clusters[j].ID })

	return res
}

func section(doc map[string]any, key string) (map[string]any, bool) {
	if doc == nil {
		return nil, false
	}
	m, ok := doc[key].(map[string]any)
	return m, ok
}

// convertRoute converts one raw route entry, returning nil and a drop count
// of 1 when the entry is malformed or missing a mandatory field.
func convertRoute(service, id string, v any) (*Route, int) {
	entry, ok := v.(map[string]any)
	if !ok {
		log.Warn().Str("fragment", service).Str("route", id).Msg("route entry is not a mapping, dropped")
		return nil, 1
	}

	clusterID := stringField(entry, "cluster_id")
	path := ""
	if match, ok := entry["match"].(map[string]any); ok {
		path = stringField(match, "path")
	}

	// ClusterID and match path are mandatory; a route without them can never
	// be served, so only this entry is dropped.
	if clusterID == "" {
		log.Warn().Str("fragment", service).Str("route", id).Msg("route missing cluster_id, dropped")
		return nil, 1
	}
	if path == "" {
		log.Warn().Str("fragment", service).Str("route", id).Msg("route missing match path, dropped")
		return nil, 1
	}

	rt := &Route{
		ID:        id,
		ClusterID: clusterID,
		Match:     RouteMatch{Path: path},
	}

	if raw, ok := entry["transforms"].([]any); ok {
		rt.Transforms = convertTransforms(service, id, raw)
	}
	if order, ok := intField(entry, "order"); ok {
		rt.Order = &order
	}

	return rt, 0
}

// convertTransforms keeps the declared order of transform entries and skips
// any entry that is not a flat key/value mapping.
func convertTransforms(service, id string, raw []any) []map[string]string {
	transforms := make([]map[string]string, 0, len(raw))
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			log.Warn().Str("fragment", service).Str("route", id).Msg("transform entry is not a mapping, skipped")
			continue
		}
		tf := make(map[string]string, len(entry))
		for k, v := range entry {
			s, ok := v.(string)
			if !ok {
				log.Warn().Str("fragment", service).Str("route", id).Str("transform", k).Msg("transform value is not a string, skipped")
				continue
			}
			tf[k] = s
		}
		if len(tf) > 0 {
			transforms = append(transforms, tf)
		}
	}
	if len(transforms) == 0 {
		return nil
	}
	return transforms
}

// convertCluster converts one raw cluster entry. Destinations missing an
// address are dropped individually; the cluster itself survives.
func convertCluster(service, id string, v any) (*Cluster, int) {
	entry, ok := v.(map[string]any)
	if !ok {
		log.Warn().Str("fragment", service).Str("cluster", id).Msg("cluster entry is not a mapping, dropped")
		return nil, 1
	}

	cl := &Cluster{ID: id, Destinations: map[string]Destination{}}
	dropped := 0

	raw, ok := entry["destinations"].(map[string]any)
	if !ok && entry["destinations"] != nil {
		log.Warn().Str("fragment", service).Str("cluster", id).Msg("destinations is not a mapping, ignoring")
	}
	for name, dv := range raw {
		dest, ok := dv.(map[string]any)
		if !ok {
			log.Warn().Str("fragment", service).Str("cluster", id).Str("destination", name).Msg("destination is not a mapping, dropped")
			dropped++
			continue
		}
		addr := stringField(dest, "address")
		if addr == "" {
			log.Warn().Str("fragment", service).Str("cluster", id).Str("destination", name).Msg("destination missing address, dropped")
			dropped++
			continue
		}
		cl.Destinations[name] = Destination{Address: addr}
	}

	return cl, dropped
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// intField extracts an integer field tolerating the numeric types the three
// decoders produce (yaml: int, toml: int64, json: float64).
func intField(m map[string]any, key string) (int, bool) {
	switch n := m[key].(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
