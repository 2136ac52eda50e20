package fragment

import (
	"fmt"
	"os"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/rs/zerolog/log"
)

// Cache wraps fragment parsing with a ristretto-backed memo so reloads do
// not re-decode fragments whose files have not changed. Entries are keyed by
// path, modification time, and size; touching a fragment naturally produces
// a fresh key and the stale entry ages out of the cache.
type Cache struct {
	cache *ristretto.Cache[string, *ParseResult]
}

// NewCache creates a parse cache sized for a few thousand fragments.
func NewCache() (*Cache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, *ParseResult]{
		NumCounters: 10_000,
		MaxCost:     1 << 26, // 64 MiB of parsed fragments
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{cache: cache}, nil
}

// ParseFile parses the fragment file at path, serving an unchanged file from
// cache. Cached results are shared; callers must treat them as immutable.
func (c *Cache) ParseFile(service, path string) (ParseResult, error) {
	st, err := os.Stat(path)
	if err != nil {
		return ParseResult{}, err
	}

	key := fmt.Sprintf("%s|%d|%d", path, st.ModTime().UnixNano(), st.Size())
	if res, found := c.cache.Get(key); found {
		log.Debug().Str("fragment", service).Str("path", path).Msg("fragment parse cache hit")
		return *res, nil
	}

	res, err := ParseFile(service, path)
	if err != nil {
		return ParseResult{}, err
	}

	c.cache.Set(key, &res, st.Size())
	return res, nil
}

// Close releases cache resources.
func (c *Cache) Close() {
	c.cache.Close()
}
