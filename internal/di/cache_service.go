package di

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/omarluq/cfgmux/internal/fragment"
)

// ParseCacheService wraps the fragment parse cache.
type ParseCacheService struct {
	Cache *fragment.Cache
}

// NewParseCache creates the ristretto-backed fragment parse cache.
func NewParseCache(_ do.Injector) (*ParseCacheService, error) {
	cache, err := fragment.NewCache()
	if err != nil {
		return nil, fmt.Errorf("failed to create parse cache: %w", err)
	}

	return &ParseCacheService{Cache: cache}, nil
}

// Shutdown implements do.Shutdowner for graceful cache cleanup.
func (s *ParseCacheService) Shutdown() error {
	if s.Cache != nil {
		s.Cache.Close()
	}
	return nil
}
