package rci

import (
	"context"
	"time"

	"github.com/kailas-cloud/rci/internal/domain"
)

// Status reports whether the store is reachable alongside its current stats
// and the service's active configuration.
func (s *Service) Status(ctx context.Context) (domain.Status, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return domain.Status{
			Available: false,
			Config:    s.statusConfig(),
			CheckedAt: time.Now().Format(time.RFC3339),
		}, err
	}

	return domain.Status{
		Available: true,
		Stats:     stats,
		Config:    s.statusConfig(),
		CheckedAt: time.Now().Format(time.RFC3339),
	}, nil
}

func (s *Service) statusConfig() domain.StatusConfig {
	return domain.StatusConfig{
		VectorStore:    s.vectorStoreType,
		EmbeddingModel: s.embeddingModel,
		Dimension:      s.dimension,
		CacheEnabled:   s.cacheEnabled,
	}
}

// ClearCache empties the search cache. A no-op if caching is disabled.
func (s *Service) ClearCache() {
	if s.cache != nil {
		s.cache.Clear()
	}
}
