package repository

import (
	"context"

	"github.com/wekeepgrowing/chronam-reader/internal/domain/entity"
)

// CacheRepository stores captured archive responses keyed by upstream URL.
// Get returns (nil, nil) on a miss. Freshness is decided by the caller.
type CacheRepository interface {
	Get(ctx context.Context, key string) (*entity.CacheEntry, error)
	Set(ctx context.Context, key string, entry *entity.CacheEntry) error
}
