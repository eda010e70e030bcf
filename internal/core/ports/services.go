package ports

import (
	"context"

	"github.com/samirrijal/annotile/internal/core/domain"
)

// TileFetcher retrieves the raw image bytes for a whole tile grid. A failed
// grid returns no partial results: the caller gets every tile or an error
// naming the first unrecoverable one.
type TileFetcher interface {
	FetchAll(ctx context.Context, grid domain.TileGrid, urlTemplate string) (map[domain.TileID][]byte, error)
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
