package cache

import (
	"context"
	"time"
)

// Cache fronts the upstream catalog so repeated product reads don't hammer
// the backend. A nil Cache is valid everywhere and means "no caching".
type Cache interface {
	Get(ctx context.Context, key string, value any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

func Key(prefix string, id string) string {
	return prefix + ":" + id
}

const (
	ProductKeyPrefix     = "product"
	ProductListKeyPrefix = "products"
)
