package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fjod/shopnest/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

const (
	fullTTL = 15 * time.Minute
	pageTTL = 5 * time.Minute
)

// ResultCache stores scraped results for a query at two granularities: the
// full list and individual start/limit pages.
type ResultCache interface {
	GetPage(ctx context.Context, q string, start, limit int) ([]domain.CatalogItem, error)
	SetPage(ctx context.Context, q string, start, limit int, items []domain.CatalogItem) error
	GetAll(ctx context.Context, q string) ([]domain.CatalogItem, error)
	SetAll(ctx context.Context, q string, items []domain.CatalogItem) error
}

type RedisResultCache struct {
	client redis.UniversalClient
}

func NewRedisResultCache(client redis.UniversalClient) *RedisResultCache {
	return &RedisResultCache{client: client}
}

func fullKey(q string) string {
	return fmt.Sprintf("products_%s", q)
}

func pageKey(q string, start, limit int) string {
	return fmt.Sprintf("products_%s_%d_%d", q, start, limit)
}

func (c *RedisResultCache) GetPage(ctx context.Context, q string, start, limit int) ([]domain.CatalogItem, error) {
	return c.get(ctx, pageKey(q, start, limit))
}

func (c *RedisResultCache) SetPage(ctx context.Context, q string, start, limit int, items []domain.CatalogItem) error {
	return c.set(ctx, pageKey(q, start, limit), items, pageTTL)
}

func (c *RedisResultCache) GetAll(ctx context.Context, q string) ([]domain.CatalogItem, error) {
	return c.get(ctx, fullKey(q))
}

func (c *RedisResultCache) SetAll(ctx context.Context, q string, items []domain.CatalogItem) error {
	return c.set(ctx, fullKey(q), items, fullTTL)
}

// get treats an empty cached list as a miss.
func (c *RedisResultCache) get(ctx context.Context, key string) ([]domain.CatalogItem, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var items []domain.CatalogItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal products failed: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrCacheMiss
	}
	return items, nil
}

func (c *RedisResultCache) set(ctx context.Context, key string, items []domain.CatalogItem, ttl time.Duration) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal products failed: %w", err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}
