// Package cache stores fetched job listings for a short time so repeated
// feed requests do not hit RemoteOK or Gemini every time.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/swipejobs/internal/repository"
)

// Cache is a JSON value store with per-entry TTL. A corrupt entry reads as
// a miss.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	// Purge drops expired entries and reports how many went. Backends that
	// expire entries themselves return 0.
	Purge(ctx context.Context) (int64, error)
}

// =========================================================================
// REDIS
// =========================================================================

var _ Cache = (*RedisCache)(nil)

type RedisCache struct {
	rdb *redis.Client
}

// NewRedis parses a redis:// URL and checks the server answers.
func NewRedis(ctx context.Context, url string) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cache: parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("cache: connecting to redis: %w", err)
	}
	return &RedisCache{rdb: rdb}, nil
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	s, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache: redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(s, dst); err != nil {
		_ = c.rdb.Del(ctx, key).Err()
		return false, nil
	}
	return true, nil
}

func (c *RedisCache) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("cache: encoding %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, key, b, ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Purge(context.Context) (int64, error) { return 0, nil }

func (c *RedisCache) Close() error { return c.rdb.Close() }

// =========================================================================
// DATABASE
// =========================================================================

var _ Cache = (*DBCache)(nil)

// DBCache keeps entries in the job_cache table. It is the default when no
// Redis URL is configured.
type DBCache struct {
	repo repository.CacheRepository
	now  func() time.Time
}

func NewDBCache(repo repository.CacheRepository) *DBCache {
	return &DBCache{repo: repo, now: time.Now}
}

func (c *DBCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	payload, ok, err := c.repo.GetCache(ctx, key, c.now())
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		_ = c.repo.DeleteCache(ctx, key)
		return false, nil
	}
	return true, nil
}

func (c *DBCache) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("cache: encoding %s: %w", key, err)
	}
	return c.repo.SetCache(ctx, key, b, c.now().Add(ttl))
}

func (c *DBCache) Purge(ctx context.Context) (int64, error) {
	return c.repo.PurgeExpiredCache(ctx, c.now())
}
