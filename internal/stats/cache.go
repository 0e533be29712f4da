// internal/stats/cache.go
//
// Storage for the cached "average attempts remaining" message.
// Responsibilities:
//   - In-process cache for single-instance runs and tests
//   - Redis cache so several instances serve the same value

package stats

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is where the statistic lives in Redis.
const DefaultRedisKey = "hangman:average_attempts_remaining"

// Cache holds a single string value. Get returns "" when nothing was stored.
type Cache interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, v string) error
}

type memoryCache struct {
	mu sync.RWMutex
	v  string
}

// NewMemoryCache returns a process-local Cache.
func NewMemoryCache() Cache { return &memoryCache{} }

func (c *memoryCache) Get(context.Context) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v, nil
}

func (c *memoryCache) Set(_ context.Context, v string) error {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
	return nil
}

type redisCache struct {
	rdb *redis.Client
	key string
}

// NewRedisCache stores the value under key (DefaultRedisKey when empty).
func NewRedisCache(rdb *redis.Client, key string) Cache {
	if key == "" {
		key = DefaultRedisKey
	}
	return &redisCache{rdb: rdb, key: key}
}

func (c *redisCache) Get(ctx context.Context) (string, error) {
	v, err := c.rdb.Get(ctx, c.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

func (c *redisCache) Set(ctx context.Context, v string) error {
	return c.rdb.Set(ctx, c.key, v, 0).Err()
}

// DialRedis parses a redis:// URL and verifies the server answers.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
