// internal/cache/cache.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/loopmarket/marketplace-backend/internal/config"
)

const productKeyPrefix = "products:list:"

// Client wraps the Redis connection used to cache hot read paths. A nil
// *Client is valid and turns every operation into a no-op, so callers never
// need to branch on whether caching is configured.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(cfg config.RedisConfig) *Client {
	if cfg.Disabled {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).Warn("Redis unavailable, product cache disabled")
		return nil
	}

	return &Client{
		rdb: rdb,
		ttl: time.Duration(cfg.CacheTTL) * time.Second,
	}
}

func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

// GetJSON loads a cached value into dest, reporting whether the key was
// present.
func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if c == nil {
		return false
	}

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logrus.WithError(err).Warn("Redis read failed")
		}
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		logrus.WithError(err).Warn("Failed to decode cached value")
		return false
	}

	return true
}

// SetJSON stores a value under key with the configured TTL.
func (c *Client) SetJSON(ctx context.Context, key string, value interface{}) {
	if c == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		logrus.WithError(err).Warn("Failed to encode value for cache")
		return
	}

	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logrus.WithError(err).Warn("Redis write failed")
	}
}

// ProductListKey builds the cache key for one page of the listing query.
func ProductListKey(parts ...interface{}) string {
	key := productKeyPrefix
	for _, p := range parts {
		key += fmt.Sprintf("%v:", p)
	}
	return key
}

// InvalidateProducts drops every cached listing page. Called after any
// product write so readers never see a stale status.
func (c *Client) InvalidateProducts(ctx context.Context) {
	if c == nil {
		return
	}

	iter := c.rdb.Scan(ctx, 0, productKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			logrus.WithError(err).Warn("Redis delete failed")
		}
	}
	if err := iter.Err(); err != nil {
		logrus.WithError(err).Warn("Redis scan failed")
	}
}
