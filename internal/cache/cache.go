// Package cache stores rendered public artifacts (sitemap, menus) and
// short-lived login state. Redis is used when configured so every replica
// shares the same entries; otherwise entries live in process memory.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/menuhub/menuhub/internal/config"
)

// ErrMiss is returned by Get and Take when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Cache is a byte-oriented TTL cache.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Take returns and removes a value atomically.
	Take(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// Keys used across the service.
const (
	SitemapKey = "sitemap.xml"
)

// MenuKey caches the public menu of a tenant in one language.
func MenuKey(orgSlug, lang string) string {
	return "menu:" + orgSlug + ":" + lang
}

// OIDCStateKey holds the pending redirect of an OIDC login.
func OIDCStateKey(state string) string {
	return "oidc_state:" + state
}

// New builds the configured cache. The returned client is non-nil only when
// Redis is enabled, so callers can share it with the rate limiter.
func New(cfg *config.Config) (Cache, *redis.Client, error) {
	if !cfg.Redis.Enabled {
		return NewMemory(cfg.Cache.KeyPrefix), nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, err
	}
	return NewRedis(client, cfg.Cache.KeyPrefix), client, nil
}

// GetOrLoad returns the cached value for key or calls load and stores its
// result. Cache errors other than a miss are ignored and load is used.
func GetOrLoad(ctx context.Context, c Cache, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, bool, error) {
	if v, err := c.Get(ctx, key); err == nil {
		return v, true, nil
	}
	v, err := load(ctx)
	if err != nil {
		return nil, false, err
	}
	_ = c.Set(ctx, key, v, ttl)
	return v, false, nil
}
