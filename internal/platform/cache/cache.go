// Package cache connects to the Dragonfly/Redis instance that holds shared
// grading budgets.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/p-n-ai/pai-literacy/internal/platform/config"
)

// Namespace prefixes every key the service writes.
const Namespace = "literacy"

// Cache holds a connected client.
type Cache struct {
	Client *redis.Client
}

// ParseURL turns a redis:// or rediss:// URL into client options.
func ParseURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, errors.New("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}
	return opts, nil
}

// Open dials the configured cache and pings it once.
func Open(ctx context.Context, cfg config.CacheConfig) (*Cache, error) {
	opts, err := ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping cache: %w", err)
	}
	return &Cache{Client: client}, nil
}

// Key builds a namespaced key: Key("budget", "u1") is "literacy:budget:u1".
func Key(parts ...string) string {
	return strings.Join(append([]string{Namespace}, parts...), ":")
}

func (c *Cache) Close() error {
	return c.Client.Close()
}

// HealthCheck pings the cache for /readyz.
func (c *Cache) HealthCheck(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}
