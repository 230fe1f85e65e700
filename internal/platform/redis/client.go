// Package redis builds go-redis clients for the session store.
package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"docstamp/internal/platform/config"
)

// NewClient dials and pings Redis, or returns nil when no URL is configured.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Health pings the session store.
func Health(ctx context.Context, client *goredis.Client) error {
	return client.Ping(ctx).Err()
}
