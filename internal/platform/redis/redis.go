// Package redis dials the shared Redis instance used for locks and token caching.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Connect opens a Redis client and verifies connectivity.
func Connect(ctx context.Context, addr string) (*goredis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// ConnectOptional dials addr and returns nil with a no-op cleanup when Redis is
// not configured or unreachable, logging the fallback.
func ConnectOptional(ctx context.Context, addr string, logger *slog.Logger) (*goredis.Client, func()) {
	if strings.TrimSpace(addr) == "" {
		logger.Warn("REDIS_ADDR not set, falling back to in-process locks and token cache")
		return nil, func() {}
	}
	client, err := Connect(ctx, addr)
	if err != nil {
		logger.Warn("failed to connect to redis, falling back to in-process locks and token cache", slog.String("error", err.Error()))
		return nil, func() {}
	}
	logger.Info("redis connection established", slog.String("addr", addr))
	return client, func() { _ = client.Close() }
}
