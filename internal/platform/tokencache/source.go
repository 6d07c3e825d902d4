package tokencache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is satisfied by Memory and Redis.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// FetchFunc grants a fresh token and reports how long it may be cached.
type FetchFunc func(ctx context.Context) (token string, ttl time.Duration, err error)

// Source hands out a cached token and grants a new one on miss. Concurrent
// misses share a single grant.
type Source struct {
	cache Cache
	key   string
	fetch FetchFunc
	group singleflight.Group
}

func NewSource(cache Cache, key string, fetch FetchFunc) *Source {
	if cache == nil {
		cache = NewMemory()
	}
	return &Source{cache: cache, key: key, fetch: fetch}
}

// Token returns the cached token or grants one.
func (s *Source) Token(ctx context.Context) (string, error) {
	if token, ok, err := s.cache.Get(ctx, s.key); err == nil && ok {
		return token, nil
	}
	value, err, _ := s.group.Do(s.key, func() (any, error) {
		token, ttl, err := s.fetch(ctx)
		if err != nil {
			return "", err
		}
		// cache errors only cost an extra grant next time
		_ = s.cache.Set(ctx, s.key, token, ttl)
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

// Refresh drops the cached token and grants a new one.
func (s *Source) Refresh(ctx context.Context) (string, error) {
	_ = s.cache.Delete(ctx, s.key)
	return s.Token(ctx)
}
