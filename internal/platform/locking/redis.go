package locking

import (
	"context"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const (
	// DefaultLockTTL bounds how long a crashed holder can keep a key locked.
	DefaultLockTTL = 15 * time.Second
	retryInterval  = 25 * time.Millisecond
)

var releaseScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// RedisLocker is a token-guarded SET NX lock shared across API replicas.
type RedisLocker struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisLocker wires a Redis-backed locker. Keys are namespaced by prefix.
func NewRedisLocker(client *goredis.Client, prefix string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RedisLocker{client: client, prefix: prefix, ttl: ttl}
}

// Lock polls SET NX until it wins or ctx ends.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	fullKey := l.prefix + ":lock:" + key
	token := uuid.NewString()
	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = releaseScript.Run(releaseCtx, l.client, []string{fullKey}, token).Err()
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ErrLockTimeout
		case <-ticker.C:
		}
	}
}
