package lock

import (
	"context"
	"fmt"
	"time"

	"ticket-backend/internal/logger"

	"github.com/go-redis/redis/v8"
)

// releaseScript deletes the key only if it still belongs to the caller.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock shares lock ownership between service instances.
type RedisLock struct {
	Client     *redis.Client
	Logger     *logger.Logger
	DefaultTTL time.Duration
}

func NewRedisLock(client *redis.Client, defaultTTL time.Duration, log *logger.Logger) *RedisLock {
	return &RedisLock{Client: client, DefaultTTL: defaultTTL, Logger: log}
}

func (r *RedisLock) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = r.DefaultTTL
	}
	ok, err := r.Client.SetNX(ctx, key, owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis lock %s: %w", key, err)
	}
	if !ok {
		r.Logger.Debug("REDIS", fmt.Sprintf("Lock %s is held by another owner", key))
	}
	return ok, nil
}

func (r *RedisLock) Release(ctx context.Context, key, owner string) error {
	if err := releaseScript.Run(ctx, r.Client, []string{key}, owner).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("redis unlock %s: %w", key, err)
	}
	return nil
}

// Holder returns the current owner of key, or "" if it is free.
func (r *RedisLock) Holder(ctx context.Context, key string) (string, error) {
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}
