package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a string key-value store with per-key expiry. Get returns an
// empty string and no error for a missing key.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	GenerateKey(operation, key string) string
}

type redisCache struct {
	client    *redis.Client
	namespace string
}

func NewRedisCache(addr, namespace string) Cache {
	return &redisCache{
		client:    redis.NewClient(&redis.Options{Addr: addr}),
		namespace: namespace,
	}
}

// Ping checks connectivity so the server fails fast on a bad address.
func Ping(ctx context.Context, c Cache) error {
	rc, ok := c.(*redisCache)
	if !ok {
		return nil
	}
	if err := rc.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache: ping redis: %w", err)
	}
	return nil
}

func (r *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (r *redisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *redisCache) GenerateKey(operation, key string) string {
	return generateKey(r.namespace, operation, key)
}

func generateKey(namespace, operation, key string) string {
	return fmt.Sprintf("%s:%s:%s", namespace, operation, key)
}
