// Package cache keeps cart snapshots in Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/go_cart/menu/internal/kv"
	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
	// ttl of zero keeps snapshots forever. Otherwise up to maxJitter is added
	// so snapshots written together do not expire together.
	ttl       time.Duration
	maxJitter time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client:    client,
		ttl:       ttl,
		maxJitter: 5 * time.Minute,
	}
}

func (r *RedisStore) Get(ctx context.Context, namespace string) ([]byte, error) {
	data, err := r.client.Get(ctx, cacheKey(namespace)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (r *RedisStore) Put(ctx context.Context, namespace string, value []byte) error {
	if err := r.client.Set(ctx, cacheKey(namespace), value, r.expiration()).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, namespace string) error {
	if err := r.client.Del(ctx, cacheKey(namespace)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisStore) expiration() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	if r.maxJitter <= 0 {
		return r.ttl
	}
	return r.ttl + time.Duration(rand.Int63n(int64(r.maxJitter)))
}

func cacheKey(namespace string) string {
	return fmt.Sprintf("cart:%s", namespace)
}
