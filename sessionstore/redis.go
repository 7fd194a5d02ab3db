package sessionstore

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisStorage persists the session record in Redis. Intended for
// server-rendered deployments where local files are not durable.
type RedisStorage struct {
	client *redis.Client
	key    string
}

// NewRedisStorage creates a Redis-backed storage. An empty key uses
// StorageKey.
func NewRedisStorage(client *redis.Client, key string) *RedisStorage {
	if key == "" {
		key = StorageKey
	}
	return &RedisStorage{client: client, key: key}
}

// Load implements Storage.
func (r *RedisStorage) Load(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	return data, nil
}

// Save implements Storage. The record has no TTL; session lifetime is
// governed by the refresh token, not the store.
func (r *RedisStorage) Save(ctx context.Context, data []byte) error {
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Clear implements Storage.
func (r *RedisStorage) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}
