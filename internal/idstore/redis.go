package idstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the cart id durable across service restarts, one key
// per session.
type RedisStore struct {
	client  *redis.Client
	session string
}

func NewRedisStore(client *redis.Client, sessionID string) *RedisStore {
	return &RedisStore{
		client:  client,
		session: sessionID,
	}
}

func (r *RedisStore) Load(ctx context.Context) (string, error) {
	id, err := r.client.Get(ctx, r.key()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return id, nil
}

func (r *RedisStore) Save(ctx context.Context, id string) error {
	// No TTL: the key lives until the cart is deleted.
	if err := r.client.Set(ctx, r.key(), id, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key()).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisStore) key() string {
	return fmt.Sprintf("cart-id:%s", r.session)
}
