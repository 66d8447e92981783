package session

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/takrit/auth-sessions/pkg/redis"
)

// RedisStore is the Redis-backed session store.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, userID, refreshToken string, ttl time.Duration) error {
	if userID == "" || refreshToken == "" {
		return fmt.Errorf("session: missing user id or token")
	}
	if ttl <= 0 {
		return fmt.Errorf("session: ttl must be positive")
	}
	if err := s.client.Set(ctx, Key(userID), refreshToken, ttl).Err(); err != nil {
		return fmt.Errorf("session: failed to save refresh token: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, userID string) (string, error) {
	val, err := s.client.Get(ctx, Key(userID)).Result()
	if err == goredis.Nil {
		return "", nil // not found
	}
	if err != nil {
		return "", fmt.Errorf("session: failed to read refresh token: %w", err)
	}
	return val, nil
}

func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, Key(userID)).Err(); err != nil {
		return fmt.Errorf("session: failed to delete refresh token: %w", err)
	}
	return nil
}
