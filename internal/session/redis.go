package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/store"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisTokenStore keeps session tokens as Redis hashes with a sliding TTL.
type RedisTokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTokenStore(ctx context.Context, client *redis.Client, ttl time.Duration) (*RedisTokenStore, error) {
	if client == nil {
		return nil, errors.New("redis client must be non-nil")
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisTokenStore{client: client, ttl: ttl}, nil
}

func (r *RedisTokenStore) Create(ctx context.Context, sess store.Session) (string, error) {
	token := uuid.NewString()
	key := tokenKey(token)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "user_id", sess.UserID, "email", sess.Email)
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("redis create session failed: %w", err)
	}
	return token, nil
}

func (r *RedisTokenStore) Lookup(ctx context.Context, token string) (store.Session, error) {
	key := tokenKey(token)

	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return store.Session{}, fmt.Errorf("redis lookup session failed: %w", err)
	}
	if len(fields) == 0 || fields["user_id"] == "" {
		return store.Session{}, ErrSessionNotFound
	}

	if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
		return store.Session{}, fmt.Errorf("redis refresh session failed: %w", err)
	}

	return store.Session{UserID: fields["user_id"], Email: fields["email"]}, nil
}

func (r *RedisTokenStore) Delete(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, tokenKey(token)).Err(); err != nil {
		return fmt.Errorf("redis delete session failed: %w", err)
	}
	return nil
}

func (r *RedisTokenStore) Close() error {
	return r.client.Close()
}

func tokenKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}
