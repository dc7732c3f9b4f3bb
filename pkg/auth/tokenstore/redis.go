package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type kvStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type keyer interface {
	SessionKey(name string) string
}

// Redis stores the token in a shared redis so several client processes on
// one machine or kiosk fleet see the same session.
type Redis struct {
	store kvStore
	key   string
}

// NewRedis builds a redis-backed store; client is usually a *redis.Client
// from pkg/redis.
func NewRedis(client interface {
	kvStore
	keyer
}, name string) (*Redis, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("token key is required")
	}
	return &Redis{store: client, key: client.SessionKey(name)}, nil
}

func (r *Redis) Load(ctx context.Context) (string, error) {
	token, err := r.store.Get(ctx, r.key)
	if errors.Is(err, redislib.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading token: %w", err)
	}
	return token, nil
}

func (r *Redis) Save(ctx context.Context, token string) error {
	if err := r.store.Set(ctx, r.key, token, 0); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context) error {
	if err := r.store.Del(ctx, r.key); err != nil {
		return fmt.Errorf("clearing token: %w", err)
	}
	return nil
}
