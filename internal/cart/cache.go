package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/hatchery-backend/pkg/redis"
)

// ErrCacheMiss is returned by Cache.Get when no view is stored.
var ErrCacheMiss = errors.New("cart cache miss")

type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(userID string) string
}

// RedisCache keeps JSON-encoded cart views with a jittered TTL so entries
// written together do not expire together.
type RedisCache struct {
	store   redisStore
	baseTTL time.Duration
	jitter  time.Duration
}

// NewRedisCache builds a cache over the shared redis client.
func NewRedisCache(store redisStore, baseTTL, jitter time.Duration) (*RedisCache, error) {
	if store == nil {
		return nil, errors.New("redis store required")
	}
	if baseTTL <= 0 {
		return nil, errors.New("cart cache ttl must be positive")
	}
	if jitter < 0 {
		jitter = 0
	}
	return &RedisCache{store: store, baseTTL: baseTTL, jitter: jitter}, nil
}

func (c *RedisCache) Get(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	raw, err := c.store.Get(ctx, c.store.CartKey(userID.String()))
	if redis.IsNil(err) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get cart: %w", err)
	}
	var view CartView
	if err := json.Unmarshal([]byte(raw), &view); err != nil {
		return nil, fmt.Errorf("unmarshal cart view: %w", err)
	}
	return &view, nil
}

func (c *RedisCache) Set(ctx context.Context, userID uuid.UUID, view *CartView) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("marshal cart view: %w", err)
	}
	if err := c.store.Set(ctx, c.store.CartKey(userID.String()), string(data), c.ttl()); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := c.store.Del(ctx, c.store.CartKey(userID.String())); err != nil {
		return fmt.Errorf("redis delete cart: %w", err)
	}
	return nil
}

func (c *RedisCache) ttl() time.Duration {
	if c.jitter <= 0 {
		return c.baseTTL
	}
	return c.baseTTL + rand.N(c.jitter)
}
