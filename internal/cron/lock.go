package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/hatchery-backend/pkg/redis"
)

const defaultLeaseTTL = 30 * time.Minute

// Lock hands out exclusive leases for one sweep cycle across cron replicas.
type Lock interface {
	Acquire(ctx context.Context) (Lease, bool, error)
}

// Lease is held by exactly one replica until released or expired.
type Lease interface {
	Release(ctx context.Context) error
}

type leaseStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock stores the lease token under a single key with a TTL so a crashed
// holder cannot block later cycles forever.
type RedisLock struct {
	store leaseStore
	key   string
	ttl   time.Duration
}

// NewRedisLock builds a lease lock under key.
func NewRedisLock(store leaseStore, key string, ttl time.Duration) (*RedisLock, error) {
	if store == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLeaseTTL
	}
	return &RedisLock{store: store, key: key, ttl: ttl}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (Lease, bool, error) {
	token := uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return nil, false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	if !ok {
		return nil, false, nil
	}
	return &redisLease{store: l.store, key: l.key, token: token}, true, nil
}

type redisLease struct {
	store leaseStore
	key   string
	token string
}

// Release deletes the key only while it still carries this lease's token; an
// expired lease may already belong to another replica.
func (l *redisLease) Release(ctx context.Context) error {
	current, err := l.store.Get(ctx, l.key)
	if redis.IsNil(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read lease %s: %w", l.key, err)
	}
	if current != l.token {
		return nil
	}
	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	return nil
}
