package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const claimScope = "evt:claimed:"

type claimStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// Guard deduplicates at-least-once deliveries. Each consumer claims an event
// id once; later deliveries of the same id see the claim until ttl expires.
type Guard struct {
	store claimStore
	ttl   time.Duration
	now   func() time.Time
}

// NewGuard builds a guard. A zero ttl keeps claims forever.
func NewGuard(store claimStore, ttl time.Duration) (*Guard, error) {
	if store == nil {
		return nil, errors.New("claim store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Guard{store: store, ttl: ttl, now: time.Now}, nil
}

// Claim reports whether this is the first delivery of eventID to consumer.
// The stored value is the claim time, which helps when debugging duplicates.
func (g *Guard) Claim(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	key, err := g.key(consumer, eventID)
	if err != nil {
		return false, err
	}
	return g.store.SetNX(ctx, key, g.now().UTC().Format(time.RFC3339Nano), g.ttl)
}

// Release drops a claim so the next delivery is handled again. Consumers call
// it when handling failed after the claim was taken.
func (g *Guard) Release(ctx context.Context, consumer string, eventID uuid.UUID) error {
	key, err := g.key(consumer, eventID)
	if err != nil {
		return err
	}
	return g.store.Del(ctx, key)
}

func (g *Guard) key(consumer string, eventID uuid.UUID) (string, error) {
	if consumer == "" {
		return "", errors.New("consumer name is required")
	}
	if eventID == uuid.Nil {
		return "", errors.New("event id is required")
	}
	return g.store.IdempotencyKey(claimScope+consumer, eventID.String()), nil
}
