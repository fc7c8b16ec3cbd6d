package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/quickbite-backend/pkg/redis"
)

// Guard records delivered event IDs per publisher or consumer in Redis.
// Keys follow `qb:idempotency:evt:delivered:<scope>:<event_id>`.
type Guard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

func NewGuard(store redis.IdempotencyStore, ttl time.Duration) (*Guard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Guard{store: store, ttl: ttl}, nil
}

// Claim marks the event as delivered for scope. It returns false when another
// delivery already claimed it.
func (g *Guard) Claim(ctx context.Context, scope string, eventID uuid.UUID) (bool, error) {
	key, err := g.deliveredKey(scope, eventID)
	if err != nil {
		return false, err
	}
	return g.store.SetNX(ctx, key, "1", g.ttl)
}

// Release drops a claim so a failed delivery can be retried.
func (g *Guard) Release(ctx context.Context, scope string, eventID uuid.UUID) error {
	key, err := g.deliveredKey(scope, eventID)
	if err != nil {
		return err
	}
	return g.store.Del(ctx, key)
}

func (g *Guard) deliveredKey(scope string, eventID uuid.UUID) (string, error) {
	if scope == "" {
		return "", errors.New("scope is required")
	}
	if eventID == uuid.Nil {
		return "", errors.New("event id is required")
	}
	return g.store.IdempotencyKey(fmt.Sprintf("evt:delivered:%s", scope), eventID.String()), nil
}
