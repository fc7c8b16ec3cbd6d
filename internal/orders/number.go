package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/quickbite-backend/pkg/errors"
)

const numberCounterTTL = 48 * time.Hour

// NumberAllocator hands out unique human-readable order numbers.
type NumberAllocator interface {
	Next(ctx context.Context, at time.Time) (string, error)
}

type counterStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	CounterKey(name string) string
}

type redisNumberAllocator struct {
	store  counterStore
	prefix string
}

// NewNumberAllocator builds PREFIX-YYYYMMDD-NNNNNN numbers from a per-UTC-day Redis counter.
// A number allocated for a transaction that later rolls back is simply skipped.
func NewNumberAllocator(store counterStore, prefix string) (NumberAllocator, error) {
	if store == nil {
		return nil, fmt.Errorf("counter store required")
	}
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = "QB"
	}
	return &redisNumberAllocator{store: store, prefix: prefix}, nil
}

func (a *redisNumberAllocator) Next(ctx context.Context, at time.Time) (string, error) {
	day := at.UTC().Format("20060102")
	seq, err := a.store.IncrWithTTL(ctx, a.store.CounterKey("order_number:"+day), numberCounterTTL)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
	}
	return fmt.Sprintf("%s-%s-%06d", a.prefix, day, seq), nil
}
