package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/quickbite-backend/pkg/logger"
)

const (
	CartExpiryJobName         = "cart-expiry"
	PendingOrderExpiryJobName = "pending-order-expiry"
	HistoryPruneJobName       = "reservation-history-pruning"
	OutboxRetentionJobName    = "outbox-retention"

	defaultCartTTL          = 24 * time.Hour
	defaultPendingOrderTTL  = 30 * time.Minute
	defaultHistoryRetention = 30 * 24 * time.Hour
	defaultOutboxRetention  = 7 * 24 * time.Hour
)

type idleCartPurger interface {
	DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type pendingOrderExpirer interface {
	ExpirePending(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

type historyPruner interface {
	PruneHistory(ctx context.Context, cutoff time.Time) (int64, error)
}

type publishedEventPurger interface {
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// cutoffJob runs one retention-style delete relative to the clock.
type cutoffJob struct {
	name string
	age  time.Duration
	logg *logger.Logger
	run  func(ctx context.Context, cutoff time.Time) (int64, error)
	now  func() time.Time
}

func (j *cutoffJob) Name() string { return j.name }

func (j *cutoffJob) Run(ctx context.Context) (int64, error) {
	cutoff := j.now().UTC().Add(-j.age)
	affected, err := j.run(ctx, cutoff)
	if err != nil {
		return affected, fmt.Errorf("%s before %s: %w", j.name, cutoff.Format(time.RFC3339), err)
	}
	j.logg.Info(j.logg.WithField(ctx, "affected", affected), j.name+" swept")
	return affected, nil
}

func newCutoffJob(name string, age, fallback time.Duration, logg *logger.Logger, run func(ctx context.Context, cutoff time.Time) (int64, error)) *cutoffJob {
	if age <= 0 {
		age = fallback
	}
	return &cutoffJob{name: name, age: age, logg: logg, run: run, now: time.Now}
}

// NewCartExpiryJob deletes carts untouched for ttl. Carts never hold stock, so nothing is returned.
func NewCartExpiryJob(logg *logger.Logger, carts idleCartPurger, ttl time.Duration) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	return newCutoffJob(CartExpiryJobName, ttl, defaultCartTTL, logg, carts.DeleteIdleBefore), nil
}

// NewPendingOrderExpiryJob cancels orders still pending after ttl, batch at a time.
func NewPendingOrderExpiryJob(logg *logger.Logger, orders pendingOrderExpirer, ttl time.Duration, batch int) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order service required")
	}
	return newCutoffJob(PendingOrderExpiryJobName, ttl, defaultPendingOrderTTL, logg, func(ctx context.Context, cutoff time.Time) (int64, error) {
		expired, err := orders.ExpirePending(ctx, cutoff, batch)
		return int64(expired), err
	}), nil
}

func NewHistoryPruneJob(logg *logger.Logger, stock historyPruner, retention time.Duration) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock manager required")
	}
	return newCutoffJob(HistoryPruneJobName, retention, defaultHistoryRetention, logg, stock.PruneHistory), nil
}

func NewOutboxRetentionJob(logg *logger.Logger, repo publishedEventPurger, retention time.Duration) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if repo == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	return newCutoffJob(OutboxRetentionJobName, retention, defaultOutboxRetention, logg, repo.DeletePublishedBefore), nil
}
