package cron

import (
	"fmt"

	"github.com/angelmondragon/quickbite-backend/pkg/config"
	"github.com/angelmondragon/quickbite-backend/pkg/logger"
)

// SweepSources are the stores each sweep phase works against.
type SweepSources struct {
	Carts  idleCartPurger
	Orders pendingOrderExpirer
	Stock  historyPruner
	Outbox publishedEventPurger
}

// NewSweepRegistry registers the sweep phases in run order: carts, stale orders,
// reservation history, then delivered outbox rows.
func NewSweepRegistry(logg *logger.Logger, cfg config.SweeperConfig, src SweepSources) (*Registry, error) {
	cartJob, err := NewCartExpiryJob(logg, src.Carts, cfg.CartTTL)
	if err != nil {
		return nil, fmt.Errorf("cart expiry job: %w", err)
	}
	orderJob, err := NewPendingOrderExpiryJob(logg, src.Orders, cfg.PendingOrderTTL, cfg.PendingOrdersBatch)
	if err != nil {
		return nil, fmt.Errorf("pending order job: %w", err)
	}
	historyJob, err := NewHistoryPruneJob(logg, src.Stock, cfg.HistoryRetention)
	if err != nil {
		return nil, fmt.Errorf("history prune job: %w", err)
	}
	outboxJob, err := NewOutboxRetentionJob(logg, src.Outbox, cfg.OutboxRetention)
	if err != nil {
		return nil, fmt.Errorf("outbox retention job: %w", err)
	}
	return NewRegistry(cartJob, orderJob, historyJob, outboxJob), nil
}
