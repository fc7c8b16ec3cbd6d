// Package bootstrap assembles the order core shared by the api and cron-worker binaries.
package bootstrap

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/quickbite-backend/internal/cart"
	"github.com/angelmondragon/quickbite-backend/internal/catalog"
	"github.com/angelmondragon/quickbite-backend/internal/cron"
	"github.com/angelmondragon/quickbite-backend/internal/delivery"
	"github.com/angelmondragon/quickbite-backend/internal/orders"
	"github.com/angelmondragon/quickbite-backend/internal/stock"
	"github.com/angelmondragon/quickbite-backend/pkg/config"
	"github.com/angelmondragon/quickbite-backend/pkg/db"
	"github.com/angelmondragon/quickbite-backend/pkg/logger"
	"github.com/angelmondragon/quickbite-backend/pkg/metrics"
	"github.com/angelmondragon/quickbite-backend/pkg/outbox"
	"github.com/angelmondragon/quickbite-backend/pkg/redis"
)

type CoreParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         *db.Client
	Redis      *redis.Client
	Registerer prometheus.Registerer
}

// Core holds the wired domain services.
type Core struct {
	Carts      cart.Service
	CartRepo   cart.Repository
	Delivery   delivery.Service
	Stock      stock.Manager
	Orders     orders.Service
	OutboxRepo *outbox.Repository
	Metrics    *metrics.CronJobMetrics
}

func NewCore(params CoreParams) (*Core, error) {
	switch {
	case params.Config == nil:
		return nil, errors.New("config is required")
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.DB == nil:
		return nil, errors.New("database client is required")
	case params.Redis == nil:
		return nil, errors.New("redis client is required")
	}
	cfg := params.Config
	conn := params.DB.DB()

	peak, err := delivery.WindowPolicy(cfg.Delivery.PeakWindows, cfg.Delivery.PeakWeekdays, cfg.Delivery.Timezone)
	if err != nil {
		return nil, fmt.Errorf("peak policy: %w", err)
	}
	deliveryService, err := delivery.NewService(conn, peak)
	if err != nil {
		return nil, fmt.Errorf("delivery service: %w", err)
	}

	catalogReader := catalog.NewReader(conn)
	cartRepo := cart.NewRepository(conn)
	cartService, err := cart.NewService(cart.ServiceParams{
		Repository: cartRepo,
		Catalog:    catalogReader,
		Delivery:   deliveryService,
		Logger:     params.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("cart service: %w", err)
	}

	stockManager, err := stock.NewManager(conn)
	if err != nil {
		return nil, fmt.Errorf("stock manager: %w", err)
	}
	numbers, err := orders.NewNumberAllocator(params.Redis, cfg.Orders.NumberPrefix)
	if err != nil {
		return nil, fmt.Errorf("order numbers: %w", err)
	}
	outboxRepo := outbox.NewRepository(conn)

	ordersService, err := orders.NewService(orders.ServiceParams{
		DB:         params.DB,
		Repository: orders.NewRepository(conn),
		Carts:      cartRepo,
		Catalog:    catalogReader,
		Delivery:   deliveryService,
		Stock:      stockManager,
		Outbox:     outbox.NewService(outboxRepo, params.Logger),
		Numbers:    numbers,
		Config:     cfg.Orders,
		Metrics:    metrics.NewOrderMetrics(params.Registerer),
		Logger:     params.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("orders service: %w", err)
	}

	return &Core{
		Carts:      cartService,
		CartRepo:   cartRepo,
		Delivery:   deliveryService,
		Stock:      stockManager,
		Orders:     ordersService,
		OutboxRepo: outboxRepo,
		Metrics:    metrics.NewCronJobMetrics(params.Registerer),
	}, nil
}

// NewSweeper builds the expiry sweeper over the core's stores, guarded by a Redis lease.
func (c *Core) NewSweeper(cfg config.SweeperConfig, logg *logger.Logger, locks *redis.Client) (*cron.Service, error) {
	registry, err := cron.NewSweepRegistry(logg, cfg, cron.SweepSources{
		Carts:  c.CartRepo,
		Orders: c.Orders,
		Stock:  c.Stock,
		Outbox: c.OutboxRepo,
	})
	if err != nil {
		return nil, err
	}
	lock, err := cron.NewRedisLock(locks, cron.DefaultLockName, cfg.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("sweeper lock: %w", err)
	}
	return cron.NewService(cron.ServiceParams{
		Logger:       logg,
		Registry:     registry,
		Lock:         lock,
		Metrics:      c.Metrics,
		Interval:     cfg.Interval,
		MaxAttempts:  cfg.MaxAttempts,
		RetryBackoff: cfg.RetryBackoff,
	})
}
