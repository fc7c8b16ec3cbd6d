package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/quickbite-backend/internal/cart"
	"github.com/angelmondragon/quickbite-backend/internal/catalog"
	"github.com/angelmondragon/quickbite-backend/internal/delivery"
	"github.com/angelmondragon/quickbite-backend/internal/stock"
	"github.com/angelmondragon/quickbite-backend/pkg/config"
	"github.com/angelmondragon/quickbite-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/quickbite-backend/pkg/errors"
	"github.com/angelmondragon/quickbite-backend/pkg/logger"
	"github.com/angelmondragon/quickbite-backend/pkg/metrics"
	"github.com/angelmondragon/quickbite-backend/pkg/outbox"
)

// ExpiryReason is recorded on orders cancelled by the sweeper.
const ExpiryReason = "expired — not confirmed in time"

// Service owns every order mutation. CreateOrder is the only way an order comes to exist.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	UpdateSubOrderStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	CancelOrder(ctx context.Context, input CancelInput) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error)
	GetByNumber(ctx context.Context, number string, actor Actor) (*models.Order, error)
	ApplyDiscount(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, actor Actor) (*models.Order, error)
	MarkPaid(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error)
	Refund(ctx context.Context, orderID uuid.UUID, actor Actor, reason string) (*models.Order, error)
	ExpirePending(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	DB         txRunner
	Repository Repository
	Carts      cart.Repository
	Catalog    catalog.Reader
	Delivery   delivery.Service
	Stock      stock.Manager
	Outbox     outbox.Emitter
	Numbers    NumberAllocator
	Config     config.OrdersConfig
	Metrics    *metrics.OrderMetrics
	Logger     *logger.Logger
	Clock      func() time.Time
}

type service struct {
	tx       txRunner
	repo     Repository
	carts    cart.Repository
	catalog  catalog.Reader
	delivery delivery.Service
	stock    stock.Manager
	outbox   outbox.Emitter
	numbers  NumberAllocator
	cfg      config.OrdersConfig
	metrics  *metrics.OrderMetrics
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.DB == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Repository == nil:
		return nil, fmt.Errorf("order repository required")
	case params.Carts == nil:
		return nil, fmt.Errorf("cart repository required")
	case params.Catalog == nil:
		return nil, fmt.Errorf("catalog reader required")
	case params.Delivery == nil:
		return nil, fmt.Errorf("delivery service required")
	case params.Stock == nil:
		return nil, fmt.Errorf("stock manager required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	case params.Numbers == nil:
		return nil, fmt.Errorf("number allocator required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	if !params.Config.PriceEpsilon.IsPositive() {
		params.Config.PriceEpsilon = decimal.RequireFromString("0.005")
	}
	clock := params.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		tx:       params.DB,
		repo:     params.Repository,
		carts:    params.Carts,
		catalog:  params.Catalog,
		delivery: params.Delivery,
		stock:    params.Stock,
		outbox:   params.Outbox,
		numbers:  params.Numbers,
		cfg:      params.Config,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      clock,
	}, nil
}

// Get returns the order if actor may see it. Orders outside the actor's reach are
// reported as not found.
func (s *service) Get(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID, false)
	if err != nil {
		return nil, err
	}
	if !canView(actor, order) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) GetByNumber(ctx context.Context, number string, actor Actor) (*models.Order, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if number == "" {
		return nil, invalid("order number is required")
	}
	order, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if !canView(actor, order) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func invalid(msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, msg).
		WithDetails(map[string]any{"errors": []string{msg}})
}
