package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/quickbite-backend/pkg/enums"
)

// OrderCreatedEvent announces a new multi-partner order.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	PartnerIDs  []uuid.UUID     `json:"partner_ids"`
	Total       decimal.Decimal `json:"total"`
	CreatedAt   time.Time       `json:"created_at"`
}

// SubOrderStatusChangedEvent is emitted for every partner sub-order transition.
type SubOrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	PartnerID   uuid.UUID         `json:"partner_id"`
	OldStatus   enums.OrderStatus `json:"old_status"`
	NewStatus   enums.OrderStatus `json:"new_status"`
	ActorRole   enums.ActorRole   `json:"actor_role"`
	ChangedAt   time.Time         `json:"changed_at"`
}

// OrderStatusChangedEvent is emitted when the derived overall status moves.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	OldStatus   enums.OrderStatus `json:"old_status"`
	NewStatus   enums.OrderStatus `json:"new_status"`
	ChangedAt   time.Time         `json:"changed_at"`
}

// OrderCancelledEvent covers customer, partner, admin, and sweeper cancellations.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Reason      string          `json:"reason"`
	ActorRole   enums.ActorRole `json:"actor_role"`
	CancelledAt time.Time       `json:"cancelled_at"`
}

type OrderMoneyEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	OrderNumber   string              `json:"order_number"`
	Discount      decimal.Decimal     `json:"discount"`
	Total         decimal.Decimal     `json:"total"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
}
