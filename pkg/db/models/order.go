package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/quickbite-backend/pkg/enums"
	"github.com/angelmondragon/quickbite-backend/pkg/types"
)

// Order is the system of record for a placed purchase spanning one or more partners.
type Order struct {
	ID                       uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber              string                `gorm:"column:order_number;not null;uniqueIndex:ux_orders_order_number"`
	CustomerID               uuid.UUID             `gorm:"column:customer_id;type:uuid;not null;index"`
	CustomerName             string                `gorm:"column:customer_name;not null"`
	CustomerPhone            *string               `gorm:"column:customer_phone"`
	DeliveryAddress          types.DeliveryAddress `gorm:"column:delivery_address;type:jsonb;not null"`
	DeliveryLat              float64               `gorm:"column:delivery_lat;not null"`
	DeliveryLng              float64               `gorm:"column:delivery_lng;not null"`
	PaymentMethod            enums.PaymentMethod   `gorm:"column:payment_method;type:text;not null"`
	PaymentStatus            enums.PaymentStatus   `gorm:"column:payment_status;type:text;not null"`
	Notes                    *string               `gorm:"column:notes"`
	ItemsSnapshot            types.ItemSnapshots   `gorm:"column:items_snapshot;type:jsonb;not null"`
	Subtotal                 decimal.Decimal       `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DeliveryFee              decimal.Decimal       `gorm:"column:delivery_fee;type:numeric(12,2);not null"`
	ServiceFee               decimal.Decimal       `gorm:"column:service_fee;type:numeric(12,2);not null"`
	DiscountAmount           decimal.Decimal       `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	TaxAmount                decimal.Decimal       `gorm:"column:tax_amount;type:numeric(12,2);not null"`
	PlatformCommission       decimal.Decimal       `gorm:"column:platform_commission;type:numeric(12,2);not null"`
	CourierEarnings          decimal.Decimal       `gorm:"column:courier_earnings;type:numeric(12,2);not null"`
	TotalPrice               decimal.Decimal       `gorm:"column:total_price;type:numeric(12,2);not null"`
	DeliveryZone             int                   `gorm:"column:delivery_zone;not null"`
	DeliveryPostalCode       string                `gorm:"column:delivery_postal_code;not null"`
	DeliveryDistanceKm       float64               `gorm:"column:delivery_distance_km;not null"`
	EstimatedTransitMinutes  int                   `gorm:"column:estimated_transit_minutes;not null;default:0"`
	EstimatedDeliveryMinutes int                   `gorm:"column:estimated_delivery_minutes;not null"`
	EstimatedDeliveryAt      time.Time             `gorm:"column:estimated_delivery_at;not null"`
	OverallStatus            enums.OrderStatus     `gorm:"column:overall_status;type:text;not null;index"`
	Cancellation             *types.Cancellation   `gorm:"column:cancellation;type:jsonb"`
	SubOrders                []PartnerSubOrder     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	History                  []OrderStatusEntry    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt                time.Time             `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt                time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// SubOrderFor returns the sub-order belonging to partnerID.
func (o *Order) SubOrderFor(partnerID uuid.UUID) (*PartnerSubOrder, bool) {
	for i := range o.SubOrders {
		if o.SubOrders[i].PartnerID == partnerID {
			return &o.SubOrders[i], true
		}
	}
	return nil, false
}

// PartnerSubOrder is the slice of an order fulfilled by one partner.
type PartnerSubOrder struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID         uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	PartnerID       uuid.UUID         `gorm:"column:partner_id;type:uuid;not null;index"`
	PartnerName     string            `gorm:"column:partner_name;not null"`
	Position        int               `gorm:"column:position;not null"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null"`
	Subtotal        decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	PrepTimeMinutes int               `gorm:"column:prep_time_minutes;not null"`
	CourierID       *uuid.UUID        `gorm:"column:courier_id;type:uuid"`
	Items           []OrderLineItem   `gorm:"foreignKey:SubOrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *PartnerSubOrder) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// OrderLineItem is an immutable copy of a validated cart line.
type OrderLineItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SubOrderID   uuid.UUID       `gorm:"column:sub_order_id;type:uuid;not null;index"`
	OrderID      uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ItemID       uuid.UUID       `gorm:"column:item_id;type:uuid;not null"`
	Name         string          `gorm:"column:name;not null"`
	Position     int             `gorm:"column:position;not null"`
	Quantity     int             `gorm:"column:quantity;not null"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	LineTotal    decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	Notes        *string         `gorm:"column:notes"`
	StockTracked bool            `gorm:"column:stock_tracked;not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (l *OrderLineItem) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// OrderStatusEntry is one append-only row of an order's status history. PartnerID is nil
// for order-level entries such as discounts or refunds.
type OrderStatusEntry struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID          `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_order_status_history_seq,priority:1"`
	Seq        int                `gorm:"column:seq;not null;uniqueIndex:ux_order_status_history_seq,priority:2"`
	PartnerID  *uuid.UUID         `gorm:"column:partner_id;type:uuid"`
	FromStatus *enums.OrderStatus `gorm:"column:from_status;type:text"`
	Status     enums.OrderStatus  `gorm:"column:status;type:text;not null"`
	ActorID    uuid.UUID          `gorm:"column:actor_id;type:uuid;not null"`
	ActorRole  enums.ActorRole    `gorm:"column:actor_role;type:text;not null"`
	Note       *string            `gorm:"column:note"`
	CreatedAt  time.Time          `gorm:"column:created_at;not null"`
}

func (OrderStatusEntry) TableName() string { return "order_status_history" }

func (e *OrderStatusEntry) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
