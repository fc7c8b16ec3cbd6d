package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/quickbite-backend/pkg/types"
)

// CartSession is the per-session cart document. Partner groups and the delivery quote are
// stored as JSON so a mutation is a single-row read-modify-write guarded by Version.
type CartSession struct {
	SessionID     string               `gorm:"column:session_id;primaryKey"`
	PartnerCarts  types.PartnerCarts   `gorm:"column:partner_carts;type:jsonb;not null"`
	DeliveryQuote *types.DeliveryQuote `gorm:"column:delivery_quote;type:jsonb"`
	ItemsTotal    decimal.Decimal      `gorm:"column:items_total;type:numeric(12,2);not null"`
	DeliveryFee   decimal.Decimal      `gorm:"column:delivery_fee;type:numeric(12,2);not null"`
	GrandTotal    decimal.Decimal      `gorm:"column:grand_total;type:numeric(12,2);not null"`
	Version       int                  `gorm:"column:version;not null"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime;index"`
}
