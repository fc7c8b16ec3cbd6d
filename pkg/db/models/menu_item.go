package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MenuItem is a purchasable catalog entry. StockQuantity is nil for untracked (prepared) items.
type MenuItem struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	PartnerID     uuid.UUID        `gorm:"column:partner_id;type:uuid;not null;index"`
	Name          string           `gorm:"column:name;not null"`
	Price         decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	DiscountPrice *decimal.Decimal `gorm:"column:discount_price;type:numeric(12,2)"`
	IsAvailable   bool             `gorm:"column:is_available;not null"`
	StockQuantity *int             `gorm:"column:stock_quantity"`
	Partner       *Partner         `gorm:"foreignKey:PartnerID"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *MenuItem) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
