package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Partner is a restaurant or shop fulfilling sub-orders. Catalog management owns the rows;
// the order core only reads them.
type Partner struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name            string          `gorm:"column:name;not null"`
	IsActive        bool            `gorm:"column:is_active;not null"`
	MinimumOrder    decimal.Decimal `gorm:"column:minimum_order;type:numeric(12,2);not null"`
	PrepTimeMinutes int             `gorm:"column:prep_time_minutes;not null"`
	Latitude        float64         `gorm:"column:latitude;not null"`
	Longitude       float64         `gorm:"column:longitude;not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Partner) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
