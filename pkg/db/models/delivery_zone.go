package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryZone is postal-code keyed reference data for delivery pricing.
type DeliveryZone struct {
	PostalCode              string          `gorm:"column:postal_code;primaryKey"`
	ZoneNumber              int             `gorm:"column:zone_number;not null"`
	ZoneName                string          `gorm:"column:zone_name;not null"`
	BaseFee                 decimal.Decimal `gorm:"column:base_fee;type:numeric(12,2);not null"`
	PerExtraPartnerFee      decimal.Decimal `gorm:"column:per_extra_partner_fee;type:numeric(12,2);not null"`
	PeakSurcharge           decimal.Decimal `gorm:"column:peak_surcharge;type:numeric(12,2);not null"`
	EstimatedTransitMinutes int             `gorm:"column:estimated_transit_minutes;not null"`
	MaxDistanceKm           float64         `gorm:"column:max_distance_km;not null"`
	IsActive                bool            `gorm:"column:is_active;not null"`
	CreatedAt               time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
