package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/quickbite-backend/pkg/enums"
)

// ReservationHistory is the stock audit trail. At most one reserve and one release row
// exist per (order, item).
type ReservationHistory struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderID       uuid.UUID             `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_reservation_history_order_item_kind,priority:1"`
	ItemID        uuid.UUID             `gorm:"column:item_id;type:uuid;not null;uniqueIndex:ux_reservation_history_order_item_kind,priority:2"`
	Kind          enums.ReservationKind `gorm:"column:kind;type:text;not null;uniqueIndex:ux_reservation_history_order_item_kind,priority:3"`
	QuantityDelta int                   `gorm:"column:quantity_delta;not null"`
	Reason        string                `gorm:"column:reason;not null"`
	CreatedAt     time.Time             `gorm:"column:created_at;not null;index"`
}

func (ReservationHistory) TableName() string { return "reservation_history" }

func (r *ReservationHistory) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
