package types

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/quickbite-backend/pkg/enums"
)

// DeliveryAddress is the drop-off location captured at order time.
type DeliveryAddress struct {
	Line1        string  `json:"line1"`
	Line2        *string `json:"line2,omitempty"`
	City         string  `json:"city"`
	PostalCode   string  `json:"postal_code"`
	Instructions *string `json:"instructions,omitempty"`
}

func (a DeliveryAddress) Value() (driver.Value, error) {
	return jsonValue(a)
}

func (a *DeliveryAddress) Scan(value interface{}) error {
	if value == nil {
		*a = DeliveryAddress{}
		return nil
	}
	return scanJSON(value, a)
}

// ItemSnapshot records an item's catalog state at order time.
type ItemSnapshot struct {
	ItemID        uuid.UUID       `json:"item_id"`
	PartnerID     uuid.UUID       `json:"partner_id"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	IsAvailable   bool            `json:"is_available"`
	StockQuantity *int            `json:"stock_quantity,omitempty"`
}

type ItemSnapshots []ItemSnapshot

func (s ItemSnapshots) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return jsonValue(s)
}

func (s *ItemSnapshots) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	var decoded ItemSnapshots
	if err := scanJSON(value, &decoded); err != nil {
		return err
	}
	*s = decoded
	return nil
}

// Cancellation is recorded once, when the whole order is first cancelled.
type Cancellation struct {
	Reason      string          `json:"reason"`
	ActorID     uuid.UUID       `json:"actor_id"`
	ActorRole   enums.ActorRole `json:"actor_role"`
	Detail      *string         `json:"detail,omitempty"`
	CancelledAt time.Time       `json:"cancelled_at"`
}

func (c Cancellation) Value() (driver.Value, error) {
	return jsonValue(c)
}

func (c *Cancellation) Scan(value interface{}) error {
	if value == nil {
		*c = Cancellation{}
		return nil
	}
	return scanJSON(value, c)
}
