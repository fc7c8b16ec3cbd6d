package types

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PartnerCart groups the cart lines belonging to one partner.
type PartnerCart struct {
	PartnerID   uuid.UUID       `json:"partner_id"`
	PartnerName string          `json:"partner_name"`
	Items       []CartLineItem  `json:"items"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// CartLineItem captures the unit price at add time; later quantity changes reuse it.
type CartLineItem struct {
	ID        uuid.UUID       `json:"id"`
	ItemID    uuid.UUID       `json:"item_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	Notes     *string         `json:"notes,omitempty"`
}

// PartnerCarts is the ordered partner group list persisted as JSONB.
type PartnerCarts []PartnerCart

// Value serializes the groups to JSON.
func (p PartnerCarts) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return jsonValue(p)
}

// Scan decodes JSONB into the group list.
func (p *PartnerCarts) Scan(value interface{}) error {
	if value == nil {
		*p = nil
		return nil
	}
	var decoded PartnerCarts
	if err := scanJSON(value, &decoded); err != nil {
		return err
	}
	*p = decoded
	return nil
}

// DeliveryQuote is the priced delivery leg for the cart's partner count at quote time.
type DeliveryQuote struct {
	PostalCode           string          `json:"postal_code"`
	ZoneNumber           int             `json:"zone_number"`
	ZoneName             string          `json:"zone_name"`
	BaseFee              decimal.Decimal `json:"base_fee"`
	AdditionalPartnerFee decimal.Decimal `json:"additional_partner_fee"`
	PeakSurcharge        decimal.Decimal `json:"peak_surcharge"`
	TotalFee             decimal.Decimal `json:"total_fee"`
	PartnerCount         int             `json:"partner_count"`
	IsPeak               bool            `json:"is_peak"`
	QuotedAt             time.Time       `json:"quoted_at"`
}

// Value serializes the quote to JSON.
func (q DeliveryQuote) Value() (driver.Value, error) {
	return jsonValue(q)
}

// Scan decodes JSONB into the quote.
func (q *DeliveryQuote) Scan(value interface{}) error {
	if value == nil {
		*q = DeliveryQuote{}
		return nil
	}
	return scanJSON(value, q)
}
