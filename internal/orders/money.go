package orders

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/quickbite-backend/pkg/config"
)

// Totals are the money fields stamped on an order.
type Totals struct {
	Subtotal           decimal.Decimal
	DeliveryFee        decimal.Decimal
	ServiceFee         decimal.Decimal
	DiscountAmount     decimal.Decimal
	TaxAmount          decimal.Decimal
	PlatformCommission decimal.Decimal
	CourierEarnings    decimal.Decimal
	TotalPrice         decimal.Decimal
}

// ComputeTotals applies the configured rates. Each derived amount is rounded half away
// from zero to cents before summing.
func ComputeTotals(subtotal, deliveryFee, discount decimal.Decimal, cfg config.OrdersConfig) Totals {
	t := Totals{
		Subtotal:           subtotal.Round(2),
		DeliveryFee:        deliveryFee.Round(2),
		ServiceFee:         cfg.ServiceFee.Round(2),
		DiscountAmount:     discount.Round(2),
		TaxAmount:          subtotal.Mul(cfg.TaxRate).Round(2),
		PlatformCommission: subtotal.Mul(cfg.CommissionRate).Round(2),
		CourierEarnings:    deliveryFee.Mul(cfg.CourierShare).Round(2),
	}
	t.TotalPrice = t.Subtotal.Add(t.DeliveryFee).Add(t.ServiceFee).Add(t.TaxAmount).Sub(t.DiscountAmount)
	return t
}

// DiscountCeiling is the largest discount that keeps the total covering delivery.
func (t Totals) DiscountCeiling() decimal.Decimal {
	return t.Subtotal.Add(t.ServiceFee).Add(t.TaxAmount)
}
