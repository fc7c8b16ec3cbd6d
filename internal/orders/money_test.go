package orders

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/quickbite-backend/pkg/config"
)

func TestComputeTotals(t *testing.T) {
	cfg := config.OrdersConfig{
		ServiceFee:     decimal.RequireFromString("0.99"),
		TaxRate:        decimal.RequireFromString("0.08"),
		CommissionRate: decimal.RequireFromString("0.15"),
		CourierShare:   decimal.RequireFromString("0.80"),
	}
	totals := ComputeTotals(decimal.RequireFromString("35.00"), decimal.RequireFromString("4.49"), decimal.Zero, cfg)

	want := map[string]decimal.Decimal{
		"tax":        totals.TaxAmount,
		"commission": totals.PlatformCommission,
		"courier":    totals.CourierEarnings,
		"total":      totals.TotalPrice,
		"ceiling":    totals.DiscountCeiling(),
	}
	expected := map[string]string{
		"tax":        "2.80",
		"commission": "5.25",
		"courier":    "3.59",
		"total":      "43.28",
		"ceiling":    "38.79",
	}
	for name, value := range want {
		if value.StringFixed(2) != expected[name] {
			t.Fatalf("%s: expected %s, got %s", name, expected[name], value.StringFixed(2))
		}
	}

	discounted := ComputeTotals(decimal.RequireFromString("35.00"), decimal.RequireFromString("4.49"), decimal.RequireFromString("5"), cfg)
	if discounted.TotalPrice.StringFixed(2) != "38.28" {
		t.Fatalf("expected discounted total 38.28, got %s", discounted.TotalPrice.StringFixed(2))
	}
}

func TestComputeTotalsRoundsHalfAwayFromZero(t *testing.T) {
	cfg := config.OrdersConfig{TaxRate: decimal.RequireFromString("0.1")}
	totals := ComputeTotals(decimal.RequireFromString("0.25"), decimal.Zero, decimal.Zero, cfg)
	if totals.TaxAmount.StringFixed(2) != "0.03" {
		t.Fatalf("expected 0.025 to round to 0.03, got %s", totals.TaxAmount)
	}
}
