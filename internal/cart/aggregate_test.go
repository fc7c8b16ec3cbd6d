package cart

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/quickbite-backend/internal/catalog"
	"github.com/angelmondragon/quickbite-backend/internal/delivery"
	pkgerrors "github.com/angelmondragon/quickbite-backend/pkg/errors"
	"github.com/angelmondragon/quickbite-backend/pkg/types"
)

func snapshot(partnerID uuid.UUID, partnerName, price string) catalog.ItemSnapshot {
	return catalog.ItemSnapshot{
		ItemID:        uuid.New(),
		PartnerID:     partnerID,
		PartnerName:   partnerName,
		Name:          "item " + price,
		Price:         decimal.RequireFromString(price),
		IsAvailable:   true,
		PartnerActive: true,
	}
}

func zoneQuote(partnerCount int) delivery.Quote {
	zone := delivery.Zone{
		PostalCode:         "28013",
		Number:             1,
		BaseFee:            decimal.RequireFromString("2.99"),
		PerExtraPartnerFee: decimal.RequireFromString("1.50"),
		PeakSurcharge:      decimal.RequireFromString("1.00"),
	}
	return delivery.Quote{Zone: zone, Fee: delivery.Calculate(partnerCount, zone, false), QuotedAt: time.Now().UTC()}
}

func TestTwoPartnerCartTotals(t *testing.T) {
	agg := NewAggregate("s-1")
	a, b := uuid.New(), uuid.New()
	if _, err := agg.Add(snapshot(a, "A", "10.00"), 2, nil); err != nil {
		t.Fatalf("add A: %v", err)
	}
	if _, err := agg.Add(snapshot(b, "B", "15.00"), 1, nil); err != nil {
		t.Fatalf("add B: %v", err)
	}
	agg.ApplyQuote("28013", zoneQuote(agg.PartnerCount()))

	s := agg.Session()
	if got := s.ItemsTotal.StringFixed(2); got != "35.00" {
		t.Fatalf("items total %s", got)
	}
	if got := s.DeliveryFee.StringFixed(2); got != "4.49" {
		t.Fatalf("delivery fee %s", got)
	}
	if got := s.GrandTotal.StringFixed(2); got != "39.49" {
		t.Fatalf("grand total %s", got)
	}
}

func TestUpdateLineKeepsStoredUnitPrice(t *testing.T) {
	agg := NewAggregate("s-2")
	item := snapshot(uuid.New(), "A", "10.00")
	line, err := agg.Add(item, 2, nil)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	updated, err := agg.UpdateLine(line.ID, 5, types.NullableString{})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := updated.LineTotal.StringFixed(2); got != "50.00" {
		t.Fatalf("expected 50.00, got %s", got)
	}
	if _, err := agg.UpdateLine(line.ID, 0, types.NullableString{}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for qty 0, got %v", err)
	}
	if _, err := agg.UpdateLine(uuid.New(), 1, types.NullableString{}); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateLineNotesFollowPresence(t *testing.T) {
	agg := NewAggregate("s-notes")
	note := "no onions"
	line, err := agg.Add(snapshot(uuid.New(), "A", "4.00"), 1, &note)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	kept, err := agg.UpdateLine(line.ID, 2, types.NullableString{})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if kept.Notes == nil || *kept.Notes != note {
		t.Fatalf("absent notes should keep %q, got %v", note, kept.Notes)
	}

	cleared, err := agg.UpdateLine(line.ID, 2, types.NullableString{Valid: true})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if cleared.Notes != nil {
		t.Fatalf("null notes should clear, got %q", *cleared.Notes)
	}
}

func TestAddSameItemMergesAndReplacesNotes(t *testing.T) {
	agg := NewAggregate("s-3")
	item := snapshot(uuid.New(), "A", "4.25")
	first := "no onions"
	second := "extra spicy"
	line, _ := agg.Add(item, 1, &first)
	merged, err := agg.Add(item, 2, &second)
	if err != nil {
		t.Fatalf("add again: %v", err)
	}
	if merged.ID != line.ID || merged.Quantity != 3 {
		t.Fatalf("expected merge into one line with qty 3, got %+v", merged)
	}
	if merged.Notes == nil || *merged.Notes != second {
		t.Fatalf("notes should be replaced")
	}
	if got := merged.LineTotal.StringFixed(2); got != "12.75" {
		t.Fatalf("line total %s", got)
	}
}

func TestRemoveLastLineDropsGroupAndStaleQuote(t *testing.T) {
	agg := NewAggregate("s-4")
	a, b := uuid.New(), uuid.New()
	agg.Add(snapshot(a, "A", "10.00"), 1, nil)
	lineB, _ := agg.Add(snapshot(b, "B", "8.00"), 1, nil)
	agg.ApplyQuote("28013", zoneQuote(2))

	if err := agg.RemoveLine(lineB.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	s := agg.Session()
	if len(s.PartnerCarts) != 1 {
		t.Fatalf("expected empty group removed, have %d groups", len(s.PartnerCarts))
	}
	if s.DeliveryQuote != nil || !s.DeliveryFee.IsZero() {
		t.Fatalf("quote priced for two partners must be invalidated")
	}
	if !s.GrandTotal.Equal(s.ItemsTotal) {
		t.Fatalf("grand total must equal items total without a quote")
	}
	if err := agg.RemoveLine(lineB.ID); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found on second removal, got %v", err)
	}
}

func TestTotalsInvariantAcrossCommands(t *testing.T) {
	agg := NewAggregate("s-5")
	partners := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	var lines []uuid.UUID
	for i, p := range partners {
		l, _ := agg.Add(snapshot(p, "P", "3.33"), i+1, nil)
		lines = append(lines, l.ID)
		agg.ApplyQuote("28013", zoneQuote(agg.PartnerCount()))
	}
	agg.UpdateLine(lines[0], 7, types.NullableString{})
	agg.RemoveLine(lines[1])

	s := agg.Session()
	sum := decimal.Zero
	for _, g := range s.PartnerCarts {
		if len(g.Items) == 0 {
			t.Fatalf("empty partner group left behind")
		}
		sub := decimal.Zero
		for _, l := range g.Items {
			sub = sub.Add(l.LineTotal)
		}
		if !sub.Equal(g.Subtotal) {
			t.Fatalf("subtotal mismatch")
		}
		sum = sum.Add(sub)
	}
	if !sum.Equal(s.ItemsTotal) || !s.GrandTotal.Equal(s.ItemsTotal.Add(s.DeliveryFee)) {
		t.Fatalf("totals invariant broken: %s %s %s", s.ItemsTotal, s.DeliveryFee, s.GrandTotal)
	}
}
