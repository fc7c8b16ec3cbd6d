package types

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestPartnerCartsScanRoundTrip(t *testing.T) {
	groups := PartnerCarts{{
		PartnerID: uuid.New(),
		Items:     []CartLineItem{{ID: uuid.New(), Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")}},
		Subtotal:  decimal.RequireFromString("20.00"),
	}}
	raw, err := groups.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	var decoded PartnerCarts
	if err := decoded.Scan([]byte(raw.(string))); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Items[0].Quantity != 2 || !decoded[0].Subtotal.Equal(groups[0].Subtotal) {
		t.Fatalf("unexpected decode %+v", decoded)
	}

	var nilGroups PartnerCarts
	if v, _ := nilGroups.Value(); v != "[]" {
		t.Fatalf("nil groups should persist as empty array, got %v", v)
	}
	if err := decoded.Scan(42); err == nil {
		t.Fatalf("expected unsupported scan type error")
	}
}

func TestNullableStringDistinguishesAbsentAndNull(t *testing.T) {
	var body struct {
		Notes NullableString `json:"notes"`
	}
	keep := "keep"

	if err := json.Unmarshal([]byte(`{}`), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := body.Notes.Ptr(&keep); got == nil || *got != "keep" {
		t.Fatalf("absent key should fall back")
	}

	if err := json.Unmarshal([]byte(`{"notes":null}`), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Notes.Ptr(&keep) != nil {
		t.Fatalf("null should clear")
	}

	if err := json.Unmarshal([]byte(`{"notes":"no onions"}`), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := body.Notes.Ptr(&keep); got == nil || *got != "no onions" {
		t.Fatalf("expected new value")
	}
}
