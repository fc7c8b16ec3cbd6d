package orders

import (
	"testing"

	"github.com/angelmondragon/quickbite-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/quickbite-backend/pkg/errors"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to enums.OrderStatus
		ok       bool
		noop     bool
	}{
		{enums.OrderStatusPending, enums.OrderStatusAccepted, true, false},
		{enums.OrderStatusAccepted, enums.OrderStatusPreparing, true, false},
		{enums.OrderStatusOnTheWay, enums.OrderStatusDelivered, true, false},
		{enums.OrderStatusPending, enums.OrderStatusPreparing, false, false},
		{enums.OrderStatusPreparing, enums.OrderStatusAccepted, false, false},
		{enums.OrderStatusDelivered, enums.OrderStatusPreparing, false, false},
		{enums.OrderStatusDelivered, enums.OrderStatusDelivered, false, false},
		{enums.OrderStatusDelivered, enums.OrderStatusCancelled, false, false},
		{enums.OrderStatusReady, enums.OrderStatusCancelled, true, false},
		{enums.OrderStatusCancelled, enums.OrderStatusCancelled, true, true},
		{enums.OrderStatusCancelled, enums.OrderStatusAccepted, false, false},
		{enums.OrderStatusPending, enums.OrderStatus("shipped"), false, false},
	}
	for _, tt := range tests {
		noop, err := CanTransition(tt.from, tt.to)
		if tt.ok && err != nil {
			t.Fatalf("%s -> %s: unexpected error %v", tt.from, tt.to, err)
		}
		if !tt.ok && !pkgerrors.IsCode(err, pkgerrors.CodeIllegalTransition) {
			t.Fatalf("%s -> %s: expected illegal transition, got %v", tt.from, tt.to, err)
		}
		if noop != tt.noop {
			t.Fatalf("%s -> %s: expected noop=%v", tt.from, tt.to, tt.noop)
		}
	}
}

func TestDeriveOverallStatus(t *testing.T) {
	s := func(values ...enums.OrderStatus) []enums.OrderStatus { return values }
	tests := []struct {
		name     string
		statuses []enums.OrderStatus
		want     enums.OrderStatus
	}{
		{"all pending", s(enums.OrderStatusPending, enums.OrderStatusPending), enums.OrderStatusPending},
		{"all delivered", s(enums.OrderStatusDelivered, enums.OrderStatusDelivered), enums.OrderStatusDelivered},
		{"all cancelled", s(enums.OrderStatusCancelled, enums.OrderStatusCancelled), enums.OrderStatusCancelled},
		{"no sub-orders", nil, enums.OrderStatusCancelled},
		{"delivered and preparing", s(enums.OrderStatusDelivered, enums.OrderStatusPreparing), enums.OrderStatusPreparing},
		{"least advanced active wins", s(enums.OrderStatusOnTheWay, enums.OrderStatusAccepted, enums.OrderStatusReady), enums.OrderStatusAccepted},
		{"pending and accepted", s(enums.OrderStatusPending, enums.OrderStatusAccepted), enums.OrderStatusAccepted},
		{"delivered and cancelled", s(enums.OrderStatusDelivered, enums.OrderStatusCancelled), enums.OrderStatusDelivered},
		{"pending and cancelled", s(enums.OrderStatusPending, enums.OrderStatusCancelled), enums.OrderStatusPending},
		{"pending and delivered", s(enums.OrderStatusPending, enums.OrderStatusDelivered), enums.OrderStatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveOverallStatus(tt.statuses); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
