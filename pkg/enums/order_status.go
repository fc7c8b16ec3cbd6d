package enums

import "fmt"

// OrderStatus is the lifecycle state of a partner sub-order. The overall order status is
// derived from the sub-order statuses and uses the same values.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusPickedUp  OrderStatus = "picked_up"
	OrderStatusOnTheWay  OrderStatus = "on_the_way"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// fulfillmentSequence lists the forward path; position is the status rank.
var fulfillmentSequence = []OrderStatus{
	OrderStatusPending,
	OrderStatusAccepted,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusPickedUp,
	OrderStatusOnTheWay,
	OrderStatusDelivered,
}

var validOrderStatuses = append(append([]OrderStatus{}, fulfillmentSequence...), OrderStatusCancelled)

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Rank returns the position along the fulfillment path, or -1 for cancelled and unknown values.
func (s OrderStatus) Rank() int {
	for i, candidate := range fulfillmentSequence {
		if candidate == s {
			return i
		}
	}
	return -1
}

// Next returns the single forward successor, if any.
func (s OrderStatus) Next() (OrderStatus, bool) {
	rank := s.Rank()
	if rank < 0 || rank+1 >= len(fulfillmentSequence) {
		return "", false
	}
	return fulfillmentSequence[rank+1], true
}

// IsTerminal reports whether no further transitions can leave the status.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// IsActive reports whether the status is between accepted and on_the_way inclusive.
func (s OrderStatus) IsActive() bool {
	rank := s.Rank()
	return rank >= OrderStatusAccepted.Rank() && rank <= OrderStatusOnTheWay.Rank()
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
