package orders

import (
	"fmt"

	"github.com/angelmondragon/quickbite-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/quickbite-backend/pkg/errors"
)

// CanTransition reports whether a sub-order may move from -> to. The second return is
// true for the idempotent cancelled -> cancelled case, which callers treat as a no-op.
func CanTransition(from, to enums.OrderStatus) (noop bool, err error) {
	if !to.IsValid() {
		return false, illegal(from, to, "unknown target status")
	}
	if from == enums.OrderStatusCancelled && to == enums.OrderStatusCancelled {
		return true, nil
	}
	if from.IsTerminal() {
		return false, illegal(from, to, fmt.Sprintf("sub-order is already %s", from))
	}
	if to == enums.OrderStatusCancelled {
		return false, nil
	}
	if next, ok := from.Next(); ok && next == to {
		return false, nil
	}
	return false, illegal(from, to, fmt.Sprintf("cannot move from %s to %s", from, to))
}

func illegal(from, to enums.OrderStatus, msg string) error {
	return pkgerrors.New(pkgerrors.CodeIllegalTransition, msg).
		WithDetails(map[string]any{"from": from, "to": to})
}

// DeriveOverallStatus computes the order status from its sub-order statuses:
// every sub-order cancelled gives cancelled; every non-cancelled sub-order delivered gives
// delivered; otherwise the least-advanced active sub-order wins, falling back to pending.
func DeriveOverallStatus(statuses []enums.OrderStatus) enums.OrderStatus {
	var live []enums.OrderStatus
	for _, s := range statuses {
		if s != enums.OrderStatusCancelled {
			live = append(live, s)
		}
	}
	if len(live) == 0 {
		return enums.OrderStatusCancelled
	}

	allDelivered := true
	least := enums.OrderStatus("")
	for _, s := range live {
		if s != enums.OrderStatusDelivered {
			allDelivered = false
		}
		if s.IsActive() && (least == "" || s.Rank() < least.Rank()) {
			least = s
		}
	}
	if allDelivered {
		return enums.OrderStatusDelivered
	}
	if least != "" {
		return least
	}
	return enums.OrderStatusPending
}
