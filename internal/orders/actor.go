package orders

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/quickbite-backend/pkg/db/models"
	"github.com/angelmondragon/quickbite-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/quickbite-backend/pkg/errors"
)

// Actor is the principal performing an order operation.
type Actor struct {
	ID        uuid.UUID
	Role      enums.ActorRole
	PartnerID *uuid.UUID
}

// SystemActor is used by the sweeper.
var SystemActor = Actor{Role: enums.ActorRoleSystem}

func forbidden(msg string) error {
	return pkgerrors.New(pkgerrors.CodeForbidden, msg)
}

// authorizeTransition applies the role and ownership rules for moving sub to target.
func authorizeTransition(actor Actor, order *models.Order, sub *models.PartnerSubOrder, target enums.OrderStatus) error {
	switch actor.Role {
	case enums.ActorRoleAdmin, enums.ActorRoleSystem:
		return nil
	case enums.ActorRolePartner:
		if actor.PartnerID == nil || *actor.PartnerID != sub.PartnerID {
			return forbidden("partners may only update their own sub-order")
		}
		switch target {
		case enums.OrderStatusAccepted, enums.OrderStatusPreparing, enums.OrderStatusReady, enums.OrderStatusCancelled:
			return nil
		}
		return forbidden("partners cannot set status " + string(target))
	case enums.ActorRoleCourier:
		switch target {
		case enums.OrderStatusPickedUp, enums.OrderStatusOnTheWay, enums.OrderStatusDelivered:
		default:
			return forbidden("couriers cannot set status " + string(target))
		}
		if sub.CourierID != nil && *sub.CourierID != actor.ID {
			return forbidden("sub-order is assigned to another courier")
		}
		if sub.CourierID == nil && target != enums.OrderStatusPickedUp {
			return forbidden("sub-order has not been picked up by this courier")
		}
		return nil
	case enums.ActorRoleCustomer:
		if order.CustomerID != actor.ID {
			return forbidden("customers may only cancel their own orders")
		}
		if target != enums.OrderStatusCancelled {
			return forbidden("customers may only cancel")
		}
		if sub.Status != enums.OrderStatusPending && sub.Status != enums.OrderStatusCancelled {
			return forbidden("order can no longer be cancelled by the customer")
		}
		return nil
	}
	return forbidden("unknown actor role")
}

// canView reports whether actor may read order.
func canView(actor Actor, order *models.Order) bool {
	switch actor.Role {
	case enums.ActorRoleAdmin, enums.ActorRoleSystem:
		return true
	case enums.ActorRoleCustomer:
		return order.CustomerID == actor.ID
	case enums.ActorRolePartner:
		if actor.PartnerID == nil {
			return false
		}
		_, ok := order.SubOrderFor(*actor.PartnerID)
		return ok
	case enums.ActorRoleCourier:
		for _, sub := range order.SubOrders {
			if sub.CourierID != nil && *sub.CourierID == actor.ID {
				return true
			}
			if sub.Status == enums.OrderStatusReady {
				return true
			}
		}
	}
	return false
}
