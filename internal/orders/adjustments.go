package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/quickbite-backend/pkg/db/models"
	"github.com/angelmondragon/quickbite-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/quickbite-backend/pkg/errors"
	"github.com/angelmondragon/quickbite-backend/pkg/outbox"
	"github.com/angelmondragon/quickbite-backend/pkg/outbox/payloads"
)

func requireAdmin(actor Actor) error {
	if actor.Role != enums.ActorRoleAdmin {
		return forbidden("admin role required")
	}
	return nil
}

// ApplyDiscount replaces the order discount and recomputes the total. Discounts are only
// accepted before preparation starts and may not eat into the delivery fee.
func (s *service) ApplyDiscount(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, actor Actor) (*models.Order, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, invalid("discount must not be negative")
	}
	amount = amount.Round(2)

	return s.adjust(ctx, orderID, actor, func(order *models.Order) (map[string]any, *adjustment, error) {
		if order.OverallStatus != enums.OrderStatusPending && order.OverallStatus != enums.OrderStatusAccepted {
			return nil, nil, pkgerrors.New(pkgerrors.CodeIllegalTransition, "discounts can only be applied before preparation starts").
				WithDetails(map[string]any{"overall_status": order.OverallStatus})
		}
		totals := Totals{
			Subtotal:    order.Subtotal,
			DeliveryFee: order.DeliveryFee,
			ServiceFee:  order.ServiceFee,
			TaxAmount:   order.TaxAmount,
		}
		if ceiling := totals.DiscountCeiling(); amount.GreaterThan(ceiling) {
			return nil, nil, invalid(fmt.Sprintf("discount may not exceed %s", ceiling.StringFixed(2)))
		}
		total := order.Subtotal.Add(order.DeliveryFee).Add(order.ServiceFee).Add(order.TaxAmount).Sub(amount)
		order.DiscountAmount = amount
		order.TotalPrice = total
		return map[string]any{"discount_amount": amount, "total_price": total},
			&adjustment{event: enums.EventOrderDiscounted, note: "discount applied: " + amount.StringFixed(2)}, nil
	})
}

// MarkPaid records settlement. Marking an already paid order is a no-op.
func (s *service) MarkPaid(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.adjust(ctx, orderID, actor, func(order *models.Order) (map[string]any, *adjustment, error) {
		switch order.PaymentStatus {
		case enums.PaymentStatusPaid:
			return nil, nil, nil
		case enums.PaymentStatusRefunded:
			return nil, nil, pkgerrors.New(pkgerrors.CodeIllegalTransition, "order has already been refunded")
		}
		order.PaymentStatus = enums.PaymentStatusPaid
		return map[string]any{"payment_status": enums.PaymentStatusPaid},
			&adjustment{event: enums.EventOrderPaid, note: "payment received"}, nil
	})
}

// Refund is allowed once a paid order has been cancelled. Refunding twice is a no-op.
func (s *service) Refund(ctx context.Context, orderID uuid.UUID, actor Actor, reason string) (*models.Order, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalid("refund reason is required")
	}
	return s.adjust(ctx, orderID, actor, func(order *models.Order) (map[string]any, *adjustment, error) {
		if order.PaymentStatus == enums.PaymentStatusRefunded {
			return nil, nil, nil
		}
		if order.PaymentStatus != enums.PaymentStatusPaid {
			return nil, nil, pkgerrors.New(pkgerrors.CodeIllegalTransition, "only paid orders can be refunded")
		}
		if order.OverallStatus != enums.OrderStatusCancelled {
			return nil, nil, pkgerrors.New(pkgerrors.CodeIllegalTransition, "only cancelled orders can be refunded")
		}
		order.PaymentStatus = enums.PaymentStatusRefunded
		return map[string]any{"payment_status": enums.PaymentStatusRefunded},
			&adjustment{event: enums.EventOrderRefunded, note: "refund: " + reason}, nil
	})
}

type adjustment struct {
	event enums.OutboxEventType
	note  string
}

// adjust loads the order under lock and applies an order-level change. A nil adjustment
// means nothing changed.
func (s *service) adjust(ctx context.Context, orderID uuid.UUID, actor Actor, apply func(order *models.Order) (map[string]any, *adjustment, error)) (*models.Order, error) {
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindByID(ctx, orderID, true)
		if err != nil {
			return err
		}
		order = loaded
		fields, change, err := apply(order)
		if err != nil || change == nil {
			return err
		}
		if err := repo.UpdateOrder(ctx, order.ID, fields); err != nil {
			return err
		}

		now := s.now()
		note := change.note
		entry := &models.OrderStatusEntry{
			OrderID:   order.ID,
			Status:    order.OverallStatus,
			ActorID:   actor.ID,
			ActorRole: actor.Role,
			Note:      &note,
			CreatedAt: now,
		}
		if err := repo.AppendHistory(ctx, entry); err != nil {
			return err
		}
		order.History = append(order.History, *entry)

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     change.event,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor.ref(),
			OccurredAt:    now,
			Data: payloads.OrderMoneyEvent{
				OrderID:       order.ID,
				OrderNumber:   order.OrderNumber,
				Discount:      order.DiscountAmount,
				Total:         order.TotalPrice,
				PaymentStatus: order.PaymentStatus,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
