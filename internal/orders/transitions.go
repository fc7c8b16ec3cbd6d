package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/quickbite-backend/pkg/db/models"
	"github.com/angelmondragon/quickbite-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/quickbite-backend/pkg/errors"
	"github.com/angelmondragon/quickbite-backend/pkg/outbox"
	"github.com/angelmondragon/quickbite-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/quickbite-backend/pkg/types"
)

type UpdateStatusInput struct {
	OrderID              uuid.UUID
	PartnerID            uuid.UUID
	Status               enums.OrderStatus
	Actor                Actor
	Note                 *string
	EstimatedPrepMinutes *int
}

type CancelInput struct {
	OrderID uuid.UUID
	Actor   Actor
	Reason  string
	Detail  *string
}

func (s *service) UpdateSubOrderStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if input.EstimatedPrepMinutes != nil && *input.EstimatedPrepMinutes < 1 {
		return nil, invalid("estimated prep time must be at least 1 minute")
	}
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		loaded, err := s.repo.WithTx(tx).FindByID(ctx, input.OrderID, true)
		if err != nil {
			return err
		}
		order = loaded
		sub, ok := order.SubOrderFor(input.PartnerID)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "sub-order not found")
		}
		if err := authorizeTransition(input.Actor, order, sub, input.Status); err != nil {
			return err
		}
		noop, err := CanTransition(sub.Status, input.Status)
		if err != nil || noop {
			return err
		}

		prepChanged := input.EstimatedPrepMinutes != nil && input.Status != enums.OrderStatusCancelled
		if prepChanged {
			sub.PrepTimeMinutes = *input.EstimatedPrepMinutes
		}

		reason := noteOr(input.Note, fmt.Sprintf("cancelled by %s", input.Actor.Role))
		if err := s.moveSubOrder(ctx, tx, order, sub, input.Status, input.Actor, input.Note, reason); err != nil {
			return err
		}
		fields := map[string]any{}
		if prepChanged || input.Status == enums.OrderStatusCancelled {
			refreshEstimate(order, fields)
		}
		var cancellation *types.Cancellation
		if input.Status == enums.OrderStatusCancelled {
			cancellation = s.cancellationFor(input.Actor, reason, nil)
		}
		return s.settleOverall(ctx, tx, order, input.Actor, fields, cancellation, false)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) CancelOrder(ctx context.Context, input CancelInput) (*models.Order, error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, invalid("cancellation reason is required")
	}
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		loaded, err := s.repo.WithTx(tx).FindByID(ctx, input.OrderID, true)
		if err != nil {
			return err
		}
		order = loaded
		return s.cancel(ctx, tx, order, input.Actor, reason, input.Detail)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// cancel moves every non-terminal sub-order to cancelled. A fully cancelled order is left as is.
func (s *service) cancel(ctx context.Context, tx *gorm.DB, order *models.Order, actor Actor, reason string, detail *string) error {
	if err := authorizeCancel(actor, order); err != nil {
		return err
	}
	if order.OverallStatus == enums.OrderStatusCancelled {
		return nil
	}
	open := make([]*models.PartnerSubOrder, 0, len(order.SubOrders))
	for i := range order.SubOrders {
		if !order.SubOrders[i].Status.IsTerminal() {
			open = append(open, &order.SubOrders[i])
		}
	}
	if len(open) == 0 {
		return illegal(order.OverallStatus, enums.OrderStatusCancelled, "order has already been delivered")
	}
	note := reason
	for _, sub := range open {
		if err := s.moveSubOrder(ctx, tx, order, sub, enums.OrderStatusCancelled, actor, &note, reason); err != nil {
			return err
		}
	}
	return s.settleOverall(ctx, tx, order, actor, map[string]any{}, s.cancellationFor(actor, reason, detail), true)
}

func authorizeCancel(actor Actor, order *models.Order) error {
	switch actor.Role {
	case enums.ActorRoleAdmin, enums.ActorRoleSystem:
		return nil
	case enums.ActorRoleCustomer:
		if order.CustomerID != actor.ID {
			return forbidden("customers may only cancel their own orders")
		}
		for _, sub := range order.SubOrders {
			if sub.Status != enums.OrderStatusPending && sub.Status != enums.OrderStatusCancelled {
				return forbidden("order can no longer be cancelled by the customer")
			}
		}
		return nil
	}
	return forbidden("only the customer or an admin may cancel a whole order")
}

// ExpirePending cancels orders still pending at cutoff. Each order runs in its own
// transaction; failures are collected and the rest of the batch continues.
func (s *service) ExpirePending(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	ids, err := s.repo.ListPendingBefore(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}
	var errs error
	expired := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			errs = multierr.Append(errs, ctx.Err())
			break
		}
		var order *models.Order
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			loaded, err := s.repo.WithTx(tx).FindByID(ctx, id, true)
			if err != nil {
				return err
			}
			if loaded.OverallStatus != enums.OrderStatusPending {
				return nil
			}
			order = loaded
			return s.cancel(ctx, tx, loaded, SystemActor, ExpiryReason, nil)
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expire order %s: %w", id, err))
			continue
		}
		if order == nil {
			continue
		}
		expired++
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Info(s.logg.WithField(logCtx, "order_number", order.OrderNumber), "pending order expired")
	}
	return expired, errs
}

// moveSubOrder persists one guarded transition, returns stock on cancellation, and records
// the history row and sub-order event.
func (s *service) moveSubOrder(ctx context.Context, tx *gorm.DB, order *models.Order, sub *models.PartnerSubOrder, target enums.OrderStatus, actor Actor, note *string, reason string) error {
	from := sub.Status
	sub.Status = target
	if target == enums.OrderStatusPickedUp && actor.Role == enums.ActorRoleCourier && sub.CourierID == nil {
		courier := actor.ID
		sub.CourierID = &courier
	}
	repo := s.repo.WithTx(tx)
	if err := repo.UpdateSubOrder(ctx, sub, from); err != nil {
		return err
	}

	if target == enums.OrderStatusCancelled {
		for _, line := range sub.Items {
			if !line.StockTracked {
				continue
			}
			credited, err := s.stock.Release(ctx, tx, order.ID, line.ItemID, line.Quantity, reason)
			if err != nil {
				return err
			}
			if !credited {
				s.logg.Debug(s.logg.WithOrderID(ctx, order.ID.String()), "stock already released for "+line.ItemID.String())
			}
		}
	}

	now := s.now()
	partnerID := sub.PartnerID
	entry := &models.OrderStatusEntry{
		OrderID:    order.ID,
		PartnerID:  &partnerID,
		FromStatus: &from,
		Status:     target,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Note:       note,
		CreatedAt:  now,
	}
	if err := repo.AppendHistory(ctx, entry); err != nil {
		return err
	}
	order.History = append(order.History, *entry)
	s.metrics.IncTransition(string(target), string(actor.Role))

	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventSubOrderStatusChange,
		AggregateType: enums.AggregateSubOrder,
		AggregateID:   sub.ID,
		Actor:         actor.ref(),
		OccurredAt:    now,
		Data: payloads.SubOrderStatusChangedEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			PartnerID:   sub.PartnerID,
			OldStatus:   from,
			NewStatus:   target,
			ActorRole:   actor.Role,
			ChangedAt:   now,
		},
	})
}

// settleOverall recomputes the cached overall status and writes fields with it. The
// cancellation record is stored once: when the order becomes cancelled, or always when forced.
func (s *service) settleOverall(ctx context.Context, tx *gorm.DB, order *models.Order, actor Actor, fields map[string]any, cancellation *types.Cancellation, force bool) error {
	statuses := make([]enums.OrderStatus, 0, len(order.SubOrders))
	for _, sub := range order.SubOrders {
		statuses = append(statuses, sub.Status)
	}
	prev := order.OverallStatus
	next := DeriveOverallStatus(statuses)
	if next != prev {
		fields["overall_status"] = next
		order.OverallStatus = next
	}
	if cancellation != nil && order.Cancellation == nil && (force || next == enums.OrderStatusCancelled) {
		fields["cancellation"] = cancellation
		order.Cancellation = cancellation
	}
	if len(fields) == 0 {
		return nil
	}
	if err := s.repo.WithTx(tx).UpdateOrder(ctx, order.ID, fields); err != nil {
		return err
	}
	if next == prev {
		return nil
	}

	now := s.now()
	event := outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor.ref(),
		OccurredAt:    now,
		Data: payloads.OrderStatusChangedEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			OldStatus:   prev,
			NewStatus:   next,
			ChangedAt:   now,
		},
	}
	if next == enums.OrderStatusCancelled && order.Cancellation != nil {
		event.EventType = enums.EventOrderCancelled
		if actor.Role == enums.ActorRoleSystem && order.Cancellation.Reason == ExpiryReason {
			event.EventType = enums.EventOrderExpired
		}
		event.Data = payloads.OrderCancelledEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			Reason:      order.Cancellation.Reason,
			ActorRole:   actor.Role,
			CancelledAt: order.Cancellation.CancelledAt,
		}
	}
	return s.outbox.Emit(ctx, tx, event)
}

func (s *service) cancellationFor(actor Actor, reason string, detail *string) *types.Cancellation {
	return &types.Cancellation{
		Reason:      reason,
		ActorID:     actor.ID,
		ActorRole:   actor.Role,
		Detail:      detail,
		CancelledAt: s.now(),
	}
}

func (a Actor) ref() *outbox.ActorRef {
	return &outbox.ActorRef{ActorID: a.ID, PartnerID: a.PartnerID, Role: string(a.Role)}
}

// refreshEstimate recomputes the delivery estimate from the slowest open sub-order plus the
// transit time fixed at creation. A fully cancelled order keeps its last estimate.
func refreshEstimate(order *models.Order, fields map[string]any) {
	slowest := slowestPrep(order.SubOrders)
	if slowest == 0 {
		return
	}
	minutes := slowest + order.EstimatedTransitMinutes
	if minutes == order.EstimatedDeliveryMinutes {
		return
	}
	order.EstimatedDeliveryMinutes = minutes
	order.EstimatedDeliveryAt = order.CreatedAt.Add(time.Duration(minutes) * time.Minute)
	fields["estimated_delivery_minutes"] = order.EstimatedDeliveryMinutes
	fields["estimated_delivery_at"] = order.EstimatedDeliveryAt
}

func slowestPrep(subs []models.PartnerSubOrder) int {
	slowest := 0
	for _, sub := range subs {
		if sub.Status != enums.OrderStatusCancelled && sub.PrepTimeMinutes > slowest {
			slowest = sub.PrepTimeMinutes
		}
	}
	return slowest
}

func noteOr(note *string, fallback string) string {
	if note != nil && strings.TrimSpace(*note) != "" {
		return strings.TrimSpace(*note)
	}
	return fallback
}
