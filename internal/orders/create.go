package orders

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/quickbite-backend/internal/cart"
	"github.com/angelmondragon/quickbite-backend/internal/catalog"
	"github.com/angelmondragon/quickbite-backend/internal/delivery"
	dbpkg "github.com/angelmondragon/quickbite-backend/pkg/db"
	"github.com/angelmondragon/quickbite-backend/pkg/db/models"
	"github.com/angelmondragon/quickbite-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/quickbite-backend/pkg/errors"
	"github.com/angelmondragon/quickbite-backend/pkg/outbox"
	"github.com/angelmondragon/quickbite-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/quickbite-backend/pkg/types"
)

const noteOrderCreated = "order created"

type Customer struct {
	ID    uuid.UUID
	Name  string
	Phone *string
}

type Location struct {
	Lat float64
	Lng float64
}

type CreateOrderInput struct {
	SessionID     string
	Customer      Customer
	Address       types.DeliveryAddress
	Location      Location
	PaymentMethod enums.PaymentMethod
	Notes         *string
}

// PriceMismatch describes one cart line whose catalog state moved since it was added.
type PriceMismatch struct {
	ItemID       uuid.UUID       `json:"item_id"`
	Name         string          `json:"name"`
	CartPrice    decimal.Decimal `json:"cart_price"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Available    bool            `json:"available"`
}

type MinimumViolation struct {
	PartnerID   uuid.UUID       `json:"partner_id"`
	PartnerName string          `json:"partner_name"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Minimum     decimal.Decimal `json:"minimum"`
}

func (in CreateOrderInput) validate() error {
	var problems []string
	if in.Customer.ID == uuid.Nil {
		problems = append(problems, "customer id is required")
	}
	if strings.TrimSpace(in.Customer.Name) == "" {
		problems = append(problems, "customer name is required")
	}
	if strings.TrimSpace(in.Address.Line1) == "" {
		problems = append(problems, "delivery address line1 is required")
	}
	if strings.TrimSpace(in.Address.City) == "" {
		problems = append(problems, "delivery address city is required")
	}
	if strings.TrimSpace(in.Address.PostalCode) == "" {
		problems = append(problems, "delivery address postal code is required")
	}
	if math.Abs(in.Location.Lat) > 90 || math.Abs(in.Location.Lng) > 180 {
		problems = append(problems, "delivery location is out of range")
	}
	if !in.PaymentMethod.IsValid() {
		problems = append(problems, "payment method must be cash or card")
	}
	if len(problems) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, problems[0]).
		WithDetails(map[string]any{"errors": problems})
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	order, err := s.createOrder(ctx, input)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			s.metrics.IncCreationFailure(string(typed.Code()))
		} else if dbpkg.IsSerializationFailure(err) {
			err = pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order creation conflicted with a concurrent write")
			s.metrics.IncCreationFailure(string(pkgerrors.CodeConflict))
		} else {
			s.metrics.IncCreationFailure(string(pkgerrors.CodeInternal))
		}
		return nil, err
	}
	s.metrics.IncCreated()
	logCtx := s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(s.logg.WithField(logCtx, "order_number", order.OrderNumber), "order created")
	return order, nil
}

func (s *service) createOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	sessionID, err := cart.NormalizeSessionID(input.SessionID)
	if err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		session, err := s.carts.WithTx(tx).Find(ctx, sessionID)
		if err != nil {
			return err
		}
		items, err := s.catalog.WithTx(tx).Items(ctx, cart.ItemIDs(session))
		if err != nil {
			return err
		}
		if result := cart.EvaluateForCheckout(session, items); !result.Valid {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart failed validation").
				WithDetails(map[string]any{"errors": result.Errors, "unavailable_items": result.UnavailableItems})
		}
		if err := s.checkDrift(session, items); err != nil {
			return err
		}
		if err := checkMinimums(session, items); err != nil {
			return err
		}

		zone, fee, err := s.repriceDelivery(ctx, tx, session, input.Address.PostalCode)
		if err != nil {
			return err
		}
		origins := partnerOrigins(session, items)
		distance := delivery.FarthestKm(origins, delivery.Point{Lat: input.Location.Lat, Lng: input.Location.Lng})
		if err := zone.CheckDistance(distance); err != nil {
			return err
		}

		// The counter lives in Redis, so a later rollback (stock, write failure) leaves a gap.
		number, err := s.numbers.Next(ctx, now)
		if err != nil {
			return err
		}
		order = buildOrder(session, items, input, number, now)
		order.DeliveryZone = zone.Number
		order.DeliveryPostalCode = zone.PostalCode
		order.DeliveryDistanceKm = math.Round(distance*100) / 100

		totals := ComputeTotals(order.Subtotal, fee.Total, decimal.Zero, s.cfg)
		applyTotals(order, totals)

		prep := make([]int, 0, len(order.SubOrders))
		for _, sub := range order.SubOrders {
			prep = append(prep, sub.PrepTimeMinutes)
		}
		order.EstimatedTransitMinutes = zone.TransitMinutes
		order.EstimatedDeliveryMinutes = delivery.EstimateMinutes(prep, *zone)
		order.EstimatedDeliveryAt = now.Add(time.Duration(order.EstimatedDeliveryMinutes) * time.Minute)

		for _, sub := range order.SubOrders {
			for _, line := range sub.Items {
				if !line.StockTracked {
					continue
				}
				if err := s.stock.Reserve(ctx, tx, order.ID, line.ItemID, line.Quantity); err != nil {
					return err
				}
			}
		}

		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		if _, err := s.carts.WithTx(tx).Delete(ctx, sessionID); err != nil {
			return err
		}

		partnerIDs := make([]uuid.UUID, 0, len(order.SubOrders))
		for _, sub := range order.SubOrders {
			partnerIDs = append(partnerIDs, sub.PartnerID)
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{ActorID: input.Customer.ID, Role: string(enums.ActorRoleCustomer)},
			OccurredAt:    now,
			Data: payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				CustomerID:  order.CustomerID,
				PartnerIDs:  partnerIDs,
				Total:       order.TotalPrice,
				CreatedAt:   now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) checkDrift(session *models.CartSession, items map[uuid.UUID]catalog.ItemSnapshot) error {
	var mismatches []PriceMismatch
	for _, group := range session.PartnerCarts {
		for _, line := range group.Items {
			snap := items[line.ItemID]
			current := snap.EffectivePrice()
			if snap.Orderable() && current.Sub(line.UnitPrice).Abs().LessThanOrEqual(s.cfg.PriceEpsilon) {
				continue
			}
			mismatches = append(mismatches, PriceMismatch{
				ItemID:       line.ItemID,
				Name:         line.Name,
				CartPrice:    line.UnitPrice,
				CurrentPrice: current,
				Available:    snap.Orderable(),
			})
		}
	}
	if len(mismatches) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeDrift, fmt.Sprintf("%d cart line(s) changed since they were added", len(mismatches))).
		WithDetails(map[string]any{"mismatches": mismatches})
}

func checkMinimums(session *models.CartSession, items map[uuid.UUID]catalog.ItemSnapshot) error {
	var violations []MinimumViolation
	for _, group := range session.PartnerCarts {
		minimum := partnerSnapshot(group, items).MinimumOrder
		if group.Subtotal.GreaterThanOrEqual(minimum) {
			continue
		}
		violations = append(violations, MinimumViolation{
			PartnerID:   group.PartnerID,
			PartnerName: group.PartnerName,
			Subtotal:    group.Subtotal,
			Minimum:     minimum,
		})
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeBelowMinimumOrder, "one or more partners are below their minimum order").
		WithDetails(map[string]any{"violations": violations})
}

// repriceDelivery recomputes the quoted fee against the current zone row. A quote that no
// longer matches is drift, and an address outside the quoted postal code is invalid.
func (s *service) repriceDelivery(ctx context.Context, tx *gorm.DB, session *models.CartSession, postalCode string) (*delivery.Zone, delivery.Fee, error) {
	quote := session.DeliveryQuote
	if delivery.NormalizePostalCode(postalCode) != quote.PostalCode {
		return nil, delivery.Fee{}, invalid("delivery address postal code does not match the quoted zone")
	}
	zone, err := s.delivery.WithTx(tx).Resolve(ctx, quote.PostalCode)
	if err != nil {
		return nil, delivery.Fee{}, err
	}
	fee := delivery.Calculate(len(session.PartnerCarts), *zone, quote.IsPeak)
	if !fee.Total.Equal(quote.TotalFee) {
		return nil, delivery.Fee{}, pkgerrors.New(pkgerrors.CodeDrift, "delivery fee changed since it was quoted").
			WithDetails(map[string]any{
				"mismatches":   []PriceMismatch{},
				"delivery_fee": map[string]decimal.Decimal{"quoted": quote.TotalFee, "current": fee.Total},
			})
	}
	return zone, fee, nil
}

func partnerSnapshot(group types.PartnerCart, items map[uuid.UUID]catalog.ItemSnapshot) catalog.ItemSnapshot {
	for _, line := range group.Items {
		if snap, ok := items[line.ItemID]; ok {
			return snap
		}
	}
	return catalog.ItemSnapshot{PartnerID: group.PartnerID, PartnerName: group.PartnerName}
}

func partnerOrigins(session *models.CartSession, items map[uuid.UUID]catalog.ItemSnapshot) []delivery.Point {
	origins := make([]delivery.Point, 0, len(session.PartnerCarts))
	for _, group := range session.PartnerCarts {
		snap := partnerSnapshot(group, items)
		origins = append(origins, delivery.Point{Lat: snap.Latitude, Lng: snap.Longitude})
	}
	return origins
}

func buildOrder(session *models.CartSession, items map[uuid.UUID]catalog.ItemSnapshot, input CreateOrderInput, number string, now time.Time) *models.Order {
	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     number,
		CustomerID:      input.Customer.ID,
		CustomerName:    strings.TrimSpace(input.Customer.Name),
		CustomerPhone:   input.Customer.Phone,
		DeliveryAddress: input.Address,
		DeliveryLat:     input.Location.Lat,
		DeliveryLng:     input.Location.Lng,
		PaymentMethod:   input.PaymentMethod,
		PaymentStatus:   enums.PaymentStatusPending,
		Notes:           input.Notes,
		OverallStatus:   enums.OrderStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	order.DeliveryAddress.PostalCode = delivery.NormalizePostalCode(input.Address.PostalCode)

	subtotal := decimal.Zero
	for i, group := range session.PartnerCarts {
		snap := partnerSnapshot(group, items)
		sub := models.PartnerSubOrder{
			ID:              uuid.New(),
			OrderID:         order.ID,
			PartnerID:       group.PartnerID,
			PartnerName:     group.PartnerName,
			Position:        i,
			Status:          enums.OrderStatusPending,
			PrepTimeMinutes: snap.PrepTimeMinutes,
		}
		groupTotal := decimal.Zero
		for j, line := range group.Items {
			current := items[line.ItemID]
			lineTotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
			groupTotal = groupTotal.Add(lineTotal)
			sub.Items = append(sub.Items, models.OrderLineItem{
				SubOrderID:   sub.ID,
				OrderID:      order.ID,
				ItemID:       line.ItemID,
				Name:         line.Name,
				Position:     j,
				Quantity:     line.Quantity,
				UnitPrice:    line.UnitPrice,
				LineTotal:    lineTotal,
				Notes:        line.Notes,
				StockTracked: current.StockTracked(),
			})
			order.ItemsSnapshot = append(order.ItemsSnapshot, types.ItemSnapshot{
				ItemID:        line.ItemID,
				PartnerID:     group.PartnerID,
				UnitPrice:     line.UnitPrice,
				IsAvailable:   current.IsAvailable,
				StockQuantity: current.StockQuantity,
			})
		}
		sub.Subtotal = groupTotal
		subtotal = subtotal.Add(groupTotal)
		order.SubOrders = append(order.SubOrders, sub)
	}
	order.Subtotal = subtotal

	note := noteOrderCreated
	order.History = []models.OrderStatusEntry{{
		OrderID:   order.ID,
		Seq:       1,
		Status:    enums.OrderStatusPending,
		ActorID:   input.Customer.ID,
		ActorRole: enums.ActorRoleCustomer,
		Note:      &note,
		CreatedAt: now,
	}}
	return order
}

func applyTotals(order *models.Order, t Totals) {
	order.Subtotal = t.Subtotal
	order.DeliveryFee = t.DeliveryFee
	order.ServiceFee = t.ServiceFee
	order.DiscountAmount = t.DiscountAmount
	order.TaxAmount = t.TaxAmount
	order.PlatformCommission = t.PlatformCommission
	order.CourierEarnings = t.CourierEarnings
	order.TotalPrice = t.TotalPrice
}
