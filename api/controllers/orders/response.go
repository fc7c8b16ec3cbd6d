package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/quickbite-backend/pkg/db/models"
	"github.com/angelmondragon/quickbite-backend/pkg/enums"
	"github.com/angelmondragon/quickbite-backend/pkg/types"
)

type orderResponse struct {
	ID                       uuid.UUID             `json:"id"`
	OrderNumber              string                `json:"order_number"`
	CustomerID               uuid.UUID             `json:"customer_id"`
	CustomerName             string                `json:"customer_name"`
	CustomerPhone            *string               `json:"customer_phone,omitempty"`
	DeliveryAddress          types.DeliveryAddress `json:"delivery_address"`
	PaymentMethod            enums.PaymentMethod   `json:"payment_method"`
	PaymentStatus            enums.PaymentStatus   `json:"payment_status"`
	Notes                    *string               `json:"notes,omitempty"`
	OverallStatus            enums.OrderStatus     `json:"overall_status"`
	Totals                   totalsPayload         `json:"totals"`
	DeliveryZone             int                   `json:"delivery_zone"`
	DeliveryDistanceKm       float64               `json:"delivery_distance_km"`
	EstimatedDeliveryMinutes int                   `json:"estimated_delivery_minutes"`
	EstimatedDeliveryAt      time.Time             `json:"estimated_delivery_at"`
	Cancellation             *types.Cancellation   `json:"cancellation,omitempty"`
	SubOrders                []subOrderPayload     `json:"sub_orders"`
	History                  []historyPayload      `json:"history"`
	CreatedAt                time.Time             `json:"created_at"`
	UpdatedAt                time.Time             `json:"updated_at"`
}

type totalsPayload struct {
	Subtotal           decimal.Decimal `json:"subtotal"`
	DeliveryFee        decimal.Decimal `json:"delivery_fee"`
	ServiceFee         decimal.Decimal `json:"service_fee"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	TaxAmount          decimal.Decimal `json:"tax_amount"`
	PlatformCommission decimal.Decimal `json:"platform_commission"`
	CourierEarnings    decimal.Decimal `json:"courier_earnings"`
	TotalPrice         decimal.Decimal `json:"total_price"`
}

type subOrderPayload struct {
	PartnerID       uuid.UUID         `json:"partner_id"`
	PartnerName     string            `json:"partner_name"`
	Status          enums.OrderStatus `json:"status"`
	Subtotal        decimal.Decimal   `json:"subtotal"`
	PrepTimeMinutes int               `json:"prep_time_minutes"`
	CourierID       *uuid.UUID        `json:"courier_id,omitempty"`
	Items           []lineItemPayload `json:"items"`
}

type lineItemPayload struct {
	ItemID    uuid.UUID       `json:"item_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	Notes     *string         `json:"notes,omitempty"`
}

type historyPayload struct {
	Seq        int                `json:"seq"`
	PartnerID  *uuid.UUID         `json:"partner_id,omitempty"`
	FromStatus *enums.OrderStatus `json:"from_status,omitempty"`
	Status     enums.OrderStatus  `json:"status"`
	ActorRole  enums.ActorRole    `json:"actor_role"`
	Note       *string            `json:"note,omitempty"`
	At         time.Time          `json:"at"`
}

func newOrderResponse(order *models.Order) orderResponse {
	subs := make([]subOrderPayload, 0, len(order.SubOrders))
	for _, sub := range order.SubOrders {
		items := make([]lineItemPayload, 0, len(sub.Items))
		for _, item := range sub.Items {
			items = append(items, lineItemPayload{
				ItemID:    item.ItemID,
				Name:      item.Name,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				LineTotal: item.LineTotal,
				Notes:     item.Notes,
			})
		}
		subs = append(subs, subOrderPayload{
			PartnerID:       sub.PartnerID,
			PartnerName:     sub.PartnerName,
			Status:          sub.Status,
			Subtotal:        sub.Subtotal,
			PrepTimeMinutes: sub.PrepTimeMinutes,
			CourierID:       sub.CourierID,
			Items:           items,
		})
	}

	history := make([]historyPayload, 0, len(order.History))
	for _, entry := range order.History {
		history = append(history, historyPayload{
			Seq:        entry.Seq,
			PartnerID:  entry.PartnerID,
			FromStatus: entry.FromStatus,
			Status:     entry.Status,
			ActorRole:  entry.ActorRole,
			Note:       entry.Note,
			At:         entry.CreatedAt,
		})
	}

	return orderResponse{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		CustomerID:      order.CustomerID,
		CustomerName:    order.CustomerName,
		CustomerPhone:   order.CustomerPhone,
		DeliveryAddress: order.DeliveryAddress,
		PaymentMethod:   order.PaymentMethod,
		PaymentStatus:   order.PaymentStatus,
		Notes:           order.Notes,
		OverallStatus:   order.OverallStatus,
		Totals: totalsPayload{
			Subtotal:           order.Subtotal,
			DeliveryFee:        order.DeliveryFee,
			ServiceFee:         order.ServiceFee,
			DiscountAmount:     order.DiscountAmount,
			TaxAmount:          order.TaxAmount,
			PlatformCommission: order.PlatformCommission,
			CourierEarnings:    order.CourierEarnings,
			TotalPrice:         order.TotalPrice,
		},
		DeliveryZone:             order.DeliveryZone,
		DeliveryDistanceKm:       order.DeliveryDistanceKm,
		EstimatedDeliveryMinutes: order.EstimatedDeliveryMinutes,
		EstimatedDeliveryAt:      order.EstimatedDeliveryAt,
		Cancellation:             order.Cancellation,
		SubOrders:                subs,
		History:                  history,
		CreatedAt:                order.CreatedAt,
		UpdatedAt:                order.UpdatedAt,
	}
}
