package orders

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/quickbite-backend/api/validators"
	internalorders "github.com/angelmondragon/quickbite-backend/internal/orders"
	"github.com/angelmondragon/quickbite-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/quickbite-backend/pkg/errors"
	"github.com/angelmondragon/quickbite-backend/pkg/types"
)

const (
	maxNotesLen  = 500
	maxReasonLen = 200
)

type addressRequest struct {
	Line1        string  `json:"line1" validate:"required,max=200"`
	Line2        *string `json:"line2" validate:"omitempty,max=200"`
	City         string  `json:"city" validate:"required,max=100"`
	PostalCode   string  `json:"postal_code" validate:"required,max=16"`
	Instructions *string `json:"instructions" validate:"omitempty,max=500"`
}

type locationRequest struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" validate:"min=-180,max=180"`
}

type createOrderRequest struct {
	SessionID     string          `json:"session_id" validate:"required,max=128"`
	CustomerName  string          `json:"customer_name" validate:"required,max=120"`
	CustomerPhone *string         `json:"customer_phone" validate:"omitempty,max=32"`
	Address       addressRequest  `json:"address"`
	Location      locationRequest `json:"location"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=cash card"`
	Notes         *string         `json:"notes" validate:"omitempty,max=500"`
}

type cancelRequest struct {
	Reason string  `json:"reason" validate:"required,max=200"`
	Detail *string `json:"detail" validate:"omitempty,max=500"`
}

type statusRequest struct {
	Status               string  `json:"status" validate:"required"`
	Note                 *string `json:"note" validate:"omitempty,max=500"`
	EstimatedPrepMinutes *int    `json:"estimated_prep_minutes" validate:"omitempty,min=1,max=240"`
}

type discountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type refundRequest struct {
	Reason string `json:"reason" validate:"required,max=200"`
}

func (r createOrderRequest) toInput(actor internalorders.Actor) (internalorders.CreateOrderInput, error) {
	method, err := enums.ParsePaymentMethod(r.PaymentMethod)
	if err != nil {
		return internalorders.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}
	return internalorders.CreateOrderInput{
		SessionID: strings.TrimSpace(r.SessionID),
		Customer: internalorders.Customer{
			ID:    actor.ID,
			Name:  validators.SanitizeString(r.CustomerName, 120),
			Phone: optional(r.CustomerPhone, 32),
		},
		Address: types.DeliveryAddress{
			Line1:        validators.SanitizeString(r.Address.Line1, 200),
			Line2:        optional(r.Address.Line2, 200),
			City:         validators.SanitizeString(r.Address.City, 100),
			PostalCode:   validators.SanitizeString(r.Address.PostalCode, 16),
			Instructions: optional(r.Address.Instructions, maxNotesLen),
		},
		Location:      internalorders.Location{Lat: r.Location.Lat, Lng: r.Location.Lng},
		PaymentMethod: method,
		Notes:         optional(r.Notes, maxNotesLen),
	}, nil
}

func (r statusRequest) toInput(actor internalorders.Actor, orderID, partnerID uuid.UUID) (internalorders.UpdateStatusInput, error) {
	status, err := enums.ParseOrderStatus(strings.TrimSpace(r.Status))
	if err != nil {
		return internalorders.UpdateStatusInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}
	return internalorders.UpdateStatusInput{
		OrderID:              orderID,
		PartnerID:            partnerID,
		Status:               status,
		Actor:                actor,
		Note:                 optional(r.Note, maxNotesLen),
		EstimatedPrepMinutes: r.EstimatedPrepMinutes,
	}, nil
}

func (r cancelRequest) toInput(actor internalorders.Actor, orderID uuid.UUID) internalorders.CancelInput {
	return internalorders.CancelInput{
		OrderID: orderID,
		Actor:   actor,
		Reason:  validators.SanitizeString(r.Reason, maxReasonLen),
		Detail:  optional(r.Detail, maxNotesLen),
	}
}

func optional(value *string, maxLen int) *string {
	if value == nil {
		return nil
	}
	trimmed := validators.SanitizeString(*value, maxLen)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
