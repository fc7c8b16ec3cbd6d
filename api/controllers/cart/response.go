package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/quickbite-backend/pkg/db/models"
	"github.com/angelmondragon/quickbite-backend/pkg/types"
)

type cartResponse struct {
	SessionID     string               `json:"session_id"`
	PartnerCarts  []partnerCartPayload `json:"partner_carts"`
	DeliveryQuote *types.DeliveryQuote `json:"delivery_quote,omitempty"`
	ItemsTotal    decimal.Decimal      `json:"items_total"`
	DeliveryFee   decimal.Decimal      `json:"delivery_fee"`
	GrandTotal    decimal.Decimal      `json:"grand_total"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

type partnerCartPayload struct {
	PartnerID   uuid.UUID            `json:"partner_id"`
	PartnerName string               `json:"partner_name"`
	Subtotal    decimal.Decimal      `json:"subtotal"`
	Items       []types.CartLineItem `json:"items"`
}

func newCartResponse(session *models.CartSession) cartResponse {
	groups := make([]partnerCartPayload, 0, len(session.PartnerCarts))
	for _, group := range session.PartnerCarts {
		items := group.Items
		if items == nil {
			items = []types.CartLineItem{}
		}
		groups = append(groups, partnerCartPayload{
			PartnerID:   group.PartnerID,
			PartnerName: group.PartnerName,
			Subtotal:    group.Subtotal,
			Items:       items,
		})
	}
	return cartResponse{
		SessionID:     session.SessionID,
		PartnerCarts:  groups,
		DeliveryQuote: session.DeliveryQuote,
		ItemsTotal:    session.ItemsTotal,
		DeliveryFee:   session.DeliveryFee,
		GrandTotal:    session.GrandTotal,
		UpdatedAt:     session.UpdatedAt,
	}
}
