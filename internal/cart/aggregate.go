package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/quickbite-backend/internal/catalog"
	"github.com/angelmondragon/quickbite-backend/internal/delivery"
	"github.com/angelmondragon/quickbite-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/quickbite-backend/pkg/errors"
	"github.com/angelmondragon/quickbite-backend/pkg/types"
)

// Aggregate wraps a CartSession with the only commands allowed to mutate it. Every
// command ends in Recalculate, so stored totals always match the lines.
type Aggregate struct {
	session *models.CartSession
	newID   func() uuid.UUID
}

func NewAggregate(sessionID string) *Aggregate {
	return Wrap(&models.CartSession{
		SessionID:    sessionID,
		PartnerCarts: types.PartnerCarts{},
		ItemsTotal:   decimal.Zero,
		DeliveryFee:  decimal.Zero,
		GrandTotal:   decimal.Zero,
	})
}

func Wrap(session *models.CartSession) *Aggregate {
	return &Aggregate{session: session, newID: uuid.New}
}

func (a *Aggregate) Session() *models.CartSession {
	return a.session
}

func (a *Aggregate) PartnerCount() int {
	return len(a.session.PartnerCarts)
}

func (a *Aggregate) IsEmpty() bool {
	return len(a.session.PartnerCarts) == 0
}

// Lines returns every line in partner order.
func (a *Aggregate) Lines() []types.CartLineItem {
	var out []types.CartLineItem
	for _, group := range a.session.PartnerCarts {
		out = append(out, group.Items...)
	}
	return out
}

// Add puts qty of item into its partner group. An item already in the cart keeps its
// stored unit price; the quantity grows and the notes are replaced.
func (a *Aggregate) Add(item catalog.ItemSnapshot, qty int, notes *string) (types.CartLineItem, error) {
	if qty < 1 {
		return types.CartLineItem{}, invalid("quantity must be at least 1")
	}
	groups := a.session.PartnerCarts
	gi := -1
	for i := range groups {
		if groups[i].PartnerID == item.PartnerID {
			gi = i
			break
		}
	}
	if gi < 0 {
		groups = append(groups, types.PartnerCart{
			PartnerID:   item.PartnerID,
			PartnerName: item.PartnerName,
			Items:       []types.CartLineItem{},
		})
		gi = len(groups) - 1
	}
	group := &groups[gi]

	var line *types.CartLineItem
	for i := range group.Items {
		if group.Items[i].ItemID == item.ItemID {
			line = &group.Items[i]
			line.Quantity += qty
			line.Notes = notes
			break
		}
	}
	if line == nil {
		group.Items = append(group.Items, types.CartLineItem{
			ID:        a.newID(),
			ItemID:    item.ItemID,
			Name:      item.Name,
			Quantity:  qty,
			UnitPrice: item.EffectivePrice(),
			Notes:     notes,
		})
		line = &group.Items[len(group.Items)-1]
	}
	lineID := line.ID
	a.session.PartnerCarts = groups
	a.Recalculate()
	found, _ := a.findLine(lineID)
	return *found, nil
}

// UpdateLine changes quantity without re-reading the catalog price. Notes change only when
// the caller supplied them; an explicit null clears them.
func (a *Aggregate) UpdateLine(lineID uuid.UUID, qty int, notes types.NullableString) (types.CartLineItem, error) {
	if qty < 1 {
		return types.CartLineItem{}, invalid("quantity must be at least 1")
	}
	line, _ := a.findLine(lineID)
	if line == nil {
		return types.CartLineItem{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	line.Quantity = qty
	line.Notes = notes.Ptr(line.Notes)
	a.Recalculate()
	found, _ := a.findLine(lineID)
	return *found, nil
}

// RemoveLine drops the line and its partner group when the group empties.
func (a *Aggregate) RemoveLine(lineID uuid.UUID) error {
	groups := a.session.PartnerCarts
	for gi := range groups {
		for li := range groups[gi].Items {
			if groups[gi].Items[li].ID != lineID {
				continue
			}
			items := groups[gi].Items
			groups[gi].Items = append(items[:li:li], items[li+1:]...)
			if len(groups[gi].Items) == 0 {
				groups = append(groups[:gi:gi], groups[gi+1:]...)
			}
			a.session.PartnerCarts = groups
			a.Recalculate()
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
}

// ApplyQuote stores the delivery quote priced for the cart's current partner count.
func (a *Aggregate) ApplyQuote(postalCode string, quote delivery.Quote) {
	a.session.DeliveryQuote = &types.DeliveryQuote{
		PostalCode:           postalCode,
		ZoneNumber:           quote.Zone.Number,
		ZoneName:             quote.Zone.Name,
		BaseFee:              quote.Fee.BaseFee,
		AdditionalPartnerFee: quote.Fee.AdditionalPartnerFee,
		PeakSurcharge:        quote.Fee.PeakSurcharge,
		TotalFee:             quote.Fee.Total,
		PartnerCount:         quote.Fee.PartnerCount,
		IsPeak:               quote.Fee.IsPeak,
		QuotedAt:             quote.QuotedAt,
	}
	a.Recalculate()
}

// Recalculate derives line totals, partner subtotals, and cart totals from the lines. A
// quote priced for a different partner count is dropped.
func (a *Aggregate) Recalculate() {
	s := a.session
	itemsTotal := decimal.Zero
	for gi := range s.PartnerCarts {
		subtotal := decimal.Zero
		for li := range s.PartnerCarts[gi].Items {
			line := &s.PartnerCarts[gi].Items[li]
			line.LineTotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
			subtotal = subtotal.Add(line.LineTotal)
		}
		s.PartnerCarts[gi].Subtotal = subtotal
		itemsTotal = itemsTotal.Add(subtotal)
	}

	if s.DeliveryQuote != nil && (s.DeliveryQuote.PartnerCount != len(s.PartnerCarts) || len(s.PartnerCarts) == 0) {
		s.DeliveryQuote = nil
	}
	fee := decimal.Zero
	if s.DeliveryQuote != nil {
		fee = s.DeliveryQuote.TotalFee
	}
	s.ItemsTotal = itemsTotal
	s.DeliveryFee = fee
	s.GrandTotal = itemsTotal.Add(fee)
}

func (a *Aggregate) findLine(lineID uuid.UUID) (*types.CartLineItem, *types.PartnerCart) {
	for gi := range a.session.PartnerCarts {
		group := &a.session.PartnerCarts[gi]
		for li := range group.Items {
			if group.Items[li].ID == lineID {
				return &group.Items[li], group
			}
		}
	}
	return nil, nil
}

func invalid(msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, msg).
		WithDetails(map[string]any{"errors": []string{msg}})
}
