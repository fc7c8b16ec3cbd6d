package cart

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/quickbite-backend/internal/catalog"
	"github.com/angelmondragon/quickbite-backend/pkg/db/models"
)

// ValidationResult is the read-only pre-checkout gate.
type ValidationResult struct {
	Valid            bool              `json:"valid"`
	Errors           []string          `json:"errors"`
	UnavailableItems []UnavailableItem `json:"unavailable_items"`
}

type UnavailableItem struct {
	LineItemID uuid.UUID `json:"line_item_id"`
	ItemID     uuid.UUID `json:"item_id"`
	Name       string    `json:"name"`
	Reason     string    `json:"reason"`
}

// Evaluate checks a cart against current catalog state. It never mutates the session.
func Evaluate(session *models.CartSession, items map[uuid.UUID]catalog.ItemSnapshot) ValidationResult {
	return evaluate(session, items, true)
}

// EvaluateForCheckout is Evaluate without the stock-level check. At checkout the
// conditional stock decrement is the only authority on quantity.
func EvaluateForCheckout(session *models.CartSession, items map[uuid.UUID]catalog.ItemSnapshot) ValidationResult {
	return evaluate(session, items, false)
}

func evaluate(session *models.CartSession, items map[uuid.UUID]catalog.ItemSnapshot, checkStock bool) ValidationResult {
	result := ValidationResult{Errors: []string{}, UnavailableItems: []UnavailableItem{}}
	if session == nil || len(session.PartnerCarts) == 0 {
		result.Errors = append(result.Errors, "cart is empty")
		return result
	}

	inactive := map[uuid.UUID]bool{}
	for _, group := range session.PartnerCarts {
		for _, line := range group.Items {
			snap, ok := items[line.ItemID]
			switch {
			case !ok:
				result.Errors = append(result.Errors, fmt.Sprintf("%s is no longer on the menu", line.Name))
				result.UnavailableItems = append(result.UnavailableItems, unavailable(line.ID, line.ItemID, line.Name, "removed"))
			case !snap.PartnerActive:
				if !inactive[group.PartnerID] {
					inactive[group.PartnerID] = true
					result.Errors = append(result.Errors, fmt.Sprintf("%s is not accepting orders", group.PartnerName))
				}
				result.UnavailableItems = append(result.UnavailableItems, unavailable(line.ID, line.ItemID, line.Name, "partner_inactive"))
			case !snap.IsAvailable:
				result.Errors = append(result.Errors, fmt.Sprintf("%s is unavailable", line.Name))
				result.UnavailableItems = append(result.UnavailableItems, unavailable(line.ID, line.ItemID, line.Name, "unavailable"))
			case checkStock && snap.StockQuantity != nil && *snap.StockQuantity < line.Quantity:
				result.Errors = append(result.Errors, fmt.Sprintf("only %d of %s left", *snap.StockQuantity, line.Name))
				result.UnavailableItems = append(result.UnavailableItems, unavailable(line.ID, line.ItemID, line.Name, "insufficient_stock"))
			}
		}
	}

	if session.DeliveryQuote == nil {
		result.Errors = append(result.Errors, "delivery quote is missing")
	}
	result.Valid = len(result.Errors) == 0
	return result
}

// ItemIDs lists the distinct catalog ids referenced by the cart.
func ItemIDs(session *models.CartSession) []uuid.UUID {
	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, group := range session.PartnerCarts {
		for _, line := range group.Items {
			if !seen[line.ItemID] {
				seen[line.ItemID] = true
				ids = append(ids, line.ItemID)
			}
		}
	}
	return ids
}

func unavailable(lineID, itemID uuid.UUID, name, reason string) UnavailableItem {
	return UnavailableItem{LineItemID: lineID, ItemID: itemID, Name: name, Reason: reason}
}
