package cart

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/quickbite-backend/api/validators"
	cartsvc "github.com/angelmondragon/quickbite-backend/internal/cart"
	"github.com/angelmondragon/quickbite-backend/pkg/types"
)

const maxNotesLen = 500

type addItemRequest struct {
	ItemID   uuid.UUID `json:"item_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,min=1,max=99"`
	Notes    *string   `json:"notes" validate:"omitempty,max=500"`
}

type updateItemRequest struct {
	Quantity int                  `json:"quantity" validate:"required,min=1,max=99"`
	Notes    types.NullableString `json:"notes"`
}

type quoteRequest struct {
	PostalCode string `json:"postal_code" validate:"required,max=16"`
}

func (r addItemRequest) toInput() cartsvc.AddItemInput {
	return cartsvc.AddItemInput{
		ItemID:   r.ItemID,
		Quantity: r.Quantity,
		Notes:    trimNotes(r.Notes),
	}
}

func (r updateItemRequest) toInput() cartsvc.UpdateItemInput {
	notes := r.Notes
	if notes.Valid {
		notes.Value = trimNotes(notes.Value)
	}
	return cartsvc.UpdateItemInput{Quantity: r.Quantity, Notes: notes}
}

func trimNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := validators.SanitizeString(*notes, maxNotesLen)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
