package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/quickbite-backend/api/middleware"
	internalorders "github.com/angelmondragon/quickbite-backend/internal/orders"
	"github.com/angelmondragon/quickbite-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/quickbite-backend/pkg/errors"
)

// actorFromRequest builds the order principal from the claims seeded by middleware.Auth.
func actorFromRequest(r *http.Request) (internalorders.Actor, error) {
	ctx := r.Context()
	rawUser := middleware.UserIDFromContext(ctx)
	if rawUser == "" {
		return internalorders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	userID, err := uuid.Parse(rawUser)
	if err != nil {
		return internalorders.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	role, err := enums.ParseActorRole(middleware.RoleFromContext(ctx))
	if err != nil {
		return internalorders.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor role")
	}

	actor := internalorders.Actor{ID: userID, Role: role}
	if rawPartner := middleware.PartnerIDFromContext(ctx); rawPartner != "" {
		partnerID, err := uuid.Parse(rawPartner)
		if err != nil {
			return internalorders.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid partner id")
		}
		actor.PartnerID = &partnerID
	}
	return actor, nil
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, name+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}
