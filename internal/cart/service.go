package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/quickbite-backend/internal/catalog"
	"github.com/angelmondragon/quickbite-backend/internal/delivery"
	"github.com/angelmondragon/quickbite-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/quickbite-backend/pkg/errors"
	"github.com/angelmondragon/quickbite-backend/pkg/logger"
	"github.com/angelmondragon/quickbite-backend/pkg/types"
)

const maxSessionIDLen = 128

type AddItemInput struct {
	ItemID   uuid.UUID
	Quantity int
	Notes    *string
}

type UpdateItemInput struct {
	Quantity int
	Notes    types.NullableString
}

// Service is the cart surface used by the HTTP layer.
type Service interface {
	Get(ctx context.Context, sessionID string) (*models.CartSession, error)
	AddItem(ctx context.Context, sessionID string, input AddItemInput) (*models.CartSession, error)
	UpdateItem(ctx context.Context, sessionID string, lineItemID uuid.UUID, input UpdateItemInput) (*models.CartSession, error)
	RemoveItem(ctx context.Context, sessionID string, lineItemID uuid.UUID) (*models.CartSession, error)
	Clear(ctx context.Context, sessionID string) error
	QuoteDelivery(ctx context.Context, sessionID, postalCode string) (*models.CartSession, error)
	Validate(ctx context.Context, sessionID string) (*ValidationResult, error)
}

type ServiceParams struct {
	Repository Repository
	Catalog    catalog.Reader
	Delivery   delivery.Service
	Logger     *logger.Logger
	Clock      func() time.Time
}

type service struct {
	repo     Repository
	catalog  catalog.Reader
	delivery delivery.Service
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if params.Delivery == nil {
		return nil, fmt.Errorf("delivery service required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	clock := params.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:     params.Repository,
		catalog:  params.Catalog,
		delivery: params.Delivery,
		logg:     params.Logger,
		now:      clock,
	}, nil
}

// NormalizeSessionID trims the id and enforces its length bounds.
func NormalizeSessionID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" || len(id) > maxSessionIDLen {
		return "", invalid(fmt.Sprintf("session id must be 1-%d characters", maxSessionIDLen))
	}
	return id, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*models.CartSession, error) {
	id, err := NormalizeSessionID(sessionID)
	if err != nil {
		return nil, err
	}
	return s.repo.Find(ctx, id)
}

func (s *service) AddItem(ctx context.Context, sessionID string, input AddItemInput) (*models.CartSession, error) {
	id, err := NormalizeSessionID(sessionID)
	if err != nil {
		return nil, err
	}
	if input.Quantity < 1 {
		return nil, invalid("quantity must be at least 1")
	}
	item, err := s.catalog.Item(ctx, input.ItemID)
	if err != nil {
		return nil, err
	}
	if !item.PartnerActive {
		return nil, invalid(fmt.Sprintf("%s is not accepting orders", item.PartnerName))
	}
	if !item.IsAvailable {
		return nil, invalid(fmt.Sprintf("%s is unavailable", item.Name))
	}

	session, err := s.repo.Find(ctx, id)
	created := false
	switch {
	case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
		session = NewAggregate(id).Session()
		created = true
	case err != nil:
		return nil, err
	}

	agg := Wrap(session)
	if _, err := agg.Add(*item, input.Quantity, input.Notes); err != nil {
		return nil, err
	}
	if created {
		err = s.repo.Create(ctx, session)
	} else {
		err = s.repo.Save(ctx, session)
	}
	if err != nil {
		return nil, err
	}
	s.logg.Debug(s.logg.WithSessionID(ctx, id), "cart item added")
	return session, nil
}

func (s *service) UpdateItem(ctx context.Context, sessionID string, lineItemID uuid.UUID, input UpdateItemInput) (*models.CartSession, error) {
	return s.mutate(ctx, sessionID, func(agg *Aggregate) error {
		_, err := agg.UpdateLine(lineItemID, input.Quantity, input.Notes)
		return err
	})
}

func (s *service) RemoveItem(ctx context.Context, sessionID string, lineItemID uuid.UUID) (*models.CartSession, error) {
	return s.mutate(ctx, sessionID, func(agg *Aggregate) error {
		return agg.RemoveLine(lineItemID)
	})
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	id, err := NormalizeSessionID(sessionID)
	if err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	return nil
}

func (s *service) QuoteDelivery(ctx context.Context, sessionID, postalCode string) (*models.CartSession, error) {
	return s.mutate(ctx, sessionID, func(agg *Aggregate) error {
		if agg.IsEmpty() {
			return invalid("cannot quote delivery for an empty cart")
		}
		quote, err := s.delivery.Quote(ctx, postalCode, agg.PartnerCount(), s.now())
		if err != nil {
			return err
		}
		agg.ApplyQuote(quote.Zone.PostalCode, *quote)
		return nil
	})
}

func (s *service) Validate(ctx context.Context, sessionID string) (*ValidationResult, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	items, err := s.catalog.Items(ctx, ItemIDs(session))
	if err != nil {
		return nil, err
	}
	result := Evaluate(session, items)
	return &result, nil
}

func (s *service) mutate(ctx context.Context, sessionID string, command func(agg *Aggregate) error) (*models.CartSession, error) {
	id, err := NormalizeSessionID(sessionID)
	if err != nil {
		return nil, err
	}
	session, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := command(Wrap(session)); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}
