package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/quickbite-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/quickbite-backend/pkg/errors"
)

// ItemSnapshot is the catalog state of a menu item joined with its partner.
type ItemSnapshot struct {
	ItemID          uuid.UUID
	PartnerID       uuid.UUID
	Name            string
	Price           decimal.Decimal
	DiscountPrice   *decimal.Decimal
	IsAvailable     bool
	StockQuantity   *int
	PartnerName     string
	PartnerActive   bool
	MinimumOrder    decimal.Decimal
	PrepTimeMinutes int
	Latitude        float64
	Longitude       float64
}

// EffectivePrice is the discount price when it is positive and below the list price.
func (s ItemSnapshot) EffectivePrice() decimal.Decimal {
	if s.DiscountPrice != nil && s.DiscountPrice.IsPositive() && s.DiscountPrice.LessThan(s.Price) {
		return *s.DiscountPrice
	}
	return s.Price
}

// Orderable reports whether the item can currently be bought.
func (s ItemSnapshot) Orderable() bool {
	return s.IsAvailable && s.PartnerActive
}

// StockTracked reports whether the item carries a finite stock count.
func (s ItemSnapshot) StockTracked() bool {
	return s.StockQuantity != nil
}

// Reader exposes read-only catalog lookups.
type Reader interface {
	WithTx(tx *gorm.DB) Reader
	Items(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]ItemSnapshot, error)
	Item(ctx context.Context, id uuid.UUID) (*ItemSnapshot, error)
	Partner(ctx context.Context, id uuid.UUID) (*models.Partner, error)
}

type reader struct {
	db *gorm.DB
}

func NewReader(db *gorm.DB) Reader {
	return &reader{db: db}
}

func (r *reader) WithTx(tx *gorm.DB) Reader {
	if tx == nil {
		return r
	}
	return &reader{db: tx}
}

func (r *reader) Items(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]ItemSnapshot, error) {
	out := make(map[uuid.UUID]ItemSnapshot, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.MenuItem
	if err := r.db.WithContext(ctx).
		Preload("Partner").
		Where("id IN ?", uniqueIDs(ids)).
		Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu items")
	}
	for _, row := range rows {
		out[row.ID] = snapshotFrom(row)
	}
	return out, nil
}

func (r *reader) Item(ctx context.Context, id uuid.UUID) (*ItemSnapshot, error) {
	var row models.MenuItem
	err := r.db.WithContext(ctx).
		Preload("Partner").
		Where("id = ?", id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu item")
	}
	if row.Partner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "partner not found")
	}
	snapshot := snapshotFrom(row)
	return &snapshot, nil
}

func (r *reader) Partner(ctx context.Context, id uuid.UUID) (*models.Partner, error) {
	var partner models.Partner
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&partner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "partner not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load partner")
	}
	return &partner, nil
}

func snapshotFrom(row models.MenuItem) ItemSnapshot {
	snap := ItemSnapshot{
		ItemID:        row.ID,
		PartnerID:     row.PartnerID,
		Name:          row.Name,
		Price:         row.Price,
		DiscountPrice: row.DiscountPrice,
		IsAvailable:   row.IsAvailable,
		StockQuantity: row.StockQuantity,
	}
	if p := row.Partner; p != nil {
		snap.PartnerName = p.Name
		snap.PartnerActive = p.IsActive
		snap.MinimumOrder = p.MinimumOrder
		snap.PrepTimeMinutes = p.PrepTimeMinutes
		snap.Latitude = p.Latitude
		snap.Longitude = p.Longitude
	}
	return snap
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
