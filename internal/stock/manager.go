// Package stock reserves and releases finite menu item stock against orders.
package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/quickbite-backend/pkg/db/models"
	"github.com/angelmondragon/quickbite-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/quickbite-backend/pkg/errors"
)

const ReasonOrderCreated = "order created"

// Manager mutates stock_quantity atomically and keeps the reservation audit trail.
type Manager interface {
	Reserve(ctx context.Context, tx *gorm.DB, orderID, itemID uuid.UUID, qty int) error
	Release(ctx context.Context, tx *gorm.DB, orderID, itemID uuid.UUID, qty int, reason string) (bool, error)
	PruneHistory(ctx context.Context, cutoff time.Time) (int64, error)
}

type manager struct {
	db  *gorm.DB
	now func() time.Time
}

func NewManager(db *gorm.DB) (Manager, error) {
	if db == nil {
		return nil, fmt.Errorf("database required")
	}
	return &manager{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Reserve decrements stock with a single conditional UPDATE so concurrent orders can
// never drive stock_quantity below zero.
func (m *manager) Reserve(ctx context.Context, tx *gorm.DB, orderID, itemID uuid.UUID, qty int) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if qty < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "reserve quantity must be at least 1")
	}
	res := tx.WithContext(ctx).
		Model(&models.MenuItem{}).
		Where("id = ? AND stock_quantity IS NOT NULL AND stock_quantity >= ?", itemID, qty).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement stock")
	}
	if res.RowsAffected == 0 {
		return insufficient(ctx, tx, itemID, qty)
	}

	entry := models.ReservationHistory{
		OrderID:       orderID,
		ItemID:        itemID,
		Kind:          enums.ReservationKindReserve,
		QuantityDelta: -qty,
		Reason:        ReasonOrderCreated,
		CreatedAt:     m.now(),
	}
	if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record reservation")
	}
	return nil
}

// Release credits qty back once per (order, item). The release row is claimed first with
// ON CONFLICT DO NOTHING; only the claimant increments stock.
func (m *manager) Release(ctx context.Context, tx *gorm.DB, orderID, itemID uuid.UUID, qty int, reason string) (bool, error) {
	if tx == nil {
		return false, errors.New("transaction required")
	}
	if qty < 1 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "release quantity must be at least 1")
	}
	entry := models.ReservationHistory{
		OrderID:       orderID,
		ItemID:        itemID,
		Kind:          enums.ReservationKindRelease,
		QuantityDelta: qty,
		Reason:        reason,
		CreatedAt:     m.now(),
	}
	claim := tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entry)
	if claim.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, claim.Error, "record release")
	}
	if claim.RowsAffected == 0 {
		return false, nil
	}

	res := tx.WithContext(ctx).
		Model(&models.MenuItem{}).
		Where("id = ? AND stock_quantity IS NOT NULL", itemID).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", qty))
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "increment stock")
	}
	return true, nil
}

func (m *manager) PruneHistory(ctx context.Context, cutoff time.Time) (int64, error) {
	res := m.db.WithContext(ctx).
		Where("created_at < ?", cutoff.UTC()).
		Delete(&models.ReservationHistory{})
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "prune reservation history")
	}
	return res.RowsAffected, nil
}

func insufficient(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, requested int) error {
	var item models.MenuItem
	details := map[string]any{"item_id": itemID, "requested": requested}
	err := tx.WithContext(ctx).Select("id", "name", "stock_quantity").Where("id = ?", itemID).First(&item).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
	case err != nil:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu item stock")
	}
	details["name"] = item.Name
	if item.StockQuantity != nil {
		details["available"] = *item.StockQuantity
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("only limited stock left for %s", item.Name)).
		WithDetails(details)
}
