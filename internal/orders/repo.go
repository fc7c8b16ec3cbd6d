package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dbpkg "github.com/angelmondragon/quickbite-backend/pkg/db"
	"github.com/angelmondragon/quickbite-backend/pkg/db/models"
	"github.com/angelmondragon/quickbite-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/quickbite-backend/pkg/errors"
)

const orderNumberConstraint = "ux_orders_order_number"

// Repository persists orders, sub-orders and status history.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*models.Order, error)
	FindByNumber(ctx context.Context, number string) (*models.Order, error)
	UpdateSubOrder(ctx context.Context, sub *models.PartnerSubOrder, from enums.OrderStatus) error
	UpdateOrder(ctx context.Context, orderID uuid.UUID, fields map[string]any) error
	AppendHistory(ctx context.Context, entry *models.OrderStatusEntry) error
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order with its sub-orders, line items and initial history rows.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	err := r.db.WithContext(ctx).Create(order).Error
	if err == nil {
		return nil
	}
	if dbpkg.IsUniqueViolation(err, orderNumberConstraint) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number already allocated")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*models.Order, error) {
	query := r.db.WithContext(ctx)
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.load(query.Where("id = ?", id))
}

func (r *repository) FindByNumber(ctx context.Context, number string) (*models.Order, error) {
	return r.load(r.db.WithContext(ctx).Where("order_number = ?", number))
}

func (r *repository) load(query *gorm.DB) (*models.Order, error) {
	var order models.Order
	err := query.
		Preload("SubOrders", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("SubOrders.Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return &order, nil
}

// UpdateSubOrder writes status, courier and prep time only if the row still holds from.
// Zero rows means another writer moved the sub-order first.
func (r *repository) UpdateSubOrder(ctx context.Context, sub *models.PartnerSubOrder, from enums.OrderStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.PartnerSubOrder{}).
		Where("id = ? AND status = ?", sub.ID, from).
		Updates(map[string]any{
			"status":            sub.Status,
			"courier_id":        sub.CourierID,
			"prep_time_minutes": sub.PrepTimeMinutes,
			"updated_at":        time.Now().UTC(),
		})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update sub-order")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "sub-order was modified concurrently")
	}
	return nil
}

func (r *repository) UpdateOrder(ctx context.Context, orderID uuid.UUID, fields map[string]any) error {
	fields["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", orderID).Updates(fields)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update order")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return nil
}

// AppendHistory assigns the next sequence number for the order. Callers hold the order
// row lock, and the unique (order_id, seq) index rejects any racing writer.
func (r *repository) AppendHistory(ctx context.Context, entry *models.OrderStatusEntry) error {
	var last int
	if err := r.db.WithContext(ctx).
		Model(&models.OrderStatusEntry{}).
		Where("order_id = ?", entry.OrderID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&last).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read history sequence")
	}
	entry.Seq = last + 1
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "status history was appended concurrently")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
	}
	return nil
}

func (r *repository) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("overall_status = ? AND created_at < ?", enums.OrderStatusPending, cutoff).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stale pending orders")
	}
	return ids, nil
}
