package cart

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	dbpkg "github.com/angelmondragon/quickbite-backend/pkg/db"
	"github.com/angelmondragon/quickbite-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/quickbite-backend/pkg/errors"
)

// Repository persists cart sessions with optimistic version checks.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, sessionID string) (*models.CartSession, error)
	Create(ctx context.Context, session *models.CartSession) error
	Save(ctx context.Context, session *models.CartSession) error
	Delete(ctx context.Context, sessionID string) (int64, error)
	DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int64, error)
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

func (r *repository) Find(ctx context.Context, sessionID string) (*models.CartSession, error) {
	var session models.CartSession
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return &session, nil
}

func (r *repository) Create(ctx context.Context, session *models.CartSession) error {
	session.Version = 1
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart was created concurrently")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return nil
}

// Save writes the session only if nobody bumped the version since it was read.
func (r *repository) Save(ctx context.Context, session *models.CartSession) error {
	expected := session.Version
	res := r.db.WithContext(ctx).
		Model(&models.CartSession{}).
		Where("session_id = ? AND version = ?", session.SessionID, expected).
		Updates(map[string]any{
			"partner_carts":  session.PartnerCarts,
			"delivery_quote": session.DeliveryQuote,
			"items_total":    session.ItemsTotal,
			"delivery_fee":   session.DeliveryFee,
			"grand_total":    session.GrandTotal,
			"version":        expected + 1,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "save cart")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "cart was modified concurrently")
	}
	session.Version = expected + 1
	return nil
}

func (r *repository) Delete(ctx context.Context, sessionID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&models.CartSession{})
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "delete cart")
	}
	return res.RowsAffected, nil
}

func (r *repository) DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("updated_at < ?", cutoff.UTC()).Delete(&models.CartSession{})
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "delete idle carts")
	}
	return res.RowsAffected, nil
}
