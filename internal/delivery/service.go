package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/quickbite-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/quickbite-backend/pkg/errors"
)

// Quote is a zone plus the fee priced for a partner count at a point in time.
type Quote struct {
	Zone     Zone
	Fee      Fee
	QuotedAt time.Time
}

// Service resolves zones and prices delivery.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Resolve(ctx context.Context, postalCode string) (*Zone, error)
	Quote(ctx context.Context, postalCode string, partnerCount int, at time.Time) (*Quote, error)
	IsPeak(at time.Time) bool
}

type service struct {
	db   *gorm.DB
	peak PeakPolicy
}

func NewService(db *gorm.DB, peak PeakPolicy) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("database required")
	}
	if peak == nil {
		peak = NeverPeak
	}
	return &service{db: db, peak: peak}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{db: tx, peak: s.peak}
}

// NormalizePostalCode trims, upper-cases, and strips inner whitespace.
func NormalizePostalCode(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), ""))
}

func (s *service) Resolve(ctx context.Context, postalCode string) (*Zone, error) {
	code := NormalizePostalCode(postalCode)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "postal code is required").
			WithDetails(map[string]any{"errors": []string{"postal code is required"}})
	}
	var row models.DeliveryZone
	err := s.db.WithContext(ctx).
		Where("postal_code = ? AND is_active = ?", code, true).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("postal code %s is not served", code))
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery zone")
	}
	zone := zoneFromModel(row)
	return &zone, nil
}

func (s *service) Quote(ctx context.Context, postalCode string, partnerCount int, at time.Time) (*Quote, error) {
	zone, err := s.Resolve(ctx, postalCode)
	if err != nil {
		return nil, err
	}
	return &Quote{
		Zone:     *zone,
		Fee:      Calculate(partnerCount, *zone, s.peak(at)),
		QuotedAt: at.UTC(),
	}, nil
}

func (s *service) IsPeak(at time.Time) bool {
	return s.peak(at)
}
