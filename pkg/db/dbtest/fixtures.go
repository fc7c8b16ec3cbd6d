package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/quickbite-backend/pkg/db/models"
)

// Money parses a decimal literal and fails the test on bad input.
func Money(t testing.TB, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse money %q: %v", value, err)
	}
	return d
}

// SeedPartner inserts an active partner with the given minimum order.
func SeedPartner(t testing.TB, conn *gorm.DB, name, minimum string, prepMinutes int) models.Partner {
	t.Helper()
	partner := models.Partner{
		ID:              uuid.New(),
		Name:            name,
		IsActive:        true,
		MinimumOrder:    Money(t, minimum),
		PrepTimeMinutes: prepMinutes,
		Latitude:        40.4168,
		Longitude:       -3.7038,
	}
	if err := conn.Create(&partner).Error; err != nil {
		t.Fatalf("seed partner: %v", err)
	}
	return partner
}

// SeedItem inserts an available menu item. A nil stock leaves the item untracked.
func SeedItem(t testing.TB, conn *gorm.DB, partnerID uuid.UUID, name, price string, stock *int) models.MenuItem {
	t.Helper()
	item := models.MenuItem{
		ID:            uuid.New(),
		PartnerID:     partnerID,
		Name:          name,
		Price:         Money(t, price),
		IsAvailable:   true,
		StockQuantity: stock,
	}
	if err := conn.Create(&item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}

// SeedZone inserts an active zone for postalCode.
func SeedZone(t testing.TB, conn *gorm.DB, postalCode string, zoneNumber int, baseFee, extraFee, peak string) models.DeliveryZone {
	t.Helper()
	zone := models.DeliveryZone{
		PostalCode:              postalCode,
		ZoneNumber:              zoneNumber,
		ZoneName:                "Zone " + postalCode,
		BaseFee:                 Money(t, baseFee),
		PerExtraPartnerFee:      Money(t, extraFee),
		PeakSurcharge:           Money(t, peak),
		EstimatedTransitMinutes: 20,
		MaxDistanceKm:           10,
		IsActive:                true,
	}
	if err := conn.Create(&zone).Error; err != nil {
		t.Fatalf("seed zone: %v", err)
	}
	return zone
}

// Stock returns a pointer to qty for seeding tracked items.
func Stock(qty int) *int {
	return &qty
}

// StockOf reads an item's current stock count.
func StockOf(t testing.TB, conn *gorm.DB, itemID uuid.UUID) *int {
	t.Helper()
	var item models.MenuItem
	if err := conn.Where("id = ?", itemID).First(&item).Error; err != nil {
		t.Fatalf("load item: %v", err)
	}
	return item.StockQuantity
}
