package stock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/quickbite-backend/pkg/db/dbtest"
	"github.com/angelmondragon/quickbite-backend/pkg/db/models"
	"github.com/angelmondragon/quickbite-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/quickbite-backend/pkg/errors"
)

func TestReserveDecrementsAndRecords(t *testing.T) {
	conn := dbtest.Open(t)
	partner := dbtest.SeedPartner(t, conn, "Bakery", "0", 5)
	item := dbtest.SeedItem(t, conn, partner.ID, "Croissant", "2.20", dbtest.Stock(5))
	mgr, err := NewManager(conn)
	require.NoError(t, err)

	orderID := uuid.New()
	require.NoError(t, mgr.Reserve(context.Background(), conn, orderID, item.ID, 3))
	require.Equal(t, 2, *dbtest.StockOf(t, conn, item.ID))

	var rows []models.ReservationHistory
	require.NoError(t, conn.Where("order_id = ?", orderID).Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, enums.ReservationKindReserve, rows[0].Kind)
	require.Equal(t, -3, rows[0].QuantityDelta)
}

func TestReserveInsufficientLeavesStockUntouched(t *testing.T) {
	conn := dbtest.Open(t)
	partner := dbtest.SeedPartner(t, conn, "Bakery", "0", 5)
	item := dbtest.SeedItem(t, conn, partner.ID, "Baguette", "1.80", dbtest.Stock(1))
	mgr, _ := NewManager(conn)

	err := mgr.Reserve(context.Background(), conn, uuid.New(), item.ID, 2)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock), "got %v", err)
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	require.Equal(t, 1, details["available"])
	require.Equal(t, 1, *dbtest.StockOf(t, conn, item.ID))

	require.True(t, pkgerrors.IsCode(mgr.Reserve(context.Background(), conn, uuid.New(), uuid.New(), 1), pkgerrors.CodeNotFound))
	require.True(t, pkgerrors.IsCode(mgr.Reserve(context.Background(), conn, uuid.New(), item.ID, 0), pkgerrors.CodeValidation))
}

func TestConcurrentReservesNeverOversell(t *testing.T) {
	client, conn := dbtest.Client(t)
	partner := dbtest.SeedPartner(t, conn, "Bakery", "0", 5)
	item := dbtest.SeedItem(t, conn, partner.ID, "Eclair", "3.10", dbtest.Stock(3))
	mgr, _ := NewManager(conn)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
				return mgr.Reserve(context.Background(), tx, uuid.New(), item.ID, 1)
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 3, succeeded)
	require.Equal(t, 0, *dbtest.StockOf(t, conn, item.ID))
}

func TestReleaseIsIdempotent(t *testing.T) {
	conn := dbtest.Open(t)
	partner := dbtest.SeedPartner(t, conn, "Bakery", "0", 5)
	item := dbtest.SeedItem(t, conn, partner.ID, "Muffin", "2.50", dbtest.Stock(4))
	mgr, _ := NewManager(conn)
	orderID := uuid.New()

	require.NoError(t, mgr.Reserve(context.Background(), conn, orderID, item.ID, 2))
	credited, err := mgr.Release(context.Background(), conn, orderID, item.ID, 2, "cancelled")
	require.NoError(t, err)
	require.True(t, credited)
	credited, err = mgr.Release(context.Background(), conn, orderID, item.ID, 2, "cancelled")
	require.NoError(t, err)
	require.False(t, credited)
	require.Equal(t, 4, *dbtest.StockOf(t, conn, item.ID))

	var releases int64
	require.NoError(t, conn.Model(&models.ReservationHistory{}).
		Where("order_id = ? AND kind = ?", orderID, enums.ReservationKindRelease).
		Count(&releases).Error)
	require.EqualValues(t, 1, releases)
}

func TestPruneHistoryDeletesOldRows(t *testing.T) {
	conn := dbtest.Open(t)
	partner := dbtest.SeedPartner(t, conn, "Bakery", "0", 5)
	item := dbtest.SeedItem(t, conn, partner.ID, "Scone", "2.00", dbtest.Stock(10))
	m, _ := NewManager(conn)
	mgr := m.(*manager)

	old := time.Now().UTC().Add(-40 * 24 * time.Hour)
	mgr.now = func() time.Time { return old }
	require.NoError(t, mgr.Reserve(context.Background(), conn, uuid.New(), item.ID, 1))
	mgr.now = func() time.Time { return time.Now().UTC() }
	require.NoError(t, mgr.Reserve(context.Background(), conn, uuid.New(), item.ID, 1))

	pruned, err := mgr.PruneHistory(context.Background(), time.Now().UTC().Add(-30*24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, pruned)

	var remaining int64
	require.NoError(t, conn.Model(&models.ReservationHistory{}).Count(&remaining).Error)
	require.EqualValues(t, 1, remaining)
}
