package orders

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	redispkg "github.com/angelmondragon/quickbite-backend/pkg/redis"
)

func newTestRedis(t *testing.T) (*redispkg.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	return redispkg.FromRaw(raw), mr
}

func TestNumberAllocatorSequencesPerUTCDay(t *testing.T) {
	client, mr := newTestRedis(t)
	allocator, err := NewNumberAllocator(client, " qb ")
	require.NoError(t, err)
	ctx := context.Background()

	day := time.Date(2026, 10, 14, 23, 59, 0, 0, time.UTC)
	first, err := allocator.Next(ctx, day)
	require.NoError(t, err)
	second, err := allocator.Next(ctx, day)
	require.NoError(t, err)
	require.Equal(t, "QB-20261014-000001", first)
	require.Equal(t, "QB-20261014-000002", second)

	// 01:00 in UTC+2 is still the 14th in UTC.
	local := time.Date(2026, 10, 15, 1, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	third, err := allocator.Next(ctx, local)
	require.NoError(t, err)
	require.Equal(t, "QB-20261014-000003", third)

	next, err := allocator.Next(ctx, day.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, "QB-20261015-000001", next)

	require.True(t, mr.Exists(client.CounterKey("order_number:20261014")))
	require.Equal(t, numberCounterTTL, mr.TTL(client.CounterKey("order_number:20261015")))
}

func TestNumberAllocatorRequiresStore(t *testing.T) {
	_, err := NewNumberAllocator(nil, "QB")
	require.Error(t, err)
}
