package cron

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	redispkg "github.com/angelmondragon/quickbite-backend/pkg/redis"
)

func TestRedisLockIsExclusiveAndOwnerScoped(t *testing.T) {
	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	client := redispkg.FromRaw(raw)
	ctx := context.Background()

	first, err := NewRedisLock(client, "", time.Minute)
	require.NoError(t, err)
	second, err := NewRedisLock(client, DefaultLockName, time.Minute)
	require.NoError(t, err)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, time.Minute, mr.TTL(client.LockKey(DefaultLockName)))

	require.NoError(t, second.Release(ctx), "non-owner release is a no-op")
	require.True(t, mr.Exists(client.LockKey(DefaultLockName)))

	require.NoError(t, first.Release(ctx))
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
}
