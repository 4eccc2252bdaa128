package redislock

import (
	"context"
	"testing"
	"time"

	"cbrates/internal/adapters"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestLocker_TryLock_HeldElsewhere(t *testing.T) {
	_, client := setupMiniredis(t)
	first := NewLocker(client, time.Minute)
	second := NewLocker(client, time.Minute)
	ctx := context.Background()

	unlock, err := first.TryLock(ctx, "cbrates:refresh")
	require.NoError(t, err)
	require.NotNil(t, unlock)

	_, err = second.TryLock(ctx, "cbrates:refresh")
	require.ErrorIs(t, err, adapters.ErrLockNotAcquired)

	require.NoError(t, unlock(ctx))

	unlock, err = second.TryLock(ctx, "cbrates:refresh")
	require.NoError(t, err)
	require.NoError(t, unlock(ctx))
}

func TestLocker_TryLock_ExpiresWithTTL(t *testing.T) {
	mr, client := setupMiniredis(t)
	l := NewLocker(client, time.Second)
	ctx := context.Background()

	_, err := l.TryLock(ctx, "cbrates:refresh")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	unlock, err := l.TryLock(ctx, "cbrates:refresh")
	require.NoError(t, err)
	require.NoError(t, unlock(ctx))
}

func TestLocker_TryLock_EmptyKey(t *testing.T) {
	_, client := setupMiniredis(t)
	_, err := NewLocker(client, 0).TryLock(context.Background(), "")
	require.Error(t, err)
}

func TestLocker_TryLock_RedisDown(t *testing.T) {
	mr, client := setupMiniredis(t)
	mr.Close()

	_, err := NewLocker(client, time.Second).TryLock(context.Background(), "cbrates:refresh")
	require.Error(t, err)
}
