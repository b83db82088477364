package credstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"go-shop-backend/internal/model"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client), mr
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()

	t.Run("set then get", func(t *testing.T) {
		store, _ := newTestStore(t)

		require.NoError(t, store.Set(ctx, RefreshTokenKey("u1"), "tok-1", time.Hour))

		value, found, err := store.Get(ctx, RefreshTokenKey("u1"))
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "tok-1", value)
	})

	t.Run("missing key is not an error", func(t *testing.T) {
		store, _ := newTestStore(t)

		_, found, err := store.Get(ctx, RefreshTokenKey("nobody"))
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("set overwrites the previous value", func(t *testing.T) {
		store, _ := newTestStore(t)

		require.NoError(t, store.Set(ctx, RefreshTokenKey("u1"), "old", time.Hour))
		require.NoError(t, store.Set(ctx, RefreshTokenKey("u1"), "new", time.Hour))

		value, found, err := store.Get(ctx, RefreshTokenKey("u1"))
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "new", value)
	})

	t.Run("key expires with its TTL", func(t *testing.T) {
		store, mr := newTestStore(t)

		require.NoError(t, store.Set(ctx, RefreshTokenKey("u1"), "tok", time.Minute))
		mr.FastForward(2 * time.Minute)

		_, found, err := store.Get(ctx, RefreshTokenKey("u1"))
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("del removes the key and is idempotent", func(t *testing.T) {
		store, _ := newTestStore(t)

		require.NoError(t, store.Set(ctx, RefreshTokenKey("u1"), "tok", time.Hour))
		require.NoError(t, store.Del(ctx, RefreshTokenKey("u1")))
		require.NoError(t, store.Del(ctx, RefreshTokenKey("u1")))

		_, found, err := store.Get(ctx, RefreshTokenKey("u1"))
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("outage maps to store unavailable", func(t *testing.T) {
		store, mr := newTestStore(t)
		mr.Close()

		err := store.Set(ctx, RefreshTokenKey("u1"), "tok", time.Hour)
		require.ErrorIs(t, err, model.ErrStoreUnavailable)

		_, _, err = store.Get(ctx, RefreshTokenKey("u1"))
		require.ErrorIs(t, err, model.ErrStoreUnavailable)
	})
}
