package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"go-shop-backend/internal/model"
)

func newTestCache(t *testing.T) (*ProductCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewProductCache(client, time.Hour), mr
}

func TestProductCache(t *testing.T) {
	ctx := context.Background()

	t.Run("miss before first fill", func(t *testing.T) {
		cache, _ := newTestCache(t)

		_, found, err := cache.GetFeatured(ctx)
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("round trip", func(t *testing.T) {
		cache, _ := newTestCache(t)

		products := []model.Product{
			{ID: "p1", Name: "Mug", PriceCents: 1299, IsFeatured: true},
			{ID: "p2", Name: "Shirt", PriceCents: 2599, IsFeatured: true},
		}
		require.NoError(t, cache.SetFeatured(ctx, products))

		got, found, err := cache.GetFeatured(ctx)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, products, got)
	})

	t.Run("invalidate clears the entry", func(t *testing.T) {
		cache, _ := newTestCache(t)

		require.NoError(t, cache.SetFeatured(ctx, []model.Product{{ID: "p1"}}))
		require.NoError(t, cache.InvalidateFeatured(ctx))

		_, found, err := cache.GetFeatured(ctx)
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("corrupt entry reads as a miss", func(t *testing.T) {
		cache, mr := newTestCache(t)

		mr.Set(featuredProductsKey, "{not json")

		_, found, err := cache.GetFeatured(ctx)
		require.NoError(t, err)
		require.False(t, found)
	})
}
