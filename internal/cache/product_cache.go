package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"go-shop-backend/internal/model"
)

const featuredProductsKey = "featured_products"

// ProductCache keeps the featured-product list in Redis so the storefront
// landing page does not hit Postgres on every request.
type ProductCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewProductCache(client redis.UniversalClient, ttl time.Duration) *ProductCache {
	return &ProductCache{client: client, ttl: ttl}
}

// GetFeatured returns the cached list, or (nil, false, nil) on a miss.
func (c *ProductCache) GetFeatured(ctx context.Context) ([]model.Product, bool, error) {
	data, err := c.client.Get(ctx, featuredProductsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get featured products cache: %w", err)
	}

	var products []model.Product
	if err := json.Unmarshal(data, &products); err != nil {
		// A corrupt entry is treated as a miss; the caller refills it.
		return nil, false, nil
	}
	return products, true, nil
}

func (c *ProductCache) SetFeatured(ctx context.Context, products []model.Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("marshal featured products: %w", err)
	}
	if err := c.client.Set(ctx, featuredProductsKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set featured products cache: %w", err)
	}
	return nil
}

func (c *ProductCache) InvalidateFeatured(ctx context.Context) error {
	if err := c.client.Del(ctx, featuredProductsKey).Err(); err != nil {
		return fmt.Errorf("invalidate featured products cache: %w", err)
	}
	return nil
}
