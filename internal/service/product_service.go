package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-shop-backend/internal/event"
	"go-shop-backend/internal/media"
	"go-shop-backend/internal/model"
)

const productImageFolder = "products"

// ProductRepo is the slice of the product repository the catalog needs.
type ProductRepo interface {
	FindByID(ctx context.Context, id string) (model.Product, error)
	List(ctx context.Context) ([]model.Product, error)
	ListFeatured(ctx context.Context) ([]model.Product, error)
	ListByCategory(ctx context.Context, category string) ([]model.Product, error)
	ListRandom(ctx context.Context, limit int) ([]model.Product, error)
	Create(ctx context.Context, p model.Product) error
	ToggleFeatured(ctx context.Context, id string) (model.Product, error)
	Delete(ctx context.Context, id string) error
}

// FeaturedCache caches the featured-product list.
type FeaturedCache interface {
	GetFeatured(ctx context.Context) ([]model.Product, bool, error)
	SetFeatured(ctx context.Context, products []model.Product) error
	InvalidateFeatured(ctx context.Context) error
}

// ProductService is the storefront catalog. Cache failures degrade to
// database reads; they never fail a storefront request.
type ProductService struct {
	products ProductRepo
	cache    FeaturedCache
	uploader media.Uploader
	bus      event.Bus
	now      func() time.Time
}

func NewProductService(products ProductRepo, cache FeaturedCache, uploader media.Uploader, bus event.Bus) *ProductService {
	return &ProductService{
		products: products,
		cache:    cache,
		uploader: uploader,
		bus:      bus,
		now:      time.Now,
	}
}

func (s *ProductService) List(ctx context.Context) ([]model.Product, error) {
	return s.products.List(ctx)
}

// Featured reads through the cache: hit -> cached list, miss -> database,
// then refill.
func (s *ProductService) Featured(ctx context.Context) ([]model.Product, error) {
	cached, found, err := s.cache.GetFeatured(ctx)
	if err != nil {
		slog.Warn("featured products cache read failed", "error", err)
	}
	if found {
		return cached, nil
	}

	products, err := s.products.ListFeatured(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetFeatured(ctx, products); err != nil {
		slog.Warn("featured products cache fill failed", "error", err)
	}
	return products, nil
}

func (s *ProductService) ByCategory(ctx context.Context, category string) ([]model.Product, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, fmt.Errorf("%w: category is required", model.ErrInvalidInput)
	}
	return s.products.ListByCategory(ctx, category)
}

func (s *ProductService) Recommended(ctx context.Context) ([]model.Product, error) {
	return s.products.ListRandom(ctx, 4)
}

func (s *ProductService) Create(ctx context.Context, req model.CreateProductRequest) (model.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.PriceCents < 0 {
		return model.Product{}, fmt.Errorf("%w: name and a non-negative price are required", model.ErrInvalidInput)
	}

	var imageURL, imagePublicID string
	if req.Image != "" {
		uploaded, err := s.uploader.Upload(ctx, req.Image, productImageFolder)
		if err != nil {
			return model.Product{}, err
		}
		imageURL = uploaded.URL
		imagePublicID = uploaded.PublicID
	}

	now := s.now().UTC()
	product := model.Product{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Description:   req.Description,
		PriceCents:    req.PriceCents,
		ImageURL:      imageURL,
		ImagePublicID: imagePublicID,
		Category:      strings.TrimSpace(req.Category),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.products.Create(ctx, product); err != nil {
		return model.Product{}, err
	}

	s.publish(event.TypeProductCreated, product.ID)
	return product, nil
}

// ToggleFeatured flips the flag and refreshes the featured cache so the
// storefront sees the change immediately.
func (s *ProductService) ToggleFeatured(ctx context.Context, id string) (model.Product, error) {
	product, err := s.products.ToggleFeatured(ctx, id)
	if err != nil {
		return model.Product{}, err
	}

	s.refreshFeaturedCache(ctx)
	s.publish(event.TypeProductUpdated, product.ID)
	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if product.ImagePublicID != "" {
		if err := s.uploader.Destroy(ctx, product.ImagePublicID); err != nil {
			slog.Warn("delete product: image destroy failed", "product_id", id, "error", err)
		}
	}

	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}

	if product.IsFeatured {
		s.refreshFeaturedCache(ctx)
	}
	s.publish(event.TypeProductDeleted, product.ID)
	return nil
}

func (s *ProductService) refreshFeaturedCache(ctx context.Context) {
	products, err := s.products.ListFeatured(ctx)
	if err != nil {
		slog.Warn("featured cache refresh: list failed", "error", err)
		if err := s.cache.InvalidateFeatured(ctx); err != nil {
			slog.Warn("featured cache invalidation failed", "error", err)
		}
		return
	}
	if err := s.cache.SetFeatured(ctx, products); err != nil {
		slog.Warn("featured cache refresh failed", "error", err)
	}
}

func (s *ProductService) publish(t event.Type, productID string) {
	s.bus.Publish(event.Event{
		ID:        uuid.NewString(),
		Type:      t,
		Payload:   map[string]string{"product_id": productID},
		Timestamp: s.now().UTC().Format(time.RFC3339),
	})
}
