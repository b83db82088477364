package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-shop-backend/internal/model"
)

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

const productColumns = `id, name, description, price_cents, image_url, image_public_id, category, is_featured, created_at, updated_at`

func scanProduct(row pgx.Row) (model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.ImageURL,
		&p.ImagePublicID, &p.Category, &p.IsFeatured, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (model.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Product{}, model.ErrProductNotFound
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("find product by id: %w", err)
	}
	return p, nil
}

func (r *ProductRepository) List(ctx context.Context) ([]model.Product, error) {
	return r.queryMany(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
}

func (r *ProductRepository) ListFeatured(ctx context.Context) ([]model.Product, error) {
	return r.queryMany(ctx,
		`SELECT `+productColumns+` FROM products WHERE is_featured ORDER BY created_at DESC`)
}

func (r *ProductRepository) ListByCategory(ctx context.Context, category string) ([]model.Product, error) {
	return r.queryMany(ctx,
		`SELECT `+productColumns+` FROM products WHERE category = $1 ORDER BY created_at DESC`, category)
}

// ListRandom returns up to limit products in random order, used for the
// storefront recommendation strip.
func (r *ProductRepository) ListRandom(ctx context.Context, limit int) ([]model.Product, error) {
	return r.queryMany(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY random() LIMIT $1`, limit)
}

func (r *ProductRepository) Create(ctx context.Context, p model.Product) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO products (id, name, description, price_cents, image_url, image_public_id, category, is_featured, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.Name, p.Description, p.PriceCents, p.ImageURL, p.ImagePublicID,
		p.Category, p.IsFeatured, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

// ToggleFeatured flips is_featured and returns the updated product.
func (r *ProductRepository) ToggleFeatured(ctx context.Context, id string) (model.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx,
		`UPDATE products SET is_featured = NOT is_featured, updated_at = $2
		 WHERE id = $1
		 RETURNING `+productColumns, id, time.Now().UTC()))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Product{}, model.ErrProductNotFound
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("toggle featured: %w", err)
	}
	return p, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

func (r *ProductRepository) queryMany(ctx context.Context, query string, args ...any) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]model.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
