package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-shop-backend/internal/model"
)

type CouponRepository struct {
	pool *pgxpool.Pool
}

func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

const couponColumns = `id, code, user_id, discount_percentage, expiration_date, is_active, created_at`

func scanCoupon(row pgx.Row) (model.Coupon, error) {
	var c model.Coupon
	err := row.Scan(&c.ID, &c.Code, &c.UserID, &c.DiscountPercentage,
		&c.ExpirationDate, &c.IsActive, &c.CreatedAt)
	return c, err
}

// FindActive matches a coupon that is active, owned by the account, and not
// yet expired. The partial unique index on (code, user_id) guarantees at
// most one row can match.
func (r *CouponRepository) FindActive(ctx context.Context, code string, userID string) (model.Coupon, error) {
	c, err := scanCoupon(r.pool.QueryRow(ctx,
		`SELECT `+couponColumns+` FROM coupons
		 WHERE code = $1 AND user_id = $2 AND is_active AND expiration_date > now()`,
		code, userID))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Coupon{}, model.ErrCouponNotFound
	}
	if err != nil {
		return model.Coupon{}, fmt.Errorf("find active coupon: %w", err)
	}
	return c, nil
}

// FindActiveForUser returns the account's current active coupon, if any.
func (r *CouponRepository) FindActiveForUser(ctx context.Context, userID string) (model.Coupon, error) {
	c, err := scanCoupon(r.pool.QueryRow(ctx,
		`SELECT `+couponColumns+` FROM coupons
		 WHERE user_id = $1 AND is_active AND expiration_date > now()
		 ORDER BY created_at DESC LIMIT 1`, userID))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Coupon{}, model.ErrCouponNotFound
	}
	if err != nil {
		return model.Coupon{}, fmt.Errorf("find active coupon for user: %w", err)
	}
	return c, nil
}

func (r *CouponRepository) Create(ctx context.Context, c model.Coupon) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO coupons (id, code, user_id, discount_percentage, expiration_date, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.Code, c.UserID, c.DiscountPercentage, c.ExpirationDate, c.IsActive, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create coupon: %w", err)
	}
	return nil
}

// Deactivate marks the coupon consumed. The is_active guard makes the
// update conditional: a coupon already consumed by a concurrent
// confirmation reports zero rows and comes back as ErrCouponNotFound.
func (r *CouponRepository) Deactivate(ctx context.Context, code string, userID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE coupons SET is_active = false
		 WHERE code = $1 AND user_id = $2 AND is_active`,
		code, userID)
	if err != nil {
		return fmt.Errorf("deactivate coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCouponNotFound
	}
	return nil
}

// DeactivateAllForUser retires any active coupons before granting a new
// loyalty coupon, keeping one active coupon per account.
func (r *CouponRepository) DeactivateAllForUser(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE coupons SET is_active = false WHERE user_id = $1 AND is_active`, userID)
	if err != nil {
		return fmt.Errorf("deactivate coupons for user: %w", err)
	}
	return nil
}
