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

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CreateIfAbsent inserts the order and its items unless an order already
// exists for the same provider session. The unique index on
// provider_session_id makes the insert a single conditional write; the
// returned flag reports whether this call created the row. Losing the race
// is a normal outcome, not an error.
func (r *OrderRepository) CreateIfAbsent(ctx context.Context, o model.Order) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin create order tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`INSERT INTO orders (id, user_id, total_cents, provider_session_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (provider_session_id) DO NOTHING`,
		o.ID, o.UserID, o.TotalCents, o.ProviderSessionID, o.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	for _, item := range o.Items {
		_, err := tx.Exec(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, price_cents)
			 VALUES ($1, $2, $3, $4)`,
			o.ID, item.ProductID, item.Quantity, item.PriceCents)
		if err != nil {
			return false, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit create order tx: %w", err)
	}
	return true, nil
}

func (r *OrderRepository) FindByProviderSessionID(ctx context.Context, sessionID string) (model.Order, error) {
	var o model.Order
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, total_cents, provider_session_id, created_at
		 FROM orders WHERE provider_session_id = $1`, sessionID).
		Scan(&o.ID, &o.UserID, &o.TotalCents, &o.ProviderSessionID, &o.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Order{}, model.ErrOrderNotFound
	}
	if err != nil {
		return model.Order{}, fmt.Errorf("find order by provider session: %w", err)
	}

	o.Items, err = r.itemsForOrder(ctx, o.ID)
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderRepository) ListForUser(ctx context.Context, userID string) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, total_cents, provider_session_id, created_at
		 FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders for user: %w", err)
	}
	defer rows.Close()

	orders := make([]model.Order, 0)
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.TotalCents, &o.ProviderSessionID, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		orders[i].Items, err = r.itemsForOrder(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// SalesSummary returns total order count and revenue in minor units.
func (r *OrderRepository) SalesSummary(ctx context.Context) (int64, int64, error) {
	var count int64
	var revenue int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total_cents), 0) FROM orders`).
		Scan(&count, &revenue)
	if err != nil {
		return 0, 0, fmt.Errorf("sales summary: %w", err)
	}
	return count, revenue, nil
}

type DailySalesRow struct {
	Day          string
	Sales        int64
	RevenueCents int64
}

// DailySales groups orders per day within [start, end]; days without orders
// are absent and zero-filled by the caller.
func (r *OrderRepository) DailySales(ctx context.Context, start time.Time, end time.Time) ([]DailySalesRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
		        COUNT(*), COALESCE(SUM(total_cents), 0)
		 FROM orders
		 WHERE created_at >= $1 AND created_at <= $2
		 GROUP BY day ORDER BY day`, start, end)
	if err != nil {
		return nil, fmt.Errorf("daily sales: %w", err)
	}
	defer rows.Close()

	out := make([]DailySalesRow, 0)
	for rows.Next() {
		var row DailySalesRow
		if err := rows.Scan(&row.Day, &row.Sales, &row.RevenueCents); err != nil {
			return nil, fmt.Errorf("scan daily sales: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *OrderRepository) itemsForOrder(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT product_id, quantity, price_cents
		 FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	items := make([]model.OrderItem, 0)
	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.PriceCents); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
