package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-shop-backend/internal/repository"
)

type staticCounter int64

func (c staticCounter) Count(context.Context) (int64, error) { return int64(c), nil }

type fakeSalesRepo struct {
	sales   int64
	revenue int64
	rows    []repository.DailySalesRow
}

func (r *fakeSalesRepo) SalesSummary(context.Context) (int64, int64, error) {
	return r.sales, r.revenue, nil
}

func (r *fakeSalesRepo) DailySales(context.Context, time.Time, time.Time) ([]repository.DailySalesRow, error) {
	return r.rows, nil
}

func TestAnalyticsOverview(t *testing.T) {
	svc := NewAnalyticsService(staticCounter(12), staticCounter(34), &fakeSalesRepo{sales: 5, revenue: 123400})

	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)
	require.Equal(t, Overview{Users: 12, Products: 34, TotalSales: 5, RevenueCents: 123400}, overview)
}

func TestAnalyticsDailySalesZeroFill(t *testing.T) {
	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	svc := NewAnalyticsService(staticCounter(0), staticCounter(0), &fakeSalesRepo{
		rows: []repository.DailySalesRow{
			{Day: "2026-08-25", Sales: 2, RevenueCents: 4000},
			{Day: "2026-08-28", Sales: 1, RevenueCents: 1500},
		},
	})
	svc.now = func() time.Time { return base }

	points, err := svc.DailySales(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, points, 7)

	require.Equal(t, "2026-08-23", points[0].Date)
	require.Equal(t, "2026-08-29", points[6].Date)

	// Days without orders are zero-filled; reported days keep their totals.
	require.Equal(t, int64(0), points[0].Sales)
	require.Equal(t, DailySalesPoint{Date: "2026-08-25", Sales: 2, RevenueCents: 4000}, points[2])
	require.Equal(t, DailySalesPoint{Date: "2026-08-28", Sales: 1, RevenueCents: 1500}, points[5])
	require.Equal(t, int64(0), points[6].Sales)
}
