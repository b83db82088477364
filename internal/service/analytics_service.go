package service

import (
	"context"
	"time"

	"go-shop-backend/internal/repository"
)

// Counter reports the number of rows owned by a repository.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// SalesRepo is the slice of the order repository analytics needs.
type SalesRepo interface {
	SalesSummary(ctx context.Context) (int64, int64, error)
	DailySales(ctx context.Context, start time.Time, end time.Time) ([]repository.DailySalesRow, error)
}

type Overview struct {
	Users        int64 `json:"users"`
	Products     int64 `json:"products"`
	TotalSales   int64 `json:"total_sales"`
	RevenueCents int64 `json:"revenue_cents"`
}

type DailySalesPoint struct {
	Date         string `json:"date"`
	Sales        int64  `json:"sales"`
	RevenueCents int64  `json:"revenue_cents"`
}

// AnalyticsService aggregates store-wide counters for the admin dashboard.
type AnalyticsService struct {
	users    Counter
	products Counter
	sales    SalesRepo
	now      func() time.Time
}

func NewAnalyticsService(users Counter, products Counter, sales SalesRepo) *AnalyticsService {
	return &AnalyticsService{users: users, products: products, sales: sales, now: time.Now}
}

func (s *AnalyticsService) Overview(ctx context.Context) (Overview, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return Overview{}, err
	}
	products, err := s.products.Count(ctx)
	if err != nil {
		return Overview{}, err
	}
	sales, revenue, err := s.sales.SalesSummary(ctx)
	if err != nil {
		return Overview{}, err
	}

	return Overview{
		Users:        users,
		Products:     products,
		TotalSales:   sales,
		RevenueCents: revenue,
	}, nil
}

// DailySales returns one point per day over the last `days` days, zero-
// filled where no orders landed so charts have a continuous axis.
func (s *AnalyticsService) DailySales(ctx context.Context, days int) ([]DailySalesPoint, error) {
	if days <= 0 {
		days = 7
	}

	end := s.now().UTC()
	start := end.AddDate(0, 0, -(days - 1)).Truncate(24 * time.Hour)

	rows, err := s.sales.DailySales(ctx, start, end)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]repository.DailySalesRow, len(rows))
	for _, row := range rows {
		byDay[row.Day] = row
	}

	points := make([]DailySalesPoint, 0, days)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		point := DailySalesPoint{Date: key}
		if row, ok := byDay[key]; ok {
			point.Sales = row.Sales
			point.RevenueCents = row.RevenueCents
		}
		points = append(points, point)
	}
	return points, nil
}
