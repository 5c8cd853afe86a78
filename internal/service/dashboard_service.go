package service

import (
	"context"
	"fmt"

	"asur-wears/internal/models"
)

const dashboardListSize = 5

// Dashboard is the admin overview
type Dashboard struct {
	TotalProducts  int64                 `json:"totalProducts"`
	TotalOrders    int64                 `json:"totalOrders"`
	PendingOrders  int64                 `json:"pendingOrders"`
	TotalUsers     int64                 `json:"totalUsers"`
	TotalRevenue   float64               `json:"totalRevenue"`
	RecentOrders   []models.Order        `json:"recentOrders"`
	TopProducts    []models.Product      `json:"topProducts"`
	TodayAnalytics models.DailyAnalytics `json:"todayAnalytics"`
}

// DashboardService assembles the admin overview
type DashboardService struct {
	stats     DashboardStore
	analytics *AnalyticsService
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(stats DashboardStore, analytics *AnalyticsService) *DashboardService {
	return &DashboardService{stats: stats, analytics: analytics}
}

// Dashboard gathers counts, revenue and the short lists shown to staff
func (s *DashboardService) Dashboard(ctx context.Context) (*Dashboard, error) {
	var (
		d   Dashboard
		err error
	)

	if d.TotalProducts, err = s.stats.CountProducts(ctx); err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	if d.TotalOrders, err = s.stats.CountOrders(ctx, ""); err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	if d.PendingOrders, err = s.stats.CountOrders(ctx, models.OrderStatusPending); err != nil {
		return nil, fmt.Errorf("failed to count pending orders: %w", err)
	}
	if d.TotalUsers, err = s.stats.CountUsers(ctx); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if d.TotalRevenue, err = s.stats.Revenue(ctx); err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	if d.RecentOrders, err = s.stats.RecentOrders(ctx, dashboardListSize); err != nil {
		return nil, fmt.Errorf("failed to load recent orders: %w", err)
	}
	if d.TopProducts, err = s.stats.TopSellingProducts(ctx, dashboardListSize); err != nil {
		return nil, fmt.Errorf("failed to load top products: %w", err)
	}
	if d.TodayAnalytics, err = s.analytics.Today(ctx); err != nil {
		return nil, err
	}
	return &d, nil
}
