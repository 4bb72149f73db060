package service

import (
	"context"
	"fmt"

	"github.com/mylankajourney/admin-console/internal/domain"
)

// DashboardSource serves the backend's dashboard summary.
type DashboardSource interface {
	Dashboard(ctx context.Context) (domain.Dashboard, error)
}

// DashboardService feeds the console's home page.
type DashboardService struct {
	src DashboardSource
}

// NewDashboardService constructs a DashboardService reading from src.
func NewDashboardService(src DashboardSource) *DashboardService {
	return &DashboardService{src: src}
}

// Summary returns the dashboard. On failure it returns zeroed metrics with
// empty, non-nil series alongside the error so the page can still render.
func (s *DashboardService) Summary(ctx context.Context) (domain.Dashboard, error) {
	d, err := s.src.Dashboard(ctx)
	if err != nil {
		return emptyDashboard(), fmt.Errorf("service.DashboardService.Summary: %w", err)
	}
	if d.BookingTrends == nil {
		d.BookingTrends = []domain.MonthCount{}
	}
	if d.BookingsByCountry == nil {
		d.BookingsByCountry = []domain.NamedValue{}
	}
	if d.PopularActivities == nil {
		d.PopularActivities = []domain.NamedValue{}
	}
	if d.RecentBookings == nil {
		d.RecentBookings = []domain.RecentBooking{}
	}
	return d, nil
}

func emptyDashboard() domain.Dashboard {
	return domain.Dashboard{
		BookingTrends:     []domain.MonthCount{},
		BookingsByCountry: []domain.NamedValue{},
		PopularActivities: []domain.NamedValue{},
		RecentBookings:    []domain.RecentBooking{},
	}
}
