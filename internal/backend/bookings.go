package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mylankajourney/admin-console/internal/domain"
)

// TripPlans lists every booking request.
func (c *Client) TripPlans(ctx context.Context) ([]domain.Booking, error) {
	resp, err := c.do(ctx, request{method: http.MethodGet, path: "admin/trip-plans"})
	if err != nil {
		return nil, fmt.Errorf("backend.Client.TripPlans: %w", err)
	}
	bookings, err := decode[[]domain.Booking](resp.body)
	if err != nil {
		return nil, fmt.Errorf("backend.Client.TripPlans: %w", err)
	}
	return bookings, nil
}

// TripPlan fetches a single booking request.
func (c *Client) TripPlan(ctx context.Context, id string) (domain.Booking, error) {
	resp, err := c.do(ctx, request{method: http.MethodGet, path: "admin/trip-plans/" + url.PathEscape(id)})
	if err != nil {
		return domain.Booking{}, fmt.Errorf("backend.Client.TripPlan: %w", err)
	}
	b, err := decode[domain.Booking](resp.body)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("backend.Client.TripPlan: %w", err)
	}
	return b, nil
}

// Dashboard fetches the summary shown on the console's home page.
func (c *Client) Dashboard(ctx context.Context) (domain.Dashboard, error) {
	resp, err := c.do(ctx, request{method: http.MethodGet, path: "admin/dashboard"})
	if err != nil {
		return domain.Dashboard{}, fmt.Errorf("backend.Client.Dashboard: %w", err)
	}
	d, err := decode[domain.Dashboard](resp.body)
	if err != nil {
		return domain.Dashboard{}, fmt.Errorf("backend.Client.Dashboard: %w", err)
	}
	return d, nil
}
