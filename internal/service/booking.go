package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mylankajourney/admin-console/internal/domain"
)

// TripPlanSource is the read-only bookings endpoint of the backend.
type TripPlanSource interface {
	TripPlans(ctx context.Context) ([]domain.Booking, error)
	TripPlan(ctx context.Context, id string) (domain.Booking, error)
}

// Booking sort orders.
const (
	SortLatest = "latest"
	SortOldest = "oldest"
)

// BookingQuery is the filter bar of the bookings page.
type BookingQuery struct {
	Search  string
	Country string
	Status  string
	Sort    string
}

// BookingList is the visible bookings plus the options of the filter bar.
type BookingList struct {
	Bookings  []domain.Booking
	Total     int
	Countries []string
	Statuses  []string
}

// BookingService lists and exports booking requests.
type BookingService struct {
	src TripPlanSource
}

// NewBookingService constructs a BookingService reading from src.
func NewBookingService(src TripPlanSource) *BookingService {
	return &BookingService{src: src}
}

// List fetches every booking and applies q.
func (s *BookingService) List(ctx context.Context, q BookingQuery) (BookingList, error) {
	all, err := s.src.TripPlans(ctx)
	if err != nil {
		return BookingList{}, fmt.Errorf("service.BookingService.List: %w", err)
	}
	return BookingList{
		Bookings:  FilterBookings(all, q),
		Total:     len(all),
		Countries: distinct(all, func(b domain.Booking) string { return b.Country }),
		Statuses:  distinct(all, func(b domain.Booking) string { return b.Status }),
	}, nil
}

// Get fetches one booking.
func (s *BookingService) Get(ctx context.Context, id string) (domain.Booking, error) {
	b, err := s.src.TripPlan(ctx, id)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("service.BookingService.Get: %w", err)
	}
	return b, nil
}

// FilterBookings returns the bookings matching q in q's sort order. Search
// matches "first last" and e-mail case-insensitively; country and status
// must match exactly unless empty or "all". The input is not modified.
func FilterBookings(all []domain.Booking, q BookingQuery) []domain.Booking {
	needle := strings.ToLower(q.Search)
	out := make([]domain.Booking, 0, len(all))
	for _, b := range all {
		if needle != "" &&
			!strings.Contains(strings.ToLower(b.FullName()), needle) &&
			!strings.Contains(strings.ToLower(b.Email), needle) {
			continue
		}
		if q.Country != "" && q.Country != domain.FilterAll && b.Country != q.Country {
			continue
		}
		if q.Status != "" && q.Status != domain.FilterAll && b.Status != q.Status {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if q.Sort == SortOldest {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func distinct(all []domain.Booking, field func(domain.Booking) string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, b := range all {
		v := field(b)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// bookingCSVHeaders is the first row of every bookings export.
var bookingCSVHeaders = []string{
	"id", "first_name", "last_name", "email", "phone", "country", "status",
	"preferred_travel_date", "no_of_travelers", "adults", "children",
	"hotel_preferences", "food_preferences", "vehicle_preferences", "occasions",
	"travel_buddies", "special_requests", "created_at",
}

// WriteCSV encodes bookings as CSV. List fields are joined with "|" so each
// booking stays on one line.
func WriteCSV(w io.Writer, bookings []domain.Booking) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(bookingCSVHeaders); err != nil {
		return err
	}
	for _, b := range bookings {
		if err := cw.Write(bookingCSVRecord(b)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func bookingCSVRecord(b domain.Booking) []string {
	date := ""
	if b.PreferredTravelDate != nil {
		date = b.PreferredTravelDate.String()
	}
	special := ""
	if b.SpecialRequests != nil {
		special = *b.SpecialRequests
	}
	return []string{
		b.ID.String(),
		b.FirstName,
		b.LastName,
		b.Email,
		b.Phone,
		b.Country,
		b.Status,
		date,
		strconv.Itoa(b.NoOfTravelers),
		optionalInt(b.Adults),
		optionalInt(b.Children),
		strings.Join(b.HotelPreferences, "|"),
		strings.Join(b.FoodPreferences, "|"),
		strings.Join(b.VehiclePreferences, "|"),
		strings.Join(b.Occasions, "|"),
		b.TravelBuddies,
		special,
		formatTime(b.CreatedAt),
	}
}

func optionalInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

// formatTime returns t in RFC3339, or "" for the zero time.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
