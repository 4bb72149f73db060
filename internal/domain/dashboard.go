package domain

// Dashboard is the summary served by the backend's dashboard endpoint.
// Field names follow the backend's camelCase payload.
type Dashboard struct {
	TotalBookings     int             `json:"totalBookings"`
	TotalCountries    int             `json:"totalCountries"`
	BookingTrends     []MonthCount    `json:"bookingTrends"`
	BookingsByCountry []NamedValue    `json:"bookingsByCountry"`
	PopularActivities []NamedValue    `json:"popularActivities"`
	RecentBookings    []RecentBooking `json:"recentBookings"`
}

type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type NamedValue struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type RecentBooking struct {
	ID                  int    `json:"id"`
	FirstName           string `json:"first_name"`
	LastName            string `json:"last_name"`
	Country             string `json:"country"`
	PreferredTravelDate string `json:"preferred_travel_date"`
}
