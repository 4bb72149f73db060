package domain

import (
	"encoding/json"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Booking is a trip plan submitted by a traveller. Bookings are read-only in
// the console. Preference fields arrive either as a single string or as a list.
type Booking struct {
	ID                  json.Number         `json:"id"`
	FirstName           string              `json:"first_name"`
	LastName            string              `json:"last_name"`
	Email               string              `json:"email"`
	Phone               string              `json:"phone"`
	Country             string              `json:"country"`
	Status              string              `json:"status,omitempty"`
	PreferredTravelDate *openapi_types.Date `json:"preferred_travel_date,omitempty"`
	NoOfTravelers       int                 `json:"no_of_travelers"`
	Adults              *int                `json:"adults,omitempty"`
	Children            *int                `json:"children,omitempty"`
	SpecialRequests     *string             `json:"special_requests"`
	HotelPreferences    StringList          `json:"hotel_preferences"`
	FoodPreferences     StringList          `json:"food_preferences"`
	VehiclePreferences  StringList          `json:"vehicle_preferences"`
	Occasions           StringList          `json:"occasions,omitempty"`
	TravelBuddies       string              `json:"travel_buddies,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// FullName is "first last", the text the bookings search matches against.
func (b Booking) FullName() string {
	return b.FirstName + " " + b.LastName
}

// StringList decodes from either a JSON string or a JSON array of strings.
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = nil
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one == "" {
			*s = nil
		} else {
			*s = StringList{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}
