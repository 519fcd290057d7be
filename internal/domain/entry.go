package domain

import "time"

// JournalEntry is a dated, titled narrative attached to a trip, with photos.
type JournalEntry struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	TripID    string    `json:"tripId"`
	Date      Date      `json:"date"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Photos    []string  `json:"photos"`
	Location  *Location `json:"location,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FoodLogEntry is a rated meal record, optionally linked to a trip.
// Rating is an integer in [MinRating, MaxRating].
type FoodLogEntry struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"ownerId"`
	TripID          *string   `json:"tripId,omitempty"`
	Date            Date      `json:"date"`
	MealDescription string    `json:"mealDescription"`
	Rating          int       `json:"rating"`
	Photos          []string  `json:"photos"`
	RestaurantName  string    `json:"restaurantName,omitempty"`
	Location        *Location `json:"location,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

const (
	MinRating = 1
	MaxRating = 5
)

// Location is a named place with optional coordinates.
type Location struct {
	Name        string       `json:"name"`
	Address     string       `json:"address,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// IsZero reports whether l carries no information. A zero Location in an
// update clears the stored one.
func (l Location) IsZero() bool {
	return l.Name == "" && l.Address == "" && l.Coordinates == nil
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
