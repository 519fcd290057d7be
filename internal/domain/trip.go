// Package domain contains the core data types for the travel companion:
// trips with their itinerary and budget, journal entries and food log entries.
// It has no knowledge of storage or transport and is imported by every other
// internal package.
package domain

import (
	"time"
)

// TripStatus is the lifecycle state of a trip.
type TripStatus string

const (
	TripPlanning  TripStatus = "planning"
	TripUpcoming  TripStatus = "upcoming"
	TripOngoing   TripStatus = "ongoing"
	TripCompleted TripStatus = "completed"
	TripCancelled TripStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s TripStatus) Valid() bool {
	switch s {
	case TripPlanning, TripUpcoming, TripOngoing, TripCompleted, TripCancelled:
		return true
	}
	return false
}

// ActivityType classifies an itinerary activity.
type ActivityType string

const (
	ActivitySightseeing    ActivityType = "sightseeing"
	ActivityFood           ActivityType = "food"
	ActivityTransportation ActivityType = "transportation"
	ActivityAccommodation  ActivityType = "accommodation"
	ActivityEntertainment  ActivityType = "entertainment"
	ActivityShopping       ActivityType = "shopping"
	ActivityOther          ActivityType = "other"
)

// ActivityStatus tracks whether an activity happened.
type ActivityStatus string

const (
	ActivityPlanned   ActivityStatus = "planned"
	ActivityCompleted ActivityStatus = "completed"
	ActivityCancelled ActivityStatus = "cancelled"
)

// DefaultCurrency is used for a new trip's budget when the planner did not
// state one in the trip preferences.
const DefaultCurrency = "USD"

// Trip is the top-level planning aggregate. Itinerary days and the budget are
// embedded in the trip document.
type Trip struct {
	ID          string           `json:"id"`
	OwnerID     string           `json:"ownerId"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	StartDate   Date             `json:"startDate"`
	EndDate     Date             `json:"endDate"`
	Destination Destination      `json:"destination"`
	Itinerary   []ItineraryDay   `json:"itinerary"`
	Budget      Budget           `json:"budget"`
	Status      TripStatus       `json:"status"`
	Preferences *TripPreferences `json:"preferences,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// Destination is where a trip goes. Name and Country are required.
type Destination struct {
	Name        string       `json:"name"`
	Country     string       `json:"country"`
	Address     string       `json:"address,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// ItineraryDay groups the activities planned for one calendar day.
type ItineraryDay struct {
	Date       Date       `json:"date"`
	Activities []Activity `json:"activities"`
}

// Activity is a single planned item. StartTime is always before EndTime.
type Activity struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Type      ActivityType   `json:"type"`
	StartTime time.Time      `json:"startTime"`
	EndTime   time.Time      `json:"endTime"`
	Location  Location       `json:"location"`
	Cost      *float64       `json:"cost,omitempty"`
	Notes     string         `json:"notes,omitempty"`
	Status    ActivityStatus `json:"status"`
}

// Budget tracks planned and actual spend, optionally split by category.
type Budget struct {
	Total      float64                   `json:"total"`
	Spent      float64                   `json:"spent"`
	Currency   string                    `json:"currency"`
	Categories map[string]BudgetCategory `json:"categories"`
}

// BudgetCategory is a per-category limit.
type BudgetCategory struct {
	Limit float64 `json:"limit"`
	Spent float64 `json:"spent"`
}

// TripPreferences captures what the traveller asked for when planning.
type TripPreferences struct {
	TravelStyle    string   `json:"travelStyle,omitempty"`
	Interests      []string `json:"interests,omitempty"`
	BudgetEstimate *Money   `json:"budgetEstimate,omitempty"`
}

// Money is an amount in a currency.
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// NewBudget returns the zero budget a trip starts with. The currency comes
// from the preferences' budget estimate when one was given.
func NewBudget(prefs *TripPreferences) Budget {
	currency := DefaultCurrency
	if prefs != nil && prefs.BudgetEstimate != nil && prefs.BudgetEstimate.Currency != "" {
		currency = prefs.BudgetEstimate.Currency
	}
	return Budget{Currency: currency, Categories: map[string]BudgetCategory{}}
}
