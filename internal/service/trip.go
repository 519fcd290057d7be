package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/riyahid/travel-go/internal/docstore"
	"github.com/riyahid/travel-go/internal/domain"
)

// CreateTripInput is what a planner supplies for a new trip. Status defaults
// to planning and the budget starts at zero.
type CreateTripInput struct {
	Title       string                  `json:"title" validate:"notblank"`
	Description string                  `json:"description,omitempty"`
	StartDate   domain.Date             `json:"startDate" validate:"required"`
	EndDate     domain.Date             `json:"endDate" validate:"required"`
	Destination domain.Destination      `json:"destination"`
	Status      domain.TripStatus       `json:"status,omitempty" validate:"omitempty,oneof=planning upcoming ongoing completed cancelled"`
	Preferences *domain.TripPreferences `json:"preferences,omitempty"`
}

// Validate checks required fields, the destination and the date order.
func (in CreateTripInput) Validate() error {
	verr := &domain.ValidationError{}
	checkStruct(in, verr)
	checkDestination(in.Destination, verr)
	if !in.StartDate.IsZero() && !in.EndDate.IsZero() && in.EndDate.Before(in.StartDate.Time) {
		verr.Add("endDate", "must not be before startDate")
	}
	return verr.Err()
}

func checkDestination(d domain.Destination, verr *domain.ValidationError) {
	if strings.TrimSpace(d.Name) == "" {
		verr.Add("destination.name", "required")
	}
	if strings.TrimSpace(d.Country) == "" {
		verr.Add("destination.country", "required")
	}
}

// TripPatch changes only the fields that are set. An empty Description
// clears it; Title cannot be cleared.
type TripPatch struct {
	Title       *string                 `json:"title,omitempty"`
	Description *string                 `json:"description,omitempty"`
	StartDate   *domain.Date            `json:"startDate,omitempty"`
	EndDate     *domain.Date            `json:"endDate,omitempty"`
	Destination *domain.Destination     `json:"destination,omitempty"`
	Itinerary   *[]domain.ItineraryDay  `json:"itinerary,omitempty"`
	Budget      *domain.Budget          `json:"budget,omitempty"`
	Status      *domain.TripStatus      `json:"status,omitempty" validate:"omitnil,oneof=planning upcoming ongoing completed cancelled"`
	Preferences *domain.TripPreferences `json:"preferences,omitempty"`
}

// Validate checks the patch on its own. The date order is checked again in
// Update against the stored trip.
func (p TripPatch) Validate() error {
	verr := &domain.ValidationError{}
	checkStruct(p, verr)
	if blank(p.Title) {
		verr.Add("title", "required")
	}
	if p.StartDate != nil && p.StartDate.IsZero() {
		verr.Add("startDate", "required")
	}
	if p.EndDate != nil && p.EndDate.IsZero() {
		verr.Add("endDate", "required")
	}
	if p.Destination != nil {
		checkDestination(*p.Destination, verr)
	}
	return verr.Err()
}

func (p TripPatch) fields() map[string]any {
	f := map[string]any{}
	if p.Title != nil {
		f["title"] = *p.Title
	}
	if p.Description != nil {
		f["description"] = optionalString(*p.Description)
	}
	if p.StartDate != nil {
		f["startDate"] = *p.StartDate
	}
	if p.EndDate != nil {
		f["endDate"] = *p.EndDate
	}
	if p.Destination != nil {
		f["destination"] = *p.Destination
	}
	if p.Itinerary != nil {
		days := *p.Itinerary
		if days == nil {
			days = []domain.ItineraryDay{}
		}
		f["itinerary"] = days
	}
	if p.Budget != nil {
		f["budget"] = *p.Budget
	}
	if p.Status != nil {
		f["status"] = *p.Status
	}
	if p.Preferences != nil {
		f["preferences"] = *p.Preferences
	}
	return f
}

// AddActivityInput describes one itinerary item.
type AddActivityInput struct {
	Title     string                `json:"title" validate:"notblank"`
	Type      domain.ActivityType   `json:"type" validate:"required,oneof=sightseeing food transportation accommodation entertainment shopping other"`
	StartTime time.Time             `json:"startTime" validate:"required"`
	EndTime   time.Time             `json:"endTime" validate:"required"`
	Location  domain.Location       `json:"location"`
	Cost      *float64              `json:"cost,omitempty" validate:"omitnil,gte=0"`
	Notes     string                `json:"notes,omitempty"`
	Status    domain.ActivityStatus `json:"status,omitempty" validate:"omitempty,oneof=planned completed cancelled"`
}

// Validate checks the activity type, location and time order.
func (in AddActivityInput) Validate() error {
	verr := &domain.ValidationError{}
	checkStruct(in, verr)
	if strings.TrimSpace(in.Location.Name) == "" {
		verr.Add("location.name", "required")
	}
	if !in.StartTime.IsZero() && !in.EndTime.IsZero() && !in.EndTime.After(in.StartTime) {
		verr.Add("endTime", "must be after startTime")
	}
	return verr.Err()
}

// TripService is the entity repository for trips. Trips carry no photos.
type TripService struct {
	trips collection[domain.Trip]
	clock Clock
	log   *slog.Logger
}

// NewTripService constructs a TripService. A nil clock uses time.Now.
func NewTripService(docs docstore.Store, log *slog.Logger, clock Clock) *TripService {
	return &TripService{
		trips: collection[domain.Trip]{docs: docs, name: TripsCollection, dateField: "startDate"},
		clock: clock,
		log:   log.With("service", "trip"),
	}
}

// List returns the owner's trips, latest start date first. Trips are not
// scoped to a trip, so tripID is ignored.
func (s *TripService) List(ctx context.Context, ownerID string, _ *string) ([]domain.Trip, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, fmt.Errorf("service.TripService.List: %w", err)
	}
	trips, err := s.trips.list(ctx, ownerID, nil)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.List: %w", err)
	}
	return trips, nil
}

// Upcoming returns up to limit trips starting after now, soonest first.
func (s *TripService) Upcoming(ctx context.Context, ownerID string, limit int) ([]domain.Trip, error) {
	trips, err := s.List(ctx, ownerID, nil)
	if err != nil {
		return nil, err
	}
	return domain.UpcomingTrips(trips, s.clock.now(), limit), nil
}

// Ongoing returns trips in progress today.
func (s *TripService) Ongoing(ctx context.Context, ownerID string) ([]domain.Trip, error) {
	trips, err := s.List(ctx, ownerID, nil)
	if err != nil {
		return nil, err
	}
	return domain.OngoingTrips(trips, s.clock.now()), nil
}

// Get returns a single trip.
func (s *TripService) Get(ctx context.Context, id string) (domain.Trip, error) {
	t, _, err := s.trips.get(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Get: %w", err)
	}
	return t, nil
}

// Create validates and persists a new trip. Attachments are accepted for
// signature parity with the other repositories and must be empty.
func (s *TripService) Create(ctx context.Context, ownerID string, in CreateTripInput, atts []Attachment) (domain.Trip, error) {
	if err := requireOwner(ownerID); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	if err := in.Validate(); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	if len(atts) > 0 {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w",
			domain.NewValidationError("photos", "trips do not take photos"))
	}

	id, err := s.trips.docs.NewID(ctx, TripsCollection)
	if err != nil {
		return domain.Trip{}, remote("service.TripService.Create: new id", err)
	}

	status := in.Status
	if status == "" {
		status = domain.TripPlanning
	}
	now := s.clock.now()
	body, err := encode(domain.Trip{
		OwnerID:     ownerID,
		Title:       in.Title,
		Description: in.Description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Destination: in.Destination,
		Itinerary:   []domain.ItineraryDay{},
		Budget:      domain.NewBudget(in.Preferences),
		Status:      status,
		Preferences: in.Preferences,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	if _, err := s.trips.docs.Insert(ctx, TripsCollection, id, body); err != nil {
		return domain.Trip{}, remote("service.TripService.Create", err)
	}

	s.log.InfoContext(ctx, "trip created", "id", id)
	return decode[domain.Trip](id, body)
}

// Update applies patch to a stored trip. The resulting start and end dates
// must still be in order. Trips carry no photos, so newAtts must be empty and
// retained is ignored.
func (s *TripService) Update(ctx context.Context, id string, patch TripPatch, newAtts []Attachment, _ []string) (domain.Trip, error) {
	if err := patch.Validate(); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	if len(newAtts) > 0 {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w",
			domain.NewValidationError("photos", "trips do not take photos"))
	}

	existing, doc, err := s.trips.get(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	start, end := existing.StartDate, existing.EndDate
	if patch.StartDate != nil {
		start = *patch.StartDate
	}
	if patch.EndDate != nil {
		end = *patch.EndDate
	}
	if end.Before(start.Time) {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w",
			domain.NewValidationError("endDate", "must not be before startDate"))
	}

	fields := patch.fields()
	fields["updatedAt"] = s.clock.now()
	updated, err := s.trips.update(ctx, doc, fields)
	if err != nil {
		return domain.Trip{}, remote("service.TripService.Update", err)
	}
	return updated, nil
}

// Remove deletes the trip document. Journal entries and food logs that
// reference it are left alone.
func (s *TripService) Remove(ctx context.Context, id string) (string, error) {
	if _, _, err := s.trips.get(ctx, id); err != nil {
		return "", fmt.Errorf("service.TripService.Remove: %w", err)
	}
	if err := s.trips.docs.Delete(ctx, TripsCollection, id); err != nil {
		return "", remote("service.TripService.Remove", err)
	}
	s.log.InfoContext(ctx, "trip removed", "id", id)
	return id, nil
}

// AddActivity appends an activity to the itinerary day matching its start
// date, creating that day in date order when needed.
func (s *TripService) AddActivity(ctx context.Context, tripID string, in AddActivityInput) (domain.Trip, error) {
	if err := in.Validate(); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.AddActivity: %w", err)
	}

	trip, doc, err := s.trips.get(ctx, tripID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.AddActivity: %w", err)
	}

	status := in.Status
	if status == "" {
		status = domain.ActivityPlanned
	}
	activity := domain.Activity{
		ID:        uuid.NewString(),
		Title:     in.Title,
		Type:      in.Type,
		StartTime: in.StartTime.UTC(),
		EndTime:   in.EndTime.UTC(),
		Location:  in.Location,
		Cost:      in.Cost,
		Notes:     in.Notes,
		Status:    status,
	}

	updated, err := s.trips.update(ctx, doc, map[string]any{
		"itinerary": insertActivity(trip.Itinerary, activity),
		"updatedAt": s.clock.now(),
	})
	if err != nil {
		return domain.Trip{}, remote("service.TripService.AddActivity", err)
	}
	return updated, nil
}

// RemoveActivity drops one activity from the itinerary. Days left empty are
// kept.
func (s *TripService) RemoveActivity(ctx context.Context, tripID, activityID string) (domain.Trip, error) {
	trip, doc, err := s.trips.get(ctx, tripID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.RemoveActivity: %w", err)
	}

	found := false
	days := make([]domain.ItineraryDay, 0, len(trip.Itinerary))
	for _, d := range trip.Itinerary {
		acts := make([]domain.Activity, 0, len(d.Activities))
		for _, a := range d.Activities {
			if a.ID == activityID {
				found = true
				continue
			}
			acts = append(acts, a)
		}
		days = append(days, domain.ItineraryDay{Date: d.Date, Activities: acts})
	}
	if !found {
		return domain.Trip{}, fmt.Errorf("service.TripService.RemoveActivity: activity %s: %w", activityID, domain.ErrNotFound)
	}

	updated, err := s.trips.update(ctx, doc, map[string]any{
		"itinerary": days,
		"updatedAt": s.clock.now(),
	})
	if err != nil {
		return domain.Trip{}, remote("service.TripService.RemoveActivity", err)
	}
	return updated, nil
}

// insertActivity returns a copy of days with a appended to the day of its
// start time (UTC).
func insertActivity(days []domain.ItineraryDay, a domain.Activity) []domain.ItineraryDay {
	key := domain.DateKey(domain.NewDate(a.StartTime))
	out := make([]domain.ItineraryDay, 0, len(days)+1)
	placed := false
	for _, d := range days {
		acts := append([]domain.Activity{}, d.Activities...)
		if !placed && domain.DateKey(d.Date) == key {
			acts = append(acts, a)
			placed = true
		}
		out = append(out, domain.ItineraryDay{Date: d.Date, Activities: acts})
	}
	if !placed {
		out = append(out, domain.ItineraryDay{Date: domain.NewDate(a.StartTime), Activities: []domain.Activity{a}})
		sort.SliceStable(out, func(i, j int) bool {
			return domain.DateKey(out[i].Date) < domain.DateKey(out[j].Date)
		})
	}
	return out
}
