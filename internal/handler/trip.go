package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/riyahid/travel-go/internal/domain"
	"github.com/riyahid/travel-go/internal/service"
)

// defaultUpcomingLimit is how many trips GET /trips/upcoming returns when
// ?limit= is absent.
const defaultUpcomingLimit = 3

// ListResponse wraps a collection as {"data":[...]}.
type ListResponse[T any] struct {
	Data []T `json:"data"`
}

// listOf never encodes a nil slice as null.
func listOf[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Data: items}
}

// RemovedResponse is returned by every DELETE so clients can drop the id
// from their cache.
type RemovedResponse struct {
	ID string `json:"id"`
}

func tripOwner(t domain.Trip) string { return t.OwnerID }

// ListTrips handles GET /trips.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	trips, err := s.trips.List(r.Context(), owner, nil)
	if err != nil {
		s.writeServiceError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, listOf(trips))
}

// ListUpcomingTrips handles GET /trips/upcoming?limit=.
func (s *Server) ListUpcomingTrips(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	limit := defaultUpcomingLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusUnprocessableEntity, requestBody("limit: must be a positive integer"))
			return
		}
		limit = n
	}
	trips, err := s.trips.Upcoming(r.Context(), owner, limit)
	if err != nil {
		s.writeServiceError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, listOf(trips))
}

// ListOngoingTrips handles GET /trips/ongoing.
func (s *Server) ListOngoingTrips(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	trips, err := s.trips.Ongoing(r.Context(), owner)
	if err != nil {
		s.writeServiceError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, listOf(trips))
}

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var in service.CreateTripInput
	if err := decodeJSON(r.Body, &in); err != nil {
		writeDecodeError(w, err)
		return
	}
	trip, err := s.trips.Create(r.Context(), owner, in, nil)
	if err != nil {
		s.writeServiceError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusCreated, trip)
}

// GetTrip handles GET /trips/{id}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	trip, ok := loadOwned(s, w, r, s.trips.Get, tripOwner, "trip not found")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

// UpdateTrip handles PATCH /trips/{id}. Only the fields present in the body
// change.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	trip, ok := loadOwned(s, w, r, s.trips.Get, tripOwner, "trip not found")
	if !ok {
		return
	}
	var patch service.TripPatch
	if err := decodeJSON(r.Body, &patch); err != nil {
		writeDecodeError(w, err)
		return
	}
	updated, err := s.trips.Update(r.Context(), trip.ID, patch, nil, nil)
	if err != nil {
		s.writeServiceError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteTrip handles DELETE /trips/{id}.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	trip, ok := loadOwned(s, w, r, s.trips.Get, tripOwner, "trip not found")
	if !ok {
		return
	}
	id, err := s.trips.Remove(r.Context(), trip.ID)
	if err != nil {
		s.writeServiceError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, RemovedResponse{ID: id})
}

// AddActivity handles POST /trips/{id}/activities and returns the whole
// updated trip.
func (s *Server) AddActivity(w http.ResponseWriter, r *http.Request) {
	trip, ok := loadOwned(s, w, r, s.trips.Get, tripOwner, "trip not found")
	if !ok {
		return
	}
	var in service.AddActivityInput
	if err := decodeJSON(r.Body, &in); err != nil {
		writeDecodeError(w, err)
		return
	}
	updated, err := s.trips.AddActivity(r.Context(), trip.ID, in)
	if err != nil {
		s.writeServiceError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusCreated, updated)
}

// RemoveActivity handles DELETE /trips/{id}/activities/{activityId}.
func (s *Server) RemoveActivity(w http.ResponseWriter, r *http.Request) {
	trip, ok := loadOwned(s, w, r, s.trips.Get, tripOwner, "trip not found")
	if !ok {
		return
	}
	updated, err := s.trips.RemoveActivity(r.Context(), trip.ID, chi.URLParam(r, "activityId"))
	if err != nil {
		s.writeServiceError(w, r, err, "activity not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
