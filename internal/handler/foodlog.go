package handler

import (
	"net/http"

	"github.com/riyahid/travel-go/internal/domain"
	"github.com/riyahid/travel-go/internal/service"
)

// foodLogUpdateRequest mirrors journalUpdateRequest.
type foodLogUpdateRequest struct {
	service.FoodLogPatch
	RetainedPhotos *[]string `json:"retainedPhotos,omitempty"`
}

func foodLogOwner(e domain.FoodLogEntry) string { return e.OwnerID }

// ListFoodLogs handles GET /food-logs?trip_id=.
func (s *Server) ListFoodLogs(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	entries, err := s.food.List(r.Context(), owner, tripIDQuery(r))
	if err != nil {
		s.writeServiceError(w, r, err, "food log not found")
		return
	}
	writeJSON(w, http.StatusOK, listOf(entries))
}

// CreateFoodLog handles POST /food-logs, as JSON or multipart with photos.
func (s *Server) CreateFoodLog(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var in service.CreateFoodLogInput
	atts, err := readEntry(r, &in)
	if err != nil {
		writeDecodeError(w, err)
		return
	}
	entry, err := s.food.Create(r.Context(), owner, in, atts)
	if err != nil {
		s.writeServiceError(w, r, err, "food log not found")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// GetFoodLog handles GET /food-logs/{id}.
func (s *Server) GetFoodLog(w http.ResponseWriter, r *http.Request) {
	entry, ok := loadOwned(s, w, r, s.food.Get, foodLogOwner, "food log not found")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// UpdateFoodLog handles PATCH /food-logs/{id}.
func (s *Server) UpdateFoodLog(w http.ResponseWriter, r *http.Request) {
	var req foodLogUpdateRequest
	atts, err := readEntry(r, &req)
	if err != nil {
		writeDecodeError(w, err)
		return
	}
	// An invalid patch is rejected without touching the store.
	if err := req.FoodLogPatch.Validate(); err != nil {
		s.writeServiceError(w, r, err, "food log not found")
		return
	}
	entry, ok := loadOwned(s, w, r, s.food.Get, foodLogOwner, "food log not found")
	if !ok {
		return
	}
	updated, err := s.food.Update(r.Context(), entry.ID, req.FoodLogPatch, atts, retained(req.RetainedPhotos))
	if err != nil {
		s.writeServiceError(w, r, err, "food log not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteFoodLog handles DELETE /food-logs/{id}.
func (s *Server) DeleteFoodLog(w http.ResponseWriter, r *http.Request) {
	entry, ok := loadOwned(s, w, r, s.food.Get, foodLogOwner, "food log not found")
	if !ok {
		return
	}
	id, err := s.food.Remove(r.Context(), entry.ID)
	if err != nil {
		s.writeServiceError(w, r, err, "food log not found")
		return
	}
	writeJSON(w, http.StatusOK, RemovedResponse{ID: id})
}
