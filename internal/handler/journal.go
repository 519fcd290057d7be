package handler

import (
	"net/http"

	"github.com/riyahid/travel-go/internal/domain"
	"github.com/riyahid/travel-go/internal/service"
)

// journalUpdateRequest is the PATCH body: the changed fields plus, when
// present, the stored photo URLs to keep. Omitting retainedPhotos keeps every
// photo; an empty list drops them all.
type journalUpdateRequest struct {
	service.JournalPatch
	RetainedPhotos *[]string `json:"retainedPhotos,omitempty"`
}

func journalOwner(e domain.JournalEntry) string { return e.OwnerID }

// ListJournalEntries handles GET /journal?trip_id=.
func (s *Server) ListJournalEntries(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	entries, err := s.journal.List(r.Context(), owner, tripIDQuery(r))
	if err != nil {
		s.writeServiceError(w, r, err, "journal entry not found")
		return
	}
	writeJSON(w, http.StatusOK, listOf(entries))
}

// CreateJournalEntry handles POST /journal, as JSON or multipart with photos.
func (s *Server) CreateJournalEntry(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var in service.CreateJournalInput
	atts, err := readEntry(r, &in)
	if err != nil {
		writeDecodeError(w, err)
		return
	}
	entry, err := s.journal.Create(r.Context(), owner, in, atts)
	if err != nil {
		s.writeServiceError(w, r, err, "journal entry not found")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// GetJournalEntry handles GET /journal/{id}.
func (s *Server) GetJournalEntry(w http.ResponseWriter, r *http.Request) {
	entry, ok := loadOwned(s, w, r, s.journal.Get, journalOwner, "journal entry not found")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// UpdateJournalEntry handles PATCH /journal/{id}.
func (s *Server) UpdateJournalEntry(w http.ResponseWriter, r *http.Request) {
	var req journalUpdateRequest
	atts, err := readEntry(r, &req)
	if err != nil {
		writeDecodeError(w, err)
		return
	}
	// An invalid patch is rejected without touching the store.
	if err := req.JournalPatch.Validate(); err != nil {
		s.writeServiceError(w, r, err, "journal entry not found")
		return
	}
	entry, ok := loadOwned(s, w, r, s.journal.Get, journalOwner, "journal entry not found")
	if !ok {
		return
	}
	updated, err := s.journal.Update(r.Context(), entry.ID, req.JournalPatch, atts, retained(req.RetainedPhotos))
	if err != nil {
		s.writeServiceError(w, r, err, "journal entry not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteJournalEntry handles DELETE /journal/{id}.
func (s *Server) DeleteJournalEntry(w http.ResponseWriter, r *http.Request) {
	entry, ok := loadOwned(s, w, r, s.journal.Get, journalOwner, "journal entry not found")
	if !ok {
		return
	}
	id, err := s.journal.Remove(r.Context(), entry.ID)
	if err != nil {
		s.writeServiceError(w, r, err, "journal entry not found")
		return
	}
	writeJSON(w, http.StatusOK, RemovedResponse{ID: id})
}

// retained turns the optional body field into the service's nil-means-all
// convention.
func retained(p *[]string) []string {
	if p == nil {
		return nil
	}
	if *p == nil {
		return []string{}
	}
	return *p
}
