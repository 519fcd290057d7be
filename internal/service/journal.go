package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/riyahid/travel-go/internal/blobstore"
	"github.com/riyahid/travel-go/internal/docstore"
	"github.com/riyahid/travel-go/internal/domain"
)

// CreateJournalInput is what a caller supplies to write a new journal entry.
type CreateJournalInput struct {
	TripID   string           `json:"tripId" validate:"notblank"`
	Date     domain.Date      `json:"date" validate:"required"`
	Title    string           `json:"title" validate:"notblank"`
	Text     string           `json:"text" validate:"notblank"`
	Location *domain.Location `json:"location,omitempty"`
}

// Validate returns a *domain.ValidationError listing every missing field.
func (in CreateJournalInput) Validate() error {
	verr := &domain.ValidationError{}
	checkStruct(in, verr)
	return verr.Err()
}

// JournalPatch changes only the fields that are set. Required fields cannot
// be cleared; a zero Location removes the stored one.
type JournalPatch struct {
	TripID   *string          `json:"tripId,omitempty"`
	Date     *domain.Date     `json:"date,omitempty"`
	Title    *string          `json:"title,omitempty"`
	Text     *string          `json:"text,omitempty"`
	Location *domain.Location `json:"location,omitempty"`
}

// Validate rejects attempts to blank a required field.
func (p JournalPatch) Validate() error {
	verr := &domain.ValidationError{}
	if blank(p.TripID) {
		verr.Add("tripId", "required")
	}
	if p.Date != nil && p.Date.IsZero() {
		verr.Add("date", "required")
	}
	if blank(p.Title) {
		verr.Add("title", "required")
	}
	if blank(p.Text) {
		verr.Add("text", "required")
	}
	return verr.Err()
}

func (p JournalPatch) fields() map[string]any {
	f := map[string]any{}
	if p.TripID != nil {
		f["tripId"] = *p.TripID
	}
	if p.Date != nil {
		f["date"] = *p.Date
	}
	if p.Title != nil {
		f["title"] = *p.Title
	}
	if p.Text != nil {
		f["text"] = *p.Text
	}
	if p.Location != nil {
		if p.Location.IsZero() {
			f["location"] = nil
		} else {
			f["location"] = *p.Location
		}
	}
	return f
}

// JournalService is the entity repository for journal entries.
type JournalService struct {
	entries collection[domain.JournalEntry]
	photos  photos
	clock   Clock
	log     *slog.Logger
}

// NewJournalService constructs a JournalService. A nil clock uses time.Now.
func NewJournalService(docs docstore.Store, blobs blobstore.Store, log *slog.Logger, clock Clock) *JournalService {
	log = log.With("service", "journal")
	return &JournalService{
		entries: collection[domain.JournalEntry]{docs: docs, name: JournalCollection, dateField: "date"},
		photos:  photos{blobs: blobs, prefix: JournalPhotoPrefix, clock: clock, log: log},
		clock:   clock,
		log:     log,
	}
}

// List returns the owner's entries, newest date first. A non-nil tripID
// narrows the list to one trip.
func (s *JournalService) List(ctx context.Context, ownerID string, tripID *string) ([]domain.JournalEntry, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, fmt.Errorf("service.JournalService.List: %w", err)
	}
	entries, err := s.entries.list(ctx, ownerID, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.JournalService.List: %w", err)
	}
	return entries, nil
}

// Get returns a single entry.
func (s *JournalService) Get(ctx context.Context, id string) (domain.JournalEntry, error) {
	e, _, err := s.entries.get(ctx, id)
	if err != nil {
		return domain.JournalEntry{}, fmt.Errorf("service.JournalService.Get: %w", err)
	}
	return e, nil
}

// Create validates the input, uploads the photos in order and persists the
// entry. Validation failures make no remote calls.
func (s *JournalService) Create(ctx context.Context, ownerID string, in CreateJournalInput, atts []Attachment) (domain.JournalEntry, error) {
	if err := requireOwner(ownerID); err != nil {
		return domain.JournalEntry{}, fmt.Errorf("service.JournalService.Create: %w", err)
	}
	if err := in.Validate(); err != nil {
		return domain.JournalEntry{}, fmt.Errorf("service.JournalService.Create: %w", err)
	}

	id, err := s.entries.docs.NewID(ctx, JournalCollection)
	if err != nil {
		return domain.JournalEntry{}, remote("service.JournalService.Create: new id", err)
	}
	urls, err := s.photos.upload(ctx, ownerID, id, atts)
	if err != nil {
		return domain.JournalEntry{}, fmt.Errorf("service.JournalService.Create: %w", err)
	}

	now := s.clock.now()
	body, err := encode(domain.JournalEntry{
		OwnerID:   ownerID,
		TripID:    in.TripID,
		Date:      in.Date,
		Title:     in.Title,
		Text:      in.Text,
		Photos:    urls,
		Location:  in.Location,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return domain.JournalEntry{}, fmt.Errorf("service.JournalService.Create: %w", err)
	}
	if _, err := s.entries.docs.Insert(ctx, JournalCollection, id, body); err != nil {
		s.photos.logOrphans(urls, err)
		return domain.JournalEntry{}, remote("service.JournalService.Create", err)
	}

	s.log.InfoContext(ctx, "journal entry created", "id", id, "photos", len(urls))
	return decode[domain.JournalEntry](id, body)
}

// Update applies patch, uploads newAtts under the entry's id and sets the
// photo list to retained followed by the new uploads. retained must be a
// subset of the stored photos; nil keeps them all. Photos dropped from the
// list are deleted from the blob store after the document is written.
func (s *JournalService) Update(ctx context.Context, id string, patch JournalPatch, newAtts []Attachment, retained []string) (domain.JournalEntry, error) {
	if err := patch.Validate(); err != nil {
		return domain.JournalEntry{}, fmt.Errorf("service.JournalService.Update: %w", err)
	}

	existing, doc, err := s.entries.get(ctx, id)
	if err != nil {
		return domain.JournalEntry{}, fmt.Errorf("service.JournalService.Update: %w", err)
	}
	kept, dropped, err := retainPhotos(existing.Photos, retained)
	if err != nil {
		return domain.JournalEntry{}, fmt.Errorf("service.JournalService.Update: %w", err)
	}
	urls, err := s.photos.upload(ctx, existing.OwnerID, id, newAtts)
	if err != nil {
		return domain.JournalEntry{}, fmt.Errorf("service.JournalService.Update: %w", err)
	}

	fields := patch.fields()
	if retained != nil || len(urls) > 0 {
		fields["photos"] = append(kept, urls...)
	}
	fields["updatedAt"] = s.clock.now()

	updated, err := s.entries.update(ctx, doc, fields)
	if err != nil {
		s.photos.logOrphans(urls, err)
		return domain.JournalEntry{}, remote("service.JournalService.Update", err)
	}
	s.photos.deleteAll(ctx, dropped)
	return updated, nil
}

// Remove deletes every photo (best effort) and then the entry itself.
func (s *JournalService) Remove(ctx context.Context, id string) (string, error) {
	existing, _, err := s.entries.get(ctx, id)
	if err != nil {
		return "", fmt.Errorf("service.JournalService.Remove: %w", err)
	}
	s.photos.deleteAll(ctx, existing.Photos)
	if err := s.entries.docs.Delete(ctx, JournalCollection, id); err != nil {
		return "", remote("service.JournalService.Remove", err)
	}
	s.log.InfoContext(ctx, "journal entry removed", "id", id)
	return id, nil
}
