package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/riyahid/travel-go/internal/blobstore"
	"github.com/riyahid/travel-go/internal/docstore"
	"github.com/riyahid/travel-go/internal/domain"
)

// CreateFoodLogInput is what a caller supplies to log a meal. TripID is
// optional; an empty string is treated as no trip.
type CreateFoodLogInput struct {
	TripID          *string          `json:"tripId,omitempty"`
	Date            domain.Date      `json:"date" validate:"required"`
	MealDescription string           `json:"mealDescription" validate:"notblank"`
	Rating          int              `json:"rating" validate:"gte=1,lte=5"`
	RestaurantName  string           `json:"restaurantName,omitempty"`
	Location        *domain.Location `json:"location,omitempty"`
}

// Validate returns a *domain.ValidationError listing every invalid field.
func (in CreateFoodLogInput) Validate() error {
	verr := &domain.ValidationError{}
	checkStruct(in, verr)
	return verr.Err()
}

// FoodLogPatch changes only the fields that are set. An empty TripID or
// RestaurantName, or a zero Location, clears the stored value.
type FoodLogPatch struct {
	TripID          *string          `json:"tripId,omitempty"`
	Date            *domain.Date     `json:"date,omitempty"`
	MealDescription *string          `json:"mealDescription,omitempty"`
	Rating          *int             `json:"rating,omitempty" validate:"omitnil,gte=1,lte=5"`
	RestaurantName  *string          `json:"restaurantName,omitempty"`
	Location        *domain.Location `json:"location,omitempty"`
}

// Validate re-checks the rating range and rejects blanking required fields.
func (p FoodLogPatch) Validate() error {
	verr := &domain.ValidationError{}
	checkStruct(p, verr)
	if p.Date != nil && p.Date.IsZero() {
		verr.Add("date", "required")
	}
	if blank(p.MealDescription) {
		verr.Add("mealDescription", "required")
	}
	return verr.Err()
}

func (p FoodLogPatch) fields() map[string]any {
	f := map[string]any{}
	if p.TripID != nil {
		f["tripId"] = optionalString(*p.TripID)
	}
	if p.Date != nil {
		f["date"] = *p.Date
	}
	if p.MealDescription != nil {
		f["mealDescription"] = *p.MealDescription
	}
	if p.Rating != nil {
		f["rating"] = *p.Rating
	}
	if p.RestaurantName != nil {
		f["restaurantName"] = optionalString(*p.RestaurantName)
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

// optionalString maps a blank string to a stored null.
func optionalString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// FoodLogService is the entity repository for food log entries.
type FoodLogService struct {
	entries collection[domain.FoodLogEntry]
	photos  photos
	clock   Clock
	log     *slog.Logger
}

// NewFoodLogService constructs a FoodLogService. A nil clock uses time.Now.
func NewFoodLogService(docs docstore.Store, blobs blobstore.Store, log *slog.Logger, clock Clock) *FoodLogService {
	log = log.With("service", "foodlog")
	return &FoodLogService{
		entries: collection[domain.FoodLogEntry]{docs: docs, name: FoodLogCollection, dateField: "date"},
		photos:  photos{blobs: blobs, prefix: FoodPhotoPrefix, clock: clock, log: log},
		clock:   clock,
		log:     log,
	}
}

// List returns the owner's meals, newest date first. A non-nil tripID narrows
// the list to one trip.
func (s *FoodLogService) List(ctx context.Context, ownerID string, tripID *string) ([]domain.FoodLogEntry, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, fmt.Errorf("service.FoodLogService.List: %w", err)
	}
	entries, err := s.entries.list(ctx, ownerID, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.FoodLogService.List: %w", err)
	}
	return entries, nil
}

// Get returns a single entry.
func (s *FoodLogService) Get(ctx context.Context, id string) (domain.FoodLogEntry, error) {
	e, _, err := s.entries.get(ctx, id)
	if err != nil {
		return domain.FoodLogEntry{}, fmt.Errorf("service.FoodLogService.Get: %w", err)
	}
	return e, nil
}

// Create validates the input (rating must be 1..5), uploads the photos in
// order and persists the entry. Validation failures make no remote calls.
func (s *FoodLogService) Create(ctx context.Context, ownerID string, in CreateFoodLogInput, atts []Attachment) (domain.FoodLogEntry, error) {
	if err := requireOwner(ownerID); err != nil {
		return domain.FoodLogEntry{}, fmt.Errorf("service.FoodLogService.Create: %w", err)
	}
	if err := in.Validate(); err != nil {
		return domain.FoodLogEntry{}, fmt.Errorf("service.FoodLogService.Create: %w", err)
	}

	id, err := s.entries.docs.NewID(ctx, FoodLogCollection)
	if err != nil {
		return domain.FoodLogEntry{}, remote("service.FoodLogService.Create: new id", err)
	}
	urls, err := s.photos.upload(ctx, ownerID, id, atts)
	if err != nil {
		return domain.FoodLogEntry{}, fmt.Errorf("service.FoodLogService.Create: %w", err)
	}

	var tripID *string
	if in.TripID != nil && strings.TrimSpace(*in.TripID) != "" {
		tripID = in.TripID
	}
	now := s.clock.now()
	body, err := encode(domain.FoodLogEntry{
		OwnerID:         ownerID,
		TripID:          tripID,
		Date:            in.Date,
		MealDescription: in.MealDescription,
		Rating:          in.Rating,
		Photos:          urls,
		RestaurantName:  in.RestaurantName,
		Location:        in.Location,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return domain.FoodLogEntry{}, fmt.Errorf("service.FoodLogService.Create: %w", err)
	}
	if _, err := s.entries.docs.Insert(ctx, FoodLogCollection, id, body); err != nil {
		s.photos.logOrphans(urls, err)
		return domain.FoodLogEntry{}, remote("service.FoodLogService.Create", err)
	}

	s.log.InfoContext(ctx, "food log created", "id", id, "photos", len(urls))
	return decode[domain.FoodLogEntry](id, body)
}

// Update applies patch, uploads newAtts under the entry's id and sets the
// photo list to retained followed by the new uploads. retained must be a
// subset of the stored photos; nil keeps them all. Photos dropped from the
// list are deleted from the blob store after the document is written.
func (s *FoodLogService) Update(ctx context.Context, id string, patch FoodLogPatch, newAtts []Attachment, retained []string) (domain.FoodLogEntry, error) {
	if err := patch.Validate(); err != nil {
		return domain.FoodLogEntry{}, fmt.Errorf("service.FoodLogService.Update: %w", err)
	}

	existing, doc, err := s.entries.get(ctx, id)
	if err != nil {
		return domain.FoodLogEntry{}, fmt.Errorf("service.FoodLogService.Update: %w", err)
	}
	kept, dropped, err := retainPhotos(existing.Photos, retained)
	if err != nil {
		return domain.FoodLogEntry{}, fmt.Errorf("service.FoodLogService.Update: %w", err)
	}
	urls, err := s.photos.upload(ctx, existing.OwnerID, id, newAtts)
	if err != nil {
		return domain.FoodLogEntry{}, fmt.Errorf("service.FoodLogService.Update: %w", err)
	}

	fields := patch.fields()
	if retained != nil || len(urls) > 0 {
		fields["photos"] = append(kept, urls...)
	}
	fields["updatedAt"] = s.clock.now()

	updated, err := s.entries.update(ctx, doc, fields)
	if err != nil {
		s.photos.logOrphans(urls, err)
		return domain.FoodLogEntry{}, remote("service.FoodLogService.Update", err)
	}
	s.photos.deleteAll(ctx, dropped)
	return updated, nil
}

// Remove deletes every photo (best effort) and then the entry itself.
func (s *FoodLogService) Remove(ctx context.Context, id string) (string, error) {
	existing, _, err := s.entries.get(ctx, id)
	if err != nil {
		return "", fmt.Errorf("service.FoodLogService.Remove: %w", err)
	}
	s.photos.deleteAll(ctx, existing.Photos)
	if err := s.entries.docs.Delete(ctx, FoodLogCollection, id); err != nil {
		return "", remote("service.FoodLogService.Remove", err)
	}
	s.log.InfoContext(ctx, "food log removed", "id", id)
	return id, nil
}
