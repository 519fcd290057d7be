// Package session binds the entity services to one owner's caches. Every
// method marks its collection pending, runs the service call, and applies
// the fulfilled or rejected result before returning it to the caller.
//
// There is no generation guard: a slow call that completes after a newer one
// still applies its result.
package session

import (
	"context"

	"github.com/riyahid/travel-go/internal/cache"
	"github.com/riyahid/travel-go/internal/domain"
	"github.com/riyahid/travel-go/internal/service"
)

// TripRepository is the trip surface the session needs.
type TripRepository interface {
	List(ctx context.Context, ownerID string, tripID *string) ([]domain.Trip, error)
	Create(ctx context.Context, ownerID string, in service.CreateTripInput, atts []service.Attachment) (domain.Trip, error)
	Update(ctx context.Context, id string, patch service.TripPatch, newAtts []service.Attachment, retained []string) (domain.Trip, error)
	Remove(ctx context.Context, id string) (string, error)
	AddActivity(ctx context.Context, tripID string, in service.AddActivityInput) (domain.Trip, error)
	RemoveActivity(ctx context.Context, tripID, activityID string) (domain.Trip, error)
}

// JournalRepository is the journal surface the session needs.
type JournalRepository interface {
	List(ctx context.Context, ownerID string, tripID *string) ([]domain.JournalEntry, error)
	Create(ctx context.Context, ownerID string, in service.CreateJournalInput, atts []service.Attachment) (domain.JournalEntry, error)
	Update(ctx context.Context, id string, patch service.JournalPatch, newAtts []service.Attachment, retained []string) (domain.JournalEntry, error)
	Remove(ctx context.Context, id string) (string, error)
}

// FoodLogRepository is the food log surface the session needs.
type FoodLogRepository interface {
	List(ctx context.Context, ownerID string, tripID *string) ([]domain.FoodLogEntry, error)
	Create(ctx context.Context, ownerID string, in service.CreateFoodLogInput, atts []service.Attachment) (domain.FoodLogEntry, error)
	Update(ctx context.Context, id string, patch service.FoodLogPatch, newAtts []service.Attachment, retained []string) (domain.FoodLogEntry, error)
	Remove(ctx context.Context, id string) (string, error)
}

var (
	_ TripRepository    = (*service.TripService)(nil)
	_ JournalRepository = (*service.JournalService)(nil)
	_ FoodLogRepository = (*service.FoodLogService)(nil)
)

// Session is one signed-in owner's working set.
type Session struct {
	ownerID string

	trips   TripRepository
	journal JournalRepository
	food    FoodLogRepository

	Trips    *cache.Store[domain.Trip]
	Journal  *cache.Store[domain.JournalEntry]
	FoodLogs *cache.Store[domain.FoodLogEntry]
}

// New returns a session with empty caches.
func New(ownerID string, trips TripRepository, journal JournalRepository, food FoodLogRepository) *Session {
	return &Session{
		ownerID:  ownerID,
		trips:    trips,
		journal:  journal,
		food:     food,
		Trips:    cache.NewStore[domain.Trip](func(t domain.Trip) string { return t.ID }),
		Journal:  cache.NewStore[domain.JournalEntry](func(e domain.JournalEntry) string { return e.ID }),
		FoodLogs: cache.NewStore[domain.FoodLogEntry](func(e domain.FoodLogEntry) string { return e.ID }),
	}
}

// OwnerID returns the owner every list and create is scoped to.
func (s *Session) OwnerID() string { return s.ownerID }

// run dispatches pending, calls fn and dispatches the settled result built
// by done.
func run[T, R any](st *cache.Store[T], op cache.Op, fn func() (R, error), done func(R) cache.Result[T]) (R, error) {
	st.Apply(cache.Pending[T](op))
	out, err := fn()
	if err != nil {
		st.Apply(cache.Rejected[T](op, err))
		return out, err
	}
	st.Apply(done(out))
	return out, nil
}

// ---- trips -----------------------------------------------------------------

func (s *Session) LoadTrips(ctx context.Context) ([]domain.Trip, error) {
	return run(s.Trips, cache.OpList,
		func() ([]domain.Trip, error) { return s.trips.List(ctx, s.ownerID, nil) },
		cache.Listed[domain.Trip])
}

func (s *Session) CreateTrip(ctx context.Context, in service.CreateTripInput) (domain.Trip, error) {
	return run(s.Trips, cache.OpCreate,
		func() (domain.Trip, error) { return s.trips.Create(ctx, s.ownerID, in, nil) },
		cache.Created[domain.Trip])
}

func (s *Session) UpdateTrip(ctx context.Context, id string, patch service.TripPatch) (domain.Trip, error) {
	return run(s.Trips, cache.OpUpdate,
		func() (domain.Trip, error) { return s.trips.Update(ctx, id, patch, nil, nil) },
		cache.Updated[domain.Trip])
}

func (s *Session) RemoveTrip(ctx context.Context, id string) (string, error) {
	return run(s.Trips, cache.OpRemove,
		func() (string, error) { return s.trips.Remove(ctx, id) },
		cache.Removed[domain.Trip])
}

// AddActivity settles as a trip update.
func (s *Session) AddActivity(ctx context.Context, tripID string, in service.AddActivityInput) (domain.Trip, error) {
	return run(s.Trips, cache.OpUpdate,
		func() (domain.Trip, error) { return s.trips.AddActivity(ctx, tripID, in) },
		cache.Updated[domain.Trip])
}

// RemoveActivity settles as a trip update.
func (s *Session) RemoveActivity(ctx context.Context, tripID, activityID string) (domain.Trip, error) {
	return run(s.Trips, cache.OpUpdate,
		func() (domain.Trip, error) { return s.trips.RemoveActivity(ctx, tripID, activityID) },
		cache.Updated[domain.Trip])
}

func (s *Session) SelectTrip(id string) {
	s.Trips.Apply(cache.Selected[domain.Trip](id))
}

func (s *Session) ClearTripError() {
	s.Trips.Apply(cache.ErrorCleared[domain.Trip]())
}

// ---- journal ---------------------------------------------------------------

func (s *Session) LoadJournal(ctx context.Context, tripID *string) ([]domain.JournalEntry, error) {
	return run(s.Journal, cache.OpList,
		func() ([]domain.JournalEntry, error) { return s.journal.List(ctx, s.ownerID, tripID) },
		cache.Listed[domain.JournalEntry])
}

func (s *Session) CreateJournalEntry(ctx context.Context, in service.CreateJournalInput, atts []service.Attachment) (domain.JournalEntry, error) {
	return run(s.Journal, cache.OpCreate,
		func() (domain.JournalEntry, error) { return s.journal.Create(ctx, s.ownerID, in, atts) },
		cache.Created[domain.JournalEntry])
}

func (s *Session) UpdateJournalEntry(ctx context.Context, id string, patch service.JournalPatch, newAtts []service.Attachment, retained []string) (domain.JournalEntry, error) {
	return run(s.Journal, cache.OpUpdate,
		func() (domain.JournalEntry, error) { return s.journal.Update(ctx, id, patch, newAtts, retained) },
		cache.Updated[domain.JournalEntry])
}

func (s *Session) RemoveJournalEntry(ctx context.Context, id string) (string, error) {
	return run(s.Journal, cache.OpRemove,
		func() (string, error) { return s.journal.Remove(ctx, id) },
		cache.Removed[domain.JournalEntry])
}

func (s *Session) SelectJournalEntry(id string) {
	s.Journal.Apply(cache.Selected[domain.JournalEntry](id))
}

func (s *Session) ClearJournalError() {
	s.Journal.Apply(cache.ErrorCleared[domain.JournalEntry]())
}

// ---- food logs -------------------------------------------------------------

func (s *Session) LoadFoodLogs(ctx context.Context, tripID *string) ([]domain.FoodLogEntry, error) {
	return run(s.FoodLogs, cache.OpList,
		func() ([]domain.FoodLogEntry, error) { return s.food.List(ctx, s.ownerID, tripID) },
		cache.Listed[domain.FoodLogEntry])
}

func (s *Session) CreateFoodLog(ctx context.Context, in service.CreateFoodLogInput, atts []service.Attachment) (domain.FoodLogEntry, error) {
	return run(s.FoodLogs, cache.OpCreate,
		func() (domain.FoodLogEntry, error) { return s.food.Create(ctx, s.ownerID, in, atts) },
		cache.Created[domain.FoodLogEntry])
}

func (s *Session) UpdateFoodLog(ctx context.Context, id string, patch service.FoodLogPatch, newAtts []service.Attachment, retained []string) (domain.FoodLogEntry, error) {
	return run(s.FoodLogs, cache.OpUpdate,
		func() (domain.FoodLogEntry, error) { return s.food.Update(ctx, id, patch, newAtts, retained) },
		cache.Updated[domain.FoodLogEntry])
}

func (s *Session) RemoveFoodLog(ctx context.Context, id string) (string, error) {
	return run(s.FoodLogs, cache.OpRemove,
		func() (string, error) { return s.food.Remove(ctx, id) },
		cache.Removed[domain.FoodLogEntry])
}

func (s *Session) SelectFoodLog(id string) {
	s.FoodLogs.Apply(cache.Selected[domain.FoodLogEntry](id))
}

func (s *Session) ClearFoodLogError() {
	s.FoodLogs.Apply(cache.ErrorCleared[domain.FoodLogEntry]())
}
