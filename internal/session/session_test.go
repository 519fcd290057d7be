package session_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riyahid/travel-go/internal/blobstore"
	"github.com/riyahid/travel-go/internal/cache"
	"github.com/riyahid/travel-go/internal/docstore"
	"github.com/riyahid/travel-go/internal/domain"
	"github.com/riyahid/travel-go/internal/service"
	"github.com/riyahid/travel-go/internal/session"
)

func newSession(owner string) (*session.Session, *blobstore.Memory) {
	docs := docstore.NewMemory()
	blobs := blobstore.NewMemory("https://blobs.test")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return session.New(owner,
		service.NewTripService(docs, log, nil),
		service.NewJournalService(docs, blobs, log, nil),
		service.NewFoodLogService(docs, blobs, log, nil),
	), blobs
}

func parisTrip() service.CreateTripInput {
	return service.CreateTripInput{
		Title:       "Paris",
		StartDate:   domain.MustDate("2025-06-01"),
		EndDate:     domain.MustDate("2025-06-05"),
		Destination: domain.Destination{Name: "Paris", Country: "France"},
	}
}

// recorder collects every state a store publishes.
func recorder[T any](st *cache.Store[T]) *[]cache.State[T] {
	var got []cache.State[T]
	st.Subscribe(func(s cache.State[T]) { got = append(got, s) })
	return &got
}

func TestSession_CreateTripGoesPendingThenFulfilled(t *testing.T) {
	s, _ := newSession("u1")
	states := recorder(s.Trips)

	trip, err := s.CreateTrip(context.Background(), parisTrip())

	require.NoError(t, err)
	require.Len(t, *states, 2)
	assert.True(t, (*states)[0].Loading)
	final := (*states)[1]
	assert.False(t, final.Loading)
	require.Len(t, final.Items, 1)
	assert.Equal(t, trip.ID, final.Items[0].ID)
	require.NotNil(t, final.Current)
	assert.Equal(t, trip.ID, final.Current.ID)
}

func TestSession_ValidationFailureIsRejected(t *testing.T) {
	s, _ := newSession("u1")

	_, err := s.CreateFoodLog(context.Background(), service.CreateFoodLogInput{
		Date:            domain.MustDate("2025-06-02"),
		MealDescription: "Pizza",
		Rating:          6,
	}, nil)

	assert.ErrorIs(t, err, domain.ErrValidation)
	snap := s.FoodLogs.Snapshot()
	assert.False(t, snap.Loading)
	assert.Contains(t, snap.Error, "rating")
	assert.Empty(t, snap.Items)
}

func TestSession_ClearErrorAfterRejection(t *testing.T) {
	s, _ := newSession("u1")
	ctx := context.Background()

	_, err := s.CreateTrip(ctx, service.CreateTripInput{})
	require.Error(t, err)
	_, err = s.CreateJournalEntry(ctx, service.CreateJournalInput{}, nil)
	require.Error(t, err)
	_, err = s.CreateFoodLog(ctx, service.CreateFoodLogInput{Rating: 6}, nil)
	require.Error(t, err)
	require.NotEmpty(t, s.Trips.Snapshot().Error)
	require.NotEmpty(t, s.Journal.Snapshot().Error)
	require.NotEmpty(t, s.FoodLogs.Snapshot().Error)

	s.ClearTripError()
	s.ClearJournalError()
	s.ClearFoodLogError()

	assert.Empty(t, s.Trips.Snapshot().Error)
	assert.Empty(t, s.Journal.Snapshot().Error)
	assert.Empty(t, s.FoodLogs.Snapshot().Error)
}

func TestSession_ListIsScopedToOwner(t *testing.T) {
	ctx := context.Background()
	alice, _ := newSession("alice")
	_, err := alice.CreateTrip(ctx, parisTrip())
	require.NoError(t, err)

	listed, err := alice.LoadTrips(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
	assert.Len(t, alice.Trips.Snapshot().Items, 1)
}

func TestSession_JournalLifecycle(t *testing.T) {
	ctx := context.Background()
	s, blobs := newSession("u1")
	trip, err := s.CreateTrip(ctx, parisTrip())
	require.NoError(t, err)

	entry, err := s.CreateJournalEntry(ctx, service.CreateJournalInput{
		TripID: trip.ID,
		Date:   domain.MustDate("2025-06-02"),
		Title:  "Day one",
		Text:   "Walked along the Seine.",
	}, []service.Attachment{service.BytesAttachment("seine.jpg", "image/jpeg", []byte("x"))})
	require.NoError(t, err)
	require.Len(t, entry.Photos, 1)
	assert.Len(t, blobs.Paths(), 1)

	updated, err := s.UpdateJournalEntry(ctx, entry.ID, service.JournalPatch{Title: ptr("Day 1")}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Day 1", updated.Title)
	assert.Equal(t, "Day 1", s.Journal.Snapshot().Current.Title)

	tripID := trip.ID
	listed, err := s.LoadJournal(ctx, &tripID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	s.SelectJournalEntry(entry.ID)
	id, err := s.RemoveJournalEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, id)

	snap := s.Journal.Snapshot()
	assert.Empty(t, snap.Items)
	assert.Nil(t, snap.Current)
	assert.Empty(t, blobs.Paths())
}

func TestSession_ActivitiesSettleAsTripUpdates(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession("u1")
	trip, err := s.CreateTrip(ctx, parisTrip())
	require.NoError(t, err)
	start := domain.MustDate("2025-06-02").Time.Add(10 * time.Hour)

	trip, err = s.AddActivity(ctx, trip.ID, service.AddActivityInput{
		Title:     "Louvre",
		Type:      domain.ActivitySightseeing,
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
		Location:  domain.Location{Name: "Louvre"},
	})
	require.NoError(t, err)
	cached := s.Trips.Snapshot().Items[0]
	require.Len(t, cached.Itinerary, 1)

	actID := trip.Itinerary[0].Activities[0].ID
	_, err = s.RemoveActivity(ctx, trip.ID, actID)
	require.NoError(t, err)
	assert.Empty(t, s.Trips.Snapshot().Items[0].Itinerary[0].Activities)

	_, err = s.RemoveActivity(ctx, trip.ID, actID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NotEmpty(t, s.Trips.Snapshot().Error)
}

func TestSession_FoodLogSelectAndRemove(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession("u1")
	entry, err := s.CreateFoodLog(ctx, service.CreateFoodLogInput{
		Date:            domain.MustDate("2025-06-02"),
		MealDescription: "Croissant",
		Rating:          5,
	}, nil)
	require.NoError(t, err)

	s.SelectFoodLog("")
	assert.Nil(t, s.FoodLogs.Snapshot().Current)
	s.SelectFoodLog(entry.ID)
	assert.Equal(t, entry.ID, s.FoodLogs.Snapshot().Current.ID)

	_, err = s.UpdateFoodLog(ctx, entry.ID, service.FoodLogPatch{Rating: ptr(4)}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, s.FoodLogs.Snapshot().Current.Rating)

	_, err = s.RemoveFoodLog(ctx, entry.ID)
	require.NoError(t, err)
	assert.Empty(t, s.FoodLogs.Snapshot().Items)
}

// ---- mock ------------------------------------------------------------------

type mockTrips struct {
	session.TripRepository
	listFn   func(ctx context.Context, ownerID string) ([]domain.Trip, error)
	removeFn func(ctx context.Context, id string) (string, error)
}

func (m *mockTrips) List(ctx context.Context, ownerID string, _ *string) ([]domain.Trip, error) {
	return m.listFn(ctx, ownerID)
}

func (m *mockTrips) Remove(ctx context.Context, id string) (string, error) {
	return m.removeFn(ctx, id)
}

func TestSession_RemoteFailureKeepsCachedItems(t *testing.T) {
	ctx := context.Background()
	m := &mockTrips{
		listFn: func(_ context.Context, ownerID string) ([]domain.Trip, error) {
			assert.Equal(t, "u1", ownerID)
			return []domain.Trip{{ID: "a"}, {ID: "b"}}, nil
		},
		removeFn: func(context.Context, string) (string, error) {
			return "", errors.New("network unreachable")
		},
	}
	s := session.New("u1", m, nil, nil)

	_, err := s.LoadTrips(ctx)
	require.NoError(t, err)
	_, err = s.RemoveTrip(ctx, "a")
	require.Error(t, err)

	snap := s.Trips.Snapshot()
	assert.Len(t, snap.Items, 2)
	assert.Equal(t, "network unreachable", snap.Error)
	assert.False(t, snap.Loading)
}

func ptr[T any](v T) *T { return &v }
