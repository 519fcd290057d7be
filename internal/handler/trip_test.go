package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riyahid/travel-go/internal/domain"
	"github.com/riyahid/travel-go/internal/handler"
	"github.com/riyahid/travel-go/internal/service"
)

func tripFixture() domain.Trip {
	return domain.Trip{
		ID:          "trip-1",
		OwnerID:     "u1",
		Title:       "Paris",
		StartDate:   domain.MustDate("2025-06-01"),
		EndDate:     domain.MustDate("2025-06-05"),
		Destination: domain.Destination{Name: "Paris", Country: "France"},
		Status:      domain.TripPlanning,
		Itinerary:   []domain.ItineraryDay{},
		Budget:      domain.NewBudget(nil),
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
}

// getFixture returns a get func serving trip for its own id only.
func getFixture(trip domain.Trip) func(context.Context, string) (domain.Trip, error) {
	return func(_ context.Context, id string) (domain.Trip, error) {
		if id != trip.ID {
			return domain.Trip{}, domain.ErrNotFound
		}
		return trip, nil
	}
}

// ---- POST /trips -----------------------------------------------------------

func TestCreateTrip_201(t *testing.T) {
	fixture := tripFixture()
	svc := &mockTripServicer{
		create: func(_ context.Context, ownerID string, in service.CreateTripInput) (domain.Trip, error) {
			assert.Equal(t, "u1", ownerID)
			assert.Equal(t, "Paris", in.Title)
			assert.Equal(t, "2025-06-05", domain.DateKey(in.EndDate))
			return fixture, nil
		},
	}

	body := jsonBody(t, map[string]any{
		"title":       "Paris",
		"startDate":   "2025-06-01",
		"endDate":     "2025-06-05",
		"destination": map[string]any{"name": "Paris", "country": "France"},
	})
	req := httptest.NewRequest(http.MethodPost, "/trips", body)
	req.Header.Set("Content-Type", "application/json")

	rec := do(newHTTPHandler(svc, nil, nil), req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var resp domain.Trip
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, fixture.ID, resp.ID)
	assert.Equal(t, domain.TripPlanning, resp.Status)
	assert.Equal(t, "USD", resp.Budget.Currency)
}

func TestCreateTrip_422_ValidationError(t *testing.T) {
	svc := &mockTripServicer{
		create: func(_ context.Context, _ string, _ service.CreateTripInput) (domain.Trip, error) {
			verr := domain.NewValidationError("title", "required")
			return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", verr)
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/trips", jsonBody(t, map[string]any{"title": ""}))
	rec := do(newHTTPHandler(svc, nil, nil), req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "validation_error", resp.Error.Code)
	assert.Equal(t, "title: required", resp.Error.Message)
	require.Len(t, resp.Error.Fields, 1)
	assert.Equal(t, "title", resp.Error.Fields[0].Field)
}

func TestCreateTrip_422_MalformedBody(t *testing.T) {
	svc := &mockTripServicer{}

	for name, body := range map[string]string{
		"empty":    "",
		"not json": "{title",
		"bad date": `{"title":"Paris","startDate":"June 1st"}`,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/trips", strings.NewReader(body))
			rec := do(newHTTPHandler(svc, nil, nil), req)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		})
	}
}

func TestCreateTrip_500_HidesRemoteError(t *testing.T) {
	svc := &mockTripServicer{
		create: func(_ context.Context, _ string, _ service.CreateTripInput) (domain.Trip, error) {
			return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w: %w", domain.ErrRemoteWrite, errors.New("dial tcp 10.0.0.7:5432"))
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/trips", jsonBody(t, map[string]any{"title": "Paris"}))
	rec := do(newHTTPHandler(svc, nil, nil), req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.7")
	assert.Equal(t, "internal_error", decodeError(t, rec).Error.Code)
}

// ---- GET /trips ------------------------------------------------------------

func TestListTrips_200(t *testing.T) {
	svc := &mockTripServicer{
		list: func(_ context.Context, ownerID string) ([]domain.Trip, error) {
			assert.Equal(t, "u1", ownerID)
			return []domain.Trip{tripFixture(), tripFixture()}, nil
		},
	}

	rec := do(newHTTPHandler(svc, nil, nil), httptest.NewRequest(http.MethodGet, "/trips", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp handler.ListResponse[domain.Trip]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Data, 2)
}

func TestListTrips_200_Empty(t *testing.T) {
	svc := &mockTripServicer{
		list: func(_ context.Context, _ string) ([]domain.Trip, error) { return nil, nil },
	}

	rec := do(newHTTPHandler(svc, nil, nil), httptest.NewRequest(http.MethodGet, "/trips", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	// Must be a JSON array, not null.
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

func TestListUpcomingTrips_Limit(t *testing.T) {
	var gotLimit int
	svc := &mockTripServicer{
		upcoming: func(_ context.Context, _ string, limit int) ([]domain.Trip, error) {
			gotLimit = limit
			return []domain.Trip{}, nil
		},
	}
	h := newHTTPHandler(svc, nil, nil)

	rec := do(h, httptest.NewRequest(http.MethodGet, "/trips/upcoming", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, gotLimit)

	rec = do(h, httptest.NewRequest(http.MethodGet, "/trips/upcoming?limit=5", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, gotLimit)

	rec = do(h, httptest.NewRequest(http.MethodGet, "/trips/upcoming?limit=zero", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestListOngoingTrips_200(t *testing.T) {
	svc := &mockTripServicer{
		ongoing: func(_ context.Context, _ string) ([]domain.Trip, error) {
			return []domain.Trip{tripFixture()}, nil
		},
	}

	rec := do(newHTTPHandler(svc, nil, nil), httptest.NewRequest(http.MethodGet, "/trips/ongoing", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Paris"`)
}

// ---- GET /trips/{id} -------------------------------------------------------

func TestGetTrip_200(t *testing.T) {
	fixture := tripFixture()
	svc := &mockTripServicer{get: getFixture(fixture)}

	rec := do(newHTTPHandler(svc, nil, nil), httptest.NewRequest(http.MethodGet, "/trips/"+fixture.ID, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp domain.Trip
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, fixture.ID, resp.ID)
	assert.Equal(t, "2025-06-01", domain.DateKey(resp.StartDate))
}

func TestGetTrip_404(t *testing.T) {
	svc := &mockTripServicer{get: getFixture(tripFixture())}

	rec := do(newHTTPHandler(svc, nil, nil), httptest.NewRequest(http.MethodGet, "/trips/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "trip not found", decodeError(t, rec).Error.Message)
}

func TestGetTrip_404_OtherOwner(t *testing.T) {
	fixture := tripFixture()
	svc := &mockTripServicer{get: getFixture(fixture)}

	req := httptest.NewRequest(http.MethodGet, "/trips/"+fixture.ID, nil)
	req.Header.Set("Authorization", "Bearer token-u2")
	rec := do(newHTTPHandler(svc, nil, nil), req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ---- PATCH /trips/{id} -----------------------------------------------------

func TestUpdateTrip_200(t *testing.T) {
	fixture := tripFixture()
	svc := &mockTripServicer{
		get: getFixture(fixture),
		update: func(_ context.Context, id string, patch service.TripPatch) (domain.Trip, error) {
			assert.Equal(t, fixture.ID, id)
			require.NotNil(t, patch.Status)
			assert.Equal(t, domain.TripUpcoming, *patch.Status)
			assert.Nil(t, patch.Title, "absent fields stay nil")
			updated := fixture
			updated.Status = *patch.Status
			return updated, nil
		},
	}

	req := httptest.NewRequest(http.MethodPatch, "/trips/"+fixture.ID, jsonBody(t, map[string]any{"status": "upcoming"}))
	rec := do(newHTTPHandler(svc, nil, nil), req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"upcoming"`)
}

func TestUpdateTrip_404_OtherOwnerNeverUpdates(t *testing.T) {
	fixture := tripFixture()
	fixture.OwnerID = "u2"
	svc := &mockTripServicer{get: getFixture(fixture)}

	req := httptest.NewRequest(http.MethodPatch, "/trips/"+fixture.ID, jsonBody(t, map[string]any{"title": "Mine now"}))
	rec := do(newHTTPHandler(svc, nil, nil), req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ---- DELETE /trips/{id} ----------------------------------------------------

func TestDeleteTrip_200(t *testing.T) {
	fixture := tripFixture()
	svc := &mockTripServicer{
		get:    getFixture(fixture),
		remove: func(_ context.Context, id string) (string, error) { return id, nil },
	}

	rec := do(newHTTPHandler(svc, nil, nil), httptest.NewRequest(http.MethodDelete, "/trips/"+fixture.ID, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"trip-1"}`, rec.Body.String())
}

func TestDeleteTrip_404(t *testing.T) {
	svc := &mockTripServicer{get: getFixture(tripFixture())}

	rec := do(newHTTPHandler(svc, nil, nil), httptest.NewRequest(http.MethodDelete, "/trips/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ---- activities ------------------------------------------------------------

func TestAddActivity_201(t *testing.T) {
	fixture := tripFixture()
	svc := &mockTripServicer{
		get: getFixture(fixture),
		addActivity: func(_ context.Context, tripID string, in service.AddActivityInput) (domain.Trip, error) {
			assert.Equal(t, fixture.ID, tripID)
			assert.Equal(t, domain.ActivitySightseeing, in.Type)
			assert.Equal(t, 10, in.StartTime.Hour())
			updated := fixture
			updated.Itinerary = []domain.ItineraryDay{{
				Date:       domain.MustDate("2025-06-02"),
				Activities: []domain.Activity{{ID: "a1", Title: in.Title, Type: in.Type, Status: domain.ActivityPlanned}},
			}}
			return updated, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/trips/"+fixture.ID+"/activities", jsonBody(t, map[string]any{
		"title":     "Louvre",
		"type":      "sightseeing",
		"startTime": "2025-06-02T10:00:00Z",
		"endTime":   "2025-06-02T12:00:00Z",
		"location":  map[string]any{"name": "Louvre"},
	}))
	rec := do(newHTTPHandler(svc, nil, nil), req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"a1"`)
}

func TestRemoveActivity_404(t *testing.T) {
	fixture := tripFixture()
	svc := &mockTripServicer{
		get: getFixture(fixture),
		removeActivity: func(_ context.Context, _, activityID string) (domain.Trip, error) {
			assert.Equal(t, "nope", activityID)
			return domain.Trip{}, fmt.Errorf("service.TripService.RemoveActivity: %w", domain.ErrNotFound)
		},
	}

	rec := do(newHTTPHandler(svc, nil, nil), httptest.NewRequest(http.MethodDelete, "/trips/"+fixture.ID+"/activities/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "activity not found", decodeError(t, rec).Error.Message)
}

func TestUpdateTrip_blankTitleUsesPtr(t *testing.T) {
	// An explicit empty string reaches the service as a set, blank field.
	fixture := tripFixture()
	svc := &mockTripServicer{
		get: getFixture(fixture),
		update: func(_ context.Context, _ string, patch service.TripPatch) (domain.Trip, error) {
			assert.Equal(t, ptr(""), patch.Title)
			return domain.Trip{}, domain.NewValidationError("title", "required")
		},
	}

	req := httptest.NewRequest(http.MethodPatch, "/trips/"+fixture.ID, jsonBody(t, map[string]any{"title": ""}))
	rec := do(newHTTPHandler(svc, nil, nil), req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
