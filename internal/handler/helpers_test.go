package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riyahid/travel-go/internal/domain"
	"github.com/riyahid/travel-go/internal/handler"
	"github.com/riyahid/travel-go/internal/middleware"
	"github.com/riyahid/travel-go/internal/service"
)

// ---- mocks -----------------------------------------------------------------

// mockTripServicer is a test double for handler.TripServicer.
// Set only the method fields your test needs.
type mockTripServicer struct {
	list           func(ctx context.Context, ownerID string) ([]domain.Trip, error)
	upcoming       func(ctx context.Context, ownerID string, limit int) ([]domain.Trip, error)
	ongoing        func(ctx context.Context, ownerID string) ([]domain.Trip, error)
	get            func(ctx context.Context, id string) (domain.Trip, error)
	create         func(ctx context.Context, ownerID string, in service.CreateTripInput) (domain.Trip, error)
	update         func(ctx context.Context, id string, patch service.TripPatch) (domain.Trip, error)
	remove         func(ctx context.Context, id string) (string, error)
	addActivity    func(ctx context.Context, tripID string, in service.AddActivityInput) (domain.Trip, error)
	removeActivity func(ctx context.Context, tripID, activityID string) (domain.Trip, error)
}

var _ handler.TripServicer = (*mockTripServicer)(nil)

func (m *mockTripServicer) List(ctx context.Context, ownerID string, _ *string) ([]domain.Trip, error) {
	return m.list(ctx, ownerID)
}
func (m *mockTripServicer) Upcoming(ctx context.Context, ownerID string, limit int) ([]domain.Trip, error) {
	return m.upcoming(ctx, ownerID, limit)
}
func (m *mockTripServicer) Ongoing(ctx context.Context, ownerID string) ([]domain.Trip, error) {
	return m.ongoing(ctx, ownerID)
}
func (m *mockTripServicer) Get(ctx context.Context, id string) (domain.Trip, error) {
	return m.get(ctx, id)
}
func (m *mockTripServicer) Create(ctx context.Context, ownerID string, in service.CreateTripInput, _ []service.Attachment) (domain.Trip, error) {
	return m.create(ctx, ownerID, in)
}
func (m *mockTripServicer) Update(ctx context.Context, id string, patch service.TripPatch, _ []service.Attachment, _ []string) (domain.Trip, error) {
	return m.update(ctx, id, patch)
}
func (m *mockTripServicer) Remove(ctx context.Context, id string) (string, error) {
	return m.remove(ctx, id)
}
func (m *mockTripServicer) AddActivity(ctx context.Context, tripID string, in service.AddActivityInput) (domain.Trip, error) {
	return m.addActivity(ctx, tripID, in)
}
func (m *mockTripServicer) RemoveActivity(ctx context.Context, tripID, activityID string) (domain.Trip, error) {
	return m.removeActivity(ctx, tripID, activityID)
}

// mockJournalServicer is a test double for handler.JournalServicer.
type mockJournalServicer struct {
	list   func(ctx context.Context, ownerID string, tripID *string) ([]domain.JournalEntry, error)
	get    func(ctx context.Context, id string) (domain.JournalEntry, error)
	create func(ctx context.Context, ownerID string, in service.CreateJournalInput, atts []service.Attachment) (domain.JournalEntry, error)
	update func(ctx context.Context, id string, patch service.JournalPatch, newAtts []service.Attachment, retained []string) (domain.JournalEntry, error)
	remove func(ctx context.Context, id string) (string, error)
}

var _ handler.JournalServicer = (*mockJournalServicer)(nil)

func (m *mockJournalServicer) List(ctx context.Context, ownerID string, tripID *string) ([]domain.JournalEntry, error) {
	return m.list(ctx, ownerID, tripID)
}
func (m *mockJournalServicer) Get(ctx context.Context, id string) (domain.JournalEntry, error) {
	return m.get(ctx, id)
}
func (m *mockJournalServicer) Create(ctx context.Context, ownerID string, in service.CreateJournalInput, atts []service.Attachment) (domain.JournalEntry, error) {
	return m.create(ctx, ownerID, in, atts)
}
func (m *mockJournalServicer) Update(ctx context.Context, id string, patch service.JournalPatch, newAtts []service.Attachment, retained []string) (domain.JournalEntry, error) {
	return m.update(ctx, id, patch, newAtts, retained)
}
func (m *mockJournalServicer) Remove(ctx context.Context, id string) (string, error) {
	return m.remove(ctx, id)
}

// mockFoodLogServicer is a test double for handler.FoodLogServicer.
type mockFoodLogServicer struct {
	list   func(ctx context.Context, ownerID string, tripID *string) ([]domain.FoodLogEntry, error)
	get    func(ctx context.Context, id string) (domain.FoodLogEntry, error)
	create func(ctx context.Context, ownerID string, in service.CreateFoodLogInput, atts []service.Attachment) (domain.FoodLogEntry, error)
	update func(ctx context.Context, id string, patch service.FoodLogPatch, newAtts []service.Attachment, retained []string) (domain.FoodLogEntry, error)
	remove func(ctx context.Context, id string) (string, error)
}

var _ handler.FoodLogServicer = (*mockFoodLogServicer)(nil)

func (m *mockFoodLogServicer) List(ctx context.Context, ownerID string, tripID *string) ([]domain.FoodLogEntry, error) {
	return m.list(ctx, ownerID, tripID)
}
func (m *mockFoodLogServicer) Get(ctx context.Context, id string) (domain.FoodLogEntry, error) {
	return m.get(ctx, id)
}
func (m *mockFoodLogServicer) Create(ctx context.Context, ownerID string, in service.CreateFoodLogInput, atts []service.Attachment) (domain.FoodLogEntry, error) {
	return m.create(ctx, ownerID, in, atts)
}
func (m *mockFoodLogServicer) Update(ctx context.Context, id string, patch service.FoodLogPatch, newAtts []service.Attachment, retained []string) (domain.FoodLogEntry, error) {
	return m.update(ctx, id, patch, newAtts, retained)
}
func (m *mockFoodLogServicer) Remove(ctx context.Context, id string) (string, error) {
	return m.remove(ctx, id)
}

// tokens maps bearer tokens to owners for the auth middleware.
type tokens map[string]string

func (t tokens) ValidateToken(_ context.Context, token string) (string, error) {
	if owner, ok := t[token]; ok {
		return owner, nil
	}
	return "", errors.New("unknown token")
}

// ---- helpers ---------------------------------------------------------------

const ownerToken = "token-u1"

// newHTTPHandler wires a Server with the given mocks behind the real auth
// middleware, mirroring how main.go wires it in production. "token-u1"
// authenticates as u1 and "token-u2" as u2.
func newHTTPHandler(trips handler.TripServicer, journal handler.JournalServicer, food handler.FoodLogServicer) http.Handler {
	srv := handler.NewServer(trips, journal, food, nil)
	auth := middleware.NewAuthHandler(tokens{ownerToken: "u1", "token-u2": "u2"})
	return srv.Routes(auth)
}

// do sends req as u1 unless it already carries an Authorization header.
func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	if req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+ownerToken)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func ptr[T any](v T) *T { return &v }
