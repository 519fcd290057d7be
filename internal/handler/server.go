// Package handler implements the HTTP API for the travel companion.
// All handlers are methods on Server; routes are registered on a chi router
// by Routes. Methods are split into domain-specific files (health.go,
// trip.go, journal.go, foodlog.go) but share the same Server struct.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/riyahid/travel-go/internal/domain"
	"github.com/riyahid/travel-go/internal/service"
	"github.com/riyahid/travel-go/pkg/ctxutil"
	"github.com/riyahid/travel-go/spec"
)

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching any store.
type TripServicer interface {
	List(ctx context.Context, ownerID string, tripID *string) ([]domain.Trip, error)
	Upcoming(ctx context.Context, ownerID string, limit int) ([]domain.Trip, error)
	Ongoing(ctx context.Context, ownerID string) ([]domain.Trip, error)
	Get(ctx context.Context, id string) (domain.Trip, error)
	Create(ctx context.Context, ownerID string, in service.CreateTripInput, atts []service.Attachment) (domain.Trip, error)
	Update(ctx context.Context, id string, patch service.TripPatch, newAtts []service.Attachment, retained []string) (domain.Trip, error)
	Remove(ctx context.Context, id string) (string, error)
	AddActivity(ctx context.Context, tripID string, in service.AddActivityInput) (domain.Trip, error)
	RemoveActivity(ctx context.Context, tripID, activityID string) (domain.Trip, error)
}

// JournalServicer defines the journal operations the handlers depend on.
type JournalServicer interface {
	List(ctx context.Context, ownerID string, tripID *string) ([]domain.JournalEntry, error)
	Get(ctx context.Context, id string) (domain.JournalEntry, error)
	Create(ctx context.Context, ownerID string, in service.CreateJournalInput, atts []service.Attachment) (domain.JournalEntry, error)
	Update(ctx context.Context, id string, patch service.JournalPatch, newAtts []service.Attachment, retained []string) (domain.JournalEntry, error)
	Remove(ctx context.Context, id string) (string, error)
}

// FoodLogServicer defines the food log operations the handlers depend on.
type FoodLogServicer interface {
	List(ctx context.Context, ownerID string, tripID *string) ([]domain.FoodLogEntry, error)
	Get(ctx context.Context, id string) (domain.FoodLogEntry, error)
	Create(ctx context.Context, ownerID string, in service.CreateFoodLogInput, atts []service.Attachment) (domain.FoodLogEntry, error)
	Update(ctx context.Context, id string, patch service.FoodLogPatch, newAtts []service.Attachment, retained []string) (domain.FoodLogEntry, error)
	Remove(ctx context.Context, id string) (string, error)
}

var (
	_ TripServicer    = (*service.TripService)(nil)
	_ JournalServicer = (*service.JournalService)(nil)
	_ FoodLogServicer = (*service.FoodLogService)(nil)
)

// Server holds the dependencies shared by every handler.
type Server struct {
	trips   TripServicer
	journal JournalServicer
	food    FoodLogServicer
	log     *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(trips TripServicer, journal JournalServicer, food FoodLogServicer, log *slog.Logger) *Server {
	return &Server{trips: trips, journal: journal, food: food, log: logger(log)}
}

// Routes returns the API router. auth guards every route except the health
// check and the OpenAPI document; it must put the owner id in the request
// context (see middleware.NewAuthHandler).
func (s *Server) Routes(auth func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", serveOpenAPI)

	r.Group(func(r chi.Router) {
		r.Use(auth)

		r.Route("/trips", func(r chi.Router) {
			r.Get("/", s.ListTrips)
			r.Post("/", s.CreateTrip)
			r.Get("/upcoming", s.ListUpcomingTrips)
			r.Get("/ongoing", s.ListOngoingTrips)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.GetTrip)
				r.Patch("/", s.UpdateTrip)
				r.Delete("/", s.DeleteTrip)
				r.Post("/activities", s.AddActivity)
				r.Delete("/activities/{activityId}", s.RemoveActivity)
			})
		})

		r.Route("/journal", func(r chi.Router) {
			r.Get("/", s.ListJournalEntries)
			r.Post("/", s.CreateJournalEntry)
			r.Get("/{id}", s.GetJournalEntry)
			r.Patch("/{id}", s.UpdateJournalEntry)
			r.Delete("/{id}", s.DeleteJournalEntry)
		})

		r.Route("/food-logs", func(r chi.Router) {
			r.Get("/", s.ListFoodLogs)
			r.Post("/", s.CreateFoodLog)
			r.Get("/{id}", s.GetFoodLog)
			r.Patch("/{id}", s.UpdateFoodLog)
			r.Delete("/{id}", s.DeleteFoodLog)
		})
	})

	return r
}

func serveOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(spec.OpenAPI)
}

// ownerID returns the authenticated owner, writing 401 when there is none.
func ownerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := ctxutil.OwnerIDFromCtx(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized,
			ErrorResponse{Error: ErrorDetail{Code: "unauthorized", Message: "authentication required"}})
	}
	return id, ok
}

// loadOwned fetches the resource at the {id} path parameter and checks it
// belongs to the caller. Foreign resources are reported as not found so
// their existence is not leaked. It writes the error response itself and
// returns false on any failure.
func loadOwned[T any](s *Server, w http.ResponseWriter, r *http.Request,
	get func(context.Context, string) (T, error), owner func(T) string, notFound string,
) (T, bool) {
	var zero T
	caller, ok := ownerID(w, r)
	if !ok {
		return zero, false
	}
	v, err := get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err, notFound)
		return zero, false
	}
	if owner(v) != caller {
		writeJSON(w, http.StatusNotFound, notFoundBody(notFound))
		return zero, false
	}
	return v, true
}

// tripIDQuery reads the optional ?trip_id= filter.
func tripIDQuery(r *http.Request) *string {
	if v := r.URL.Query().Get("trip_id"); v != "" {
		return &v
	}
	return nil
}
