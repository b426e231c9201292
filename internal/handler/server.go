// Package handler implements the HTTP handlers for the trip planner API.
// All handlers are methods on Server and are mounted by Server.Routes.
// Methods are split into domain-specific files (health.go, trip.go, etc.) but
// all share the same Server struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/api"
	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/itinerary"
	"github.com/pkordes/trip-planner/internal/live"
	"github.com/pkordes/trip-planner/internal/middleware"
	"github.com/pkordes/trip-planner/internal/service"
)

// TripServicer defines the business operations the trip handler depends on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the store or service layer.
type TripServicer interface {
	Create(ctx context.Context, in service.TripInput) (domain.Trip, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	List(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int, error)
	Update(ctx context.Context, id uuid.UUID, in service.TripInput) (domain.Trip, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ItineraryServicer defines the item and day-view operations.
type ItineraryServicer interface {
	AddItem(ctx context.Context, tripID uuid.UUID, item domain.ItineraryItem) (domain.ItineraryItem, error)
	UpdateItem(ctx context.Context, tripID uuid.UUID, item domain.ItineraryItem) (domain.ItineraryItem, error)
	DeleteItem(ctx context.Context, tripID, itemID uuid.UUID) error
	Days(ctx context.Context, tripID uuid.UUID) ([]itinerary.DayBucket, error)
}

// ExportServicer builds the flat itinerary export of a trip.
type ExportServicer interface {
	Export(ctx context.Context, tripID uuid.UUID) (domain.Trip, []domain.ExportRow, error)
}

// ExpenseServicer defines the expense operations.
type ExpenseServicer interface {
	AddExpense(ctx context.Context, tripID uuid.UUID, e domain.Expense) (domain.Expense, error)
	DeleteExpense(ctx context.Context, tripID, expenseID uuid.UUID) error
	Summary(ctx context.Context, tripID uuid.UUID) (domain.ExpenseSummary, error)
}

// PackingServicer defines the packing list operations.
type PackingServicer interface {
	AddItem(ctx context.Context, tripID uuid.UUID, name string) (domain.PackingItem, error)
	ToggleItem(ctx context.Context, tripID, itemID uuid.UUID) ([]domain.PackingItem, error)
	RemoveItem(ctx context.Context, tripID, itemID uuid.UUID) error
	Progress(ctx context.Context, tripID uuid.UUID) (domain.PackingProgress, error)
}

// ReviewServicer defines the review operations.
type ReviewServicer interface {
	AddReview(ctx context.Context, tripID uuid.UUID, rating int, comment string) (domain.Review, error)
	DeleteReview(ctx context.Context, tripID, reviewID uuid.UUID) error
	Summary(ctx context.Context, tripID uuid.UUID) (domain.ReviewSummary, error)
}

// DocumentServicer defines the travel document operations.
type DocumentServicer interface {
	Upload(ctx context.Context, tripID uuid.UUID, p domain.FilePayload) (domain.TravelDocument, error)
	DeleteDocument(ctx context.Context, tripID, docID uuid.UUID) error
}

// CollaboratorServicer defines the sharing operations.
type CollaboratorServicer interface {
	AddByEmail(ctx context.Context, tripID uuid.UUID, email string) (domain.Collaborator, error)
	Remove(ctx context.Context, tripID uuid.UUID, uid string) error
	List(ctx context.Context, tripID uuid.UUID) ([]domain.Collaborator, error)
}

// UserServicer defines registration and sign-in.
type UserServicer interface {
	Register(ctx context.Context, in service.RegisterInput) (service.Session, error)
	Login(ctx context.Context, email, password string) (service.Session, error)
	Me(ctx context.Context) (domain.User, error)
}

// WeatherServicer defines forecasts and reverse geocoding.
type WeatherServicer interface {
	Forecast(ctx context.Context, lat, lon float64) ([]domain.DailyForecast, error)
	Reverse(ctx context.Context, lat, lon float64) (domain.Place, error)
	TripForecast(ctx context.Context, tripID uuid.UUID) ([]domain.LocationForecast, error)
}

// LiveServicer opens live subscriptions. *live.Broker satisfies it.
type LiveServicer interface {
	SubscribeTrip(ctx context.Context, id uuid.UUID) (*live.Subscription[live.TripSnapshot], error)
	SubscribeUserTrips(ctx context.Context, uid string) (*live.Subscription[[]domain.Trip], error)
}

// Services bundles the dependencies of every route. A nil field leaves its
// routes unmounted, so tests can wire only what they exercise.
type Services struct {
	Trips         TripServicer
	Itinerary     ItineraryServicer
	Export        ExportServicer
	Expenses      ExpenseServicer
	Packing       PackingServicer
	Reviews       ReviewServicer
	Documents     DocumentServicer
	Collaborators CollaboratorServicer
	Users         UserServicer
	Weather       WeatherServicer
	Live          LiveServicer
}

// Options tunes request limits and streaming.
type Options struct {
	// MaxBodyBytes caps JSON request bodies. Zero means 1 MiB.
	MaxBodyBytes int64
	// MaxUploadBytes caps a document's size. Zero means 5 MiB.
	MaxUploadBytes int64
	// Heartbeat is the interval between keep-alive comments on event streams.
	// Zero means 25 seconds.
	Heartbeat time.Duration
}

// multipartOverhead is the allowance for multipart framing on uploads.
const multipartOverhead = 64 << 10

// Server holds every service the HTTP handlers call.
type Server struct {
	svc    Services
	opts   Options
	logger *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(svc Services, opts Options, logger *slog.Logger) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 5 << 20
	}
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = 25 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{svc: svc, opts: opts, logger: logger}
}

// Routes returns a router serving the whole API. Cross-cutting middleware
// (request ids, logging, auth, rate limiting) is added by the caller.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", serveOpenAPI)

	jsonBody := middleware.NewMaxBodySizeHandler(s.opts.MaxBodyBytes)

	if s.svc.Users != nil {
		r.With(jsonBody).Post("/auth/register", s.Register)
		r.With(jsonBody).Post("/auth/login", s.Login)
		r.Get("/auth/me", s.Me)
	}
	if s.svc.Weather != nil {
		r.Get("/weather", s.GetForecast)
		r.Get("/geocode/reverse", s.ReverseGeocode)
	}

	r.Route("/trips", func(r chi.Router) {
		if s.svc.Live != nil {
			r.Get("/events", s.StreamUserTrips)
		}
		if s.svc.Trips != nil {
			r.Get("/", s.ListTrips)
			r.With(jsonBody).Post("/", s.CreateTrip)
		}

		r.Route("/{tripID}", func(r chi.Router) {
			if s.svc.Trips != nil {
				r.Get("/", s.GetTrip)
				r.With(jsonBody).Put("/", s.UpdateTrip)
				r.Delete("/", s.DeleteTrip)
			}
			if s.svc.Live != nil && s.svc.Trips != nil {
				r.Get("/events", s.StreamTrip)
			}
			if s.svc.Itinerary != nil {
				r.Get("/days", s.ListDays)
				r.With(jsonBody).Post("/items", s.AddItem)
				r.With(jsonBody).Put("/items/{itemID}", s.UpdateItem)
				r.Delete("/items/{itemID}", s.DeleteItem)
			}
			if s.svc.Export != nil {
				r.Get("/export", s.GetExport)
			}
			if s.svc.Expenses != nil {
				r.Get("/expenses/summary", s.ExpenseSummary)
				r.With(jsonBody).Post("/expenses", s.AddExpense)
				r.Delete("/expenses/{expenseID}", s.DeleteExpense)
			}
			if s.svc.Packing != nil {
				r.Get("/packing/progress", s.PackingProgress)
				r.With(jsonBody).Post("/packing", s.AddPackingItem)
				r.Post("/packing/{itemID}/toggle", s.TogglePackingItem)
				r.Delete("/packing/{itemID}", s.RemovePackingItem)
			}
			if s.svc.Reviews != nil {
				r.Get("/reviews/summary", s.ReviewSummary)
				r.With(jsonBody).Post("/reviews", s.AddReview)
				r.Delete("/reviews/{reviewID}", s.DeleteReview)
			}
			if s.svc.Documents != nil {
				upload := middleware.NewMaxBodySizeHandler(s.opts.MaxUploadBytes + multipartOverhead)
				r.With(upload).Post("/documents", s.UploadDocument)
				r.Delete("/documents/{documentID}", s.DeleteDocument)
			}
			if s.svc.Collaborators != nil {
				r.Get("/collaborators", s.ListCollaborators)
				r.With(jsonBody).Post("/collaborators", s.AddCollaborator)
				r.Delete("/collaborators/{uid}", s.RemoveCollaborator)
			}
			if s.svc.Weather != nil {
				r.Get("/weather", s.GetTripWeather)
			}
		})
	})
	return r
}

// serveOpenAPI handles GET /openapi.yaml.
func serveOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(api.OpenAPI)
}
