package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/auth"
	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/itinerary"
	"github.com/pkordes/trip-planner/internal/metrics"
	"github.com/pkordes/trip-planner/internal/repo"
)

// TripInput is the caller-editable part of a trip.
type TripInput struct {
	Title     string
	StartDate string
	EndDate   string
}

// TripService implements business logic for whole-trip operations.
type TripService struct {
	trips              repo.TripStore
	trackCollaborators bool
}

// NewTripService constructs a TripService backed by the provided TripStore.
// With trackCollaborators set, new trips record the owner's email in
// Collaborators.
func NewTripService(trips repo.TripStore, trackCollaborators bool) *TripService {
	return &TripService{trips: trips, trackCollaborators: trackCollaborators}
}

// Create validates and persists a new trip owned by the caller.
// Returns domain.ErrValidation if input violates business rules.
func (s *TripService) Create(ctx context.Context, in TripInput) (_ domain.Trip, err error) {
	defer func() {
		metrics.TripMutations.WithLabelValues("TripService.Create", metrics.Outcome(err)).Inc()
	}()

	caller, err := auth.RequireUser(ctx)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	in, err = validateTripInput(in)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}

	ts := now()
	trip := domain.Trip{
		ID:           uuid.New(),
		Title:        in.Title,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		OwnerID:      caller.UID,
		AllowedUsers: []string{caller.UID},
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	if s.trackCollaborators {
		trip.Collaborators = []domain.Collaborator{{UID: caller.UID, Email: caller.Email}}
	}
	trip.Normalize()

	if err := s.trips.Put(ctx, trip); err != nil {
		return domain.Trip{}, storeError("TripService.Create", err)
	}
	return trip, nil
}

// Get returns a single trip the caller can access.
// Returns domain.ErrNotFound if it does not exist or is not shared with them.
func (s *TripService) Get(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	t, _, err := loadForCaller(ctx, s.trips, "TripService.Get", id)
	return t, err
}

// List returns one page of the caller's trips, most recently updated first,
// and the total number of trips they can access.
func (s *TripService) List(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int, error) {
	caller, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.List: %w", err)
	}
	trips, err := s.trips.ListForUser(ctx, caller.UID)
	if err != nil {
		return nil, 0, storeError("TripService.List", err)
	}
	page, total := domain.Paginate(trips, p)
	return page, total, nil
}

// Update replaces the title and dates of a trip.
func (s *TripService) Update(ctx context.Context, id uuid.UUID, in TripInput) (domain.Trip, error) {
	in, err := validateTripInput(in)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	return mutate(ctx, s.trips, "TripService.Update", id, func(t *domain.Trip, _ domain.Identity) error {
		t.Title = in.Title
		t.StartDate = in.StartDate
		t.EndDate = in.EndDate
		return nil
	})
}

// Delete removes a trip. Only the owner may delete it; other users with
// access get domain.ErrForbidden.
func (s *TripService) Delete(ctx context.Context, id uuid.UUID) (err error) {
	defer func() {
		metrics.TripMutations.WithLabelValues("TripService.Delete", metrics.Outcome(err)).Inc()
	}()

	t, caller, err := loadForCaller(ctx, s.trips, "TripService.Delete", id)
	if err != nil {
		return err
	}
	if t.OwnerID != caller.UID {
		return fmt.Errorf("service.TripService.Delete: %w: only the owner can delete a trip", domain.ErrForbidden)
	}
	if err := s.trips.Delete(ctx, id); err != nil {
		return storeError("TripService.Delete", err)
	}
	return nil
}

// validateTripInput enforces business rules common to both Create and Update.
//   - Title must be non-empty after sanitizing.
//   - Both dates must be YYYY-MM-DD calendar dates. An end date before the
//     start date is allowed; the trip then has no days.
//   - The trip may span at most itinerary.MaxDays days.
func validateTripInput(in TripInput) (TripInput, error) {
	in.Title = cleanText(in.Title)
	if in.Title == "" {
		return in, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if _, err := itinerary.ParseDate(in.StartDate); err != nil {
		return in, fmt.Errorf("%w: start_date must be a YYYY-MM-DD date", domain.ErrValidation)
	}
	if _, err := itinerary.ParseDate(in.EndDate); err != nil {
		return in, fmt.Errorf("%w: end_date must be a YYYY-MM-DD date", domain.ErrValidation)
	}
	if n, _ := itinerary.SpanDays(in.StartDate, in.EndDate); n > itinerary.MaxDays {
		return in, fmt.Errorf("%w: a trip can span at most %d days", domain.ErrValidation, itinerary.MaxDays)
	}
	return in, nil
}
