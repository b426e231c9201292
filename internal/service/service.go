// Package service contains the business logic for the trip planner.
// Services validate inputs, enforce access, and apply every change to a trip
// as one read-modify-write of the whole snapshot through repo.TripStore.
// No storage code lives here: services depend on repo interfaces, not
// implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/auth"
	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/itinerary"
	"github.com/pkordes/trip-planner/internal/metrics"
	"github.com/pkordes/trip-planner/internal/repo"
)

// now is the clock stamped on UpdatedAt, CreatedAt and UploadedAt.
var now = func() time.Time { return time.Now().UTC() }

// mutation edits a loaded trip in place. Returning an error aborts the write.
type mutation func(t *domain.Trip, caller domain.Identity) error

// loadForCaller loads trip id for the signed-in caller.
// A trip the caller is not allowed to see is reported as domain.ErrNotFound.
func loadForCaller(ctx context.Context, trips repo.TripStore, op string, id uuid.UUID) (domain.Trip, domain.Identity, error) {
	caller, err := auth.RequireUser(ctx)
	if err != nil {
		return domain.Trip{}, domain.Identity{}, fmt.Errorf("service.%s: %w", op, err)
	}
	t, err := trips.Get(ctx, id)
	if err != nil {
		return domain.Trip{}, domain.Identity{}, storeError(op, err)
	}
	if !t.HasAccess(caller.UID) {
		return domain.Trip{}, domain.Identity{}, fmt.Errorf("service.%s: %w", op, domain.ErrNotFound)
	}
	t.Normalize()
	return t, caller, nil
}

// mutate loads trip id, applies fn and writes the whole trip back.
// There is no version check: two mutations that load the same snapshot both
// succeed and the later Put wins.
func mutate(ctx context.Context, trips repo.TripStore, op string, id uuid.UUID, fn mutation) (_ domain.Trip, err error) {
	defer func() {
		metrics.TripMutations.WithLabelValues(op, metrics.Outcome(err)).Inc()
	}()

	t, caller, err := loadForCaller(ctx, trips, op, id)
	if err != nil {
		return domain.Trip{}, err
	}
	if err := fn(&t, caller); err != nil {
		return domain.Trip{}, fmt.Errorf("service.%s: %w", op, err)
	}
	t.UpdatedAt = now()
	if err := trips.Put(ctx, t); err != nil {
		return domain.Trip{}, storeError(op, err)
	}
	return t, nil
}

// storeError passes domain.ErrNotFound through and reports anything else as
// domain.ErrUpstream.
func storeError(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("service.%s: %w", op, err)
	}
	return fmt.Errorf("service.%s: %w: %w", op, domain.ErrUpstream, err)
}

// validateDay checks that s starts with a calendar date.
func validateDay(field, s string) error {
	if len(s) < 10 {
		return fmt.Errorf("%w: %s must start with a YYYY-MM-DD date", domain.ErrValidation, field)
	}
	if _, err := itinerary.ParseDate(s[:10]); err != nil {
		return fmt.Errorf("%w: %s must start with a YYYY-MM-DD date", domain.ErrValidation, field)
	}
	return nil
}

// validateCoordinates rejects points off the globe.
func validateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90", domain.ErrValidation)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180", domain.ErrValidation)
	}
	return nil
}
