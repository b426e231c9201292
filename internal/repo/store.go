// Package repo contains all persistence logic for the trip planner.
// Each port (trips, users, change feed) is an interface with Postgres, MongoDB
// and in-memory implementations. No business logic lives here, only queries,
// document mapping and change notification.
package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
)

// TripStore persists whole trip snapshots. There is no partial update: Put
// replaces the stored document unconditionally and the last writer wins.
// The service layer depends on this interface, not on a concrete backend,
// which allows services to be unit-tested with a mock.
type TripStore interface {
	// Get returns the stored snapshot. Returns domain.ErrNotFound if no trip
	// with that id exists.
	Get(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// Put creates or overwrites the trip with trip.ID.
	Put(ctx context.Context, trip domain.Trip) error

	// Delete removes a trip. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListForUser returns every trip whose AllowedUsers contains uid, most
	// recently updated first.
	ListForUser(ctx context.Context, uid string) ([]domain.Trip, error)
}

// UserStore is the user directory: accounts keyed by uid with a unique email.
type UserStore interface {
	// Create inserts a new account. Returns domain.ErrConflict if the email is
	// already registered.
	Create(ctx context.Context, user domain.User) (domain.User, error)

	// GetByID returns domain.ErrNotFound if no account has that uid.
	GetByID(ctx context.Context, uid string) (domain.User, error)

	// FindByEmail matches case-insensitively. Returns domain.ErrNotFound if no
	// account has that email.
	FindByEmail(ctx context.Context, email string) (domain.User, error)
}

// ChangeHandler is called with the id of every trip that was written or
// deleted. It may be called more than once for the same write. A call with
// AllTrips means changes may have been missed and every trip is to be treated
// as changed.
type ChangeHandler func(ctx context.Context, tripID uuid.UUID)

// AllTrips is the id a ChangeFeed reports after it reconnects.
var AllTrips = uuid.Nil

// ChangeFeed reports trip changes observed by the backing store.
type ChangeFeed interface {
	// Run delivers changes to handler until ctx is cancelled. Transient errors
	// are logged and the feed reconnects, then reports AllTrips once it is
	// listening again. Run returns nil once ctx is done.
	Run(ctx context.Context, handler ChangeHandler) error
}
