package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/auth"
	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/repo"
)

// mockTripStore is a hand-written test double for repo.TripStore.
// Each method is a function field; set only the ones your test needs.
type mockTripStore struct {
	get         func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	put         func(ctx context.Context, trip domain.Trip) error
	delete      func(ctx context.Context, id uuid.UUID) error
	listForUser func(ctx context.Context, uid string) ([]domain.Trip, error)
}

func (m *mockTripStore) Get(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.get(ctx, id)
}
func (m *mockTripStore) Put(ctx context.Context, trip domain.Trip) error {
	return m.put(ctx, trip)
}
func (m *mockTripStore) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}
func (m *mockTripStore) ListForUser(ctx context.Context, uid string) ([]domain.Trip, error) {
	return m.listForUser(ctx, uid)
}

// compile-time check: mockTripStore must satisfy repo.TripStore.
var _ repo.TripStore = (*mockTripStore)(nil)

// ---- helpers ---------------------------------------------------------------

const (
	alice = "uid-alice"
	bob   = "uid-bob"
	carol = "uid-carol"
)

// as returns a context signed in as uid.
func as(uid string) context.Context {
	return auth.WithUser(context.Background(), domain.Identity{UID: uid, Email: uid + "@example.com"})
}

// seedTrip stores a 2024-06-01..03 trip owned by owner and shared with others.
func seedTrip(t *testing.T, store repo.TripStore, owner string, others ...string) domain.Trip {
	t.Helper()
	trip := domain.Trip{
		ID:           uuid.New(),
		Title:        "Lisbon",
		StartDate:    "2024-06-01",
		EndDate:      "2024-06-03",
		OwnerID:      owner,
		AllowedUsers: append([]string{owner}, others...),
		CreatedAt:    time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	trip.Normalize()
	require.NoError(t, store.Put(context.Background(), trip))
	return trip
}

func mustGet(t *testing.T, store repo.TripStore, id uuid.UUID) domain.Trip {
	t.Helper()
	trip, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	return trip
}

func activity(title, start string) domain.ItineraryItem {
	return domain.ItineraryItem{Type: domain.ItemTypeActivity, Title: title, Start: start}
}
