package repo_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/repo"
)

// tripFixture returns a domain.Trip with sensible defaults for use in tests.
// Callers can override individual fields after calling this function.
func tripFixture(owner string) domain.Trip {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return domain.Trip{
		ID:           uuid.New(),
		Title:        "Summer Tour",
		StartDate:    "2025-06-01",
		EndDate:      "2025-06-15",
		OwnerID:      owner,
		AllowedUsers: []string{owner},
		Items: []domain.ItineraryItem{{
			ID:       uuid.New(),
			Type:     domain.ItemTypeFlight,
			Title:    "Outbound",
			Start:    "2025-06-01T08:00:00",
			Location: &domain.Location{Name: "SFO", Latitude: 37.62, Longitude: -122.38},
			Details:  map[string]any{"flight": "UA1"},
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMemoryTripStore_PutGet(t *testing.T) {
	s := repo.NewMemoryTripStore()
	ctx := context.Background()
	trip := tripFixture("alice")

	require.NoError(t, s.Put(ctx, trip))
	got, err := s.Get(ctx, trip.ID)

	require.NoError(t, err)
	assert.Equal(t, trip.Title, got.Title)
	assert.Equal(t, trip.Items, got.Items)
}

func TestMemoryTripStore_Get_NotFound(t *testing.T) {
	s := repo.NewMemoryTripStore()

	_, err := s.Get(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryTripStore_SnapshotsAreIsolated(t *testing.T) {
	s := repo.NewMemoryTripStore()
	ctx := context.Background()
	trip := tripFixture("alice")
	require.NoError(t, s.Put(ctx, trip))

	// Mutating the caller's copy after Put must not reach the store.
	trip.Items[0].Title = "changed after put"
	trip.Items[0].Location.Name = "OAK"

	got, err := s.Get(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, "Outbound", got.Items[0].Title)
	assert.Equal(t, "SFO", got.Items[0].Location.Name)

	// Nor may mutating a snapshot returned by Get.
	got.AllowedUsers = append(got.AllowedUsers, "mallory")
	got.Items[0].Details["flight"] = "XX9"
	again, err := s.Get(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, again.AllowedUsers)
	assert.Equal(t, "UA1", again.Items[0].Details["flight"])
}

func TestMemoryTripStore_PutOverwrites(t *testing.T) {
	s := repo.NewMemoryTripStore()
	ctx := context.Background()
	trip := tripFixture("alice")
	require.NoError(t, s.Put(ctx, trip))

	trip.Title = "Renamed"
	trip.Items = nil
	require.NoError(t, s.Put(ctx, trip))

	got, err := s.Get(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Empty(t, got.Items)
}

func TestMemoryTripStore_Delete(t *testing.T) {
	s := repo.NewMemoryTripStore()
	ctx := context.Background()
	trip := tripFixture("alice")
	require.NoError(t, s.Put(ctx, trip))

	require.NoError(t, s.Delete(ctx, trip.ID))

	_, err := s.Get(ctx, trip.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "trip should be gone after delete")
	assert.ErrorIs(t, s.Delete(ctx, trip.ID), domain.ErrNotFound)
}

func TestMemoryTripStore_ListForUser(t *testing.T) {
	s := repo.NewMemoryTripStore()
	ctx := context.Background()

	older := tripFixture("alice")
	newer := tripFixture("alice")
	newer.UpdatedAt = older.UpdatedAt.Add(time.Hour)
	shared := tripFixture("bob")
	shared.AllowedUsers = append(shared.AllowedUsers, "alice")
	shared.UpdatedAt = older.UpdatedAt.Add(-time.Hour)
	other := tripFixture("bob")
	for _, tr := range []domain.Trip{older, newer, shared, other} {
		require.NoError(t, s.Put(ctx, tr))
	}

	got, err := s.ListForUser(ctx, "alice")

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, newer.ID, got[0].ID)
	assert.Equal(t, older.ID, got[1].ID)
	assert.Equal(t, shared.ID, got[2].ID)

	none, err := s.ListForUser(ctx, "carol")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMemoryTripStore_RunReportsChanges(t *testing.T) {
	s := repo.NewMemoryTripStore()
	ctx, cancel := context.WithCancel(context.Background())

	var (
		mu   sync.Mutex
		seen []uuid.UUID
	)
	done := make(chan struct{})
	registered := make(chan struct{})
	go func() {
		defer close(done)
		close(registered)
		_ = s.Run(ctx, func(_ context.Context, id uuid.UUID) {
			mu.Lock()
			seen = append(seen, id)
			mu.Unlock()
		})
	}()
	<-registered

	trip := tripFixture("alice")
	require.Eventually(t, func() bool {
		// Run may not have registered yet; keep writing until it has.
		_ = s.Put(context.Background(), trip)
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Delete(context.Background(), trip.ID))
	mu.Lock()
	last := seen[len(seen)-1]
	mu.Unlock()
	assert.Equal(t, trip.ID, last)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestMemoryUserStore(t *testing.T) {
	s := repo.NewMemoryUserStore()
	ctx := context.Background()

	created, err := s.Create(ctx, domain.User{UID: "u1", Email: "  Alice@Example.com ", PasswordHash: "x"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", created.Email)

	byEmail, err := s.FindByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.UID)

	byID, err := s.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byID.Email)

	_, err = s.Create(ctx, domain.User{UID: "u2", Email: "alice@example.com"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = s.FindByEmail(ctx, "missing@x.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
