package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/itinerary"
	"github.com/pkordes/trip-planner/internal/repo"
	"github.com/pkordes/trip-planner/internal/service"
)

func validInput() service.TripInput {
	return service.TripInput{Title: "Summer Tour", StartDate: "2025-06-01", EndDate: "2025-06-15"}
}

// ---- Create tests ----------------------------------------------------------

func TestTripService_Create_Valid(t *testing.T) {
	store := repo.NewMemoryTripStore()
	svc := service.NewTripService(store, true)

	got, err := svc.Create(as(alice), validInput())

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, "Summer Tour", got.Title)
	assert.Equal(t, alice, got.OwnerID)
	assert.Equal(t, []string{alice}, got.AllowedUsers)
	assert.Equal(t, []domain.Collaborator{{UID: alice, Email: alice + "@example.com"}}, got.Collaborators)
	assert.NotNil(t, got.Items)
	assert.False(t, got.CreatedAt.IsZero())

	stored := mustGet(t, store, got.ID)
	assert.Equal(t, got.Title, stored.Title)
}

func TestTripService_Create_WithoutCollaboratorTracking(t *testing.T) {
	svc := service.NewTripService(repo.NewMemoryTripStore(), false)

	got, err := svc.Create(as(alice), validInput())

	require.NoError(t, err)
	assert.Empty(t, got.Collaborators)
	assert.Equal(t, []string{alice}, got.AllowedUsers)
}

func TestTripService_Create_Validation(t *testing.T) {
	cases := map[string]func(*service.TripInput){
		"blank title":       func(in *service.TripInput) { in.Title = "   " },
		"markup-only title": func(in *service.TripInput) { in.Title = "<script>alert(1)</script>" },
		"bad start date":    func(in *service.TripInput) { in.StartDate = "06/01/2025" },
		"bad end date":      func(in *service.TripInput) { in.EndDate = "2025-02-30" },
		"span too long":     func(in *service.TripInput) { in.StartDate, in.EndDate = "0001-01-01", "9999-12-31" },
	}
	for name, mutateInput := range cases {
		t.Run(name, func(t *testing.T) {
			svc := service.NewTripService(repo.NewMemoryTripStore(), true)
			in := validInput()
			mutateInput(&in)

			_, err := svc.Create(as(alice), in)

			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestTripService_Create_EndBeforeStartIsAllowed(t *testing.T) {
	svc := service.NewTripService(repo.NewMemoryTripStore(), true)
	in := validInput()
	in.StartDate, in.EndDate = "2025-06-15", "2025-06-01"

	_, err := svc.Create(as(alice), in)

	assert.NoError(t, err)
}

func TestTripService_Create_LongestSpanIsAllowed(t *testing.T) {
	svc := service.NewTripService(repo.NewMemoryTripStore(), true)
	in := validInput()
	in.StartDate = "2025-01-01"
	in.EndDate = time.Date(2025, 1, itinerary.MaxDays, 0, 0, 0, 0, time.UTC).Format(time.DateOnly)

	_, err := svc.Create(as(alice), in)
	require.NoError(t, err)

	in.EndDate = time.Date(2025, 1, itinerary.MaxDays+1, 0, 0, 0, 0, time.UTC).Format(time.DateOnly)
	_, err = svc.Create(as(alice), in)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTripService_Update_RejectsOverlongSpan(t *testing.T) {
	store := repo.NewMemoryTripStore()
	trip := seedTrip(t, store, alice)
	svc := service.NewTripService(store, true)

	_, err := svc.Update(as(alice), trip.ID, service.TripInput{Title: "Forever", StartDate: "0001-01-01", EndDate: "9999-12-31"})

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "Lisbon", mustGet(t, store, trip.ID).Title)
}

func TestTripService_Create_SanitizesTitle(t *testing.T) {
	svc := service.NewTripService(repo.NewMemoryTripStore(), true)
	in := validInput()
	in.Title = "<b>Fish</b> &amp; Chips <img src=x onerror=alert(1)>"

	got, err := svc.Create(as(alice), in)

	require.NoError(t, err)
	assert.Equal(t, "Fish & Chips", got.Title)
}

func TestTripService_Create_Anonymous(t *testing.T) {
	svc := service.NewTripService(repo.NewMemoryTripStore(), true)

	_, err := svc.Create(context.Background(), validInput())

	assert.ErrorIs(t, err, domain.ErrAuthenticationRequired)
}

func TestTripService_Create_StoreFailure(t *testing.T) {
	store := &mockTripStore{
		put: func(context.Context, domain.Trip) error { return errors.New("connection refused") },
	}
	svc := service.NewTripService(store, true)

	_, err := svc.Create(as(alice), validInput())

	assert.ErrorIs(t, err, domain.ErrUpstream)
}

// ---- Get / List ------------------------------------------------------------

func TestTripService_Get(t *testing.T) {
	store := repo.NewMemoryTripStore()
	trip := seedTrip(t, store, alice, bob)
	svc := service.NewTripService(store, true)

	got, err := svc.Get(as(bob), trip.ID)
	require.NoError(t, err)
	assert.Equal(t, trip.ID, got.ID)

	_, err = svc.Get(as(carol), trip.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "non-members must not learn the trip exists")

	_, err = svc.Get(as(alice), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Get(context.Background(), trip.ID)
	assert.ErrorIs(t, err, domain.ErrAuthenticationRequired)
}

func TestTripService_List_Paginates(t *testing.T) {
	store := repo.NewMemoryTripStore()
	for range 3 {
		seedTrip(t, store, alice)
	}
	seedTrip(t, store, bob, alice)
	seedTrip(t, store, bob)
	svc := service.NewTripService(store, true)

	page, total, err := svc.List(as(alice), domain.PaginationParams{Page: 1, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, page, 3)

	page, total, err = svc.List(as(alice), domain.PaginationParams{Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, page, 1)

	page, _, err = svc.List(as(alice), domain.PaginationParams{Page: 9, Limit: 3})
	require.NoError(t, err)
	assert.NotNil(t, page)
	assert.Empty(t, page)
}

// ---- Update / Delete -------------------------------------------------------

func TestTripService_Update(t *testing.T) {
	store := repo.NewMemoryTripStore()
	trip := seedTrip(t, store, alice, bob)
	svc := service.NewTripService(store, true)

	got, err := svc.Update(as(bob), trip.ID, service.TripInput{Title: "Porto", StartDate: "2024-07-01", EndDate: "2024-07-04"})

	require.NoError(t, err)
	assert.Equal(t, "Porto", got.Title)
	assert.True(t, got.UpdatedAt.After(trip.UpdatedAt))
	stored := mustGet(t, store, trip.ID)
	assert.Equal(t, "2024-07-04", stored.EndDate)
	assert.Equal(t, alice, stored.OwnerID, "owner never changes")
}

func TestTripService_Update_InvalidLeavesTripUntouched(t *testing.T) {
	store := repo.NewMemoryTripStore()
	trip := seedTrip(t, store, alice)
	svc := service.NewTripService(store, true)

	_, err := svc.Update(as(alice), trip.ID, service.TripInput{Title: "", StartDate: "2024-07-01", EndDate: "2024-07-04"})

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "Lisbon", mustGet(t, store, trip.ID).Title)
}

func TestTripService_Delete_Owner(t *testing.T) {
	store := repo.NewMemoryTripStore()
	trip := seedTrip(t, store, alice, bob)
	svc := service.NewTripService(store, true)

	require.NoError(t, svc.Delete(as(alice), trip.ID))

	_, err := store.Get(context.Background(), trip.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripService_Delete_CollaboratorForbidden(t *testing.T) {
	store := repo.NewMemoryTripStore()
	trip := seedTrip(t, store, alice, bob)
	svc := service.NewTripService(store, true)

	err := svc.Delete(as(bob), trip.ID)

	assert.ErrorIs(t, err, domain.ErrForbidden)
	mustGet(t, store, trip.ID)
}

func TestTripService_Delete_Stranger(t *testing.T) {
	store := repo.NewMemoryTripStore()
	trip := seedTrip(t, store, alice)
	svc := service.NewTripService(store, true)

	err := svc.Delete(as(carol), trip.ID)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
