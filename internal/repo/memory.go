package repo

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
)

// MemoryTripStore keeps trips in process memory. It is the store used when
// STORE_DRIVER=memory and the one the unit tests run against. It is also its
// own ChangeFeed: every Put and Delete is reported to running feeds.
type MemoryTripStore struct {
	mu    sync.RWMutex
	trips map[uuid.UUID]domain.Trip

	hmu      sync.Mutex
	nextID   int
	handlers map[int]ChangeHandler
}

// Compile-time checks.
var (
	_ TripStore  = (*MemoryTripStore)(nil)
	_ ChangeFeed = (*MemoryTripStore)(nil)
	_ UserStore  = (*MemoryUserStore)(nil)
)

// NewMemoryTripStore returns an empty store.
func NewMemoryTripStore() *MemoryTripStore {
	return &MemoryTripStore{
		trips:    make(map[uuid.UUID]domain.Trip),
		handlers: make(map[int]ChangeHandler),
	}
}

func (s *MemoryTripStore) Get(_ context.Context, id uuid.UUID) (domain.Trip, error) {
	s.mu.RLock()
	t, ok := s.trips[id]
	s.mu.RUnlock()
	if !ok {
		return domain.Trip{}, fmt.Errorf("repo.MemoryTripStore.Get: %w", domain.ErrNotFound)
	}
	return t.Clone(), nil
}

func (s *MemoryTripStore) Put(ctx context.Context, trip domain.Trip) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("repo.MemoryTripStore.Put: %w", err)
	}
	s.mu.Lock()
	s.trips[trip.ID] = trip.Clone()
	s.mu.Unlock()

	s.notify(ctx, trip.ID)
	return nil
}

func (s *MemoryTripStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	_, ok := s.trips[id]
	delete(s.trips, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("repo.MemoryTripStore.Delete: %w", domain.ErrNotFound)
	}

	s.notify(ctx, id)
	return nil
}

func (s *MemoryTripStore) ListForUser(_ context.Context, uid string) ([]domain.Trip, error) {
	s.mu.RLock()
	out := []domain.Trip{}
	for _, t := range s.trips {
		if slices.Contains(t.AllowedUsers, uid) {
			out = append(out, t.Clone())
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.Trip) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out, nil
}

// Run registers handler and blocks until ctx is cancelled.
func (s *MemoryTripStore) Run(ctx context.Context, handler ChangeHandler) error {
	s.hmu.Lock()
	id := s.nextID
	s.nextID++
	s.handlers[id] = handler
	s.hmu.Unlock()

	<-ctx.Done()

	s.hmu.Lock()
	delete(s.handlers, id)
	s.hmu.Unlock()
	return nil
}

func (s *MemoryTripStore) notify(ctx context.Context, id uuid.UUID) {
	s.hmu.Lock()
	handlers := make([]ChangeHandler, 0, len(s.handlers))
	for _, h := range s.handlers {
		handlers = append(handlers, h)
	}
	s.hmu.Unlock()

	// Handlers outlive the request that caused the change.
	ctx = context.WithoutCancel(ctx)
	for _, h := range handlers {
		h(ctx, id)
	}
}

// MemoryUserStore is the in-memory user directory.
type MemoryUserStore struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string
}

// NewMemoryUserStore returns an empty directory.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryUserStore) Create(_ context.Context, user domain.User) (domain.User, error) {
	key := normalizeEmail(user.Email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[key]; taken {
		return domain.User{}, fmt.Errorf("repo.MemoryUserStore.Create: %w: email already registered", domain.ErrConflict)
	}
	if _, taken := s.byID[user.UID]; taken {
		return domain.User{}, fmt.Errorf("repo.MemoryUserStore.Create: %w: uid already exists", domain.ErrConflict)
	}
	user.Email = key
	s.byID[user.UID] = user
	s.byEmail[key] = user.UID
	return user, nil
}

func (s *MemoryUserStore) GetByID(_ context.Context, uid string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[uid]
	if !ok {
		return domain.User{}, fmt.Errorf("repo.MemoryUserStore.GetByID: %w", domain.ErrNotFound)
	}
	return u, nil
}

func (s *MemoryUserStore) FindByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uid, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return domain.User{}, fmt.Errorf("repo.MemoryUserStore.FindByEmail: %w", domain.ErrNotFound)
	}
	return s.byID[uid], nil
}

// normalizeEmail is the canonical form emails are stored and matched in.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
