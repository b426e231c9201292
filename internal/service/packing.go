package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/repo"
)

// PackingService manages a trip's packing checklist.
type PackingService struct {
	trips repo.TripStore
}

// NewPackingService constructs a PackingService backed by the provided TripStore.
func NewPackingService(trips repo.TripStore) *PackingService {
	return &PackingService{trips: trips}
}

// AddItem appends an unpacked item named name.
func (s *PackingService) AddItem(ctx context.Context, tripID uuid.UUID, name string) (domain.PackingItem, error) {
	name = cleanText(name)
	if name == "" {
		return domain.PackingItem{}, fmt.Errorf("service.PackingService.AddItem: %w: name is required", domain.ErrValidation)
	}
	item := domain.PackingItem{ID: uuid.New(), Name: name}

	_, err := mutate(ctx, s.trips, "PackingService.AddItem", tripID, func(t *domain.Trip, _ domain.Identity) error {
		t.PackingList = append(t.PackingList, item)
		return nil
	})
	if err != nil {
		return domain.PackingItem{}, err
	}
	return item, nil
}

// ToggleItem flips the packed flag of itemID and returns the updated list.
// An unknown id leaves the list unchanged.
func (s *PackingService) ToggleItem(ctx context.Context, tripID, itemID uuid.UUID) ([]domain.PackingItem, error) {
	t, err := mutate(ctx, s.trips, "PackingService.ToggleItem", tripID, func(t *domain.Trip, _ domain.Identity) error {
		for i := range t.PackingList {
			if t.PackingList[i].ID == itemID {
				t.PackingList[i].Packed = !t.PackingList[i].Packed
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t.PackingList, nil
}

// RemoveItem deletes itemID from the list. Unknown ids are a no-op.
func (s *PackingService) RemoveItem(ctx context.Context, tripID, itemID uuid.UUID) error {
	_, err := mutate(ctx, s.trips, "PackingService.RemoveItem", tripID, func(t *domain.Trip, _ domain.Identity) error {
		t.PackingList = slices.DeleteFunc(t.PackingList, func(p domain.PackingItem) bool { return p.ID == itemID })
		return nil
	})
	return err
}

// Progress reports how many items are packed.
func (s *PackingService) Progress(ctx context.Context, tripID uuid.UUID) (domain.PackingProgress, error) {
	t, _, err := loadForCaller(ctx, s.trips, "PackingService.Progress", tripID)
	if err != nil {
		return domain.PackingProgress{}, err
	}
	return domain.ProgressOf(t.PackingList), nil
}
