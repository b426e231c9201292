package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/itinerary"
	"github.com/pkordes/trip-planner/internal/repo"
)

// ItineraryService manages the scheduled items of a trip and its day view.
type ItineraryService struct {
	trips repo.TripStore
}

// NewItineraryService constructs an ItineraryService backed by the provided TripStore.
func NewItineraryService(trips repo.TripStore) *ItineraryService {
	return &ItineraryService{trips: trips}
}

// AddItem appends item to the trip under a fresh id and returns it.
// Items dated outside the trip's range are accepted; the day view hides them.
func (s *ItineraryService) AddItem(ctx context.Context, tripID uuid.UUID, item domain.ItineraryItem) (domain.ItineraryItem, error) {
	item, err := validateItem(item)
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("service.ItineraryService.AddItem: %w", err)
	}
	item.ID = uuid.New()

	_, err = mutate(ctx, s.trips, "ItineraryService.AddItem", tripID, func(t *domain.Trip, _ domain.Identity) error {
		t.Items = append(t.Items, item)
		return nil
	})
	if err != nil {
		return domain.ItineraryItem{}, err
	}
	return item, nil
}

// UpdateItem replaces the item with item.ID.
// Returns domain.ErrNotFound if the trip has no such item.
func (s *ItineraryService) UpdateItem(ctx context.Context, tripID uuid.UUID, item domain.ItineraryItem) (domain.ItineraryItem, error) {
	item, err := validateItem(item)
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("service.ItineraryService.UpdateItem: %w", err)
	}

	_, err = mutate(ctx, s.trips, "ItineraryService.UpdateItem", tripID, func(t *domain.Trip, _ domain.Identity) error {
		i := slices.IndexFunc(t.Items, func(it domain.ItineraryItem) bool { return it.ID == item.ID })
		if i < 0 {
			return fmt.Errorf("item %s: %w", item.ID, domain.ErrNotFound)
		}
		t.Items[i] = item
		return nil
	})
	if err != nil {
		return domain.ItineraryItem{}, err
	}
	return item, nil
}

// DeleteItem removes the item with itemID. Deleting an id that is not on the
// trip changes nothing but still rewrites the trip.
func (s *ItineraryService) DeleteItem(ctx context.Context, tripID, itemID uuid.UUID) error {
	_, err := mutate(ctx, s.trips, "ItineraryService.DeleteItem", tripID, func(t *domain.Trip, _ domain.Identity) error {
		t.Items = slices.DeleteFunc(t.Items, func(it domain.ItineraryItem) bool { return it.ID == itemID })
		return nil
	})
	return err
}

// Days returns the trip's items grouped into one bucket per calendar day.
func (s *ItineraryService) Days(ctx context.Context, tripID uuid.UUID) ([]itinerary.DayBucket, error) {
	t, _, err := loadForCaller(ctx, s.trips, "ItineraryService.Days", tripID)
	if err != nil {
		return nil, err
	}
	days, err := itinerary.GroupByDay(t)
	if err != nil {
		return nil, fmt.Errorf("service.ItineraryService.Days: %w", err)
	}
	return days, nil
}

// validateItem sanitizes free text and checks the item's shape.
//   - Type must be one of the known item types.
//   - Title must be non-empty after sanitizing.
//   - Start, and End if set, must begin with a YYYY-MM-DD date.
func validateItem(item domain.ItineraryItem) (domain.ItineraryItem, error) {
	if !item.Type.Valid() {
		return item, fmt.Errorf("%w: type must be one of flight, hotel, activity, note", domain.ErrValidation)
	}
	item.Title = cleanText(item.Title)
	if item.Title == "" {
		return item, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if err := validateDay("start", item.Start); err != nil {
		return item, err
	}
	if item.End != "" {
		if err := validateDay("end", item.End); err != nil {
			return item, err
		}
	}
	if item.Location != nil {
		loc := *item.Location
		if err := validateCoordinates(loc.Latitude, loc.Longitude); err != nil {
			return item, err
		}
		loc.Name = cleanText(loc.Name)
		loc.Address = cleanText(loc.Address)
		item.Location = &loc
	}
	if item.Details != nil {
		details := make(map[string]any, len(item.Details))
		for k, v := range item.Details {
			if str, ok := v.(string); ok {
				v = cleanText(str)
			}
			details[k] = v
		}
		item.Details = details
	}
	return item, nil
}
