package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/itinerary"
	"github.com/pkordes/trip-planner/internal/repo"
)

// ExportService assembles a flat export of one trip's itinerary.
type ExportService struct {
	trips repo.TripStore
}

// NewExportService constructs an ExportService backed by the provided TripStore.
func NewExportService(trips repo.TripStore) *ExportService {
	return &ExportService{trips: trips}
}

// Export returns the trip and one ExportRow per item in its day view.
// Days with no items contribute one row with empty item fields.
func (s *ExportService) Export(ctx context.Context, tripID uuid.UUID) (domain.Trip, []domain.ExportRow, error) {
	t, _, err := loadForCaller(ctx, s.trips, "ExportService.Export", tripID)
	if err != nil {
		return domain.Trip{}, nil, err
	}
	rows, err := itinerary.Export(t)
	if err != nil {
		return domain.Trip{}, nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}
	return t, rows, nil
}
