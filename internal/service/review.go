package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/repo"
)

// ReviewService manages star ratings left on a trip.
type ReviewService struct {
	trips repo.TripStore
}

// NewReviewService constructs a ReviewService backed by the provided TripStore.
func NewReviewService(trips repo.TripStore) *ReviewService {
	return &ReviewService{trips: trips}
}

// AddReview records a review authored by the caller.
// Returns domain.ErrValidation unless 1 <= rating <= 5.
func (s *ReviewService) AddReview(ctx context.Context, tripID uuid.UUID, rating int, comment string) (domain.Review, error) {
	if rating < domain.MinRating || rating > domain.MaxRating {
		return domain.Review{}, fmt.Errorf("service.ReviewService.AddReview: %w: rating must be between %d and %d",
			domain.ErrValidation, domain.MinRating, domain.MaxRating)
	}
	review := domain.Review{ID: uuid.New(), Rating: rating, Comment: cleanText(comment)}

	_, err := mutate(ctx, s.trips, "ReviewService.AddReview", tripID, func(t *domain.Trip, caller domain.Identity) error {
		review.UserID = caller.UID
		review.CreatedAt = now()
		t.Reviews = append(t.Reviews, review)
		return nil
	})
	if err != nil {
		return domain.Review{}, err
	}
	return review, nil
}

// DeleteReview removes reviewID. Unknown ids are a no-op.
func (s *ReviewService) DeleteReview(ctx context.Context, tripID, reviewID uuid.UUID) error {
	_, err := mutate(ctx, s.trips, "ReviewService.DeleteReview", tripID, func(t *domain.Trip, _ domain.Identity) error {
		t.Reviews = slices.DeleteFunc(t.Reviews, func(r domain.Review) bool { return r.ID == reviewID })
		return nil
	})
	return err
}

// Summary returns the average rating and the per-star distribution.
func (s *ReviewService) Summary(ctx context.Context, tripID uuid.UUID) (domain.ReviewSummary, error) {
	t, _, err := loadForCaller(ctx, s.trips, "ReviewService.Summary", tripID)
	if err != nil {
		return domain.ReviewSummary{}, err
	}
	return domain.SummarizeReviews(t.Reviews), nil
}
