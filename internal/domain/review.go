package domain

import (
	"time"

	"github.com/google/uuid"
)

// MinRating and MaxRating bound a review's star rating.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a rating left on a trip by one of its users.
type Review struct {
	ID        uuid.UUID `json:"id" bson:"id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	Rating    int       `json:"rating" bson:"rating"`
	Comment   string    `json:"comment" bson:"comment"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// ReviewSummary is the average rating and the per-star distribution.
// Distribution[i] counts reviews with i+1 stars.
type ReviewSummary struct {
	Count        int            `json:"count"`
	Average      float64        `json:"average"`
	Distribution [MaxRating]int `json:"distribution"`
}

// SummarizeReviews computes the average rating and star distribution.
func SummarizeReviews(reviews []Review) ReviewSummary {
	var s ReviewSummary
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
		if r.Rating >= MinRating && r.Rating <= MaxRating {
			s.Distribution[r.Rating-1]++
		}
	}
	s.Count = len(reviews)
	if s.Count > 0 {
		s.Average = float64(sum) / float64(s.Count)
	}
	return s
}
