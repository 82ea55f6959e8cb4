package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/hatchery-backend/pkg/db/models"
)

// ReviewDTO is one published review.
type ReviewDTO struct {
	ID               uuid.UUID `json:"id"`
	ProductID        uuid.UUID `json:"product_id"`
	UserName         string    `json:"user_name"`
	Rating           int       `json:"rating"`
	Text             *string   `json:"review_text,omitempty"`
	VerifiedPurchase bool      `json:"is_verified_purchase"`
	CreatedAt        time.Time `json:"created_at"`
}

// SummaryDTO aggregates every review of a product, not just the current page.
// AverageRating is a one-decimal string and "0.0" when there are no reviews.
type SummaryDTO struct {
	Count         int64  `json:"count"`
	AverageRating string `json:"average_rating"`
}

// PageDTO is a cursor-paginated list of reviews, newest first.
type PageDTO struct {
	Reviews    []ReviewDTO `json:"reviews"`
	Summary    SummaryDTO  `json:"summary"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// CreateReviewInput is what an authenticated customer submits.
type CreateReviewInput struct {
	UserName string
	Rating   int
	Text     *string
}

func toDTO(r models.Review) ReviewDTO {
	return ReviewDTO{
		ID:               r.ID,
		ProductID:        r.ProductID,
		UserName:         r.UserName,
		Rating:           r.Rating,
		Text:             r.Body,
		VerifiedPurchase: r.VerifiedPurchase,
		CreatedAt:        r.CreatedAt,
	}
}
