package controllers

import (
	"net/http"

	"github.com/angelmondragon/hatchery-backend/api/responses"
	"github.com/angelmondragon/hatchery-backend/api/validators"
	"github.com/angelmondragon/hatchery-backend/internal/reviews"
	"github.com/angelmondragon/hatchery-backend/pkg/auth"
	"github.com/angelmondragon/hatchery-backend/pkg/logger"
)

// ListReviews is public: newest first, with a summary over all reviews.
func ListReviews(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), productID, page.Cursor, page.Limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type createReviewRequest struct {
	UserName string  `json:"user_name" validate:"required,max=80"`
	Rating   int     `json:"rating" validate:"min=1,max=5"`
	Text     *string `json:"review_text" validate:"omitempty,max=2000"`
}

func CreateReview(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return asCaller(logg, func(r *http.Request, caller auth.Identity) (int, any, error) {
		productID, err := uuidParam(r, "productId")
		if err != nil {
			return 0, nil, err
		}
		var payload createReviewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return 0, nil, err
		}
		return created(svc.Create(r.Context(), caller.UserID, productID, reviews.CreateReviewInput{
			UserName: payload.UserName,
			Rating:   payload.Rating,
			Text:     payload.Text,
		}))
	})
}
