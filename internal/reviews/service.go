package reviews

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/hatchery-backend/pkg/db"
	"github.com/angelmondragon/hatchery-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/hatchery-backend/pkg/errors"
	"github.com/angelmondragon/hatchery-backend/pkg/pagination"
)

const (
	minRating         = 1
	maxRating         = 5
	maxUserNameLength = 80
	maxTextLength     = 2000
)

type productLookup interface {
	Lookup(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

// Service exposes product reviews.
type Service interface {
	List(ctx context.Context, productID uuid.UUID, cursor string, limit int) (PageDTO, error)
	Create(ctx context.Context, userID, productID uuid.UUID, input CreateReviewInput) (*ReviewDTO, error)
}

type service struct {
	repo     *Repository
	products productLookup
}

// NewService builds a review service with the required dependencies.
func NewService(repo *Repository, products productLookup) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "review repo is required")
	}
	if products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product lookup is required")
	}
	return &service{repo: repo, products: products}, nil
}

// List is public. The summary covers all of the product's reviews.
func (s *service) List(ctx context.Context, productID uuid.UUID, cursor string, limit int) (PageDTO, error) {
	if productID == uuid.Nil {
		return PageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	decoded, err := pagination.ParseCursor(strings.TrimSpace(cursor))
	if err != nil {
		return PageDTO{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.ListByProduct(ctx, productID, decoded, limit)
	if err != nil {
		return PageDTO{}, pkgerrors.Persistence(err, "list reviews")
	}
	count, sum, err := s.repo.Totals(ctx, productID)
	if err != nil {
		return PageDTO{}, pkgerrors.Persistence(err, "summarize reviews")
	}

	page, next := pagination.Trim(rows, limit, func(r models.Review) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})
	out := make([]ReviewDTO, 0, len(page))
	for _, row := range page {
		out = append(out, toDTO(row))
	}
	return PageDTO{Reviews: out, Summary: summarize(count, sum), NextCursor: next}, nil
}

// Create stores the caller's review of a purchasable product. A user reviews
// each product once; the purchase flag comes from completed orders.
func (s *service) Create(ctx context.Context, userID, productID uuid.UUID, input CreateReviewInput) (*ReviewDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	name := strings.TrimSpace(input.UserName)
	if name == "" || len(name) > maxUserNameLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user_name is required and must be at most 80 characters")
	}
	if input.Rating < minRating || input.Rating > maxRating {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5").
			WithDetails(map[string]any{"rating": input.Rating})
	}
	var text *string
	if input.Text != nil {
		trimmed := strings.TrimSpace(*input.Text)
		if len(trimmed) > maxTextLength {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "review_text must be at most 2000 characters")
		}
		if trimmed != "" {
			text = &trimmed
		}
	}

	found, err := s.products.Lookup(ctx, []uuid.UUID{productID})
	if err != nil {
		return nil, pkgerrors.Persistence(err, "load product")
	}
	if _, ok := found[productID]; !ok {
		return nil, pkgerrors.New(pkgerrors.CodeProductUnavailable, "product is not available").
			WithDetails(map[string]any{"product_id": productID.String()})
	}
	verified, err := s.repo.HasCompletedPurchase(ctx, userID, productID)
	if err != nil {
		return nil, pkgerrors.Persistence(err, "check purchase")
	}

	row := &models.Review{
		ProductID:        productID,
		UserID:           userID,
		UserName:         name,
		Rating:           input.Rating,
		Body:             text,
		VerifiedPurchase: verified,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product already reviewed").
				WithDetails(map[string]any{"product_id": productID.String()})
		}
		return nil, pkgerrors.Persistence(err, "create review")
	}
	dto := toDTO(*row)
	return &dto, nil
}

func summarize(count, sum int64) SummaryDTO {
	if count == 0 {
		return SummaryDTO{AverageRating: "0.0"}
	}
	avg := decimal.NewFromInt(sum).Div(decimal.NewFromInt(count)).Round(1)
	return SummaryDTO{Count: count, AverageRating: avg.StringFixed(1)}
}
