package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/hatchery-backend/pkg/db/models"
	"github.com/angelmondragon/hatchery-backend/pkg/enums"
	"github.com/angelmondragon/hatchery-backend/pkg/pagination"
)

// Repository encapsulates review persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a review repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

// ListByProduct returns one Seek page of a product's reviews, newest first.
func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Review, error) {
	var rows []models.Review
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Scopes(pagination.Seek(cursor, limit, "")).
		Find(&rows).Error
	return rows, err
}

type totals struct {
	Count int64
	Sum   int64
}

// Totals returns the review count and rating sum for a product.
func (r *Repository) Totals(ctx context.Context, productID uuid.UUID) (int64, int64, error) {
	var t totals
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("COUNT(*) AS count, COALESCE(SUM(rating), 0) AS sum").
		Where("product_id = ?", productID).
		Scan(&t).Error
	return t.Count, t.Sum, err
}

// HasCompletedPurchase reports whether the user has a completed order that
// contains the product.
func (r *Repository) HasCompletedPurchase(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Table("orders o").
		Joins("JOIN order_line_items li ON li.order_id = o.id").
		Where("o.user_id = ? AND o.status = ? AND li.product_id = ?", userID, enums.OrderStatusCompleted, productID).
		Count(&n).Error
	return n > 0, err
}
