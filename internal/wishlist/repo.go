package wishlist

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/hatchery-backend/pkg/db/models"
	"github.com/angelmondragon/hatchery-backend/pkg/enums"
	"github.com/angelmondragon/hatchery-backend/pkg/pagination"
	"github.com/angelmondragon/hatchery-backend/pkg/pricing"
)

// Repository encapsulates wishlist persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a wishlist repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AddItem inserts a wishlist entry and ignores duplicates.
func (r *Repository) AddItem(ctx context.Context, userID, productID uuid.UUID) error {
	if userID == uuid.Nil || productID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	item := models.WishlistItem{UserID: userID, ProductID: productID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(&item).Error
}

// RemoveItem deletes the user-product like if it exists.
func (r *Repository) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{}).
		Error
}

type itemRecord struct {
	WishlistID        uuid.UUID
	WishlistCreatedAt time.Time
	ProductID         uuid.UUID
	Title             string
	Category          string
	FinalPrice        decimal.Decimal
	Status            enums.ProductStatus
	IsDeleted         bool
}

func (r itemRecord) toDTO() ItemDTO {
	return ItemDTO{
		ProductID:  r.ProductID,
		Title:      r.Title,
		Category:   r.Category,
		FinalPrice: pricing.Format(r.FinalPrice),
		Available:  r.Status == enums.ProductStatusPublished && !r.IsDeleted,
		CreatedAt:  r.WishlistCreatedAt,
	}
}

// ListItems returns a page of wishlist products for a user, newest like first.
func (r *Repository) ListItems(ctx context.Context, userID uuid.UUID, cursor string, limit int) (PageDTO, error) {
	decodedCursor, err := pagination.ParseCursor(strings.TrimSpace(cursor))
	if err != nil {
		return PageDTO{}, err
	}

	selectColumns := []string{
		"wi.id AS wishlist_id",
		"wi.created_at AS wishlist_created_at",
		"p.id AS product_id",
		"p.title",
		"p.category",
		"p.final_price",
		"p.status",
		"p.is_deleted",
	}

	query := r.db.WithContext(ctx).
		Table("wishlist_items wi").
		Select(strings.Join(selectColumns, ", ")).
		Joins("JOIN products p ON p.id = wi.product_id").
		Where("wi.user_id = ?", userID)
	var records []itemRecord
	if err := query.Scopes(pagination.Seek(decodedCursor, limit, "wi")).Scan(&records).Error; err != nil {
		return PageDTO{}, err
	}

	page, next := pagination.Trim(records, limit, func(rec itemRecord) pagination.Cursor {
		return pagination.Cursor{CreatedAt: rec.WishlistCreatedAt, ID: rec.WishlistID}
	})
	items := make([]ItemDTO, 0, len(page))
	for _, record := range page {
		items = append(items, record.toDTO())
	}
	return PageDTO{Items: items, NextCursor: next}, nil
}

// ListItemIDs returns only the product IDs a user has liked.
func (r *Repository) ListItemIDs(ctx context.Context, userID uuid.UUID, cursor string, limit int) (IDsDTO, error) {
	decodedCursor, err := pagination.ParseCursor(strings.TrimSpace(cursor))
	if err != nil {
		return IDsDTO{}, err
	}

	query := r.db.WithContext(ctx).
		Model(&models.WishlistItem{}).
		Where("user_id = ?", userID)
	var rows []models.WishlistItem
	if err := query.Scopes(pagination.Seek(decodedCursor, limit, "")).Find(&rows).Error; err != nil {
		return IDsDTO{}, err
	}

	page, next := pagination.Trim(rows, limit, func(w models.WishlistItem) pagination.Cursor {
		return pagination.Cursor{CreatedAt: w.CreatedAt, ID: w.ID}
	})
	ids := make([]uuid.UUID, 0, len(page))
	for _, row := range page {
		ids = append(ids, row.ProductID)
	}
	return IDsDTO{ProductIDs: ids, NextCursor: next}, nil
}
