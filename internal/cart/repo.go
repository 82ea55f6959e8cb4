package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/hatchery-backend/pkg/db/models"
)

// Repository exposes persistence operations for carts and their lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// LockOrCreate returns the user's cart row locked FOR UPDATE, inserting it
// first when the user has never had a cart. Must run inside a transaction.
func (r *Repository) LockOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	now := time.Now().UTC()
	fresh := models.Cart{UserID: userID, CreatedAt: now, UpdatedAt: now}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&fresh).Error; err != nil {
		return nil, err
	}

	var cart models.Cart
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindByUser loads the cart with its lines in the order they were added.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("added_at ASC").Order("id ASC")
		}).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindLine returns gorm.ErrRecordNotFound when the product is not in the cart.
func (r *Repository) FindLine(ctx context.Context, cartID, productID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *Repository) InsertLine(ctx context.Context, line *models.CartLine) error {
	if line == nil {
		return errors.New("cart line required")
	}
	return r.db.WithContext(ctx).Create(line).Error
}

func (r *Repository) UpdateLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).Model(&models.CartLine{}).
		Where("id = ?", lineID).
		Update("quantity", quantity).Error
}

// DeleteLine reports whether a line was removed.
func (r *Repository) DeleteLine(ctx context.Context, cartID, productID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&models.CartLine{})
	return res.RowsAffected > 0, res.Error
}

// DeleteLines empties the cart and returns how many lines were removed.
func (r *Repository) DeleteLines(ctx context.Context, cartID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartLine{})
	return res.RowsAffected, res.Error
}

// Touch bumps updated_at, the cart's mutation marker.
func (r *Repository) Touch(ctx context.Context, cartID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("updated_at", at.UTC()).Error
}
