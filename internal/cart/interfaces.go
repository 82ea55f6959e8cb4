package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/hatchery-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	LockOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	FindLine(ctx context.Context, cartID, productID uuid.UUID) (*models.CartLine, error)
	InsertLine(ctx context.Context, line *models.CartLine) error
	UpdateLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error
	DeleteLine(ctx context.Context, cartID, productID uuid.UUID) (bool, error)
	DeleteLines(ctx context.Context, cartID uuid.UUID) (int64, error)
	Touch(ctx context.Context, cartID uuid.UUID, at time.Time) error
}

// Cache stores rendered cart views keyed by user.
type Cache interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartView, error)
	Set(ctx context.Context, userID uuid.UUID, view *CartView) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

type productLookup interface {
	Lookup(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
