package categories

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/hatchery-backend/pkg/db/models"
)

// Repository encapsulates category persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a category repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns every category in storefront order.
func (r *Repository) List(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).
		Order("display_order ASC").
		Order("name ASC").
		Find(&rows).Error
	return rows, err
}

// FindBySlug returns gorm.ErrRecordNotFound when no category has the slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var row models.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) Create(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}
