package product

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/hatchery-backend/pkg/db/models"
	"github.com/angelmondragon/hatchery-backend/pkg/enums"
	"github.com/angelmondragon/hatchery-backend/pkg/pagination"
)

// Repository persists catalog rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the product regardless of status.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func purchasable(db *gorm.DB) *gorm.DB {
	return db.Where("status = ? AND is_deleted = ?", enums.ProductStatusPublished, false)
}

// FindPurchasable loads the subset of ids that are published and not deleted.
func (r *Repository) FindPurchasable(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Product
	err := r.db.WithContext(ctx).Scopes(purchasable).Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}

// CreateProduct inserts a new product row.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct saves every column of an existing product row.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// SoftDelete hides the product from the storefront. Rows are never removed so
// carts and wishlists referencing them keep resolving.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_deleted": true,
			"status":     enums.ProductStatusDraft,
		})
	return res.RowsAffected > 0, res.Error
}

// CountPublished returns how many products are visible in the storefront.
func (r *Repository) CountPublished(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Scopes(purchasable).Count(&count).Error
	return count, err
}

type productListQuery struct {
	Pagination     pagination.Params
	Filters        ProductListFilters
	Status         *enums.ProductStatus
	IncludeDeleted bool
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// scope narrows the catalog by status, deletion and storefront filters.
func (q productListQuery) scope(db *gorm.DB) *gorm.DB {
	if q.Status != nil {
		db = db.Where("status = ?", *q.Status)
	}
	if !q.IncludeDeleted {
		db = db.Where("is_deleted = ?", false)
	}
	if category := strings.TrimSpace(q.Filters.Category); category != "" {
		db = db.Where("category = ?", category)
	}
	if q.Filters.FeaturedOnly {
		db = db.Where("is_featured = ?", true)
	}
	if q.Filters.NewOnly {
		db = db.Where("is_new = ?", true)
	}
	if search := strings.TrimSpace(q.Filters.Query); search != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
		db = db.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	return db
}

// List returns one page ordered newest first.
func (r *Repository) List(ctx context.Context, query productListQuery) (*ProductListResult, error) {
	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	var rows []models.Product
	err = r.db.WithContext(ctx).Model(&models.Product{}).
		Scopes(query.scope, pagination.Seek(cursor, query.Pagination.Limit, "")).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	page, next := pagination.Trim(rows, query.Pagination.Limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	products := make([]ProductDTO, 0, len(page))
	for i := range page {
		products = append(products, *NewProductDTO(&page[i]))
	}
	return &ProductListResult{Products: products, NextCursor: next}, nil
}
