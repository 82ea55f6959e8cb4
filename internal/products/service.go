package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/hatchery-backend/pkg/db/models"
	"github.com/angelmondragon/hatchery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/hatchery-backend/pkg/errors"
	"github.com/angelmondragon/hatchery-backend/pkg/pagination"
	"github.com/angelmondragon/hatchery-backend/pkg/pricing"
)

// Service exposes catalog reads for shoppers and management for admins.
type Service interface {
	List(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	AdminList(ctx context.Context, input AdminListProductsInput) (*ProductListResult, error)
	Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Lookup(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	CountPublished(ctx context.Context) (int64, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Title           string
	Description     string
	Category        string
	BasePrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	StockQuantity   int
	Status          enums.ProductStatus
	IsFeatured      bool
	IsNew           bool
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Title           *string
	Description     *string
	Category        *string
	BasePrice       *decimal.Decimal
	DiscountPercent *decimal.Decimal
	StockQuantity   *int
	Status          *enums.ProductStatus
	IsFeatured      *bool
	IsNew           *bool
}

type service struct {
	repo *Repository
}

// NewService constructs a product service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	if err := validateCursor(input.Pagination); err != nil {
		return nil, err
	}
	published := enums.ProductStatusPublished
	result, err := s.repo.List(ctx, productListQuery{
		Pagination: input.Pagination,
		Filters:    input.Filters,
		Status:     &published,
	})
	if err != nil {
		return nil, pkgerrors.Persistence(err, "list products")
	}
	return result, nil
}

func (s *service) AdminList(ctx context.Context, input AdminListProductsInput) (*ProductListResult, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product status")
	}
	if err := validateCursor(input.Pagination); err != nil {
		return nil, err
	}
	result, err := s.repo.List(ctx, productListQuery{
		Pagination:     input.Pagination,
		Filters:        input.Filters,
		Status:         input.Status,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return nil, pkgerrors.Persistence(err, "list products")
	}
	return result, nil
}

// Get returns a storefront-visible product. Drafts and deleted products read
// as not found.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Persistence(err, "load product")
	}
	if !product.Purchasable() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return NewProductDTO(product), nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	product := &models.Product{
		Title:           strings.TrimSpace(input.Title),
		Description:     strings.TrimSpace(input.Description),
		Category:        strings.TrimSpace(input.Category),
		BasePrice:       input.BasePrice,
		DiscountPercent: input.DiscountPercent,
		StockQuantity:   input.StockQuantity,
		Status:          input.Status,
		IsFeatured:      input.IsFeatured,
		IsNew:           input.IsNew,
	}
	if product.Status == "" {
		product.Status = enums.ProductStatusDraft
	}
	if err := prepareProduct(product); err != nil {
		return nil, err
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Persistence(err, "insert product")
	}
	return NewProductDTO(created), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Persistence(err, "load product")
	}
	if product.IsDeleted {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	applyUpdateToProduct(product, input)
	if err := prepareProduct(product); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Persistence(err, "update product")
	}
	return NewProductDTO(updated), nil
}

func (s *service) SoftDelete(ctx context.Context, id uuid.UUID) error {
	found, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return pkgerrors.Persistence(err, "soft delete product")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

// Lookup returns the purchasable subset of ids keyed by product id. Missing,
// draft and deleted products are simply absent from the map.
func (s *service) Lookup(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	rows, err := s.repo.FindPurchasable(ctx, dedupe(ids))
	if err != nil {
		return nil, pkgerrors.Persistence(err, "lookup products")
	}
	out := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

func (s *service) CountPublished(ctx context.Context) (int64, error) {
	count, err := s.repo.CountPublished(ctx)
	if err != nil {
		return 0, pkgerrors.Persistence(err, "count products")
	}
	return count, nil
}

func applyUpdateToProduct(product *models.Product, input UpdateProductInput) {
	if input.Title != nil {
		product.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		product.Category = strings.TrimSpace(*input.Category)
	}
	if input.BasePrice != nil {
		product.BasePrice = *input.BasePrice
	}
	if input.DiscountPercent != nil {
		product.DiscountPercent = *input.DiscountPercent
	}
	if input.StockQuantity != nil {
		product.StockQuantity = *input.StockQuantity
	}
	if input.Status != nil {
		product.Status = *input.Status
	}
	if input.IsFeatured != nil {
		product.IsFeatured = *input.IsFeatured
	}
	if input.IsNew != nil {
		product.IsNew = *input.IsNew
	}
}

// prepareProduct validates the editable fields and recomputes the final price.
// The stored final price is never taken from client input.
func prepareProduct(product *models.Product) error {
	if product.Title == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if product.StockQuantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock_quantity cannot be negative")
	}
	if !product.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product status")
	}
	final, err := pricing.ComputeFinalPrice(product.BasePrice, product.DiscountPercent)
	if err != nil {
		return err
	}
	product.FinalPrice = final
	return nil
}

func validateCursor(params pagination.Params) error {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
