package wishlist

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/hatchery-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/hatchery-backend/pkg/errors"
	"github.com/angelmondragon/hatchery-backend/pkg/pagination"
)

type productLookup interface {
	Lookup(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

// Service exposes business rules for wishlist management.
type Service interface {
	GetWishlist(ctx context.Context, userID uuid.UUID, cursor string, limit int) (PageDTO, error)
	GetWishlistIDs(ctx context.Context, userID uuid.UUID, cursor string, limit int) (IDsDTO, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID) error
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) error
}

type service struct {
	repo     *Repository
	products productLookup
}

// NewService builds a wishlist service with the required dependencies.
func NewService(repo *Repository, products productLookup) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wishlist repo is required")
	}
	if products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product lookup is required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) GetWishlist(ctx context.Context, userID uuid.UUID, cursor string, limit int) (PageDTO, error) {
	if err := validateList(userID, cursor); err != nil {
		return PageDTO{}, err
	}
	page, err := s.repo.ListItems(ctx, userID, cursor, limit)
	if err != nil {
		return PageDTO{}, pkgerrors.Persistence(err, "list wishlist")
	}
	return page, nil
}

func (s *service) GetWishlistIDs(ctx context.Context, userID uuid.UUID, cursor string, limit int) (IDsDTO, error) {
	if err := validateList(userID, cursor); err != nil {
		return IDsDTO{}, err
	}
	ids, err := s.repo.ListItemIDs(ctx, userID, cursor, limit)
	if err != nil {
		return IDsDTO{}, pkgerrors.Persistence(err, "list wishlist ids")
	}
	return ids, nil
}

// AddItem likes a purchasable product. Liking it again is a no-op.
func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	found, err := s.products.Lookup(ctx, []uuid.UUID{productID})
	if err != nil {
		return pkgerrors.Persistence(err, "load product")
	}
	if _, ok := found[productID]; !ok {
		return pkgerrors.New(pkgerrors.CodeProductUnavailable, "product is not available").
			WithDetails(map[string]any{"product_id": productID.String()})
	}
	if err := s.repo.AddItem(ctx, userID, productID); err != nil {
		return pkgerrors.Persistence(err, "add wishlist item")
	}
	return nil
}

// RemoveItem drops the wishlist entry regardless of prior state.
func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := s.repo.RemoveItem(ctx, userID, productID); err != nil {
		return pkgerrors.Persistence(err, "remove wishlist item")
	}
	return nil
}

func validateList(userID uuid.UUID, cursor string) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if _, err := pagination.ParseCursor(cursor); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return nil
}
