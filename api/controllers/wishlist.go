package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/hatchery-backend/api/validators"
	"github.com/angelmondragon/hatchery-backend/internal/wishlist"
	"github.com/angelmondragon/hatchery-backend/pkg/auth"
	"github.com/angelmondragon/hatchery-backend/pkg/logger"
)

func WishlistFetch(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return asCaller(logg, func(r *http.Request, caller auth.Identity) (int, any, error) {
		page, err := paginationParams(r)
		if err != nil {
			return 0, nil, err
		}
		return ok(svc.GetWishlist(r.Context(), caller.UserID, page.Cursor, page.Limit))
	})
}

// WishlistIDs lets the storefront mark hearted products without loading them.
func WishlistIDs(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return asCaller(logg, func(r *http.Request, caller auth.Identity) (int, any, error) {
		page, err := paginationParams(r)
		if err != nil {
			return 0, nil, err
		}
		return ok(svc.GetWishlistIDs(r.Context(), caller.UserID, page.Cursor, page.Limit))
	})
}

type wishlistItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

func WishlistAdd(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return asCaller(logg, func(r *http.Request, caller auth.Identity) (int, any, error) {
		var payload wishlistItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return 0, nil, err
		}
		return noContent(svc.AddItem(r.Context(), caller.UserID, payload.ProductID))
	})
}

func WishlistRemove(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return asCaller(logg, func(r *http.Request, caller auth.Identity) (int, any, error) {
		productID, err := uuidParam(r, "productId")
		if err != nil {
			return 0, nil, err
		}
		return noContent(svc.RemoveItem(r.Context(), caller.UserID, productID))
	})
}
