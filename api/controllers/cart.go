package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/hatchery-backend/api/validators"
	"github.com/angelmondragon/hatchery-backend/internal/cart"
	"github.com/angelmondragon/hatchery-backend/pkg/auth"
	"github.com/angelmondragon/hatchery-backend/pkg/logger"
	"github.com/angelmondragon/hatchery-backend/pkg/pricing"
)

// CartFetch returns the caller's cart with live prices.
func CartFetch(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return asCaller(logg, func(r *http.Request, caller auth.Identity) (int, any, error) {
		return ok(svc.Get(r.Context(), caller.UserID))
	})
}

type cartSummaryResponse struct {
	Total     string `json:"total"`
	ItemCount int    `json:"item_count"`
}

// CartSummary powers the header badge.
func CartSummary(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return asCaller(logg, func(r *http.Request, caller auth.Identity) (int, any, error) {
		total, err := svc.GetTotal(r.Context(), caller.UserID)
		if err != nil {
			return 0, nil, err
		}
		count, err := svc.GetItemCount(r.Context(), caller.UserID)
		if err != nil {
			return 0, nil, err
		}
		return ok(cartSummaryResponse{Total: pricing.Format(total), ItemCount: count}, nil)
	})
}

type addCartItemRequest struct {
	ProductID uuid.UUID   `json:"product_id" validate:"required"`
	Quantity  json.Number `json:"quantity" validate:"required"`
}

// CartAddItem adds quantity to the product's line, creating it if needed.
func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return asCaller(logg, func(r *http.Request, caller auth.Identity) (int, any, error) {
		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return 0, nil, err
		}
		quantity, err := parseQuantity(payload.Quantity)
		if err != nil {
			return 0, nil, err
		}
		return ok(svc.AddItem(r.Context(), caller.UserID, payload.ProductID, quantity))
	})
}

type setCartQuantityRequest struct {
	Quantity json.Number `json:"quantity" validate:"required"`
}

// CartSetQuantity overwrites a line's quantity; zero removes the line.
func CartSetQuantity(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return asCaller(logg, func(r *http.Request, caller auth.Identity) (int, any, error) {
		productID, err := uuidParam(r, "productId")
		if err != nil {
			return 0, nil, err
		}
		var payload setCartQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return 0, nil, err
		}
		quantity, err := parseQuantity(payload.Quantity)
		if err != nil {
			return 0, nil, err
		}
		return ok(svc.SetQuantity(r.Context(), caller.UserID, productID, quantity))
	})
}

func CartRemoveItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return asCaller(logg, func(r *http.Request, caller auth.Identity) (int, any, error) {
		productID, err := uuidParam(r, "productId")
		if err != nil {
			return 0, nil, err
		}
		return ok(svc.RemoveItem(r.Context(), caller.UserID, productID))
	})
}

func CartClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return asCaller(logg, func(r *http.Request, caller auth.Identity) (int, any, error) {
		return noContent(svc.Clear(r.Context(), caller.UserID))
	})
}
