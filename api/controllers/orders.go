package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/hatchery-backend/api/responses"
	"github.com/angelmondragon/hatchery-backend/api/validators"
	"github.com/angelmondragon/hatchery-backend/internal/orders"
	"github.com/angelmondragon/hatchery-backend/pkg/enums"
	"github.com/angelmondragon/hatchery-backend/pkg/logger"
)

type orderLineRequest struct {
	ProductID uuid.UUID   `json:"product_id" validate:"required"`
	Quantity  json.Number `json:"quantity" validate:"required"`
}

type createOrderRequest struct {
	contactRequest
	Lines []orderLineRequest `json:"lines" validate:"required,min=1,max=100,dive"`
}

// CreateOrder places an order for explicit lines without touching the cart.
func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := callerIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lines := make([]orders.LineRequest, 0, len(payload.Lines))
		for _, line := range payload.Lines {
			quantity, err := parseQuantity(line.Quantity)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			lines = append(lines, orders.LineRequest{ProductID: line.ProductID, Quantity: quantity})
		}

		order, err := svc.CreateOrder(r.Context(), orders.CreateOrderInput{
			UserID:       identity.UserID,
			Lines:        lines,
			Contact:      payload.contact(),
			SpecialNotes: optionalString(payload.SpecialNotes),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// ListOrders pages through the caller's orders, newest first.
func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := callerIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListOrders(r.Context(), identity.UserID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// GetOrder returns one order. Other users' orders read as not found; admins
// can read any order.
func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := callerIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuidParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.GetOrder(r.Context(), identity.UserID, orderID, identity.IsAdmin())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// CancelOrder lets the owner withdraw a pending or confirmed order.
func CancelOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := callerIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuidParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Transition(r.Context(), orders.TransitionInput{
			OrderID:   orderID,
			ActorID:   identity.UserID,
			ActorRole: identity.Role,
			NewStatus: enums.OrderStatusCancelled,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
