package controllers

import (
	"net/http"

	"github.com/angelmondragon/hatchery-backend/api/validators"
	"github.com/angelmondragon/hatchery-backend/internal/checkout"
	"github.com/angelmondragon/hatchery-backend/internal/orders"
	"github.com/angelmondragon/hatchery-backend/pkg/auth"
	"github.com/angelmondragon/hatchery-backend/pkg/logger"
)

// contactRequest is shared by checkout and direct order placement.
type contactRequest struct {
	Email        string  `json:"email" validate:"required,email,max=320"`
	Phone        *string `json:"phone" validate:"omitempty,max=40"`
	Address      *string `json:"address" validate:"omitempty,max=1000"`
	SpecialNotes *string `json:"special_notes" validate:"omitempty,max=2000"`
}

func (c contactRequest) contact() orders.Contact {
	return orders.Contact{
		Email:   validators.Clean(c.Email, 320),
		Phone:   optionalString(c.Phone),
		Address: optionalString(c.Address),
	}
}

// Checkout converts the caller's cart into a pending order.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return asCaller(logg, func(r *http.Request, caller auth.Identity) (int, any, error) {
		var payload contactRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return 0, nil, err
		}
		return created(svc.Execute(r.Context(), checkout.Input{
			UserID:       caller.UserID,
			Contact:      payload.contact(),
			SpecialNotes: optionalString(payload.SpecialNotes),
		}))
	})
}
