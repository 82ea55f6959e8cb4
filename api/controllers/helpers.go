package controllers

import (
	"encoding/json"
	"math"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/hatchery-backend/api/middleware"
	"github.com/angelmondragon/hatchery-backend/api/responses"
	"github.com/angelmondragon/hatchery-backend/api/validators"
	"github.com/angelmondragon/hatchery-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/hatchery-backend/pkg/errors"
	"github.com/angelmondragon/hatchery-backend/pkg/logger"
	"github.com/angelmondragon/hatchery-backend/pkg/pagination"
)

// callerFunc handles a request on behalf of the authenticated caller.
// Returning http.StatusNoContent writes an empty body.
type callerFunc func(r *http.Request, caller auth.Identity) (status int, body any, err error)

func asCaller(logg *logger.Logger, fn callerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, body, err := fn(r, caller)
		switch {
		case err != nil:
			responses.WriteError(r.Context(), logg, w, err)
		case status == http.StatusNoContent:
			responses.WriteNoContent(w)
		default:
			responses.WriteSuccessStatus(w, status, body)
		}
	}
}

func ok(body any, err error) (int, any, error) {
	return http.StatusOK, body, err
}

func created(body any, err error) (int, any, error) {
	return http.StatusCreated, body, err
}

func noContent(err error) (int, any, error) {
	return http.StatusNoContent, nil, err
}

func callerIdentity(r *http.Request) (auth.Identity, error) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok || identity.UserID == uuid.Nil {
		return auth.Identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return identity, nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid "+name).WithDetails(map[string]any{"field": name})
	}
	return id, nil
}

func paginationParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.QueryInt(r, "limit", validators.IntBounds{Min: 1, Max: pagination.MaxLimit})
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

// parseQuantity turns the JSON number into a whole quantity. Fractions and
// overflow are quantity errors, not malformed bodies.
func parseQuantity(raw json.Number) (int, error) {
	value, err := raw.Int64()
	if err != nil || value > math.MaxInt32 || value < math.MinInt32 {
		return 0, pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be a whole number").
			WithDetails(map[string]any{"quantity": raw.String()})
	}
	return int(value), nil
}

func parseMoney(field, raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "invalid decimal").WithDetails(map[string]any{"field": field})
	}
	return value, nil
}

func optionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := validators.Clean(*value, 2000)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
