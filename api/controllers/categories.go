package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/hatchery-backend/api/responses"
	"github.com/angelmondragon/hatchery-backend/api/validators"
	"github.com/angelmondragon/hatchery-backend/internal/categories"
	"github.com/angelmondragon/hatchery-backend/pkg/logger"
)

func ListCategories(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func GetCategory(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dto, err := svc.GetBySlug(r.Context(), validators.Clean(chi.URLParam(r, "slug"), 64))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

type createCategoryRequest struct {
	Slug         string  `json:"slug" validate:"required,max=64"`
	Name         string  `json:"name" validate:"required,max=80"`
	Description  *string `json:"description" validate:"omitempty,max=500"`
	IconURL      *string `json:"icon_url" validate:"omitempty,url"`
	DisplayOrder int     `json:"display_order" validate:"min=0"`
}

func AdminCreateCategory(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createCategoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Create(r.Context(), categories.CreateCategoryInput{
			Slug:         payload.Slug,
			Name:         payload.Name,
			Description:  optionalString(payload.Description),
			IconURL:      optionalString(payload.IconURL),
			DisplayOrder: payload.DisplayOrder,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}
