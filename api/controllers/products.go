package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/angelmondragon/hatchery-backend/api/responses"
	"github.com/angelmondragon/hatchery-backend/api/validators"
	product "github.com/angelmondragon/hatchery-backend/internal/products"
	"github.com/angelmondragon/hatchery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/hatchery-backend/pkg/errors"
	"github.com/angelmondragon/hatchery-backend/pkg/logger"
)

// ListProducts serves the public catalog.
func ListProducts(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := listProductsInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// GetProduct returns one published product.
func GetProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// AdminListProducts includes drafts and, on request, soft-deleted rows.
func AdminListProducts(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		base, err := listProductsInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := product.AdminListProductsInput{ListProductsInput: base}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseProductStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			input.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("include_deleted")); raw != "" {
			include, err := strconv.ParseBool(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid include_deleted"))
				return
			}
			input.IncludeDeleted = include
		}

		result, err := svc.AdminList(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type createProductRequest struct {
	Title           string `json:"title" validate:"required,max=200"`
	Description     string `json:"description" validate:"max=5000"`
	Category        string `json:"category" validate:"required,max=100"`
	BasePrice       string `json:"base_price" validate:"required,decimal"`
	DiscountPercent string `json:"discount_percent" validate:"omitempty,decimal"`
	StockQuantity   int    `json:"stock_quantity" validate:"min=0"`
	Status          string `json:"status" validate:"omitempty,oneof=draft published"`
	IsFeatured      bool   `json:"is_featured"`
	IsNew           bool   `json:"is_new"`
}

func (p createProductRequest) toInput() (product.CreateProductInput, error) {
	base, err := parseMoney("base_price", p.BasePrice)
	if err != nil {
		return product.CreateProductInput{}, err
	}
	input := product.CreateProductInput{
		Title:         p.Title,
		Description:   p.Description,
		Category:      p.Category,
		BasePrice:     base,
		StockQuantity: p.StockQuantity,
		Status:        enums.ProductStatus(p.Status),
		IsFeatured:    p.IsFeatured,
		IsNew:         p.IsNew,
	}
	if strings.TrimSpace(p.DiscountPercent) != "" {
		if input.DiscountPercent, err = parseMoney("discount_percent", p.DiscountPercent); err != nil {
			return product.CreateProductInput{}, err
		}
	}
	return input, nil
}

// AdminCreateProduct adds a catalog entry; the final price is derived from
// base price and discount.
func AdminCreateProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

type updateProductRequest struct {
	Title           *string `json:"title" validate:"omitempty,max=200"`
	Description     *string `json:"description" validate:"omitempty,max=5000"`
	Category        *string `json:"category" validate:"omitempty,max=100"`
	BasePrice       *string `json:"base_price" validate:"omitempty,decimal"`
	DiscountPercent *string `json:"discount_percent" validate:"omitempty,decimal"`
	StockQuantity   *int    `json:"stock_quantity" validate:"omitempty,min=0"`
	Status          *string `json:"status" validate:"omitempty,oneof=draft published"`
	IsFeatured      *bool   `json:"is_featured"`
	IsNew           *bool   `json:"is_new"`
}

func (p updateProductRequest) toInput() (product.UpdateProductInput, error) {
	input := product.UpdateProductInput{
		Title:         p.Title,
		Description:   p.Description,
		Category:      p.Category,
		StockQuantity: p.StockQuantity,
		IsFeatured:    p.IsFeatured,
		IsNew:         p.IsNew,
	}
	if p.BasePrice != nil {
		value, err := parseMoney("base_price", *p.BasePrice)
		if err != nil {
			return input, err
		}
		input.BasePrice = &value
	}
	if p.DiscountPercent != nil {
		value, err := parseMoney("discount_percent", *p.DiscountPercent)
		if err != nil {
			return input, err
		}
		input.DiscountPercent = &value
	}
	if p.Status != nil {
		status := enums.ProductStatus(*p.Status)
		input.Status = &status
	}
	return input, nil
}

// AdminUpdateProduct patches a product. Existing order lines keep the price
// they were placed at.
func AdminUpdateProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func AdminDeleteProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.SoftDelete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func listProductsInput(r *http.Request) (product.ListProductsInput, error) {
	params, err := paginationParams(r)
	if err != nil {
		return product.ListProductsInput{}, err
	}
	query := r.URL.Query()
	input := product.ListProductsInput{
		Filters: product.ProductListFilters{
			Category: validators.Clean(query.Get("category"), 100),
			Query:    validators.Clean(query.Get("q"), 200),
		},
		Pagination: params,
	}
	if raw := strings.TrimSpace(query.Get("featured")); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid featured")
		}
		input.Filters.FeaturedOnly = featured
	}
	if raw := strings.TrimSpace(query.Get("new")); raw != "" {
		isNew, err := strconv.ParseBool(raw)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid new")
		}
		input.Filters.NewOnly = isNew
	}
	return input, nil
}
