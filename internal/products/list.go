package product

import (
	"github.com/angelmondragon/hatchery-backend/pkg/enums"
	"github.com/angelmondragon/hatchery-backend/pkg/pagination"
)

// ProductListFilters describe the supported filter knobs for the browse endpoint.
type ProductListFilters struct {
	Category     string `json:"category,omitempty"`
	Query        string `json:"q,omitempty"`
	FeaturedOnly bool   `json:"featured,omitempty"`
	NewOnly      bool   `json:"new,omitempty"`
}

// ListProductsInput captures the inputs needed to paginate/filter products.
type ListProductsInput struct {
	Filters    ProductListFilters
	Pagination pagination.Params
}

// AdminListProductsInput also exposes drafts and soft-deleted rows.
type AdminListProductsInput struct {
	ListProductsInput
	Status         *enums.ProductStatus
	IncludeDeleted bool
}
