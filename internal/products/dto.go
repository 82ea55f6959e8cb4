package product

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/hatchery-backend/pkg/db/models"
	"github.com/angelmondragon/hatchery-backend/pkg/pricing"
)

// ProductDTO represents the catalog payload returned to clients. Money is
// rendered as fixed two-decimal strings.
type ProductDTO struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	BasePrice       string    `json:"base_price"`
	DiscountPercent string    `json:"discount_percent"`
	FinalPrice      string    `json:"final_price"`
	StockQuantity   int       `json:"stock_quantity"`
	Status          string    `json:"status"`
	IsFeatured      bool      `json:"is_featured"`
	IsNew           bool      `json:"is_new"`
	IsDeleted       bool      `json:"is_deleted,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ProductListResult is one page of products.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(p *models.Product) *ProductDTO {
	return &ProductDTO{
		ID:              p.ID,
		Title:           p.Title,
		Description:     p.Description,
		Category:        p.Category,
		BasePrice:       pricing.Format(p.BasePrice),
		DiscountPercent: p.DiscountPercent.StringFixed(2),
		FinalPrice:      pricing.Format(p.FinalPrice),
		StockQuantity:   p.StockQuantity,
		Status:          p.Status.String(),
		IsFeatured:      p.IsFeatured,
		IsNew:           p.IsNew,
		IsDeleted:       p.IsDeleted,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
