package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/hatchery-backend/pkg/enums"
)

// Product is a catalog listing. FinalPrice is always derived from BasePrice
// and DiscountPercent by the pricing engine before the row is written.
type Product struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title           string              `gorm:"column:title;not null"`
	Description     string              `gorm:"column:description;not null;default:''"`
	Category        string              `gorm:"column:category;not null;default:''"`
	BasePrice       decimal.Decimal     `gorm:"column:base_price;type:numeric(12,2);not null"`
	DiscountPercent decimal.Decimal     `gorm:"column:discount_percent;type:numeric(5,2);not null;default:0"`
	FinalPrice      decimal.Decimal     `gorm:"column:final_price;type:numeric(12,2);not null"`
	StockQuantity   int                 `gorm:"column:stock_quantity;not null;default:0"`
	Status          enums.ProductStatus `gorm:"column:status;type:product_status;not null;default:'draft'"`
	IsFeatured      bool                `gorm:"column:is_featured;not null;default:false"`
	IsNew           bool                `gorm:"column:is_new;not null;default:false"`
	IsDeleted       bool                `gorm:"column:is_deleted;not null;default:false"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// Purchasable reports whether the product can be added to carts and orders.
func (p Product) Purchasable() bool {
	return !p.IsDeleted && p.Status == enums.ProductStatusPublished
}
