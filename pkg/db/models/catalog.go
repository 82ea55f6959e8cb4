package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups products for storefront navigation. Products reference it
// by Slug.
type Category struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Slug         string    `gorm:"column:slug;not null;uniqueIndex:categories_slug_key"`
	Name         string    `gorm:"column:name;not null"`
	Description  *string   `gorm:"column:description"`
	IconURL      *string   `gorm:"column:icon_url"`
	DisplayOrder int       `gorm:"column:display_order;not null;default:0"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Category) TableName() string { return "categories" }

// Review is one customer's rating of a product. A user reviews a product at
// most once.
type Review struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID        uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:reviews_user_product_key"`
	UserID           uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:reviews_user_product_key"`
	UserName         string    `gorm:"column:user_name;not null"`
	Rating           int       `gorm:"column:rating;not null"`
	Body             *string   `gorm:"column:review_text"`
	VerifiedPurchase bool      `gorm:"column:is_verified_purchase;not null;default:false"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Review) TableName() string { return "reviews" }
