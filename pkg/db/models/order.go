package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/hatchery-backend/pkg/enums"
)

// Order is the immutable snapshot header produced at checkout. Only status
// and the lifecycle timestamps change after creation.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     string            `gorm:"column:order_number;not null;uniqueIndex:orders_order_number_key"`
	UserID          uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	Status          enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	TotalAmount     decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	FinalAmount     decimal.Decimal   `gorm:"column:final_amount;type:numeric(12,2);not null"`
	CustomerEmail   string            `gorm:"column:customer_email;not null"`
	CustomerPhone   string            `gorm:"column:customer_phone;not null;default:''"`
	CustomerAddress *string           `gorm:"column:customer_address"`
	SpecialNotes    *string           `gorm:"column:special_notes"`
	Items           []OrderLineItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ConfirmedAt     *time.Time        `gorm:"column:confirmed_at"`
	CompletedAt     *time.Time        `gorm:"column:completed_at"`
	CancelledAt     *time.Time        `gorm:"column:cancelled_at"`
	CreatedAt       time.Time         `gorm:"column:created_at"`
	UpdatedAt       time.Time         `gorm:"column:updated_at"`
}

// OrderLineItem freezes the product title and unit price at order time.
type OrderLineItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	Position     int             `gorm:"column:position;not null"`
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ProductTitle string          `gorm:"column:product_title;not null"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity     int             `gorm:"column:quantity;not null"`
	Subtotal     decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}
