package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/hatchery-backend/pkg/db/models"
	"github.com/angelmondragon/hatchery-backend/pkg/pricing"
)

// OrderView is the order payload returned to shoppers and admins.
type OrderView struct {
	ID              uuid.UUID  `json:"id"`
	OrderNumber     string     `json:"order_number"`
	UserID          uuid.UUID  `json:"user_id"`
	Status          string     `json:"status"`
	TotalAmount     string     `json:"total_amount"`
	FinalAmount     string     `json:"final_amount"`
	CustomerEmail   string     `json:"customer_email"`
	CustomerPhone   string     `json:"customer_phone,omitempty"`
	CustomerAddress *string    `json:"customer_address,omitempty"`
	SpecialNotes    *string    `json:"special_notes,omitempty"`
	Lines           []LineView `json:"lines,omitempty"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// LineView is a frozen order line.
type LineView struct {
	Position     int       `json:"position"`
	ProductID    uuid.UUID `json:"product_id"`
	ProductTitle string    `json:"product_title"`
	UnitPrice    string    `json:"unit_price"`
	Quantity     int       `json:"quantity"`
	Subtotal     string    `json:"subtotal"`
}

// OrderList is one page of order headers.
type OrderList struct {
	Orders     []OrderView `json:"orders"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// StatsView summarizes the storefront for the admin dashboard.
type StatsView struct {
	PublishedProducts int64  `json:"published_products"`
	TotalOrders       int64  `json:"total_orders"`
	PendingOrders     int64  `json:"pending_orders"`
	Revenue           string `json:"revenue"`
}

// NewOrderView maps the persisted order, including any loaded line items.
func NewOrderView(o *models.Order) *OrderView {
	view := &OrderView{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Status:          o.Status.String(),
		TotalAmount:     pricing.Format(o.TotalAmount),
		FinalAmount:     pricing.Format(o.FinalAmount),
		CustomerEmail:   o.CustomerEmail,
		CustomerPhone:   o.CustomerPhone,
		CustomerAddress: o.CustomerAddress,
		SpecialNotes:    o.SpecialNotes,
		ConfirmedAt:     o.ConfirmedAt,
		CompletedAt:     o.CompletedAt,
		CancelledAt:     o.CancelledAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, item := range o.Items {
		view.Lines = append(view.Lines, LineView{
			Position:     item.Position,
			ProductID:    item.ProductID,
			ProductTitle: item.ProductTitle,
			UnitPrice:    pricing.Format(item.UnitPrice),
			Quantity:     item.Quantity,
			Subtotal:     pricing.Format(item.Subtotal),
		})
	}
	return view
}
