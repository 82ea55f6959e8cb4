package cart

import (
	"time"

	"github.com/google/uuid"
)

// CartView is the priced cart returned to clients. Prices are the catalog's
// current final prices, not a snapshot.
type CartView struct {
	UserID    uuid.UUID  `json:"user_id"`
	Lines     []LineView `json:"lines"`
	Total     string     `json:"total"`
	ItemCount int        `json:"item_count"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// LineView is one cart line. Available is false when the product has since
// been unpublished or deleted; such lines carry no price and are left out of
// Total.
type LineView struct {
	ProductID uuid.UUID `json:"product_id"`
	Title     string    `json:"title,omitempty"`
	UnitPrice string    `json:"unit_price,omitempty"`
	Quantity  int       `json:"quantity"`
	LineTotal string    `json:"line_total,omitempty"`
	Available bool      `json:"available"`
	AddedAt   time.Time `json:"added_at"`
}
