package wishlist

import (
	"time"

	"github.com/google/uuid"
)

// ItemDTO is one wishlist entry with the product as it looks today.
// Available is false once the product is unpublished or deleted.
type ItemDTO struct {
	ProductID  uuid.UUID `json:"product_id"`
	Title      string    `json:"title"`
	Category   string    `json:"category"`
	FinalPrice string    `json:"final_price"`
	Available  bool      `json:"available"`
	CreatedAt  time.Time `json:"created_at"`
}

// PageDTO is a cursor-paginated wishlist view.
type PageDTO struct {
	Items      []ItemDTO `json:"items"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// IDsDTO is a lightweight projection containing only product IDs.
type IDsDTO struct {
	ProductIDs []uuid.UUID `json:"product_ids"`
	NextCursor string      `json:"next_cursor,omitempty"`
}
