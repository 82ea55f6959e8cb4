package payloads

import (
	"time"

	"github.com/google/uuid"
)

// OrderCreatedEvent is emitted when a customer submits an order snapshot.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      uuid.UUID `json:"user_id"`
	TotalAmount string    `json:"total_amount"`
	LineCount   int       `json:"line_count"`
}

// OrderStatusChangedEvent is emitted on every accepted lifecycle transition.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      uuid.UUID `json:"user_id"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	ActorRole   string    `json:"actor_role"`
	ChangedAt   time.Time `json:"changed_at"`
}
