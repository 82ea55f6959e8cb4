package orders

import (
	"github.com/angelmondragon/hatchery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/hatchery-backend/pkg/errors"
)

var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:   {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed: {enums.OrderStatusCompleted, enums.OrderStatusCancelled},
}

// CanTransition reports whether the status graph allows from -> to.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Policy decides whether a role may perform a graph-valid transition.
// Ownership is checked before the policy runs.
type Policy func(role enums.Role, from, to enums.OrderStatus) error

// DefaultPolicy lets admins perform any graph-valid transition and limits
// customers to cancelling.
func DefaultPolicy(role enums.Role, from, to enums.OrderStatus) error {
	switch role {
	case enums.RoleAdmin:
		return nil
	case enums.RoleUser:
		if to == enums.OrderStatusCancelled {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeForbidden, "customers may only cancel orders").
			WithDetails(map[string]any{"from": from.String(), "to": to.String()})
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "unknown actor role")
	}
}

func invalidTransition(from, to enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order status transition not allowed").
		WithDetails(map[string]any{"from": from.String(), "to": to.String()})
}

// timestampColumn names the lifecycle column stamped when entering status.
func timestampColumn(status enums.OrderStatus) string {
	switch status {
	case enums.OrderStatusConfirmed:
		return "confirmed_at"
	case enums.OrderStatusCompleted:
		return "completed_at"
	case enums.OrderStatusCancelled:
		return "cancelled_at"
	}
	return ""
}
