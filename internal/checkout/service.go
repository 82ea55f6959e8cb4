package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/hatchery-backend/internal/cart"
	"github.com/angelmondragon/hatchery-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/hatchery-backend/pkg/errors"
	"github.com/angelmondragon/hatchery-backend/pkg/logger"
)

type cartReader interface {
	Snapshot(ctx context.Context, userID uuid.UUID) (*cart.CartView, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type orderCreator interface {
	CreateOrder(ctx context.Context, input orders.CreateOrderInput) (*orders.OrderView, error)
}

// Service turns the caller's cart into an order.
type Service interface {
	Execute(ctx context.Context, input Input) (*orders.OrderView, error)
}

// Input carries the contact details copied onto the order.
type Input struct {
	UserID       uuid.UUID
	Contact      orders.Contact
	SpecialNotes *string
}

type service struct {
	carts  cartReader
	orders orderCreator
	logg   *logger.Logger
}

// NewService builds the checkout service.
func NewService(carts cartReader, orders orderCreator, logg *logger.Logger) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{carts: carts, orders: orders, logg: logg}, nil
}

// Execute snapshots the cart into an order and then clears the cart. The
// order is the source of truth once created, so a failed clear is logged and
// the order is still returned.
func (s *service) Execute(ctx context.Context, input Input) (*orders.OrderView, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "user id is required")
	}
	ctx = s.logg.WithUserID(ctx, input.UserID.String())

	view, err := s.carts.Snapshot(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if view == nil || len(view.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "cart is empty")
	}

	lines := make([]orders.LineRequest, 0, len(view.Lines))
	for _, line := range view.Lines {
		lines = append(lines, orders.LineRequest{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	order, err := s.orders.CreateOrder(ctx, orders.CreateOrderInput{
		UserID:       input.UserID,
		Lines:        lines,
		Contact:      input.Contact,
		SpecialNotes: input.SpecialNotes,
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	if err := s.carts.Clear(ctx, input.UserID); err != nil {
		s.logg.Error(ctx, "clear cart after checkout", err)
	}
	return order, nil
}
