package orders

import (
	"context"

	"github.com/angelmondragon/hatchery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/hatchery-backend/pkg/errors"
	"github.com/angelmondragon/hatchery-backend/pkg/pricing"
)

// revenueStatuses are the statuses whose final amount counts as revenue.
var revenueStatuses = []enums.OrderStatus{enums.OrderStatusConfirmed, enums.OrderStatusCompleted}

func (s *service) Stats(ctx context.Context) (*StatsView, error) {
	published, err := s.products.CountPublished(ctx)
	if err != nil {
		return nil, pkgerrors.Persistence(err, "count published products")
	}
	total, err := s.repo.CountOrders(ctx, nil)
	if err != nil {
		return nil, pkgerrors.Persistence(err, "count orders")
	}
	pendingStatus := enums.OrderStatusPending
	pending, err := s.repo.CountOrders(ctx, &pendingStatus)
	if err != nil {
		return nil, pkgerrors.Persistence(err, "count pending orders")
	}
	revenue, err := s.repo.SumRevenue(ctx, revenueStatuses)
	if err != nil {
		return nil, pkgerrors.Persistence(err, "sum revenue")
	}
	return &StatsView{
		PublishedProducts: published,
		TotalOrders:       total,
		PendingOrders:     pending,
		Revenue:           pricing.Format(revenue),
	}, nil
}
