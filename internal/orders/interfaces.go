package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/hatchery-backend/pkg/db/models"
	"github.com/angelmondragon/hatchery-backend/pkg/enums"
	"github.com/angelmondragon/hatchery-backend/pkg/pagination"
)

// Repository captures the persistence operations required by orders flows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, updates map[string]any) error
	List(ctx context.Context, query listQuery) ([]models.Order, string, error)
	CountOrders(ctx context.Context, status *enums.OrderStatus) (int64, error)
	SumRevenue(ctx context.Context, statuses []enums.OrderStatus) (decimal.Decimal, error)
}

type listQuery struct {
	UserID     *uuid.UUID
	Status     *enums.OrderStatus
	Pagination pagination.Params
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productCatalog interface {
	Lookup(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	CountPublished(ctx context.Context) (int64, error)
}

// Metrics records order outcomes. *metrics.CommerceMetrics satisfies it.
type Metrics interface {
	IncOrdersCreated()
	IncOrderNumberCollision()
	IncOrderTransition(from, to string)
}

type noopMetrics struct{}

func (noopMetrics) IncOrdersCreated()              {}
func (noopMetrics) IncOrderNumberCollision()       {}
func (noopMetrics) IncOrderTransition(_, _ string) {}
