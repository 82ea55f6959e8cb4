package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/hatchery-backend/pkg/db/models"
	"github.com/angelmondragon/hatchery-backend/pkg/enums"
	"github.com/angelmondragon/hatchery-backend/pkg/pagination"
	"github.com/angelmondragon/hatchery-backend/pkg/pricing"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateOrder inserts the header and its line items. A duplicate order number
// surfaces as the driver's unique violation.
func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	items := order.Items
	order.Items = nil
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		order.Items = items
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := r.db.WithContext(ctx).Create(&items).Error; err != nil {
			order.Items = items
			return err
		}
	}
	order.Items = items
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.find(ctx, r.db.WithContext(ctx), id)
}

// LockByID loads the order holding a row lock for the rest of the transaction.
func (r *repository) LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.find(ctx, r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *repository) find(ctx context.Context, qb *gorm.DB, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := qb.First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	var items []models.OrderLineItem
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", order.ID).
		Order("position ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns one page of order headers newest first. Line items are not loaded.
func (r *repository) List(ctx context.Context, query listQuery) ([]models.Order, string, error) {
	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.db.WithContext(ctx).Model(&models.Order{})
	if query.UserID != nil {
		qb = qb.Where("user_id = ?", *query.UserID)
	}
	if query.Status != nil {
		qb = qb.Where("status = ?", *query.Status)
	}
	var rows []models.Order
	if err := qb.Scopes(pagination.Seek(cursor, query.Pagination.Limit, "")).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	page, next := pagination.Trim(rows, query.Pagination.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return page, next, nil
}

func (r *repository) CountOrders(ctx context.Context, status *enums.OrderStatus) (int64, error) {
	qb := r.db.WithContext(ctx).Model(&models.Order{})
	if status != nil {
		qb = qb.Where("status = ?", *status)
	}
	var count int64
	err := qb.Count(&count).Error
	return count, err
}

// SumRevenue totals final_amount across orders in the given statuses.
func (r *repository) SumRevenue(ctx context.Context, statuses []enums.OrderStatus) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("COALESCE(SUM(final_amount), 0)").
		Where("status IN ?", statuses).
		Row().Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return pricing.Round(total.Decimal), nil
}
