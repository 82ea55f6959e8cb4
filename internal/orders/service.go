package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/hatchery-backend/pkg/db"
	"github.com/angelmondragon/hatchery-backend/pkg/db/models"
	"github.com/angelmondragon/hatchery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/hatchery-backend/pkg/errors"
	"github.com/angelmondragon/hatchery-backend/pkg/logger"
	"github.com/angelmondragon/hatchery-backend/pkg/outbox"
	"github.com/angelmondragon/hatchery-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/hatchery-backend/pkg/pagination"
	"github.com/angelmondragon/hatchery-backend/pkg/pricing"
)

const (
	orderNumberConstraint = "orders_order_number_key"
	defaultNumberAttempts = 3
)

// sqlite reports the column instead of the constraint name.
const orderNumberColumn = "orders.order_number"

// Service builds order snapshots and drives their lifecycle.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderView, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID, isAdmin bool) (*OrderView, error)
	ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	AdminListOrders(ctx context.Context, input AdminListInput) (*OrderList, error)
	Transition(ctx context.Context, input TransitionInput) (*OrderView, error)
	Stats(ctx context.Context) (*StatsView, error)
}

// LineRequest asks for quantity units of a product.
type LineRequest struct {
	ProductID uuid.UUID
	Quantity  int
}

// Contact is copied onto the order header.
type Contact struct {
	Email   string
	Phone   string
	Address *string
}

// CreateOrderInput is the payload for CreateOrder.
type CreateOrderInput struct {
	UserID       uuid.UUID
	Lines        []LineRequest
	Contact      Contact
	SpecialNotes *string
}

// TransitionInput moves an order to NewStatus on behalf of the actor.
type TransitionInput struct {
	OrderID   uuid.UUID
	ActorID   uuid.UUID
	ActorRole enums.Role
	NewStatus enums.OrderStatus
}

// AdminListInput filters the admin order listing.
type AdminListInput struct {
	Status     *enums.OrderStatus
	Pagination pagination.Params
}

// Options tunes optional collaborators. Zero values select defaults.
type Options struct {
	NumberAttempts int
	Numbers        NumberGenerator
	Policy         Policy
	Metrics        Metrics
	Logger         *logger.Logger
	Now            func() time.Time
}

type service struct {
	repo      Repository
	tx        txRunner
	outbox    outbox.Emitter
	products  productCatalog
	attempts  int
	numbers   NumberGenerator
	policy    Policy
	metrics   Metrics
	logg      *logger.Logger
	now       func() time.Time
	validator *validator.Validate
}

// NewService constructs the orders service.
func NewService(repo Repository, tx txRunner, emitter outbox.Emitter, products productCatalog, opts Options) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if products == nil {
		return nil, fmt.Errorf("product catalog required")
	}

	svc := &service{
		repo:      repo,
		tx:        tx,
		outbox:    emitter,
		products:  products,
		attempts:  opts.NumberAttempts,
		numbers:   opts.Numbers,
		policy:    opts.Policy,
		metrics:   opts.Metrics,
		logg:      opts.Logger,
		now:       opts.Now,
		validator: validator.New(),
	}
	if svc.attempts <= 0 {
		svc.attempts = defaultNumberAttempts
	}
	if svc.numbers == nil {
		svc.numbers = GenerateOrderNumber
	}
	if svc.policy == nil {
		svc.policy = DefaultPolicy
	}
	if svc.metrics == nil {
		svc.metrics = noopMetrics{}
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	if svc.now == nil {
		svc.now = db.NowUTC
	}
	return svc, nil
}

// CreateOrder freezes the requested lines at current catalog prices and
// persists the snapshot with its order_created event in one transaction.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderView, error) {
	if err := s.validateCreate(input); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(input.Lines))
	for _, line := range input.Lines {
		ids = append(ids, line.ProductID)
	}
	products, err := s.products.Lookup(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Persistence(err, "resolve order products")
	}

	items := make([]models.OrderLineItem, 0, len(input.Lines))
	subtotals := make([]decimal.Decimal, 0, len(input.Lines))
	for i, line := range input.Lines {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeProductUnavailable, "product is not available").
				WithDetails(map[string]any{"product_id": line.ProductID.String()})
		}
		subtotal := pricing.LineSubtotal(product.FinalPrice, line.Quantity)
		subtotals = append(subtotals, subtotal)
		items = append(items, models.OrderLineItem{
			Position:     i + 1,
			ProductID:    product.ID,
			ProductTitle: product.Title,
			UnitPrice:    pricing.Round(product.FinalPrice),
			Quantity:     line.Quantity,
			Subtotal:     subtotal,
		})
	}
	total := pricing.Sum(subtotals...)

	ctx = s.logg.WithUserID(ctx, input.UserID.String())
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		number, err := s.numbers(s.now())
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
		}
		order := &models.Order{
			OrderNumber:     number,
			UserID:          input.UserID,
			Status:          enums.OrderStatusPending,
			TotalAmount:     total,
			FinalAmount:     total,
			CustomerEmail:   strings.TrimSpace(input.Contact.Email),
			CustomerPhone:   strings.TrimSpace(input.Contact.Phone),
			CustomerAddress: input.Contact.Address,
			SpecialNotes:    input.SpecialNotes,
			Items:           append([]models.OrderLineItem(nil), items...),
		}

		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.repo.WithTx(tx).CreateOrder(ctx, order); err != nil {
				if isOrderNumberCollision(err) {
					return pkgerrors.Wrap(pkgerrors.CodeOrderNumberCollision, err, "order number already exists").
						WithDetails(map[string]any{"order_number": number})
				}
				return err
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderCreated,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         &outbox.ActorRef{UserID: input.UserID, Role: enums.RoleUser.String()},
				Data: payloads.OrderCreatedEvent{
					OrderID:     order.ID,
					OrderNumber: order.OrderNumber,
					UserID:      order.UserID,
					TotalAmount: pricing.Format(order.TotalAmount),
					LineCount:   len(order.Items),
				},
			})
		})
		if err == nil {
			s.metrics.IncOrdersCreated()
			s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order created")
			return NewOrderView(order), nil
		}
		if !pkgerrors.IsCode(err, pkgerrors.CodeOrderNumberCollision) {
			return nil, pkgerrors.Persistence(err, "create order")
		}
		s.metrics.IncOrderNumberCollision()
		s.logg.Warn(s.logg.WithField(ctx, "attempt", attempt), "order number collision")
		lastErr = err
	}
	return nil, lastErr
}

func (s *service) validateCreate(input CreateOrderInput) error {
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "user id is required")
	}
	if len(input.Lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "order must contain at least one line")
	}
	for _, line := range input.Lines {
		if line.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeInvalidInput, "product id is required")
		}
		if line.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be a positive whole number").
				WithDetails(map[string]any{"product_id": line.ProductID.String(), "quantity": line.Quantity})
		}
	}
	if err := s.validator.Var(strings.TrimSpace(input.Contact.Email), "required,email"); err != nil {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "a valid contact email is required")
	}
	return nil
}

// GetOrder returns the order with its lines. Orders owned by someone else
// are reported as missing unless the caller is an admin.
func (s *service) GetOrder(ctx context.Context, userID, orderID uuid.UUID, isAdmin bool) (*OrderView, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, orderNotFound()
		}
		return nil, pkgerrors.Persistence(err, "load order")
	}
	if !isAdmin && order.UserID != userID {
		return nil, orderNotFound()
	}
	return NewOrderView(order), nil
}

func (s *service) ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "user id is required")
	}
	return s.list(ctx, listQuery{UserID: &userID, Pagination: params})
}

func (s *service) AdminListOrders(ctx context.Context, input AdminListInput) (*OrderList, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	return s.list(ctx, listQuery{Status: input.Status, Pagination: input.Pagination})
}

func (s *service) list(ctx context.Context, query listQuery) (*OrderList, error) {
	if _, err := pagination.ParseCursor(query.Pagination.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Persistence(err, "list orders")
	}
	out := &OrderList{Orders: make([]OrderView, 0, len(rows)), NextCursor: next}
	for i := range rows {
		out.Orders = append(out.Orders, *NewOrderView(&rows[i]))
	}
	return out, nil
}

// Transition applies one lifecycle step under a row lock and emits
// order_status_changed in the same transaction.
func (s *service) Transition(ctx context.Context, input TransitionInput) (*OrderView, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "order id is required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "actor id is required")
	}
	if !input.NewStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "unknown order status").
			WithDetails(map[string]any{"status": input.NewStatus.String()})
	}

	ctx = s.logg.WithOrderID(ctx, input.OrderID.String())
	ctx = s.logg.WithActorRole(ctx, input.ActorRole.String())

	var (
		updated *models.Order
		from    enums.OrderStatus
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.LockByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return orderNotFound()
			}
			return err
		}
		if input.ActorRole != enums.RoleAdmin && order.UserID != input.ActorID {
			return orderNotFound()
		}

		from = order.Status
		to := input.NewStatus
		if !CanTransition(from, to) {
			return invalidTransition(from, to)
		}
		if err := s.policy(input.ActorRole, from, to); err != nil {
			return err
		}

		now := s.now()
		updates := map[string]any{
			"status":     to,
			"updated_at": now,
		}
		if column := timestampColumn(to); column != "" {
			updates[column] = now
		}
		if err := repo.UpdateStatus(ctx, order.ID, updates); err != nil {
			return err
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: input.ActorRole.String()},
			Data: payloads.OrderStatusChangedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				From:        from.String(),
				To:          to.String(),
				ActorRole:   input.ActorRole.String(),
				ChangedAt:   now,
			},
			OccurredAt: now,
		}); err != nil {
			return err
		}

		updated, err = repo.FindByID(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Persistence(err, "transition order")
	}

	s.metrics.IncOrderTransition(from.String(), updated.Status.String())
	s.logg.Info(ctx, "order status changed to "+updated.Status.String())
	return NewOrderView(updated), nil
}

func isOrderNumberCollision(err error) bool {
	return db.IsUniqueViolation(err, orderNumberConstraint) || db.IsUniqueViolation(err, orderNumberColumn)
}

func orderNotFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}
