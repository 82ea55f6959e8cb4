package cart

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/angelmondragon/hatchery-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/hatchery-backend/pkg/errors"
	"github.com/angelmondragon/hatchery-backend/pkg/logger"
	"github.com/angelmondragon/hatchery-backend/pkg/pricing"
)

const (
	cacheInvalidateTimeout = time.Second
	sharedLoadTimeout      = 5 * time.Second

	// quantity is an INTEGER column on Postgres
	maxLineQuantity = math.MaxInt32
)

// Service manages a user's cart. Every read-modify-write runs in one
// transaction holding the cart row lock.
type Service interface {
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartView, error)
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartView, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartView, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	Get(ctx context.Context, userID uuid.UUID) (*CartView, error)
	Snapshot(ctx context.Context, userID uuid.UUID) (*CartView, error)
	GetTotal(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	GetItemCount(ctx context.Context, userID uuid.UUID) (int, error)
}

type cartMetrics interface {
	IncCartMutation(op string)
	IncCartCache(result string)
}

type noopMetrics struct{}

func (noopMetrics) IncCartMutation(string) {}
func (noopMetrics) IncCartCache(string)    {}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productLookup
	cache    Cache
	metrics  cartMetrics
	logg     *logger.Logger
	sfg      singleflight.Group
}

// NewService builds a cart service. cache and metrics may be nil.
func NewService(repo CartRepository, tx txRunner, products productLookup, cache Cache, metrics cartMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &service{
		repo:     repo,
		tx:       tx,
		products: products,
		cache:    cache,
		metrics:  metrics,
		logg:     logg,
	}, nil
}

// AddItem merges quantity into the product's line, creating it when absent.
func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartView, error) {
	if err := validateIDs(userID, productID); err != nil {
		return nil, err
	}
	if quantity <= 0 || quantity > maxLineQuantity {
		return nil, invalidQuantity(quantity)
	}
	if err := s.ensurePurchasable(ctx, productID); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.LockOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		line, err := repo.FindLine(ctx, cart.ID, productID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := repo.InsertLine(ctx, &models.CartLine{
				CartID:    cart.ID,
				ProductID: productID,
				Quantity:  quantity,
				AddedAt:   now,
			}); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			merged := line.Quantity + quantity
			if merged <= 0 || merged > maxLineQuantity {
				return invalidQuantity(merged)
			}
			if err := repo.UpdateLineQuantity(ctx, line.ID, merged); err != nil {
				return err
			}
		}
		return repo.Touch(ctx, cart.ID, now)
	})
	if err != nil {
		return nil, pkgerrors.Persistence(err, "add cart item")
	}
	s.afterMutation(ctx, userID, "add")
	return s.load(ctx, userID)
}

// SetQuantity replaces the line's quantity. A quantity of zero or less
// removes the line.
func (s *service) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartView, error) {
	if err := validateIDs(userID, productID); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return s.remove(ctx, userID, productID, "set_quantity")
	}
	if quantity > maxLineQuantity {
		return nil, invalidQuantity(quantity)
	}
	if err := s.ensurePurchasable(ctx, productID); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.LockOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		line, err := repo.FindLine(ctx, cart.ID, productID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := repo.InsertLine(ctx, &models.CartLine{
				CartID:    cart.ID,
				ProductID: productID,
				Quantity:  quantity,
				AddedAt:   now,
			}); err != nil {
				return err
			}
		case err != nil:
			return err
		case line.Quantity == quantity:
			return nil
		default:
			if err := repo.UpdateLineQuantity(ctx, line.ID, quantity); err != nil {
				return err
			}
		}
		return repo.Touch(ctx, cart.ID, now)
	})
	if err != nil {
		return nil, pkgerrors.Persistence(err, "set cart quantity")
	}
	s.afterMutation(ctx, userID, "set_quantity")
	return s.load(ctx, userID)
}

// RemoveItem is idempotent: removing an absent product leaves the cart as is.
func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartView, error) {
	if err := validateIDs(userID, productID); err != nil {
		return nil, err
	}
	return s.remove(ctx, userID, productID, "remove")
}

func (s *service) remove(ctx context.Context, userID, productID uuid.UUID, op string) (*CartView, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.LockOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		removed, err := repo.DeleteLine(ctx, cart.ID, productID)
		if err != nil || !removed {
			return err
		}
		return repo.Touch(ctx, cart.ID, time.Now().UTC())
	})
	if err != nil {
		return nil, pkgerrors.Persistence(err, "remove cart item")
	}
	s.afterMutation(ctx, userID, op)
	return s.load(ctx, userID)
}

// Clear empties the cart. The cart row itself is kept.
func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "user id is required")
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.LockOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		removed, err := repo.DeleteLines(ctx, cart.ID)
		if err != nil || removed == 0 {
			return err
		}
		return repo.Touch(ctx, cart.ID, time.Now().UTC())
	})
	if err != nil {
		return pkgerrors.Persistence(err, "clear cart")
	}
	s.afterMutation(ctx, userID, "clear")
	return nil
}

// Get serves the cart view through the cache when one is configured.
// Concurrent misses for the same user share a single load, detached from
// any one caller's cancellation.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "user id is required")
	}
	if s.cache == nil {
		return s.load(ctx, userID)
	}

	ch := s.sfg.DoChan(userID.String(), func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
		defer cancel()

		view, err := s.cache.Get(ctx, userID)
		if err == nil {
			s.metrics.IncCartCache("hit")
			return view, nil
		}
		if errors.Is(err, ErrCacheMiss) {
			s.metrics.IncCartCache("miss")
		} else {
			s.metrics.IncCartCache("error")
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart cache read failed")
		}

		view, err = s.load(ctx, userID)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, userID, view); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart cache write failed")
		}
		return view, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*CartView), nil
	}
}

// Snapshot reads the lines from storage under the cart row lock, never from
// the cache. Checkout prices orders from it.
func (s *service) Snapshot(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "user id is required")
	}
	var cart *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.LockOrCreate(ctx, userID); err != nil {
			return err
		}
		found, err := repo.FindByUser(ctx, userID)
		if err != nil {
			return err
		}
		cart = found
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Persistence(err, "snapshot cart")
	}
	view, _, err := s.render(ctx, userID, cart)
	return view, err
}

// GetTotal always reads current catalog prices, bypassing the cache.
func (s *service) GetTotal(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	if userID == uuid.Nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeInvalidInput, "user id is required")
	}
	_, total, err := s.build(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (s *service) GetItemCount(ctx context.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeInvalidInput, "user id is required")
	}
	view, err := s.load(ctx, userID)
	if err != nil {
		return 0, err
	}
	return view.ItemCount, nil
}

func (s *service) load(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	view, _, err := s.build(ctx, userID)
	return view, err
}

func (s *service) build(ctx context.Context, userID uuid.UUID) (*CartView, decimal.Decimal, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &CartView{UserID: userID, Lines: []LineView{}, Total: pricing.Format(decimal.Zero)}, decimal.Zero, nil
	}
	if err != nil {
		return nil, decimal.Zero, pkgerrors.Persistence(err, "load cart")
	}
	return s.render(ctx, userID, cart)
}

func (s *service) render(ctx context.Context, userID uuid.UUID, cart *models.Cart) (*CartView, decimal.Decimal, error) {
	ids := make([]uuid.UUID, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		ids = append(ids, line.ProductID)
	}
	catalog, err := s.products.Lookup(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, err
	}

	view := &CartView{UserID: userID, Lines: make([]LineView, 0, len(cart.Lines)), UpdatedAt: cart.UpdatedAt}
	lineTotals := make([]decimal.Decimal, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		lv := LineView{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			AddedAt:   line.AddedAt,
		}
		view.ItemCount += line.Quantity
		if product, ok := catalog[line.ProductID]; ok {
			subtotal := pricing.LineSubtotal(product.FinalPrice, line.Quantity)
			lv.Title = product.Title
			lv.UnitPrice = pricing.Format(product.FinalPrice)
			lv.LineTotal = pricing.Format(subtotal)
			lv.Available = true
			lineTotals = append(lineTotals, subtotal)
		}
		view.Lines = append(view.Lines, lv)
	}
	total := pricing.Sum(lineTotals...)
	view.Total = pricing.Format(total)
	return view, total, nil
}

func (s *service) ensurePurchasable(ctx context.Context, productID uuid.UUID) error {
	found, err := s.products.Lookup(ctx, []uuid.UUID{productID})
	if err != nil {
		return err
	}
	if _, ok := found[productID]; !ok {
		return pkgerrors.New(pkgerrors.CodeProductUnavailable, "product is not available").
			WithDetails(map[string]any{"product_id": productID.String()})
	}
	return nil
}

// afterMutation runs once the transaction has committed.
func (s *service) afterMutation(ctx context.Context, userID uuid.UUID, op string) {
	s.metrics.IncCartMutation(op)
	if s.cache == nil {
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheInvalidateTimeout)
	defer cancel()
	if err := s.cache.Delete(cctx, userID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart cache invalidate failed")
	}
}

func validateIDs(userID, productID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "user id is required")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "product id is required")
	}
	return nil
}

func invalidQuantity(quantity int) error {
	return pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be a positive whole number").
		WithDetails(map[string]any{"quantity": quantity})
}
