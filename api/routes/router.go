package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/hatchery-backend/api/controllers"
	"github.com/angelmondragon/hatchery-backend/api/middleware"
	"github.com/angelmondragon/hatchery-backend/internal/cart"
	"github.com/angelmondragon/hatchery-backend/internal/categories"
	"github.com/angelmondragon/hatchery-backend/internal/checkout"
	"github.com/angelmondragon/hatchery-backend/internal/notifications"
	"github.com/angelmondragon/hatchery-backend/internal/orders"
	product "github.com/angelmondragon/hatchery-backend/internal/products"
	"github.com/angelmondragon/hatchery-backend/internal/reviews"
	"github.com/angelmondragon/hatchery-backend/internal/wishlist"
	"github.com/angelmondragon/hatchery-backend/pkg/config"
	"github.com/angelmondragon/hatchery-backend/pkg/enums"
	"github.com/angelmondragon/hatchery-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/hatchery-backend/pkg/redis"
)

// RedisStore backs idempotency replay and rate limiting.
type RedisStore interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Dependencies are the services mounted by the router. Nil readiness
// dependencies are skipped.
type Dependencies struct {
	Config        *config.Config
	Logger        *logger.Logger
	Readiness     map[string]controllers.Pinger
	Redis         RedisStore
	Metrics       http.Handler
	Products      product.Service
	Categories    categories.Service
	Reviews       reviews.Service
	Cart          cart.Service
	Checkout      checkout.Service
	Orders        orders.Service
	Wishlist      wishlist.Service
	Notifications notifications.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg, logg := deps.Config, deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness))
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	var (
		auth        = middleware.Auth(cfg.JWT, logg)
		critical    = middleware.Idempotency(deps.Redis, middleware.CriticalIdempotencyTTL, logg)
		idempotent  = middleware.Idempotency(deps.Redis, middleware.DefaultIdempotencyTTL, logg)
		cartLimiter = middleware.RateLimit(middleware.RateLimitPolicy{
			Name:   "cart",
			Limit:  cfg.RateLimit.CartLimit,
			Window: cfg.RateLimit.CartWindow,
		}, deps.Redis, logg)
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ListProducts(deps.Products, logg))
		r.Get("/products/{productId}", controllers.GetProduct(deps.Products, logg))
		r.Get("/products/{productId}/reviews", controllers.ListReviews(deps.Reviews, logg))
		r.Get("/categories", controllers.ListCategories(deps.Categories, logg))
		r.Get("/categories/{slug}", controllers.GetCategory(deps.Categories, logg))

		r.Group(func(r chi.Router) {
			r.Use(auth)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(deps.Cart, logg))
				r.Get("/summary", controllers.CartSummary(deps.Cart, logg))
				r.Group(func(r chi.Router) {
					r.Use(cartLimiter)
					r.Delete("/", controllers.CartClear(deps.Cart, logg))
					r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
					r.Put("/items/{productId}", controllers.CartSetQuantity(deps.Cart, logg))
					r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.Cart, logg))
				})
			})

			r.Post("/products/{productId}/reviews", controllers.CreateReview(deps.Reviews, logg))

			r.With(critical).Post("/checkout", controllers.Checkout(deps.Checkout, logg))

			r.Route("/orders", func(r chi.Router) {
				r.With(critical).Post("/", controllers.CreateOrder(deps.Orders, logg))
				r.Get("/", controllers.ListOrders(deps.Orders, logg))
				r.Get("/{orderId}", controllers.GetOrder(deps.Orders, logg))
				r.With(idempotent).Post("/{orderId}/cancel", controllers.CancelOrder(deps.Orders, logg))
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.WishlistFetch(deps.Wishlist, logg))
				r.Get("/ids", controllers.WishlistIDs(deps.Wishlist, logg))
				r.Post("/items", controllers.WishlistAdd(deps.Wishlist, logg))
				r.Delete("/items/{productId}", controllers.WishlistRemove(deps.Wishlist, logg))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(auth)
		r.Use(middleware.RequireRole(logg, enums.RoleAdmin))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminListProducts(deps.Products, logg))
			r.With(idempotent).Post("/", controllers.AdminCreateProduct(deps.Products, logg))
			r.Patch("/{productId}", controllers.AdminUpdateProduct(deps.Products, logg))
			r.Delete("/{productId}", controllers.AdminDeleteProduct(deps.Products, logg))
		})
		r.With(idempotent).Post("/categories", controllers.AdminCreateCategory(deps.Categories, logg))
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(deps.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(deps.Orders, logg))
			r.Patch("/{orderId}/status", controllers.AdminTransitionOrder(deps.Orders, logg))
		})
		r.Get("/stats", controllers.AdminStats(deps.Orders, logg))
	})

	return r
}
