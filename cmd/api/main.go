package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/hatchery-backend/api/controllers"
	"github.com/angelmondragon/hatchery-backend/api/routes"
	"github.com/angelmondragon/hatchery-backend/internal/cart"
	"github.com/angelmondragon/hatchery-backend/internal/categories"
	"github.com/angelmondragon/hatchery-backend/internal/checkout"
	"github.com/angelmondragon/hatchery-backend/internal/notifications"
	"github.com/angelmondragon/hatchery-backend/internal/orders"
	product "github.com/angelmondragon/hatchery-backend/internal/products"
	"github.com/angelmondragon/hatchery-backend/internal/reviews"
	"github.com/angelmondragon/hatchery-backend/internal/wishlist"
	"github.com/angelmondragon/hatchery-backend/pkg/config"
	"github.com/angelmondragon/hatchery-backend/pkg/db"
	"github.com/angelmondragon/hatchery-backend/pkg/logger"
	"github.com/angelmondragon/hatchery-backend/pkg/metrics"
	"github.com/angelmondragon/hatchery-backend/pkg/migrate"
	"github.com/angelmondragon/hatchery-backend/pkg/outbox"
	"github.com/angelmondragon/hatchery-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, db.Options{UseSQLite: cfg.FeatureFlags.UseSQLite}, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := multierr.Combine(redisClient.Close(), dbClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing connections", err)
		}
	}()

	handler, err := buildHandler(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func buildHandler(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (http.Handler, error) {
	conn := dbClient.DB()
	commerceMetrics := metrics.NewCommerceMetrics(prometheus.DefaultRegisterer)

	products, err := product.NewService(product.NewRepository(conn))
	if err != nil {
		return nil, err
	}

	var cache cart.Cache
	if cfg.FeatureFlags.CartCache {
		redisCache, err := cart.NewRedisCache(redisClient, cfg.Cart.CacheTTL, cfg.Cart.CacheJitter)
		if err != nil {
			return nil, err
		}
		cache = redisCache
	}
	carts, err := cart.NewService(cart.NewRepository(conn), dbClient, products, cache, commerceMetrics, logg)
	if err != nil {
		return nil, err
	}

	orderSvc, err := orders.NewService(orders.NewRepository(conn), dbClient, outbox.NewService(outbox.NewRepository(conn), logg), products, orders.Options{
		NumberAttempts: cfg.Orders.NumberAttempts,
		Metrics:        commerceMetrics,
		Logger:         logg,
	})
	if err != nil {
		return nil, err
	}

	checkoutSvc, err := checkout.NewService(carts, orderSvc, logg)
	if err != nil {
		return nil, err
	}
	wishlistSvc, err := wishlist.NewService(wishlist.NewRepository(conn), products)
	if err != nil {
		return nil, err
	}
	notificationSvc, err := notifications.NewService(notifications.NewRepository(conn))
	if err != nil {
		return nil, err
	}
	categorySvc, err := categories.NewService(categories.NewRepository(conn))
	if err != nil {
		return nil, err
	}
	reviewSvc, err := reviews.NewService(reviews.NewRepository(conn), products)
	if err != nil {
		return nil, err
	}

	return routes.NewRouter(routes.Dependencies{
		Config: cfg,
		Logger: logg,
		Readiness: map[string]controllers.Pinger{
			"db":    dbClient,
			"redis": redisClient,
		},
		Redis:         redisClient,
		Metrics:       promhttp.Handler(),
		Products:      products,
		Categories:    categorySvc,
		Reviews:       reviewSvc,
		Cart:          carts,
		Checkout:      checkoutSvc,
		Orders:        orderSvc,
		Wishlist:      wishlistSvc,
		Notifications: notificationSvc,
	}), nil
}
