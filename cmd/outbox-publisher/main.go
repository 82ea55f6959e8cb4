package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/hatchery-backend/pkg/config"
	"github.com/angelmondragon/hatchery-backend/pkg/db"
	"github.com/angelmondragon/hatchery-backend/pkg/kafka"
	"github.com/angelmondragon/hatchery-backend/pkg/logger"
	"github.com/angelmondragon/hatchery-backend/pkg/metrics"
	"github.com/angelmondragon/hatchery-backend/pkg/migrate"
	"github.com/angelmondragon/hatchery-backend/pkg/outbox"
	"github.com/angelmondragon/hatchery-backend/pkg/outbox/registry"
	"github.com/angelmondragon/hatchery-backend/pkg/pubsub"
)

const serviceName = "outbox-publisher"

func main() {
	requeue := flag.String("requeue", "", "comma separated dead-lettered event ids to put back in the queue, then exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceName

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
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

	dlq := outbox.NewDLQRepository(dbClient.DB())
	if *requeue != "" {
		err := requeueEvents(context.Background(), dlq, *requeue)
		if closeErr := dbClient.Close(); closeErr != nil {
			logg.Error(context.Background(), "error closing database", closeErr)
		}
		if err != nil {
			logg.Error(context.Background(), "requeue failed", err)
			os.Exit(1)
		}
		logg.Info(context.Background(), "dead-lettered events requeued")
		return
	}

	sink, topic, closer, err := buildSink(context.Background(), cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap sink", err)
		os.Exit(1)
	}
	defer func() {
		if err := multierr.Combine(closer.Close(), dbClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing connections", err)
		}
	}()

	eventRouter, err := registry.NewEventRouter(topic)
	if err != nil {
		logg.Error(context.Background(), "failed to build event router", err)
		os.Exit(1)
	}
	service, err := NewService(ServiceParams{
		Logger:      logg,
		DB:          dbClient,
		Sink:        sink,
		Repository:  outbox.NewRepository(dbClient.DB()),
		Router:      eventRouter,
		DLQ:         dlq,
		Metrics:     metrics.NewCommerceMetrics(prometheus.DefaultRegisterer),
		BatchSize:   cfg.Outbox.BatchSize,
		PollMS:      cfg.Outbox.PollIntervalMS,
		MaxAttempts: cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox publisher", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": serviceName,
		"sink":        sink.Name(),
		"topic":       topic,
	})
	logg.Info(ctx, "starting outbox publisher")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "outbox publisher stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "outbox publisher shutting down gracefully")
}

func buildSink(ctx context.Context, cfg *config.Config, logg *logger.Logger) (Sink, string, io.Closer, error) {
	switch cfg.Outbox.Sink {
	case config.OutboxSinkKafka:
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return nil, "", nil, err
		}
		sink, err := newKafkaSink(producer)
		if err != nil {
			return nil, "", nil, err
		}
		return sink, producer.Topic(), producer, nil
	case config.OutboxSinkPubSub:
		client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, pubsub.RolePublisher, logg)
		if err != nil {
			return nil, "", nil, err
		}
		sink, err := newPubSubSink(client)
		if err != nil {
			return nil, "", nil, err
		}
		return sink, cfg.PubSub.DomainTopic, client, nil
	default:
		return nil, "", nil, fmt.Errorf("unknown outbox sink %q", cfg.Outbox.Sink)
	}
}

func requeueEvents(ctx context.Context, dlq *outbox.DLQRepository, raw string) error {
	var errs error
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("event id %q: %w", part, err))
			continue
		}
		if err := dlq.Requeue(ctx, id); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("requeue %s: %w", id, err))
		}
	}
	return errs
}
