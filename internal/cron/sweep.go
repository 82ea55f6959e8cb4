package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/hatchery-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type sweepFunc func(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)

const (
	// OutboxRetentionName drops outbox events delivered before the window.
	// Undelivered events are never touched.
	OutboxRetentionName = "outbox-retention"
	// NotificationCleanupName drops notifications read before the window.
	NotificationCleanupName = "notification-cleanup"
)

type publishedEventPruner interface {
	DeletePublishedBefore(tx *gorm.DB, cutoff time.Time) (int64, error)
}

type readNotificationPruner interface {
	DeleteReadBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

func NewOutboxRetentionJob(logg *logger.Logger, db txRunner, repo publishedEventPruner, days int) (Job, error) {
	if repo == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	return newSweepJob(OutboxRetentionName, logg, db, func(_ context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
		return repo.DeletePublishedBefore(tx, cutoff)
	}, days)
}

func NewNotificationCleanupJob(logg *logger.Logger, db txRunner, repo readNotificationPruner, days int) (Job, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	return newSweepJob(NotificationCleanupName, logg, db, repo.DeleteReadBefore, days)
}

// sweepJob deletes rows older than a retention window in a single transaction.
type sweepJob struct {
	name      string
	logg      *logger.Logger
	db        txRunner
	sweep     sweepFunc
	retention time.Duration
	now       func() time.Time
}

func newSweepJob(name string, logg *logger.Logger, db txRunner, sweep sweepFunc, days int) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if db == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if days <= 0 {
		return nil, fmt.Errorf("%s: retention days must be positive", name)
	}
	return &sweepJob{
		name:      name,
		logg:      logg,
		db:        db,
		sweep:     sweep,
		retention: time.Duration(days) * 24 * time.Hour,
		now:       time.Now,
	}, nil
}

func (j *sweepJob) Name() string { return j.name }

func (j *sweepJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.sweep(ctx, tx, cutoff)
		deleted = rows
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	}), "sweep complete")
	return nil
}
