package outbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/hatchery-backend/pkg/db/models"
	"github.com/angelmondragon/hatchery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/hatchery-backend/pkg/errors"
)

const maxDLQErrorLen = 1024

// DLQRepository stores outbox rows the publisher gave up on and lets an
// operator put them back in the queue.
type DLQRepository struct {
	db *gorm.DB
}

func NewDLQRepository(db *gorm.DB) *DLQRepository {
	return &DLQRepository{db: db}
}

// Record copies a failed outbox row into the dead-letter table inside tx.
func (r *DLQRepository) Record(tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error) error {
	if tx == nil {
		return errors.New("dlq record requires a transaction")
	}
	if !reason.IsValid() {
		return fmt.Errorf("invalid dlq reason %q", reason)
	}
	entry := models.OutboxDLQ{
		EventID:      event.ID,
		EventType:    string(event.EventType),
		AggregateID:  event.AggregateID,
		Payload:      event.Payload,
		ErrorReason:  string(reason),
		AttemptCount: event.AttemptCount,
	}
	if cause != nil {
		msg := clip(cause.Error(), maxDLQErrorLen)
		entry.ErrorMessage = &msg
	}
	return tx.Create(&entry).Error
}

// FindByEventID returns nil without error when the event was never
// dead-lettered.
func (r *DLQRepository) FindByEventID(ctx context.Context, eventID uuid.UUID) (*models.OutboxDLQ, error) {
	var entry models.OutboxDLQ
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).Order("failed_at DESC").First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns the newest entries first; limit defaults to 50.
func (r *DLQRepository) List(ctx context.Context, limit int) ([]models.OutboxDLQ, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.OutboxDLQ
	err := r.db.WithContext(ctx).Order("failed_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// Requeue removes the dead-letter entries for eventID and resets the outbox
// row so the publisher claims it again on its next poll.
func (r *DLQRepository) Requeue(ctx context.Context, eventID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		removed := tx.Where("event_id = ?", eventID).Delete(&models.OutboxDLQ{})
		if removed.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, removed.Error, "delete dlq entry")
		}
		if removed.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "event is not dead-lettered").
				WithDetails(map[string]any{"event_id": eventID.String()})
		}
		reset := tx.Model(&models.OutboxEvent{}).
			Where("id = ? AND published_at IS NULL", eventID).
			Updates(map[string]any{"attempt_count": 0, "last_error": nil})
		if reset.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, reset.Error, "reset outbox row")
		}
		if reset.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "outbox row missing or already published").
				WithDetails(map[string]any{"event_id": eventID.String()})
		}
		return nil
	})
}

func clip(msg string, n int) string {
	if len(msg) <= n {
		return msg
	}
	return msg[:n]
}
