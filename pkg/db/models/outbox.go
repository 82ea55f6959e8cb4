package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/hatchery-backend/pkg/enums"
)

// OutboxEvent is written in the same transaction as the order change it
// describes. The row id doubles as the envelope event id.
type OutboxEvent struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventType     enums.OutboxEventType     `gorm:"column:event_type;type:event_type_enum;not null"`
	AggregateType enums.OutboxAggregateType `gorm:"column:aggregate_type;type:aggregate_type_enum;not null"`
	AggregateID   uuid.UUID                 `gorm:"column:aggregate_id;type:uuid;not null"`
	Payload       json.RawMessage           `gorm:"column:payload;type:jsonb;not null"`
	AttemptCount  int                       `gorm:"column:attempt_count;not null;default:0"`
	LastError     *string                   `gorm:"column:last_error"`
	PublishedTo   *string                   `gorm:"column:published_to"`
	PublishedAt   *time.Time                `gorm:"column:published_at"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime"`
}

func (OutboxEvent) TableName() string { return "outbox_events" }

// Pending reports whether the publisher still owes this row a delivery.
func (e OutboxEvent) Pending() bool { return e.PublishedAt == nil }

// OutboxDLQ holds a copy of an event the publisher gave up on.
type OutboxDLQ struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID      uuid.UUID       `gorm:"column:event_id;type:uuid;not null"`
	EventType    string          `gorm:"column:event_type;not null"`
	AggregateID  uuid.UUID       `gorm:"column:aggregate_id;type:uuid;not null"`
	Payload      json.RawMessage `gorm:"column:payload_json;type:jsonb;not null"`
	ErrorReason  string          `gorm:"column:error_reason;not null"`
	ErrorMessage *string         `gorm:"column:error_message"`
	AttemptCount int             `gorm:"column:attempt_count;not null;default:0"`
	FailedAt     time.Time       `gorm:"column:failed_at;autoCreateTime"`
}

func (OutboxDLQ) TableName() string { return "outbox_dlq" }
