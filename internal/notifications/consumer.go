package notifications

import (
	"context"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/hatchery-backend/pkg/db/models"
	"github.com/angelmondragon/hatchery-backend/pkg/enums"
	"github.com/angelmondragon/hatchery-backend/pkg/logger"
	"github.com/angelmondragon/hatchery-backend/pkg/outbox"
	"github.com/angelmondragon/hatchery-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/hatchery-backend/pkg/outbox/registry"
)

const orderNotificationConsumer = "order-notifications"

type creator interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

type claimTracker interface {
	Claim(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Release(ctx context.Context, consumer string, eventID uuid.UUID) error
}

type payloadDecoder interface {
	Decode(eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) (any, error)
}

// Consumer watches order events and notifies the order owner.
type Consumer struct {
	repo         creator
	subscription receiver
	claims       claimTracker
	decoders     payloadDecoder
	logg         *logger.Logger
}

// NewConsumer builds an order notification consumer.
func NewConsumer(repo creator, subscription receiver, tracker claimTracker, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if tracker == nil {
		return nil, fmt.Errorf("idempotency guard required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		claims:       tracker,
		decoders:     registry.NewDecoderRegistry(),
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

var ackResult = processResult{ack: true}

// process acks anything redelivery cannot fix and nacks storage failures.
func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != enums.EventOrderCreated && eventType != enums.EventOrderStatusChanged {
		c.logg.Debug(logCtx, "skipping unhandled event")
		return ackResult
	}

	envelope, eventID, err := outbox.ParseEnvelope(msg.Data)
	if err != nil {
		c.logg.Error(logCtx, "dropping malformed envelope", err)
		return ackResult
	}
	logCtx = c.logg.WithField(logCtx, "event_id", eventID.String())

	payload, err := c.decoders.Decode(eventType, envelope)
	if err != nil {
		c.logg.Error(logCtx, "dropping undecodable event", err)
		return ackResult
	}
	notification, err := buildNotification(payload)
	if err != nil {
		c.logg.Error(logCtx, "dropping event without owner", err)
		return ackResult
	}
	logCtx = c.logg.WithUserID(logCtx, notification.UserID.String())

	first, err := c.claims.Claim(ctx, orderNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if !first {
		c.logg.Info(logCtx, "event already processed")
		return ackResult
	}

	if err := c.repo.Create(ctx, notification); err != nil {
		c.logg.Error(logCtx, "notification insert failed", err)
		if releaseErr := c.claims.Release(ctx, orderNotificationConsumer, eventID); releaseErr != nil {
			c.logg.Error(logCtx, "release idempotency claim", releaseErr)
		}
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "order owner notified")
	return ackResult
}

func buildNotification(payload any) (*models.Notification, error) {
	switch p := payload.(type) {
	case *payloads.OrderCreatedEvent:
		if p.UserID == uuid.Nil {
			return nil, fmt.Errorf("user id missing")
		}
		return &models.Notification{
			UserID:  p.UserID,
			Type:    enums.NotificationTypeOrderStatus,
			Title:   "Order received",
			Message: fmt.Sprintf("We received order %s totalling %s.", p.OrderNumber, p.TotalAmount),
			Link:    orderLink(p.OrderID),
		}, nil
	case *payloads.OrderStatusChangedEvent:
		if p.UserID == uuid.Nil {
			return nil, fmt.Errorf("user id missing")
		}
		return &models.Notification{
			UserID:  p.UserID,
			Type:    enums.NotificationTypeOrderStatus,
			Title:   "Order " + p.To,
			Message: fmt.Sprintf("Order %s is now %s.", p.OrderNumber, p.To),
			Link:    orderLink(p.OrderID),
		}, nil
	}
	return nil, fmt.Errorf("unsupported payload %T", payload)
}

func orderLink(orderID uuid.UUID) *string {
	link := "/orders/" + orderID.String()
	return &link
}
